package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"library-system/library"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	configPath string
	dataDir    string
)

func main() {
	root := &cobra.Command{
		Use:           "libsys",
		Short:         "Library records and lending over fixed-record binary files",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "libsys.yaml", "config file")
	root.PersistentFlags().StringVar(&dataDir, "data-dir", "", "override the configured data directory")

	root.AddCommand(
		bookCmd(),
		memberCmd(),
		borrowCmd(),
		returnCmd(),
		loansCmd(),
		sweepCmd(),
		statsCmd(),
		reportCmd(),
		exportCmd(),
		historyCmd(),
	)

	if err := root.Execute(); err != nil {
		if pe, ok := library.IsPolicyError(err); ok {
			fmt.Fprintf(os.Stderr, "rejected: %s\n", pe.Message)
		} else {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}
}

func openLibrary() (*library.Library, error) {
	cfg, err := library.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	return library.Open(cfg)
}

// ---------------------------------------------------------------------------
// book subcommands
// ---------------------------------------------------------------------------

func bookCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "book", Short: "Manage catalog items"}

	var code, year string
	var quantity int
	add := &cobra.Command{
		Use:   "add <title> <author>",
		Short: "Add a book to the catalog",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			lib, err := openLibrary()
			if err != nil {
				return err
			}
			id, err := lib.Books.Create(args[0], args[1], code, year, quantity)
			if err != nil {
				return err
			}
			fmt.Printf("added book %s: %s by %s (%d copies)\n", id, args[0], args[1], quantity)
			return nil
		},
	}
	add.Flags().StringVar(&code, "code", "", "ISBN or external code")
	add.Flags().StringVar(&year, "year", "", "publication year")
	add.Flags().IntVar(&quantity, "quantity", 1, "copies owned")

	list := &cobra.Command{
		Use:   "list",
		Short: "List catalog items with derived availability",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			lib, err := openLibrary()
			if err != nil {
				return err
			}
			books, err := lib.Books.List(false)
			if err != nil {
				return err
			}
			rows := [][]string{{"ID", "TITLE", "AUTHOR", "YEAR", "QTY", "AVAIL"}}
			for _, b := range books {
				avail, err := lib.Available(b.ID)
				if err != nil {
					return err
				}
				rows = append(rows, []string{
					b.ID, b.Title, b.Author, b.Year,
					strconv.Itoa(b.Quantity), strconv.Itoa(avail),
				})
			}
			printTable(rows)
			return nil
		},
	}

	var newTitle, newAuthor, newCode, newYear string
	var newQuantity int
	update := &cobra.Command{
		Use:   "update <id>",
		Short: "Update book fields (only the given flags change)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := openLibrary()
			if err != nil {
				return err
			}
			book, err := lib.Books.FindByID(args[0])
			if err != nil {
				return err
			}
			if book == nil {
				return fmt.Errorf("no book with id %s", args[0])
			}
			if cmd.Flags().Changed("title") {
				book.Title = newTitle
			}
			if cmd.Flags().Changed("author") {
				book.Author = newAuthor
			}
			if cmd.Flags().Changed("code") {
				book.Code = newCode
			}
			if cmd.Flags().Changed("year") {
				book.Year = newYear
			}
			if cmd.Flags().Changed("quantity") {
				if newQuantity < 1 {
					return fmt.Errorf("quantity must be a positive integer, got %d", newQuantity)
				}
				book.Quantity = newQuantity
			}
			if err := lib.Books.Update(book); err != nil {
				return err
			}
			fmt.Printf("updated book %s\n", book.ID)
			return nil
		},
	}
	update.Flags().StringVar(&newTitle, "title", "", "new title")
	update.Flags().StringVar(&newAuthor, "author", "", "new author")
	update.Flags().StringVar(&newCode, "code", "", "new external code")
	update.Flags().StringVar(&newYear, "year", "", "new publication year")
	update.Flags().IntVar(&newQuantity, "quantity", 0, "new copy count")

	rm := &cobra.Command{
		Use:   "rm <id>",
		Short: "Soft-delete a book (its id stays spent)",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			lib, err := openLibrary()
			if err != nil {
				return err
			}
			ok, err := lib.Books.SoftDelete(args[0])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("no book with id %s", args[0])
			}
			fmt.Printf("deleted book %s\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(add, list, update, rm)
	return cmd
}

// ---------------------------------------------------------------------------
// member subcommands
// ---------------------------------------------------------------------------

func memberCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "member", Short: "Manage members"}

	var email, phone string
	add := &cobra.Command{
		Use:   "add <name>",
		Short: "Register a member",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			lib, err := openLibrary()
			if err != nil {
				return err
			}
			id, err := lib.Members.Create(args[0], email, phone, time.Now().Format("2006-01-02"))
			if err != nil {
				return err
			}
			fmt.Printf("added member %s: %s\n", id, args[0])
			return nil
		},
	}
	add.Flags().StringVar(&email, "email", "", "contact email")
	add.Flags().StringVar(&phone, "phone", "", "contact phone")

	list := &cobra.Command{
		Use:   "list",
		Short: "List members and their status",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			lib, err := openLibrary()
			if err != nil {
				return err
			}
			members, err := lib.Members.List(false)
			if err != nil {
				return err
			}
			rows := [][]string{{"ID", "NAME", "EMAIL", "JOINED", "STATUS"}}
			for _, m := range members {
				status := "active"
				if m.Status == library.MemberSuspended {
					status = "suspended"
				}
				rows = append(rows, []string{m.ID, m.Name, m.Email, m.JoinDate, status})
			}
			printTable(rows)
			return nil
		},
	}

	var newName, newEmail, newPhone string
	update := &cobra.Command{
		Use:   "update <id>",
		Short: "Update member contact fields (only the given flags change)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := openLibrary()
			if err != nil {
				return err
			}
			member, err := lib.Members.FindByID(args[0])
			if err != nil {
				return err
			}
			if member == nil {
				return fmt.Errorf("no member with id %s", args[0])
			}
			if cmd.Flags().Changed("name") {
				member.Name = newName
			}
			if cmd.Flags().Changed("email") {
				member.Email = newEmail
			}
			if cmd.Flags().Changed("phone") {
				member.Phone = newPhone
			}
			if err := lib.Members.Update(member); err != nil {
				return err
			}
			fmt.Printf("updated member %s\n", member.ID)
			return nil
		},
	}
	update.Flags().StringVar(&newName, "name", "", "new name")
	update.Flags().StringVar(&newEmail, "email", "", "new email")
	update.Flags().StringVar(&newPhone, "phone", "", "new phone")

	rm := &cobra.Command{
		Use:   "rm <id>",
		Short: "Soft-delete a member",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			lib, err := openLibrary()
			if err != nil {
				return err
			}
			ok, err := lib.Members.SoftDelete(args[0])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("no member with id %s", args[0])
			}
			fmt.Printf("deleted member %s\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(add, list, update, rm)
	return cmd
}

// ---------------------------------------------------------------------------
// circulation
// ---------------------------------------------------------------------------

func borrowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "borrow <book-id> <member-id>",
		Short: "Lend one copy of a book to a member",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			lib, err := openLibrary()
			if err != nil {
				return err
			}
			loanID, err := lib.Borrow(args[0], args[1])
			if err != nil {
				return err
			}
			due := time.Now().AddDate(0, 0, lib.Config().LoanPeriodDays).Format("2006-01-02")
			fmt.Printf("loan %s created, due %s\n", loanID, due)
			return nil
		},
	}
}

func returnCmd() *cobra.Command {
	var byBook bool
	cmd := &cobra.Command{
		Use:   "return <loan-id> | return --book <member-id> <book-id>",
		Short: "Return a borrowed copy",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(_ *cobra.Command, args []string) error {
			lib, err := openLibrary()
			if err != nil {
				return err
			}
			var result *library.ReturnResult
			if byBook {
				if len(args) != 2 {
					return errors.New("--book needs <member-id> <book-id>")
				}
				result, err = lib.ReturnBook(args[0], args[1])
			} else {
				if len(args) != 1 {
					return errors.New("return takes one loan id (or use --book)")
				}
				result, err = lib.Return(args[0])
			}
			if err != nil {
				return err
			}
			switch {
			case result.DaysOverdue > 0:
				fmt.Printf("loan %s returned %d day(s) late\n", result.LoanID, result.DaysOverdue)
			default:
				fmt.Printf("loan %s returned on time\n", result.LoanID)
			}
			if result.Reinstated {
				fmt.Printf("member %s reinstated\n", result.MemberID)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&byBook, "book", false, "identify the loan by member and book instead of loan id")
	return cmd
}

func loansCmd() *cobra.Command {
	var memberID string
	var overdueOnly bool
	cmd := &cobra.Command{
		Use:   "loans",
		Short: "List loans",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			lib, err := openLibrary()
			if err != nil {
				return err
			}
			var loans []*library.Loan
			switch {
			case overdueOnly:
				loans, err = lib.OverdueLoans()
			case memberID != "":
				loans, err = lib.MemberLoans(memberID)
			default:
				loans, err = lib.Loans.List(false)
			}
			if err != nil {
				return err
			}
			rows := [][]string{{"LOAN", "BOOK", "MEMBER", "BORROWED", "RETURNED", "STATUS"}}
			for _, ln := range loans {
				status := "open"
				if ln.Status == library.LoanReturned {
					status = "returned"
				}
				rows = append(rows, []string{
					ln.ID, bookLabel(lib, ln.BookID), memberLabel(lib, ln.MemberID),
					ln.BorrowDate, ln.ReturnDate, status,
				})
			}
			printTable(rows)
			return nil
		},
	}
	cmd.Flags().StringVar(&memberID, "member", "", "only open loans of this member")
	cmd.Flags().BoolVar(&overdueOnly, "overdue", false, "only overdue open loans")
	return cmd
}

func sweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Suspend members with overdue open loans",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			lib, err := openLibrary()
			if err != nil {
				return err
			}
			suspended, err := lib.SweepOverdue()
			if err != nil {
				return err
			}
			if len(suspended) == 0 {
				fmt.Println("no members to suspend")
				return nil
			}
			fmt.Printf("suspended %d member(s): %s\n", len(suspended), strings.Join(suspended, ", "))
			return nil
		},
	}
}

// ---------------------------------------------------------------------------
// reporting and export
// ---------------------------------------------------------------------------

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show aggregate counts",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			lib, err := openLibrary()
			if err != nil {
				return err
			}
			s, err := lib.Stats()
			if err != nil {
				return err
			}
			fmt.Print(formatStats(s))
			return nil
		},
	}
}

func reportCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Write a plain-text summary report",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			lib, err := openLibrary()
			if err != nil {
				return err
			}
			s, err := lib.Stats()
			if err != nil {
				return err
			}
			overdue, err := lib.OverdueLoans()
			if err != nil {
				return err
			}

			var sb strings.Builder
			sb.WriteString("LIBRARY SUMMARY REPORT\n")
			sb.WriteString("generated " + time.Now().Format(time.RFC3339) + "\n\n")
			sb.WriteString(formatStats(s))
			sb.WriteString("\nOVERDUE LOANS\n")
			if len(overdue) == 0 {
				sb.WriteString("  none\n")
			}
			for _, ln := range overdue {
				fmt.Fprintf(&sb, "  loan %s: %s held by %s since %s\n",
					ln.ID, bookLabel(lib, ln.BookID), memberLabel(lib, ln.MemberID), ln.BorrowDate)
			}

			if err := os.WriteFile(out, []byte(sb.String()), 0o644); err != nil {
				return fmt.Errorf("write report: %w", err)
			}
			fmt.Printf("report written to %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "library_report.txt", "report file path")
	return cmd
}

func exportCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Dump the record files into a SQLite database",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			lib, err := openLibrary()
			if err != nil {
				return err
			}
			if err := lib.ExportSQLite(out); err != nil {
				return err
			}
			fmt.Printf("exported to %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "library.db", "SQLite database path")
	return cmd
}

func historyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "Show the audit log",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			lib, err := openLibrary()
			if err != nil {
				return err
			}
			entries, err := lib.Audit.Entries()
			if err != nil {
				return err
			}
			for _, line := range entries {
				fmt.Println(line)
			}
			return nil
		},
	}
}

// ---------------------------------------------------------------------------
// output helpers
// ---------------------------------------------------------------------------

func formatStats(s *library.Stats) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "books:   %d active, %d deleted\n", s.BooksActive, s.BooksDeleted)
	fmt.Fprintf(&sb, "copies:  %d total, %d available, %d out\n", s.TotalCopies, s.AvailableCopies, s.BorrowedCopies)
	fmt.Fprintf(&sb, "members: %d active, %d suspended, %d deleted\n", s.MembersActive, s.MembersSuspended, s.MembersDeleted)
	fmt.Fprintf(&sb, "loans:   %d open (%d overdue), %d returned, %d deleted\n",
		s.LoansOpen, s.LoansOverdue, s.LoansReturned, s.LoansDeleted)
	return sb.String()
}

func bookLabel(lib *library.Library, id string) string {
	book, err := lib.Books.FindByID(id)
	if err != nil || book == nil {
		return id + " (unknown)"
	}
	return book.Title
}

func memberLabel(lib *library.Library, id string) string {
	member, err := lib.Members.FindByID(id)
	if err != nil || member == nil {
		return id + " (unknown)"
	}
	return member.Name
}

// printTable renders rows as fixed columns, shrinking the widest column
// to fit the terminal when stdout is one.
func printTable(rows [][]string) {
	if len(rows) == 0 {
		return
	}
	widths := make([]int, len(rows[0]))
	for _, row := range rows {
		for i, cell := range row {
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	total := len(widths) * 3
	for _, w := range widths {
		total += w
	}
	if term.IsTerminal(int(os.Stdout.Fd())) {
		if cols, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && total > cols {
			widest := 0
			for i := range widths {
				if widths[i] > widths[widest] {
					widest = i
				}
			}
			if shrink := total - cols; widths[widest] > shrink+8 {
				widths[widest] -= shrink
			}
		}
	}

	for _, row := range rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			if len(cell) > widths[i] && widths[i] > 3 {
				cell = cell[:widths[i]-3] + "..."
			}
			cells[i] = fmt.Sprintf("%-*s", widths[i], cell)
		}
		fmt.Println(strings.TrimRight(strings.Join(cells, " | "), " "))
	}
}
