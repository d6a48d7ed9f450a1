package library

import (
	"errors"
	"fmt"
	"os"
	"time"
)

// Library is the façade tying the repositories to the lending rules. All
// availability is derived from open-loan counts; all suspension state is
// re-derived from overdue open loans at the moments that matter.
type Library struct {
	Books   *BookRepo
	Members *MemberRepo
	Loans   *LoanRepo
	Audit   *AuditLog

	cfg *Config
	now func() time.Time
}

// Open prepares the data directory, migrates a legacy catalog file if one
// is found, and ensures all three record files exist. A catalog whose size
// matches no known layout is logged as a warning and left alone; reads
// against it will skip what they cannot decode.
func Open(cfg *Config) (*Library, error) {
	if err := ensureDataDir(cfg.DataDir); err != nil {
		return nil, err
	}

	audit := NewAuditLog(cfg.AuditPath())
	migrated, err := MigrateCatalog(cfg.BooksPath())
	switch {
	case errors.Is(err, ErrSchemaMismatch):
		_ = audit.Append("warn", "catalog not migrated: %v", err)
	case err != nil:
		return nil, err
	case migrated:
		_ = audit.Append("migrate", "catalog upgraded to %d-byte records, backup at %s",
			BookLayout.Size(), cfg.BooksPath()+BackupSuffix)
	}

	lib := &Library{
		Books:   NewBookRepo(cfg.BooksPath()),
		Members: NewMemberRepo(cfg.MembersPath()),
		Loans:   NewLoanRepo(cfg.LoansPath()),
		Audit:   audit,
		cfg:     cfg,
		now:     time.Now,
	}
	for _, s := range []*Store{lib.Books.store, lib.Members.store, lib.Loans.store} {
		if err := s.EnsureExists(); err != nil {
			return nil, err
		}
	}
	return lib, nil
}

// Config returns the configuration the library was opened with.
func (l *Library) Config() *Config { return l.cfg }

func (l *Library) today() time.Time {
	y, m, d := l.now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ReturnResult reports what a return did.
type ReturnResult struct {
	LoanID      string
	BookID      string
	MemberID    string
	DaysOverdue int  // negative means returned early
	Reinstated  bool // member went SUSPENDED → ACTIVE as part of this return
}

// Borrow lends one copy of a book to a member and returns the new loan id.
// It sweeps overdue loans first, so suspension state is fresh at the
// moment of decision, then rejects with a typed PolicyError when the book
// or member is unknown, the member is suspended or at the loan cap, or no
// copies remain. The book record itself is not touched: availability is
// derived, not stored.
func (l *Library) Borrow(bookID, memberID string) (string, error) {
	if _, err := l.SweepOverdue(); err != nil {
		return "", err
	}

	book, err := l.Books.FindByID(bookID)
	if err != nil {
		return "", err
	}
	if book == nil {
		return "", newPolicyError(CodeBookNotFound, "no book with id %s", bookID)
	}
	member, err := l.Members.FindByID(memberID)
	if err != nil {
		return "", err
	}
	if member == nil {
		return "", newPolicyError(CodeMemberNotFound, "no member with id %s", memberID)
	}
	if member.Status == MemberSuspended {
		return "", newPolicyError(CodeMemberSuspended, "member %s is suspended for overdue loans", memberID)
	}

	open, err := l.Loans.OpenByMember(memberID)
	if err != nil {
		return "", err
	}
	if len(open) >= l.cfg.MaxLoansPerMember {
		return "", newPolicyError(CodeLoanLimitReached, "member %s already holds %d open loans", memberID, len(open))
	}

	available, err := l.availableFor(book)
	if err != nil {
		return "", err
	}
	if available <= 0 {
		return "", newPolicyError(CodeNoCopiesAvailable, "all %d copies of book %s are out", book.Quantity, bookID)
	}

	loanID, err := l.Loans.Create(bookID, memberID, l.today().Format(dateFormat))
	if err != nil {
		return "", err
	}
	_ = l.Audit.Append("borrow", "loan %s: book %s to member %s", loanID, bookID, memberID)
	return loanID, nil
}

// Return closes the open loan with the given id: stamps today's return
// date, marks it RETURNED (terminal), and reinstates the member when no
// overdue open loans remain on their account.
func (l *Library) Return(loanID string) (*ReturnResult, error) {
	loan, err := l.Loans.FindByID(loanID)
	if err != nil {
		return nil, err
	}
	if loan == nil {
		return nil, newPolicyError(CodeLoanNotFound, "no loan with id %s", loanID)
	}
	return l.closeLoan(loan)
}

// ReturnBook closes the member's oldest open loan of the given book, for
// callers that track books rather than loan ids.
func (l *Library) ReturnBook(memberID, bookID string) (*ReturnResult, error) {
	loan, err := l.Loans.FindOpen(memberID, bookID)
	if err != nil {
		return nil, err
	}
	if loan == nil {
		return nil, newPolicyError(CodeLoanNotFound, "member %s has no open loan of book %s", memberID, bookID)
	}
	return l.closeLoan(loan)
}

func (l *Library) closeLoan(loan *Loan) (*ReturnResult, error) {
	if loan.Status == LoanReturned {
		return nil, newPolicyError(CodeLoanClosed, "loan %s was already returned on %s", loan.ID, loan.ReturnDate)
	}

	today := l.today()
	loan.ReturnDate = today.Format(dateFormat)
	loan.Status = LoanReturned
	if err := l.Loans.Update(loan); err != nil {
		return nil, err
	}

	result := &ReturnResult{LoanID: loan.ID, BookID: loan.BookID, MemberID: loan.MemberID}
	if due, err := loan.DueDate(l.cfg.LoanPeriodDays); err == nil {
		result.DaysOverdue = daysBetween(due, today)
	} else {
		_ = l.Audit.Append("warn", "loan %s: borrow date %q unparseable, overdue days unknown",
			loan.ID, loan.BorrowDate)
	}

	reinstated, err := l.reconcileMember(loan.MemberID, today)
	if err != nil {
		return nil, err
	}
	result.Reinstated = reinstated

	_ = l.Audit.Append("return", "loan %s: book %s from member %s (%d days overdue)",
		loan.ID, loan.BookID, loan.MemberID, result.DaysOverdue)
	return result, nil
}

// reconcileMember lifts a suspension once the member has no overdue open
// loans left. Dangling member references are tolerated: returning a loan
// whose member was deleted still succeeds.
func (l *Library) reconcileMember(memberID string, today time.Time) (bool, error) {
	member, err := l.Members.FindByID(memberID)
	if err != nil {
		return false, err
	}
	if member == nil || member.Status != MemberSuspended {
		return false, nil
	}
	remaining, err := l.Loans.OpenByMember(memberID)
	if err != nil {
		return false, err
	}
	for _, loan := range remaining {
		if l.overdue(loan, today) {
			return false, nil
		}
	}
	if err := l.Members.SetStatus(memberID, MemberActive); err != nil {
		return false, err
	}
	_ = l.Audit.Append("reinstate", "member %s active again, no overdue loans remain", memberID)
	return true, nil
}

// SweepOverdue suspends every ACTIVE member holding at least one overdue
// open loan and returns the ids of members suspended by this call, in
// file order. Members already suspended are untouched, so repeated sweeps
// are no-ops.
func (l *Library) SweepOverdue() ([]string, error) {
	loans, err := l.Loans.List(false)
	if err != nil {
		return nil, err
	}
	today := l.today()

	var suspended []string
	seen := make(map[string]bool)
	for _, loan := range loans {
		if !loan.Open() || !l.overdue(loan, today) || seen[loan.MemberID] {
			continue
		}
		seen[loan.MemberID] = true
		member, err := l.Members.FindByID(loan.MemberID)
		if err != nil {
			return nil, err
		}
		if member == nil || member.Status != MemberActive {
			continue
		}
		if err := l.Members.SetStatus(member.ID, MemberSuspended); err != nil {
			return nil, err
		}
		suspended = append(suspended, member.ID)
		_ = l.Audit.Append("suspend", "member %s suspended, loan %s overdue since %s",
			member.ID, loan.ID, loan.BorrowDate)
	}
	return suspended, nil
}

// Available returns how many copies of the book can be lent right now:
// quantity minus non-deleted open loans. The stored status flag plays no
// part in this.
func (l *Library) Available(bookID string) (int, error) {
	book, err := l.Books.FindByID(bookID)
	if err != nil {
		return 0, err
	}
	if book == nil {
		return 0, newPolicyError(CodeBookNotFound, "no book with id %s", bookID)
	}
	return l.availableFor(book)
}

func (l *Library) availableFor(book *Book) (int, error) {
	open, err := l.Loans.OpenCountByBook(book.ID)
	if err != nil {
		return 0, err
	}
	available := book.Quantity - open
	if available < 0 {
		// Quantity edited below the number of copies already out; report
		// zero rather than a negative count.
		available = 0
	}
	return available, nil
}

// MemberLoans returns the member's open loans, oldest first.
func (l *Library) MemberLoans(memberID string) ([]*Loan, error) {
	return l.Loans.OpenByMember(memberID)
}

// OverdueLoans returns all open loans past due as of today. Loans with
// unparseable borrow dates are skipped.
func (l *Library) OverdueLoans() ([]*Loan, error) {
	loans, err := l.Loans.List(false)
	if err != nil {
		return nil, err
	}
	today := l.today()
	var overdue []*Loan
	for _, loan := range loans {
		if loan.Open() && l.overdue(loan, today) {
			overdue = append(overdue, loan)
		}
	}
	return overdue, nil
}

func (l *Library) overdue(loan *Loan, today time.Time) bool {
	due, err := loan.DueDate(l.cfg.LoanPeriodDays)
	if err != nil {
		return false
	}
	return today.After(due)
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}

func ensureDataDir(dir string) error {
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	return nil
}
