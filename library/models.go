package library

import (
	"strconv"
	"time"
)

// Single-byte status alphabet shared by the record files.
const (
	BookAvailable = "A" // legacy flag, informational only
	BookBorrowed  = "B" // legacy flag, informational only

	MemberActive    = "A"
	MemberSuspended = "S"

	LoanOpen     = "B"
	LoanReturned = "R"

	notDeleted  = "0"
	softDeleted = "1"
)

// dateFormat is the on-disk ISO date form.
const dateFormat = "2006-01-02"

// parseDate is the one place record dates are parsed; callers decide to
// skip-and-continue, they never blanket-swallow.
func parseDate(s string) (time.Time, error) {
	return time.Parse(dateFormat, s)
}

// Book is one catalog item. Availability is NOT this struct's Status
// field: it is derived as Quantity minus open loans (see Library.Available).
// Status is carried for compatibility with files written by older tools.
type Book struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Author   string `json:"author"`
	Code     string `json:"code"` // ISBN or other external code
	Year     string `json:"year"`
	Quantity int    `json:"quantity"`
	Status   string `json:"status"`
	Deleted  bool   `json:"deleted"`
}

// Member is a registered borrower. Status is reconciled by the policy
// engine: suspended while any overdue open loan exists, active otherwise.
type Member struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	JoinDate string `json:"join_date"`
	Status   string `json:"status"`
	Deleted  bool   `json:"deleted"`
}

// Loan links a book to a member. ReturnDate is empty while the loan is
// open. OPEN→RETURNED is the only transition and it is terminal.
type Loan struct {
	ID         string `json:"id"`
	BookID     string `json:"book_id"`
	MemberID   string `json:"member_id"`
	BorrowDate string `json:"borrow_date"`
	ReturnDate string `json:"return_date"`
	Status     string `json:"status"`
	Deleted    bool   `json:"deleted"`
}

// Open reports whether the loan counts against its book's availability.
func (l *Loan) Open() bool { return l.Status == LoanOpen && !l.Deleted }

// DueDate is the borrow date plus the loan period.
func (l *Loan) DueDate(periodDays int) (time.Time, error) {
	borrowed, err := parseDate(l.BorrowDate)
	if err != nil {
		return time.Time{}, err
	}
	return borrowed.AddDate(0, 0, periodDays), nil
}

func flagBool(v string) bool { return v == softDeleted }

func boolFlag(b bool) string {
	if b {
		return softDeleted
	}
	return notDeleted
}

// Field positions in BookLayout.
const (
	bkID = iota
	bkTitle
	bkAuthor
	bkCode
	bkYear
	bkQuantity
	bkStatus
	bkDeleted
)

func bookValues(b *Book) []string {
	return []string{
		b.ID, b.Title, b.Author, b.Code, b.Year,
		strconv.Itoa(b.Quantity), b.Status, boolFlag(b.Deleted),
	}
}

func bookFromValues(v []string) *Book {
	// Records migrated from the legacy layout may carry junk in the
	// quantity field; they count as a single copy, matching the
	// migration default.
	qty, err := strconv.Atoi(v[bkQuantity])
	if err != nil || qty < 1 {
		qty = 1
	}
	return &Book{
		ID:       v[bkID],
		Title:    v[bkTitle],
		Author:   v[bkAuthor],
		Code:     v[bkCode],
		Year:     v[bkYear],
		Quantity: qty,
		Status:   v[bkStatus],
		Deleted:  flagBool(v[bkDeleted]),
	}
}

// Field positions in MemberLayout.
const (
	mbID = iota
	mbName
	mbEmail
	mbPhone
	mbJoinDate
	mbStatus
	mbDeleted
)

func memberValues(m *Member) []string {
	return []string{m.ID, m.Name, m.Email, m.Phone, m.JoinDate, m.Status, boolFlag(m.Deleted)}
}

func memberFromValues(v []string) *Member {
	return &Member{
		ID:       v[mbID],
		Name:     v[mbName],
		Email:    v[mbEmail],
		Phone:    v[mbPhone],
		JoinDate: v[mbJoinDate],
		Status:   v[mbStatus],
		Deleted:  flagBool(v[mbDeleted]),
	}
}

// Field positions in LoanLayout.
const (
	lnID = iota
	lnBookID
	lnMemberID
	lnBorrowDate
	lnReturnDate
	lnStatus
	lnDeleted
)

func loanValues(l *Loan) []string {
	return []string{l.ID, l.BookID, l.MemberID, l.BorrowDate, l.ReturnDate, l.Status, boolFlag(l.Deleted)}
}

func loanFromValues(v []string) *Loan {
	return &Loan{
		ID:         v[lnID],
		BookID:     v[lnBookID],
		MemberID:   v[lnMemberID],
		BorrowDate: v[lnBorrowDate],
		ReturnDate: v[lnReturnDate],
		Status:     v[lnStatus],
		Deleted:    flagBool(v[lnDeleted]),
	}
}
