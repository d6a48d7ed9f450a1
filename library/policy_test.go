package library

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setDay pins the library's clock to a calendar day.
func setDay(t *testing.T, lib *Library, day string) {
	t.Helper()
	d, err := parseDate(day)
	require.NoError(t, err)
	lib.now = func() time.Time { return d }
}

func seedBookAndMembers(t *testing.T, lib *Library, quantity int, memberCount int) string {
	t.Helper()
	bookID, err := lib.Books.Create("Test Book", "Test Author", "", "2020", quantity)
	require.NoError(t, err)
	for i := 0; i < memberCount; i++ {
		_, err := lib.Members.Create("Member", "m@example.com", "", "2026-01-01")
		require.NoError(t, err)
	}
	return bookID
}

func TestBorrowExhaustsQuantity(t *testing.T) {
	lib := newTestLibrary(t)
	setDay(t, lib, "2026-03-01")
	bookID := seedBookAndMembers(t, lib, 2, 3)

	loan1, err := lib.Borrow(bookID, "0001")
	require.NoError(t, err)
	assert.Equal(t, "0001", loan1)

	loan2, err := lib.Borrow(bookID, "0002")
	require.NoError(t, err)
	assert.Equal(t, "0002", loan2)

	available, err := lib.Available(bookID)
	require.NoError(t, err)
	assert.Zero(t, available)

	_, err = lib.Borrow(bookID, "0003")
	pe, ok := IsPolicyError(err)
	require.True(t, ok)
	assert.Equal(t, CodeNoCopiesAvailable, pe.Code)

	// A return frees a copy again.
	_, err = lib.Return(loan1)
	require.NoError(t, err)
	available, err = lib.Available(bookID)
	require.NoError(t, err)
	assert.Equal(t, 1, available)
}

func TestAvailableNeverExceedsQuantity(t *testing.T) {
	lib := newTestLibrary(t)
	setDay(t, lib, "2026-03-01")
	bookID := seedBookAndMembers(t, lib, 2, 1)

	available, err := lib.Available(bookID)
	require.NoError(t, err)
	assert.Equal(t, 2, available)

	loanID, err := lib.Borrow(bookID, "0001")
	require.NoError(t, err)
	available, err = lib.Available(bookID)
	require.NoError(t, err)
	assert.Equal(t, 1, available)

	// Returning twice is rejected and must not inflate availability.
	_, err = lib.Return(loanID)
	require.NoError(t, err)
	_, err = lib.Return(loanID)
	pe, ok := IsPolicyError(err)
	require.True(t, ok)
	assert.Equal(t, CodeLoanClosed, pe.Code)

	available, err = lib.Available(bookID)
	require.NoError(t, err)
	assert.Equal(t, 2, available)
}

func TestBorrowRejections(t *testing.T) {
	lib := newTestLibrary(t)
	setDay(t, lib, "2026-03-01")
	bookID := seedBookAndMembers(t, lib, 1, 1)

	_, err := lib.Borrow("9999", "0001")
	pe, ok := IsPolicyError(err)
	require.True(t, ok)
	assert.Equal(t, CodeBookNotFound, pe.Code)

	_, err = lib.Borrow(bookID, "9999")
	pe, ok = IsPolicyError(err)
	require.True(t, ok)
	assert.Equal(t, CodeMemberNotFound, pe.Code)

	require.NoError(t, lib.Members.SetStatus("0001", MemberSuspended))
	_, err = lib.Borrow(bookID, "0001")
	pe, ok = IsPolicyError(err)
	require.True(t, ok)
	assert.Equal(t, CodeMemberSuspended, pe.Code)
}

func TestBorrowHonorsLoanCap(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataDir = t.TempDir()
	cfg.MaxLoansPerMember = 2
	lib, err := Open(cfg)
	require.NoError(t, err)
	setDay(t, lib, "2026-03-01")

	for i := 0; i < 3; i++ {
		_, err := lib.Books.Create("Book", "Author", "", "2020", 1)
		require.NoError(t, err)
	}
	_, err = lib.Members.Create("Greedy", "", "", "2026-01-01")
	require.NoError(t, err)

	_, err = lib.Borrow("0001", "0001")
	require.NoError(t, err)
	_, err = lib.Borrow("0002", "0001")
	require.NoError(t, err)

	_, err = lib.Borrow("0003", "0001")
	pe, ok := IsPolicyError(err)
	require.True(t, ok)
	assert.Equal(t, CodeLoanLimitReached, pe.Code)
}

func TestSuspendAndReinstateCycle(t *testing.T) {
	lib := newTestLibrary(t)
	bookID := seedBookAndMembers(t, lib, 1, 1)

	setDay(t, lib, "2026-03-01")
	loanID, err := lib.Borrow(bookID, "0001")
	require.NoError(t, err)

	// Day 10, period 7: the loan is 3 days overdue.
	setDay(t, lib, "2026-03-11")
	suspended, err := lib.SweepOverdue()
	require.NoError(t, err)
	assert.Equal(t, []string{"0001"}, suspended)

	member, err := lib.Members.FindByID("0001")
	require.NoError(t, err)
	assert.Equal(t, MemberSuspended, member.Status)

	// A second sweep is a no-op.
	suspended, err = lib.SweepOverdue()
	require.NoError(t, err)
	assert.Empty(t, suspended)

	// Suspended members cannot borrow.
	_, err = lib.Borrow(bookID, "0001")
	pe, ok := IsPolicyError(err)
	require.True(t, ok)
	assert.Equal(t, CodeMemberSuspended, pe.Code)

	// Returning the overdue loan reinstates the member immediately.
	result, err := lib.Return(loanID)
	require.NoError(t, err)
	assert.Equal(t, 3, result.DaysOverdue)
	assert.True(t, result.Reinstated)

	member, err = lib.Members.FindByID("0001")
	require.NoError(t, err)
	assert.Equal(t, MemberActive, member.Status)

	suspended, err = lib.SweepOverdue()
	require.NoError(t, err)
	assert.Empty(t, suspended)
}

func TestReturnKeepsSuspensionWhileOtherOverdueLoansRemain(t *testing.T) {
	lib := newTestLibrary(t)
	setDay(t, lib, "2026-03-01")
	_, err := lib.Books.Create("One", "A", "", "2020", 1)
	require.NoError(t, err)
	_, err = lib.Books.Create("Two", "B", "", "2020", 1)
	require.NoError(t, err)
	_, err = lib.Members.Create("Late", "", "", "2026-01-01")
	require.NoError(t, err)

	loan1, err := lib.Borrow("0001", "0001")
	require.NoError(t, err)
	_, err = lib.Borrow("0002", "0001")
	require.NoError(t, err)

	setDay(t, lib, "2026-03-20")
	_, err = lib.SweepOverdue()
	require.NoError(t, err)

	// One of two overdue loans comes back: still suspended.
	result, err := lib.Return(loan1)
	require.NoError(t, err)
	assert.False(t, result.Reinstated)
	member, err := lib.Members.FindByID("0001")
	require.NoError(t, err)
	assert.Equal(t, MemberSuspended, member.Status)

	// The last one comes back: reinstated.
	result, err = lib.ReturnBook("0001", "0002")
	require.NoError(t, err)
	assert.True(t, result.Reinstated)
	member, err = lib.Members.FindByID("0001")
	require.NoError(t, err)
	assert.Equal(t, MemberActive, member.Status)
}

func TestBorrowSweepsBeforeDeciding(t *testing.T) {
	lib := newTestLibrary(t)
	bookID := seedBookAndMembers(t, lib, 2, 1)

	setDay(t, lib, "2026-03-01")
	_, err := lib.Borrow(bookID, "0001")
	require.NoError(t, err)

	// No explicit sweep ran, but day 10 borrow must still see the
	// member's overdue state and refuse.
	setDay(t, lib, "2026-03-11")
	_, err = lib.Borrow(bookID, "0001")
	pe, ok := IsPolicyError(err)
	require.True(t, ok)
	assert.Equal(t, CodeMemberSuspended, pe.Code)
}

func TestReturnByMemberAndBook(t *testing.T) {
	lib := newTestLibrary(t)
	setDay(t, lib, "2026-03-01")
	bookID := seedBookAndMembers(t, lib, 2, 1)

	first, err := lib.Borrow(bookID, "0001")
	require.NoError(t, err)
	_, err = lib.Borrow(bookID, "0001")
	require.NoError(t, err)

	// Oldest open loan of that book is closed first.
	result, err := lib.ReturnBook("0001", bookID)
	require.NoError(t, err)
	assert.Equal(t, first, result.LoanID)

	_, err = lib.ReturnBook("0001", "9999")
	pe, ok := IsPolicyError(err)
	require.True(t, ok)
	assert.Equal(t, CodeLoanNotFound, pe.Code)
}

func TestReturnUnknownLoan(t *testing.T) {
	lib := newTestLibrary(t)
	_, err := lib.Return("4242")
	pe, ok := IsPolicyError(err)
	require.True(t, ok)
	assert.Equal(t, CodeLoanNotFound, pe.Code)
}

func TestDanglingReferencesDegradeGracefully(t *testing.T) {
	lib := newTestLibrary(t)
	setDay(t, lib, "2026-03-01")
	bookID := seedBookAndMembers(t, lib, 1, 1)

	loanID, err := lib.Borrow(bookID, "0001")
	require.NoError(t, err)

	// Member vanishes while holding the loan. Returning still works and
	// the missing member simply cannot be reinstated.
	ok, err := lib.Members.SoftDelete("0001")
	require.NoError(t, err)
	require.True(t, ok)

	result, err := lib.Return(loanID)
	require.NoError(t, err)
	assert.False(t, result.Reinstated)
}

func TestReturnWarnsOnUnparseableBorrowDate(t *testing.T) {
	lib := newTestLibrary(t)
	setDay(t, lib, "2026-03-01")
	bookID := seedBookAndMembers(t, lib, 1, 1)

	loanID, err := lib.Loans.Create(bookID, "0001", "not-a-date")
	require.NoError(t, err)

	// The return still succeeds; the unknown overdue span is reported as
	// zero and leaves a warning in the audit trail.
	result, err := lib.Return(loanID)
	require.NoError(t, err)
	assert.Zero(t, result.DaysOverdue)

	entries, err := lib.Audit.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Contains(t, entries[0], "warn")
	assert.Contains(t, entries[0], "not-a-date")
	assert.Contains(t, entries[1], "return")
}

func TestOverdueLoansListing(t *testing.T) {
	lib := newTestLibrary(t)
	bookID := seedBookAndMembers(t, lib, 3, 2)

	setDay(t, lib, "2026-03-01")
	late, err := lib.Borrow(bookID, "0001")
	require.NoError(t, err)

	setDay(t, lib, "2026-03-07")
	_, err = lib.Borrow(bookID, "0002")
	require.NoError(t, err)

	setDay(t, lib, "2026-03-10")
	overdue, err := lib.OverdueLoans()
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, late, overdue[0].ID)
}

func TestStatsAggregation(t *testing.T) {
	lib := newTestLibrary(t)
	setDay(t, lib, "2026-03-01")

	bookID := seedBookAndMembers(t, lib, 2, 2)
	_, err := lib.Books.Create("Single", "Author", "", "2021", 1)
	require.NoError(t, err)

	loanID, err := lib.Borrow(bookID, "0001")
	require.NoError(t, err)
	_, err = lib.Borrow(bookID, "0002")
	require.NoError(t, err)
	_, err = lib.Return(loanID)
	require.NoError(t, err)

	s, err := lib.Stats()
	require.NoError(t, err)
	assert.Equal(t, 2, s.BooksActive)
	assert.Equal(t, 3, s.TotalCopies)
	assert.Equal(t, 1, s.BorrowedCopies)
	assert.Equal(t, 2, s.AvailableCopies)
	assert.Equal(t, 2, s.MembersActive)
	assert.Equal(t, 1, s.LoansOpen)
	assert.Equal(t, 1, s.LoansReturned)
	assert.Zero(t, s.LoansOverdue)
}

func TestAuditTrailRecordsOperations(t *testing.T) {
	lib := newTestLibrary(t)
	setDay(t, lib, "2026-03-01")
	bookID := seedBookAndMembers(t, lib, 1, 1)

	loanID, err := lib.Borrow(bookID, "0001")
	require.NoError(t, err)
	_, err = lib.Return(loanID)
	require.NoError(t, err)

	entries, err := lib.Audit.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Contains(t, entries[0], "borrow")
	assert.Contains(t, entries[1], "return")
}
