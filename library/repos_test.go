package library

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLibrary(t *testing.T) *Library {
	t.Helper()
	cfg := DefaultConfig()
	cfg.DataDir = t.TempDir()
	lib, err := Open(cfg)
	require.NoError(t, err)
	return lib
}

func TestBookCreateAndFind(t *testing.T) {
	lib := newTestLibrary(t)

	id, err := lib.Books.Create("1984", "George Orwell", "978-0451524935", "1949", 3)
	require.NoError(t, err)
	assert.Equal(t, "0001", id)

	book, err := lib.Books.FindByID(id)
	require.NoError(t, err)
	require.NotNil(t, book)
	assert.Equal(t, "1984", book.Title)
	assert.Equal(t, "George Orwell", book.Author)
	assert.Equal(t, 3, book.Quantity)
	assert.Equal(t, BookAvailable, book.Status)
	assert.False(t, book.Deleted)

	missing, err := lib.Books.FindByID("9999")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestBookCreateRejectsBadQuantity(t *testing.T) {
	lib := newTestLibrary(t)

	_, err := lib.Books.Create("x", "y", "", "", 0)
	pe, ok := IsPolicyError(err)
	require.True(t, ok)
	assert.Equal(t, CodeInvalidArgument, pe.Code)

	_, err = lib.Books.Create("x", "y", "", "", 10000)
	_, ok = IsPolicyError(err)
	assert.True(t, ok)
}

func TestSoftDeleteExcludesFromLookups(t *testing.T) {
	lib := newTestLibrary(t)

	id, err := lib.Books.Create("Gone", "Nobody", "", "2000", 1)
	require.NoError(t, err)
	keep, err := lib.Books.Create("Kept", "Somebody", "", "2001", 1)
	require.NoError(t, err)

	ok, err := lib.Books.SoftDelete(id)
	require.NoError(t, err)
	assert.True(t, ok)

	// find-by-id after soft delete is absent.
	book, err := lib.Books.FindByID(id)
	require.NoError(t, err)
	assert.Nil(t, book)

	// Deleting twice reports nothing left to delete.
	ok, err = lib.Books.SoftDelete(id)
	require.NoError(t, err)
	assert.False(t, ok)

	live, err := lib.Books.List(false)
	require.NoError(t, err)
	require.Len(t, live, 1)
	assert.Equal(t, keep, live[0].ID)
	for _, b := range live {
		assert.False(t, b.Deleted)
	}

	all, err := lib.Books.List(true)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestBookUpdateRewritesWholeRecord(t *testing.T) {
	lib := newTestLibrary(t)

	id, err := lib.Books.Create("Draft", "Author", "", "2020", 1)
	require.NoError(t, err)

	book, err := lib.Books.FindByID(id)
	require.NoError(t, err)
	book.Title = "Final"
	book.Quantity = 4
	require.NoError(t, lib.Books.Update(book))

	got, err := lib.Books.FindByID(id)
	require.NoError(t, err)
	assert.Equal(t, "Final", got.Title)
	assert.Equal(t, 4, got.Quantity)

	err = lib.Books.Update(&Book{ID: "9999", Quantity: 1})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestBookUpdateRejectsBadQuantity(t *testing.T) {
	lib := newTestLibrary(t)

	id, err := lib.Books.Create("Bounded", "Author", "", "2020", 2)
	require.NoError(t, err)

	book, err := lib.Books.FindByID(id)
	require.NoError(t, err)

	// A 5-digit quantity would be truncated by the 4-byte field; the
	// update must be rejected before anything is written.
	book.Quantity = 10000
	_, ok := IsPolicyError(lib.Books.Update(book))
	assert.True(t, ok)

	book.Quantity = 0
	pe, ok := IsPolicyError(lib.Books.Update(book))
	require.True(t, ok)
	assert.Equal(t, CodeInvalidArgument, pe.Code)

	got, err := lib.Books.FindByID(id)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Quantity)
}

func TestMemberLifecycle(t *testing.T) {
	lib := newTestLibrary(t)

	id, err := lib.Members.Create("Alice Walker", "alice@example.com", "555-0101", "2026-01-15")
	require.NoError(t, err)
	assert.Equal(t, "0001", id)

	member, err := lib.Members.FindByID(id)
	require.NoError(t, err)
	require.NotNil(t, member)
	assert.Equal(t, MemberActive, member.Status)

	require.NoError(t, lib.Members.SetStatus(id, MemberSuspended))
	member, err = lib.Members.FindByID(id)
	require.NoError(t, err)
	assert.Equal(t, MemberSuspended, member.Status)

	ok, err := lib.Members.SoftDelete(id)
	require.NoError(t, err)
	assert.True(t, ok)
	member, err = lib.Members.FindByID(id)
	require.NoError(t, err)
	assert.Nil(t, member)
}

func TestMemberCreateValidatesJoinDate(t *testing.T) {
	lib := newTestLibrary(t)
	_, err := lib.Members.Create("Bad Date", "", "", "15/01/2026")
	pe, ok := IsPolicyError(err)
	require.True(t, ok)
	assert.Equal(t, CodeInvalidArgument, pe.Code)
}

func TestLoanQueries(t *testing.T) {
	lib := newTestLibrary(t)

	id1, err := lib.Loans.Create("0001", "0001", "2026-02-01")
	require.NoError(t, err)
	_, err = lib.Loans.Create("0001", "0002", "2026-02-02")
	require.NoError(t, err)
	id3, err := lib.Loans.Create("0002", "0001", "2026-02-03")
	require.NoError(t, err)

	open, err := lib.Loans.OpenByMember("0001")
	require.NoError(t, err)
	require.Len(t, open, 2)
	assert.Equal(t, id1, open[0].ID)
	assert.Equal(t, id3, open[1].ID)

	count, err := lib.Loans.OpenCountByBook("0001")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	loan, err := lib.Loans.FindOpen("0001", "0002")
	require.NoError(t, err)
	require.NotNil(t, loan)
	assert.Equal(t, id3, loan.ID)

	// Returned loans stop counting everywhere.
	loan.Status = LoanReturned
	loan.ReturnDate = "2026-02-04"
	require.NoError(t, lib.Loans.Update(loan))

	count, err = lib.Loans.OpenCountByBook("0002")
	require.NoError(t, err)
	assert.Zero(t, count)
	gone, err := lib.Loans.FindOpen("0001", "0002")
	require.NoError(t, err)
	assert.Nil(t, gone)
}
