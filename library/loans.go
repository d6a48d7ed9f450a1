package library

import "fmt"

// LoanRepo wraps the file store with the loan layout and the open/returned
// lifecycle queries the policy engine needs.
type LoanRepo struct {
	store *Store
}

func NewLoanRepo(path string) *LoanRepo {
	return &LoanRepo{store: &Store{Path: path, Layout: LoanLayout}}
}

// Create appends an OPEN loan dated borrowDate. Book and member ids are
// not checked here: referential integrity is the policy engine's concern,
// and dangling references degrade to "unknown" at display time.
func (r *LoanRepo) Create(bookID, memberID, borrowDate string) (string, error) {
	id, err := r.store.NextID()
	if err != nil {
		return "", err
	}
	loan := &Loan{
		ID: id, BookID: bookID, MemberID: memberID,
		BorrowDate: borrowDate, ReturnDate: "", Status: LoanOpen,
	}
	if err := r.store.Append(loanValues(loan)); err != nil {
		return "", err
	}
	return id, nil
}

// FindByID returns the live loan with the given id, or nil when absent.
func (r *LoanRepo) FindByID(id string) (*Loan, error) {
	loan, _, err := r.findLive(id)
	return loan, err
}

// List returns loans in file order, filtering soft-deleted records unless
// includeDeleted is set.
func (r *LoanRepo) List(includeDeleted bool) ([]*Loan, error) {
	records, err := r.store.ReadAll()
	if err != nil {
		return nil, err
	}
	var loans []*Loan
	for _, values := range records {
		l := loanFromValues(values)
		if l.Deleted && !includeDeleted {
			continue
		}
		loans = append(loans, l)
	}
	return loans, nil
}

// OpenByMember returns the member's open loans, oldest first.
func (r *LoanRepo) OpenByMember(memberID string) ([]*Loan, error) {
	loans, err := r.List(false)
	if err != nil {
		return nil, err
	}
	var open []*Loan
	for _, l := range loans {
		if l.Open() && l.MemberID == memberID {
			open = append(open, l)
		}
	}
	return open, nil
}

// OpenCountByBook counts open loans against one book; the book's derived
// availability is quantity minus this.
func (r *LoanRepo) OpenCountByBook(bookID string) (int, error) {
	loans, err := r.List(false)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, l := range loans {
		if l.Open() && l.BookID == bookID {
			count++
		}
	}
	return count, nil
}

// FindOpen returns the oldest open loan of bookID held by memberID, or
// nil when the member has none.
func (r *LoanRepo) FindOpen(memberID, bookID string) (*Loan, error) {
	loans, err := r.List(false)
	if err != nil {
		return nil, err
	}
	for _, l := range loans {
		if l.Open() && l.MemberID == memberID && l.BookID == bookID {
			return l, nil
		}
	}
	return nil, nil
}

// Update rewrites the full record for loan.ID in place.
func (r *LoanRepo) Update(loan *Loan) error {
	_, index, err := r.findLive(loan.ID)
	if err != nil {
		return err
	}
	if index < 0 {
		return fmt.Errorf("update loan %s: %w", loan.ID, ErrNotFound)
	}
	return r.store.RewriteAt(index, loanValues(loan))
}

// SoftDelete flags the record deleted. Returns false when no live record
// has the id.
func (r *LoanRepo) SoftDelete(id string) (bool, error) {
	loan, index, err := r.findLive(id)
	if err != nil {
		return false, err
	}
	if loan == nil {
		return false, nil
	}
	loan.Deleted = true
	if err := r.store.RewriteAt(index, loanValues(loan)); err != nil {
		return false, err
	}
	return true, nil
}

func (r *LoanRepo) findLive(id string) (*Loan, int, error) {
	index, err := r.store.FindIndex(func(v []string) bool {
		return v[lnID] == id && v[lnDeleted] == notDeleted
	})
	if err != nil || index < 0 {
		return nil, -1, err
	}
	values, err := r.store.ReadAt(index)
	if err != nil || values == nil {
		return nil, -1, err
	}
	return loanFromValues(values), index, nil
}
