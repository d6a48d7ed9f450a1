package library

import "fmt"

// BookRepo wraps the file store with knowledge of the catalog layout and
// its status/soft-delete conventions.
type BookRepo struct {
	store *Store
}

func NewBookRepo(path string) *BookRepo {
	return &BookRepo{store: &Store{Path: path, Layout: BookLayout}}
}

// validateQuantity bounds a copy count to what the 4-digit record field
// can hold. Values outside the range would be silently truncated by the
// codec, so every write path checks first.
func validateQuantity(quantity int) error {
	if quantity < 1 {
		return newPolicyError(CodeInvalidArgument, "quantity must be at least 1, got %d", quantity)
	}
	if quantity > idCapacity {
		return newPolicyError(CodeInvalidArgument, "quantity must fit 4 digits, got %d", quantity)
	}
	return nil
}

// Create assigns the next id and appends the record. New books carry the
// legacy AVAILABLE flag; the policy engine never reads it back.
func (r *BookRepo) Create(title, author, code, year string, quantity int) (string, error) {
	if err := validateQuantity(quantity); err != nil {
		return "", err
	}
	id, err := r.store.NextID()
	if err != nil {
		return "", err
	}
	book := &Book{
		ID: id, Title: title, Author: author, Code: code, Year: year,
		Quantity: quantity, Status: BookAvailable,
	}
	if err := r.store.Append(bookValues(book)); err != nil {
		return "", err
	}
	return id, nil
}

// FindByID returns the live (non-deleted) book with the given id, or nil
// when there is none.
func (r *BookRepo) FindByID(id string) (*Book, error) {
	book, _, err := r.findLive(id)
	return book, err
}

// List returns books in file order. Soft-deleted records are filtered out
// unless includeDeleted is set.
func (r *BookRepo) List(includeDeleted bool) ([]*Book, error) {
	records, err := r.store.ReadAll()
	if err != nil {
		return nil, err
	}
	var books []*Book
	for _, values := range records {
		b := bookFromValues(values)
		if b.Deleted && !includeDeleted {
			continue
		}
		books = append(books, b)
	}
	return books, nil
}

// Update rewrites the full record for book.ID in place.
func (r *BookRepo) Update(book *Book) error {
	if err := validateQuantity(book.Quantity); err != nil {
		return err
	}
	_, index, err := r.findLive(book.ID)
	if err != nil {
		return err
	}
	if index < 0 {
		return fmt.Errorf("update book %s: %w", book.ID, ErrNotFound)
	}
	return r.store.RewriteAt(index, bookValues(book))
}

// SetStatus rewrites only the legacy status flag, keeping everything else.
func (r *BookRepo) SetStatus(id, status string) error {
	book, index, err := r.findLive(id)
	if err != nil {
		return err
	}
	if book == nil {
		return fmt.Errorf("set status of book %s: %w", id, ErrNotFound)
	}
	book.Status = status
	return r.store.RewriteAt(index, bookValues(book))
}

// SoftDelete flags the record deleted, retiring the id without freeing
// the slot. Returns false when no live record has the id.
func (r *BookRepo) SoftDelete(id string) (bool, error) {
	book, index, err := r.findLive(id)
	if err != nil {
		return false, err
	}
	if book == nil {
		return false, nil
	}
	book.Deleted = true
	if err := r.store.RewriteAt(index, bookValues(book)); err != nil {
		return false, err
	}
	return true, nil
}

func (r *BookRepo) findLive(id string) (*Book, int, error) {
	index, err := r.store.FindIndex(func(v []string) bool {
		return v[bkID] == id && v[bkDeleted] == notDeleted
	})
	if err != nil || index < 0 {
		return nil, -1, err
	}
	values, err := r.store.ReadAt(index)
	if err != nil || values == nil {
		return nil, -1, err
	}
	return bookFromValues(values), index, nil
}
