package library

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedRecord reports a record whose byte length does not match
	// its layout. Bulk scans skip these; single-record reads surface them.
	ErrMalformedRecord = errors.New("malformed record")

	// ErrSchemaMismatch reports a catalog file whose size matches no known
	// layout. Migration aborts; the caller warns and continues.
	ErrSchemaMismatch = errors.New("file matches no known record layout")

	// ErrCapacityExceeded reports that the 4-digit identifier space for a
	// file is exhausted.
	ErrCapacityExceeded = errors.New("identifier capacity exceeded")

	// ErrNotFound reports a mutation against an id with no live record.
	// Lookups return nil instead; only Update/SetStatus paths see this.
	ErrNotFound = errors.New("record not found")
)

// PolicyError is a typed business-rule rejection. It is returned, never
// panicked, and carries a stable code the presentation layer can switch on.
type PolicyError struct {
	Code    string
	Message string
}

func (e *PolicyError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

const (
	CodeBookNotFound      = "BOOK_NOT_FOUND"
	CodeMemberNotFound    = "MEMBER_NOT_FOUND"
	CodeMemberSuspended   = "MEMBER_SUSPENDED"
	CodeLoanNotFound      = "LOAN_NOT_FOUND"
	CodeLoanClosed        = "LOAN_CLOSED"
	CodeLoanLimitReached  = "LOAN_LIMIT_REACHED"
	CodeNoCopiesAvailable = "NO_COPIES_AVAILABLE"
	CodeInvalidArgument   = "INVALID_ARGUMENT"
)

func newPolicyError(code, format string, args ...any) error {
	return &PolicyError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// IsPolicyError reports whether err is a business-rule rejection, and
// returns it typed when so.
func IsPolicyError(err error) (*PolicyError, bool) {
	var pe *PolicyError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}
