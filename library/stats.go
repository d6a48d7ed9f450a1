package library

// Stats aggregates the state of all three files in one pass each. Copy
// totals use derived availability, not the legacy status flag.
type Stats struct {
	BooksActive  int
	BooksDeleted int

	TotalCopies     int
	AvailableCopies int
	BorrowedCopies  int

	MembersActive    int
	MembersSuspended int
	MembersDeleted   int

	LoansOpen     int
	LoansReturned int
	LoansDeleted  int
	LoansOverdue  int
}

// Stats computes the current aggregate counts.
func (l *Library) Stats() (*Stats, error) {
	s := &Stats{}

	books, err := l.Books.List(true)
	if err != nil {
		return nil, err
	}
	loans, err := l.Loans.List(true)
	if err != nil {
		return nil, err
	}

	openByBook := make(map[string]int)
	today := l.today()
	for _, loan := range loans {
		if loan.Deleted {
			s.LoansDeleted++
			continue
		}
		switch loan.Status {
		case LoanOpen:
			s.LoansOpen++
			openByBook[loan.BookID]++
			if l.overdue(loan, today) {
				s.LoansOverdue++
			}
		case LoanReturned:
			s.LoansReturned++
		}
	}

	for _, book := range books {
		if book.Deleted {
			s.BooksDeleted++
			continue
		}
		s.BooksActive++
		s.TotalCopies += book.Quantity
		out := openByBook[book.ID]
		if out > book.Quantity {
			out = book.Quantity
		}
		s.BorrowedCopies += out
		s.AvailableCopies += book.Quantity - out
	}

	members, err := l.Members.List(true)
	if err != nil {
		return nil, err
	}
	for _, member := range members {
		switch {
		case member.Deleted:
			s.MembersDeleted++
		case member.Status == MemberSuspended:
			s.MembersSuspended++
		default:
			s.MembersActive++
		}
	}

	return s, nil
}
