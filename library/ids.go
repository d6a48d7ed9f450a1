package library

import (
	"fmt"
	"strconv"
)

// idCapacity is the largest id a 4-digit decimal field can hold. Ids of
// soft-deleted records stay spent, so this is a hard lifetime ceiling per
// file, not a live-record count.
const idCapacity = 9999

// NextID derives the next sequential identifier for the file by decoding
// the id field of the last whole record. An empty or absent file starts
// at "0001". Exhausting the digit space is an error, never a wraparound.
func (s *Store) NextID() (string, error) {
	count, err := s.Count()
	if err != nil {
		return "", err
	}
	if count == 0 {
		return "0001", nil
	}
	values, err := s.ReadAt(count - 1)
	if err != nil {
		return "", err
	}
	if values == nil {
		return "0001", nil
	}
	last, err := strconv.Atoi(values[0])
	if err != nil {
		return "", fmt.Errorf("next id for %s: last record id %q: %w", s.Path, values[0], ErrMalformedRecord)
	}
	if last >= idCapacity {
		return "", fmt.Errorf("next id for %s: %w", s.Path, ErrCapacityExceeded)
	}
	return fmt.Sprintf("%04d", last+1), nil
}
