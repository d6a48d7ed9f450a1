package library

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// Store performs fixed-record I/O on one file. A record's handle is its
// position: byte offset = index × layout size. Every operation opens the
// file, does its work, and closes it again; there is no cached handle and
// no locking, since the format targets single-process use.
type Store struct {
	Path   string
	Layout Layout
}

// EnsureExists creates an empty record file if none is present. Idempotent.
func (s *Store) EnsureExists() error {
	f, err := os.OpenFile(s.Path, os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("ensure %s: %w", s.Path, err)
	}
	return f.Close()
}

// Append encodes one record and writes it at the end of the file.
func (s *Store) Append(values []string) error {
	data, err := s.Layout.Encode(values)
	if err != nil {
		return err
	}
	f, err := os.OpenFile(s.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("append to %s: %w", s.Path, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("append to %s: %w", s.Path, err)
	}
	return f.Close()
}

// ReadAll scans the whole file in record-sized chunks, oldest first.
// A short final chunk (truncation) and chunks that fail to decode are
// skipped, not surfaced: bulk reads favor availability over strictness.
func (s *Store) ReadAll() ([][]string, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", s.Path, err)
	}
	defer f.Close()

	var records [][]string
	buf := make([]byte, s.Layout.Size())
	for {
		_, err := io.ReadFull(f, buf)
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", s.Path, err)
		}
		values, err := s.Layout.Decode(buf)
		if err != nil {
			continue
		}
		records = append(records, values)
	}
	return records, nil
}

// ReadAt returns the record at index, or nil when the read falls past
// end-of-file or comes back short.
func (s *Store) ReadAt(index int) ([]string, error) {
	if index < 0 {
		return nil, nil
	}
	f, err := os.Open(s.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", s.Path, err)
	}
	defer f.Close()

	buf := make([]byte, s.Layout.Size())
	if _, err := f.ReadAt(buf, int64(index)*int64(s.Layout.Size())); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", s.Path, err)
	}
	return s.Layout.Decode(buf)
}

// RewriteAt overwrites exactly one record slot. This is the only mutation
// primitive: callers read the full record, change the decoded values, and
// rewrite the whole thing. There are no partial field writes.
func (s *Store) RewriteAt(index int, values []string) error {
	data, err := s.Layout.Encode(values)
	if err != nil {
		return err
	}
	f, err := os.OpenFile(s.Path, os.O_RDWR, 0o644)
	if err != nil {
		return fmt.Errorf("rewrite %s: %w", s.Path, err)
	}
	if _, err := f.WriteAt(data, int64(index)*int64(s.Layout.Size())); err != nil {
		f.Close()
		return fmt.Errorf("rewrite %s: %w", s.Path, err)
	}
	return f.Close()
}

// FindIndex linearly scans for the first record matching pred and returns
// its position, or -1 when nothing matches. O(n) in file size, which is
// fine at the scale this format targets.
func (s *Store) FindIndex(pred func(values []string) bool) (int, error) {
	records, err := s.ReadAll()
	if err != nil {
		return -1, err
	}
	for i, values := range records {
		if pred(values) {
			return i, nil
		}
	}
	return -1, nil
}

// Count returns how many whole records the file currently holds.
func (s *Store) Count() (int, error) {
	info, err := os.Stat(s.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("stat %s: %w", s.Path, err)
	}
	return int(info.Size() / int64(s.Layout.Size())), nil
}
