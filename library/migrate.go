package library

import (
	"errors"
	"fmt"
	"os"
)

// BackupSuffix is appended to the catalog path when migration snapshots
// the pre-migration bytes.
const BackupSuffix = ".backup"

// MigrateCatalog upgrades a catalog file written in the legacy 180-byte
// layout to the current 184-byte layout, inserting quantity = 1 for every
// record and keeping all other fields verbatim. The original bytes are
// copied to path+BackupSuffix first.
//
// Returns (false, nil) when the file is already current or empty; in
// that case nothing is written, so running it twice is a no-op. A size
// matching neither layout yields ErrSchemaMismatch; no repair is attempted.
func MigrateCatalog(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("migrate %s: %w", path, err)
	}

	size := info.Size()
	current := int64(BookLayout.Size())
	legacy := int64(LegacyBookLayout.Size())
	switch {
	case size == 0 || size%current == 0:
		return false, nil
	case size%legacy != 0:
		return false, fmt.Errorf("migrate %s: size %d: %w", path, size, ErrSchemaMismatch)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("migrate %s: %w", path, err)
	}
	if err := os.WriteFile(path+BackupSuffix, raw, 0o644); err != nil {
		return false, fmt.Errorf("migrate %s: write backup: %w", path, err)
	}

	migrated := make([]byte, 0, (size/legacy)*current)
	for off := int64(0); off < size; off += legacy {
		old, err := LegacyBookLayout.Decode(raw[off : off+legacy])
		if err != nil {
			return false, fmt.Errorf("migrate %s: record at %d: %w", path, off, err)
		}
		// Legacy order is id, title, author, code, year, status, deleted;
		// quantity slots in between year and status.
		record, err := BookLayout.Encode([]string{
			old[0], old[1], old[2], old[3], old[4], "1", old[5], old[6],
		})
		if err != nil {
			return false, fmt.Errorf("migrate %s: record at %d: %w", path, off, err)
		}
		migrated = append(migrated, record...)
	}

	if err := os.WriteFile(path, migrated, 0o644); err != nil {
		return false, fmt.Errorf("migrate %s: %w", path, err)
	}
	return true, nil
}
