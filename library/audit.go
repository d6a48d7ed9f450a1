package library

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// AuditLog is an append-only text log of business operations, one
// timestamped line per action. It is the durable replacement for keeping
// an operation history in memory. Entries are never rewritten.
type AuditLog struct {
	path string
	now  func() time.Time
}

func NewAuditLog(path string) *AuditLog {
	return &AuditLog{path: path, now: time.Now}
}

// Append records one action. Callers on the business path treat failures
// as best-effort: a full disk must not turn a successful return into an
// error after the loan file was already rewritten.
func (a *AuditLog) Append(action, format string, args ...any) error {
	f, err := os.OpenFile(a.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("audit append: %w", err)
	}
	line := fmt.Sprintf("%s\t%s\t%s\n",
		a.now().Format(time.RFC3339), action, fmt.Sprintf(format, args...))
	if _, err := f.WriteString(line); err != nil {
		f.Close()
		return fmt.Errorf("audit append: %w", err)
	}
	return f.Close()
}

// Entries returns all recorded lines, oldest first.
func (a *AuditLog) Entries() ([]string, error) {
	buf, err := os.ReadFile(a.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("audit read: %w", err)
	}
	lines := strings.Split(strings.TrimRight(string(buf), "\n"), "\n")
	if len(lines) == 1 && lines[0] == "" {
		return nil, nil
	}
	return lines, nil
}
