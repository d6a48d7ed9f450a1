package library

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// ExportSQLite dumps all records, soft-deleted ones included, into a
// SQLite database for ad-hoc SQL. The record files stay the source of
// truth; the database is a disposable artifact and is rebuilt from
// scratch on every export.
func (l *Library) ExportSQLite(dbPath string) error {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return fmt.Errorf("open export db: %w", err)
	}
	defer db.Close()

	ddl := []string{
		`DROP TABLE IF EXISTS books;`,
		`DROP TABLE IF EXISTS members;`,
		`DROP TABLE IF EXISTS loans;`,
		`CREATE TABLE books (
            id TEXT PRIMARY KEY,
            title TEXT NOT NULL,
            author TEXT NOT NULL,
            code TEXT,
            year TEXT,
            quantity INTEGER NOT NULL,
            status TEXT NOT NULL,
            deleted INTEGER NOT NULL
        );`,
		`CREATE TABLE members (
            id TEXT PRIMARY KEY,
            name TEXT NOT NULL,
            email TEXT,
            phone TEXT,
            join_date TEXT,
            status TEXT NOT NULL,
            deleted INTEGER NOT NULL
        );`,
		`CREATE TABLE loans (
            id TEXT PRIMARY KEY,
            book_id TEXT NOT NULL,
            member_id TEXT NOT NULL,
            borrow_date TEXT,
            return_date TEXT,
            status TEXT NOT NULL,
            deleted INTEGER NOT NULL
        );`,
	}
	for _, stmt := range ddl {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("export schema: %w", err)
		}
	}

	books, err := l.Books.List(true)
	if err != nil {
		return err
	}
	members, err := l.Members.List(true)
	if err != nil {
		return err
	}
	loans, err := l.Loans.List(true)
	if err != nil {
		return err
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	defer tx.Rollback()

	for _, b := range books {
		if _, err := tx.Exec(
			`INSERT INTO books(id,title,author,code,year,quantity,status,deleted) VALUES(?,?,?,?,?,?,?,?)`,
			b.ID, b.Title, b.Author, b.Code, b.Year, b.Quantity, b.Status, boolInt(b.Deleted),
		); err != nil {
			return fmt.Errorf("export book %s: %w", b.ID, err)
		}
	}
	for _, m := range members {
		if _, err := tx.Exec(
			`INSERT INTO members(id,name,email,phone,join_date,status,deleted) VALUES(?,?,?,?,?,?,?)`,
			m.ID, m.Name, m.Email, m.Phone, m.JoinDate, m.Status, boolInt(m.Deleted),
		); err != nil {
			return fmt.Errorf("export member %s: %w", m.ID, err)
		}
	}
	for _, ln := range loans {
		if _, err := tx.Exec(
			`INSERT INTO loans(id,book_id,member_id,borrow_date,return_date,status,deleted) VALUES(?,?,?,?,?,?,?)`,
			ln.ID, ln.BookID, ln.MemberID, ln.BorrowDate, ln.ReturnDate, ln.Status, boolInt(ln.Deleted),
		); err != nil {
			return fmt.Errorf("export loan %s: %w", ln.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	_ = l.Audit.Append("export", "%d books, %d members, %d loans to %s",
		len(books), len(members), len(loans), dbPath)
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
