package main

import (
	"fmt"
	"os"
	"time"

	"library-system/library"
)

// resetdata wipes the record files and reseeds a small demo dataset.
// Intended for development and manual testing only.
func main() {
	cfg := library.DefaultConfig()
	if len(os.Args) > 1 {
		cfg.DataDir = os.Args[1]
	}

	fmt.Println("Removing existing data files...")
	stale := []string{
		cfg.BooksPath(),
		cfg.BooksPath() + library.BackupSuffix,
		cfg.MembersPath(),
		cfg.LoansPath(),
		cfg.AuditPath(),
		"library_report.txt",
		"library.db",
	}
	for _, path := range stale {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			fmt.Printf("Warning: could not remove %s: %v\n", path, err)
		}
	}

	lib, err := library.Open(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening library: %v\n", err)
		os.Exit(1)
	}

	books := []struct {
		title, author, code, year string
		quantity                  int
	}{
		{"1984", "George Orwell", "978-0451524935", "1949", 3},
		{"Animal Farm", "George Orwell", "978-0452284241", "1945", 2},
		{"The Art of War", "Sun Tzu", "978-1599869773", "0500", 1},
		{"Romeo and Juliet", "William Shakespeare", "978-0743477116", "1597", 2},
		{"The Three Musketeers", "Alexandre Dumas", "978-0140367470", "1844", 1},
	}
	for _, b := range books {
		id, err := lib.Books.Create(b.title, b.author, b.code, b.year, b.quantity)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error seeding book %q: %v\n", b.title, err)
			os.Exit(1)
		}
		fmt.Printf("  book %s: %s (%d copies)\n", id, b.title, b.quantity)
	}

	joined := time.Now().Format("2006-01-02")
	members := []struct{ name, email, phone string }{
		{"Alice Walker", "alice@example.com", "555-0101"},
		{"Bob Chen", "bob@example.com", "555-0102"},
		{"Charlie Diaz", "charlie@example.com", "555-0103"},
	}
	for _, m := range members {
		id, err := lib.Members.Create(m.name, m.email, m.phone, joined)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error seeding member %q: %v\n", m.name, err)
			os.Exit(1)
		}
		fmt.Printf("  member %s: %s\n", id, m.name)
	}

	fmt.Println("Reset complete.")
}
