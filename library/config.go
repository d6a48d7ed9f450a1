package library

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds file locations and lending policy knobs. All fields have
// working defaults; a config file only needs the keys it overrides.
type Config struct {
	DataDir     string `yaml:"data_dir"`
	BooksFile   string `yaml:"books_file"`
	MembersFile string `yaml:"members_file"`
	LoansFile   string `yaml:"loans_file"`
	AuditFile   string `yaml:"audit_file"`

	// LoanPeriodDays is the grace period before an open loan is overdue.
	LoanPeriodDays int `yaml:"loan_period_days"`
	// MaxLoansPerMember caps a member's simultaneous open loans.
	MaxLoansPerMember int `yaml:"max_loans_per_member"`
}

func DefaultConfig() *Config {
	return &Config{
		DataDir:           ".",
		BooksFile:         "books.dat",
		MembersFile:       "members.dat",
		LoansFile:         "borrows.dat",
		AuditFile:         "audit.log",
		LoanPeriodDays:    7,
		MaxLoansPerMember: 10,
	}
}

// LoadConfig reads a YAML config file over the defaults. A missing file
// is not an error, the defaults apply. A malformed one is.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	buf, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(buf, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.LoanPeriodDays < 1 {
		return nil, fmt.Errorf("config %s: loan_period_days must be at least 1", path)
	}
	if cfg.MaxLoansPerMember < 1 {
		return nil, fmt.Errorf("config %s: max_loans_per_member must be at least 1", path)
	}
	return cfg, nil
}

func (c *Config) BooksPath() string   { return filepath.Join(c.DataDir, c.BooksFile) }
func (c *Config) MembersPath() string { return filepath.Join(c.DataDir, c.MembersFile) }
func (c *Config) LoansPath() string   { return filepath.Join(c.DataDir, c.LoansFile) }
func (c *Config) AuditPath() string   { return filepath.Join(c.DataDir, c.AuditFile) }
