// Package importer turns bank statement CSVs into transaction commands.
package importer

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/myrizq/rizq/internal/model"
)

// Parser converts a bank statement CSV into BankTransactions.
type Parser interface {
	Format() string
	Parse(r io.Reader) ([]model.BankTransaction, error)
}

// Registry holds parsers by case-insensitive format name.
type Registry struct {
	parsers map[string]Parser
}

// NewRegistry returns a registry with the built-in layouts plus extra.
// A later layout replaces an earlier one of the same name.
func NewRegistry(extra ...Layout) *Registry {
	r := &Registry{parsers: make(map[string]Parser)}
	for _, l := range append([]Layout{Chase, Generic}, extra...) {
		r.Register(l)
	}
	return r
}

// Register adds or replaces p.
func (r *Registry) Register(p Parser) {
	r.parsers[strings.ToLower(p.Format())] = p
}

// Get returns the parser for format, or nil.
func (r *Registry) Get(format string) Parser {
	return r.parsers[strings.ToLower(format)]
}

// Formats lists the registered parser names, sorted.
func (r *Registry) Formats() []string {
	names := make([]string, 0, len(r.parsers))
	for name := range r.parsers {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Inbox is a directory statements are dropped into for batch import.
// Files live in <Dir>/import and move to <Dir>/import/processed once
// imported.
type Inbox struct {
	Dir string
}

// Statement is a file waiting in an Inbox.
type Statement struct {
	Name string
	Path string
	Size int64
}

func (b Inbox) pending() string   { return filepath.Join(b.Dir, "import") }
func (b Inbox) processed() string { return filepath.Join(b.Dir, "import", "processed") }

// Pending lists the CSV files waiting to be imported, by name.
func (b Inbox) Pending() ([]Statement, error) {
	entries, err := os.ReadDir(b.pending())
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading import dir: %w", err)
	}

	var out []Statement
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", e.Name(), err)
		}
		out = append(out, Statement{Name: e.Name(), Path: filepath.Join(b.pending(), e.Name()), Size: info.Size()})
	}
	return out, nil
}

// Done moves name out of the pending directory.
func (b Inbox) Done(name string) error {
	if err := os.MkdirAll(b.processed(), 0o755); err != nil {
		return fmt.Errorf("creating processed dir: %w", err)
	}
	if err := os.Rename(filepath.Join(b.pending(), name), filepath.Join(b.processed(), name)); err != nil {
		return fmt.Errorf("moving %s to processed: %w", name, err)
	}
	return nil
}
