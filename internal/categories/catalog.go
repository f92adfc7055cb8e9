// Package categories manages the shared category catalog that seeds every
// user's ledger.
package categories

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/myrizq/rizq/internal/model"
)

// Catalog provides lookup over a list of categories.
type Catalog struct {
	cats []model.Category
	byID map[string]model.Category
}

// NewCatalog creates a Catalog from cats.
func NewCatalog(cats []model.Category) *Catalog {
	byID := make(map[string]model.Category, len(cats))
	for _, c := range cats {
		byID[c.ID] = c
	}
	return &Catalog{cats: cats, byID: byID}
}

// Load reads the catalog at path, falling back to Defaults when the file
// does not exist.
func Load(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return NewCatalog(Defaults()), nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening category catalog: %w", err)
	}
	defer f.Close()

	cats, err := ReadCategories(f)
	if err != nil {
		return nil, fmt.Errorf("reading category catalog: %w", err)
	}
	return NewCatalog(cats), nil
}

// All returns every category in file order.
func (c *Catalog) All() []model.Category {
	return c.cats
}

// Get returns a category by ID.
func (c *Catalog) Get(id string) (model.Category, bool) {
	cat, ok := c.byID[id]
	return cat, ok
}

// Save writes the catalog to path, creating parent directories.
func (c *Catalog) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating catalog dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating catalog file: %w", err)
	}
	defer f.Close()

	if err := WriteCategories(f, c.cats); err != nil {
		return fmt.Errorf("writing catalog: %w", err)
	}
	return nil
}
