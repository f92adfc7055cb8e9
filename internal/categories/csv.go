package categories

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/myrizq/rizq/internal/model"
)

const (
	numFields = 4
	colID     = 0
	colName   = 1
	colIcon   = 2
	colColor  = 3
)

var header = []string{"category_id", "name", "icon", "color"}

// ReadCategories reads a catalog CSV.
func ReadCategories(r io.Reader) ([]model.Category, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading categories CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	var out []model.Category
	for i, rec := range records[1:] {
		if rec[colID] == "" || rec[colName] == "" {
			return nil, fmt.Errorf("row %d: category_id and name are required", i+2)
		}
		out = append(out, model.Category{
			ID:    rec[colID],
			Name:  rec[colName],
			Icon:  rec[colIcon],
			Color: rec[colColor],
		})
	}
	return out, nil
}

// WriteCategories writes a catalog CSV.
func WriteCategories(w io.Writer, cats []model.Category) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, c := range cats {
		row := make([]string, numFields)
		row[colID] = c.ID
		row[colName] = c.Name
		row[colIcon] = c.Icon
		row[colColor] = c.Color
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
