package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/myrizq/rizq/internal/model"
)

// Columns locates fields in a statement row. Numbers are 1-based; 0 means
// the statement has no such column.
type Columns struct {
	Date        int `yaml:"date"`
	Description int `yaml:"description"`
	Amount      int `yaml:"amount"`
	Reference   int `yaml:"reference,omitempty"`
	Kind        int `yaml:"kind,omitempty"`
}

// Layout describes one bank's statement CSV. The first row is a header
// and is skipped. Reference and Kind may be missing from short rows.
type Layout struct {
	Name       string  `yaml:"name"`
	DateFormat string  `yaml:"date_format"`
	Fields     int     `yaml:"fields,omitempty"` // exact fields per row; 0 allows any
	Columns    Columns `yaml:"columns"`
}

// Chase is the Chase checking account export.
var Chase = Layout{
	Name:       "chase",
	DateFormat: "01/02/2006",
	Fields:     7,
	Columns:    Columns{Date: 2, Description: 3, Amount: 4, Kind: 5},
}

// Generic is the minimal date,description,amount[,reference] layout with
// ISO dates.
var Generic = Layout{
	Name:       "generic",
	DateFormat: time.DateOnly,
	Columns:    Columns{Date: 1, Description: 2, Amount: 3, Reference: 4},
}

// Format returns the layout name.
func (l Layout) Format() string { return l.Name }

// Validate reports layout definitions that cannot parse anything.
func (l Layout) Validate() error {
	var errs []error
	if l.Name == "" {
		errs = append(errs, errors.New("layout needs a name"))
	}
	if l.DateFormat == "" {
		errs = append(errs, fmt.Errorf("layout %q needs a date_format", l.Name))
	}
	c := l.Columns
	required := []struct {
		name string
		col  int
	}{{"date", c.Date}, {"description", c.Description}, {"amount", c.Amount}}
	for _, r := range required {
		if r.col < 1 {
			errs = append(errs, fmt.Errorf("layout %q needs a %s column", l.Name, r.name))
		}
	}
	if l.Fields > 0 && max(c.Date, c.Description, c.Amount, c.Reference, c.Kind) > l.Fields {
		errs = append(errs, fmt.Errorf("layout %q names a column past its %d fields", l.Name, l.Fields))
	}
	return errors.Join(errs...)
}

// Parse reads a statement and returns its rows in file order. Rows that
// would share a derived reference are numbered apart.
func (l Layout) Parse(r io.Reader) ([]model.BankTransaction, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = l.Fields
	if l.Fields == 0 {
		cr.FieldsPerRecord = -1
	}

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading %s CSV: %w", l.Name, err)
	}
	if len(records) <= 1 {
		return nil, nil
	}

	seen := make(map[string]int)
	var txns []model.BankTransaction
	for i, rec := range records[1:] {
		txn, err := l.row(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		seen[txn.Reference]++
		if n := seen[txn.Reference]; n > 1 {
			txn.Reference = fmt.Sprintf("%s_%d", txn.Reference, n)
		}
		txns = append(txns, txn)
	}
	return txns, nil
}

func (l Layout) row(rec []string) (model.BankTransaction, error) {
	c := l.Columns
	if need := max(c.Date, c.Description, c.Amount); len(rec) < need {
		return model.BankTransaction{}, fmt.Errorf("expected at least %d fields, got %d", need, len(rec))
	}
	field := func(n int) string {
		if n < 1 || n > len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[n-1])
	}

	date, err := time.Parse(l.DateFormat, field(c.Date))
	if err != nil {
		return model.BankTransaction{}, fmt.Errorf("parsing date %q: %w", field(c.Date), err)
	}
	amount, err := model.ParseMoney(field(c.Amount))
	if err != nil {
		return model.BankTransaction{}, fmt.Errorf("parsing amount %q: %w", field(c.Amount), err)
	}

	txn := model.BankTransaction{
		Date:        date,
		Description: field(c.Description),
		Amount:      amount,
		Reference:   field(c.Reference),
		Type:        field(c.Kind),
	}
	if txn.Reference == "" {
		txn.Reference = deriveRef(l.Name, date, txn.Description)
	}
	return txn, nil
}

// deriveRef builds a reference like chase_20250103_GITHUBPROS for banks
// that do not supply one.
func deriveRef(bank string, date time.Time, desc string) string {
	var b strings.Builder
	for _, r := range desc {
		if b.Len() == 10 {
			break
		}
		if r >= 'A' && r <= 'Z' || r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return bank + "_" + date.Format("20060102") + "_" + b.String()
}
