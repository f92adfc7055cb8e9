package journal

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/myrizq/rizq/internal/id"
	"github.com/myrizq/rizq/internal/model"
)

// Header is the CSV header of a transaction export.
const Header = "leg_id,date,type,account_id,description,amount,category_id,goal_id,loan_id"

const (
	numFields  = 9
	dateFormat = "2006-01-02"
	colLegID   = 0
	colDate    = 1
	colType    = 2
	colAcctID  = 3
	colDesc    = 4
	colAmount  = 5
	colCatID   = 6
	colGoalID  = 7
	colLoanID  = 8
)

// Row is one leg of a transaction as it appears in an export file. The
// transaction-level columns are repeated on every leg.
type Row struct {
	LegID       string
	Date        time.Time
	Type        model.TransactionType
	AccountID   string
	Description string
	Amount      model.Money
	CategoryID  string
	GoalID      string
	LoanID      string
}

// Group returns the transaction ID the row belongs to.
func (r Row) Group() string {
	return id.TxnGroup(r.LegID)
}

// RowsFor flattens transactions into one row per leg.
func RowsFor(txns []model.Transaction) []Row {
	var rows []Row
	for _, t := range txns {
		for i, leg := range t.Legs {
			rows = append(rows, Row{
				LegID:       id.FormatLegID(t.ID, i),
				Date:        t.Date,
				Type:        t.Type,
				AccountID:   leg.AccountID,
				Description: t.Description,
				Amount:      leg.Amount,
				CategoryID:  t.CategoryID,
				GoalID:      t.GoalID,
				LoanID:      t.LoanID,
			})
		}
	}
	return rows
}

// Transactions groups rows back into transactions, in order of first
// appearance. Transaction-level fields come from the group's first row.
func Transactions(rows []Row) []model.Transaction {
	index := make(map[string]int)
	var txns []model.Transaction
	for _, r := range rows {
		g := r.Group()
		i, ok := index[g]
		if !ok {
			i = len(txns)
			index[g] = i
			txns = append(txns, model.Transaction{
				ID:          g,
				Date:        r.Date,
				Description: r.Description,
				Type:        r.Type,
				CategoryID:  r.CategoryID,
				GoalID:      r.GoalID,
				LoanID:      r.LoanID,
			})
		}
		txns[i].Legs = append(txns[i].Legs, model.Leg{AccountID: r.AccountID, Amount: r.Amount})
	}
	return txns
}

// ReadRows reads all rows from an export file.
func ReadRows(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading transaction CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}

	var rows []Row
	for i, rec := range records[1:] {
		row, err := UnmarshalRow(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// WriteRows writes rows to w, header included.
func WriteRows(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, row := range rows {
		if err := cw.Write(MarshalRow(row)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteTransactions writes txns as one row per leg.
func WriteTransactions(w io.Writer, txns []model.Transaction) error {
	return WriteRows(w, RowsFor(txns))
}

// ReadTransactions reads an export file and regroups its legs.
func ReadTransactions(r io.Reader) ([]model.Transaction, error) {
	rows, err := ReadRows(r)
	if err != nil {
		return nil, err
	}
	return Transactions(rows), nil
}

// MarshalRow converts a Row to a CSV record.
func MarshalRow(r Row) []string {
	rec := make([]string, numFields)
	rec[colLegID] = r.LegID
	rec[colDate] = r.Date.Format(dateFormat)
	rec[colType] = string(r.Type)
	rec[colAcctID] = r.AccountID
	rec[colDesc] = r.Description
	rec[colAmount] = r.Amount.StringFixed(2)
	rec[colCatID] = r.CategoryID
	rec[colGoalID] = r.GoalID
	rec[colLoanID] = r.LoanID
	return rec
}

// UnmarshalRow converts a CSV record to a Row.
func UnmarshalRow(record []string) (Row, error) {
	if len(record) != numFields {
		return Row{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	date, err := time.Parse(dateFormat, record[colDate])
	if err != nil {
		return Row{}, fmt.Errorf("parsing date %q: %w", record[colDate], err)
	}

	amount, err := model.ParseMoney(record[colAmount])
	if err != nil {
		return Row{}, fmt.Errorf("parsing amount: %w", err)
	}

	return Row{
		LegID:       record[colLegID],
		Date:        date,
		Type:        model.TransactionType(record[colType]),
		AccountID:   record[colAcctID],
		Description: record[colDesc],
		Amount:      amount,
		CategoryID:  record[colCatID],
		GoalID:      record[colGoalID],
		LoanID:      record[colLoanID],
	}, nil
}
