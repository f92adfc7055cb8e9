package commands

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/myrizq/rizq/internal/ledger"
	"github.com/myrizq/rizq/internal/model"
	"github.com/myrizq/rizq/internal/session"
)

func newTxnCommand(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "txn",
		Aliases: []string{"transaction"},
		Short:   "Record and list transactions",
	}
	cmd.AddCommand(newTxnRecordCommand(g), newTxnListCommand(g))
	return cmd
}

type txnRecordFlags struct {
	txnType, accountID, toAccountID string
	amount, date, description       string
	categoryID, goalID, loanID, key string
}

func newTxnRecordCommand(g *globalFlags) *cobra.Command {
	var f txnRecordFlags

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record a transaction",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), g, func(ctx context.Context, a *app) error {
				sess, err := a.svc.Session(ctx)
				if err != nil {
					return err
				}
				p, err := f.params(sess)
				if err != nil {
					return err
				}
				t, err := a.svc.RecordTransaction(ctx, p)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Recorded %s %s on %s\n", t.Type, t.ID, t.Date.Format(time.DateOnly))
				return nil
			})
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.txnType, "type", "", "income, expense, transfer, loan_given or loan_payment (required)")
	_ = cmd.MarkFlagRequired("type")
	fl.StringVar(&f.accountID, "account", "", "account the money moves through (required)")
	_ = cmd.MarkFlagRequired("account")
	fl.StringVar(&f.amount, "amount", "", "signed amount for --account; for transfers the positive amount moved to --to (required)")
	_ = cmd.MarkFlagRequired("amount")
	fl.StringVar(&f.toAccountID, "to", "", "destination account of a transfer")
	fl.StringVar(&f.date, "date", "", "transaction date, YYYY-MM-DD (default today)")
	fl.StringVar(&f.description, "description", "", "what it was for")
	fl.StringVar(&f.categoryID, "category", "", "category ID")
	fl.StringVar(&f.goalID, "goal", "", "savings goal this contributes to")
	fl.StringVar(&f.loanID, "loan", "", "loan this disburses or repays")
	fl.StringVar(&f.key, "idempotency-key", "", "retry-safe key for this command")

	return cmd
}

func (f txnRecordFlags) params(sess session.Session) (ledger.TransactionParams, error) {
	p := ledger.TransactionParams{
		IdempotencyKey: f.key,
		Description:    f.description,
		Type:           model.TransactionType(f.txnType),
		CategoryID:     f.categoryID,
		GoalID:         f.goalID,
		LoanID:         f.loanID,
	}
	amt, err := model.ParseMoney(f.amount)
	if err != nil {
		return p, fmt.Errorf("parsing --amount: %w", err)
	}
	if p.Date, err = parseDay("date", f.date); err != nil {
		return p, err
	}
	if p.Date.IsZero() {
		p.Date = sess.Today()
	}

	if p.Type == model.TxnTransfer {
		if f.toAccountID == "" {
			return p, fmt.Errorf("a transfer needs --to")
		}
		p.Legs = []model.Leg{
			{AccountID: f.accountID, Amount: amt.Neg()},
			{AccountID: f.toAccountID, Amount: amt},
		}
		return p, nil
	}
	if f.toAccountID != "" {
		return p, fmt.Errorf("--to only applies to transfers")
	}
	p.Legs = []model.Leg{{AccountID: f.accountID, Amount: amt}}
	return p, nil
}

type txnListFlags struct {
	from, to, text   string
	types            []string
	accountID, catID string
	page, pageSize   int
}

func newTxnListCommand(g *globalFlags) *cobra.Command {
	var f txnListFlags

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List transactions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := f.filter()
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), g, func(ctx context.Context, a *app) error {
				page, err := a.svc.Transactions(ctx, filter)
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tDATE\tTYPE\tACCOUNT\tAMOUNT\tCATEGORY\tDESCRIPTION")
				for _, t := range page.Items {
					for _, leg := range t.Legs {
						fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
							t.ID, t.Date.Format(time.DateOnly), t.Type, leg.AccountID,
							leg.Amount.StringFixed(2), t.CategoryID, t.Description)
					}
				}
				if err := w.Flush(); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "page %d, %d of %d transactions\n", page.Page, len(page.Items), page.Total)
				return nil
			})
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.from, "from", "", "earliest date, YYYY-MM-DD")
	fl.StringVar(&f.to, "to", "", "latest date, YYYY-MM-DD")
	fl.StringSliceVar(&f.types, "type", nil, "only these types")
	fl.StringVarP(&f.text, "query", "q", "", "text to look for in descriptions")
	fl.StringVar(&f.accountID, "account", "", "only transactions touching this account")
	fl.StringVar(&f.catID, "category", "", "only this category")
	fl.IntVar(&f.page, "page", 1, "page number")
	fl.IntVar(&f.pageSize, "page-size", 20, "transactions per page")

	return cmd
}

func (f txnListFlags) filter() (ledger.TransactionFilter, error) {
	filter := ledger.TransactionFilter{
		Text:       f.text,
		AccountID:  f.accountID,
		CategoryID: f.catID,
		Page:       f.page,
		PageSize:   f.pageSize,
	}
	var err error
	if filter.From, err = parseDay("from", f.from); err != nil {
		return filter, err
	}
	if filter.To, err = parseDay("to", f.to); err != nil {
		return filter, err
	}
	for _, s := range f.types {
		t := model.TransactionType(s)
		if !t.Valid() {
			return filter, fmt.Errorf("unknown transaction type %q", s)
		}
		filter.Types = append(filter.Types, t)
	}
	return filter, nil
}
