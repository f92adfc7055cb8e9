package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/myrizq/rizq/internal/ledger"
	"github.com/myrizq/rizq/internal/model"
)

func newAccountCommand(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Manage accounts",
	}
	cmd.AddCommand(newAccountCreateCommand(g), newAccountListCommand(g))
	return cmd
}

type accountCreateFlags struct {
	name, accountType, currency string
	opening, openingDate        string
	details                     string
	key                         string
}

func newAccountCreateCommand(g *globalFlags) *cobra.Command {
	var f accountCreateFlags

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Open an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), g, func(ctx context.Context, a *app) error {
				p, err := f.params(a.cfg.Ledger.BaseCurrency)
				if err != nil {
					return err
				}
				acct, err := a.svc.CreateAccount(ctx, p)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created %s account %s (%s)\n", acct.Type, acct.Name, acct.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&f.name, "name", "", "account name (required)")
	_ = cmd.MarkFlagRequired("name")
	cmd.Flags().StringVar(&f.accountType, "type", "", "bank, card, saving, wallet or cash (required)")
	_ = cmd.MarkFlagRequired("type")
	cmd.Flags().StringVar(&f.currency, "currency", "", "account currency (default ledger.base_currency)")
	cmd.Flags().StringVar(&f.opening, "opening-balance", "", "record this opening balance")
	cmd.Flags().StringVar(&f.openingDate, "opening-date", "", "date of the opening balance (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.details, "details", "", `type details as JSON, e.g. '{"bank":{"account_number":"123","routing_number":"021000021"}}'`)
	cmd.Flags().StringVar(&f.key, "idempotency-key", "", "retry-safe key for this command")

	return cmd
}

func (f accountCreateFlags) params(defaultCurrency string) (ledger.CreateAccountParams, error) {
	p := ledger.CreateAccountParams{
		IdempotencyKey: f.key,
		Name:           f.name,
		Type:           model.AccountType(f.accountType),
		Currency:       strings.ToUpper(f.currency),
		OpeningBalance: decimal.Zero,
	}
	if p.Currency == "" {
		p.Currency = defaultCurrency
	}
	if f.opening != "" {
		amt, err := model.ParseMoney(f.opening)
		if err != nil {
			return p, fmt.Errorf("parsing --opening-balance: %w", err)
		}
		p.OpeningBalance = amt
	}
	d, err := parseDay("opening-date", f.openingDate)
	if err != nil {
		return p, err
	}
	p.OpeningDate = d
	if f.details != "" {
		if err := json.Unmarshal([]byte(f.details), &p.Details); err != nil {
			return p, fmt.Errorf("parsing --details: %w", err)
		}
	}
	return p, nil
}

func newAccountListCommand(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List accounts with balances",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), g, func(ctx context.Context, a *app) error {
				sum, err := a.svc.Summary(ctx)
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tNAME\tTYPE\tBALANCE\tACTIVE")
				for _, r := range sum.Accounts {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s %s\t%t\n",
						r.Account.ID, r.Account.Name, r.Account.Type,
						r.Balance.StringFixed(2), r.Account.Currency, r.Account.Active)
				}
				return w.Flush()
			})
		},
	}
}

// printMoney writes a labelled amount.
func printMoney(w io.Writer, label string, m model.Money, currency string) {
	fmt.Fprintf(w, "%s\t%s %s\n", label, m.StringFixed(2), currency)
}
