package commands

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/myrizq/rizq/internal/aggregate"
)

func newDashboardCommand(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Show balances, budgets, goals and loans",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), g, func(ctx context.Context, a *app) error {
				sum, err := a.svc.Summary(ctx)
				if err != nil {
					return err
				}
				return printSummary(cmd.OutOrStdout(), sum)
			})
		},
	}
}

func printSummary(out io.Writer, s *aggregate.Summary) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	cur := s.BaseCurrency

	fmt.Fprintf(w, "As of\t%s\n", s.AsOf.Format(time.DateOnly))
	printMoney(w, "Total balance", s.TotalBalance, cur)
	printMoney(w, "Income this month", s.MonthlyIncome, cur)
	printMoney(w, "Expenses this month", s.MonthlyExpense, cur)
	printMoney(w, "Net savings", s.NetSavings, cur)

	if len(s.Budgets) > 0 {
		fmt.Fprintln(w, "\nBUDGET\tSPENT\tLIMIT\tUSED")
		for _, b := range s.Budgets {
			flag := ""
			if b.Alerting {
				flag = " !"
			}
			fmt.Fprintf(w, "%s\t%s\t%s %s\t%d%%%s\n", b.Budget.Name,
				b.Spent.StringFixed(2), b.Budget.Amount.StringFixed(2), b.Budget.Currency, b.DisplayPercent, flag)
		}
	}
	if len(s.Goals) > 0 {
		fmt.Fprintln(w, "\nGOAL\tSAVED\tTARGET\tPROGRESS")
		for _, gr := range s.Goals {
			fmt.Fprintf(w, "%s\t%s\t%s %s\t%d%%\n", gr.Goal.Name,
				gr.Saved.StringFixed(2), gr.Goal.TargetAmount.StringFixed(2), gr.Goal.Currency, gr.DisplayPercent)
		}
	}
	loans := append(append([]aggregate.LoanReport{}, s.LoansTaken...), s.LoansGiven...)
	if len(loans) > 0 {
		fmt.Fprintln(w, "\nLOAN\tDIRECTION\tREMAINING\tPAID")
		for _, l := range loans {
			overdue := ""
			if l.Overdue {
				overdue = " overdue"
			}
			fmt.Fprintf(w, "%s\t%s\t%s %s\t%d%%%s\n", l.Loan.Counterparty, l.Loan.Direction,
				l.Remaining.StringFixed(2), l.Loan.Currency, l.DisplayPercent, overdue)
		}
	}
	for _, e := range s.Errors {
		fmt.Fprintf(w, "\nwarning: %s %s: %s\n", e.Kind, e.ID, e.Message)
	}
	return w.Flush()
}
