package commands

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/myrizq/rizq/internal/ledger"
)

func newCategoriesCommand(g *globalFlags) *cobra.Command {
	var add, icon, color string

	cmd := &cobra.Command{
		Use:   "categories",
		Short: "List categories, or add one with --add",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), g, func(ctx context.Context, a *app) error {
				if add != "" {
					cat, err := a.svc.CreateCategory(ctx, ledger.CreateCategoryParams{Name: add, Icon: icon, Color: color})
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Created category %s (%s)\n", cat.Name, cat.ID)
					return nil
				}

				cats, err := a.svc.Categories(ctx)
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tNAME")
				for _, c := range cats {
					fmt.Fprintf(w, "%s\t%s\n", c.ID, c.Name)
				}
				return w.Flush()
			})
		},
	}

	cmd.Flags().StringVar(&add, "add", "", "name of a category to create")
	cmd.Flags().StringVar(&icon, "icon", "", "icon for --add")
	cmd.Flags().StringVar(&color, "color", "", "color for --add")

	return cmd
}
