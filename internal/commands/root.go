package commands

import (
	"github.com/spf13/cobra"

	"github.com/myrizq/rizq/internal/buildinfo"
	"github.com/myrizq/rizq/internal/config"
)

// globalFlags are shared by every subcommand that touches a ledger.
type globalFlags struct {
	configPath string
	envFile    string
	userID     string
	asOf       string
	currency   string
	logLevel   string
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	var g globalFlags

	rootCmd := &cobra.Command{
		Use:     "rizq",
		Short:   "Personal finance ledger",
		Version: buildinfo.Get().String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&g.configPath, "config", config.FileName, "path to the config file")
	pf.StringVar(&g.envFile, "env-file", ".env", "optional file of RIZQ_* variables")
	pf.StringVarP(&g.userID, "user", "u", "", "user whose ledger to use (default $RIZQ_USER)")
	pf.StringVar(&g.asOf, "as-of", "", "evaluate as of this date (YYYY-MM-DD)")
	pf.StringVar(&g.currency, "report-currency", "", "report in this currency instead of the configured one")
	pf.StringVar(&g.logLevel, "log-level", "", "override log.level")

	rootCmd.AddCommand(
		newInitCommand(),
		newServeCommand(&g),
		newAccountCommand(&g),
		newTxnCommand(&g),
		newDashboardCommand(&g),
		newImportCommand(&g),
		newExportCommand(&g),
		newCategoriesCommand(&g),
	)

	return rootCmd
}
