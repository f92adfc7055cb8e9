package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/myrizq/rizq/internal/categories"
	"github.com/myrizq/rizq/internal/config"
	"github.com/myrizq/rizq/internal/model"
)

func newInitCommand() *cobra.Command {
	var baseCurrency string

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new rizq project",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			if err := runInit(absDir, strings.ToUpper(baseCurrency)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Initialized rizq project at %s\n", absDir)
			return nil
		},
	}

	cmd.Flags().StringVar(&baseCurrency, "base-currency", "USD", "currency totals are reported in")

	return cmd
}

func runInit(dir, baseCurrency string) error {
	if !model.ValidCurrency(baseCurrency) {
		return fmt.Errorf("invalid base currency %q: must be a 3-letter ISO code", baseCurrency)
	}

	cfgPath := filepath.Join(dir, config.FileName)
	if _, err := os.Stat(cfgPath); err == nil {
		return fmt.Errorf("%s already exists", cfgPath)
	}

	// Create directory structure.
	cfg := config.Default(baseCurrency)
	dirs := []string{
		filepath.Dir(cfg.Storage.Path),
		filepath.Join(cfg.Import.Dir, "import", "processed"),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", d, err)
		}
	}

	if err := config.Save(cfgPath, cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	catalog := categories.NewCatalog(categories.Defaults())
	if err := catalog.Save(filepath.Join(dir, cfg.Ledger.CategoriesFile)); err != nil {
		return fmt.Errorf("writing category catalog: %w", err)
	}

	gitignore := "data/\n.env\n"
	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(gitignore), 0o644); err != nil {
		return fmt.Errorf("writing .gitignore: %w", err)
	}

	return nil
}
