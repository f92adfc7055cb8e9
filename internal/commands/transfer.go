package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/myrizq/rizq/internal/importer"
)

type importFlags struct {
	format    string
	accountID string
	journal   bool
}

func newImportCommand(g *globalFlags) *cobra.Command {
	var f importFlags

	cmd := &cobra.Command{
		Use:   "import [file...]",
		Short: "Import bank statements or a journal export",
		Long: `Import bank statement CSVs onto an account. Without file arguments every
CSV waiting in <import.dir>/import/ is imported and moved to
<import.dir>/import/processed/. With --journal the files are transaction
exports written by "rizq export".`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !f.journal && f.accountID == "" {
				return fmt.Errorf("--account is required for statement imports")
			}
			return withApp(cmd.Context(), g, func(ctx context.Context, a *app) error {
				return runImport(ctx, cmd.OutOrStdout(), a, f, args)
			})
		},
	}

	cmd.Flags().StringVar(&f.format, "format", "chase", "statement format")
	cmd.Flags().StringVar(&f.accountID, "account", "", "account the statement belongs to")
	cmd.Flags().BoolVar(&f.journal, "journal", false, "files are rizq journal exports")

	return cmd
}

func runImport(ctx context.Context, out io.Writer, a *app, f importFlags, paths []string) error {
	inbox := importer.Inbox{Dir: a.cfg.Import.Dir}
	fromQueue := len(paths) == 0
	if fromQueue {
		files, err := inbox.Pending()
		if err != nil {
			return err
		}
		if len(files) == 0 {
			fmt.Fprintln(out, "Nothing to import")
			return nil
		}
		for _, fi := range files {
			paths = append(paths, fi.Path)
		}
	}

	for _, path := range paths {
		if err := importFile(ctx, out, a, f, path); err != nil {
			return fmt.Errorf("importing %s: %w", path, err)
		}
		if fromQueue {
			if err := inbox.Done(filepath.Base(path)); err != nil {
				return err
			}
		}
	}
	return nil
}

func importFile(ctx context.Context, out io.Writer, a *app, f importFlags, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	name := filepath.Base(path)
	if f.journal {
		n, err := a.svc.ImportTransactions(ctx, file)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s: %d transactions\n", name, n)
		return nil
	}

	res, err := a.svc.ImportStatement(ctx, f.format, f.accountID, file)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s: %d rows, %d recorded, %d already imported\n", name, res.Parsed, res.Recorded, res.Duplicates)
	return nil
}

func newExportCommand(g *globalFlags) *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every transaction as CSV, one row per leg",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), g, func(ctx context.Context, a *app) error {
				if outPath == "" || outPath == "-" {
					return a.svc.ExportTransactions(ctx, cmd.OutOrStdout())
				}
				file, err := os.Create(outPath)
				if err != nil {
					return err
				}
				if err := a.svc.ExportTransactions(ctx, file); err != nil {
					file.Close()
					return err
				}
				return file.Close()
			})
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default stdout)")

	return cmd
}
