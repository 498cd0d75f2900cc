package commands

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/banklens/banklens/internal/history"
	"github.com/banklens/banklens/internal/importer"
	"github.com/banklens/banklens/internal/report"
)

func newPublishCommand(a *app) *cobra.Command {
	var password, category, sheet string

	cmd := &cobra.Command{
		Use:   "publish <statement.pdf>",
		Short: "Extract a statement and publish its transactions to Google Sheets",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			source := filepath.Base(path)

			txns, err := analyze(a, importer.DefaultFormat, path, password)
			if err != nil {
				return err
			}
			a.record(history.NewEntry(history.ActionExtract, source, len(txns), "format="+importer.DefaultFormat))
			if len(txns) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No transactions found.")
				return nil
			}
			return publishRows(cmd, a, source, sheet, report.Filter(txns, category))
		},
	}

	cmd.Flags().StringVarP(&password, "password", "p", "", "password for an encrypted statement")
	cmd.Flags().StringVar(&category, "category", report.AllCategories, "only publish transactions in this category")
	cmd.Flags().StringVar(&sheet, "sheet", "", "spreadsheet name (defaults to sheets.name in config)")

	return cmd
}
