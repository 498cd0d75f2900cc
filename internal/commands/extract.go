package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	"github.com/spf13/cobra"

	"github.com/banklens/banklens/internal/export"
	"github.com/banklens/banklens/internal/history"
	"github.com/banklens/banklens/internal/importer"
	"github.com/banklens/banklens/internal/model"
	"github.com/banklens/banklens/internal/pdftext"
	"github.com/banklens/banklens/internal/report"
	"github.com/banklens/banklens/internal/server"
)

// useConfigName is the value --csv and --xlsx take when given without a name.
const useConfigName = "-"

type extractOptions struct {
	password string
	category string
	format   string
	csv      string
	xlsx     string
	chart    bool
	publish  bool
	sheet    string
}

func newExtractCommand(a *app) *cobra.Command {
	var opts extractOptions

	cmd := &cobra.Command{
		Use:   "extract [statement.pdf ...]",
		Short: "Extract and categorize transactions from statement PDFs",
		Long: `Extract and categorize transactions from statement PDFs.

With no arguments, every PDF waiting in statements/ is processed and moved
to statements/processed/ on success.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				for _, path := range args {
					if err := runExtract(cmd, a, opts, path); err != nil {
						return err
					}
				}
				return nil
			}
			return runExtractInbox(cmd, a, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.password, "password", "p", "", "password for an encrypted statement")
	f.StringVar(&opts.category, "category", report.AllCategories, "only show transactions in this category")
	f.StringVar(&opts.format, "format", importer.DefaultFormat, "statement layout parser")
	f.StringVar(&opts.csv, "csv", "", "write a CSV export (optionally naming the file)")
	f.Lookup("csv").NoOptDefVal = useConfigName
	f.StringVar(&opts.xlsx, "xlsx", "", "write an Excel export (optionally naming the file)")
	f.Lookup("xlsx").NoOptDefVal = useConfigName
	f.BoolVar(&opts.chart, "chart", false, "draw a bar chart of totals by category")
	f.BoolVar(&opts.publish, "publish", false, "publish the table to Google Sheets")
	f.StringVar(&opts.sheet, "sheet", "", "spreadsheet name (defaults to sheets.name in config)")

	return cmd
}

func runExtractInbox(cmd *cobra.Command, a *app, opts extractOptions) error {
	files, err := importer.Scan(a.root())
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No statements waiting in statements/.")
		return nil
	}
	for _, f := range files {
		if err := runExtract(cmd, a, opts, f.Path); err != nil {
			return err
		}
		if err := importer.MarkProcessed(a.root(), f.Name); err != nil {
			return err
		}
	}
	return nil
}

func runExtract(cmd *cobra.Command, a *app, opts extractOptions, path string) error {
	out := cmd.OutOrStdout()
	source := filepath.Base(path)

	txns, err := analyze(a, opts.format, path, opts.password)
	if err != nil {
		return err
	}
	a.record(history.NewEntry(history.ActionExtract, source, len(txns), "format="+opts.format))

	if len(txns) == 0 {
		fmt.Fprintln(out, "No transactions found.")
		return nil
	}

	if opts.category != report.AllCategories && !slices.Contains(report.Categories(txns), opts.category) {
		a.logger.Warn("category not present in statement", "category", opts.category, "source", source)
	}
	shown := report.Filter(txns, opts.category)

	fmt.Fprintf(out, "Extracted %d transactions from %s\n", len(txns), source)
	if len(shown) != len(txns) {
		fmt.Fprintf(out, "Showing %d in %s\n", len(shown), opts.category)
	}
	fmt.Fprintln(out)
	if err := report.RenderTable(out, shown); err != nil {
		return fmt.Errorf("rendering table: %w", err)
	}
	fmt.Fprintf(out, "\nTotal: %s\n", report.FormatAmount(report.Sum(shown)))

	if opts.chart {
		fmt.Fprintln(out)
		if err := report.RenderChart(out, report.Totals(shown), report.DefaultChartWidth); err != nil {
			return fmt.Errorf("rendering chart: %w", err)
		}
	}

	if opts.csv != "" {
		if err := writeExport(cmd, a, source, opts.csv, ".csv", shown, export.WriteCSV); err != nil {
			return err
		}
	}
	if opts.xlsx != "" {
		if err := writeExport(cmd, a, source, opts.xlsx, ".xlsx", shown, export.WriteXLSX); err != nil {
			return err
		}
	}
	if opts.publish {
		if err := publishRows(cmd, a, source, opts.sheet, shown); err != nil {
			return err
		}
	}
	return nil
}

// analyze runs one statement through the configured pipeline.
func analyze(a *app, format, path, password string) ([]model.Transaction, error) {
	svc, err := a.service(format)
	if err != nil {
		return nil, err
	}
	result, err := svc.AnalyzeFile(path, password)
	if err != nil {
		if errors.Is(err, pdftext.ErrPasswordRequired) {
			return nil, fmt.Errorf("%w: rerun with --password", err)
		}
		return nil, err
	}
	return result.Transactions, nil
}

func writeExport(cmd *cobra.Command, a *app, source, name, ext string, txns []model.Transaction, write func(io.Writer, []model.Transaction) error) error {
	if name == useConfigName {
		name = a.cfg.Export.Filename
	}
	dir := a.path(a.cfg.Export.Dir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating export dir: %w", err)
	}
	path := filepath.Join(dir, export.Filename(name, ext))

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating export: %w", err)
	}
	if err := write(f, txns); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	a.record(history.NewEntry(history.ActionExport, source, len(txns), path))
	return nil
}

func publishRows(cmd *cobra.Command, a *app, source, sheet string, txns []model.Transaction) error {
	if sheet == "" {
		sheet = a.cfg.Sheets.Name
	}
	pub, err := a.publisher(cmd.Context())
	if err != nil {
		return err
	}
	if err := pub.Publish(cmd.Context(), sheet, export.Rows(txns)); err != nil {
		return fmt.Errorf("publishing to %q: %w", sheet, err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), server.PublishedMessage)
	a.record(history.NewEntry(history.ActionPublish, source, len(txns), "sheet="+sheet))
	return nil
}
