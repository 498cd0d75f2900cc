package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/banklens/banklens/internal/model"
	"github.com/banklens/banklens/internal/report"
)

const (
	transactionsSheet = "Transactions"
	summarySheet      = "Summary"
)

// WriteXLSX writes a workbook with the transaction table, a per-category
// summary and a column chart of the summary.
func WriteXLSX(w io.Writer, txns []model.Transaction) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", transactionsSheet); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}
	for i, row := range Rows(txns) {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(transactionsSheet, cell, &row); err != nil {
			return fmt.Errorf("writing row %d: %w", i+1, err)
		}
	}
	if err := f.SetColWidth(transactionsSheet, "B", "B", 40); err != nil {
		return fmt.Errorf("sizing columns: %w", err)
	}

	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("adding summary sheet: %w", err)
	}
	totals := report.Totals(txns)
	if err := f.SetSheetRow(summarySheet, "A1", &[]any{"Category", "Total", "Count"}); err != nil {
		return fmt.Errorf("writing summary header: %w", err)
	}
	for i, ct := range totals {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{ct.Category, ct.Total.InexactFloat64(), ct.Count}
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return fmt.Errorf("writing summary row %d: %w", i+2, err)
		}
	}

	if len(totals) > 0 {
		last := len(totals) + 1
		chart := &excelize.Chart{
			Type: excelize.Col,
			Series: []excelize.ChartSeries{{
				Name:       fmt.Sprintf("%s!$B$1", summarySheet),
				Categories: fmt.Sprintf("%s!$A$2:$A$%d", summarySheet, last),
				Values:     fmt.Sprintf("%s!$B$2:$B$%d", summarySheet, last),
			}},
			Title: []excelize.RichTextRun{{Text: report.ChartTitle}},
		}
		if err := f.AddChart(summarySheet, "E2", chart); err != nil {
			return fmt.Errorf("adding chart: %w", err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}
