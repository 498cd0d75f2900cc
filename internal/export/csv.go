// Package export serializes transaction tables for download and sharing.
package export

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/banklens/banklens/internal/model"
)

// DefaultName is the export file name used when none is given.
const DefaultName = "transactions"

// csvRow is the CSV shape of a Transaction.
type csvRow struct {
	Date        string `csv:"Date"`
	Description string `csv:"Description"`
	Amount      string `csv:"Amount"`
	Category    string `csv:"Category"`
}

// WriteCSV writes a header row followed by one row per transaction.
func WriteCSV(w io.Writer, txns []model.Transaction) error {
	rows := make([]*csvRow, len(txns))
	for i, t := range txns {
		rows[i] = &csvRow{
			Date:        t.Date,
			Description: t.Description,
			Amount:      t.Amount.String(),
			Category:    t.Category,
		}
	}
	if len(rows) == 0 {
		// gocsv cannot derive a header from an empty slice.
		_, err := fmt.Fprintln(w, strings.Join(model.Columns, ","))
		return err
	}
	if err := gocsv.Marshal(rows, w); err != nil {
		return fmt.Errorf("writing CSV: %w", err)
	}
	return nil
}

// Rows returns the table as a header row followed by value rows.
func Rows(txns []model.Transaction) [][]any {
	header := make([]any, len(model.Columns))
	for i, c := range model.Columns {
		header[i] = c
	}
	rows := make([][]any, 0, len(txns)+1)
	rows = append(rows, header)
	for _, t := range txns {
		rows = append(rows, t.Values())
	}
	return rows
}

// Filename returns name with ext appended, falling back to DefaultName.
// Directory components are stripped so callers can join it under an
// export directory.
func Filename(name, ext string) string {
	name = strings.TrimSpace(filepath.Base(strings.TrimSpace(name)))
	if name == "" || name == "." || name == string(filepath.Separator) {
		name = DefaultName
	}
	ext = "." + strings.TrimPrefix(ext, ".")
	if strings.EqualFold(filepath.Ext(name), ext) {
		return name
	}
	return name + ext
}
