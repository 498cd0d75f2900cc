package commands

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banklens/banklens/internal/config"
	"github.com/banklens/banklens/internal/history"
	"github.com/banklens/banklens/internal/pdftext"
	"github.com/banklens/banklens/internal/report"
)

func TestExtract(t *testing.T) {
	h := newHarness(t)
	h.initProject()
	path := h.writeStatement("january.pdf", sampleStatement)

	out, err := h.run("extract", path)
	require.NoError(t, err)

	assert.Contains(t, out, "Extracted 5 transactions from january.pdf")
	assert.NotContains(t, out, "Showing")
	assert.Contains(t, out, "Date")
	assert.Contains(t, out, "Grocery Store")
	assert.Contains(t, out, "₦1,200.50")
	assert.Contains(t, out, "Uncategorized")
	assert.Contains(t, out, "Total: ₦64,300.50")
	assert.NotContains(t, out, report.ChartTitle)
}

func TestExtract_Category(t *testing.T) {
	h := newHarness(t)
	path := h.writeStatement("january.pdf", sampleStatement)

	out, err := h.run("extract", path, "--category", "Income")
	require.NoError(t, err)

	assert.Contains(t, out, "Extracted 5 transactions")
	assert.Contains(t, out, "Showing 1 in Income")
	assert.Contains(t, out, "Salary Payment")
	assert.NotContains(t, out, "Grocery Store")
	assert.Contains(t, out, "Total: ₦50,000.00")
}

func TestExtract_Chart(t *testing.T) {
	h := newHarness(t)
	path := h.writeStatement("january.pdf", sampleStatement)

	out, err := h.run("extract", path, "--chart")
	require.NoError(t, err)

	assert.Contains(t, out, report.ChartTitle)
	chart := out[strings.Index(out, report.ChartTitle):]
	for _, cat := range []string{"Dining", "Groceries", "Income", "Transfers", "Uncategorized"} {
		assert.Contains(t, chart, cat)
	}
}

func TestExtract_NoTransactions(t *testing.T) {
	h := newHarness(t)
	path := h.writeStatement("empty.pdf", "Statement of account\nNothing to see here")

	out, err := h.run("extract", path, "--csv")
	require.NoError(t, err)
	assert.Equal(t, "No transactions found.\n", out)

	_, err = os.Stat(filepath.Join(h.dir, "exports"))
	assert.ErrorIs(t, err, os.ErrNotExist, "nothing is exported for an empty statement")
}

func TestExtract_PasswordRequired(t *testing.T) {
	h := newHarness(t)
	h.extractor.password = "secret"
	path := h.writeStatement("locked.pdf", sampleStatement)

	_, err := h.run("extract", path)
	require.Error(t, err)
	assert.ErrorIs(t, err, pdftext.ErrPasswordRequired)
	assert.Contains(t, err.Error(), "--password")

	_, err = h.run("extract", path, "--password", "wrong")
	assert.ErrorIs(t, err, pdftext.ErrInvalidPassword)

	out, err := h.run("extract", path, "--password", "secret")
	require.NoError(t, err)
	assert.Contains(t, out, "Extracted 5 transactions")
}

func TestExtract_UnknownFormat(t *testing.T) {
	h := newHarness(t)
	path := h.writeStatement("january.pdf", sampleStatement)

	_, err := h.run("extract", path, "--format", "mt940")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown statement format "mt940"`)
}

func TestExtract_MissingFile(t *testing.T) {
	h := newHarness(t)
	_, err := h.run("extract", filepath.Join(h.dir, "nope.pdf"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestExtract_CSVDefaultName(t *testing.T) {
	h := newHarness(t)
	h.initProject()
	path := h.writeStatement("january.pdf", sampleStatement)

	out, err := h.run("extract", path, "--csv", "--category", "Dining")
	require.NoError(t, err)

	exportPath := filepath.Join(h.dir, "exports", "transactions.csv")
	assert.Contains(t, out, "Wrote "+exportPath)
	data, err := os.ReadFile(exportPath)
	require.NoError(t, err)
	assert.Equal(t, "Date,Description,Amount,Category\n2024-01-03,Restaurant Bill,3000,Dining\n", string(data))
}

func TestExtract_CSVNamed(t *testing.T) {
	h := newHarness(t)
	path := h.writeStatement("january.pdf", sampleStatement)

	_, err := h.run("extract", path, "--csv=jan-2024")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(h.dir, "exports", "jan-2024.csv"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Len(t, lines, 6)
	assert.Equal(t, "2024-01-02,Salary Payment,50000,Income", lines[2])
}

func TestExtract_XLSX(t *testing.T) {
	h := newHarness(t)
	h.initProject()
	h.updateConfig(func(c *config.Config) { c.Export.Filename = "statement" })
	path := h.writeStatement("january.pdf", sampleStatement)

	_, err := h.run("extract", path, "--xlsx")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(h.dir, "exports", "statement.xlsx"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "PK"))
}

func TestExtract_Publish(t *testing.T) {
	h := newHarness(t)
	h.initProject("--sheet", "Household")
	h.updateConfig(func(c *config.Config) { c.Sheets.CredentialsPath = "/secrets/sa.json" })
	path := h.writeStatement("january.pdf", sampleStatement)

	out, err := h.run("extract", path, "--publish")
	require.NoError(t, err)

	assert.Contains(t, out, "Uploaded to Google Sheets!")
	assert.Equal(t, 1, h.publisher.calls)
	assert.Equal(t, "Household", h.publisher.name)
	assert.Equal(t, "/secrets/sa.json", h.publisher.credentials)
	require.Len(t, h.publisher.rows, 6)
	assert.Equal(t, []any{"Date", "Description", "Amount", "Category"}, h.publisher.rows[0])
}

func TestExtract_PublishSheetFlag(t *testing.T) {
	h := newHarness(t)
	path := h.writeStatement("january.pdf", sampleStatement)

	_, err := h.run("extract", path, "--publish", "--sheet", "Other", "--category", "Transfers")
	require.NoError(t, err)
	assert.Equal(t, "Other", h.publisher.name)
	require.Len(t, h.publisher.rows, 2)
	assert.Equal(t, []any{"2024-01-04", "Transfer to John", 10000.0, "Transfers"}, h.publisher.rows[1])
}

func TestExtract_History(t *testing.T) {
	h := newHarness(t)
	h.initProject()
	h.updateConfig(func(c *config.Config) { c.History.Enabled = true })
	path := h.writeStatement("january.pdf", sampleStatement)

	_, err := h.run("extract", path, "--csv", "--publish")
	require.NoError(t, err)

	entries, err := history.Read(h.dir)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, history.ActionExtract, entries[0].Action)
	assert.Equal(t, "january.pdf", entries[0].Source)
	assert.Equal(t, 5, entries[0].Records)
	assert.Equal(t, history.ActionExport, entries[1].Action)
	assert.Equal(t, history.ActionPublish, entries[2].Action)
	assert.Equal(t, "sheet=Bank Transactions", entries[2].Detail)
}

func TestExtract_HistoryDisabled(t *testing.T) {
	h := newHarness(t)
	h.initProject()
	path := h.writeStatement("january.pdf", sampleStatement)

	_, err := h.run("extract", path)
	require.NoError(t, err)

	entries, err := history.Read(h.dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestExtract_Inbox(t *testing.T) {
	h := newHarness(t)
	h.initProject()
	h.writeStatement(filepath.Join("statements", "january.pdf"), sampleStatement)
	h.writeStatement(filepath.Join("statements", "february.pdf"), "2024-02-01 Supermarket 500")
	h.writeStatement(filepath.Join("statements", "notes.txt"), "2024-02-01 ignored 1")

	out, err := h.run("extract")
	require.NoError(t, err)
	assert.Contains(t, out, "Extracted 5 transactions from january.pdf")
	assert.Contains(t, out, "Extracted 1 transactions from february.pdf")

	for _, name := range []string{"january.pdf", "february.pdf"} {
		_, err := os.Stat(filepath.Join(h.dir, "statements", "processed", name))
		assert.NoError(t, err, "%s should be moved to processed", name)
		_, err = os.Stat(filepath.Join(h.dir, "statements", name))
		assert.ErrorIs(t, err, os.ErrNotExist)
	}
	_, err = os.Stat(filepath.Join(h.dir, "statements", "notes.txt"))
	assert.NoError(t, err)
}

func TestExtract_InboxEmpty(t *testing.T) {
	h := newHarness(t)
	h.initProject()

	out, err := h.run("extract")
	require.NoError(t, err)
	assert.Equal(t, "No statements waiting in statements/.\n", out)
}
