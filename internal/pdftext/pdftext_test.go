package pdftext

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dslipak/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banklens/banklens/internal/categorize"
	"github.com/banklens/banklens/internal/importer"
)

func TestExtract_NotAPDF(t *testing.T) {
	data := "2024-01-01 Grocery Store 1,200.50\n"
	_, err := New().Extract(strings.NewReader(data), int64(len(data)), "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnreadable)
}

func TestExtract_Empty(t *testing.T) {
	_, err := New().Extract(strings.NewReader(""), 0, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnreadable)
}

func TestIsEncrypted_NotAPDF(t *testing.T) {
	data := "%PDF-1.4 truncated"
	enc, err := New().IsEncrypted(strings.NewReader(data), int64(len(data)))
	require.Error(t, err)
	assert.False(t, enc)
	assert.ErrorIs(t, err, ErrUnreadable)
}

func TestExtractFile_Missing(t *testing.T) {
	_, err := New().ExtractFile(filepath.Join(t.TempDir(), "missing.pdf"), "")
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestIsEncryptedFile_Missing(t *testing.T) {
	_, err := New().IsEncryptedFile(filepath.Join(t.TempDir(), "missing.pdf"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestPasswordFunc(t *testing.T) {
	assert.Nil(t, passwordFunc(""))

	pw := passwordFunc("secret")
	require.NotNil(t, pw)
	assert.Equal(t, "secret", pw())
	assert.Equal(t, "", pw())
	assert.Equal(t, "", pw())
}

var statementRows = []string{
	"2024-01-02 Shoprite Supermarket 12,450.00",
	"2024-01-05 NIP Transfer -50,000.00",
	"2024-01-10 Mama Put Restaurant 3,200.00",
}

func TestExtract_RowsPositionedWithTd(t *testing.T) {
	r, size := docFixture{pages: []string{rowsAt("F1", statementRows...)}}.reader()

	text, err := New().Extract(r, size, "")
	require.NoError(t, err)
	assert.Equal(t, strings.Join(statementRows, "\n"), text)
}

func TestExtract_FontWithoutWidths(t *testing.T) {
	r, size := docFixture{pages: []string{rowsAt("F2", statementRows...)}}.reader()

	text, err := New().Extract(r, size, "")
	require.NoError(t, err)
	assert.Equal(t, strings.Join(statementRows, "\n"), text)
}

func TestExtract_CellsJoinedLeftToRight(t *testing.T) {
	content := cellsAt(
		cell{x: 400, y: 720, text: "12,450.00"},
		cell{x: 72, y: 720, text: "2024-01-02"},
		cell{x: 140, y: 720.5, text: "Shoprite Supermarket"},
		cell{x: 72, y: 706, text: "2024-01-05"},
		cell{x: 140, y: 706, text: "NIP"},
		cell{x: 162, y: 706, text: "Transfer"},
		cell{x: 400, y: 706, text: "-50,000.00"},
	)
	r, size := docFixture{pages: []string{content}}.reader()

	text, err := New().Extract(r, size, "")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-02 Shoprite Supermarket 12,450.00\n2024-01-05 NIP Transfer -50,000.00", text)
}

func TestExtract_MultiPage(t *testing.T) {
	r, size := docFixture{pages: []string{
		rowsAt("F1", statementRows[:2]...),
		rowsAt("F1", statementRows[2]),
	}}.reader()

	text, err := New().Extract(r, size, "")
	require.NoError(t, err)
	assert.Equal(t, strings.Join(statementRows, "\n"), text)
}

func TestExtract_DropsEmptyPages(t *testing.T) {
	r, size := docFixture{pages: []string{
		"",
		rowsAt("F1", statementRows[0]),
		"0 0 100 100 re f",
		rowsAt("F1", "   "),
		rowsAt("F1", statementRows[1]),
	}}.reader()

	text, err := New().Extract(r, size, "")
	require.NoError(t, err)
	assert.Equal(t, statementRows[0]+"\n"+statementRows[1], text)
}

func TestExtract_NoText(t *testing.T) {
	r, size := docFixture{pages: []string{"0 0 100 100 re f"}}.reader()

	text, err := New().Extract(r, size, "")
	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestExtract_RowsFeedLineParser(t *testing.T) {
	r, size := docFixture{pages: []string{rowsAt("F1", statementRows...)}}.reader()
	text, err := New().Extract(r, size, "")
	require.NoError(t, err)

	txns := importer.NewLineParser(categorize.Default()).Parse(text)
	require.Len(t, txns, 3)

	assert.Equal(t, "Shoprite Supermarket", txns[0].Description)
	assert.Equal(t, categorize.Groceries, txns[0].Category)
	assert.Equal(t, "12450.00", txns[0].Amount.StringFixed(2))

	assert.Equal(t, "NIP Transfer", txns[1].Description)
	assert.Equal(t, categorize.Transfers, txns[1].Category)
	assert.Equal(t, "-50000.00", txns[1].Amount.StringFixed(2))

	assert.Equal(t, "Mama Put Restaurant", txns[2].Description)
	assert.Equal(t, categorize.Dining, txns[2].Category)
	assert.Equal(t, "3200.00", txns[2].Amount.StringFixed(2))
}

func TestEncryptedDocument(t *testing.T) {
	doc := docFixture{
		pages:         []string{rowsAt("F1", statementRows...)},
		userPassword:  "s3cret",
		ownerPassword: "owner-pass",
	}
	e := New()

	t.Run("detected", func(t *testing.T) {
		r, size := doc.reader()
		enc, err := e.IsEncrypted(r, size)
		require.NoError(t, err)
		assert.True(t, enc)
	})

	t.Run("password required", func(t *testing.T) {
		r, size := doc.reader()
		_, err := e.Extract(r, size, "")
		assert.ErrorIs(t, err, ErrPasswordRequired)
	})

	t.Run("wrong password", func(t *testing.T) {
		r, size := doc.reader()
		_, err := e.Extract(r, size, "guess")
		assert.ErrorIs(t, err, ErrInvalidPassword)
	})

	t.Run("right password", func(t *testing.T) {
		r, size := doc.reader()
		text, err := e.Extract(r, size, "s3cret")
		require.NoError(t, err)
		assert.Equal(t, strings.Join(statementRows, "\n"), text)
	})
}

func TestIsEncrypted_PlainDocument(t *testing.T) {
	r, size := docFixture{pages: []string{rowsAt("F1", statementRows[0])}}.reader()

	enc, err := New().IsEncrypted(r, size)
	require.NoError(t, err)
	assert.False(t, enc)
}

func TestLockedStatementFile(t *testing.T) {
	path := filepath.Join("testdata", "statement-locked.pdf")
	e := New()

	enc, err := e.IsEncryptedFile(path)
	require.NoError(t, err)
	assert.True(t, enc)

	_, err = e.ExtractFile(path, "")
	assert.ErrorIs(t, err, ErrPasswordRequired)

	_, err = e.ExtractFile(path, "S3CRET")
	assert.ErrorIs(t, err, ErrInvalidPassword)

	text, err := e.ExtractFile(path, "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01 Shoprite Supermarket 12,450.00\n"+
		"2024-03-04 NIP Transfer -50,000.00\n"+
		"2024-03-09 Mama Put Restaurant 3,200.00", text)
}

func TestPageRows(t *testing.T) {
	glyph := func(x, y float64, s string) pdf.Text {
		return pdf.Text{FontSize: 10, X: x, Y: y, W: 5 * float64(len(s)), S: s}
	}

	rows := pageRows([]pdf.Text{
		glyph(72, 100, "b"),
		glyph(72, 200, "a"),
		glyph(77, 199, "1"),
		glyph(100, 200, "z"),
		glyph(72, 150, "\n"),
		glyph(77, 100.5, "c"),
	})
	assert.Equal(t, []string{"a1 z", "bc"}, rows)
}
