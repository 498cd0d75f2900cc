package pdftext

import (
	"cmp"
	"slices"
	"strings"
	"unicode"

	"github.com/dslipak/pdf"
)

const (
	// rowTolerance is how far apart two baselines may sit and still be
	// read as one row.
	rowTolerance = 2.0
	// wordGap is the horizontal gap, as a fraction of the font size,
	// above which two glyphs are separated by a space.
	wordGap = 1.0 / 6
)

// pageRows rebuilds the visual rows of a page from its positioned glyphs,
// top to bottom. Glyphs on a row are joined left to right; blank rows are
// dropped.
func pageRows(glyphs []pdf.Text) []string {
	glyphs = slices.DeleteFunc(slices.Clone(glyphs), func(t pdf.Text) bool {
		return strings.TrimFunc(t.S, unicode.IsControl) == ""
	})
	// Glyphs of a font without /Widths share a position; stable sorts keep
	// them in stream order.
	slices.SortStableFunc(glyphs, func(a, b pdf.Text) int { return cmp.Compare(b.Y, a.Y) })

	var rows []string
	for start := 0; start < len(glyphs); {
		end := start + 1
		for end < len(glyphs) && glyphs[start].Y-glyphs[end].Y <= rowTolerance {
			end++
		}
		if row := joinRow(glyphs[start:end]); row != "" {
			rows = append(rows, row)
		}
		start = end
	}
	return rows
}

func joinRow(glyphs []pdf.Text) string {
	slices.SortStableFunc(glyphs, func(a, b pdf.Text) int { return cmp.Compare(a.X, b.X) })

	var sb strings.Builder
	end := glyphs[0].X
	for _, t := range glyphs {
		if t.X-end > t.FontSize*wordGap {
			sb.WriteByte(' ')
		}
		sb.WriteString(t.S)
		end = max(end, t.X+t.W)
	}
	return strings.Join(strings.Fields(sb.String()), " ")
}
