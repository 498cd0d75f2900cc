package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/Rhymond/go-money"
	"github.com/fatih/color"
	"github.com/shopspring/decimal"

	"github.com/banklens/banklens/internal/model"
)

// ChartTitle heads the category bar chart.
const ChartTitle = "Total Spending by Category"

// DefaultChartWidth is the widest bar drawn by RenderChart.
const DefaultChartWidth = 40

const currencyCode = "NGN"

var palette = []color.Attribute{
	color.FgCyan,
	color.FgGreen,
	color.FgYellow,
	color.FgMagenta,
	color.FgBlue,
	color.FgRed,
}

// FormatAmount renders d as Naira, e.g. "₦1,200.50".
func FormatAmount(d decimal.Decimal) string {
	minor := d.Shift(2).Round(0)
	if minor.BigInt().IsInt64() {
		return money.New(minor.IntPart(), currencyCode).Display()
	}
	return formatMinor(minor)
}

// formatMinor lays out minor units too large for go-money with the
// currency's own separators and template.
func formatMinor(minor decimal.Decimal) string {
	c := money.GetCurrency(currencyCode)
	digits := minor.Abs().BigInt().String()
	for i := len(digits) - c.Fraction - 3; i > 0; i -= 3 {
		digits = digits[:i] + c.Thousand + digits[i:]
	}
	digits = digits[:len(digits)-c.Fraction] + c.Decimal + digits[len(digits)-c.Fraction:]

	s := strings.Replace(c.Template, "1", digits, 1)
	s = strings.Replace(s, "$", c.Grapheme, 1)
	if minor.IsNegative() {
		s = "-" + s
	}
	return s
}

// RenderTable writes txns as an aligned table.
func RenderTable(w io.Writer, txns []model.Transaction) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(model.Columns, "\t"))
	for _, t := range txns {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", t.Date, t.Description, FormatAmount(t.Amount), t.Category)
	}
	return tw.Flush()
}

// RenderChart draws one horizontal bar per category, scaled so the largest
// absolute total spans width cells.
func RenderChart(w io.Writer, totals []CategoryTotal, width int) error {
	if width <= 0 {
		width = DefaultChartWidth
	}
	if _, err := fmt.Fprintln(w, ChartTitle); err != nil {
		return err
	}
	if len(totals) == 0 {
		return nil
	}

	labelWidth := 0
	maxAbs := decimal.Zero
	for _, ct := range totals {
		labelWidth = max(labelWidth, len(ct.Category))
		if abs := ct.Total.Abs(); abs.GreaterThan(maxAbs) {
			maxAbs = abs
		}
	}

	for i, ct := range totals {
		cells := 0
		if maxAbs.IsPositive() {
			cells = int(ct.Total.Abs().Mul(decimal.NewFromInt(int64(width))).Div(maxAbs).Round(0).IntPart())
		}
		if cells == 0 && !ct.Total.IsZero() {
			cells = 1
		}
		bar := color.New(palette[i%len(palette)]).Sprint(strings.Repeat("█", cells))
		if _, err := fmt.Fprintf(w, "%-*s │%s %s\n", labelWidth, ct.Category, bar, FormatAmount(ct.Total)); err != nil {
			return err
		}
	}
	return nil
}
