package importer

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"

	"github.com/banklens/banklens/internal/model"
)

// LineParser reads one transaction per text line laid out as
// "<date> <description...> <amount>". Lines that do not fit are skipped.
type LineParser struct {
	categorizer Categorizer
}

const minLineTokens = 3

// amountCleaner strips thousands separators and the Naira sign.
var amountCleaner = strings.NewReplacer(",", "", "₦", "")

// NewLineParser creates a LineParser that labels records with c.
func NewLineParser(c Categorizer) *LineParser {
	return &LineParser{categorizer: c}
}

// Format returns the parser name.
func (p *LineParser) Format() string { return "lines" }

// Parse returns the records found in text in line order. A nil result
// means no line qualified.
func (p *LineParser) Parse(text string) []model.Transaction {
	var txns []model.Transaction
	for _, line := range splitLines(text) {
		txn, ok := p.parseLine(line)
		if !ok {
			continue
		}
		txns = append(txns, txn)
	}
	return txns
}

func (p *LineParser) parseLine(line string) (model.Transaction, bool) {
	if !strings.ContainsFunc(line, unicode.IsDigit) {
		return model.Transaction{}, false
	}

	tokens := strings.Fields(line)
	if len(tokens) < minLineTokens {
		return model.Transaction{}, false
	}

	amount, ok := parseAmount(tokens[len(tokens)-1])
	if !ok {
		return model.Transaction{}, false
	}

	desc := strings.Join(tokens[1:len(tokens)-1], " ")
	return model.Transaction{
		Date:        tokens[0],
		Description: desc,
		Amount:      amount,
		Category:    p.categorizer.Categorize(desc),
	}, true
}

// parseAmount accepts an optionally signed decimal, with optional exponent,
// once commas and "₦" are removed. Digits may come from any script and
// single underscores may group them, as in "1_000".
func parseAmount(raw string) (decimal.Decimal, bool) {
	s, ok := asciiDigits(amountCleaner.Replace(raw))
	if !ok {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

// asciiDigits rewrites Unicode decimal digits as ASCII and drops each
// underscore that sits between two digits. Any other underscore fails.
func asciiDigits(s string) (string, bool) {
	runes := []rune(s)
	var sb strings.Builder
	for i, r := range runes {
		if r == '_' {
			if i == 0 || i == len(runes)-1 || !unicode.IsDigit(runes[i-1]) || !unicode.IsDigit(runes[i+1]) {
				return "", false
			}
			continue
		}
		if v, ok := digitValue(r); ok {
			sb.WriteByte(byte('0' + v))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String(), true
}

// digitValue relies on every Nd range starting at a zero and running in
// blocks of ten.
func digitValue(r rune) (int, bool) {
	for _, rg := range unicode.Nd.R16 {
		if lo := rune(rg.Lo); r >= lo && r <= rune(rg.Hi) {
			return int(r-lo) % 10, true
		}
	}
	for _, rg := range unicode.Nd.R32 {
		if lo := rune(rg.Lo); r >= lo && r <= rune(rg.Hi) {
			return int(r-lo) % 10, true
		}
	}
	return 0, false
}

func splitLines(text string) []string {
	return strings.FieldsFunc(text, isLineBreak)
}

func isLineBreak(r rune) bool {
	switch r {
	case '\n', '\r', '\v', '\f', '\x1c', '\x1d', '\x1e', '\u0085', '\u2028', '\u2029':
		return true
	}
	return false
}
