package model

import (
	"github.com/shopspring/decimal"
)

// Transaction represents one statement line that survived parsing.
type Transaction struct {
	Date        string          `json:"date"` // first token of the line, never validated
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"` // negative when the statement prints a sign
	Category    string          `json:"category"`
}

// Columns is the column order used by every tabular consumer.
var Columns = []string{"Date", "Description", "Amount", "Category"}

// Values returns the record's fields in Columns order.
// Amount is reported as a float so remote sheets treat it as a number.
func (t Transaction) Values() []any {
	return []any{t.Date, t.Description, t.Amount.InexactFloat64(), t.Category}
}
