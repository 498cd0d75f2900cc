// Package report derives views over a parsed transaction table: category
// filters, per-category totals and their text renderings.
package report

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/banklens/banklens/internal/model"
)

// AllCategories selects every transaction in Filter.
const AllCategories = "All"

// CategoryTotal is the summed amount of one category.
type CategoryTotal struct {
	Category string          `json:"category"`
	Total    decimal.Decimal `json:"total"`
	Count    int             `json:"count"`
}

// Categories returns the distinct categories in txns, sorted.
func Categories(txns []model.Transaction) []string {
	seen := make(map[string]bool)
	var cats []string
	for _, t := range txns {
		if seen[t.Category] {
			continue
		}
		seen[t.Category] = true
		cats = append(cats, t.Category)
	}
	sort.Strings(cats)
	return cats
}

// Choices returns the filter options offered to a user: AllCategories
// followed by the sorted categories present.
func Choices(txns []model.Transaction) []string {
	return append([]string{AllCategories}, Categories(txns)...)
}

// Filter returns a new slice holding the transactions in category, in
// their original order. AllCategories or "" keeps everything.
func Filter(txns []model.Transaction, category string) []model.Transaction {
	out := make([]model.Transaction, 0, len(txns))
	for _, t := range txns {
		if category == "" || category == AllCategories || t.Category == category {
			out = append(out, t)
		}
	}
	return out
}

// Totals sums Amount per category, sorted by category name.
func Totals(txns []model.Transaction) []CategoryTotal {
	byCat := make(map[string]*CategoryTotal)
	for _, t := range txns {
		ct, ok := byCat[t.Category]
		if !ok {
			ct = &CategoryTotal{Category: t.Category}
			byCat[t.Category] = ct
		}
		ct.Total = ct.Total.Add(t.Amount)
		ct.Count++
	}

	totals := make([]CategoryTotal, 0, len(byCat))
	for _, cat := range Categories(txns) {
		totals = append(totals, *byCat[cat])
	}
	return totals
}

// Sum returns the total of every amount in txns.
func Sum(txns []model.Transaction) decimal.Decimal {
	sum := decimal.Zero
	for _, t := range txns {
		sum = sum.Add(t.Amount)
	}
	return sum
}
