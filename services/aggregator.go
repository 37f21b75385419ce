package services

import (
	"errors"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/expensedecoder/api/models"
)

// ImpulsiveDayThreshold is the number of expenses in a single day above which
// spending is flagged as potentially impulsive.
const ImpulsiveDayThreshold = 5

// ErrNoExpenses is returned by Aggregate for an empty history.
var ErrNoExpenses = errors.New("no expenses to aggregate")

var hundred = decimal.NewFromInt(100)

// ============================================================================
// SPENDING SUMMARY
// ============================================================================

type SpendingSummary struct {
	Count               int
	CategoryTotals      map[string]decimal.Decimal
	TotalSpent          decimal.Decimal
	AverageExpense      decimal.Decimal
	ExpensesPerDay      map[string]int
	MaxExpensesInOneDay int
}

// HasImpulsiveDay reports whether any single day exceeded the threshold.
func (s *SpendingSummary) HasImpulsiveDay() bool {
	return s.MaxExpensesInOneDay > ImpulsiveDayThreshold
}

// Aggregate reduces an expense history to the figures sent to the model.
func Aggregate(expenses []models.Expense) (*SpendingSummary, error) {
	if len(expenses) == 0 {
		return nil, ErrNoExpenses
	}

	summary := &SpendingSummary{
		Count:          len(expenses),
		CategoryTotals: CategoryTotals(expenses),
		ExpensesPerDay: make(map[string]int),
	}

	for _, total := range summary.CategoryTotals {
		summary.TotalSpent = summary.TotalSpent.Add(total)
	}
	summary.AverageExpense = summary.TotalSpent.Div(decimal.NewFromInt(int64(summary.Count)))

	for _, e := range expenses {
		day := e.Date.String()
		summary.ExpensesPerDay[day]++
		if summary.ExpensesPerDay[day] > summary.MaxExpensesInOneDay {
			summary.MaxExpensesInOneDay = summary.ExpensesPerDay[day]
		}
	}

	return summary, nil
}

// CategoryTotals sums amounts per category.
func CategoryTotals(expenses []models.Expense) map[string]decimal.Decimal {
	totals := make(map[string]decimal.Decimal)
	for _, e := range expenses {
		totals[e.Category] = totals[e.Category].Add(e.Amount)
	}
	return totals
}

// Breakdown builds the chart data: one slice per category, largest first.
func Breakdown(expenses []models.Expense) models.BreakdownResponse {
	totals := CategoryTotals(expenses)

	resp := models.BreakdownResponse{
		Total:      decimal.Zero,
		Count:      len(expenses),
		Categories: make([]models.CategorySlice, 0, len(totals)),
	}
	for _, v := range totals {
		resp.Total = resp.Total.Add(v)
	}

	for name, value := range totals {
		share := decimal.Zero
		if resp.Total.IsPositive() {
			share = value.Mul(hundred).Div(resp.Total).Round(2)
		}
		resp.Categories = append(resp.Categories, models.CategorySlice{
			Name:  name,
			Value: value,
			Share: share,
		})
	}

	sort.Slice(resp.Categories, func(i, j int) bool {
		a, b := resp.Categories[i], resp.Categories[j]
		if cmp := a.Value.Cmp(b.Value); cmp != 0 {
			return cmp > 0
		}
		return a.Name < b.Name
	})

	return resp
}
