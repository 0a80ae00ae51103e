package report

import (
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/GregMSThompson/expense-backend/internal/dto"
	"github.com/GregMSThompson/expense-backend/internal/models"
)

// Uncategorized labels expenses whose category name is empty.
const Uncategorized = "Uncategorized"

var hundred = decimal.NewFromInt(100)

// ComputeMonthlyReport totals income and expense for one calendar month and
// breaks expenses down by category name. Transactions outside the month are
// skipped. It never fails: unusable amounts count as zero.
func ComputeMonthlyReport(txs []models.Transaction, year, month int, loc *time.Location) dto.MonthlyReport {
	start, end := MonthWindow(year, month, loc)

	income := decimal.Zero
	expense := decimal.Zero
	totals := make(map[string]decimal.Decimal)

	for _, tx := range txs {
		if !InWindow(tx.Date, start, end) {
			continue
		}
		amount := amountOf(tx.Amount)
		switch tx.Type {
		case models.TransactionIncome:
			income = income.Add(amount)
		case models.TransactionExpense:
			expense = expense.Add(amount)
			name := categoryLabel(tx.CategoryName)
			totals[name] = totals[name].Add(amount)
		}
	}

	breakdown := sortedBreakdown(totals, expense)
	rep := dto.MonthlyReport{
		Year:           year,
		Month:          month,
		TotalIncome:    income,
		TotalExpense:   expense,
		NetSavings:     income.Sub(expense),
		CategoryTotals: totals,
		Breakdown:      breakdown,
	}
	if len(breakdown) > 0 {
		top := breakdown[0]
		rep.HighestSpendingCategory = &top
	}
	return rep
}

// sortedBreakdown orders categories by amount, largest first; ties go by name.
func sortedBreakdown(totals map[string]decimal.Decimal, expense decimal.Decimal) []dto.CategoryTotal {
	out := make([]dto.CategoryTotal, 0, len(totals))
	for name, amount := range totals {
		item := dto.CategoryTotal{CategoryName: name, Amount: amount, Percent: decimal.Zero}
		if expense.IsPositive() {
			item.Percent = amount.Mul(hundred).Div(expense).Round(2)
		}
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Amount.Cmp(out[j].Amount); c != 0 {
			return c > 0
		}
		return out[i].CategoryName < out[j].CategoryName
	})
	return out
}

func categoryLabel(name string) string {
	if name == "" {
		return Uncategorized
	}
	return name
}

// amountOf converts a stored amount, mapping NaN and infinities to zero.
func amountOf(v float64) decimal.Decimal {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(v)
}
