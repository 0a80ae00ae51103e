package report

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/GregMSThompson/expense-backend/internal/dto"
	"github.com/GregMSThompson/expense-backend/internal/models"
)

// Percent-used thresholds for budget classification.
var (
	WarningPercent  = decimal.NewFromInt(80)
	ExceededPercent = decimal.NewFromInt(100)
)

type budgetUsage struct {
	budget models.Budget
	amount decimal.Decimal
	spent  decimal.Decimal
	pct    decimal.Decimal // unclamped
}

// ComputeBudgetStatuses reports spend against each budget of the given month.
// PercentUsed is capped at 100 for display; Status uses the real ratio.
func ComputeBudgetStatuses(budgets []models.Budget, txs []models.Transaction, year, month int, loc *time.Location) []dto.BudgetStatus {
	usages := evaluate(budgets, txs, year, month, loc)

	out := make([]dto.BudgetStatus, 0, len(usages))
	for _, u := range usages {
		out = append(out, dto.BudgetStatus{
			BudgetID:     u.budget.BudgetID,
			CategoryID:   u.budget.CategoryID,
			CategoryName: u.budget.CategoryName,
			Year:         u.budget.Year,
			Month:        u.budget.Month,
			Amount:       u.amount,
			Spent:        u.spent,
			Remaining:    decimal.Max(decimal.Zero, u.amount.Sub(u.spent)),
			PercentUsed:  decimal.Min(u.pct, hundred),
			Status:       classify(u.pct),
		})
	}
	return out
}

// ComputeBudgetAlerts evaluates the budgets of the month containing now, in
// now's location, and returns one alert per budget at or above the warning
// threshold. PercentUsed is not capped.
func ComputeBudgetAlerts(budgets []models.Budget, txs []models.Transaction, now time.Time) []dto.BudgetAlert {
	usages := evaluate(budgets, txs, now.Year(), int(now.Month()), now.Location())

	alerts := make([]dto.BudgetAlert, 0)
	for _, u := range usages {
		status := classify(u.pct)
		if status == dto.BudgetOK {
			continue
		}
		alerts = append(alerts, dto.BudgetAlert{
			Type:         status,
			CategoryName: u.budget.CategoryName,
			Budget:       u.amount,
			Spent:        u.spent,
			PercentUsed:  u.pct,
		})
	}
	return alerts
}

func evaluate(budgets []models.Budget, txs []models.Transaction, year, month int, loc *time.Location) []budgetUsage {
	start, end := MonthWindow(year, month, loc)
	spent := spentByCategory(txs, start, end)

	out := make([]budgetUsage, 0, len(budgets))
	for _, b := range budgets {
		if b.Year != year || b.Month != month {
			continue
		}
		amount := amountOf(b.Amount)
		s, ok := spent[b.CategoryID]
		if !ok {
			s = decimal.Zero
		}
		out = append(out, budgetUsage{
			budget: b,
			amount: amount,
			spent:  s,
			pct:    percentUsed(s, amount),
		})
	}
	return out
}

func spentByCategory(txs []models.Transaction, start, end time.Time) map[string]decimal.Decimal {
	spent := make(map[string]decimal.Decimal)
	for _, tx := range txs {
		if tx.Type != models.TransactionExpense || !InWindow(tx.Date, start, end) {
			continue
		}
		spent[tx.CategoryID] = spent[tx.CategoryID].Add(amountOf(tx.Amount))
	}
	return spent
}

// percentUsed is zero for a non-positive cap so bad data never divides by zero.
func percentUsed(spent, amount decimal.Decimal) decimal.Decimal {
	if !amount.IsPositive() {
		return decimal.Zero
	}
	return spent.Mul(hundred).Div(amount)
}

func classify(pct decimal.Decimal) string {
	switch {
	case pct.GreaterThanOrEqual(ExceededPercent):
		return dto.BudgetExceeded
	case pct.GreaterThanOrEqual(WarningPercent):
		return dto.BudgetWarning
	default:
		return dto.BudgetOK
	}
}
