package dto

import "github.com/shopspring/decimal"

type CategoryTotal struct {
	CategoryName string          `json:"categoryName"`
	Amount       decimal.Decimal `json:"amount"`
	Percent      decimal.Decimal `json:"percent"` // share of total expense
}

type MonthlyReport struct {
	Year                    int                        `json:"year"`
	Month                   int                        `json:"month"`
	TotalIncome             decimal.Decimal            `json:"totalIncome"`
	TotalExpense            decimal.Decimal            `json:"totalExpense"`
	NetSavings              decimal.Decimal            `json:"netSavings"`
	CategoryTotals          map[string]decimal.Decimal `json:"categoryTotals"`
	Breakdown               []CategoryTotal            `json:"breakdown"`
	HighestSpendingCategory *CategoryTotal             `json:"highestSpendingCategory"`
}

const (
	BudgetOK       = "ok"
	BudgetWarning  = "warning"
	BudgetExceeded = "exceeded"
)

type BudgetStatus struct {
	BudgetID     string          `json:"budgetId"`
	CategoryID   string          `json:"categoryId"`
	CategoryName string          `json:"categoryName"`
	Year         int             `json:"year"`
	Month        int             `json:"month"`
	Amount       decimal.Decimal `json:"amount"`
	Spent        decimal.Decimal `json:"spent"`
	Remaining    decimal.Decimal `json:"remaining"`
	PercentUsed  decimal.Decimal `json:"percentUsed"` // capped at 100 for display
	Status       string          `json:"status"`
}

type BudgetAlert struct {
	Type         string          `json:"type"` // BudgetWarning or BudgetExceeded
	CategoryName string          `json:"categoryName"`
	Budget       decimal.Decimal `json:"budget"`
	Spent        decimal.Decimal `json:"spent"`
	PercentUsed  decimal.Decimal `json:"percentUsed"` // not capped
}
