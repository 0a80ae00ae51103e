package models

import (
	"fmt"
	"time"
)

type Budget struct {
	BudgetID     string    `firestore:"budgetId" json:"budgetId"`
	UserID       string    `firestore:"userId" json:"userId"`
	CategoryID   string    `firestore:"categoryId" json:"categoryId"`
	CategoryName string    `firestore:"categoryName" json:"categoryName"`
	Amount       float64   `firestore:"amount" json:"amount"`
	Year         int       `firestore:"year" json:"year"`
	Month        int       `firestore:"month" json:"month"` // 1-12
	CreatedAt    time.Time `firestore:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time `firestore:"updatedAt" json:"updatedAt"`
}

// BudgetKey is the document ID for a (year, month, category) budget. A user
// has at most one budget per key, so upserts address it directly.
func BudgetKey(year, month int, categoryID string) string {
	return fmt.Sprintf("%04d-%02d-%s", year, month, categoryID)
}
