package models

import "time"

// Category is shared by every user. Transactions and budgets copy its name
// when they are written, so categories are never renamed or deleted.
type Category struct {
	CategoryID string          `firestore:"categoryId" json:"categoryId"`
	Name       string          `firestore:"name" json:"name"`
	Type       TransactionType `firestore:"type" json:"type"`
	CreatedAt  time.Time       `firestore:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time       `firestore:"updatedAt" json:"updatedAt"`
}
