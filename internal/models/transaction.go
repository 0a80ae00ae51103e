package models

import (
	"time"
)

type TransactionType string

const (
	TransactionIncome  TransactionType = "income"
	TransactionExpense TransactionType = "expense"
)

// Valid reports whether t is one of the two known transaction types.
func (t TransactionType) Valid() bool {
	return t == TransactionIncome || t == TransactionExpense
}

type Transaction struct {
	TransactionID string          `firestore:"transactionId" json:"transactionId"` // doc ID; Plaid transaction_id for imported rows
	UserID        string          `firestore:"userId" json:"userId"`
	Type          TransactionType `firestore:"type" json:"type"`
	Amount        float64         `firestore:"amount" json:"amount"`
	CategoryID    string          `firestore:"categoryId" json:"categoryId"`
	CategoryName  string          `firestore:"categoryName" json:"categoryName"` // snapshot at write time
	Note          string          `firestore:"note" json:"note"`
	Date          time.Time       `firestore:"date" json:"date"`
	PaymentMethod string          `firestore:"paymentMethod" json:"paymentMethod"`
	BankID        string          `firestore:"bankId,omitempty" json:"bankId,omitempty"` // Plaid item_id
	CreatedAt     time.Time       `firestore:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time       `firestore:"updatedAt" json:"updatedAt"`
}
