package dto

import (
	"time"

	"github.com/GregMSThompson/expense-backend/internal/models"
)

// TransactionQuery filters a user's transactions. Nil fields are ignored.
// Date bounds are inclusive. Results are always ordered by date, newest first.
type TransactionQuery struct {
	Type       *models.TransactionType
	CategoryID *string
	BankID     *string
	DateFrom   *time.Time
	DateTo     *time.Time
	Limit      int
}

type CreateTransactionRequest struct {
	Type          string   `json:"type"`
	Amount        *float64 `json:"amount"`
	CategoryID    string   `json:"categoryId"`
	CategoryName  string   `json:"categoryName"`
	Note          string   `json:"note"`
	Date          string   `json:"date"` // YYYY-MM-DD or RFC 3339; defaults to now
	PaymentMethod string   `json:"paymentMethod"`
}

// UpdateTransactionRequest is a partial update; the type is fixed at creation.
type UpdateTransactionRequest struct {
	Amount        *float64 `json:"amount,omitempty"`
	CategoryID    *string  `json:"categoryId,omitempty"`
	CategoryName  *string  `json:"categoryName,omitempty"`
	Note          *string  `json:"note,omitempty"`
	Date          *string  `json:"date,omitempty"`
	PaymentMethod *string  `json:"paymentMethod,omitempty"`
}

// TransactionFilter is the raw query-string form of TransactionQuery.
type TransactionFilter struct {
	Type       string
	CategoryID string
	StartDate  string
	EndDate    string
	Limit      string
}
