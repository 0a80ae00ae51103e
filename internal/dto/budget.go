package dto

type UpsertBudgetRequest struct {
	CategoryID   string   `json:"categoryId"`
	CategoryName string   `json:"categoryName"`
	Amount       *float64 `json:"amount"`
	Year         *int     `json:"year,omitempty"`
	Month        *int     `json:"month,omitempty"`
}
