package handlers

import (
	"log/slog"

	"github.com/GregMSThompson/expense-backend/internal/response"
)

type Deps struct {
	Log             *slog.Logger
	ResponseHandler response.ResponseHandler
	AuthSvc         authService
	UserSvc         UserService
	CategorySvc     categoryService
	TransactionSvc  transactionService
	ReportSvc       reportService
	BudgetSvc       budgetService
	PlaidSvc        plaidService
	BankSvc         bankService
	AISvc           aiService
}
