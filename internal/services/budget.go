package services

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/GregMSThompson/expense-backend/internal/dto"
	"github.com/GregMSThompson/expense-backend/internal/errs"
	"github.com/GregMSThompson/expense-backend/internal/models"
	"github.com/GregMSThompson/expense-backend/internal/report"
	"github.com/GregMSThompson/expense-backend/pkg/logger"
)

type budgetSource interface {
	ListForMonth(ctx context.Context, uid string, year, month int) ([]models.Budget, error)
	Upsert(ctx context.Context, uid string, b *models.Budget) (*models.Budget, error)
	Delete(ctx context.Context, uid, budgetID string) error
}

type budgetService struct {
	budgets  budgetSource
	txs      transactionSource
	loc      *time.Location
	clockNow func() time.Time
}

func NewBudgetService(budgets budgetSource, txs transactionSource, loc *time.Location) *budgetService {
	return &budgetService{
		budgets:  budgets,
		txs:      txs,
		loc:      orLocal(loc),
		clockNow: time.Now,
	}
}

func (s *budgetService) now() time.Time {
	return s.clockNow().In(s.loc)
}

func (s *budgetService) ListStatuses(ctx context.Context, uid string, year, month *int) ([]dto.BudgetStatus, error) {
	y, m, err := resolveMonth(year, month, s.now())
	if err != nil {
		return nil, err
	}

	budgets, err := s.budgets.ListForMonth(ctx, uid, y, m)
	if err != nil {
		return nil, err
	}
	if len(budgets) == 0 {
		return []dto.BudgetStatus{}, nil
	}

	txs, err := monthTransactions(ctx, s.txs, uid, y, m, s.loc)
	if err != nil {
		return nil, err
	}
	return report.ComputeBudgetStatuses(budgets, txs, y, m, s.loc), nil
}

// UpsertBudget creates or fully replaces the budget for (category, year, month).
func (s *budgetService) UpsertBudget(ctx context.Context, uid string, req dto.UpsertBudgetRequest) (*models.Budget, error) {
	categoryID := strings.TrimSpace(req.CategoryID)
	categoryName := strings.TrimSpace(req.CategoryName)
	if categoryID == "" || categoryName == "" {
		return nil, errs.NewValidationError("categoryId and categoryName are required")
	}
	if strings.Contains(categoryID, "/") {
		return nil, errs.NewValidationError("categoryId must not contain '/'")
	}
	if req.Amount == nil || math.IsNaN(*req.Amount) || math.IsInf(*req.Amount, 0) || *req.Amount <= 0 {
		return nil, errs.NewValidationError("amount must be greater than 0")
	}

	now := s.now()
	year, month, err := resolveMonth(req.Year, req.Month, now)
	if err != nil {
		return nil, err
	}

	stored, err := s.budgets.Upsert(ctx, uid, &models.Budget{
		CategoryID:   categoryID,
		CategoryName: categoryName,
		Amount:       *req.Amount,
		Year:         year,
		Month:        month,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info("budget saved", "budget_id", stored.BudgetID, "amount", stored.Amount)
	return stored, nil
}

func (s *budgetService) DeleteBudget(ctx context.Context, uid, budgetID string) error {
	if err := s.budgets.Delete(ctx, uid, budgetID); err != nil {
		return err
	}
	logger.FromContext(ctx).Info("budget deleted", "budget_id", budgetID)
	return nil
}

// Alerts evaluates the current month's budgets at the service clock.
func (s *budgetService) Alerts(ctx context.Context, uid string) ([]dto.BudgetAlert, error) {
	now := s.now()
	y, m := now.Year(), int(now.Month())

	budgets, err := s.budgets.ListForMonth(ctx, uid, y, m)
	if err != nil {
		return nil, err
	}
	if len(budgets) == 0 {
		return []dto.BudgetAlert{}, nil
	}

	txs, err := monthTransactions(ctx, s.txs, uid, y, m, s.loc)
	if err != nil {
		return nil, err
	}

	alerts := report.ComputeBudgetAlerts(budgets, txs, now)
	if len(alerts) > 0 {
		logger.FromContext(ctx).Debug("budget alerts raised", "count", len(alerts))
	}
	return alerts, nil
}
