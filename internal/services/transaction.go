package services

import (
	"context"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/GregMSThompson/expense-backend/internal/dto"
	"github.com/GregMSThompson/expense-backend/internal/errs"
	"github.com/GregMSThompson/expense-backend/internal/models"
	"github.com/GregMSThompson/expense-backend/internal/report"
	"github.com/GregMSThompson/expense-backend/pkg/helpers"
	"github.com/GregMSThompson/expense-backend/pkg/logger"
)

const (
	minAmount    = 0.01
	maxListLimit = 1000
)

// transactionSource is the read side shared by every service that aggregates.
type transactionSource interface {
	Query(ctx context.Context, uid string, q dto.TransactionQuery, handle func(*models.Transaction) error) error
}

type transactionTSStore interface {
	transactionSource
	Create(ctx context.Context, uid string, tx *models.Transaction) error
	Get(ctx context.Context, uid, transactionID string) (*models.Transaction, error)
	Update(ctx context.Context, uid string, tx *models.Transaction) error
	Delete(ctx context.Context, uid, transactionID string) error
}

type transactionService struct {
	store    transactionTSStore
	loc      *time.Location
	clockNow func() time.Time
	newID    func() string
}

func NewTransactionService(store transactionTSStore, loc *time.Location) *transactionService {
	return &transactionService{
		store:    store,
		loc:      orLocal(loc),
		clockNow: time.Now,
		newID:    uuid.NewString,
	}
}

func (s *transactionService) CreateTransaction(ctx context.Context, uid string, req dto.CreateTransactionRequest) (*models.Transaction, error) {
	typ := models.TransactionType(strings.TrimSpace(req.Type))
	if !typ.Valid() {
		return nil, errs.NewValidationError("type must be income or expense")
	}
	if err := validateAmount(req.Amount); err != nil {
		return nil, err
	}

	categoryID := strings.TrimSpace(req.CategoryID)
	categoryName := strings.TrimSpace(req.CategoryName)
	if categoryID == "" || categoryName == "" {
		return nil, errs.NewValidationError("categoryId and categoryName are required")
	}

	now := s.clockNow()
	date := now
	if strings.TrimSpace(req.Date) != "" {
		parsed, err := report.ParseDate(req.Date, s.loc)
		if err != nil {
			return nil, err
		}
		date = parsed
	}

	tx := &models.Transaction{
		TransactionID: s.newID(),
		UserID:        uid,
		Type:          typ,
		Amount:        *req.Amount,
		CategoryID:    categoryID,
		CategoryName:  categoryName,
		Note:          strings.TrimSpace(req.Note),
		Date:          date,
		PaymentMethod: strings.TrimSpace(req.PaymentMethod),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.store.Create(ctx, uid, tx); err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info("transaction created", "transaction_id", tx.TransactionID, "type", tx.Type)
	return tx, nil
}

// UpdateTransaction applies the non-nil fields of req. Empty category fields
// are ignored; note and payment method may be cleared.
func (s *transactionService) UpdateTransaction(ctx context.Context, uid, transactionID string, req dto.UpdateTransactionRequest) (*models.Transaction, error) {
	tx, err := s.store.Get(ctx, uid, transactionID)
	if err != nil {
		return nil, err
	}

	if req.Amount != nil {
		if err := validateAmount(req.Amount); err != nil {
			return nil, err
		}
		tx.Amount = *req.Amount
	}
	if v := helpers.Trimmed(req.CategoryID); v != "" {
		tx.CategoryID = v
	}
	if v := helpers.Trimmed(req.CategoryName); v != "" {
		tx.CategoryName = v
	}
	if req.Note != nil {
		tx.Note = strings.TrimSpace(*req.Note)
	}
	if req.PaymentMethod != nil {
		tx.PaymentMethod = strings.TrimSpace(*req.PaymentMethod)
	}
	if helpers.Trimmed(req.Date) != "" {
		date, err := report.ParseDate(*req.Date, s.loc)
		if err != nil {
			return nil, err
		}
		tx.Date = date
	}
	tx.UpdatedAt = s.clockNow()

	if err := s.store.Update(ctx, uid, tx); err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info("transaction updated", "transaction_id", transactionID)
	return tx, nil
}

func (s *transactionService) DeleteTransaction(ctx context.Context, uid, transactionID string) error {
	if err := s.store.Delete(ctx, uid, transactionID); err != nil {
		return err
	}
	logger.FromContext(ctx).Info("transaction deleted", "transaction_id", transactionID)
	return nil
}

func (s *transactionService) ListTransactions(ctx context.Context, uid string, filter dto.TransactionFilter) ([]models.Transaction, error) {
	q, err := ParseTransactionFilter(filter, s.loc)
	if err != nil {
		return nil, err
	}
	return collectTransactions(ctx, s.store, uid, q)
}

// ExportCSV renders the filtered transactions, newest first.
func (s *transactionService) ExportCSV(ctx context.Context, uid string, filter dto.TransactionFilter) (string, error) {
	txs, err := s.ListTransactions(ctx, uid, filter)
	if err != nil {
		return "", err
	}
	logger.FromContext(ctx).Info("transactions exported", "count", len(txs))
	return report.ToCSV(txs, s.loc), nil
}

// ParseTransactionFilter converts query-string values into a store query.
// A date-only endDate covers that whole day.
func ParseTransactionFilter(f dto.TransactionFilter, loc *time.Location) (dto.TransactionQuery, error) {
	var q dto.TransactionQuery

	if v := strings.TrimSpace(f.Type); v != "" {
		typ := models.TransactionType(v)
		if !typ.Valid() {
			return q, errs.NewValidationError("type must be income or expense")
		}
		q.Type = &typ
	}
	if v := strings.TrimSpace(f.CategoryID); v != "" {
		q.CategoryID = &v
	}
	if v := strings.TrimSpace(f.StartDate); v != "" {
		from, err := report.ParseDate(v, loc)
		if err != nil {
			return q, err
		}
		q.DateFrom = &from
	}
	if v := strings.TrimSpace(f.EndDate); v != "" {
		to, err := report.ParseDate(v, loc)
		if err != nil {
			return q, err
		}
		if !strings.Contains(v, "T") {
			to = time.Date(to.Year(), to.Month(), to.Day(), 23, 59, 59, 0, to.Location())
		}
		q.DateTo = &to
	}
	if v := strings.TrimSpace(f.Limit); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return q, errs.NewValidationError("limit must be a positive integer")
		}
		q.Limit = min(n, maxListLimit)
	}
	return q, nil
}

func collectTransactions(ctx context.Context, src transactionSource, uid string, q dto.TransactionQuery) ([]models.Transaction, error) {
	txs := []models.Transaction{}
	err := src.Query(ctx, uid, q, func(tx *models.Transaction) error {
		txs = append(txs, *tx)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return txs, nil
}

func validateAmount(amount *float64) error {
	if amount == nil || math.IsNaN(*amount) || math.IsInf(*amount, 0) || *amount < minAmount {
		return errs.NewValidationError("amount must be at least 0.01")
	}
	return nil
}
