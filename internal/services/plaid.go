package services

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/GregMSThompson/expense-backend/internal/dto"
	"github.com/GregMSThompson/expense-backend/internal/errs"
	"github.com/GregMSThompson/expense-backend/internal/models"
	"github.com/GregMSThompson/expense-backend/pkg/logger"
)

type plaidBankStore interface {
	Create(ctx context.Context, uid string, bank *models.Bank) error
	List(ctx context.Context, uid string) ([]*models.Bank, error)
}

type plaidLedgerStore interface {
	UpsertBatch(ctx context.Context, uid string, txs []models.Transaction) error
	DeleteByIDs(ctx context.Context, uid string, ids []string) error
	GetCursor(ctx context.Context, uid, bankID string) (string, error)
	SetCursor(ctx context.Context, uid, bankID, cursor string) error
}

type plaidClient interface {
	CreateLinkToken(ctx context.Context, uid string) (linkToken string, err error)
	ExchangePublicToken(ctx context.Context, publicToken string) (itemID string, accessToken string, err error)
	SyncTransactions(ctx context.Context, bankID string, accessToken string, cursor *string) (dto.PlaidSyncPage, error)
}

type plaidService struct {
	plaid    plaidClient
	banks    plaidBankStore
	txs      plaidLedgerStore
	clockNow func() time.Time
}

func NewPlaidService(plaid plaidClient, banks plaidBankStore, txs plaidLedgerStore) *plaidService {
	return &plaidService{
		plaid:    plaid,
		banks:    banks,
		txs:      txs,
		clockNow: time.Now,
	}
}

func (s *plaidService) CreateLinkToken(ctx context.Context, uid string) (string, error) {
	linkToken, err := s.plaid.CreateLinkToken(ctx, uid)
	if err != nil {
		return "", errs.NewExternalServiceError("plaid", "failed to create link token", true, err)
	}
	return linkToken, nil
}

func (s *plaidService) ExchangePublicToken(ctx context.Context, uid, publicToken, institutionName string) (string, error) {
	if strings.TrimSpace(publicToken) == "" {
		return "", errs.NewValidationError("publicToken is required")
	}

	itemID, accessToken, err := s.plaid.ExchangePublicToken(ctx, publicToken)
	if err != nil {
		return "", errs.NewExternalServiceError("plaid", "failed to exchange public token", false, err)
	}

	now := s.clockNow()
	bank := &models.Bank{
		BankID:      itemID,
		Institution: strings.TrimSpace(institutionName),
		Status:      "active",
		AccessToken: accessToken,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.banks.Create(ctx, uid, bank); err != nil {
		return "", err
	}

	log := logger.FromContext(ctx)
	log.Info("bank linked", "bank_id", itemID, "institution", bank.Institution)
	return itemID, nil
}

// maxConcurrentSyncs bounds parallel Plaid calls when every bank is synced.
const maxConcurrentSyncs = 4

// SyncTransactions pulls every page since the stored cursor for one bank, or
// for all of the user's banks when bankID is nil.
func (s *plaidService) SyncTransactions(ctx context.Context, uid string, bankID *string) (dto.PlaidServiceSyncResult, error) {
	var result dto.PlaidServiceSyncResult
	log := logger.FromContext(ctx)

	banks, err := s.banks.List(ctx, uid)
	if err != nil {
		return result, err
	}
	if bankID != nil {
		i := slices.IndexFunc(banks, func(b *models.Bank) bool { return b.BankID == *bankID })
		if i < 0 {
			return result, errs.NewNotFoundError("bank not found")
		}
		banks = banks[i : i+1]
	}
	log.Info("transaction sync started", "bank_count", len(banks))

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentSyncs)
	for _, b := range banks {
		g.Go(func() error {
			res, err := s.syncBank(gctx, uid, b)
			if err != nil {
				log.Warn("bank sync failed", "bank_id", b.BankID, "error", err)
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			result.BanksSynced++
			result.TransactionsUpserted += res.TransactionsUpserted
			result.TransactionsRemoved += res.TransactionsRemoved
			result.Cursor = res.Cursor
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return result, err
	}
	if bankID == nil {
		result.Cursor = ""
	}

	log.Info("transaction sync completed",
		"banks_synced", result.BanksSynced,
		"transactions_upserted", result.TransactionsUpserted,
		"transactions_removed", result.TransactionsRemoved)
	return result, nil
}

// syncBank drains Plaid's change feed for one bank and stores the final
// cursor. Cursor in the result is the one saved.
func (s *plaidService) syncBank(ctx context.Context, uid string, b *models.Bank) (dto.PlaidServiceSyncResult, error) {
	var res dto.PlaidServiceSyncResult
	if b.AccessToken == "" {
		return res, errs.NewValidationError("plaid access token missing for bank " + b.BankID)
	}

	cursor, err := s.txs.GetCursor(ctx, uid, b.BankID)
	if err != nil {
		return res, err
	}

	for more := true; more; {
		var from *string
		if cursor != "" {
			from = &cursor
		}
		page, err := s.plaid.SyncTransactions(ctx, b.BankID, b.AccessToken, from)
		if err != nil {
			return res, errs.NewExternalServiceError("plaid", "transaction sync failed", true, err)
		}

		if len(page.Transactions) > 0 {
			if err := s.txs.UpsertBatch(ctx, uid, page.Transactions); err != nil {
				return res, err
			}
			res.TransactionsUpserted += len(page.Transactions)
		}
		if len(page.RemovedIDs) > 0 {
			if err := s.txs.DeleteByIDs(ctx, uid, page.RemovedIDs); err != nil {
				return res, err
			}
			res.TransactionsRemoved += len(page.RemovedIDs)
		}

		if page.Cursor != "" {
			cursor = page.Cursor
		}
		more = page.HasMore
	}

	if cursor != "" {
		if err := s.txs.SetCursor(ctx, uid, b.BankID, cursor); err != nil {
			return res, err
		}
	}
	res.Cursor = cursor
	return res, nil
}
