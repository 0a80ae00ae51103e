package services

import (
	"context"

	"github.com/GregMSThompson/expense-backend/internal/models"
	"github.com/GregMSThompson/expense-backend/pkg/logger"
)

type linkedBankStore interface {
	List(ctx context.Context, uid string) ([]*models.Bank, error)
	Delete(ctx context.Context, uid, bankID string) error
}

type bankLedgerStore interface {
	DeleteByBank(ctx context.Context, uid, bankID string) error
	DeleteCursor(ctx context.Context, uid, bankID string) error
}

type bankService struct {
	banks linkedBankStore
	txs   bankLedgerStore
}

func NewBankService(banks linkedBankStore, txs bankLedgerStore) *bankService {
	return &bankService{banks: banks, txs: txs}
}

func (s *bankService) ListBanks(ctx context.Context, uid string) ([]*models.Bank, error) {
	banks, err := s.banks.List(ctx, uid)
	if err != nil {
		return nil, err
	}
	if banks == nil {
		banks = []*models.Bank{}
	}
	return banks, nil
}

// DeleteBank unlinks a bank along with its imported transactions and sync
// cursor. The bank document goes last so a failed run can be retried.
func (s *bankService) DeleteBank(ctx context.Context, uid, bankID string) error {
	log := logger.FromContext(ctx).With("bank_id", bankID)

	steps := []struct {
		name string
		run  func(context.Context, string, string) error
	}{
		{"transactions", s.txs.DeleteByBank},
		{"cursor", s.txs.DeleteCursor},
		{"bank", s.banks.Delete},
	}
	for _, step := range steps {
		if err := step.run(ctx, uid, bankID); err != nil {
			log.Warn("bank removal stopped", "step", step.name, "error", err)
			return err
		}
	}

	log.Info("bank deleted")
	return nil
}
