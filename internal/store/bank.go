package store

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"github.com/GregMSThompson/expense-backend/internal/errs"
	"github.com/GregMSThompson/expense-backend/internal/models"
)

// tokenCipher seals Plaid access tokens before they reach Firestore.
type tokenCipher interface {
	Encrypt(ctx context.Context, plaintext string) (string, error)
	Decrypt(ctx context.Context, ciphertext string) (string, error)
}

type bankStore struct {
	client *firestore.Client
	cipher tokenCipher
}

func NewBankStore(client *firestore.Client, cipher tokenCipher) *bankStore {
	return &bankStore{client: client, cipher: cipher}
}

type bankDoc struct {
	BankID      string    `firestore:"bankId"`
	Institution string    `firestore:"institution"`
	Status      string    `firestore:"status"`
	AccessToken string    `firestore:"accessToken"` // KMS ciphertext, base64
	CreatedAt   time.Time `firestore:"createdAt"`
	UpdatedAt   time.Time `firestore:"updatedAt"`
}

func (s *bankStore) collection(uid string) *firestore.CollectionRef {
	return userDoc(s.client, uid).Collection("banks")
}

func (s *bankStore) Create(ctx context.Context, uid string, bank *models.Bank) error {
	now := time.Now()
	if bank.CreatedAt.IsZero() {
		bank.CreatedAt = now
	}
	bank.UpdatedAt = now

	sealed, err := s.cipher.Encrypt(ctx, bank.AccessToken)
	if err != nil {
		return err
	}

	doc := bankDoc{
		BankID:      bank.BankID,
		Institution: bank.Institution,
		Status:      bank.Status,
		AccessToken: sealed,
		CreatedAt:   bank.CreatedAt,
		UpdatedAt:   bank.UpdatedAt,
	}
	if _, err := s.collection(uid).Doc(bank.BankID).Set(ctx, doc); err != nil {
		return dbError("create", "bank", err)
	}
	return nil
}

func (s *bankStore) decode(ctx context.Context, snap *firestore.DocumentSnapshot) (*models.Bank, error) {
	var d bankDoc
	if err := snap.DataTo(&d); err != nil {
		return nil, errs.NewDatabaseError("read", "failed to parse bank data", err)
	}

	b := &models.Bank{
		BankID:      d.BankID,
		Institution: d.Institution,
		Status:      d.Status,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
	if d.AccessToken != "" {
		token, err := s.cipher.Decrypt(ctx, d.AccessToken)
		if err != nil {
			return nil, err
		}
		b.AccessToken = token
	}
	return b, nil
}

func (s *bankStore) List(ctx context.Context, uid string) ([]*models.Bank, error) {
	iter := s.collection(uid).Documents(ctx)
	defer iter.Stop()

	var banks []*models.Bank
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errs.NewDatabaseError("query", "failed to list banks", err)
		}
		b, err := s.decode(ctx, snap)
		if err != nil {
			return nil, err
		}
		banks = append(banks, b)
	}
	return banks, nil
}

func (s *bankStore) Get(ctx context.Context, uid, bankID string) (*models.Bank, error) {
	snap, err := s.collection(uid).Doc(bankID).Get(ctx)
	if err != nil {
		return nil, dbError("read", "bank", err)
	}
	return s.decode(ctx, snap)
}

func (s *bankStore) Delete(ctx context.Context, uid, bankID string) error {
	if _, err := s.collection(uid).Doc(bankID).Delete(ctx, firestore.Exists); err != nil {
		return dbError("delete", "bank", err)
	}
	return nil
}
