package store

import (
	"context"

	"cloud.google.com/go/firestore"

	"github.com/GregMSThompson/expense-backend/internal/errs"
	"github.com/GregMSThompson/expense-backend/internal/models"
)

type resetStore struct {
	client *firestore.Client
}

func NewResetStore(client *firestore.Client) *resetStore {
	return &resetStore{client: client}
}

func (s *resetStore) collection() *firestore.CollectionRef {
	return s.client.Collection("password_resets")
}

func (s *resetStore) Save(ctx context.Context, tokenHash string, reset models.PasswordReset) error {
	if _, err := s.collection().Doc(tokenHash).Set(ctx, reset); err != nil {
		return dbError("create", "password reset", err)
	}
	return nil
}

// Consume reads and deletes the reset in one transaction; a token works once.
func (s *resetStore) Consume(ctx context.Context, tokenHash string) (*models.PasswordReset, error) {
	var reset models.PasswordReset
	ref := s.collection().Doc(tokenHash)

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(ref)
		if err != nil {
			return err
		}
		if err := doc.DataTo(&reset); err != nil {
			return errs.NewDatabaseError("read", "failed to parse password reset", err)
		}
		return tx.Delete(ref)
	})
	if err != nil {
		return nil, dbError("read", "password reset", err)
	}
	return &reset, nil
}
