package store

import (
	"context"
	"sort"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"github.com/GregMSThompson/expense-backend/internal/errs"
	"github.com/GregMSThompson/expense-backend/internal/models"
)

type budgetStore struct {
	client *firestore.Client
}

func NewBudgetStore(client *firestore.Client) *budgetStore {
	return &budgetStore{client: client}
}

func (s *budgetStore) collection(uid string) *firestore.CollectionRef {
	return userDoc(s.client, uid).Collection("budgets")
}

// ListForMonth returns the user's budgets for one month ordered by category name.
func (s *budgetStore) ListForMonth(ctx context.Context, uid string, year, month int) ([]models.Budget, error) {
	iter := s.collection(uid).
		Where("year", "==", year).
		Where("month", "==", month).
		Documents(ctx)
	defer iter.Stop()

	var out []models.Budget
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errs.NewDatabaseError("query", "failed to list budgets", err)
		}
		var b models.Budget
		if err := doc.DataTo(&b); err != nil {
			return nil, errs.NewDatabaseError("read", "failed to parse budget data", err)
		}
		if b.BudgetID == "" {
			b.BudgetID = doc.Ref.ID
		}
		out = append(out, b)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].CategoryName < out[j].CategoryName })
	return out, nil
}

// Upsert writes the budget under its (year, month, category) key. An existing
// document keeps its createdAt.
func (s *budgetStore) Upsert(ctx context.Context, uid string, b *models.Budget) (*models.Budget, error) {
	b.UserID = uid
	b.BudgetID = models.BudgetKey(b.Year, b.Month, b.CategoryID)
	ref := s.collection(uid).Doc(b.BudgetID)

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(ref)
		if err != nil && !isNotFound(err) {
			return err
		}
		if err == nil {
			var existing models.Budget
			if err := doc.DataTo(&existing); err == nil && !existing.CreatedAt.IsZero() {
				b.CreatedAt = existing.CreatedAt
			}
		}
		return tx.Set(ref, b)
	})
	if err != nil {
		return nil, dbError("update", "budget", err)
	}
	return b, nil
}

func (s *budgetStore) Delete(ctx context.Context, uid, budgetID string) error {
	if _, err := s.collection(uid).Doc(budgetID).Delete(ctx, firestore.Exists); err != nil {
		return dbError("delete", "budget", err)
	}
	return nil
}
