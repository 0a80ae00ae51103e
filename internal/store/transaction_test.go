package store

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"cloud.google.com/go/firestore"

	"github.com/GregMSThompson/expense-backend/internal/dto"
	"github.com/GregMSThompson/expense-backend/internal/errs"
	"github.com/GregMSThompson/expense-backend/internal/models"
)

func emulatorClient(t *testing.T) *firestore.Client {
	t.Helper()
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}

	client, err := firestore.NewClient(context.Background(), "test-project")
	if err != nil {
		t.Fatalf("firestore client error: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestTransactionQueryWithEmulator(t *testing.T) {
	client := emulatorClient(t)
	ctx := context.Background()

	store := NewTransactionStore(client)
	uid := "query-user"

	now := time.Date(2025, time.January, 15, 10, 0, 0, 0, time.UTC)
	txs := []models.Transaction{
		{TransactionID: "t1", Type: models.TransactionExpense, Amount: 3, CategoryID: "food", CategoryName: "Food", Date: time.Date(2025, time.January, 10, 0, 0, 0, 0, time.UTC), CreatedAt: now, UpdatedAt: now},
		{TransactionID: "t2", Type: models.TransactionExpense, Amount: 12, CategoryID: "food", CategoryName: "Food", Date: time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC), CreatedAt: now, UpdatedAt: now},
		{TransactionID: "t3", Type: models.TransactionIncome, Amount: 500, CategoryID: "salary", CategoryName: "Salary", Date: time.Date(2025, time.January, 18, 0, 0, 0, 0, time.UTC), CreatedAt: now, UpdatedAt: now},
	}
	for i := range txs {
		if err := store.Create(ctx, uid, &txs[i]); err != nil {
			t.Fatalf("seed transaction error: %v", err)
		}
	}

	expense := models.TransactionExpense
	from := time.Date(2025, time.January, 12, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, time.January, 20, 0, 0, 0, 0, time.UTC)

	var results []models.Transaction
	err := store.Query(ctx, uid, dto.TransactionQuery{
		Type:     &expense,
		DateFrom: &from,
		DateTo:   &to,
	}, func(tx *models.Transaction) error {
		results = append(results, *tx)
		return nil
	})
	if err != nil {
		t.Fatalf("query error: %v", err)
	}
	if len(results) != 1 || results[0].TransactionID != "t2" {
		t.Fatalf("unexpected results: %#v", results)
	}

	results = nil
	err = store.Query(ctx, uid, dto.TransactionQuery{}, func(tx *models.Transaction) error {
		results = append(results, *tx)
		return nil
	})
	if err != nil {
		t.Fatalf("query error: %v", err)
	}
	if len(results) != 3 || results[0].TransactionID != "t3" || results[2].TransactionID != "t1" {
		t.Fatalf("expected newest first, got %#v", results)
	}
}

func TestTransactionAmountCoercionWithEmulator(t *testing.T) {
	client := emulatorClient(t)
	ctx := context.Background()
	uid := "coerce-user"

	_, err := client.Collection("users").Doc(uid).Collection("transactions").Doc("bad").Set(ctx, map[string]interface{}{
		"transactionId": "bad",
		"type":          "expense",
		"amount":        "not a number",
		"date":          time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("seed error: %v", err)
	}

	tx, err := NewTransactionStore(client).Get(ctx, uid, "bad")
	if err != nil {
		t.Fatalf("get error: %v", err)
	}
	if tx.Amount != 0 {
		t.Fatalf("amount = %v, want 0", tx.Amount)
	}
}

func TestTransactionDeleteMissingWithEmulator(t *testing.T) {
	client := emulatorClient(t)

	err := NewTransactionStore(client).Delete(context.Background(), "delete-user", "missing")
	var nf *errs.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestBudgetUpsertWithEmulator(t *testing.T) {
	client := emulatorClient(t)
	ctx := context.Background()
	store := NewBudgetStore(client)
	uid := "budget-user"

	created := time.Date(2025, time.May, 1, 0, 0, 0, 0, time.UTC)
	first := &models.Budget{CategoryID: "food", CategoryName: "Food", Amount: 100, Year: 2025, Month: 5, CreatedAt: created, UpdatedAt: created}
	if _, err := store.Upsert(ctx, uid, first); err != nil {
		t.Fatalf("upsert error: %v", err)
	}

	later := created.Add(48 * time.Hour)
	second := &models.Budget{CategoryID: "food", CategoryName: "Food", Amount: 250, Year: 2025, Month: 5, CreatedAt: later, UpdatedAt: later}
	got, err := store.Upsert(ctx, uid, second)
	if err != nil {
		t.Fatalf("upsert error: %v", err)
	}
	if !got.CreatedAt.Equal(created) {
		t.Fatalf("createdAt = %v, want %v", got.CreatedAt, created)
	}

	budgets, err := store.ListForMonth(ctx, uid, 2025, 5)
	if err != nil {
		t.Fatalf("list error: %v", err)
	}
	if len(budgets) != 1 || budgets[0].Amount != 250 {
		t.Fatalf("expected a single replaced budget, got %#v", budgets)
	}
	if budgets[0].BudgetID != "2025-05-food" {
		t.Fatalf("budget id = %q", budgets[0].BudgetID)
	}
}
