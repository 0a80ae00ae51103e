package store

import (
	"context"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"github.com/GregMSThompson/expense-backend/internal/dto"
	"github.com/GregMSThompson/expense-backend/internal/errs"
	"github.com/GregMSThompson/expense-backend/internal/models"
)

type transactionStore struct {
	client *firestore.Client
}

func NewTransactionStore(client *firestore.Client) *transactionStore {
	return &transactionStore{client: client}
}

func (s *transactionStore) txCollection(uid string) *firestore.CollectionRef {
	return userDoc(s.client, uid).Collection("transactions")
}

func (s *transactionStore) cursorDoc(uid, bankID string) *firestore.DocumentRef {
	return userDoc(s.client, uid).Collection("plaid_cursors").Doc(bankID)
}

// transactionDoc mirrors models.Transaction but reads amount loosely so a
// hand-edited or corrupted document still loads.
type transactionDoc struct {
	TransactionID string    `firestore:"transactionId"`
	UserID        string    `firestore:"userId"`
	Type          string    `firestore:"type"`
	Amount        any       `firestore:"amount"`
	CategoryID    string    `firestore:"categoryId"`
	CategoryName  string    `firestore:"categoryName"`
	Note          string    `firestore:"note"`
	Date          time.Time `firestore:"date"`
	PaymentMethod string    `firestore:"paymentMethod"`
	BankID        string    `firestore:"bankId"`
	CreatedAt     time.Time `firestore:"createdAt"`
	UpdatedAt     time.Time `firestore:"updatedAt"`
}

func (d transactionDoc) toModel(id string) *models.Transaction {
	if d.TransactionID == "" {
		d.TransactionID = id
	}
	return &models.Transaction{
		TransactionID: d.TransactionID,
		UserID:        d.UserID,
		Type:          models.TransactionType(d.Type),
		Amount:        coerceAmount(d.Amount),
		CategoryID:    d.CategoryID,
		CategoryName:  d.CategoryName,
		Note:          d.Note,
		Date:          d.Date,
		PaymentMethod: d.PaymentMethod,
		BankID:        d.BankID,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

// coerceAmount turns whatever is stored under amount into a number; anything
// unusable becomes 0.
func coerceAmount(v any) float64 {
	switch a := v.(type) {
	case float64:
		return a
	case int64:
		return float64(a)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(a), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

func decodeTransaction(doc *firestore.DocumentSnapshot) (*models.Transaction, error) {
	var d transactionDoc
	if err := doc.DataTo(&d); err != nil {
		return nil, errs.NewDatabaseError("read", "failed to parse transaction data", err)
	}
	return d.toModel(doc.Ref.ID), nil
}

func (s *transactionStore) Create(ctx context.Context, uid string, tx *models.Transaction) error {
	tx.UserID = uid
	if _, err := s.txCollection(uid).Doc(tx.TransactionID).Create(ctx, tx); err != nil {
		return dbError("create", "transaction", err)
	}
	return nil
}

func (s *transactionStore) Get(ctx context.Context, uid, transactionID string) (*models.Transaction, error) {
	doc, err := s.txCollection(uid).Doc(transactionID).Get(ctx)
	if err != nil {
		return nil, dbError("read", "transaction", err)
	}
	return decodeTransaction(doc)
}

// Update rewrites the user-editable fields of an existing transaction.
func (s *transactionStore) Update(ctx context.Context, uid string, tx *models.Transaction) error {
	_, err := s.txCollection(uid).Doc(tx.TransactionID).Update(ctx, []firestore.Update{
		{Path: "type", Value: string(tx.Type)},
		{Path: "amount", Value: tx.Amount},
		{Path: "categoryId", Value: tx.CategoryID},
		{Path: "categoryName", Value: tx.CategoryName},
		{Path: "note", Value: tx.Note},
		{Path: "date", Value: tx.Date},
		{Path: "paymentMethod", Value: tx.PaymentMethod},
		{Path: "updatedAt", Value: tx.UpdatedAt},
	})
	if err != nil {
		return dbError("update", "transaction", err)
	}
	return nil
}

func (s *transactionStore) Delete(ctx context.Context, uid, transactionID string) error {
	if _, err := s.txCollection(uid).Doc(transactionID).Delete(ctx, firestore.Exists); err != nil {
		return dbError("delete", "transaction", err)
	}
	return nil
}

// Query streams matching transactions, newest first, to handle. Returning an
// error from handle stops the iteration.
func (s *transactionStore) Query(ctx context.Context, uid string, q dto.TransactionQuery, handle func(*models.Transaction) error) error {
	query := s.txCollection(uid).Query
	if q.Type != nil {
		query = query.Where("type", "==", string(*q.Type))
	}
	if q.CategoryID != nil {
		query = query.Where("categoryId", "==", *q.CategoryID)
	}
	if q.BankID != nil {
		query = query.Where("bankId", "==", *q.BankID)
	}
	if q.DateFrom != nil {
		query = query.Where("date", ">=", *q.DateFrom)
	}
	if q.DateTo != nil {
		query = query.Where("date", "<=", *q.DateTo)
	}
	query = query.OrderBy("date", firestore.Desc)
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			return nil
		}
		if err != nil {
			return errs.NewDatabaseError("query", "failed to query transactions", err)
		}
		tx, err := decodeTransaction(doc)
		if err != nil {
			return err
		}
		if err := handle(tx); err != nil {
			return err
		}
	}
}

func (s *transactionStore) UpsertBatch(ctx context.Context, uid string, txs []models.Transaction) error {
	if len(txs) == 0 {
		return nil
	}

	bw := s.client.BulkWriter(ctx)
	jobs := make([]*firestore.BulkWriterJob, 0, len(txs))
	now := time.Now()

	for _, t := range txs {
		t.UserID = uid
		t.UpdatedAt = now
		if t.CreatedAt.IsZero() {
			t.CreatedAt = now
		}

		doc := s.txCollection(uid).Doc(t.TransactionID)
		job, err := bw.Set(doc, t)
		if err != nil {
			bw.End()
			return errs.NewDatabaseError("update", "failed to queue transaction upsert", err)
		}
		jobs = append(jobs, job)
	}

	bw.End()
	if err := bulkResults(jobs); err != nil {
		return errs.NewDatabaseError("update", "failed to upsert transactions", err)
	}
	return nil
}

// DeleteByIDs removes transactions by document id; missing ids are ignored.
func (s *transactionStore) DeleteByIDs(ctx context.Context, uid string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	bw := s.client.BulkWriter(ctx)
	jobs := make([]*firestore.BulkWriterJob, 0, len(ids))
	for _, id := range ids {
		job, err := bw.Delete(s.txCollection(uid).Doc(id))
		if err != nil {
			bw.End()
			return errs.NewDatabaseError("delete", "failed to queue transaction delete", err)
		}
		jobs = append(jobs, job)
	}

	bw.End()
	if err := bulkResults(jobs); err != nil {
		return errs.NewDatabaseError("delete", "failed to delete transactions", err)
	}
	return nil
}

func (s *transactionStore) DeleteByBank(ctx context.Context, uid, bankID string) error {
	iter := s.txCollection(uid).Where("bankId", "==", bankID).Select().Documents(ctx)
	defer iter.Stop()

	var ids []string
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return errs.NewDatabaseError("query", "failed to list bank transactions", err)
		}
		ids = append(ids, doc.Ref.ID)
	}
	return s.DeleteByIDs(ctx, uid, ids)
}

func (s *transactionStore) GetCursor(ctx context.Context, uid, bankID string) (string, error) {
	snap, err := s.cursorDoc(uid, bankID).Get(ctx)
	if isNotFound(err) {
		return "", nil
	}
	if err != nil {
		return "", dbError("read", "sync cursor", err)
	}
	cursor, ok := snap.Data()["cursor"].(string)
	if !ok {
		return "", nil
	}
	return cursor, nil
}

func (s *transactionStore) SetCursor(ctx context.Context, uid, bankID, cursor string) error {
	_, err := s.cursorDoc(uid, bankID).Set(ctx, map[string]interface{}{
		"cursor":    cursor,
		"updatedAt": time.Now(),
	}, firestore.MergeAll)
	if err != nil {
		return dbError("update", "sync cursor", err)
	}
	return nil
}

func (s *transactionStore) DeleteCursor(ctx context.Context, uid, bankID string) error {
	if _, err := s.cursorDoc(uid, bankID).Delete(ctx); err != nil {
		return dbError("delete", "sync cursor", err)
	}
	return nil
}
