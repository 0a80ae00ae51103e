package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/GregMSThompson/expense-backend/internal/dto"
	"github.com/GregMSThompson/expense-backend/internal/errs"
	"github.com/GregMSThompson/expense-backend/internal/models"
)

type stubTransactionService struct {
	uid     string
	id      string
	filter  dto.TransactionFilter
	create  dto.CreateTransactionRequest
	update  dto.UpdateTransactionRequest
	txs     []models.Transaction
	csv     string
	err     error
	deleted bool
}

func (s *stubTransactionService) CreateTransaction(ctx context.Context, uid string, req dto.CreateTransactionRequest) (*models.Transaction, error) {
	s.uid, s.create = uid, req
	if s.err != nil {
		return nil, s.err
	}
	return &models.Transaction{TransactionID: "tx-1", Type: models.TransactionType(req.Type)}, nil
}

func (s *stubTransactionService) UpdateTransaction(ctx context.Context, uid, transactionID string, req dto.UpdateTransactionRequest) (*models.Transaction, error) {
	s.uid, s.id, s.update = uid, transactionID, req
	if s.err != nil {
		return nil, s.err
	}
	return &models.Transaction{TransactionID: transactionID}, nil
}

func (s *stubTransactionService) DeleteTransaction(ctx context.Context, uid, transactionID string) error {
	s.uid, s.id, s.deleted = uid, transactionID, true
	return s.err
}

func (s *stubTransactionService) ListTransactions(ctx context.Context, uid string, filter dto.TransactionFilter) ([]models.Transaction, error) {
	s.uid, s.filter = uid, filter
	return s.txs, s.err
}

func (s *stubTransactionService) ExportCSV(ctx context.Context, uid string, filter dto.TransactionFilter) (string, error) {
	s.uid, s.filter = uid, filter
	return s.csv, s.err
}

func newTransactionRoutes(svc *stubTransactionService) *transactionHandlers {
	deps := newTestDeps()
	deps.TransactionSvc = svc
	return NewTransactionHandlers(deps)
}

func TestListTransactionsPassesFilter(t *testing.T) {
	svc := &stubTransactionService{txs: []models.Transaction{{TransactionID: "a"}, {TransactionID: "b"}}}
	h := newTransactionRoutes(svc)

	rr := serve(t, h.TransactionRoutes(), http.MethodGet,
		"/?type=expense&categoryId=food&startDate=2025-01-01&endDate=2025-01-31&limit=10", "")

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	want := dto.TransactionFilter{Type: "expense", CategoryID: "food", StartDate: "2025-01-01", EndDate: "2025-01-31", Limit: "10"}
	if svc.filter != want || svc.uid != testIdentity.UID {
		t.Fatalf("filter = %+v uid = %s", svc.filter, svc.uid)
	}
	var got []models.Transaction
	decodeData(t, rr, &got)
	if len(got) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(got))
	}
}

func TestCreateTransactionReturnsCreated(t *testing.T) {
	svc := &stubTransactionService{}
	h := newTransactionRoutes(svc)

	rr := serve(t, h.TransactionRoutes(), http.MethodPost, "/",
		`{"type":"expense","amount":12.5,"categoryId":"food","categoryName":"Food","date":"2025-01-05"}`)

	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d body=%s", rr.Code, rr.Body.String())
	}
	if svc.create.Amount == nil || *svc.create.Amount != 12.5 || svc.create.CategoryID != "food" {
		t.Fatalf("unexpected request: %+v", svc.create)
	}
}

func TestCreateTransactionValidationError(t *testing.T) {
	svc := &stubTransactionService{err: errs.NewValidationError("amount must be at least 0.01")}
	h := newTransactionRoutes(svc)

	rr := serve(t, h.TransactionRoutes(), http.MethodPost, "/", `{"type":"expense","amount":0}`)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rr.Code)
	}
	if code := errorCode(t, rr); code != "invalid_input" {
		t.Fatalf("code = %q", code)
	}
}

func TestCreateTransactionMalformedBody(t *testing.T) {
	svc := &stubTransactionService{}
	h := newTransactionRoutes(svc)

	rr := serve(t, h.TransactionRoutes(), http.MethodPost, "/", `{"amount":`)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rr.Code)
	}
	if svc.uid != "" {
		t.Fatalf("service must not be called")
	}
}

func TestUpdateTransactionNotFound(t *testing.T) {
	svc := &stubTransactionService{err: errs.NewNotFoundError("transaction not found")}
	h := newTransactionRoutes(svc)

	rr := serve(t, h.TransactionRoutes(), http.MethodPut, "/tx-9", `{"note":"lunch"}`)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rr.Code)
	}
	if svc.id != "tx-9" || svc.update.Note == nil || *svc.update.Note != "lunch" {
		t.Fatalf("unexpected update call: id=%s req=%+v", svc.id, svc.update)
	}
}

func TestDeleteTransaction(t *testing.T) {
	svc := &stubTransactionService{}
	h := newTransactionRoutes(svc)

	rr := serve(t, h.TransactionRoutes(), http.MethodDelete, "/tx-1", "")

	if rr.Code != http.StatusOK || !svc.deleted || svc.id != "tx-1" {
		t.Fatalf("status = %d deleted=%v id=%s", rr.Code, svc.deleted, svc.id)
	}
}

func TestExportTransactionsWritesCSV(t *testing.T) {
	csv := "Date,Type,Category,Amount,Note,Payment Method\n\"Jan 5, 2025\",\"expense\",\"Food\",\"12.5\",\"\",\"\""
	svc := &stubTransactionService{csv: csv}
	h := newTransactionRoutes(svc)

	rr := serve(t, h.TransactionRoutes(), http.MethodGet, "/export?type=expense", "")

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "text/csv; charset=utf-8" {
		t.Fatalf("content type = %q", ct)
	}
	if rr.Header().Get("Content-Disposition") == "" {
		t.Fatalf("expected attachment disposition")
	}
	if rr.Body.String() != csv {
		t.Fatalf("body = %q", rr.Body.String())
	}
	if svc.filter.Type != "expense" {
		t.Fatalf("export must use list filters, got %+v", svc.filter)
	}
}
