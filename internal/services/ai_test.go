package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/GregMSThompson/expense-backend/internal/dto"
	"github.com/GregMSThompson/expense-backend/internal/errs"
	"github.com/GregMSThompson/expense-backend/internal/models"
	"github.com/GregMSThompson/expense-backend/pkg/helpers"
)

type fakeVertexClient struct {
	responses []dto.VertexGenerateResponse
	errs      []error
	requests  []dto.VertexGenerateRequest
}

func (f *fakeVertexClient) GenerateContent(ctx context.Context, req dto.VertexGenerateRequest) (dto.VertexGenerateResponse, error) {
	f.requests = append(f.requests, req)
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return dto.VertexGenerateResponse{}, err
		}
	}
	if len(f.responses) == 0 {
		return dto.VertexGenerateResponse{}, errors.New("no responses configured")
	}
	resp := f.responses[0]
	f.responses = f.responses[1:]
	return resp, nil
}

type fakeReportSource struct {
	calls int
	year  *int
	month *int
}

func (f *fakeReportSource) MonthlyReport(ctx context.Context, uid string, year, month *int) (dto.MonthlyReport, error) {
	f.calls++
	f.year, f.month = year, month
	return dto.MonthlyReport{
		Year:         helpers.Value(year),
		Month:        helpers.Value(month),
		TotalExpense: decimal.NewFromInt(42),
	}, nil
}

type fakeBudgetSource struct {
	alertCalls int
}

func (f *fakeBudgetSource) ListStatuses(ctx context.Context, uid string, year, month *int) ([]dto.BudgetStatus, error) {
	return []dto.BudgetStatus{}, nil
}

func (f *fakeBudgetSource) Alerts(ctx context.Context, uid string) ([]dto.BudgetAlert, error) {
	f.alertCalls++
	return []dto.BudgetAlert{{Type: dto.BudgetExceeded, CategoryName: "Food"}}, nil
}

type fakeTxLister struct {
	filter dto.TransactionFilter
}

func (f *fakeTxLister) ListTransactions(ctx context.Context, uid string, filter dto.TransactionFilter) ([]models.Transaction, error) {
	f.filter = filter
	return []models.Transaction{{TransactionID: "t1"}}, nil
}

type memAIStore struct {
	saved []models.AIMessage
}

func (m *memAIStore) SaveMessage(ctx context.Context, uid, sessionID string, msg models.AIMessage) error {
	m.saved = append(m.saved, msg)
	return nil
}

func (m *memAIStore) ListMessages(ctx context.Context, uid, sessionID string, limit int) ([]models.AIMessage, error) {
	return m.saved, nil
}

type aiFixture struct {
	vertex  *fakeVertexClient
	reports *fakeReportSource
	budgets *fakeBudgetSource
	txs     *fakeTxLister
	store   *memAIStore
	svc     *aiService
}

func newAIFixture(responses ...dto.VertexGenerateResponse) *aiFixture {
	f := &aiFixture{
		vertex:  &fakeVertexClient{responses: responses},
		reports: &fakeReportSource{},
		budgets: &fakeBudgetSource{},
		txs:     &fakeTxLister{},
		store:   &memAIStore{},
	}
	f.svc = NewAIService(f.vertex, f.reports, f.budgets, f.txs, f.store, time.Hour)
	f.svc.clockNow = func() time.Time {
		return time.Date(2025, time.February, 15, 12, 0, 0, 0, time.UTC)
	}
	return f
}

func TestAIQueryToolFlow(t *testing.T) {
	f := newAIFixture(
		dto.VertexGenerateResponse{
			ToolCalls: []dto.VertexToolCall{
				{Name: toolMonthlyReport, Args: map[string]any{"year": 2025, "month": 1}},
			},
		},
		dto.VertexGenerateResponse{Text: "You spent $42 in January."},
	)

	resp, err := f.svc.Query(helpers.TestCtx(), "user", "session", "How much did I spend last month?")
	if err != nil {
		t.Fatalf("Query error: %v", err)
	}
	if resp.Answer != "You spent $42 in January." {
		t.Fatalf("answer mismatch: %q", resp.Answer)
	}
	if resp.Debug == nil || resp.Debug.Tool != toolMonthlyReport {
		t.Fatalf("expected debug info for tool call, got %+v", resp.Debug)
	}
	if f.reports.calls != 1 || helpers.Value(f.reports.year) != 2025 || helpers.Value(f.reports.month) != 1 {
		t.Fatalf("unexpected report call: calls=%d year=%v month=%v", f.reports.calls, f.reports.year, f.reports.month)
	}

	if len(f.vertex.requests) != 2 {
		t.Fatalf("expected 2 vertex requests, got %d", len(f.vertex.requests))
	}
	second := f.vertex.requests[1]
	if second.ToolConfig == nil || second.ToolConfig.Mode != dto.FunctionCallingModeNone {
		t.Fatalf("follow-up request must disable tool calls")
	}
	last := second.Contents[len(second.Contents)-1]
	if last.Parts[0].FunctionResponse == nil || last.Parts[0].FunctionResponse.Name != toolMonthlyReport {
		t.Fatalf("follow-up request must end with the tool result, got %+v", last)
	}

	if len(f.store.saved) != 3 {
		t.Fatalf("expected user, tool and assistant messages, got %d", len(f.store.saved))
	}
	if f.store.saved[1].Role != models.AIRoleTool || f.store.saved[1].ToolResult == nil {
		t.Fatalf("tool message not saved: %+v", f.store.saved[1])
	}
	if !f.store.saved[2].ExpiresAt.Equal(f.svc.clockNow().Add(time.Hour)) {
		t.Fatalf("expected expiry from ttl, got %v", f.store.saved[2].ExpiresAt)
	}
}

func TestAIQueryNoToolCall(t *testing.T) {
	f := newAIFixture(dto.VertexGenerateResponse{Text: "No tool needed."})

	resp, err := f.svc.Query(helpers.TestCtx(), "user", "session", "Hi")
	if err != nil {
		t.Fatalf("Query error: %v", err)
	}
	if resp.Answer != "No tool needed." {
		t.Fatalf("answer mismatch: %q", resp.Answer)
	}
	if f.reports.calls != 0 || f.budgets.alertCalls != 0 {
		t.Fatalf("unexpected tool calls")
	}
	if len(f.store.saved) != 2 {
		t.Fatalf("expected user and assistant messages, got %d", len(f.store.saved))
	}
}

func TestAIQueryTransactionsToolDefaultsLimit(t *testing.T) {
	f := newAIFixture(
		dto.VertexGenerateResponse{ToolCalls: []dto.VertexToolCall{
			{Name: toolTransactions, Args: map[string]any{"type": "expense", "startDate": "2025-02-01"}},
		}},
		dto.VertexGenerateResponse{Text: "Here they are."},
	)

	if _, err := f.svc.Query(helpers.TestCtx(), "user", "session", "Show my expenses"); err != nil {
		t.Fatalf("Query error: %v", err)
	}
	if f.txs.filter.Limit != "25" || f.txs.filter.Type != "expense" || f.txs.filter.StartDate != "2025-02-01" {
		t.Fatalf("unexpected filter: %+v", f.txs.filter)
	}
}

func TestAIQueryRetriesMalformedCall(t *testing.T) {
	f := newAIFixture(
		dto.VertexGenerateResponse{ToolCalls: []dto.VertexToolCall{{Name: toolBudgetAlerts}}},
		dto.VertexGenerateResponse{Text: "Food is over budget."},
	)
	f.vertex.errs = []error{errs.NewMalformedFunctionCallError()}

	resp, err := f.svc.Query(helpers.TestCtx(), "user", "session", "Any alerts?")
	if err != nil {
		t.Fatalf("Query error: %v", err)
	}
	if resp.Answer != "Food is over budget." || f.budgets.alertCalls != 1 {
		t.Fatalf("unexpected result: %+v alerts=%d", resp, f.budgets.alertCalls)
	}
	if f.vertex.requests[1].System == f.vertex.requests[0].System {
		t.Fatalf("retry should use the strict prompt")
	}
}

func TestAIQueryRejectsUnknownTool(t *testing.T) {
	f := newAIFixture(dto.VertexGenerateResponse{ToolCalls: []dto.VertexToolCall{{Name: "drop_tables"}}})

	_, err := f.svc.Query(helpers.TestCtx(), "user", "session", "hmm")
	var ee *errs.ExternalServiceError
	if !errors.As(err, &ee) || ee.Service != "vertex" || ee.Transient {
		t.Fatalf("expected permanent vertex error, got %v", err)
	}
	var ve *errs.ValidationError
	if errors.As(err, &ve) {
		t.Fatalf("model fault must not surface as a client error: %v", err)
	}
	if len(f.store.saved) != 0 {
		t.Fatalf("nothing should be stored for a failed turn, got %d", len(f.store.saved))
	}
}

func TestHistoryToContents(t *testing.T) {
	history := []models.AIMessage{
		{Role: models.AIRoleUser, Content: "hi"},
		{Role: models.AIRoleAssistant, Content: ""},
		{Role: models.AIRoleTool, ToolName: toolBudgetAlerts, ToolArgs: map[string]any{}, ToolResult: map[string]any{"alerts": []any{}}},
	}
	contents := historyToContents(history, "next")

	if len(contents) != 4 {
		t.Fatalf("expected 4 contents, got %d", len(contents))
	}
	if contents[1].Role != "model" || contents[1].Parts[0].FunctionCall == nil {
		t.Fatalf("expected model function call, got %+v", contents[1])
	}
	if contents[2].Parts[0].FunctionResponse == nil {
		t.Fatalf("expected function response, got %+v", contents[2])
	}
	if *contents[3].Parts[0].Text != "next" {
		t.Fatalf("current message must come last")
	}
}
