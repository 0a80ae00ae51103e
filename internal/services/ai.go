package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/GregMSThompson/expense-backend/internal/dto"
	"github.com/GregMSThompson/expense-backend/internal/errs"
	"github.com/GregMSThompson/expense-backend/internal/models"
	"github.com/GregMSThompson/expense-backend/pkg/logger"
)

const (
	aiHistoryLimit    = 8
	aiDefaultTxLimit  = 25
	toolMonthlyReport = "get_monthly_report"
	toolBudgetStatus  = "get_budget_status"
	toolBudgetAlerts  = "get_budget_alerts"
	toolTransactions  = "get_transactions"
)

type vertexClient interface {
	GenerateContent(ctx context.Context, req dto.VertexGenerateRequest) (dto.VertexGenerateResponse, error)
}

type aiReportSource interface {
	MonthlyReport(ctx context.Context, uid string, year, month *int) (dto.MonthlyReport, error)
}

type aiBudgetSource interface {
	ListStatuses(ctx context.Context, uid string, year, month *int) ([]dto.BudgetStatus, error)
	Alerts(ctx context.Context, uid string) ([]dto.BudgetAlert, error)
}

type aiTransactionSource interface {
	ListTransactions(ctx context.Context, uid string, filter dto.TransactionFilter) ([]models.Transaction, error)
}

type aiStore interface {
	SaveMessage(ctx context.Context, uid, sessionID string, msg models.AIMessage) error
	ListMessages(ctx context.Context, uid, sessionID string, limit int) ([]models.AIMessage, error)
}

type aiService struct {
	vertex   vertexClient
	reports  aiReportSource
	budgets  aiBudgetSource
	txs      aiTransactionSource
	store    aiStore
	ttl      time.Duration
	clockNow func() time.Time
}

func NewAIService(vertex vertexClient, reports aiReportSource, budgets aiBudgetSource, txs aiTransactionSource, store aiStore, ttl time.Duration) *aiService {
	return &aiService{
		vertex:   vertex,
		reports:  reports,
		budgets:  budgets,
		txs:      txs,
		store:    store,
		ttl:      ttl,
		clockNow: time.Now,
	}
}

// Query answers one message in a session. The model may call a single tool;
// its result is fed back with tool calling disabled to get the final answer.
func (s *aiService) Query(ctx context.Context, uid, sessionID, message string) (dto.AIQueryResponse, error) {
	log := logger.FromContext(ctx).With("session_id", sessionID)

	message = strings.TrimSpace(message)
	if strings.TrimSpace(sessionID) == "" || message == "" {
		return dto.AIQueryResponse{}, errs.NewValidationError("sessionId and message are required")
	}

	history, err := s.store.ListMessages(ctx, uid, sessionID, aiHistoryLimit)
	if err != nil {
		return dto.AIQueryResponse{}, err
	}
	contents := historyToContents(history, message)

	resp, err := s.generate(ctx, contents)
	if err != nil {
		return dto.AIQueryResponse{}, err
	}

	turn := []models.AIMessage{{Role: models.AIRoleUser, Content: message}}
	if len(resp.ToolCalls) == 0 {
		turn = append(turn, models.AIMessage{Role: models.AIRoleAssistant, Content: resp.Text})
		if err := s.saveTurn(ctx, uid, sessionID, turn); err != nil {
			return dto.AIQueryResponse{}, err
		}
		log.Info("ai query completed")
		return dto.AIQueryResponse{Answer: resp.Text}, nil
	}

	if len(resp.ToolCalls) > 1 {
		log.Warn("model requested several tools, using the first", "count", len(resp.ToolCalls))
	}
	call := resp.ToolCalls[0]
	if !isValidToolName(call.Name) {
		return dto.AIQueryResponse{}, errs.NewExternalServiceError("vertex", fmt.Sprintf("model requested unknown tool: %s", call.Name), false, nil)
	}

	log.Info("executing tool", "tool", call.Name)
	if logger.IsDebugEnabled(ctx) {
		log.Debug("tool arguments", "tool", call.Name, "args", call.Args, "history", len(history))
	}

	result, err := s.executeTool(ctx, uid, call)
	if err != nil {
		return dto.AIQueryResponse{}, fmt.Errorf("tool %s: %w", call.Name, err)
	}

	final, err := s.vertex.GenerateContent(ctx, dto.VertexGenerateRequest{
		System:     systemPrompt(s.clockNow()),
		Contents:   append(contents, toolCallContent(call), toolResultContent(result)),
		Tools:      toolSchemas(),
		ToolConfig: &dto.VertexToolConfig{Mode: dto.FunctionCallingModeNone},
	})
	if err != nil {
		return dto.AIQueryResponse{}, err
	}

	turn = append(turn,
		models.AIMessage{Role: models.AIRoleTool, ToolName: call.Name, ToolArgs: call.Args, ToolResult: result.Response},
		models.AIMessage{Role: models.AIRoleAssistant, Content: final.Text},
	)
	if err := s.saveTurn(ctx, uid, sessionID, turn); err != nil {
		return dto.AIQueryResponse{}, err
	}

	log.Info("ai query completed", "tool", call.Name)
	return dto.AIQueryResponse{
		Answer: final.Text,
		Debug:  &dto.AIDebugInfo{Tool: call.Name, Args: call.Args},
	}, nil
}

// generate asks for a reply with tool calling enabled. A malformed function
// call is retried once under the strict prompt.
func (s *aiService) generate(ctx context.Context, contents []dto.VertexContent) (dto.VertexGenerateResponse, error) {
	req := dto.VertexGenerateRequest{
		System:     systemPrompt(s.clockNow()),
		Contents:   contents,
		Tools:      toolSchemas(),
		ToolConfig: &dto.VertexToolConfig{Mode: dto.FunctionCallingModeAuto},
	}

	resp, err := s.vertex.GenerateContent(ctx, req)
	var malformed *errs.MalformedFunctionCallError
	if !errors.As(err, &malformed) {
		return resp, err
	}

	logger.FromContext(ctx).Warn("malformed function call, retrying with strict prompt")
	req.System = strictSystemPrompt(s.clockNow())
	return s.vertex.GenerateContent(ctx, req)
}

// saveTurn stores a completed exchange in order. Empty assistant replies are
// not kept.
func (s *aiService) saveTurn(ctx context.Context, uid, sessionID string, turn []models.AIMessage) error {
	now := s.clockNow()
	for i, msg := range turn {
		if msg.Role == models.AIRoleAssistant && msg.Content == "" {
			continue
		}
		// history is read back ordered by createdAt
		msg.CreatedAt = now.Add(time.Duration(i) * time.Millisecond)
		if s.ttl > 0 {
			msg.ExpiresAt = now.Add(s.ttl)
		}
		if err := s.store.SaveMessage(ctx, uid, sessionID, msg); err != nil {
			return err
		}
	}
	return nil
}

const (
	vertexRoleUser  = "user"
	vertexRoleModel = "model"
)

// historyToContents replays stored messages as model turns, ending with the
// new user message.
func historyToContents(history []models.AIMessage, current string) []dto.VertexContent {
	contents := make([]dto.VertexContent, 0, len(history)+1)
	for _, msg := range history {
		switch msg.Role {
		case models.AIRoleUser:
			contents = append(contents, textContent(vertexRoleUser, msg.Content))
		case models.AIRoleAssistant:
			if msg.Content != "" {
				contents = append(contents, textContent(vertexRoleModel, msg.Content))
			}
		case models.AIRoleTool:
			if msg.ToolName == "" {
				continue
			}
			if msg.ToolArgs != nil {
				contents = append(contents, toolCallContent(dto.VertexToolCall{Name: msg.ToolName, Args: msg.ToolArgs}))
			}
			if msg.ToolResult != nil {
				contents = append(contents, toolResultContent(dto.VertexToolResult{Name: msg.ToolName, Response: msg.ToolResult}))
			}
		}
	}
	return append(contents, textContent(vertexRoleUser, current))
}

func textContent(role, text string) dto.VertexContent {
	return dto.VertexContent{Role: role, Parts: []dto.VertexPart{{Text: &text}}}
}

func toolCallContent(call dto.VertexToolCall) dto.VertexContent {
	return dto.VertexContent{Role: vertexRoleModel, Parts: []dto.VertexPart{{FunctionCall: &call}}}
}

func toolResultContent(result dto.VertexToolResult) dto.VertexContent {
	return dto.VertexContent{Role: vertexRoleUser, Parts: []dto.VertexPart{{FunctionResponse: &result}}}
}

type monthArgs struct {
	Year  *int `json:"year"`
	Month *int `json:"month"`
}

type transactionArgs struct {
	Type       string `json:"type"`
	CategoryID string `json:"categoryId"`
	StartDate  string `json:"startDate"`
	EndDate    string `json:"endDate"`
	Limit      int    `json:"limit"`
}

func (s *aiService) executeTool(ctx context.Context, uid string, call dto.VertexToolCall) (dto.VertexToolResult, error) {
	var result any

	switch call.Name {
	case toolMonthlyReport:
		args, err := decodeArgs[monthArgs](call.Args)
		if err != nil {
			return dto.VertexToolResult{}, err
		}
		monthly, err := s.reports.MonthlyReport(ctx, uid, args.Year, args.Month)
		if err != nil {
			return dto.VertexToolResult{}, err
		}
		result = monthly
	case toolBudgetStatus:
		args, err := decodeArgs[monthArgs](call.Args)
		if err != nil {
			return dto.VertexToolResult{}, err
		}
		statuses, err := s.budgets.ListStatuses(ctx, uid, args.Year, args.Month)
		if err != nil {
			return dto.VertexToolResult{}, err
		}
		result = map[string]any{"budgets": statuses}
	case toolBudgetAlerts:
		alerts, err := s.budgets.Alerts(ctx, uid)
		if err != nil {
			return dto.VertexToolResult{}, err
		}
		result = map[string]any{"alerts": alerts}
	case toolTransactions:
		args, err := decodeArgs[transactionArgs](call.Args)
		if err != nil {
			return dto.VertexToolResult{}, err
		}
		if args.Limit <= 0 {
			args.Limit = aiDefaultTxLimit
		}
		txs, err := s.txs.ListTransactions(ctx, uid, dto.TransactionFilter{
			Type:       args.Type,
			CategoryID: args.CategoryID,
			StartDate:  args.StartDate,
			EndDate:    args.EndDate,
			Limit:      fmt.Sprint(args.Limit),
		})
		if err != nil {
			return dto.VertexToolResult{}, err
		}
		result = map[string]any{"transactions": txs, "count": len(txs)}
	default:
		return dto.VertexToolResult{}, errs.NewValidationError(fmt.Sprintf("unsupported tool: %s", call.Name))
	}

	payload, err := toMap(result)
	if err != nil {
		return dto.VertexToolResult{}, err
	}
	return dto.VertexToolResult{Name: call.Name, Response: payload}, nil
}

func toolSchemas() []dto.VertexTool {
	monthParams := &dto.VertexSchema{
		Type: "object",
		Properties: map[string]*dto.VertexSchema{
			"year":  {Type: "integer", Description: "Four digit year; defaults to the current year."},
			"month": {Type: "integer", Description: "Month 1-12; defaults to the current month."},
		},
	}

	return []dto.VertexTool{
		{
			Name: toolMonthlyReport,
			Description: "Monthly summary: total income, total expense, net savings, spending per category " +
				"(sorted, with percent of total expense) and the highest spending category.",
			Parameters: monthParams,
		},
		{
			Name: toolBudgetStatus,
			Description: "Budgets for a month with amount spent, remaining, percent used (capped at 100) " +
				"and status ok, warning (80% or more) or exceeded (100% or more).",
			Parameters: monthParams,
		},
		{
			Name:        toolBudgetAlerts,
			Description: "Budgets of the current month that are in warning or exceeded state, with the uncapped percent used.",
			Parameters:  &dto.VertexSchema{Type: "object"},
		},
		{
			Name:        toolTransactions,
			Description: "Return a filtered list of transactions, newest first.",
			Parameters: &dto.VertexSchema{
				Type: "object",
				Properties: map[string]*dto.VertexSchema{
					"type":       {Type: "string", Enum: []string{"income", "expense"}, Description: "Transaction type filter."},
					"categoryId": {Type: "string", Description: "Category id filter."},
					"startDate":  {Type: "string", Description: "YYYY-MM-DD inclusive start date."},
					"endDate":    {Type: "string", Description: "YYYY-MM-DD inclusive end date."},
					"limit":      {Type: "integer", Description: "Maximum number of results; defaults to 25."},
				},
			},
		},
	}
}

func systemPrompt(now time.Time) string {
	today := now.Format("2006-01-02")
	weekday := now.Weekday().String()
	return "You are a personal expense tracking assistant. Use tools for every question about the user's money. " +
		"Make only one tool call per request. For multi-part questions, address the primary question first. " +
		"Calculate dates from natural language (e.g., 'last month', 'this week'). A week is defined as Monday to Sunday. " +
		"All amounts, categories and budgets must come from tool results - never fabricate these. " +
		"If a query is ambiguous (e.g., which category?), ask for clarification. " +
		"Today is " + today + " (" + weekday + ")."
}

func strictSystemPrompt(now time.Time) string {
	return systemPrompt(now) + " You must respond with a valid tool call that matches the schema. " +
		"If required information is missing, ask a clarification question instead of calling a tool."
}

func decodeArgs[T any](args map[string]any) (T, error) {
	var out T
	if len(args) == 0 {
		return out, nil
	}
	raw, err := json.Marshal(args)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, errs.NewExternalServiceError("vertex", "model sent invalid tool arguments", false, err)
	}
	return out, nil
}

func toMap(value any) (map[string]any, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func isValidToolName(name string) bool {
	switch name {
	case toolMonthlyReport, toolBudgetStatus, toolBudgetAlerts, toolTransactions:
		return true
	}
	return false
}
