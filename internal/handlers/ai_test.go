package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/GregMSThompson/expense-backend/internal/dto"
	"github.com/GregMSThompson/expense-backend/internal/errs"
)

type stubAIService struct {
	calls     int
	uid       string
	sessionID string
	message   string
	resp      dto.AIQueryResponse
	err       error
}

func (s *stubAIService) Query(ctx context.Context, uid, sessionID, message string) (dto.AIQueryResponse, error) {
	s.calls++
	s.uid, s.sessionID, s.message = uid, sessionID, message
	return s.resp, s.err
}

func newAIRoutes(svc *stubAIService) chi.Router {
	deps := newTestDeps()
	deps.AISvc = svc
	return NewAIHandlers(deps).AIRoutes()
}

func TestAIQueryAnswers(t *testing.T) {
	svc := &stubAIService{resp: dto.AIQueryResponse{
		Answer: "You spent $42 on Food.",
		Debug:  &dto.AIDebugInfo{Tool: "get_monthly_report"},
	}}

	rr := serve(t, newAIRoutes(svc), http.MethodPost, "/query", `{"sessionId":"s1","message":"How much on food?"}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body=%s", rr.Code, rr.Body.String())
	}
	if svc.uid != testIdentity.UID || svc.sessionID != "s1" || svc.message != "How much on food?" {
		t.Fatalf("service called with %+v", svc)
	}
	var got dto.AIQueryResponse
	decodeData(t, rr, &got)
	if got.Answer != svc.resp.Answer || got.Debug == nil || got.Debug.Tool != "get_monthly_report" {
		t.Fatalf("unexpected payload: %+v", got)
	}
}

func TestAIQueryRejectsBadInput(t *testing.T) {
	tests := map[string]string{
		"invalid json":       "not-json",
		"missing message":    `{"sessionId":"s1","message":""}`,
		"missing session id": `{"sessionId":"","message":"hi"}`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			svc := &stubAIService{}
			rr := serve(t, newAIRoutes(svc), http.MethodPost, "/query", body)

			if rr.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rr.Code)
			}
			if code := errorCode(t, rr); code != "invalid_input" {
				t.Fatalf("code = %q", code)
			}
			if svc.calls != 0 {
				t.Fatal("service should not be called")
			}
		})
	}
}

func TestAIQueryMapsServiceErrors(t *testing.T) {
	tests := map[string]struct {
		err  error
		want int
	}{
		"model unavailable": {errs.NewExternalServiceError("vertex", "unavailable", true, errors.New("503")), http.StatusServiceUnavailable},
		"malformed call":    {errs.NewMalformedFunctionCallError(), http.StatusBadGateway},
		"wrapped not found": {wrapTool(errs.NewNotFoundError("budget not found")), http.StatusNotFound},
		"unknown":           {errors.New("boom"), http.StatusInternalServerError},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			svc := &stubAIService{err: tc.err}
			rr := serve(t, newAIRoutes(svc), http.MethodPost, "/query", `{"sessionId":"s1","message":"hello"}`)
			if rr.Code != tc.want {
				t.Fatalf("status = %d, want %d", rr.Code, tc.want)
			}
		})
	}
}

func wrapTool(err error) error {
	return fmt.Errorf("failed to execute tool get_budget_alerts: %w", err)
}
