package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/GregMSThompson/expense-backend/internal/dto"
	"github.com/GregMSThompson/expense-backend/internal/middleware"
	"github.com/GregMSThompson/expense-backend/internal/response"
	"github.com/GregMSThompson/expense-backend/pkg/helpers"
	"github.com/GregMSThompson/expense-backend/pkg/logger"
)

var testIdentity = dto.Identity{UID: "uid-123", Email: "jane@example.com"}

func newTestDeps() *Deps {
	return &Deps{ResponseHandler: response.New(logger.FromContext(helpers.TestCtx()))}
}

// serve runs a request through routes as an authenticated caller.
func serve(t *testing.T, routes chi.Router, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rdr)
	req = req.WithContext(middleware.WithIdentity(helpers.TestCtx(), testIdentity))
	rr := httptest.NewRecorder()
	routes.ServeHTTP(rr, req)
	return rr
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
}

func decodeData(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	var env envelope
	if err := json.NewDecoder(rr.Body).Decode(&env); err != nil {
		t.Fatalf("decode envelope: %v (body=%s)", err, rr.Body.String())
	}
	if !env.Success {
		t.Fatalf("expected success envelope, got %s", rr.Body.String())
	}
	if v != nil {
		if err := json.Unmarshal(env.Data, v); err != nil {
			t.Fatalf("decode data: %v", err)
		}
	}
}

func errorCode(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body response.ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body.Code
}

func TestHealth(t *testing.T) {
	rr := httptest.NewRecorder()
	Health(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rr.Code != http.StatusOK || rr.Body.String() != "OK" {
		t.Fatalf("health = %d %q", rr.Code, rr.Body.String())
	}
}
