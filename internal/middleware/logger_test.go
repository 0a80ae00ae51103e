package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/GregMSThompson/expense-backend/pkg/logger"
)

func TestLoggerMiddlewareLogsCompletion(t *testing.T) {
	var buf bytes.Buffer
	m := NewLoggerMiddleware(slog.New(logger.NewCloudRunHandlerTo(&buf, slog.LevelInfo)))

	var sawLogger bool
	h := chimiddleware.RequestID(m.LoggerMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawLogger = logger.FromContext(r.Context()) != slog.Default()
		w.WriteHeader(http.StatusTeapot)
	})))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/budgets", nil))

	if !sawLogger {
		t.Fatal("handler did not receive the request logger")
	}
	var event map[string]any
	if err := json.Unmarshal(buf.Bytes(), &event); err != nil {
		t.Fatalf("unmarshal log line: %v (%s)", err, buf.String())
	}
	data, _ := event["data"].(map[string]any)
	if event["message"] != "request completed" || data["path"] != "/api/budgets" {
		t.Fatalf("unexpected log event: %v", event)
	}
	if data["status"] != float64(http.StatusTeapot) {
		t.Fatalf("status = %v", data["status"])
	}
	if data["request_id"] == "" {
		t.Fatal("missing request id")
	}
}
