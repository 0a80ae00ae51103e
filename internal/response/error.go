package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/GregMSThompson/expense-backend/internal/errs"
	"github.com/GregMSThompson/expense-backend/pkg/logger"
)

// Error codes returned in ErrorResponse.Code.
const (
	CodeInvalidInput       = "invalid_input"
	CodeNotFound           = "not_found"
	CodeAlreadyExists      = "already_exists"
	CodeUnauthorized       = "unauthorized"
	CodeServiceUnavailable = "service_unavailable"
	CodeInternal           = "internal_error"
)

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (h *responseHandler) WriteError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(ErrorResponse{Code: code, Message: message}); err != nil {
		logger.FromContext(r.Context()).Error("failed to encode error response",
			"error", err, "status", status, "code", code)
	}
}

// HandleError logs err at a level matching its cause and writes the mapped
// status. Internal details never reach the client.
func (h *responseHandler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	m := classify(err)
	logger.FromContext(r.Context()).Log(r.Context(), m.level, m.logMsg, m.attrs...)
	h.WriteError(w, r, m.status, m.code, m.message)
}

type errorMapping struct {
	status  int
	code    string
	message string
	level   slog.Level
	logMsg  string
	attrs   []any
}

func classify(err error) errorMapping {
	for e := err; e != nil; e = errors.Unwrap(e) {
		switch e := e.(type) {
		case *errs.ValidationError:
			return clientError(http.StatusBadRequest, CodeInvalidInput, "validation failed", e.Message)
		case *errs.NotFoundError:
			return clientError(http.StatusNotFound, CodeNotFound, "resource not found", e.Message)
		case *errs.AlreadyExistsError:
			return clientError(http.StatusConflict, CodeAlreadyExists, "resource already exists", e.Message)
		case *errs.UnauthorizedError:
			return clientError(http.StatusUnauthorized, CodeUnauthorized, "unauthorized", e.Message)

		case *errs.MalformedFunctionCallError:
			return errorMapping{
				status:  http.StatusBadGateway,
				code:    CodeServiceUnavailable,
				message: "The assistant could not answer that question",
				level:   slog.LevelWarn,
				logMsg:  "assistant produced a malformed tool call",
			}

		case *errs.ExternalServiceError:
			m := errorMapping{
				status:  http.StatusBadGateway,
				code:    CodeServiceUnavailable,
				message: "Service temporarily unavailable",
				level:   slog.LevelError,
				logMsg:  "external service error",
				attrs:   []any{"service", e.Service, "transient", e.Transient, "error", e.Message},
			}
			if e.Transient {
				m.status, m.level = http.StatusServiceUnavailable, slog.LevelWarn
			}
			return m

		case *errs.DatabaseError:
			return serverError("database error", "operation", e.Operation, "error", e.Message)
		case *errs.EncryptionError:
			return serverError("encryption error", "error", e.Message)
		}
	}

	m := serverError("unexpected error", "error", err, "type", fmt.Sprintf("%T", err))
	m.message = "An unexpected error occurred"
	return m
}

func clientError(status int, code, logMsg, message string) errorMapping {
	return errorMapping{
		status:  status,
		code:    code,
		message: message,
		level:   slog.LevelWarn,
		logMsg:  logMsg,
		attrs:   []any{"error", message},
	}
}

func serverError(logMsg string, attrs ...any) errorMapping {
	return errorMapping{
		status:  http.StatusInternalServerError,
		code:    CodeInternal,
		message: "An error occurred",
		level:   slog.LevelError,
		logMsg:  logMsg,
		attrs:   attrs,
	}
}
