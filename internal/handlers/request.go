package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/GregMSThompson/expense-backend/internal/errs"
)

// decodeJSON reads a JSON body. Malformed input is the caller's fault.
func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errs.NewValidationError("invalid request body")
	}
	return nil
}

// decodeOptionalJSON is decodeJSON that tolerates an empty body.
func decodeOptionalJSON(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return errs.NewValidationError("invalid request body")
}

// intQuery returns nil when the parameter is absent.
func intQuery(r *http.Request, name string) (*int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, errs.NewValidationError(name + " must be an integer")
	}
	return &v, nil
}

// yearMonthQuery reads ?year= and ?month=. Zero counts as absent, so the
// service falls back to the current month.
func yearMonthQuery(r *http.Request) (year, month *int, err error) {
	if year, err = intQuery(r, "year"); err != nil {
		return nil, nil, err
	}
	if month, err = intQuery(r, "month"); err != nil {
		return nil, nil, err
	}
	return nonZero(year), nonZero(month), nil
}

func nonZero(v *int) *int {
	if v == nil || *v == 0 {
		return nil
	}
	return v
}
