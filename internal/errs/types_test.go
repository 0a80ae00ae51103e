package errs

import (
	"errors"
	"testing"
)

func TestDatabaseErrorUnwraps(t *testing.T) {
	cause := errors.New("deadline exceeded")
	err := NewDatabaseError("read", "failed to read budgets", cause)

	if !errors.Is(err, cause) {
		t.Fatal("expected errors.Is to find the cause")
	}
	if err.Error() != "read: failed to read budgets: deadline exceeded" {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}

func TestExternalServiceErrorAs(t *testing.T) {
	var wrapped error = NewExternalServiceError("plaid", "sync failed", true, nil)

	var ext *ExternalServiceError
	if !errors.As(wrapped, &ext) {
		t.Fatal("expected errors.As to match")
	}
	if !ext.Transient || ext.Service != "plaid" {
		t.Fatalf("unexpected fields: %+v", ext)
	}
	if wrapped.Error() != "plaid: sync failed" {
		t.Fatalf("unexpected message: %q", wrapped.Error())
	}
}

func TestValidationErrorMessage(t *testing.T) {
	if got := NewValidationError("amount must be positive").Error(); got != "amount must be positive" {
		t.Fatalf("Error() = %q", got)
	}
}
