package store

import (
	"errors"
	"testing"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/GregMSThompson/expense-backend/internal/errs"
)

func TestCoerceAmount(t *testing.T) {
	cases := []struct {
		in   any
		want float64
	}{
		{12.5, 12.5},
		{int64(7), 7},
		{" 3.25 ", 3.25},
		{"abc", 0},
		{nil, 0},
		{true, 0},
	}
	for _, c := range cases {
		if got := coerceAmount(c.in); got != c.want {
			t.Fatalf("coerceAmount(%#v) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestDBErrorMapping(t *testing.T) {
	var nf *errs.NotFoundError
	if err := dbError("read", "budget", status.Error(codes.NotFound, "gone")); !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %T", err)
	}

	var ae *errs.AlreadyExistsError
	if err := dbError("create", "user", status.Error(codes.AlreadyExists, "dup")); !errors.As(err, &ae) {
		t.Fatalf("expected AlreadyExistsError, got %T", err)
	}

	cause := errors.New("boom")
	var de *errs.DatabaseError
	err := dbError("update", "budget", cause)
	if !errors.As(err, &de) {
		t.Fatalf("expected DatabaseError, got %T", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected wrapped cause")
	}
}

func TestEmailKey(t *testing.T) {
	if got := emailKey("  Ana@Example.COM "); got != "ana@example.com" {
		t.Fatalf("emailKey = %q", got)
	}
}
