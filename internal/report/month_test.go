package report

import (
	"errors"
	"testing"
	"time"

	"github.com/GregMSThompson/expense-backend/internal/errs"
)

func TestMonthWindowHandlesMonthLengths(t *testing.T) {
	cases := []struct {
		year, month int
		lastDay     int
	}{
		{2024, 2, 29},
		{2023, 2, 28},
		{2024, 4, 30},
		{2024, 12, 31},
	}
	for _, c := range cases {
		start, end := MonthWindow(c.year, c.month, time.UTC)
		if start.Day() != 1 || start.Hour() != 0 || int(start.Month()) != c.month {
			t.Errorf("%d-%02d start = %v", c.year, c.month, start)
		}
		if end.Day() != c.lastDay || end.Hour() != 23 || end.Minute() != 59 || end.Second() != 59 {
			t.Errorf("%d-%02d end = %v, want day %d 23:59:59", c.year, c.month, end, c.lastDay)
		}
		if end.Year() != c.year {
			t.Errorf("%d-%02d end rolled into %d", c.year, c.month, end.Year())
		}
	}
}

func TestParseDate(t *testing.T) {
	loc := time.FixedZone("EST", -5*3600)

	got, err := ParseDate("2024-03-05", loc)
	if err != nil {
		t.Fatalf("ParseDate error: %v", err)
	}
	if !got.Equal(time.Date(2024, time.March, 5, 0, 0, 0, 0, loc)) {
		t.Fatalf("ParseDate = %v", got)
	}

	got, err = ParseDate("2024-03-05T10:00:00Z", loc)
	if err != nil {
		t.Fatalf("ParseDate RFC3339 error: %v", err)
	}
	if !got.Equal(time.Date(2024, time.March, 5, 10, 0, 0, 0, time.UTC)) {
		t.Fatalf("ParseDate RFC3339 = %v", got)
	}

	_, err = ParseDate("05/03/2024", loc)
	var verr *errs.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestValidateMonth(t *testing.T) {
	if err := ValidateMonth(2024, 12); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, m := range []int{0, 13, -1} {
		if err := ValidateMonth(2024, m); err == nil {
			t.Errorf("month %d accepted", m)
		}
	}
}
