package report

import (
	"strings"
	"time"

	"github.com/GregMSThompson/expense-backend/internal/errs"
)

const dateLayout = "2006-01-02"

// MonthWindow returns the inclusive bounds of a calendar month in loc:
// day 1 at 00:00:00 through the last day at 23:59:59. time.Date normalizes
// day 0 of the next month to the last day of this one, which covers leap years.
func MonthWindow(year, month int, loc *time.Location) (start, end time.Time) {
	if loc == nil {
		loc = time.Local
	}
	start = time.Date(year, time.Month(month), 1, 0, 0, 0, 0, loc)
	end = time.Date(year, time.Month(month)+1, 0, 23, 59, 59, 0, loc)
	return start, end
}

// InWindow reports whether t lies in [start, end].
func InWindow(t, start, end time.Time) bool {
	return !t.Before(start) && !t.After(end)
}

// ParseDate accepts a calendar date (YYYY-MM-DD, midnight in loc) or an
// RFC 3339 timestamp.
func ParseDate(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if loc == nil {
		loc = time.Local
	}
	if t, err := time.ParseInLocation(dateLayout, value, loc); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Time{}, errs.NewValidationError("invalid date: " + value)
}

// ValidateMonth rejects months outside 1-12 and implausible years.
func ValidateMonth(year, month int) error {
	if month < 1 || month > 12 {
		return errs.NewValidationError("month must be between 1 and 12")
	}
	if year < 1970 || year > 9999 {
		return errs.NewValidationError("year is out of range")
	}
	return nil
}
