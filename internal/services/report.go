package services

import (
	"context"
	"time"

	"github.com/GregMSThompson/expense-backend/internal/dto"
	"github.com/GregMSThompson/expense-backend/internal/models"
	"github.com/GregMSThompson/expense-backend/internal/report"
	"github.com/GregMSThompson/expense-backend/pkg/helpers"
)

type reportService struct {
	txs      transactionSource
	loc      *time.Location
	clockNow func() time.Time
}

func NewReportService(txs transactionSource, loc *time.Location) *reportService {
	return &reportService{
		txs:      txs,
		loc:      orLocal(loc),
		clockNow: time.Now,
	}
}

// MonthlyReport aggregates one month; nil year or month default to the
// current one.
func (s *reportService) MonthlyReport(ctx context.Context, uid string, year, month *int) (dto.MonthlyReport, error) {
	y, m, err := resolveMonth(year, month, s.clockNow().In(s.loc))
	if err != nil {
		return dto.MonthlyReport{}, err
	}

	txs, err := monthTransactions(ctx, s.txs, uid, y, m, s.loc)
	if err != nil {
		return dto.MonthlyReport{}, err
	}
	return report.ComputeMonthlyReport(txs, y, m, s.loc), nil
}

func resolveMonth(year, month *int, now time.Time) (int, int, error) {
	y := helpers.ValueOr(year, now.Year())
	m := helpers.ValueOr(month, int(now.Month()))
	if err := report.ValidateMonth(y, m); err != nil {
		return 0, 0, err
	}
	return y, m, nil
}

// monthTransactions fetches exactly the rows inside the month window.
func monthTransactions(ctx context.Context, src transactionSource, uid string, year, month int, loc *time.Location) ([]models.Transaction, error) {
	start, end := report.MonthWindow(year, month, loc)
	return collectTransactions(ctx, src, uid, dto.TransactionQuery{
		DateFrom: &start,
		DateTo:   &end,
	})
}

func orLocal(loc *time.Location) *time.Location {
	if loc == nil {
		return time.Local
	}
	return loc
}
