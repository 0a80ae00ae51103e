package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/GregMSThompson/expense-backend/internal/dto"
	"github.com/GregMSThompson/expense-backend/internal/models"
)

type fakeCategories struct{ seeded int }

func (f *fakeCategories) ListCategories(ctx context.Context, typ string) ([]models.Category, error) {
	return []models.Category{{CategoryID: "c1", Name: "Food", Type: models.TransactionExpense}}, nil
}

func (f *fakeCategories) SeedDefaults(ctx context.Context) (dto.SeedResult, error) {
	f.seeded++
	return dto.SeedResult{Added: 14}, nil
}

type fakeReports struct {
	uid         string
	year, month *int
}

func (f *fakeReports) MonthlyReport(ctx context.Context, uid string, year, month *int) (dto.MonthlyReport, error) {
	f.uid, f.year, f.month = uid, year, month
	return dto.MonthlyReport{Year: 2025, Month: 4, TotalExpense: decimal.NewFromInt(10)}, nil
}

type fakeBudgets struct{}

func (fakeBudgets) Alerts(ctx context.Context, uid string) ([]dto.BudgetAlert, error) {
	return []dto.BudgetAlert{{Type: dto.BudgetWarning, CategoryName: "Food"}}, nil
}

type fakeExporter struct {
	uid    string
	filter dto.TransactionFilter
}

func (f *fakeExporter) ExportCSV(ctx context.Context, uid string, filter dto.TransactionFilter) (string, error) {
	f.uid, f.filter = uid, filter
	return "Date,Type,Category,Amount,Note,Payment Method", nil
}

type fixture struct {
	categories *fakeCategories
	reports    *fakeReports
	exporter   *fakeExporter
	closed     bool
}

func run(t *testing.T, args ...string) (*fixture, string, error) {
	t.Helper()
	f := &fixture{categories: &fakeCategories{}, reports: &fakeReports{}, exporter: &fakeExporter{}}
	factory := func(ctx context.Context) (*app, error) {
		return &app{
			categories:   f.categories,
			reports:      f.reports,
			budgets:      fakeBudgets{},
			transactions: f.exporter,
			close:        func() { f.closed = true },
		}, nil
	}

	cmd := newRootCmd(factory)
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return f, buf.String(), err
}

func TestSeedCommand(t *testing.T) {
	f, out, err := run(t, "seed")
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if f.categories.seeded != 1 || !strings.Contains(out, "added 14 categories") {
		t.Fatalf("seeded=%d out=%q", f.categories.seeded, out)
	}
	if !f.closed {
		t.Fatalf("app must be closed after the command")
	}
}

func TestCategoriesCommand(t *testing.T) {
	_, out, err := run(t, "categories")
	if err != nil {
		t.Fatalf("categories: %v", err)
	}
	if !strings.Contains(out, "Food") || !strings.Contains(out, "NAME") {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestReportCommandFlags(t *testing.T) {
	f, out, err := run(t, "report", "--uid", "u1", "--year", "2025", "--month", "4")
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if f.reports.uid != "u1" || f.reports.year == nil || *f.reports.year != 2025 || *f.reports.month != 4 {
		t.Fatalf("unexpected call: %+v", f.reports)
	}
	if !strings.Contains(out, `"month": 4`) {
		t.Fatalf("expected JSON report, got %q", out)
	}
}

func TestReportCommandDefaultsMonth(t *testing.T) {
	f, _, err := run(t, "report", "--uid", "u1")
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if f.reports.year != nil || f.reports.month != nil {
		t.Fatalf("unset flags must be nil, got %v/%v", f.reports.year, f.reports.month)
	}
}

func TestReportCommandRequiresUID(t *testing.T) {
	if _, _, err := run(t, "report"); err == nil {
		t.Fatalf("expected missing --uid error")
	}
}

func TestAlertsCommand(t *testing.T) {
	_, out, err := run(t, "alerts", "--uid", "u1")
	if err != nil {
		t.Fatalf("alerts: %v", err)
	}
	if !strings.Contains(out, `"warning"`) {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestExportCommand(t *testing.T) {
	f, out, err := run(t, "export", "--uid", "u1", "--from", "2025-01-01", "--to", "2025-01-31", "--type", "expense")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	want := dto.TransactionFilter{Type: "expense", StartDate: "2025-01-01", EndDate: "2025-01-31"}
	if f.exporter.uid != "u1" || f.exporter.filter != want {
		t.Fatalf("unexpected export call: %+v", f.exporter)
	}
	if !strings.HasPrefix(out, "Date,Type,Category") {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestFactoryErrorStopsCommand(t *testing.T) {
	boom := errors.New("no credentials")
	cmd := newRootCmd(func(ctx context.Context) (*app, error) { return nil, boom })
	cmd.SetArgs([]string{"seed"})
	cmd.SetOut(&bytes.Buffer{})
	if err := cmd.ExecuteContext(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected factory error, got %v", err)
	}
}
