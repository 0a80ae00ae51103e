package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/GregMSThompson/expense-backend/internal/bootstrap"
	"github.com/GregMSThompson/expense-backend/internal/config"
	"github.com/GregMSThompson/expense-backend/internal/dto"
	"github.com/GregMSThompson/expense-backend/internal/models"
	"github.com/GregMSThompson/expense-backend/internal/services"
	"github.com/GregMSThompson/expense-backend/internal/store"
)

// app is the slice of the service layer the admin commands drive.
type app struct {
	categories interface {
		ListCategories(ctx context.Context, typ string) ([]models.Category, error)
		SeedDefaults(ctx context.Context) (dto.SeedResult, error)
	}
	reports interface {
		MonthlyReport(ctx context.Context, uid string, year, month *int) (dto.MonthlyReport, error)
	}
	budgets interface {
		Alerts(ctx context.Context, uid string) ([]dto.BudgetAlert, error)
	}
	transactions interface {
		ExportCSV(ctx context.Context, uid string, filter dto.TransactionFilter) (string, error)
	}
	close func()
}

type appFactory func(ctx context.Context) (*app, error)

func newFirestoreApp(ctx context.Context) (*app, error) {
	cfg := config.New()
	bs, err := bootstrap.Core(ctx, cfg)
	if err != nil {
		if bs.Firestore != nil {
			bs.Close()
		}
		return nil, err
	}

	tstore := store.NewTransactionStore(bs.Firestore)
	return &app{
		categories:   services.NewCategoryService(store.NewCategoryStore(bs.Firestore)),
		reports:      services.NewReportService(tstore, bs.Location),
		budgets:      services.NewBudgetService(store.NewBudgetStore(bs.Firestore), tstore, bs.Location),
		transactions: services.NewTransactionService(tstore, bs.Location),
		close:        bs.Close,
	}, nil
}

func main() {
	_ = godotenv.Load()
	decimal.MarshalJSONWithoutQuotes = true

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(newFirestoreApp).ExecuteContext(ctx); err != nil {
		slog.Error("command failed", "error", err)
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
