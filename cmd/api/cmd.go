package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/GregMSThompson/expense-backend/internal/bootstrap"
	"github.com/GregMSThompson/expense-backend/internal/config"
	"github.com/GregMSThompson/expense-backend/internal/crypto"
	"github.com/GregMSThompson/expense-backend/internal/handlers"
	"github.com/GregMSThompson/expense-backend/internal/middleware"
	"github.com/GregMSThompson/expense-backend/internal/response"
	"github.com/GregMSThompson/expense-backend/internal/router"
	"github.com/GregMSThompson/expense-backend/internal/services"
	"github.com/GregMSThompson/expense-backend/internal/store"
)

func exitOnError(message string, err error, log *slog.Logger) {
	if err != nil {
		log.Error(message, "error", err)
		os.Exit(1)
	}
}

func main() {
	_ = godotenv.Load()
	decimal.MarshalJSONWithoutQuotes = true

	// bootstrap
	cfg := config.New()
	exitOnError("invalid configuration", cfg.Validate(), slog.Default())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bs, err := bootstrap.Run(ctx, cfg)
	exitOnError("bootstrap failed", err, bs.Log)
	defer bs.Close()

	// stores
	ustore := store.NewUserStore(bs.Firestore)
	tstore := store.NewTransactionStore(bs.Firestore)
	cstore := store.NewCategoryStore(bs.Firestore)
	bgstore := store.NewBudgetStore(bs.Firestore)

	// services
	userv := services.NewUserService(ustore)
	tserv := services.NewTransactionService(tstore, bs.Location)
	cserv := services.NewCategoryService(cstore)
	rserv := services.NewReportService(tstore, bs.Location)
	bgserv := services.NewBudgetService(bgstore, tstore, bs.Location)

	// response handler
	rh := response.New(bs.Log)

	// dependancies
	deps := new(handlers.Deps)
	deps.Log = bs.Log
	deps.ResponseHandler = rh
	deps.UserSvc = userv
	deps.TransactionSvc = tserv
	deps.CategorySvc = cserv
	deps.ReportSvc = rserv
	deps.BudgetSvc = bgserv

	opts := router.Options{CORSOrigins: cfg.CORSOrigins}
	switch cfg.AuthProvider {
	case config.AuthFirebase:
		opts.Verifier = middleware.NewFirebaseVerifier(bs.Firebase)
	default:
		var mailer interface {
			SendPasswordReset(ctx context.Context, to, token string, validFor time.Duration) error
		}
		if bs.Mailer != nil {
			mailer = bs.Mailer
		}
		rstore := store.NewResetStore(bs.Firestore)
		deps.AuthSvc = services.NewAuthService(ustore, rstore, bs.JWT, mailer, cfg.ResetTTL, cfg.ResetTokenInResponse)
		opts.Verifier = bs.JWT
		opts.LocalAuth = true
	}

	if bs.PlaidAdapter != nil && bs.KMS != nil {
		kmsHelper := crypto.NewKMS(bs.KMS, cfg.KMSKeyName)
		bkstore := store.NewBankStore(bs.Firestore, kmsHelper)
		deps.PlaidSvc = services.NewPlaidService(bs.PlaidAdapter, bkstore, tstore)
		deps.BankSvc = services.NewBankService(bkstore, tstore)
	}

	if bs.VertexAdapter != nil {
		astore := store.NewAIStore(bs.Firestore)
		deps.AISvc = services.NewAIService(bs.VertexAdapter, rserv, bgserv, tserv, astore, cfg.AITTL)
	}

	// router
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router.NewRouter(deps, opts),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		bs.Log.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			bs.Log.Error("server shutdown error", "error", err)
		}
	}()

	bs.Log.Info("starting server", "port", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		exitOnError("server start failed", err, bs.Log)
	}
	bs.Log.Info("server stopped")
}
