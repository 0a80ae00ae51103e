package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/GregMSThompson/expense-backend/internal/handlers"
	"github.com/GregMSThompson/expense-backend/internal/middleware"
)

const requestTimeout = 30 * time.Second

type Options struct {
	Verifier    middleware.TokenVerifier
	CORSOrigins []string
	LocalAuth   bool // mounts /api/auth
}

func NewRouter(deps *handlers.Deps, opts Options) chi.Router {
	r := chi.NewRouter()

	lmw := middleware.NewLoggerMiddleware(deps.Log)
	amw := middleware.NewMiddleware(opts.Verifier, deps.ResponseHandler)

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(lmw.LoggerMiddleware)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		ExposedHeaders: []string{"Content-Disposition"},
		MaxAge:         300,
	}))

	r.Get("/health", handlers.Health)

	r.Route("/api", func(r chi.Router) {
		if opts.LocalAuth {
			r.Mount("/auth", handlers.NewAuthHandlers(deps).AuthRoutes())
		}

		r.Group(func(r chi.Router) {
			r.Use(amw.Auth)
			r.Use(chimiddleware.Timeout(requestTimeout))

			ch := handlers.NewCategoryHandlers(deps)
			r.Mount("/categories", ch.CategoryRoutes())
			r.Post("/seed", ch.Seed)

			r.Mount("/users", handlers.NewUserHandlers(deps).UserRoutes())
			r.Mount("/transactions", handlers.NewTransactionHandlers(deps).TransactionRoutes())
			r.Mount("/reports", handlers.NewReportHandlers(deps).ReportRoutes())
			r.Mount("/budgets", handlers.NewBudgetHandlers(deps).BudgetRoutes())

			if deps.PlaidSvc != nil && deps.BankSvc != nil {
				r.Mount("/plaid", handlers.NewPlaidHandlers(deps).PlaidRoutes())
			}
			if deps.AISvc != nil {
				r.Mount("/ai", handlers.NewAIHandlers(deps).AIRoutes())
			}
		})
	})

	return r
}
