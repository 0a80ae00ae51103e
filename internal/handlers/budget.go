package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/GregMSThompson/expense-backend/internal/dto"
	"github.com/GregMSThompson/expense-backend/internal/middleware"
	"github.com/GregMSThompson/expense-backend/internal/models"
	"github.com/GregMSThompson/expense-backend/internal/response"
)

type budgetService interface {
	ListStatuses(ctx context.Context, uid string, year, month *int) ([]dto.BudgetStatus, error)
	UpsertBudget(ctx context.Context, uid string, req dto.UpsertBudgetRequest) (*models.Budget, error)
	DeleteBudget(ctx context.Context, uid, budgetID string) error
	Alerts(ctx context.Context, uid string) ([]dto.BudgetAlert, error)
}

type budgetHandlers struct {
	ResponseHandler response.ResponseHandler
	BudgetSvc       budgetService
}

func NewBudgetHandlers(deps *Deps) *budgetHandlers {
	return &budgetHandlers{
		ResponseHandler: deps.ResponseHandler,
		BudgetSvc:       deps.BudgetSvc,
	}
}

func (h *budgetHandlers) BudgetRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ListBudgets)
	r.Post("/", h.UpsertBudget)
	r.Get("/alerts", h.Alerts) // must be before /{id}
	r.Delete("/{id}", h.DeleteBudget)
	return r
}

func (h *budgetHandlers) ListBudgets(w http.ResponseWriter, r *http.Request) {
	year, month, err := yearMonthQuery(r)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}

	statuses, err := h.BudgetSvc.ListStatuses(r.Context(), middleware.UID(r.Context()), year, month)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, statuses)
}

func (h *budgetHandlers) UpsertBudget(w http.ResponseWriter, r *http.Request) {
	var req dto.UpsertBudgetRequest
	if err := decodeJSON(r, &req); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}

	budget, err := h.BudgetSvc.UpsertBudget(r.Context(), middleware.UID(r.Context()), req)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, budget)
}

func (h *budgetHandlers) DeleteBudget(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.BudgetSvc.DeleteBudget(r.Context(), middleware.UID(r.Context()), id); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, nil)
}

func (h *budgetHandlers) Alerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := h.BudgetSvc.Alerts(r.Context(), middleware.UID(r.Context()))
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, alerts)
}
