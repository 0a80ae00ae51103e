package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/GregMSThompson/expense-backend/internal/dto"
	"github.com/GregMSThompson/expense-backend/internal/middleware"
	"github.com/GregMSThompson/expense-backend/internal/response"
)

type reportService interface {
	MonthlyReport(ctx context.Context, uid string, year, month *int) (dto.MonthlyReport, error)
}

type reportHandlers struct {
	ResponseHandler response.ResponseHandler
	ReportSvc       reportService
}

func NewReportHandlers(deps *Deps) *reportHandlers {
	return &reportHandlers{
		ResponseHandler: deps.ResponseHandler,
		ReportSvc:       deps.ReportSvc,
	}
}

func (h *reportHandlers) ReportRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/monthly", h.Monthly)
	return r
}

// Monthly defaults to the current month when year or month is omitted.
func (h *reportHandlers) Monthly(w http.ResponseWriter, r *http.Request) {
	year, month, err := yearMonthQuery(r)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}

	rep, err := h.ReportSvc.MonthlyReport(r.Context(), middleware.UID(r.Context()), year, month)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, rep)
}
