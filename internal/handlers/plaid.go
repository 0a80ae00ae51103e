package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/GregMSThompson/expense-backend/internal/dto"
	"github.com/GregMSThompson/expense-backend/internal/errs"
	"github.com/GregMSThompson/expense-backend/internal/middleware"
	"github.com/GregMSThompson/expense-backend/internal/models"
	"github.com/GregMSThompson/expense-backend/internal/response"
)

type plaidService interface {
	CreateLinkToken(ctx context.Context, uid string) (string, error)
	ExchangePublicToken(ctx context.Context, uid, publicToken, institutionName string) (string, error)
	SyncTransactions(ctx context.Context, uid string, bankID *string) (dto.PlaidServiceSyncResult, error)
}

type bankService interface {
	ListBanks(ctx context.Context, uid string) ([]*models.Bank, error)
	DeleteBank(ctx context.Context, uid, bankID string) error
}

type plaidHandlers struct {
	ResponseHandler response.ResponseHandler
	PlaidSvc        plaidService
	BankSvc         bankService
}

func NewPlaidHandlers(deps *Deps) *plaidHandlers {
	return &plaidHandlers{
		ResponseHandler: deps.ResponseHandler,
		PlaidSvc:        deps.PlaidSvc,
		BankSvc:         deps.BankSvc,
	}
}

func (h *plaidHandlers) PlaidRoutes() chi.Router {
	r := chi.NewRouter()
	r.Post("/link-token", h.CreateLinkToken)
	r.Post("/sync", h.SyncTransactions)
	r.Route("/banks", func(r chi.Router) {
		r.Get("/", h.ListBanks)
		r.Post("/", h.LinkBank)
		r.Delete("/{bankId}", h.DeleteBank)
	})
	return r
}

func (h *plaidHandlers) CreateLinkToken(w http.ResponseWriter, r *http.Request) {
	token, err := h.PlaidSvc.CreateLinkToken(r.Context(), middleware.UID(r.Context()))
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, dto.LinkTokenResponse{LinkToken: token})
}

// LinkBank swaps the public token from Plaid Link for a stored bank connection.
func (h *plaidHandlers) LinkBank(w http.ResponseWriter, r *http.Request) {
	var req dto.LinkBankRequest
	if err := decodeJSON(r, &req); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}

	bankID, err := h.PlaidSvc.ExchangePublicToken(r.Context(), middleware.UID(r.Context()), req.PublicToken, strings.TrimSpace(req.InstitutionName))
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusCreated, dto.LinkBankResponse{BankID: bankID})
}

func (h *plaidHandlers) ListBanks(w http.ResponseWriter, r *http.Request) {
	banks, err := h.BankSvc.ListBanks(r.Context(), middleware.UID(r.Context()))
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	if banks == nil {
		banks = []*models.Bank{}
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, banks)
}

func (h *plaidHandlers) DeleteBank(w http.ResponseWriter, r *http.Request) {
	bankID := strings.TrimSpace(chi.URLParam(r, "bankId"))
	if bankID == "" {
		h.ResponseHandler.HandleError(w, r, errs.NewValidationError("bankId is required"))
		return
	}

	if err := h.BankSvc.DeleteBank(r.Context(), middleware.UID(r.Context()), bankID); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, dto.LinkBankResponse{BankID: bankID})
}

func (h *plaidHandlers) SyncTransactions(w http.ResponseWriter, r *http.Request) {
	var req dto.SyncRequest
	if err := decodeOptionalJSON(r, &req); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	if req.BankID != nil && strings.TrimSpace(*req.BankID) == "" {
		req.BankID = nil
	}

	result, err := h.PlaidSvc.SyncTransactions(r.Context(), middleware.UID(r.Context()), req.BankID)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, result)
}
