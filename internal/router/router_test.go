package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/GregMSThompson/expense-backend/internal/dto"
	"github.com/GregMSThompson/expense-backend/internal/errs"
	"github.com/GregMSThompson/expense-backend/internal/handlers"
	"github.com/GregMSThompson/expense-backend/internal/models"
	"github.com/GregMSThompson/expense-backend/internal/response"
	"github.com/GregMSThompson/expense-backend/pkg/helpers"
	"github.com/GregMSThompson/expense-backend/pkg/logger"
)

type stubVerifier struct{}

func (stubVerifier) VerifyToken(ctx context.Context, token string) (dto.Identity, error) {
	if token != "good" {
		return dto.Identity{}, errs.NewUnauthorizedError("invalid token")
	}
	return dto.Identity{UID: "uid-1"}, nil
}

type stubCategories struct{}

func (stubCategories) ListCategories(ctx context.Context, typ string) ([]models.Category, error) {
	return []models.Category{}, nil
}

func (stubCategories) CreateCategory(ctx context.Context, req dto.CreateCategoryRequest) (*models.Category, error) {
	return &models.Category{}, nil
}

func (stubCategories) SeedDefaults(ctx context.Context) (dto.SeedResult, error) {
	return dto.SeedResult{}, nil
}

func newTestRouter(localAuth bool) http.Handler {
	log := logger.FromContext(helpers.TestCtx())
	deps := &handlers.Deps{
		Log:             log,
		ResponseHandler: response.New(log),
		CategorySvc:     stubCategories{},
	}
	return NewRouter(deps, Options{
		Verifier:    stubVerifier{},
		CORSOrigins: []string{"*"},
		LocalAuth:   localAuth,
	})
}

func do(h http.Handler, method, target, token string) int {
	req := httptest.NewRequest(method, target, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr.Code
}

func TestHealthIsPublic(t *testing.T) {
	if code := do(newTestRouter(false), http.MethodGet, "/health", ""); code != http.StatusOK {
		t.Fatalf("/health = %d", code)
	}
}

func TestAPIRequiresBearerToken(t *testing.T) {
	h := newTestRouter(false)
	if code := do(h, http.MethodGet, "/api/categories", ""); code != http.StatusUnauthorized {
		t.Fatalf("no token = %d, want 401", code)
	}
	if code := do(h, http.MethodGet, "/api/categories", "bad"); code != http.StatusUnauthorized {
		t.Fatalf("bad token = %d, want 401", code)
	}
	if code := do(h, http.MethodGet, "/api/categories", "good"); code != http.StatusOK {
		t.Fatalf("good token = %d, want 200", code)
	}
	if code := do(h, http.MethodPost, "/api/seed", "good"); code != http.StatusOK {
		t.Fatalf("seed = %d, want 200", code)
	}
}

func TestOptionalRoutes(t *testing.T) {
	h := newTestRouter(false)
	if code := do(h, http.MethodPost, "/api/auth/login", ""); code != http.StatusNotFound && code != http.StatusUnauthorized {
		t.Fatalf("auth routes must not be public without local auth, got %d", code)
	}
	if code := do(h, http.MethodPost, "/api/plaid/sync", "good"); code != http.StatusNotFound {
		t.Fatalf("plaid routes mounted without a service: %d", code)
	}
	if code := do(h, http.MethodPost, "/api/ai/query", "good"); code != http.StatusNotFound {
		t.Fatalf("ai routes mounted without a service: %d", code)
	}
}
