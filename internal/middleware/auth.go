package middleware

import (
	"context"
	"net/http"
	"strings"

	"firebase.google.com/go/v4/auth"

	"github.com/GregMSThompson/expense-backend/internal/dto"
	"github.com/GregMSThompson/expense-backend/internal/errs"
	"github.com/GregMSThompson/expense-backend/internal/response"
	"github.com/GregMSThompson/expense-backend/pkg/logger"
)

// TokenVerifier resolves a bearer token to the caller's identity.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (dto.Identity, error)
}

type Middleware struct {
	Verifier TokenVerifier
	Resp     response.ResponseHandler
}

func NewMiddleware(verifier TokenVerifier, resp response.ResponseHandler) *Middleware {
	return &Middleware{Verifier: verifier, Resp: resp}
}

// context key
type contextKey string

const (
	UIDKey   contextKey = "uid"
	EmailKey contextKey = "email"
)

// Auth rejects requests without a valid bearer token and stores the
// caller's uid on the request context.
func (m *Middleware) Auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			m.Resp.HandleError(w, r, errs.NewUnauthorizedError("missing Authorization header"))
			return
		}

		parts := strings.Fields(header)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			m.Resp.HandleError(w, r, errs.NewUnauthorizedError("invalid Authorization header"))
			return
		}

		id, err := m.Verifier.VerifyToken(r.Context(), parts[1])
		if err != nil {
			m.Resp.HandleError(w, r, err)
			return
		}

		_, ctx := logger.With(r.Context(), "uid", id.UID)
		ctx = context.WithValue(ctx, UIDKey, id.UID)
		ctx = context.WithValue(ctx, EmailKey, id.Email)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Helper to extract UID
func UID(ctx context.Context) string {
	uid, _ := ctx.Value(UIDKey).(string)
	return uid
}

func Email(ctx context.Context) string {
	email, _ := ctx.Value(EmailKey).(string)
	return email
}

// WithIdentity is used by tests and the admin CLI to act as a user.
func WithIdentity(ctx context.Context, id dto.Identity) context.Context {
	ctx = context.WithValue(ctx, UIDKey, id.UID)
	return context.WithValue(ctx, EmailKey, id.Email)
}

type idTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// FirebaseVerifier checks Firebase ID tokens.
type FirebaseVerifier struct {
	client idTokenVerifier
}

func NewFirebaseVerifier(client *auth.Client) *FirebaseVerifier {
	return &FirebaseVerifier{client: client}
}

func (v *FirebaseVerifier) VerifyToken(ctx context.Context, token string) (dto.Identity, error) {
	t, err := v.client.VerifyIDToken(ctx, token)
	if err != nil {
		return dto.Identity{}, errs.NewUnauthorizedError("invalid or expired token")
	}
	email, _ := t.Claims["email"].(string)
	return dto.Identity{UID: t.UID, Email: email}, nil
}
