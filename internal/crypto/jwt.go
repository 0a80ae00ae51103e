package crypto

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/GregMSThompson/expense-backend/internal/dto"
	"github.com/GregMSThompson/expense-backend/internal/errs"
)

const issuer = "expense-backend"

type tokenClaims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// JWT issues and verifies HS256 bearer tokens for local accounts.
type JWT struct {
	secret   []byte
	ttl      time.Duration
	clockNow func() time.Time
}

func NewJWT(secret []byte, ttl time.Duration) *JWT {
	return &JWT{secret: secret, ttl: ttl, clockNow: time.Now}
}

func (j *JWT) Issue(uid, email string) (string, error) {
	now := j.clockNow()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   uid,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.ttl)),
		},
	})
	signed, err := token.SignedString(j.secret)
	if err != nil {
		return "", errs.NewEncryptionError("failed to sign token", err)
	}
	return signed, nil
}

// VerifyToken satisfies middleware.TokenVerifier.
func (j *JWT) VerifyToken(_ context.Context, raw string) (dto.Identity, error) {
	var claims tokenClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return j.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(j.clockNow),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return dto.Identity{}, errs.NewUnauthorizedError("token expired")
		}
		return dto.Identity{}, errs.NewUnauthorizedError("invalid token")
	}
	if claims.Subject == "" {
		return dto.Identity{}, errs.NewUnauthorizedError("invalid token")
	}
	return dto.Identity{UID: claims.Subject, Email: claims.Email}, nil
}
