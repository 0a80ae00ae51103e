package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/GregMSThompson/expense-backend/internal/crypto"
	"github.com/GregMSThompson/expense-backend/internal/dto"
	"github.com/GregMSThompson/expense-backend/internal/errs"
	"github.com/GregMSThompson/expense-backend/internal/models"
	"github.com/GregMSThompson/expense-backend/pkg/logger"
)

const forgotPasswordMessage = "If that email exists, a reset link has been sent"

type userASStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	UpdateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, uid string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

type resetASStore interface {
	Save(ctx context.Context, tokenHash string, reset models.PasswordReset) error
	Consume(ctx context.Context, tokenHash string) (*models.PasswordReset, error)
}

type tokenIssuer interface {
	Issue(uid, email string) (string, error)
}

type resetMailer interface {
	SendPasswordReset(ctx context.Context, to, token string, validFor time.Duration) error
}

type authService struct {
	users    userASStore
	resets   resetASStore
	tokens   tokenIssuer
	mailer   resetMailer
	resetTTL time.Duration
	// echoResetToken returns the reset token in the forgot-password response.
	// Local development only: it hands the token to an unauthenticated caller.
	echoResetToken bool
	clockNow       func() time.Time
	newID          func() string
}

func NewAuthService(users userASStore, resets resetASStore, tokens tokenIssuer, mailer resetMailer, resetTTL time.Duration, echoResetToken bool) *authService {
	return &authService{
		users:          users,
		resets:         resets,
		tokens:         tokens,
		mailer:         mailer,
		resetTTL:       resetTTL,
		echoResetToken: echoResetToken,
		clockNow:       time.Now,
		newID:          uuid.NewString,
	}
}

func (s *authService) Signup(ctx context.Context, req dto.SignupRequest) (dto.AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		return dto.AuthResponse{}, errs.NewValidationError("email and password are required")
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name, _, _ = strings.Cut(email, "@")
	}

	hash, err := crypto.HashPassword(req.Password)
	if err != nil {
		return dto.AuthResponse{}, err
	}

	now := s.clockNow()
	user := &models.User{
		UID:          s.newID(),
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		var exists *errs.AlreadyExistsError
		if errors.As(err, &exists) {
			return dto.AuthResponse{}, errs.NewAlreadyExistsError("email already registered")
		}
		return dto.AuthResponse{}, err
	}

	token, err := s.tokens.Issue(user.UID, user.Email)
	if err != nil {
		return dto.AuthResponse{}, err
	}

	logger.FromContext(ctx).Info("user signed up", "uid", user.UID)
	return dto.AuthResponse{Token: token, User: user}, nil
}

func (s *authService) Login(ctx context.Context, req dto.LoginRequest) (dto.AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		return dto.AuthResponse{}, errs.NewValidationError("email and password are required")
	}

	invalid := errs.NewUnauthorizedError("invalid email or password")

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		var nf *errs.NotFoundError
		if errors.As(err, &nf) {
			return dto.AuthResponse{}, invalid
		}
		return dto.AuthResponse{}, err
	}

	ok, err := crypto.CheckPassword(user.PasswordHash, req.Password)
	if err != nil {
		logger.FromContext(ctx).Warn("stored password hash unusable", "uid", user.UID, "error", err)
		return dto.AuthResponse{}, invalid
	}
	if !ok {
		return dto.AuthResponse{}, invalid
	}

	token, err := s.tokens.Issue(user.UID, user.Email)
	if err != nil {
		return dto.AuthResponse{}, err
	}
	return dto.AuthResponse{Token: token, User: user}, nil
}

// ForgotPassword answers the same way whether or not the email is known,
// unless reset tokens are echoed for local development.
func (s *authService) ForgotPassword(ctx context.Context, req dto.ForgotPasswordRequest) (dto.ForgotPasswordResponse, error) {
	resp := dto.ForgotPasswordResponse{Message: forgotPasswordMessage}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return resp, errs.NewValidationError("email is required")
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		var nf *errs.NotFoundError
		if errors.As(err, &nf) {
			return resp, nil
		}
		return resp, err
	}

	token, err := crypto.NewResetToken()
	if err != nil {
		return resp, err
	}

	now := s.clockNow()
	err = s.resets.Save(ctx, crypto.HashToken(token), models.PasswordReset{
		UID:       user.UID,
		ExpiresAt: now.Add(s.resetTTL),
		CreatedAt: now,
	})
	if err != nil {
		return resp, err
	}

	if s.echoResetToken {
		resp.ResetToken = token
	}
	if s.mailer == nil {
		if !s.echoResetToken {
			logger.FromContext(ctx).Warn("no mailer configured, password reset cannot be delivered", "uid", user.UID)
		}
		return resp, nil
	}
	if err := s.mailer.SendPasswordReset(ctx, user.Email, token, s.resetTTL); err != nil {
		return resp, err
	}
	return resp, nil
}

func (s *authService) ResetPassword(ctx context.Context, req dto.ResetPasswordRequest) error {
	token := strings.TrimSpace(req.Token)
	if token == "" || req.NewPassword == "" {
		return errs.NewValidationError("token and new password are required")
	}

	invalid := errs.NewValidationError("invalid or expired reset token")

	reset, err := s.resets.Consume(ctx, crypto.HashToken(token))
	if err != nil {
		var nf *errs.NotFoundError
		if errors.As(err, &nf) {
			return invalid
		}
		return err
	}
	if !s.clockNow().Before(reset.ExpiresAt) {
		return invalid
	}

	user, err := s.users.GetUser(ctx, reset.UID)
	if err != nil {
		return err
	}

	hash, err := crypto.HashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	user.UpdatedAt = s.clockNow()
	if err := s.users.UpdateUser(ctx, user); err != nil {
		return err
	}

	logger.FromContext(ctx).Info("password reset", "uid", user.UID)
	return nil
}
