package mailclient

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"time"

	"github.com/jordan-wright/email"

	"github.com/GregMSThompson/expense-backend/internal/errs"
	"github.com/GregMSThompson/expense-backend/pkg/logger"
)

type Config struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

// Sender delivers account emails over SMTP.
type Sender struct {
	cfg  Config
	send func(e *email.Email, addr string, auth smtp.Auth) error
}

func NewSender(cfg Config) *Sender {
	return &Sender{
		cfg: cfg,
		send: func(e *email.Email, addr string, auth smtp.Auth) error {
			return e.Send(addr, auth)
		},
	}
}

func (s *Sender) SendPasswordReset(ctx context.Context, to, token string, validFor time.Duration) error {
	e := s.passwordResetEmail(to, token, validFor)

	addr := net.JoinHostPort(s.cfg.Host, s.cfg.Port)
	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	if err := s.send(e, addr, auth); err != nil {
		return errs.NewExternalServiceError("smtp", "failed to send password reset email", true, err)
	}

	logger.FromContext(ctx).Info("password reset email sent")
	return nil
}

func (s *Sender) passwordResetEmail(to, token string, validFor time.Duration) *email.Email {
	e := email.NewEmail()
	e.From = s.cfg.From
	e.To = []string{to}
	e.Subject = "Reset your password"

	body := "Hello,\n\n"
	body += "We received a request to reset the password for your expense tracker account.\n"
	body += fmt.Sprintf("Your reset code is:\n\n    %s\n\n", token)
	body += fmt.Sprintf("The code expires in %s. If you did not ask for a reset you can ignore this email.\n", validFor.Round(time.Minute))
	e.Text = []byte(body)
	return e
}
