package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"cloud.google.com/go/firestore"
	kms "cloud.google.com/go/kms/apiv1"
	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"firebase.google.com/go/v4/auth"

	mailclient "github.com/GregMSThompson/expense-backend/internal/client/mail"
	plaidclient "github.com/GregMSThompson/expense-backend/internal/client/plaid"
	vertexclient "github.com/GregMSThompson/expense-backend/internal/client/vertex"
	"github.com/GregMSThompson/expense-backend/internal/config"
	"github.com/GregMSThompson/expense-backend/internal/crypto"
	"github.com/GregMSThompson/expense-backend/pkg/logger"
)

type Bootstrap struct {
	Log           *slog.Logger
	Location      *time.Location
	Firestore     *firestore.Client
	Firebase      *auth.Client
	KMS           *kms.KeyManagementClient
	Secrets       *secretmanager.Client
	JWT           *crypto.JWT
	PlaidAdapter  *plaidclient.Adapter
	VertexAdapter *vertexclient.Adapter
	Mailer        *mailclient.Sender
}

// Core sets up what every entrypoint needs: logging, the report time zone
// and Firestore.
func Core(ctx context.Context, cfg *config.Config) (*Bootstrap, error) {
	var err error
	bs := new(Bootstrap)

	bs.Log = logger.New(cfg.LogLevel, logger.HandlerFor(cfg.LogFormat))
	slog.SetDefault(bs.Log)

	bs.Location, err = cfg.Location()
	if err != nil {
		return bs, err
	}
	bs.Firestore, err = InitFirestore(ctx, cfg.ProjectID, cfg.FirestoreDB)
	if err != nil {
		return bs, err
	}
	return bs, nil
}

// Run builds the full API dependency set. Optional integrations stay nil
// when they are not configured.
func Run(ctx context.Context, cfg *config.Config) (*Bootstrap, error) {
	bs, err := Core(ctx, cfg)
	if err != nil {
		return bs, err
	}

	if cfg.AuthProvider == config.AuthFirebase {
		if bs.Firebase, err = InitFirebase(ctx, cfg.ProjectID); err != nil {
			return bs, err
		}
	}

	if cfg.KMSKeyName != "" {
		if bs.KMS, err = kms.NewKeyManagementClient(ctx); err != nil {
			return bs, err
		}
	}

	if cfg.AuthProvider == config.AuthLocal {
		secret := cfg.JWTSecret
		if cfg.JWTSecretName != "" {
			if bs.Secrets, err = secretmanager.NewClient(ctx); err != nil {
				return bs, err
			}
			if secret, err = crypto.ReadSecret(ctx, bs.Secrets, cfg.ProjectID, cfg.JWTSecretName); err != nil {
				return bs, err
			}
		}
		if secret == "" {
			return bs, errors.New("jwt signing secret is empty")
		}
		bs.JWT = crypto.NewJWT([]byte(secret), cfg.JWTTTL)
	}

	if cfg.PlaidEnabled() {
		bs.PlaidAdapter = plaidclient.NewAdapter(cfg.PlaidClientID, cfg.PlaidSecret, cfg.PlaidEnvironment, bs.Location)
	}

	if cfg.AIEnabled() {
		bs.VertexAdapter, err = vertexclient.NewAdapter(ctx, bs.Log, cfg.ProjectID, cfg.Region, cfg.VertexModel)
		if err != nil {
			return bs, err
		}
	}

	if cfg.MailEnabled() {
		bs.Mailer = mailclient.NewSender(mailclient.Config{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SenderEmail,
		})
	}

	bs.Log.Info("bootstrap complete",
		"auth", cfg.AuthProvider,
		"timezone", bs.Location.String(),
		"plaid", cfg.PlaidEnabled(),
		"ai", cfg.AIEnabled(),
		"mail", cfg.MailEnabled())

	return bs, nil
}

func (bs *Bootstrap) Close() {
	if bs.VertexAdapter != nil {
		_ = bs.VertexAdapter.Close()
	}
	if bs.KMS != nil {
		if err := bs.KMS.Close(); err != nil {
			bs.Log.Error("kms close failed", "error", err)
		}
	}
	if bs.Secrets != nil {
		if err := bs.Secrets.Close(); err != nil {
			bs.Log.Error("secret manager close failed", "error", err)
		}
	}
	if bs.Firestore != nil {
		if err := bs.Firestore.Close(); err != nil {
			bs.Log.Error("firestore close failed", "error", err)
		}
	}
}
