package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/GregMSThompson/expense-backend/internal/dto"
)

const (
	AuthLocal    = "local"
	AuthFirebase = "firebase"
)

type Config struct {
	Port                 string
	ProjectID            string
	FirestoreDB          string
	Region               string
	LogLevel             string
	LogFormat            string
	Timezone             string
	AuthProvider         string
	JWTSecret            string
	JWTSecretName        string
	JWTTTL               time.Duration
	ResetTTL             time.Duration
	CORSOrigins          []string
	PlaidClientID        string
	PlaidSecret          string
	PlaidEnvironment     dto.PlaidEnvironment
	KMSKeyName           string
	VertexModel          string
	AITTL                time.Duration
	SMTPHost             string
	SMTPPort             string
	SMTPUsername         string
	SMTPPassword         string
	SenderEmail          string
	ResetTokenInResponse bool // local development only: echoes reset tokens to the caller
}

func New() *Config {
	return &Config{
		Port:                 getOr("PORT", "8080"),
		ProjectID:            os.Getenv("PROJECTID"),
		FirestoreDB:          os.Getenv("FIRESTOREDATABASE"),
		Region:               os.Getenv("REGION"),
		LogLevel:             os.Getenv("LOGLEVEL"),
		LogFormat:            os.Getenv("LOGFORMAT"),
		Timezone:             getOr("TIMEZONE", "Local"),
		AuthProvider:         strings.ToLower(getOr("AUTHPROVIDER", AuthLocal)),
		JWTSecret:            os.Getenv("JWTSECRET"),
		JWTSecretName:        os.Getenv("JWTSECRETNAME"),
		JWTTTL:               getDuration("JWTTTL", 7*24*time.Hour),
		ResetTTL:             getDuration("RESETTTL", time.Hour),
		CORSOrigins:          getList("CORSORIGINS", []string{"*"}),
		PlaidClientID:        os.Getenv("PLAIDCLIENTID"),
		PlaidSecret:          os.Getenv("PLAIDSECRET"),
		PlaidEnvironment:     getPlaidEnvironment(os.Getenv("PLAIDENVIRONMENT")),
		KMSKeyName:           os.Getenv("KMSKEYNAME"),
		VertexModel:          os.Getenv("VERTEXMODEL"),
		AITTL:                getDuration("AITTL", 24*time.Hour),
		SMTPHost:             os.Getenv("SMTPHOST"),
		SMTPPort:             getOr("SMTPPORT", "587"),
		SMTPUsername:         os.Getenv("SMTPUSERNAME"),
		SMTPPassword:         os.Getenv("SMTPPASSWORD"),
		SenderEmail:          os.Getenv("SENDEREMAIL"),
		ResetTokenInResponse: getBool("RESETTOKENINRESPONSE"),
	}
}

// Validate catches combinations that would only fail on the first request.
func (c *Config) Validate() error {
	var problems []error
	if c.ProjectID == "" {
		problems = append(problems, errors.New("PROJECTID is required"))
	}
	switch c.AuthProvider {
	case AuthLocal:
		if c.JWTSecret == "" && c.JWTSecretName == "" {
			problems = append(problems, errors.New("local auth needs JWTSECRET or JWTSECRETNAME"))
		}
		if !c.MailEnabled() && !c.ResetTokenInResponse {
			problems = append(problems, errors.New("local auth needs SMTPHOST and SENDEREMAIL to deliver password resets"))
		}
	case AuthFirebase:
	default:
		problems = append(problems, errors.New("AUTHPROVIDER must be local or firebase"))
	}
	if c.PlaidEnabled() && c.KMSKeyName == "" {
		problems = append(problems, errors.New("plaid needs KMSKEYNAME to encrypt access tokens"))
	}
	if c.AIEnabled() && c.Region == "" {
		problems = append(problems, errors.New("VERTEXMODEL needs REGION"))
	}
	if _, err := c.Location(); err != nil {
		problems = append(problems, err)
	}
	return errors.Join(problems...)
}

// Location resolves TIMEZONE, the zone month windows are computed in.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

func (c *Config) PlaidEnabled() bool { return c.PlaidClientID != "" && c.PlaidSecret != "" }
func (c *Config) AIEnabled() bool    { return c.VertexModel != "" }
func (c *Config) MailEnabled() bool  { return c.SMTPHost != "" && c.SenderEmail != "" }

func getPlaidEnvironment(env string) dto.PlaidEnvironment {
	switch env {
	case "sandbox":
		return dto.PlaidSandbox
	case "development":
		return dto.PlaidDevelopment
	default: // "production"
		return dto.PlaidProduction
	}
}

func getOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getDuration accepts Go durations ("36h") or whole seconds.
func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}

// getBool is false unless the variable parses as true.
func getBool(key string) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	return err == nil && v
}

func getList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
