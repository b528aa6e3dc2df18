package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	CatalogSanity   = "sanity"
	CatalogPostgres = "postgres"
)

type Config struct {
	Port        string
	JWTSecret   string
	AdminAPIKey string
	CORSOrigins []string
	SessionTTL  time.Duration
	HTTPTimeout time.Duration
	Debug       bool

	CatalogDriver string
	Sanity        Sanity
	Database      Database

	Stripe  Stripe
	NATSURL string
}

type Sanity struct {
	ProjectID  string
	Dataset    string
	APIVersion string
	Token      string
	UseCDN     bool
}

type Database struct {
	URL      string
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

// Enabled reports whether any connection setting was given.
func (d Database) Enabled() bool {
	return d.URL != "" || d.Host != ""
}

// DSN returns DATABASE_URL as is, or a key/value DSN built from the DB_* settings.
func (d Database) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		d.Host, d.User, d.Password, d.Name, d.Port,
	)
}

type Stripe struct {
	SecretKey     string
	WebhookSecret string
	APIURL        string
	SuccessURL    string
	CancelURL     string
	Currency      string
}

func (s Stripe) Enabled() bool { return s.SecretKey != "" }

// Load reads .env (if present) and then the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from getenv and validates it.
func FromEnv(getenv func(string) string) (*Config, error) {
	r := reader{getenv: getenv}

	cfg := &Config{
		Port:        r.str("PORT", "8080"),
		JWTSecret:   r.str("JWT_SECRET", ""),
		AdminAPIKey: r.str("ADMIN_API_KEY", ""),
		CORSOrigins: r.list("CORS_ORIGINS", []string{"*"}),
		SessionTTL:  r.duration("SESSION_TTL", 24*time.Hour),
		HTTPTimeout: r.duration("HTTP_CLIENT_TIMEOUT", 10*time.Second),
		Debug:       r.boolean("DEBUG", false),

		CatalogDriver: strings.ToLower(r.str("CATALOG_DRIVER", CatalogSanity)),
		Sanity: Sanity{
			ProjectID:  r.str("SANITY_PROJECT_ID", ""),
			Dataset:    r.str("SANITY_DATASET", "production"),
			APIVersion: r.str("SANITY_API_VERSION", "2024-12-16"),
			Token:      r.str("SANITY_TOKEN", ""),
			UseCDN:     r.boolean("SANITY_USE_CDN", true),
		},
		Database: Database{
			URL:      r.str("DATABASE_URL", ""),
			Host:     r.str("DB_HOST", ""),
			Port:     r.str("DB_PORT", "5432"),
			User:     r.str("DB_USER", ""),
			Password: r.str("DB_PASSWORD", ""),
			Name:     r.str("DB_NAME", ""),
		},
		Stripe: Stripe{
			SecretKey:     r.str("STRIPE_SECRET_KEY", ""),
			WebhookSecret: r.str("STRIPE_WEBHOOK_SECRET", ""),
			APIURL:        r.str("STRIPE_API_URL", "https://api.stripe.com"),
			SuccessURL:    r.str("CHECKOUT_SUCCESS_URL", ""),
			CancelURL:     r.str("CHECKOUT_CANCEL_URL", ""),
			Currency:      strings.ToLower(r.str("CHECKOUT_CURRENCY", "usd")),
		},
		NATSURL: r.str("NATS_URL", ""),
	}

	if len(r.errs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %s", strings.Join(r.errs, "; "))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every missing or conflicting setting at once.
func (c *Config) Validate() error {
	var missing []string
	if c.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}

	switch c.CatalogDriver {
	case CatalogSanity:
		if c.Sanity.ProjectID == "" {
			missing = append(missing, "SANITY_PROJECT_ID")
		}
	case CatalogPostgres:
		if !c.Database.Enabled() {
			missing = append(missing, "DATABASE_URL or DB_HOST")
		}
	default:
		return fmt.Errorf("invalid configuration: CATALOG_DRIVER must be %q or %q, got %q", CatalogSanity, CatalogPostgres, c.CatalogDriver)
	}

	if c.Stripe.Enabled() {
		if c.Stripe.SuccessURL == "" {
			missing = append(missing, "CHECKOUT_SUCCESS_URL")
		}
		if c.Stripe.CancelURL == "" {
			missing = append(missing, "CHECKOUT_CANCEL_URL")
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("invalid configuration: missing %s", strings.Join(missing, ", "))
	}
	return nil
}

type reader struct {
	getenv func(string) string
	errs   []string
}

func (r *reader) str(key, def string) string {
	if v := strings.TrimSpace(r.getenv(key)); v != "" {
		return v
	}
	return def
}

func (r *reader) boolean(key string, def bool) bool {
	v := strings.TrimSpace(r.getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Sprintf("%s: %q is not a boolean", key, v))
		return def
	}
	return b
}

func (r *reader) duration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(r.getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		r.errs = append(r.errs, fmt.Sprintf("%s: %q is not a positive duration", key, v))
		return def
	}
	return d
}

func (r *reader) list(key string, def []string) []string {
	v := strings.TrimSpace(r.getenv(key))
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
