package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	DatabaseURL        string
	RedisURL           string
	PublicBaseURL      string
	CORSAllowedOrigins []string

	CurrencyCode string
	TaxRateBPS   int

	MigsAccessCode   string
	MigsMerchantID   string
	MigsSecureSecret string
	MigsBaseURL      string
	MigsLocale       string
	MigsTestMode     bool

	CheckoutConfirmURL string
	CheckoutFailureURL string

	NotifyEmailEnabled bool
	NotifyEmailFrom    string

	IdempotencyTTL     time.Duration
	CallbackLockTTL    time.Duration
	CallbackRateWindow time.Duration
	CallbackRateMax    int
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		DatabaseURL:        k.String("DATABASE_URL"),
		RedisURL:           k.String("REDIS_URL"),
		PublicBaseURL:      strings.TrimRight(valueOrDefault(k.String("PUBLIC_BASE_URL"), "http://localhost:8080"), "/"),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),

		CurrencyCode: valueOrDefault(k.String("CURRENCY_CODE"), "USD"),
		TaxRateBPS:   k.Int("PRICING_TAX_RATE_BPS"),

		MigsAccessCode:   strings.TrimSpace(k.String("MIGS_ACCESS_CODE")),
		MigsMerchantID:   strings.TrimSpace(k.String("MIGS_MERCHANT_ID")),
		MigsSecureSecret: strings.TrimSpace(k.String("MIGS_SECURE_SECRET")),
		MigsBaseURL:      strings.TrimSpace(k.String("MIGS_BASE_URL")),
		MigsLocale:       valueOrDefault(k.String("MIGS_LOCALE"), "en"),
		MigsTestMode:     parseBool(k.String("MIGS_TEST_MODE")),

		CheckoutConfirmURL: strings.TrimSpace(k.String("CHECKOUT_CONFIRM_URL")),
		CheckoutFailureURL: strings.TrimSpace(k.String("CHECKOUT_FAILURE_URL")),

		NotifyEmailEnabled: parseBool(k.String("NOTIFY_EMAIL_ENABLED")),
		NotifyEmailFrom:    valueOrDefault(k.String("NOTIFY_EMAIL_FROM"), "no-reply@kedai.local"),

		IdempotencyTTL:     parseDuration(k.String("IDEMPOTENCY_TTL"), "24h"),
		CallbackLockTTL:    parseDuration(k.String("CALLBACK_LOCK_TTL"), "30s"),
		CallbackRateWindow: parseDuration(k.String("CALLBACK_RATE_WINDOW"), "1m"),
		CallbackRateMax:    intOrDefault(k.Int("CALLBACK_RATE_MAX"), 60),
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}
	if cfg.MigsAccessCode == "" {
		return nil, errors.New("MIGS_ACCESS_CODE is required")
	}
	if cfg.MigsMerchantID == "" {
		return nil, errors.New("MIGS_MERCHANT_ID is required")
	}
	if cfg.MigsSecureSecret == "" {
		return nil, errors.New("MIGS_SECURE_SECRET is required")
	}
	if cfg.CheckoutConfirmURL == "" {
		cfg.CheckoutConfirmURL = cfg.PublicBaseURL + "/checkout/confirmation"
	}
	if cfg.CheckoutFailureURL == "" {
		cfg.CheckoutFailureURL = cfg.PublicBaseURL + "/checkout/payment"
	}

	return cfg, nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

func intOrDefault(value, fallback int) int {
	if value == 0 {
		return fallback
	}
	return value
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
