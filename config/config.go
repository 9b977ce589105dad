package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/lewebsimple/autologin/internal/domain"
)

type Config struct {
	Env      string `env:"ENV" envDefault:"local" validate:"required,oneof=local staging production"`
	Port     string `env:"PORT" envDefault:"8080" validate:"required"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`

	MetricsPort string `env:"METRICS_PORT" envDefault:"9090"`

	BaseURL     string `env:"BASE_URL" envDefault:"http://localhost:8080" validate:"required,url"`
	DatabaseURL string `env:"DATABASE_URL,required" validate:"required"`

	StoreBackend    string `env:"STORE_BACKEND" envDefault:"redis" validate:"oneof=redis memory"`
	RedisURL        string `env:"REDIS_URL" envDefault:"redis://localhost:6379/0" validate:"required_if=StoreBackend redis"`
	RedisKeyPrefix  string `env:"REDIS_KEY_PREFIX"`
	MemorySweepSpec string `env:"MEMORY_SWEEP_SPEC" envDefault:"@every 1m"`

	ValidateDomain bool          `env:"VALIDATE_DOMAIN" envDefault:"false"`
	CheckSignature bool          `env:"CHECK_SIGNATURE" envDefault:"true"`
	LinkTTL        time.Duration `env:"LINK_TTL" envDefault:"720h" validate:"gt=0"`

	JWTSecret     string        `env:"JWT_SECRET,required" validate:"required,min=32"`
	SessionTTL    time.Duration `env:"SESSION_TTL" envDefault:"336h" validate:"gt=0"`
	SessionCookie string        `env:"SESSION_COOKIE" envDefault:"autologin_session" validate:"required"`

	ResendAPIKey string `env:"RESEND_API_KEY" validate:"required_if=Env production,required_if=Env staging"`
	ResendFrom   string `env:"RESEND_FROM"    validate:"required_if=Env production,required_if=Env staging"`

	MessageInvalidLink string `env:"MESSAGE_INVALID_LINK"`
	MessageInvalidUser string `env:"MESSAGE_INVALID_USER"`
	MessageInvalidAuth string `env:"MESSAGE_INVALID_AUTH"`
}

func Load() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return cfg, nil
}

func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SecureCookies is true when the public base URL is served over HTTPS.
func (c *Config) SecureCookies() bool {
	u, err := url.Parse(c.BaseURL)
	return err == nil && u.Scheme == "https"
}

// Messages returns the configured failure message overrides. Empty values
// fall back to the built-in text.
func (c *Config) Messages() map[domain.FailureKind]string {
	return map[domain.FailureKind]string{
		domain.InvalidLink: c.MessageInvalidLink,
		domain.InvalidUser: c.MessageInvalidUser,
		domain.InvalidAuth: c.MessageInvalidAuth,
	}
}
