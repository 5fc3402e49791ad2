package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"saldo/internal/i18n"
	"saldo/internal/log"
)

type Config struct {
	// HTTP Server
	Port               string `env:"PORT" envDefault:"8081"`
	RateLimitPerMinute int    `env:"RATE_LIMIT_PER_MINUTE" envDefault:"60"`

	// Storage
	DataBackend  string `env:"DATA_BACKEND" envDefault:"memory"`
	SQLiteDBPath string `env:"SQLITE_DB_PATH" envDefault:"./data/saldo.db"`

	// AMQP, optional: empty URL disables change notifications
	AMQPURL      string `env:"AMQP_URL"`
	AMQPExchange string `env:"AMQP_EXCHANGE" envDefault:"saldo"`
	AMQPQueue    string `env:"AMQP_QUEUE" envDefault:"ledger_events"`

	// Localization
	DefaultLanguage    string        `env:"DEFAULT_LANGUAGE" envDefault:"en"`
	SupportedLanguages []string      `env:"SUPPORTED_LANGUAGES" envDefault:"en,de,ru" envSeparator:","`
	LocalesBaseURL     string        `env:"LOCALES_BASE_URL"`
	LocaleFetchTimeout time.Duration `env:"LOCALE_FETCH_TIMEOUT" envDefault:"5s"`
	LocaleCacheTTL     time.Duration `env:"LOCALE_CACHE_TTL" envDefault:"10m"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.SupportedLanguages = normalizeLanguages(cfg.SupportedLanguages)
	if def, err := i18n.NormalizeCode(cfg.DefaultLanguage); err == nil {
		cfg.DefaultLanguage = def
	}
	return cfg, nil
}

// normalizeLanguages stores codes in the canonical form the loader uses and
// drops duplicates. Invalid codes are kept as written so Validate reports them.
func normalizeLanguages(codes []string) []string {
	out := make([]string, 0, len(codes))
	for _, code := range codes {
		code = strings.TrimSpace(code)
		if normalized, err := i18n.NormalizeCode(code); err == nil {
			code = normalized
		}
		if !slices.Contains(out, code) {
			out = append(out, code)
		}
	}
	return out
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimitPerMinute))
	}

	// Validate data backend
	validBackends := []string{"memory", "sqlite"}
	if !slices.Contains(validBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	if c.DataBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	// Validate languages
	if len(c.SupportedLanguages) == 0 {
		errors = append(errors, "at least one supported language is required")
	}
	supported := make([]string, 0, len(c.SupportedLanguages))
	for _, code := range c.SupportedLanguages {
		normalized, err := i18n.NormalizeCode(code)
		if err != nil {
			errors = append(errors, fmt.Sprintf("invalid supported language '%s'", code))
			continue
		}
		supported = append(supported, normalized)
	}
	if def, err := i18n.NormalizeCode(c.DefaultLanguage); err != nil {
		errors = append(errors, fmt.Sprintf("invalid default language '%s'", c.DefaultLanguage))
	} else if len(supported) > 0 && !slices.Contains(supported, def) {
		errors = append(errors, fmt.Sprintf("default language '%s' must be one of %v", def, supported))
	}

	if c.LocalesBaseURL != "" {
		if u, err := url.Parse(c.LocalesBaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			errors = append(errors, fmt.Sprintf("invalid locales base URL '%s': must be http or https", c.LocalesBaseURL))
		}
	}
	if c.LocaleFetchTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("invalid locale fetch timeout %v: must be positive", c.LocaleFetchTimeout))
	}
	if c.LocaleCacheTTL <= 0 {
		errors = append(errors, fmt.Sprintf("invalid locale cache TTL %v: must be positive", c.LocaleCacheTTL))
	}

	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be debug, info, warn or error", c.LogLevel))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}
