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
	defaultAPIURL      = "http://localhost:3000/api"
	defaultHTTPTimeout = 12 * time.Second
	defaultMockAddr    = ":3000"
	defaultMockSecret  = "cinema-dev-secret"
)

// Config holds the runtime settings of the client and the local mock API.
type Config struct {
	Environment string
	LogLevel    string
	LogFile     string

	APIURL      string
	HTTPTimeout time.Duration
	MaxAttempts int

	MockAddr   string
	MockSecret string
}

// Load reads configuration from the environment, loading a .env file first
// outside production.
func Load() (*Config, error) {
	env := os.Getenv("GO_ENV")
	if env == "" {
		env = "development"
	}
	if env != "production" {
		// a missing .env is normal; system environment variables still apply
		_ = godotenv.Load()
	}

	cfg := &Config{
		Environment: env,
		LogLevel:    strings.ToLower(strings.TrimSpace(os.Getenv("LOG_LEVEL"))),
		LogFile:     strings.TrimSpace(os.Getenv("CINEMA_LOG_FILE")),
		APIURL:      strings.TrimRight(strings.TrimSpace(os.Getenv("CINEMA_API_URL")), "/"),
		HTTPTimeout: defaultHTTPTimeout,
		MaxAttempts: 1,
		MockAddr:    strings.TrimSpace(os.Getenv("CINEMA_MOCK_ADDR")),
		MockSecret:  os.Getenv("CINEMA_MOCK_SECRET"),
	}

	if cfg.APIURL == "" {
		cfg.APIURL = defaultAPIURL
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.MockAddr == "" {
		cfg.MockAddr = defaultMockAddr
	}
	if cfg.MockSecret == "" {
		cfg.MockSecret = defaultMockSecret
	}

	if raw := strings.TrimSpace(os.Getenv("CINEMA_HTTP_TIMEOUT")); raw != "" {
		timeout, err := time.ParseDuration(raw)
		if err != nil || timeout <= 0 {
			return nil, fmt.Errorf("invalid CINEMA_HTTP_TIMEOUT %q", raw)
		}
		cfg.HTTPTimeout = timeout
	}
	if raw := strings.TrimSpace(os.Getenv("CINEMA_MAX_ATTEMPTS")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid CINEMA_MAX_ATTEMPTS %q", raw)
		}
		cfg.MaxAttempts = n
	}

	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
