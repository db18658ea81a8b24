package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/learnedge/learnedge/internal/llm"
)

// AuthMode selects how requests are attributed to a user.
type AuthMode string

const (
	// AuthModeMulti requires a bearer token per request.
	AuthModeMulti AuthMode = "multi"
	// AuthModeGuest attributes every request to the shared guest identity.
	AuthModeGuest AuthMode = "guest"
)

// Config is the process-wide configuration, loaded once at startup.
type Config struct {
	Port            string
	DatabaseURL     string
	JWTSecret       string
	AccessTokenTTL  time.Duration
	CORSOrigins     []string
	AuthMode        AuthMode
	LogMode         string
	ShutdownTimeout time.Duration

	// QuestionCount is the number of questions requested per generated set.
	QuestionCount int

	LLM llm.Config

	Tracing Tracing
}

// Tracing holds the OpenTelemetry settings.
type Tracing struct {
	Enabled     bool
	Endpoint    string
	Insecure    bool
	SampleRatio float64
}

// Load reads envFile (if present, empty means ".env") and builds a Config
// from the environment.
func Load(envFile string) (*Config, error) {
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", envFile, err)
	}

	ttl, err := getDuration("ACCESS_TOKEN_TTL", 24*time.Hour)
	if err != nil {
		return nil, err
	}
	shutdown, err := getDuration("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	count, err := getInt("QUIZ_QUESTION_COUNT", 10)
	if err != nil {
		return nil, err
	}

	llmCfg, err := loadLLM()
	if err != nil {
		return nil, err
	}
	ratio, err := getFloat("OTEL_SAMPLER_RATIO", 0.1)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Port:            getenvDefault("PORT", "3001"),
		DatabaseURL:     getenvDefault("DATABASE_URL", "learnedge.db"),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		AccessTokenTTL:  ttl,
		CORSOrigins:     splitList(getenvDefault("CORS_ORIGINS", "http://localhost:3000")),
		AuthMode:        AuthMode(strings.ToLower(getenvDefault("AUTH_MODE", string(AuthModeMulti)))),
		LogMode:         getenvDefault("LOG_MODE", "development"),
		ShutdownTimeout: shutdown,
		QuestionCount:   count,
		LLM:             llmCfg,
		Tracing: Tracing{
			Enabled:     getBool("OTEL_ENABLED"),
			Endpoint:    os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
			Insecure:    getBool("OTEL_EXPORTER_OTLP_INSECURE"),
			SampleRatio: ratio,
		},
	}
	return cfg, nil
}

// Validate checks settings that depend on each other.
func (c *Config) Validate() error {
	switch c.AuthMode {
	case AuthModeMulti:
		if c.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required when AUTH_MODE=%s", AuthModeMulti)
		}
	case AuthModeGuest:
	default:
		return fmt.Errorf("unknown AUTH_MODE %q", c.AuthMode)
	}
	if c.QuestionCount <= 0 {
		return fmt.Errorf("QUIZ_QUESTION_COUNT must be positive, got %d", c.QuestionCount)
	}
	return c.LLM.Validate()
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}

// loadLLM prefers an explicit LLM_PROVIDER and falls back to whichever
// provider key is present in the environment.
func loadLLM() (llm.Config, error) {
	cfg := llm.ConfigFromEnv()
	if os.Getenv("LLM_PROVIDER") == "" {
		if discovered, ok := llm.DiscoverConfig(); ok {
			cfg.Provider = discovered.Provider
		}
	}
	attempts, err := getInt("LLM_MAX_ATTEMPTS", cfg.Retry.MaxAttempts)
	if err != nil {
		return llm.Config{}, err
	}
	cfg.Retry.MaxAttempts = attempts
	timeout, err := getDuration("LLM_TIMEOUT", cfg.Timeout)
	if err != nil {
		return llm.Config{}, err
	}
	cfg.Timeout = timeout
	return cfg, nil
}

func getenvDefault(k, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return fallback
}

func getDuration(k string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s=%q is not a valid duration: %w", k, v, err)
	}
	return d, nil
}

func getInt(k string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s=%q is not an integer: %w", k, v, err)
	}
	return n, nil
}

func getFloat(k string, fallback float64) (float64, error) {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("config: %s=%q is not a number: %w", k, v, err)
	}
	return f, nil
}

func getBool(k string) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(k))) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
