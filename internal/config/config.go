package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Generator backends.
const (
	GeneratorAnthropic = "anthropic"
	GeneratorOpenAI    = "openai"
)

type Config struct {
	Port string

	// Auth
	APIKey string

	// Document store. DATABASE_URL wins over PATHSTORE_URL; with neither set
	// documents live in memory.
	DatabaseURL     string
	PathstoreURL    string
	PathstoreAPIKey string
	PathstorePrefix string

	// Report generation
	Generator       string
	AnthropicAPIKey string
	AnthropicModel  string
	OpenAIAPIKey    string
	OpenAIModel     string
	OpenAIBaseURL   string
	MaxSourceTokens int

	// Worker pool
	WorkerCount  int
	MaxQueueSize int

	// Upload limits
	MaxUploadBytes int64

	// Job and session state
	JobTTL        time.Duration
	SessionTTL    time.Duration
	AutoSaveDelay time.Duration
	UndoLimit     int

	// Parsing
	ClassifierRules    string
	ReportTitlePattern string

	// PDF
	PDFFallbackPdftotext bool
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		APIKey: os.Getenv("REPORTDOC_API_KEY"),

		DatabaseURL:     os.Getenv("DATABASE_URL"),
		PathstoreURL:    os.Getenv("PATHSTORE_URL"),
		PathstoreAPIKey: os.Getenv("PATHSTORE_API_KEY"),
		PathstorePrefix: envOr("PATHSTORE_PREFIX", "reportdoc/docs"),

		Generator:       envOr("GENERATOR", GeneratorAnthropic),
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicModel:  envOr("ANTHROPIC_MODEL", "claude-sonnet-4-5-20250929"),
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:     envOr("OPENAI_MODEL", "gpt-4o"),
		OpenAIBaseURL:   os.Getenv("OPENAI_BASE_URL"),
		MaxSourceTokens: envInt("MAX_SOURCE_TOKENS", 60000),

		WorkerCount:  envInt("WORKER_COUNT", 4),
		MaxQueueSize: envInt("MAX_QUEUE_SIZE", 100),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB

		JobTTL:        envDuration("JOB_TTL", 1*time.Hour),
		SessionTTL:    envDuration("SESSION_TTL", 30*time.Minute),
		AutoSaveDelay: envDuration("AUTOSAVE_DELAY", 2*time.Second),
		UndoLimit:     envInt("UNDO_LIMIT", 100),

		ClassifierRules:    os.Getenv("CLASSIFIER_RULES"),
		ReportTitlePattern: os.Getenv("REPORT_TITLE_PATTERN"),

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 100
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.MaxSourceTokens <= 0 {
		cfg.MaxSourceTokens = 60000
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 30 * time.Minute
	}
	if cfg.AutoSaveDelay <= 0 {
		cfg.AutoSaveDelay = 2 * time.Second
	}
	if cfg.UndoLimit <= 0 {
		cfg.UndoLimit = 100
	}

	return cfg
}

func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("REPORTDOC_API_KEY is required")
	}
	if c.DatabaseURL == "" && c.PathstoreURL != "" && c.PathstoreAPIKey == "" {
		return fmt.Errorf("PATHSTORE_API_KEY is required with PATHSTORE_URL")
	}
	switch c.Generator {
	case GeneratorAnthropic:
		if c.AnthropicAPIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY is required")
		}
	case GeneratorOpenAI:
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required")
		}
	default:
		return fmt.Errorf("unknown GENERATOR %q", c.Generator)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
