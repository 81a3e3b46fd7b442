package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Supported LLM providers
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Supported cache backends
const (
	CacheNone         = "none"
	CacheMemory       = "memory"
	CacheSQLite       = "sqlite"
	CacheCloudStorage = "cloud-storage"
)

// Config holds all configuration for the application
type Config struct {
	// Server settings
	Port string `json:"port"`
	Host string `json:"host"`

	// LLM provider selection
	LLMProvider string `json:"llm_provider"`

	// Gemini API settings
	GeminiAPIKey string `json:"-"` // Don't expose in JSON
	GeminiModel  string `json:"gemini_model"`

	// OpenAI API settings
	OpenAIAPIKey  string `json:"-"` // Don't expose in JSON
	OpenAIModel   string `json:"openai_model"`
	OpenAIBaseURL string `json:"openai_base_url,omitempty"`

	// Recovery pipeline settings
	MaxAttempts  int `json:"max_attempts"`
	RetryDelayMS int `json:"retry_delay_ms"`

	// Transcript settings
	NormalizeTranscripts bool `json:"normalize_transcripts"`
	MaxUploadMB          int  `json:"max_upload_mb"`

	// Cache settings
	CacheType            string `json:"cache_type"`     // "none", "memory", "sqlite" or "cloud-storage"
	CacheDuration        int    `json:"cache_duration"` // in hours
	CacheSQLitePath      string `json:"cache_sqlite_path"`
	CacheBucket          string `json:"cache_bucket"`
	CacheCleanupSchedule string `json:"cache_cleanup_schedule"`

	// Slack settings
	SlackBotToken string `json:"-"` // Don't expose in JSON
	SlackChannel  string `json:"slack_channel"`

	// Logging settings
	LogLevel  string `json:"log_level"`
	LogFormat string `json:"log_format"`
}

// Load reads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	config := &Config{
		Port:                 getEnvOrDefault("PORT", "8080"),
		Host:                 getEnvOrDefault("HOST", "0.0.0.0"),
		LLMProvider:          strings.ToLower(getEnvOrDefault("LLM_PROVIDER", ProviderGemini)),
		GeminiAPIKey:         getEnvOrDefault("GEMINI_API_KEY", ""),
		GeminiModel:          getEnvOrDefault("GEMINI_MODEL", "gemini-2.5-flash-preview-09-2025"),
		OpenAIAPIKey:         getEnvOrDefault("OPENAI_API_KEY", ""),
		OpenAIModel:          getEnvOrDefault("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL:        getEnvOrDefault("OPENAI_BASE_URL", ""),
		MaxAttempts:          getEnvOrDefaultInt("LLM_MAX_ATTEMPTS", 3),
		RetryDelayMS:         getEnvOrDefaultInt("LLM_RETRY_DELAY_MS", 600),
		NormalizeTranscripts: getEnvOrDefaultBool("NORMALIZE_TRANSCRIPTS", true),
		MaxUploadMB:          getEnvOrDefaultInt("MAX_UPLOAD_MB", 10),
		CacheType:            strings.ToLower(getEnvOrDefault("CACHE_TYPE", CacheNone)),
		CacheDuration:        getEnvOrDefaultInt("CACHE_DURATION_HOURS", 24),
		CacheSQLitePath:      getEnvOrDefault("CACHE_SQLITE_PATH", "summaries.db"),
		CacheBucket:          getEnvOrDefault("CACHE_BUCKET", "meeting-summarizer-cache"),
		CacheCleanupSchedule: getEnvOrDefault("CACHE_CLEANUP_SCHEDULE", "@every 10m"),
		SlackBotToken:        getEnvOrDefault("SLACK_BOT_TOKEN", ""),
		SlackChannel:         getEnvOrDefault("SLACK_CHANNEL", ""),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "text"),
	}

	return config, config.validate()
}

// RetryDelay returns the fixed delay between failed generation attempts
func (c *Config) RetryDelay() time.Duration {
	return time.Duration(c.RetryDelayMS) * time.Millisecond
}

// CacheTTL returns how long cached summaries stay valid
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheDuration) * time.Hour
}

// Addr returns the listen address
func (c *Config) Addr() string {
	return c.Host + ":" + c.Port
}

// validate checks if required configuration values are present
func (c *Config) validate() error {
	switch c.LLMProvider {
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			return &ConfigError{Field: "GEMINI_API_KEY", Message: "Gemini API key is required"}
		}
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return &ConfigError{Field: "OPENAI_API_KEY", Message: "OpenAI API key is required"}
		}
	default:
		return &ConfigError{Field: "LLM_PROVIDER", Message: "must be one of gemini, openai"}
	}
	if c.MaxAttempts < 1 {
		return &ConfigError{Field: "LLM_MAX_ATTEMPTS", Message: "must be at least 1"}
	}
	if c.RetryDelayMS < 0 {
		return &ConfigError{Field: "LLM_RETRY_DELAY_MS", Message: "must not be negative"}
	}
	switch c.CacheType {
	case CacheNone, CacheMemory, CacheSQLite, CacheCloudStorage:
	default:
		return &ConfigError{Field: "CACHE_TYPE", Message: "unsupported cache type: " + c.CacheType}
	}
	return nil
}

// getEnvOrDefault returns environment variable value or default if not set
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvOrDefaultInt returns environment variable value as int or default if not set
func getEnvOrDefaultInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvOrDefaultBool returns environment variable value as bool or default if not set
func getEnvOrDefaultBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}
