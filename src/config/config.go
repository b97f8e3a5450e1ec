package config

import (
	"errors"
	"time"
)

// Config holds the service configuration.
type Config struct {
	Port     string
	GinMode  string
	MySQLDSN string
	RedisURL string

	JWTSecret  string
	SessionTTL time.Duration

	CORSOrigins []string
	RateLimit   int
	RateWindow  time.Duration

	AI AIConfig

	MaxTextBytes  int
	MaxMediaBytes int
	LedgerCap     int
	TrendWindow   int

	LogLevel  string
	LogFormat string
}

// AIConfig holds AI-related configuration
type AIConfig struct {
	Provider      string
	Model         string
	Temperature   float64
	MaxTokens     int
	GeminiKey     string
	OpenAIKey     string
	BaseURL       string
	Timeout       time.Duration
	RetryAttempts int
}

// Load reads every key through GetSetting. Call data.LoadSettings first when a
// settings database is configured.
func Load() Config {
	return Config{
		Port:     GetSetting("port", "PORT", "8080"),
		GinMode:  GetSetting("gin_mode", "GIN_MODE", "release"),
		MySQLDSN: GetSetting("mysql_dsn", "MYSQL_DSN", ""),
		RedisURL: GetSetting("redis_url", "REDIS_URL", ""),

		JWTSecret:  GetSetting("jwt_secret", "JWT_SECRET", ""),
		SessionTTL: time.Duration(getInt("session_ttl_minutes", "SESSION_TTL_MINUTES", 120)) * time.Minute,

		CORSOrigins: splitList(GetSetting("cors_origins", "CORS_ORIGINS", "http://localhost:3000")),
		RateLimit:   getInt("rate_limit", "RATE_LIMIT", 30),
		RateWindow:  time.Duration(getInt("rate_window_seconds", "RATE_WINDOW_SECONDS", 60)) * time.Second,

		AI: AIConfig{
			Provider:      GetSetting("ai_provider", "AI_PROVIDER", "gemini"),
			Model:         GetSetting("ai_model", "AI_MODEL", ""),
			Temperature:   getFloat("ai_temperature", "AI_TEMPERATURE", 0.2),
			MaxTokens:     getInt("ai_max_tokens", "AI_MAX_TOKENS", 0),
			GeminiKey:     GetSetting("gemini_api_key", "GEMINI_API_KEY", ""),
			OpenAIKey:     GetSetting("openai_api_key", "OPENAI_API_KEY", ""),
			BaseURL:       GetSetting("ai_base_url", "AI_BASE_URL", ""),
			Timeout:       time.Duration(getInt("ai_timeout_seconds", "AI_TIMEOUT_SECONDS", 90)) * time.Second,
			RetryAttempts: getInt("ai_retry_attempts", "AI_RETRY_ATTEMPTS", 1),
		},

		MaxTextBytes:  getInt("max_text_bytes", "MAX_TEXT_BYTES", 100000),
		MaxMediaBytes: getInt("max_media_bytes", "MAX_MEDIA_BYTES", 20<<20),
		LedgerCap:     getInt("ledger_capacity", "LEDGER_CAPACITY", 0),
		TrendWindow:   getInt("trend_window", "TREND_WINDOW", 10),

		LogLevel:  GetSetting("log_level", "LOG_LEVEL", "info"),
		LogFormat: GetSetting("log_format", "LOG_FORMAT", "text"),
	}
}

// Validate reports settings the service cannot start without.
func (c Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is not set"))
	}
	switch c.AI.Provider {
	case "gemini", "gemini25", "gemini3":
		if c.AI.GeminiKey == "" {
			errs = append(errs, errors.New("GEMINI_API_KEY is not set"))
		}
	case "openai", "gpt4o":
		if c.AI.OpenAIKey == "" {
			errs = append(errs, errors.New("OPENAI_API_KEY is not set"))
		}
	}
	if c.RateLimit <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT must be positive"))
	}
	return errors.Join(errs...)
}
