package infra

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv      string
	Port        string
	DatabaseURL string
	JWTSecret   string

	GeminiAPIKey       string
	GeminiBaseURL      string
	TextModel          string
	ImageModelStandard string
	ImageModelPro      string

	RedisURL    string
	StoragePath string

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int

	MaxConcurrentGenerations int
	SynthRetryAttempts       int
	SignupCredits            int
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:      getEnv("APP_ENV", "development"),
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		JWTSecret:   os.Getenv("JWT_SECRET"),

		GeminiAPIKey:       os.Getenv("GEMINI_API_KEY"),
		GeminiBaseURL:      getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		TextModel:          getEnv("TEXT_MODEL", "gemini-2.5-flash"),
		ImageModelStandard: getEnv("IMAGE_MODEL_STANDARD", "gemini-2.5-flash-image"),
		ImageModelPro:      getEnv("IMAGE_MODEL_PRO", "gemini-2.5-pro-image"),

		RedisURL:    os.Getenv("REDIS_URL"),
		StoragePath: getEnv("STORAGE_PATH", "./data/assets"),

		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 30)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 300)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:  getEnvInt("RATE_LIMIT_PER_MINUTE", 30),

		MaxConcurrentGenerations: getEnvInt("MAX_CONCURRENT_GENERATIONS", 8),
		SynthRetryAttempts:       getEnvInt("SYNTH_RETRY_ATTEMPTS", 3),
		SignupCredits:            getEnvInt("SIGNUP_CREDITS", 10),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
