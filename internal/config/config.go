package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every setting the API reads from the environment.
type Config struct {
	Port        string
	CORSOrigins []string
	LogLevel    slog.Level

	Database struct {
		Driver   string // postgres, mysql or sqlite
		DSN      string
		Host     string
		Port     string
		User     string
		Password string
		Name     string
		SSLMode  string
	}

	JWT struct {
		Secret    string
		ExpiresIn time.Duration
	}

	Storage struct {
		Endpoint  string
		AccessKey string
		SecretKey string
		Bucket    string
		UseSSL    bool
		PublicURL string
	}

	Redis struct {
		Addr      string
		Password  string
		DB        int
		PromptTTL time.Duration
	}

	Twilio struct {
		AccountSID string
		AuthToken  string
		FromNumber string
	}
}

// Load reads a .env file when one exists and builds the Config from the
// environment, falling back to development defaults.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("could not read .env file", "error", err)
	}

	cfg := &Config{}

	cfg.Port = getEnv("PORT", "8080")
	cfg.CORSOrigins = splitList(getEnv("CORS_ORIGINS", "http://localhost:3000"))
	cfg.LogLevel = parseLevel(getEnv("LOG_LEVEL", "info"))

	cfg.Database.Driver = strings.ToLower(getEnv("DB_DRIVER", "postgres"))
	cfg.Database.DSN = getEnv("DB_DSN", "")
	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = getEnv("DB_PORT", "5432")
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "")
	cfg.Database.Name = getEnv("DB_NAME", "copymyprompt")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")

	cfg.JWT.Secret = getEnv("JWT_SECRET", "change-me")
	cfg.JWT.ExpiresIn = getDuration("JWT_EXPIRES_IN", 72*time.Hour)

	cfg.Storage.Endpoint = getEnv("STORAGE_ENDPOINT", "127.0.0.1:9000")
	cfg.Storage.AccessKey = getEnv("STORAGE_ACCESS_KEY", "")
	cfg.Storage.SecretKey = getEnv("STORAGE_SECRET_KEY", "")
	cfg.Storage.Bucket = getEnv("STORAGE_BUCKET", "prompts")
	cfg.Storage.UseSSL = getEnv("STORAGE_USE_SSL", "false") == "true"
	cfg.Storage.PublicURL = getEnv("STORAGE_PUBLIC_URL", "")

	cfg.Redis.Addr = getEnv("REDIS_ADDR", "")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = getInt("REDIS_DB", 0)
	cfg.Redis.PromptTTL = getDuration("PROMPT_CACHE_TTL", time.Minute)

	cfg.Twilio.AccountSID = getEnv("TWILIO_ACCOUNT_SID", "")
	cfg.Twilio.AuthToken = getEnv("TWILIO_AUTH_TOKEN", "")
	cfg.Twilio.FromNumber = getEnv("TWILIO_FROM_NUMBER", "")

	return cfg
}

// getEnv returns the variable's value, or fallback when it is unset.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) int {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		slog.Warn("invalid integer in environment, using default", "key", key, "value", raw, "default", fallback)
		return fallback
	}
	return n
}

// getDuration accepts Go durations ("90m") and bare hour counts ("24").
func getDuration(key string, fallback time.Duration) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	if hours, err := strconv.Atoi(raw); err == nil {
		return time.Duration(hours) * time.Hour
	}
	slog.Warn("invalid duration in environment, using default", "key", key, "value", raw, "default", fallback)
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseLevel(raw string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(raw)); err != nil {
		return slog.LevelInfo
	}
	return level
}
