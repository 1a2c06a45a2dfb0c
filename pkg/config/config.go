package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	// Load environment variables from .env files when present.
	_ "github.com/joho/godotenv/autoload"
)

// Config holds all application configuration
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Auth          AuthConfig
	Observability ObservabilityConfig
	Gemini        GeminiConfig
	Upload        UploadConfig
	Storage       StorageConfig
	Email         EmailConfig
	Currency      string
}

// GeminiConfig configures the external text-generation model.
// An empty APIKey leaves the AI features disabled instead of failing startup.
type GeminiConfig struct {
	APIKey     string
	Model      string
	RetryDelay time.Duration
}

type ServerConfig struct {
	Host               string
	Port               int
	AllowedOrigins     []string
	RateLimitPerSecond int
	RateLimitBurst     int
	ShutdownTimeout    time.Duration
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

type AuthConfig struct {
	JWTSecret      string
	AccessTokenTTL time.Duration
}

type ObservabilityConfig struct {
	MetricsEnabled bool
	MetricsPort    int
}

type UploadConfig struct {
	MaxBytes int64
}

type StorageConfig struct {
	LocalPath string
	Retention time.Duration
}

type EmailConfig struct {
	ResendAPIKey string
	From         string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:               getEnv("SERVER_HOST", "localhost"),
			Port:               getEnvAsInt("SERVER_PORT", 8080),
			AllowedOrigins:     getEnvAsList("SERVER_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
			RateLimitPerSecond: getEnvAsInt("SERVER_RATE_LIMIT_PER_SECOND", 100),
			RateLimitBurst:     getEnvAsInt("SERVER_RATE_LIMIT_BURST", 200),
			ShutdownTimeout:    getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 15*time.Second),
		},
		Database: DatabaseConfig{
			Host:     getEnv("POSTGRES_HOST", "localhost"),
			Port:     getEnvAsInt("POSTGRES_PORT", 5432),
			User:     getEnv("POSTGRES_USER", "postgres"),
			Password: getEnv("POSTGRES_PASSWORD", "postgres"),
			Database: getEnv("POSTGRES_DB", "pocket-ledger"),
			SSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		},
		Auth: AuthConfig{
			JWTSecret:      getEnv("JWT_SECRET", ""),
			AccessTokenTTL: getEnvAsDuration("JWT_ACCESS_TTL", 24*time.Hour),
		},
		Observability: ObservabilityConfig{
			MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
			MetricsPort:    getEnvAsInt("METRICS_PORT", 9090),
		},
		Gemini: GeminiConfig{
			APIKey:     getEnv("GEMINI_API_KEY", ""),
			Model:      getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
			RetryDelay: getEnvAsDuration("GEMINI_RETRY_DELAY", time.Second),
		},
		Upload: UploadConfig{
			MaxBytes: int64(getEnvAsInt("UPLOAD_MAX_BYTES", 10<<20)),
		},
		Storage: StorageConfig{
			LocalPath: getEnv("STORAGE_LOCAL_PATH", "./uploads"),
			Retention: getEnvAsDuration("STORAGE_RETENTION", 30*24*time.Hour),
		},
		Email: EmailConfig{
			ResendAPIKey: getEnv("RESEND_API_KEY", ""),
			From:         getEnv("RESEND_FROM_EMAIL", "Pocket Ledger <hello@pocketledger.app>"),
		},
		Currency: strings.ToUpper(getEnv("CURRENCY", "USD")),
	}

	if cfg.Auth.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	if cfg.Upload.MaxBytes <= 0 {
		return nil, fmt.Errorf("UPLOAD_MAX_BYTES must be positive, got %d", cfg.Upload.MaxBytes)
	}

	return cfg, nil
}

// DSN returns the database connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// Addr returns the listen address for the HTTP server.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
