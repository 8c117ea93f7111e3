package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	// Server
	Env      string
	Port     string
	LogLevel string

	// Database
	DBHost        string
	DBPort        string
	DBUser        string
	DBPassword    string
	DBName        string
	DBSSLMode     string
	MigrationsDir string

	// JWT
	JWTSecret  string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	ResetTTL   time.Duration

	// Calendar used for periods and chart labels
	Timezone string
	Locale   string

	// CORS
	CORSAllowedOrigins []string

	// Redis (dashboard cache + rate limiting); empty address disables it
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	StatsCacheTTL   time.Duration
	RateLimitMax    int
	RateLimitWindow time.Duration

	// RabbitMQ email queue; empty URL logs jobs instead of publishing
	RabbitMQURL        string
	RabbitMQEmailQueue string

	// Mailgun (mailer worker)
	MailgunDomain string
	MailgunAPIKey string
	MailgunSender string

	// Link sent in password reset emails; the token is appended as ?token=
	ResetPasswordURL string
}

// Load loads configuration from a .env file (when present) and environment variables.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	cfg := &Config{
		Env:      getEnv("ENV", "development"),
		Port:     getEnv("PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DBHost:        getEnv("DB_HOST", "localhost"),
		DBPort:        getEnv("DB_PORT", "5432"),
		DBUser:        getEnv("DB_USER", "finanzas"),
		DBPassword:    getEnv("DB_PASSWORD", "finanzas"),
		DBName:        getEnv("DB_NAME", "finanzas"),
		DBSSLMode:     getEnv("DB_SSLMODE", "disable"),
		MigrationsDir: getEnv("MIGRATIONS_DIR", "migrations"),

		JWTSecret: getEnv("JWT_SECRET", "fallback-secret-key-for-dev-only"),

		Timezone: getEnv("APP_TIMEZONE", "America/Bogota"),
		Locale:   getEnv("APP_LOCALE", "es"),

		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),

		RabbitMQURL:        getEnv("RABBITMQ_URL", ""),
		RabbitMQEmailQueue: getEnv("RABBITMQ_EMAIL_QUEUE", "finanzas.emails"),

		MailgunDomain: getEnv("MAILGUN_DOMAIN", ""),
		MailgunAPIKey: getEnv("MAILGUN_API_KEY", ""),
		MailgunSender: getEnv("MAILGUN_SENDER", "Finanzas <no-reply@finanzas.local>"),

		ResetPasswordURL: getEnv("RESET_PASSWORD_URL", "http://localhost:3000/auth/reset"),
	}

	var err error
	if cfg.AccessTTL, err = getDuration("JWT_ACCESS_TTL", 15*time.Minute); err != nil {
		return nil, err
	}
	if cfg.RefreshTTL, err = getDuration("JWT_REFRESH_TTL", 7*24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.ResetTTL, err = getDuration("JWT_RESET_TTL", time.Hour); err != nil {
		return nil, err
	}
	if cfg.StatsCacheTTL, err = getDuration("STATS_CACHE_TTL", 5*time.Minute); err != nil {
		return nil, err
	}
	if cfg.RateLimitWindow, err = getDuration("RATE_LIMIT_WINDOW", time.Minute); err != nil {
		return nil, err
	}
	if cfg.RedisDB, err = getInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.RateLimitMax, err = getInt("RATE_LIMIT_MAX", 20); err != nil {
		return nil, err
	}

	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		return nil, fmt.Errorf("invalid APP_TIMEZONE %q: %w", cfg.Timezone, err)
	}

	return cfg, nil
}

// Location returns the configured calendar location. Load has already
// validated the name, so the UTC fallback only applies to hand-built configs.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// DatabaseURL returns the postgres:// URL used by golang-migrate.
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return d, nil
}

func getInt(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return n, nil
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
