package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	DBConnectAttempts uint
	DBConnectDelay    time.Duration

	// JWT
	JWTSecret        string
	JWTAccessExpiry  time.Duration
	JWTRefreshExpiry time.Duration

	// Auth flows
	RequireEmailConfirmation bool
	PasswordResetRedirectURL string
	RecoveryTokenExpiry      time.Duration
	ConfirmationTokenExpiry  time.Duration

	// Object storage (S3 compatible)
	StorageEndpoint  string
	StorageAccessKey string
	StorageSecretKey string
	StorageBucket    string
	StorageUseSSL    bool
	StoragePublicURL string

	// Events
	RabbitMQURL string

	// Admin
	AdminEmails  string
	AdminUserIDs string
	AdminToken   string

	// Server
	Port         string
	CORSOrigins  string
	AppEnv       string
	SentryDSN    string
	SupportEmail string
}

var (
	ErrMissingJWTSecret  = errors.New("JWT_SECRET environment variable is required")
	ErrMissingDBPassword = errors.New("DB_PASSWORD environment variable is required")
)

func Load() *Config {
	// A missing .env file is normal outside local development.
	_ = godotenv.Load()

	return &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "pertepiece"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		DBConnectAttempts: uint(parseInt(getEnv("DB_CONNECT_ATTEMPTS", "5"), 5)),
		DBConnectDelay:    parseDuration(getEnv("DB_CONNECT_DELAY", "2s")),

		JWTSecret:        getEnv("JWT_SECRET", ""),
		JWTAccessExpiry:  parseDuration(getEnv("JWT_ACCESS_EXPIRY", "15m")),
		JWTRefreshExpiry: parseDuration(getEnv("JWT_REFRESH_EXPIRY", "168h")),

		RequireEmailConfirmation: parseBool(getEnv("AUTH_REQUIRE_EMAIL_CONFIRMATION", "false")),
		PasswordResetRedirectURL: getEnv("PASSWORD_RESET_REDIRECT_URL", "pertepiece://login-callback"),
		RecoveryTokenExpiry:      parseDuration(getEnv("RECOVERY_TOKEN_EXPIRY", "1h")),
		ConfirmationTokenExpiry:  parseDuration(getEnv("CONFIRMATION_TOKEN_EXPIRY", "24h")),

		StorageEndpoint:  getEnv("STORAGE_ENDPOINT", "localhost:9000"),
		StorageAccessKey: getEnv("STORAGE_ACCESS_KEY", "minioadmin"),
		StorageSecretKey: getEnv("STORAGE_SECRET_KEY", "minioadmin"),
		StorageBucket:    getEnv("STORAGE_BUCKET", "declarations"),
		StorageUseSSL:    parseBool(getEnv("STORAGE_USE_SSL", "false")),
		StoragePublicURL: getEnv("STORAGE_PUBLIC_URL", ""),

		RabbitMQURL: getEnv("RABBITMQ_URL", ""),

		AdminEmails:  getEnv("ADMIN_EMAILS", ""),
		AdminUserIDs: getEnv("ADMIN_USER_IDS", ""),
		AdminToken:   getEnv("ADMIN_TOKEN", ""),

		Port:         getEnv("PORT", "8080"),
		CORSOrigins:  getEnv("CORS_ORIGINS", "*"),
		AppEnv:       getEnv("APP_ENV", "development"),
		SentryDSN:    getEnv("SENTRY_DSN", ""),
		SupportEmail: getEnv("SUPPORT_EMAIL", "support@pertepiece.ci"),
	}
}

// Validate reports the first missing required setting.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return ErrMissingJWTSecret
	}
	if c.DBPassword == "" {
		return ErrMissingDBPassword
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.AppEnv, "development")
}

func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" TimeZone=UTC"
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func parseDuration(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 15 * time.Minute
	}
	return d
}

func parseBool(s string) bool {
	b, err := strconv.ParseBool(s)
	return err == nil && b
}

func parseInt(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
