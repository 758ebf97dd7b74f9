// internal/config/config.go
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"fintrack/internal/blob"
	"fintrack/pkg/db"
)

// Blob backends.
const (
	BlobBackendLocal = "local"
	BlobBackendS3    = "s3"
)

// AppConfig holds all application-wide configurations.
type AppConfig struct {
	ServerPort string
	DB         db.Config

	SessionTTL           time.Duration
	SessionSweepInterval time.Duration
	CookieSecure         bool

	MaxUploadBytes int64
	BlobBackend    string
	UploadDir      string
	S3             blob.S3Config

	AnalyticsURL     string
	AnalyticsTimeout time.Duration

	// AMQPURL empty disables event publishing.
	AMQPURL      string
	AMQPExchange string

	CORSOrigins   []string
	LogLevel      string
	RunMigrations bool
}

// LoadConfig loads configuration from environment variables, seeding them from
// a .env file when one is present. It returns an error if any variable is
// malformed or the resulting configuration is invalid.
func LoadConfig() (*AppConfig, error) {
	_ = godotenv.Load()

	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}
	sessionTTL, err := getEnvDuration("SESSION_TTL", 24*time.Hour)
	if err != nil {
		return nil, err
	}
	sweepInterval, err := getEnvDuration("SESSION_SWEEP_INTERVAL", 10*time.Minute)
	if err != nil {
		return nil, err
	}
	analyticsTimeout, err := getEnvDuration("ANALYTICS_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	maxUpload, err := strconv.ParseInt(getEnv("MAX_UPLOAD_BYTES", "10485760"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid MAX_UPLOAD_BYTES: %w", err)
	}
	cookieSecure, err := getEnvBool("COOKIE_SECURE", false)
	if err != nil {
		return nil, err
	}
	runMigrations, err := getEnvBool("RUN_MIGRATIONS", true)
	if err != nil {
		return nil, err
	}

	cfg := &AppConfig{
		ServerPort: getEnv("SERVER_PORT", "8080"),
		DB: db.Config{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     dbPort,
			User:     getEnv("DB_USER", "user"),
			Password: getEnv("DB_PASSWORD", "password"),
			DBName:   getEnv("DB_NAME", "fintrack"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		SessionTTL:           sessionTTL,
		SessionSweepInterval: sweepInterval,
		CookieSecure:         cookieSecure,
		MaxUploadBytes:       maxUpload,
		BlobBackend:          getEnv("BLOB_BACKEND", BlobBackendLocal),
		UploadDir:            getEnv("UPLOAD_DIR", "./uploads"),
		S3: blob.S3Config{
			Bucket:    os.Getenv("S3_BUCKET"),
			Region:    getEnv("S3_REGION", "us-east-1"),
			Endpoint:  os.Getenv("S3_ENDPOINT"),
			AccessKey: os.Getenv("S3_ACCESS_KEY"),
			SecretKey: os.Getenv("S3_SECRET_KEY"),
		},
		AnalyticsURL:     getEnv("ANALYTICS_URL", "http://localhost:5000"),
		AnalyticsTimeout: analyticsTimeout,
		AMQPURL:          os.Getenv("AMQP_URL"),
		AMQPExchange:     getEnv("AMQP_EXCHANGE", "fintrack"),
		CORSOrigins:      splitList(getEnv("CORS_ORIGIN", "http://localhost:5173")),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		RunMigrations:    runMigrations,
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration and reports every problem it finds.
func (c *AppConfig) Validate() error {
	var problems []string

	if port, err := strconv.Atoi(c.ServerPort); err != nil {
		problems = append(problems, fmt.Sprintf("invalid port '%s': must be a number", c.ServerPort))
	} else if port < 1 || port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.SessionTTL < time.Minute {
		problems = append(problems, fmt.Sprintf("invalid session TTL %v: must be at least 1 minute", c.SessionTTL))
	}
	if c.SessionSweepInterval < time.Second {
		problems = append(problems, fmt.Sprintf("invalid session sweep interval %v: must be at least 1 second", c.SessionSweepInterval))
	}
	if c.MaxUploadBytes < 1 {
		problems = append(problems, fmt.Sprintf("invalid max upload size %d: must be positive", c.MaxUploadBytes))
	}

	switch c.BlobBackend {
	case BlobBackendLocal:
		if c.UploadDir == "" {
			problems = append(problems, "UPLOAD_DIR cannot be empty when using the local blob backend")
		}
	case BlobBackendS3:
		if c.S3.Bucket == "" {
			problems = append(problems, "S3_BUCKET is required when using the s3 blob backend")
		}
	default:
		problems = append(problems, fmt.Sprintf("invalid blob backend '%s': must be one of [%s %s]", c.BlobBackend, BlobBackendLocal, BlobBackendS3))
	}

	if u, err := url.Parse(c.AnalyticsURL); err != nil || u.Scheme == "" || u.Host == "" {
		problems = append(problems, fmt.Sprintf("invalid analytics URL '%s'", c.AnalyticsURL))
	}

	if c.AMQPURL != "" {
		if u, err := url.Parse(c.AMQPURL); err != nil {
			problems = append(problems, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if u.Scheme != "amqp" && u.Scheme != "amqps" {
			problems = append(problems, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", u.Scheme))
		}
		if c.AMQPExchange == "" {
			problems = append(problems, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(problems, "\n- "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
