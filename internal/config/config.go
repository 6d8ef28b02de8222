package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"
	_ "time/tzdata"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Tesseract-Nexus/go-shared/secrets"

	"filing-service/internal/money"
)

// Config holds application configuration
type Config struct {
	// Database
	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Server
	Port        string
	Environment string
	LogLevel    string

	// Authorization
	StaffServiceURL string

	// Optional infrastructure; empty disables the feature
	RedisURL string
	NATSURL  string

	// Filing
	CodebookPath       string
	SoftwareName       string
	SoftwareVersion    string
	FilingTimezone     string
	SnapshotTTLMinutes int
	RoundingMode       string
}

// Load creates a new configuration from environment variables
func Load() *Config {
	dbPort, _ := strconv.Atoi(getEnv("DB_PORT", "5432"))
	snapshotTTLMinutes, _ := strconv.Atoi(getEnv("SNAPSHOT_TTL_MINUTES", "1440"))

	return &Config{
		// Database
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     dbPort,
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: secrets.GetDBPassword(),
		DBName:     getEnv("DB_NAME", "filing"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		// Server
		Port:        getEnv("PORT", "8093"),
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		StaffServiceURL: getEnv("STAFF_SERVICE_URL", "http://staff-service:8080"),

		RedisURL: os.Getenv("REDIS_URL"),
		NATSURL:  os.Getenv("NATS_URL"),

		// Filing
		CodebookPath:       os.Getenv("CODEBOOK_PATH"),
		SoftwareName:       getEnv("SOFTWARE_NAME", "filing-service"),
		SoftwareVersion:    getEnv("SOFTWARE_VERSION", "1.0.0"),
		FilingTimezone:     getEnv("FILING_TIMEZONE", "Europe/Prague"),
		SnapshotTTLMinutes: snapshotTTLMinutes,
		RoundingMode:       getEnv("ROUNDING_MODE", string(money.HalfUp)),
	}
}

// Validate checks the values that have no safe fallback
func (c *Config) Validate() error {
	if _, err := c.Location(); err != nil {
		return err
	}
	if _, err := c.Rounding(); err != nil {
		return err
	}
	if c.SnapshotTTLMinutes <= 0 {
		return fmt.Errorf("SNAPSHOT_TTL_MINUTES must be positive, got %d", c.SnapshotTTLMinutes)
	}
	return nil
}

// Location is the time zone submission dates are stated in
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.FilingTimezone)
	if err != nil {
		return nil, fmt.Errorf("invalid FILING_TIMEZONE %q: %w", c.FilingTimezone, err)
	}
	return loc, nil
}

// Rounding is the configured presentation rounding mode
func (c *Config) Rounding() (money.RoundingMode, error) {
	mode, err := money.ParseRoundingMode(c.RoundingMode)
	if err != nil {
		return "", fmt.Errorf("invalid ROUNDING_MODE: %w", err)
	}
	return mode, nil
}

// SnapshotTTL is how long a preview fingerprint is kept
func (c *Config) SnapshotTTL() time.Duration {
	return time.Duration(c.SnapshotTTLMinutes) * time.Minute
}

// NewLogger creates the JSON logrus logger used by every component
func (c *Config) NewLogger() *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	return log
}

// InitDB initializes the database connection
func InitDB(cfg *Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBSSLMode)

	var logLevel logger.LogLevel
	if cfg.Environment == "production" {
		logLevel = logger.Error
	} else {
		logLevel = logger.Info
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return db, nil
}

// InitRedis connects to redis. It returns nil, nil when REDIS_URL is empty.
func InitRedis(ctx context.Context, cfg *Config) (*redis.Client, error) {
	if cfg.RedisURL == "" {
		return nil, nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}

	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return client, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
