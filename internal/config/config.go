package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultSessionSecret is the development fallback for SESSION_SECRET
const DefaultSessionSecret = "your-secret-key-change-in-production"

// MinProductionSecretLength is the shortest secret accepted in production
const MinProductionSecretLength = 32

var (
	ErrWeakSecret     = errors.New("secret must be set and at least 32 bytes in production")
	ErrInvalidBackend = errors.New("unknown session backend")
)

var sessionBackends = map[string]bool{"cookie": true, "filesystem": true, "redis": true, "memory": true}

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Session   SessionConfig
	Redis     RedisConfig
	Checkout  CheckoutConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
}

type ServerConfig struct {
	Port            string
	Host            string
	Env             string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	LogLevel        string
}

type DatabaseConfig struct {
	Driver   string // "postgres", "sqlite3" or empty for in-memory storage
	URL      string // Full database URL
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	Path     string // sqlite file path
}

type SessionConfig struct {
	Secret  string
	Backend string // cookie, filesystem, redis or memory
	Name    string
	MaxAge  int // seconds
	Dir     string
	Secure  bool
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type CheckoutConfig struct {
	CatalogFile    string
	PaymentLatency time.Duration
	PaymentTimeout time.Duration
	ReceiptSecret  string
	ReceiptTTL     time.Duration
	PublicURL      string
}

type RateLimitConfig struct {
	RequestsPerMinute int
	Burst             int
}

type CORSConfig struct {
	AllowedOrigins []string
}

func Load() (*Config, error) {
	// Load .env files if they exist (try .env.local first, then .env)
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load(".env")

	env := getEnv("ENV", "development")
	secret := getEnv("SESSION_SECRET", DefaultSessionSecret)

	config := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			Host:            getEnv("HOST", "localhost"),
			Env:             env,
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			LogLevel:        getEnv("LOG_LEVEL", ""),
		},
		Database: parseDatabaseConfig(),
		Session: SessionConfig{
			Secret:  secret,
			Backend: getEnv("SESSION_BACKEND", "cookie"),
			Name:    getEnv("SESSION_NAME", "checkout"),
			MaxAge:  getEnvAsInt("SESSION_MAX_AGE", 3600),
			Dir:     getEnv("SESSION_DIR", ""),
			Secure:  getEnvAsBool("SESSION_SECURE", env == "production"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Checkout: CheckoutConfig{
			CatalogFile:    getEnv("CATALOG_FILE", ""),
			PaymentLatency: getEnvAsDuration("PAYMENT_LATENCY", 1500*time.Millisecond),
			PaymentTimeout: getEnvAsDuration("PAYMENT_TIMEOUT", 10*time.Second),
			ReceiptSecret:  getEnv("RECEIPT_SECRET", secret),
			ReceiptTTL:     getEnvAsDuration("RECEIPT_TTL", 30*24*time.Hour),
			PublicURL:      getEnv("PUBLIC_URL", "http://localhost:8080"),
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: getEnvAsInt("RATE_LIMIT_PER_MINUTE", 60),
			Burst:             getEnvAsInt("RATE_LIMIT_BURST", 10),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:8080"}),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks settings that would be unsafe or unusable at runtime.
// Production refuses the default or short session and receipt secrets.
func (c *Config) Validate() error {
	if !sessionBackends[c.Session.Backend] {
		return fmt.Errorf("SESSION_BACKEND %q: %w", c.Session.Backend, ErrInvalidBackend)
	}

	if c.IsProduction() {
		if weakSecret(c.Session.Secret) {
			return fmt.Errorf("SESSION_SECRET: %w", ErrWeakSecret)
		}
		if weakSecret(c.Checkout.ReceiptSecret) {
			return fmt.Errorf("RECEIPT_SECRET: %w", ErrWeakSecret)
		}
	}

	return nil
}

func weakSecret(secret string) bool {
	return secret == DefaultSessionSecret || len(secret) < MinProductionSecretLength
}

// IsProduction reports whether the server runs with production settings
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

func parseDatabaseConfig() DatabaseConfig {
	driver := getEnv("DATABASE_DRIVER", "")

	// Check if DATABASE_URL is provided
	databaseURL := getEnv("DATABASE_URL", "")
	if databaseURL != "" {
		config := parseDatabaseURL(databaseURL)
		if driver != "" {
			config.Driver = driver
		}
		return config
	}

	if driver == "sqlite3" {
		return DatabaseConfig{
			Driver: driver,
			Path:   getEnv("SQLITE_PATH", "checkout.db"),
		}
	}

	// Fall back to individual environment variables
	return DatabaseConfig{
		Driver:   driver,
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnvAsInt("DB_PORT", 5432),
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		DBName:   getEnv("DB_NAME", "ticket_checkout"),
		SSLMode:  getEnv("DB_SSLMODE", "disable"),
	}
}

func parseDatabaseURL(databaseURL string) DatabaseConfig {
	config := DatabaseConfig{
		Driver: "postgres",
		URL:    databaseURL,
	}

	// Parse the URL
	u, err := url.Parse(databaseURL)
	if err != nil {
		// If parsing fails, return the URL as-is
		return config
	}

	if u.Scheme == "sqlite" || u.Scheme == "file" {
		config.Driver = "sqlite3"
		config.Path = strings.TrimPrefix(databaseURL, u.Scheme+"://")
		return config
	}

	// Extract components
	config.Host = u.Hostname()
	if u.Port() != "" {
		config.Port, _ = strconv.Atoi(u.Port())
	} else {
		config.Port = 5432 // Default PostgreSQL port
	}

	if u.User != nil {
		config.User = u.User.Username()
		config.Password, _ = u.User.Password()
	}

	// Remove leading slash from path to get database name
	config.DBName = strings.TrimPrefix(u.Path, "/")

	// Parse query parameters for SSL mode
	query := u.Query()
	config.SSLMode = query.Get("sslmode")
	if config.SSLMode == "" {
		config.SSLMode = "disable"
	}

	return config
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var list []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			list = append(list, part)
		}
	}
	return list
}
