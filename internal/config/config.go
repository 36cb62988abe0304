package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Backend selects where the cart is persisted.
type Backend string

const (
	BackendMemory   Backend = "memory"
	BackendFile     Backend = "file"
	BackendSQLite   Backend = "sqlite"
	BackendPostgres Backend = "postgres"
	BackendRedis    Backend = "redis"
	BackendMongo    Backend = "mongo"
)

var Backends = []Backend{BackendMemory, BackendFile, BackendSQLite, BackendPostgres, BackendRedis, BackendMongo}

var ErrUnknownBackend = errors.New("unknown cart backend")

type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
}

type Config struct {
	Environment string
	HTTPPort    string

	Backend    Backend
	CartKey    string
	FilePath   string
	SQLitePath string
	DB         DBConfig
	MongoURI   string
	MongoDB    string
	RedisAddr  string
	RedisPass  string
	CartTTL    time.Duration

	OrdersAPIURL    string
	OrderTimeout    time.Duration
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration

	JWTSecret    string
	KafkaBrokers []string
}

// Load reads the configuration from the environment. A .env file in the
// working directory is applied first when present; variables already set
// in the environment win.
func Load() (*Config, error) {
	// .env is optional
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv reads the configuration from the environment only.
func FromEnv() (*Config, error) {
	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		HTTPPort:    getEnv("HTTP_PORT", "8080"),

		Backend:    Backend(strings.ToLower(getEnv("CART_BACKEND", string(BackendFile)))),
		CartKey:    getEnv("CART_KEY", "default"),
		FilePath:   getEnv("CART_FILE_PATH", "cart.json"),
		SQLitePath: getEnv("CART_SQLITE_PATH", "cart.db"),
		DB: DBConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			Name:     getEnv("DB_NAME", "cart"),
		},
		MongoURI:  getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:   getEnv("MONGO_DB_NAME", "cartdb"),
		RedisAddr: getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPass: getEnv("REDIS_PASSWORD", ""),

		OrdersAPIURL: getEnv("ORDERS_API_URL", "http://localhost:8081/api"),
		JWTSecret:    getEnv("JWT_SECRET", ""),
		KafkaBrokers: splitList(getEnv("KAFKA_BROKERS", "")),
	}

	var err error
	if cfg.DB.Port, err = getInt("DB_PORT", 5432); err != nil {
		return nil, err
	}
	if cfg.CartTTL, err = getDuration("CART_TTL", 90*24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.OrderTimeout, err = getDuration("ORDER_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.RequestTimeout, err = getDuration("REQUEST_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.ShutdownTimeout, err = getDuration("SHUTDOWN_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if !slices.Contains(Backends, c.Backend) {
		return fmt.Errorf("%w %q", ErrUnknownBackend, c.Backend)
	}
	if strings.TrimSpace(c.CartKey) == "" {
		return errors.New("CART_KEY must not be empty")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
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

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
