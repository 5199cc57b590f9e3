package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/shopspring/decimal"
)

const (
	ServiceName    = "vending-machine"
	ServiceVersion = "0.1.0"
)

const (
	CatalogBundled = "bundled"
	CatalogFile    = "file"
	CatalogRedis   = "redis"
	CatalogMySQL   = "mysql"

	IdempotencyMemory = "memory"
	IdempotencyRedis  = "redis"
)

type Config struct {
	HTTPAddr string
	GRPCAddr string

	CatalogSource   string
	CatalogPath     string
	RedisAddr       string
	RedisCatalogKey string
	MySQLDSN        string

	InitialBalance   decimal.Decimal
	IdempotencyStore string

	KafkaBroker string
	KafkaTopic  string
	WorkerCount int
	QueueSize   int

	OtelEndpoint string
	LogLevel     string
}

// LoadConfig reads the environment, applying defaults for unset variables.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		HTTPAddr:         env("HTTP_ADDR", ":8080"),
		GRPCAddr:         env("GRPC_ADDR", ":50051"),
		CatalogSource:    env("CATALOG_SOURCE", CatalogBundled),
		CatalogPath:      os.Getenv("CATALOG_PATH"),
		RedisAddr:        env("REDIS_ADDR", "localhost:6379"),
		RedisCatalogKey:  env("REDIS_CATALOG_KEY", "vending:catalog"),
		MySQLDSN:         os.Getenv("MYSQL_DSN"),
		IdempotencyStore: env("IDEMPOTENCY_STORE", IdempotencyMemory),
		KafkaBroker:      os.Getenv("KAFKA_BROKER"),
		KafkaTopic:       env("KAFKA_TOPIC", "VendCompleted"),
		OtelEndpoint:     os.Getenv("OTEL_ENDPOINT"),
		LogLevel:         env("LOG_LEVEL", "info"),
	}

	var err error
	if cfg.InitialBalance, err = decimal.NewFromString(env("INITIAL_BALANCE", "10.00")); err != nil {
		return nil, fmt.Errorf("INITIAL_BALANCE: %w", err)
	}
	if cfg.InitialBalance.IsNegative() {
		return nil, fmt.Errorf("INITIAL_BALANCE must not be negative, got %s", cfg.InitialBalance)
	}
	if cfg.WorkerCount, err = envInt("WORKER_COUNT", 2); err != nil {
		return nil, err
	}
	if cfg.QueueSize, err = envInt("QUEUE_SIZE", 1000); err != nil {
		return nil, err
	}

	switch cfg.CatalogSource {
	case CatalogBundled, CatalogRedis:
	case CatalogFile:
		if cfg.CatalogPath == "" {
			return nil, fmt.Errorf("CATALOG_PATH environment variable is required for file catalogs")
		}
	case CatalogMySQL:
		if cfg.MySQLDSN == "" {
			return nil, fmt.Errorf("MYSQL_DSN environment variable is required for mysql catalogs")
		}
	default:
		return nil, fmt.Errorf("unknown CATALOG_SOURCE %q", cfg.CatalogSource)
	}

	switch cfg.IdempotencyStore {
	case IdempotencyMemory, IdempotencyRedis:
	default:
		return nil, fmt.Errorf("unknown IDEMPOTENCY_STORE %q", cfg.IdempotencyStore)
	}

	if cfg.WorkerCount < 1 {
		return nil, fmt.Errorf("WORKER_COUNT must be at least 1, got %d", cfg.WorkerCount)
	}

	return cfg, nil
}

// UsesRedis reports whether any component needs a Redis connection.
func (c *Config) UsesRedis() bool {
	return c.CatalogSource == CatalogRedis || c.IdempotencyStore == IdempotencyRedis
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envInt(k string, def int) (int, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", k, err)
	}
	return n, nil
}
