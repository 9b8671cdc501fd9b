// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Store drivers accepted by STORE_DRIVER.
const (
	StoreAuto     = "auto"
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// Port is the HTTP listen port used when HTTPAddr is empty (default 3000).
	Port int `mapstructure:"PORT"`
	// HTTPAddr is the full HTTP listen address (e.g. 127.0.0.1:3000). Overrides Port.
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// GRPCAddr is the address of the gRPC health server; empty disables it.
	GRPCAddr string `mapstructure:"GRPC_ADDR"`
	// DatabaseURL is the Postgres DSN.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// StoreDriver is postgres, memory or auto (postgres when DatabaseURL is set).
	StoreDriver string `mapstructure:"STORE_DRIVER"`
	// DBMaxConns is the pgx pool size (1-100).
	DBMaxConns int `mapstructure:"DB_MAX_CONNS"`
	// MigrateOnStart runs the embedded migrations up before serving.
	MigrateOnStart bool `mapstructure:"MIGRATE_ON_START"`
	// CORSOrigins is a comma-separated list of allowed origins; "*" allows any.
	CORSOrigins string `mapstructure:"CORS_ORIGINS"`
	// LogLevel is debug, info, warn or error.
	LogLevel string `mapstructure:"LOG_LEVEL"`
	// ShutdownTimeout bounds graceful shutdown of the HTTP server.
	ShutdownTimeout time.Duration `mapstructure:"SHUTDOWN_TIMEOUT"`
	// Env is the application environment. Production refuses the memory store.
	Env string `mapstructure:"APP_ENV"`

	// OTel (optional). Empty endpoint installs no-op providers.
	OTelEndpoint    string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTelInsecure    bool   `mapstructure:"OTEL_EXPORTER_OTLP_INSECURE"`
	OTelServiceName string `mapstructure:"OTEL_SERVICE_NAME"`

	// KafkaBrokers is a comma-separated list of Kafka broker addresses. When set, user events are written to Kafka.
	KafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	// UserEventsTopic is the Kafka topic for user events.
	UserEventsTopic string `mapstructure:"USER_EVENTS_TOPIC"`
	// KafkaGroupID is the consumer group ID for the events worker.
	KafkaGroupID string `mapstructure:"KAFKA_GROUP_ID"`
	// Worker-only: Loki URL the events worker pushes to (e.g. http://localhost:3100).
	LokiURL string `mapstructure:"LOKI_URL"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("PORT", 3000)
	v.SetDefault("HTTP_ADDR", "")
	v.SetDefault("GRPC_ADDR", "")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("STORE_DRIVER", StoreAuto)
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("MIGRATE_ON_START", false)
	v.SetDefault("CORS_ORIGINS", "*")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("SHUTDOWN_TIMEOUT", "20s")
	v.SetDefault("APP_ENV", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_INSECURE", false)
	v.SetDefault("OTEL_SERVICE_NAME", "user-registry")
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("USER_EVENTS_TOPIC", "user-events")
	v.SetDefault("KAFKA_GROUP_ID", "user-events-worker")
	v.SetDefault("LOKI_URL", "")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.HTTPAddr == "" && (c.Port < 1 || c.Port > 65535) {
		return errors.New("config: PORT must be between 1 and 65535")
	}
	if c.DBMaxConns < 1 || c.DBMaxConns > 100 {
		return errors.New("config: DB_MAX_CONNS must be between 1 and 100")
	}
	if c.ShutdownTimeout <= 0 {
		return errors.New("config: SHUTDOWN_TIMEOUT must be positive")
	}
	c.StoreDriver = strings.ToLower(strings.TrimSpace(c.StoreDriver))
	switch c.StoreDriver {
	case "":
		c.StoreDriver = StoreAuto
	case StoreAuto, StorePostgres, StoreMemory:
	default:
		return fmt.Errorf("config: STORE_DRIVER %q must be postgres, memory or auto", c.StoreDriver)
	}
	if c.StoreDriver == StorePostgres && strings.TrimSpace(c.DatabaseURL) == "" {
		return errors.New("config: DATABASE_URL must be set when STORE_DRIVER=postgres")
	}
	if c.ResolvedStoreDriver() == StoreMemory && c.Env == "production" {
		return errors.New("config: memory store must not be used when APP_ENV=production")
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// ListenAddr returns HTTPAddr, or ":PORT" when HTTPAddr is empty.
func (c *Config) ListenAddr() string {
	if c.HTTPAddr != "" {
		return c.HTTPAddr
	}
	return fmt.Sprintf(":%d", c.Port)
}

// ResolvedStoreDriver returns postgres or memory. Auto picks postgres when DatabaseURL is set.
func (c *Config) ResolvedStoreDriver() string {
	switch c.StoreDriver {
	case StorePostgres, StoreMemory:
		return c.StoreDriver
	}
	if strings.TrimSpace(c.DatabaseURL) != "" {
		return StorePostgres
	}
	return StoreMemory
}

// KafkaBrokersList returns Kafka broker addresses from the comma-separated config.
// Used to decide if Kafka events are enabled (non-empty list) and to create the producer and reader.
func (c *Config) KafkaBrokersList() []string {
	if c == nil {
		return nil
	}
	return splitList(c.KafkaBrokers)
}

// CORSOriginsList returns the allowed CORS origins.
func (c *Config) CORSOriginsList() []string {
	if c == nil {
		return nil
	}
	return splitList(c.CORSOrigins)
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// ParseLogLevel maps LOG_LEVEL to a slog.Level. Empty means info.
func ParseLogLevel(s string) (slog.Level, error) {
	if strings.TrimSpace(s) == "" {
		return slog.LevelInfo, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("config: LOG_LEVEL %q is invalid", s)
	}
	return level, nil
}
