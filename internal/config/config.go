// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Store drivers accepted by STORE_DRIVER.
const (
	StoreMongo    = "mongo"
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
	StoreMemory   = "memory"
)

// Cache drivers accepted by CACHE_DRIVER.
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// HTTPAddr is the address the REST API listens on (e.g. :8000).
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// GRPCAddr is the address of the gRPC health endpoint. Empty disables it.
	GRPCAddr string `mapstructure:"GRPC_ADDR"`
	// BasePath prefixes every API route (e.g. /api).
	BasePath string `mapstructure:"BASE_PATH"`
	// Env is the application environment ("development", "production"). Selects the log encoder.
	Env string `mapstructure:"APP_ENV"`
	// LogLevel is the minimum zap level (debug, info, warn, error).
	LogLevel string `mapstructure:"LOG_LEVEL"`

	// StoreDriver selects the document store: mongo, postgres, sqlite or memory.
	StoreDriver string `mapstructure:"STORE_DRIVER"`
	MongoURI    string `mapstructure:"MONGO_URI"`
	// MongoDatabase is the database name inside the Mongo deployment.
	MongoDatabase string `mapstructure:"MONGO_DATABASE"`
	// DatabaseURL is the Postgres DSN used by the postgres driver and cmd/migrate.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// SQLitePath is the database file for the sqlite driver.
	SQLitePath string `mapstructure:"SQLITE_PATH"`
	// MemoryTransactions controls whether the memory store reports transaction support.
	MemoryTransactions bool `mapstructure:"MEMORY_TRANSACTIONS"`

	// JWTPrivateKey is the PEM-encoded private key (RSA or ECDSA) or path to file. Empty with an empty
	// JWTPublicKey generates an ephemeral key pair (development only).
	JWTPrivateKey string `mapstructure:"JWT_PRIVATE_KEY"`
	// JWTPublicKey is the PEM-encoded public key or path to file; used with JWT_PRIVATE_KEY.
	JWTPublicKey string `mapstructure:"JWT_PUBLIC_KEY"`
	JWTIssuer    string `mapstructure:"JWT_ISSUER"`
	JWTAudience  string `mapstructure:"JWT_AUDIENCE"`
	// JWTAccessTTL is the access token lifetime (e.g. "24h").
	JWTAccessTTL string `mapstructure:"JWT_ACCESS_TTL"`
	// BcryptCost is the bcrypt cost factor (4–31); default 12.
	BcryptCost int `mapstructure:"BCRYPT_COST"`
	// SessionCookieName carries the access token for browser clients.
	SessionCookieName string `mapstructure:"SESSION_COOKIE_NAME"`

	// Google OAuth. Social login routes are disabled when the client ID is empty.
	GoogleClientID     string `mapstructure:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `mapstructure:"GOOGLE_CLIENT_SECRET"`
	GoogleCallbackURL  string `mapstructure:"GOOGLE_CALLBACK_URL"`
	// FrontendOrigin is the SPA origin; CORS allows it and OAuth redirects land on it.
	FrontendOrigin string `mapstructure:"FRONTEND_ORIGIN"`
	// FrontendGoogleCallbackURL receives ?status=failure when social login fails.
	FrontendGoogleCallbackURL string `mapstructure:"FRONTEND_GOOGLE_CALLBACK_URL"`

	// CacheDriver selects token revocation and OAuth state storage: memory or redis.
	CacheDriver   string `mapstructure:"CACHE_DRIVER"`
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	// Events (optional). When Kafka brokers are set, domain events are also written to Kafka.
	// KafkaBrokers is a comma-separated list of broker addresses (e.g. "localhost:9092").
	KafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	// EventsKafkaTopic is the topic for domain events.
	EventsKafkaTopic string `mapstructure:"EVENTS_KAFKA_TOPIC"`
	// KafkaGroupID is the consumer group ID for cmd/worker.
	KafkaGroupID string `mapstructure:"KAFKA_GROUP_ID"`
	// LokiURL is where cmd/worker pushes events (e.g. http://localhost:3100).
	LokiURL string `mapstructure:"LOKI_URL"`

	// AuthzPolicyFile is an optional Rego module replacing the built-in permission policy.
	AuthzPolicyFile string `mapstructure:"AUTHZ_POLICY_FILE"`

	// OTLPEndpoint is the collector endpoint for traces, metrics and event logs. Empty disables export.
	OTLPEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTLPInsecure bool   `mapstructure:"OTEL_EXPORTER_OTLP_INSECURE"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()
	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("HTTP_ADDR", ":8000")
	v.SetDefault("GRPC_ADDR", ":9090")
	v.SetDefault("BASE_PATH", "/api")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("STORE_DRIVER", StoreMongo)
	v.SetDefault("MONGO_URI", "")
	v.SetDefault("MONGO_DATABASE", "teamhub")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("SQLITE_PATH", "data/teamhub.db")
	v.SetDefault("MEMORY_TRANSACTIONS", true)
	v.SetDefault("JWT_PRIVATE_KEY", "")
	v.SetDefault("JWT_PUBLIC_KEY", "")
	v.SetDefault("JWT_ISSUER", "teamhub-auth")
	v.SetDefault("JWT_AUDIENCE", "teamhub-api")
	v.SetDefault("JWT_ACCESS_TTL", "24h")
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("SESSION_COOKIE_NAME", "session")
	v.SetDefault("GOOGLE_CLIENT_ID", "")
	v.SetDefault("GOOGLE_CLIENT_SECRET", "")
	v.SetDefault("GOOGLE_CALLBACK_URL", "")
	v.SetDefault("FRONTEND_ORIGIN", "http://localhost:5173")
	v.SetDefault("FRONTEND_GOOGLE_CALLBACK_URL", "http://localhost:5173/google/oauth/callback")
	v.SetDefault("CACHE_DRIVER", CacheMemory)
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("EVENTS_KAFKA_TOPIC", "teamhub-events")
	v.SetDefault("KAFKA_GROUP_ID", "teamhub-events-worker")
	v.SetDefault("LOKI_URL", "")
	v.SetDefault("AUTHZ_POLICY_FILE", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_INSECURE", false)
}

func (c *Config) validate() error {
	if c.HTTPAddr == "" {
		return errors.New("config: HTTP_ADDR must be set")
	}
	c.StoreDriver = strings.ToLower(strings.TrimSpace(c.StoreDriver))
	switch c.StoreDriver {
	case StoreMongo:
		if c.MongoURI == "" {
			return errors.New("config: MONGO_URI must be set when STORE_DRIVER=mongo")
		}
	case StorePostgres:
		if c.DatabaseURL == "" {
			return errors.New("config: DATABASE_URL must be set when STORE_DRIVER=postgres")
		}
	case StoreSQLite:
		if c.SQLitePath == "" {
			return errors.New("config: SQLITE_PATH must be set when STORE_DRIVER=sqlite")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("config: unknown STORE_DRIVER %q", c.StoreDriver)
	}

	c.CacheDriver = strings.ToLower(strings.TrimSpace(c.CacheDriver))
	if c.CacheDriver != CacheMemory && c.CacheDriver != CacheRedis {
		return fmt.Errorf("config: unknown CACHE_DRIVER %q", c.CacheDriver)
	}

	if c.BcryptCost == 0 {
		c.BcryptCost = 12
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return errors.New("config: BCRYPT_COST must be between 4 and 31")
	}

	if (c.JWTPrivateKey == "") != (c.JWTPublicKey == "") {
		return errors.New("config: JWT_PRIVATE_KEY and JWT_PUBLIC_KEY must be set together")
	}
	if c.IsProduction() && c.JWTPrivateKey == "" {
		return errors.New("config: JWT keys must be set when APP_ENV=production")
	}

	if c.GoogleClientID != "" && (c.GoogleClientSecret == "" || c.GoogleCallbackURL == "") {
		return errors.New("config: GOOGLE_CLIENT_SECRET and GOOGLE_CALLBACK_URL must be set with GOOGLE_CLIENT_ID")
	}

	c.BasePath = "/" + strings.Trim(c.BasePath, "/")
	return nil
}

// IsProduction reports whether APP_ENV names a production deployment.
func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

// AccessTTL parses JWTAccessTTL as a time.Duration. Returns 24h if unset or invalid.
func (c *Config) AccessTTL() time.Duration {
	d, err := time.ParseDuration(c.JWTAccessTTL)
	if err != nil || d <= 0 {
		return 24 * time.Hour
	}
	return d
}

// GoogleEnabled reports whether Google social login is configured.
func (c *Config) GoogleEnabled() bool {
	return c.GoogleClientID != ""
}

// KafkaBrokersList returns Kafka broker addresses from the comma-separated config.
// Used to decide if the Kafka event producer is enabled (non-empty list).
func (c *Config) KafkaBrokersList() []string {
	if c == nil || c.KafkaBrokers == "" {
		return nil
	}
	parts := strings.Split(c.KafkaBrokers, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
