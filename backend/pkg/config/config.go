package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	apperrors "cybernauts/backend/pkg/errors"
)

// Store backends
const (
	StoreMemory   = "memory"
	StoreNeo4j    = "neo4j"
	StoreMongo    = "mongo"
	StoreDynamoDB = "dynamodb"
)

// Event backends
const (
	EventsNone  = "none"
	EventsRedis = "redis"
	EventsNATS  = "nats"
)

// Config holds all application configuration
type Config struct {
	// App
	Port            string
	Env             string
	LogLevel        string
	FrontendOrigin  string
	ShutdownTimeout time.Duration
	MetricsEnabled  bool
	Layout          string // random|grid

	// Store
	StoreBackend string

	// Neo4j
	Neo4jURI      string
	Neo4jUser     string
	Neo4jPassword string
	Neo4jDatabase string

	// MongoDB
	MongoURI      string
	MongoDatabase string

	// DynamoDB
	DynamoTable    string
	DynamoEndpoint string // Local endpoint override (dynamodb-local)
	AWSRegion      string

	// Redis
	RedisEnabled bool
	RedisURL     string
	CacheTTL     time.Duration

	// Events
	EventsBackend string
	NATSURL       string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()

	cfg := &Config{
		Port:            getEnv("PORT", "3000"),
		Env:             getEnv("ENV", "development"),
		LogLevel:        getEnv("LOG_LEVEL", ""),
		FrontendOrigin:  getEnv("FRONTEND_ORIGIN_URL", ""),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		MetricsEnabled:  getEnvBool("METRICS_ENABLED", true),
		Layout:          strings.ToLower(getEnv("LAYOUT", "random")),
		StoreBackend:    strings.ToLower(getEnv("STORE_BACKEND", StoreMongo)),
		Neo4jURI:        getEnv("NEO4J_URI", "bolt://localhost:7687"),
		Neo4jUser:       getEnv("NEO4J_USER", "neo4j"),
		Neo4jPassword:   getEnv("NEO4J_PASSWORD", "password"),
		Neo4jDatabase:   getEnv("NEO4J_DATABASE", ""),
		MongoURI:        getEnv("DB_URL", ""),
		MongoDatabase:   getEnv("MONGO_DATABASE", "cybernauts"),
		DynamoTable:     getEnv("DYNAMODB_TABLE", "cybernauts-users"),
		DynamoEndpoint:  getEnv("DYNAMODB_ENDPOINT", ""),
		AWSRegion:       getEnv("AWS_REGION", "us-east-1"),
		RedisEnabled:    getEnvBool("REDIS_ENABLED", false),
		RedisURL:        getEnv("REDIS_URL", "redis://localhost:6379"),
		CacheTTL:        getEnvDuration("CACHE_TTL", 300*time.Second),
		NATSURL:         getEnv("NATS_URL", "nats://localhost:4222"),
	}

	// Broadcasts ride on Redis by default when it is enabled, as the
	// cache and the pub/sub channels share one server.
	defaultEvents := EventsNone
	if cfg.RedisEnabled {
		defaultEvents = EventsRedis
	}
	cfg.EventsBackend = strings.ToLower(getEnv("EVENTS_BACKEND", defaultEvents))

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration values are set
func (c *Config) Validate() error {
	if c.Port == "" {
		return apperrors.NewConfigMissingRequired("PORT")
	}

	switch c.StoreBackend {
	case StoreMemory:
	case StoreNeo4j:
		if c.Neo4jURI == "" {
			return apperrors.NewConfigMissingRequired("NEO4J_URI")
		}
		if c.Neo4jUser == "" {
			return apperrors.NewConfigMissingRequired("NEO4J_USER")
		}
	case StoreMongo:
		if c.MongoURI == "" {
			return apperrors.NewConfigMissingRequired("DB_URL")
		}
	case StoreDynamoDB:
		if c.DynamoTable == "" {
			return apperrors.NewConfigMissingRequired("DYNAMODB_TABLE")
		}
	default:
		return apperrors.NewConfigValidationFailed("STORE_BACKEND", fmt.Sprintf("unknown backend %q", c.StoreBackend))
	}

	switch c.EventsBackend {
	case EventsNone, EventsNATS:
	case EventsRedis:
		if !c.RedisEnabled {
			return apperrors.NewConfigValidationFailed("EVENTS_BACKEND", "redis events require REDIS_ENABLED=true")
		}
	default:
		return apperrors.NewConfigValidationFailed("EVENTS_BACKEND", fmt.Sprintf("unknown backend %q", c.EventsBackend))
	}

	if c.Layout != "random" && c.Layout != "grid" {
		return apperrors.NewConfigValidationFailed("LAYOUT", "must be random or grid")
	}
	if c.CacheTTL <= 0 {
		return apperrors.NewConfigValidationFailed("CACHE_TTL", "must be positive")
	}
	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// getEnvDuration accepts Go durations ("5m") or plain seconds ("300")
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
