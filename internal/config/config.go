// Package config loads service configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration values for the simulator service.
type Config struct {
	// Server
	Addr            string
	Env             string
	GracefulTimeout time.Duration

	// Logging
	LogLevel string

	// Session store
	StoreBackend    string // "memory" or "redis"
	SessionPrefix   string
	SessionTTLSec   int
	IdleHorizon     time.Duration

	// Redis
	RedisHost     string
	RedisPort     int
	RedisUser     string
	RedisPassword string
	RedisDB       int

	// ClickHouse (historical loader)
	ClickHouseHost     string
	ClickHousePort     int
	ClickHouseUser     string
	ClickHousePassword string
	ClickHouseDB       string

	// MongoDB (optional step/event archive)
	MongoURI             string
	MongoDatabase        string
	MongoStepsCollection string
	MongoEventsCollection string
	MongoTimeout         time.Duration

	// Cleanup scheduler
	CleanupSchedule string
}

// Load reads configuration from environment variables and an optional .env file.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Addr:            getEnv("LISTEN_ADDR", "0.0.0.0:7070"),
		Env:             getEnv("ENV", "development"),
		GracefulTimeout: time.Duration(getEnvInt("GRACEFUL_TIMEOUT_SEC", 15)) * time.Second,

		LogLevel: getEnv("LOG_LEVEL", "info"),

		StoreBackend:  getEnv("SESSION_STORE_BACKEND", "memory"),
		SessionPrefix: getEnv("SESSION_KEY_PREFIX", "session:"),
		SessionTTLSec: getEnvInt("SESSION_TTL_SEC", 1800),
		IdleHorizon:   time.Duration(getEnvInt("SESSION_IDLE_HORIZON_SEC", 1800)) * time.Second,

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnvInt("REDIS_PORT", 6379),
		RedisUser:     getEnv("REDIS_USER", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		ClickHouseHost:     getEnv("CLICKHOUSE_HOST", "localhost"),
		ClickHousePort:     getEnvInt("CLICKHOUSE_PORT", 9000),
		ClickHouseUser:     getEnv("CLICKHOUSE_USER", "default"),
		ClickHousePassword: getEnv("CLICKHOUSE_PASSWORD", ""),
		ClickHouseDB:       getEnv("CLICKHOUSE_DB", "default"),

		MongoURI:              getEnv("MONGODB_URI", ""),
		MongoDatabase:         getEnv("MONGODB_DATABASE", "optionchain_simulator"),
		MongoStepsCollection:  getEnv("MONGODB_STEPS_COLLECTION", "steps"),
		MongoEventsCollection: getEnv("MONGODB_EVENTS_COLLECTION", "events"),
		MongoTimeout:          time.Duration(getEnvInt("MONGODB_TIMEOUT", 30)) * time.Second,

		CleanupSchedule: getEnv("CLEANUP_CRON_SCHEDULE", "@every 5m"),
	}
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// RedisAddr returns the host:port pair redis.Options expects.
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
