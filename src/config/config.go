// Package config reads process configuration from the environment (and .env).
package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config captures everything the API, worker and reaper need at startup.
type Config struct {
	AppPort        string
	AllowedOrigins string

	MongoURI string
	MongoDB  string

	// RedisURI is optional. Without it the session cache is skipped and team
	// recomputation runs in-process instead of through Asynq.
	RedisURI string

	JWTSecret string

	SessionDefaultTTL time.Duration
	SessionMaxTTL     time.Duration
	SessionReapCron   string

	ScanRateLimitPerMinute int
	WorkerConcurrency      int

	// SeedDemoData loads sample events, participants and teams at startup.
	SeedDemoData bool
}

// Load reads .env if present, then the environment.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ Warning: No .env file found")
	}
	return FromEnv()
}

// FromEnv builds a Config from environment variables with defaults.
func FromEnv() Config {
	return Config{
		AppPort:                getEnv("APP_PORT", "8888"),
		AllowedOrigins:         getEnv("ALLOWED_ORIGINS", "*"),
		MongoURI:               os.Getenv("MONGO_URI"),
		MongoDB:                getEnv("MONGO_DB", "AttendanceDB"),
		RedisURI:               strings.TrimSpace(os.Getenv("REDIS_URI")),
		JWTSecret:              getEnv("JWT_SECRET", "your_secret_key"),
		SessionDefaultTTL:      time.Duration(getEnvInt("SESSION_DEFAULT_TTL_SECONDS", 300)) * time.Second,
		SessionMaxTTL:          time.Duration(getEnvInt("SESSION_MAX_TTL_SECONDS", 86400)) * time.Second,
		SessionReapCron:        getEnv("SESSION_REAP_CRON", "@every 5m"),
		ScanRateLimitPerMinute: getEnvInt("SCAN_RATE_LIMIT_PER_MINUTE", 60),
		WorkerConcurrency:      getEnvInt("WORKER_CONCURRENCY", 5),
		SeedDemoData:           getEnvBool("SEED_DEMO_DATA", false),
	}
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil || i < 0 {
		log.Printf("⚠️ Invalid %s=%q, using default %d", key, v, def)
		return def
	}
	return i
}

func getEnvBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("⚠️ Invalid %s=%q, using default %t", key, v, def)
		return def
	}
	return b
}
