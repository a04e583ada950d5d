// Package config provides runtime configuration values for the service.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

var defaultOrigins = []string{
	"http://localhost:5173",
	"http://localhost:5174",
	"http://127.0.0.1:5173",
	"http://127.0.0.1:5174",
	"http://localhost:3000",
	"http://127.0.0.1:3000",
}

// Config holds configuration knobs for the HTTP server, storage and background workers.
type Config struct {
	ServiceName string
	Env         string
	// LogFile, when set, receives a copy of every log line next to stdout.
	LogFile  string
	LogLevel string

	HTTPAddr        string
	ShutdownTimeout time.Duration

	// DatabaseURL selects the Postgres store; empty keeps everything in memory.
	DatabaseURL string
	Seed        bool

	SessionTTL          time.Duration
	SessionReapInterval time.Duration

	LowStockThreshold  int
	LowChangeThreshold int

	CORSAllowedOrigins []string
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func atoienv(key string, def int) int {
	v := getenv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func boolenv(key string, def bool) bool {
	v := getenv(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// durenv accepts Go duration strings ("90s", "5m").
func durenv(key string, def time.Duration) time.Duration {
	v := getenv(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		return def
	}
	return d
}

func listenv(key string, def []string) []string {
	v := getenv(key, "")
	if v == "" {
		return append([]string(nil), def...)
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Load collects configuration from environment with defaults.
func Load() Config {
	return Config{
		ServiceName:         getenv("SERVICE_NAME", "vending"),
		Env:                 getenv("ENV", "dev"),
		LogFile:             getenv("LOG_FILE", ""),
		LogLevel:            getenv("LOG_LEVEL", "info"),
		HTTPAddr:            getenv("HTTP_ADDR", ":8080"),
		ShutdownTimeout:     durenv("SHUTDOWN_TIMEOUT", 10*time.Second),
		DatabaseURL:         getenv("DATABASE_URL", ""),
		Seed:                boolenv("SEED", true),
		SessionTTL:          durenv("SESSION_TTL", 0),
		SessionReapInterval: durenv("SESSION_REAP_INTERVAL", time.Minute),
		LowStockThreshold:   atoienv("LOW_STOCK_THRESHOLD", 3),
		LowChangeThreshold:  atoienv("LOW_CHANGE_THRESHOLD", 5),
		CORSAllowedOrigins:  listenv("CORS_ALLOWED_ORIGINS", defaultOrigins),
	}
}
