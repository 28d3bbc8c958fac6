/*
Package config loads server configuration from the environment.

PURPOSE:
  Centralizes environment handling for the payroll server. Values come
  from a .env file when present (development convenience) and plain
  environment variables otherwise. Command-line flags in cmd/server
  override both.

VARIABLES:
  PORT           HTTP server port (default: 8080)
  DATABASE_PATH  SQLite database path (default: payroll.db)
  CORS_ORIGINS   Comma-separated allowed origins (default: *)
  SEED_DEMO      "true" seeds the demo tenant on startup (default: false)
  LOG_LEVEL      zap level: debug, info, warn, error (default: info)

SEE ALSO:
  - cmd/server/main.go: flag overrides and wiring
*/
package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds the server runtime configuration.
type Config struct {
	Port        int
	DBPath      string
	CORSOrigins []string
	SeedDemo    bool
	LogLevel    string
}

// Load reads configuration from .env (if present) and the environment.
// A missing .env file is not an error.
func Load() Config {
	// Best effort: environment variables win when no .env exists.
	_ = godotenv.Load()

	return Config{
		Port:        getEnvInt("PORT", 8080),
		DBPath:      getEnvOrDefault("DATABASE_PATH", "payroll.db"),
		CORSOrigins: splitOrigins(getEnvOrDefault("CORS_ORIGINS", "*")),
		SeedDemo:    getEnvBool("SEED_DEMO", false),
		LogLevel:    getEnvOrDefault("LOG_LEVEL", "info"),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return b
}

func splitOrigins(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
