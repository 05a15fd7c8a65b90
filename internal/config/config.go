package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the consolidation service
type Config struct {
	// Network (lines, palette, upstream URL)
	Network *Network

	// Fetching
	FetchTimeout    time.Duration
	RefreshInterval time.Duration

	// Static export
	OutputDir          string
	StaticRefreshHours int

	// Run log
	DatabasePath      string
	DatabaseURL       string
	RetentionDuration time.Duration

	// HTTP
	Port               string
	CORSAllowedOrigins []string
}

// LoadEnvFiles loads .env, then lets .env.local override it. Missing files
// are not an error.
func LoadEnvFiles() {
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: failed to load .env: %v", err)
	}
	if err := godotenv.Overload(".env.local"); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: failed to load .env.local: %v", err)
	}
}

// Load reads configuration from environment variables with sensible defaults
func Load() (*Config, error) {
	network, err := LoadNetwork(getEnv("VL_NETWORK_FILE", ""))
	if err != nil {
		return nil, err
	}

	// Environment wins over the network file
	network.TotalLines = getEnvInt("VL_TOTAL_LINES", network.TotalLines)
	network.SourceURL = getEnv("VL_SOURCE_URL", network.SourceURL)
	if err := network.Validate(); err != nil {
		return nil, err
	}

	cfg := &Config{
		Network: network,

		FetchTimeout:    getEnvDuration("VL_FETCH_TIMEOUT_SECONDS", 15, time.Second),
		RefreshInterval: getEnvDuration("VL_REFRESH_INTERVAL_MINUTES", 60, time.Minute),

		OutputDir:          getEnv("VL_OUTPUT_DIR", "./public/voies-lyonnaises"),
		StaticRefreshHours: getEnvInt("VL_STATIC_REFRESH_HOURS", 24),

		DatabasePath:      getEnv("SQLITE_DATABASE", "./data/voies.db"),
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		RetentionDuration: getEnvDuration("RUN_RETENTION_DAYS", 30, 24*time.Hour),

		Port:               getEnv("PORT", "8081"),
		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),
	}

	if cfg.FetchTimeout <= 0 {
		return nil, fmt.Errorf("VL_FETCH_TIMEOUT_SECONDS must be positive")
	}
	if cfg.RefreshInterval <= 0 {
		return nil, fmt.Errorf("VL_REFRESH_INTERVAL_MINUTES must be positive")
	}

	return cfg, nil
}

// UsePostgres reports whether the run log should go to Postgres.
func (c *Config) UsePostgres() bool {
	return c.DatabaseURL != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
		log.Printf("Warning: ignoring non-integer %s=%q", key, value)
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue int, unit time.Duration) time.Duration {
	return time.Duration(getEnvInt(key, defaultValue)) * unit
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
