package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Store backends selectable via STORE_BACKEND.
const (
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
	StoreCSV      = "csv"
)

// Fetch modes selectable via FETCH_MODE.
const (
	FetchHTTP    = "http"
	FetchBrowser = "browser"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	StoreBackend string

	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	SQLitePath string
	CSVDir     string

	MaxConcurrency int
	PacingMinMs    int
	PacingMaxMs    int
	FetchTimeoutMs int

	FetchMode string
	ChromeBin string

	LogLevel        string
	SiteProfilePath string
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		StoreBackend: getEnv("STORE_BACKEND", StoreSQLite),

		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", ""),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", ""),
		PostgresDB:       getEnv("POSTGRES_DB", "idealista"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		SQLitePath: getEnv("SQLITE_PATH", "./idealista.db"),
		CSVDir:     getEnv("CSV_DIR", "./output"),

		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 3),
		PacingMinMs:    getEnvInt("PACING_MIN_MS", 5000),
		PacingMaxMs:    getEnvInt("PACING_MAX_MS", 15000),
		FetchTimeoutMs: getEnvInt("FETCH_TIMEOUT_MS", 30000),

		FetchMode: getEnv("FETCH_MODE", FetchHTTP),
		ChromeBin: getEnv("CHROME_BIN", ""),

		LogLevel:        getEnv("LOG_LEVEL", "info"),
		SiteProfilePath: getEnv("SITE_PROFILE", ""),
	}
}

// Validate reports missing required configuration. This is the only error
// class that aborts the whole run, and it does so before any crawling starts.
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case StorePostgres:
		if c.PostgresUser == "" || c.PostgresPassword == "" {
			return errors.New("config: POSTGRES_USER and POSTGRES_PASSWORD must be set for the postgres backend")
		}
	case StoreSQLite:
		if c.SQLitePath == "" {
			return errors.New("config: SQLITE_PATH must be set for the sqlite backend")
		}
	case StoreCSV:
		if c.CSVDir == "" {
			return errors.New("config: CSV_DIR must be set for the csv backend")
		}
	default:
		return fmt.Errorf("config: unknown store backend %q", c.StoreBackend)
	}

	if c.FetchMode != FetchHTTP && c.FetchMode != FetchBrowser {
		return fmt.Errorf("config: unknown fetch mode %q", c.FetchMode)
	}
	return nil
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

// PacingMin returns the lower bound of the jittered inter-request delay.
func (c *Config) PacingMin() time.Duration {
	return time.Duration(c.PacingMinMs) * time.Millisecond
}

// PacingMax returns the upper bound of the jittered inter-request delay.
func (c *Config) PacingMax() time.Duration {
	return time.Duration(c.PacingMaxMs) * time.Millisecond
}

// FetchTimeout returns the per-fetch deadline.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutMs) * time.Millisecond
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}
