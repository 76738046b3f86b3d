// Package config provides centralized configuration management for the extractor.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"net"
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Paths    PathsConfig
	Report   ReportConfig
	Server   ServerConfig
	Database DatabaseConfig
	Logging  LoggingConfig
}

// PathsConfig holds input, output and catalog locations.
type PathsConfig struct {
	// MapsDir is the directory scanned for .bsp files (default: maps)
	MapsDir string `env:"BSP_MAPS_DIR" default:"maps"`

	// OutputDir is where CSV reports are written (default: csv)
	OutputDir string `env:"BSP_CSV_DIR" default:"csv"`

	// CatalogPath is the item catalog JSON document (default: item_map.json)
	CatalogPath string `env:"ITEM_MAP_PATH" default:"item_map.json"`
}

// ReportConfig holds report naming and layout settings.
type ReportConfig struct {
	// SimpleNames names reports q2dm1.csv instead of q2dm1_the_edge.csv (default: true)
	SimpleNames bool `env:"REPORT_SIMPLE_NAMES" default:"true"`

	// IncludeMapName writes a "# Map: <name>" line above the header (default: true)
	IncludeMapName bool `env:"REPORT_MAP_COMMENT" default:"true"`

	// GameVersion selects the catalog namespace (default: Q2)
	GameVersion string `env:"GAME_VERSION" default:"Q2"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing response (default: 30s)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"30s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// MaxUploadSize is the largest accepted BSP body in bytes (default: 64MB)
	MaxUploadSize int64 `env:"SERVER_MAX_UPLOAD_SIZE" default:"67108864"`

	// MaxConcurrent is the number of extractions run at once (default: 4)
	MaxConcurrent int `env:"SERVER_MAX_CONCURRENT" default:"4"`

	// MaxWait is how long a request waits for an extraction slot (default: 10s)
	MaxWait time.Duration `env:"SERVER_MAX_WAIT" default:"10s"`

	// RateLimit is requests per minute per client IP; 0 disables (default: 120)
	RateLimit int `env:"SERVER_RATE_LIMIT" default:"120"`

	// CacheSize is the number of extraction results kept by upload content; 0 disables (default: 128)
	CacheSize int `env:"SERVER_CACHE_SIZE" default:"128"`

	// CacheTTL is how long a cached extraction stays valid (default: 10m)
	CacheTTL time.Duration `env:"SERVER_CACHE_TTL" default:"10m"`

	// TrustedProxies is a comma-separated list of proxy CIDRs whose
	// X-Real-IP / X-Forwarded-For headers are honoured
	TrustedProxies []string `env:"TRUSTED_PROXIES"`
}

// DatabaseConfig holds the optional item sink connection.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string; empty disables the sink.
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// MaxConns is the maximum number of connections in the pool (default: 4)
	MaxConns int `env:"DB_MAX_CONNS" default:"4"`

	// Table receives extracted rows (default: bsp_items)
	Table string `env:"DB_ITEMS_TABLE" default:"bsp_items"`
}

// Enabled reports whether a database URL is configured.
func (c *DatabaseConfig) Enabled() bool {
	return c.URL != ""
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
