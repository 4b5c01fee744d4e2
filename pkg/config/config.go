// Package config loads the opaque configuration structure spec §6
// describes: an engine selector plus engine-specific options, read from
// GRAPHDB_* environment variables and, through LoadFromFile, optionally
// from a YAML file layered on top of them.
//
// Configuration is loaded from environment variables using LoadFromEnv()
// and should be validated with Validate() before use.
//
// Example Usage:
//
//	cfg := config.LoadFromEnv()
//	if err := cfg.Validate(); err != nil {
//		log.Fatalf("invalid config: %v", err)
//	}
//
//	fmt.Printf("engine: %s, path: %s\n", cfg.Engine, cfg.DataPath)
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Engine selects which graph.Backend implementation LoadFromEnv's caller
// constructs (spec §6: "opaque structure selecting engine (relational or
// native)"). GRAPHDB_ENGINE is the one environment-variable hook spec §6
// permits for backend pre-selection.
type Engine string

const (
	EngineRelational Engine = "relational"
	EngineNative     Engine = "native"
)

// Config holds all GraphDB configuration loaded from environment variables.
//
// Configuration is organized into logical sections:
//   - Engine: which storage backend to construct
//   - DataPath: the file/database path, shared across engines
//   - Relational: options consumed only when Engine == EngineRelational
//   - Native: options consumed only when Engine == EngineNative
//   - Logging: ambient logging configuration (§10.1)
//
// Use LoadFromEnv() to create a Config from environment variables.
type Config struct {
	// Engine selects relational or native (default: relational).
	Engine Engine
	// DataPath is the backing file: a SQLite database file for the
	// relational engine, a single native-format file for the native
	// engine.
	DataPath string

	Relational RelationalConfig
	Native     NativeConfig
	Logging    LoggingConfig
}

// RelationalConfig holds options specific to the relational engine
// (spec §6: "skip migrations flag, a statement cache size, and a map of
// additional PRAGMA-style tuning directives applied after open").
type RelationalConfig struct {
	// SkipMigrations, if true, opens the database without running the
	// migration ladder — the caller is asserting the schema is already
	// current.
	SkipMigrations bool
	// StatementCacheSize is loaded and validated but not passed to the
	// relational engine, whose prepared-statement cache in connection.go
	// is unbounded.
	StatementCacheSize int
	// AdjacencyCacheCapacity sets the LRU adjacency-cache size (see
	// DefaultCacheCapacity in pkg/graph/relational).
	AdjacencyCacheCapacity int
	// Pragmas is applied as `PRAGMA key = value` statements, in Go map
	// iteration order (unspecified), immediately after opening the
	// connection and before migrations run.
	Pragmas map[string]string
}

// NativeConfig holds options specific to the native engine (spec §6:
// "create_if_missing and capacity hints for node/edge pre-allocation").
type NativeConfig struct {
	// CreateIfMissing creates a fresh native file when DataPath does not
	// exist, rather than failing to open.
	CreateIfMissing bool
	// NodeCapacityHint and EdgeCapacityHint pre-size the in-memory
	// node/edge indexes built on open, avoiding repeated map growth for
	// large graphs. Zero means "no hint" (maps grow on demand).
	NodeCapacityHint int
	EdgeCapacityHint int
}

// LoggingConfig holds logging settings. They are loaded and shown by
// String; neither engine nor the CLI reads them, and the engines do not
// log.
type LoggingConfig struct {
	// Level (DEBUG, INFO, WARN, ERROR)
	Level string
	// Format (json, text) — text for local CLI use, json for piping into
	// a log aggregator.
	Format string
}

// DefaultDataPath is used when GRAPHDB_DATA_PATH is unset.
const DefaultDataPath = "./graph.db"

// LoadFromEnv loads configuration from environment variables. All values
// have sensible defaults, so LoadFromEnv() can be called without any
// environment variables set — the default is a relational engine backed
// by ./graph.db with migrations enabled and an empty pragma map.
//
// Recognized variables:
//
//	GRAPHDB_ENGINE=relational|native           (default relational)
//	GRAPHDB_DATA_PATH=./graph.db                (default ./graph.db)
//	GRAPHDB_RELATIONAL_SKIP_MIGRATIONS=true
//	GRAPHDB_RELATIONAL_STATEMENT_CACHE_SIZE=128
//	GRAPHDB_RELATIONAL_CACHE_CAPACITY=10000
//	GRAPHDB_RELATIONAL_PRAGMA_<NAME>=<VALUE>    (e.g. GRAPHDB_RELATIONAL_PRAGMA_CACHE_SIZE=-20000
//	                                              becomes PRAGMA cache_size = -20000)
//	GRAPHDB_NATIVE_CREATE_IF_MISSING=true
//	GRAPHDB_NATIVE_NODE_CAPACITY_HINT=100000
//	GRAPHDB_NATIVE_EDGE_CAPACITY_HINT=500000
//	GRAPHDB_LOG_LEVEL=INFO
//	GRAPHDB_LOG_FORMAT=text
func LoadFromEnv() *Config {
	cfg := &Config{}

	cfg.Engine = Engine(strings.ToLower(getEnv("GRAPHDB_ENGINE", string(EngineRelational))))
	cfg.DataPath = getEnv("GRAPHDB_DATA_PATH", DefaultDataPath)

	cfg.Relational.SkipMigrations = getEnvBool("GRAPHDB_RELATIONAL_SKIP_MIGRATIONS", false)
	cfg.Relational.StatementCacheSize = getEnvInt("GRAPHDB_RELATIONAL_STATEMENT_CACHE_SIZE", 128)
	cfg.Relational.AdjacencyCacheCapacity = getEnvInt("GRAPHDB_RELATIONAL_CACHE_CAPACITY", 10000)
	cfg.Relational.Pragmas = getEnvPragmas("GRAPHDB_RELATIONAL_PRAGMA_")

	cfg.Native.CreateIfMissing = getEnvBool("GRAPHDB_NATIVE_CREATE_IF_MISSING", true)
	cfg.Native.NodeCapacityHint = getEnvInt("GRAPHDB_NATIVE_NODE_CAPACITY_HINT", 0)
	cfg.Native.EdgeCapacityHint = getEnvInt("GRAPHDB_NATIVE_EDGE_CAPACITY_HINT", 0)

	cfg.Logging.Level = getEnv("GRAPHDB_LOG_LEVEL", "INFO")
	cfg.Logging.Format = getEnv("GRAPHDB_LOG_FORMAT", "text")

	return cfg
}

// Validate checks the configuration for logical errors. Call Validate()
// after LoadFromEnv() and before constructing a backend.
func (c *Config) Validate() error {
	if c.Engine != EngineRelational && c.Engine != EngineNative {
		return fmt.Errorf("invalid GRAPHDB_ENGINE %q: must be %q or %q", c.Engine, EngineRelational, EngineNative)
	}
	if strings.TrimSpace(c.DataPath) == "" {
		return fmt.Errorf("GRAPHDB_DATA_PATH must not be empty")
	}
	if c.Relational.StatementCacheSize < 0 {
		return fmt.Errorf("invalid statement cache size: %d", c.Relational.StatementCacheSize)
	}
	if c.Relational.AdjacencyCacheCapacity < 0 {
		return fmt.Errorf("invalid adjacency cache capacity: %d", c.Relational.AdjacencyCacheCapacity)
	}
	if c.Native.NodeCapacityHint < 0 || c.Native.EdgeCapacityHint < 0 {
		return fmt.Errorf("capacity hints must not be negative")
	}
	return nil
}

// String returns a string representation of Config suitable for logging.
func (c *Config) String() string {
	return fmt.Sprintf("Config{Engine: %s, DataPath: %s, Log: %s/%s}",
		c.Engine, c.DataPath, c.Logging.Level, c.Logging.Format)
}

// Helper functions for environment variable parsing, following the
// teacher's config.go convention.

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		val = strings.ToLower(val)
		return val == "true" || val == "1" || val == "yes" || val == "on"
	}
	return defaultVal
}

// getEnvDuration is unused by the current config surface but kept for CLI
// flags (e.g. a future --busy-timeout) that want duration parsing
// consistent with the rest of this package.
func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

// getEnvPragmas scans the process environment for keys starting with
// prefix and builds a PRAGMA name -> value map, lower-casing the PRAGMA
// name (GRAPHDB_RELATIONAL_PRAGMA_CACHE_SIZE=-20000 becomes
// {"cache_size": "-20000"}).
func getEnvPragmas(prefix string) map[string]string {
	pragmas := make(map[string]string)
	for _, kv := range os.Environ() {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) != 2 || !strings.HasPrefix(parts[0], prefix) {
			continue
		}
		name := strings.ToLower(strings.TrimPrefix(parts[0], prefix))
		if name == "" {
			continue
		}
		pragmas[name] = parts[1]
	}
	return pragmas
}
