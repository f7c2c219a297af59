// Package config loads pointa's runtime configuration: environment
// variables plus an optional .env file loaded first. The only option that
// changes analysis behavior is the neo4j connection string, which selects
// the remote slicer back-end; everything else is runtime ergonomics.
package config

import (
	"os"
	"strconv"
)

// Config holds pointa's runtime configuration, loaded from environment
// variables (POINTA_*), with an optional .env file loaded first.
type Config struct {
	// DatabaseDSN selects the local constraint store (sqlite file path, or
	// a libsql:// / https:// URL for a remote turso-style database).
	DatabaseDSN string

	// Neo4jConnStr enables the optional remote slicer back-end when
	// non-empty.
	Neo4jConnStr string

	// Workers bounds the walker's extraction worker pool.
	Workers int

	// Debug enables verbose gorm/sql logging.
	Debug bool
}

const (
	envDatabaseDSN = "POINTA_DB_DSN"
	envNeo4j       = "POINTA_NEO4J"
	envWorkers     = "POINTA_WORKERS"
	envDebug       = "POINTA_DEBUG"

	defaultDatabaseDSN = "pointa.db"
)

// Load reads configuration from the environment, loading a .env file
// first if one is present in the working directory (ignored if absent).
func Load() *Config {
	_ = loadDotenv()

	cfg := &Config{
		DatabaseDSN:  os.Getenv(envDatabaseDSN),
		Neo4jConnStr: os.Getenv(envNeo4j),
	}

	if cfg.DatabaseDSN == "" {
		cfg.DatabaseDSN = defaultDatabaseDSN
	}

	if workersStr := os.Getenv(envWorkers); workersStr != "" {
		if workers, err := strconv.Atoi(workersStr); err == nil && workers > 0 {
			cfg.Workers = workers
		}
	}

	if debugStr := os.Getenv(envDebug); debugStr != "" {
		if debug, err := strconv.ParseBool(debugStr); err == nil {
			cfg.Debug = debug
		}
	}

	return cfg
}

// UsesRemote reports whether the optional graph-DB slicer back-end
// should be used instead of the local store.
func (c *Config) UsesRemote() bool {
	return c.Neo4jConnStr != ""
}
