package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{envDatabaseDSN, envNeo4j, envWorkers, envDebug} {
		require.NoError(t, os.Unsetenv(k))
	}

	cfg := Load()

	assert.Equal(t, defaultDatabaseDSN, cfg.DatabaseDSN)
	assert.Equal(t, "", cfg.Neo4jConnStr)
	assert.False(t, cfg.UsesRemote())
	assert.Equal(t, 0, cfg.Workers)
	assert.False(t, cfg.Debug)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv(envDatabaseDSN, "/tmp/custom.db")
	t.Setenv(envNeo4j, "neo4j://example:7687")
	t.Setenv(envWorkers, "4")
	t.Setenv(envDebug, "true")

	cfg := Load()

	assert.Equal(t, "/tmp/custom.db", cfg.DatabaseDSN)
	assert.Equal(t, "neo4j://example:7687", cfg.Neo4jConnStr)
	assert.True(t, cfg.UsesRemote())
	assert.Equal(t, 4, cfg.Workers)
	assert.True(t, cfg.Debug)
}

func TestLoadIgnoresInvalidWorkersAndDebug(t *testing.T) {
	t.Setenv(envWorkers, "not-a-number")
	t.Setenv(envDebug, "not-a-bool")

	cfg := Load()

	assert.Equal(t, 0, cfg.Workers)
	assert.False(t, cfg.Debug)
}
