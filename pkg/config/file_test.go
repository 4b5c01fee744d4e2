package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "graphdb.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadFromFileOverridesDefaults(t *testing.T) {
	clearGraphdbEnv(t)
	path := writeConfigFile(t, `
engine: native
data_path: /var/lib/graph.ndb
native:
  node_capacity_hint: 5000
relational:
  pragmas:
    journal_mode: WAL
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, EngineNative, cfg.Engine)
	assert.Equal(t, "/var/lib/graph.ndb", cfg.DataPath)
	assert.Equal(t, 5000, cfg.Native.NodeCapacityHint)
	assert.Equal(t, "WAL", cfg.Relational.Pragmas["journal_mode"])
}

func TestLoadFromFileOmittedKeysKeepEnvDefaults(t *testing.T) {
	clearGraphdbEnv(t)
	os.Setenv("GRAPHDB_DATA_PATH", "/env/graph.db")
	t.Cleanup(func() { os.Unsetenv("GRAPHDB_DATA_PATH") })

	path := writeConfigFile(t, `
engine: relational
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, EngineRelational, cfg.Engine)
	assert.Equal(t, "/env/graph.db", cfg.DataPath)
}

func TestLoadFromFilePragmasMergeOntoEnvPragmas(t *testing.T) {
	clearGraphdbEnv(t)
	os.Setenv("GRAPHDB_RELATIONAL_PRAGMA_CACHE_SIZE", "-20000")
	t.Cleanup(func() { os.Unsetenv("GRAPHDB_RELATIONAL_PRAGMA_CACHE_SIZE") })

	path := writeConfigFile(t, `
relational:
  pragmas:
    journal_mode: WAL
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "-20000", cfg.Relational.Pragmas["cache_size"])
	assert.Equal(t, "WAL", cfg.Relational.Pragmas["journal_mode"])
}

func TestLoadFromFileMissingFileErrors(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadFromFileInvalidYAMLErrors(t *testing.T) {
	path := writeConfigFile(t, "engine: [this is not a mapping")
	_, err := LoadFromFile(path)
	assert.Error(t, err)
}
