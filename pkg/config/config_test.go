package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearGraphdbEnv(t *testing.T) {
	t.Helper()
	for _, kv := range os.Environ() {
		for _, prefix := range []string{"GRAPHDB_"} {
			if len(kv) > len(prefix) && kv[:len(prefix)] == prefix {
				name, _, _ := cutEnv(kv)
				orig, had := os.LookupEnv(name)
				t.Cleanup(func() {
					if had {
						os.Setenv(name, orig)
					} else {
						os.Unsetenv(name)
					}
				})
				os.Unsetenv(name)
			}
		}
	}
}

func cutEnv(kv string) (name, value string, ok bool) {
	for i := 0; i < len(kv); i++ {
		if kv[i] == '=' {
			return kv[:i], kv[i+1:], true
		}
	}
	return kv, "", false
}

func TestLoadFromEnvDefaults(t *testing.T) {
	clearGraphdbEnv(t)
	cfg := LoadFromEnv()

	assert.Equal(t, EngineRelational, cfg.Engine)
	assert.Equal(t, DefaultDataPath, cfg.DataPath)
	assert.False(t, cfg.Relational.SkipMigrations)
	assert.Equal(t, 128, cfg.Relational.StatementCacheSize)
	assert.Equal(t, 10000, cfg.Relational.AdjacencyCacheCapacity)
	assert.Empty(t, cfg.Relational.Pragmas)
	assert.True(t, cfg.Native.CreateIfMissing)
	assert.Equal(t, "INFO", cfg.Logging.Level)
	require.NoError(t, cfg.Validate())
}

func TestLoadFromEnvOverrides(t *testing.T) {
	clearGraphdbEnv(t)
	os.Setenv("GRAPHDB_ENGINE", "native")
	os.Setenv("GRAPHDB_DATA_PATH", "/tmp/graph.ndb")
	os.Setenv("GRAPHDB_NATIVE_NODE_CAPACITY_HINT", "1000")
	os.Setenv("GRAPHDB_RELATIONAL_PRAGMA_CACHE_SIZE", "-20000")
	t.Cleanup(func() {
		os.Unsetenv("GRAPHDB_ENGINE")
		os.Unsetenv("GRAPHDB_DATA_PATH")
		os.Unsetenv("GRAPHDB_NATIVE_NODE_CAPACITY_HINT")
		os.Unsetenv("GRAPHDB_RELATIONAL_PRAGMA_CACHE_SIZE")
	})

	cfg := LoadFromEnv()
	assert.Equal(t, EngineNative, cfg.Engine)
	assert.Equal(t, "/tmp/graph.ndb", cfg.DataPath)
	assert.Equal(t, 1000, cfg.Native.NodeCapacityHint)
	assert.Equal(t, "-20000", cfg.Relational.Pragmas["cache_size"])
}

func TestValidateRejectsUnknownEngine(t *testing.T) {
	cfg := &Config{Engine: "mongodb", DataPath: "x"}
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsEmptyDataPath(t *testing.T) {
	cfg := &Config{Engine: EngineRelational, DataPath: "  "}
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsNegativeCapacity(t *testing.T) {
	cfg := &Config{Engine: EngineRelational, DataPath: "x", Native: NativeConfig{NodeCapacityHint: -1}}
	assert.Error(t, cfg.Validate())
}
