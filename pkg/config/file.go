package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// fileConfig mirrors Config's shape for YAML decoding. It is kept separate
// from Config so LoadFromEnv's env-var-only path never pulls in a YAML
// dependency, and so zero-value YAML fields (an omitted key) can be told
// apart from an explicit false/0 before being layered onto defaults.
type fileConfig struct {
	Engine     *string            `yaml:"engine"`
	DataPath   *string            `yaml:"data_path"`
	Relational *fileRelationalCfg `yaml:"relational"`
	Native     *fileNativeCfg     `yaml:"native"`
	Logging    *fileLoggingCfg    `yaml:"logging"`
}

type fileRelationalCfg struct {
	SkipMigrations         *bool             `yaml:"skip_migrations"`
	StatementCacheSize     *int              `yaml:"statement_cache_size"`
	AdjacencyCacheCapacity *int              `yaml:"cache_capacity"`
	Pragmas                map[string]string `yaml:"pragmas"`
}

type fileNativeCfg struct {
	CreateIfMissing  *bool `yaml:"create_if_missing"`
	NodeCapacityHint *int  `yaml:"node_capacity_hint"`
	EdgeCapacityHint *int  `yaml:"edge_capacity_hint"`
}

type fileLoggingCfg struct {
	Level  *string `yaml:"level"`
	Format *string `yaml:"format"`
}

// LoadFromFile reads a YAML configuration file and layers it onto the
// environment-derived defaults from LoadFromEnv, following
// straga-Mimir_lite/nornicdb's config.go convention of a YAML file as the
// durable source of truth. A key present in the file overrides the
// GRAPHDB_* environment value for it; a key absent from the file leaves
// the environment/default value untouched.
func LoadFromFile(path string) (*Config, error) {
	cfg := LoadFromEnv()

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(b, &fc); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}

	if fc.Engine != nil {
		cfg.Engine = Engine(*fc.Engine)
	}
	if fc.DataPath != nil {
		cfg.DataPath = *fc.DataPath
	}
	if r := fc.Relational; r != nil {
		if r.SkipMigrations != nil {
			cfg.Relational.SkipMigrations = *r.SkipMigrations
		}
		if r.StatementCacheSize != nil {
			cfg.Relational.StatementCacheSize = *r.StatementCacheSize
		}
		if r.AdjacencyCacheCapacity != nil {
			cfg.Relational.AdjacencyCacheCapacity = *r.AdjacencyCacheCapacity
		}
		for k, v := range r.Pragmas {
			if cfg.Relational.Pragmas == nil {
				cfg.Relational.Pragmas = make(map[string]string)
			}
			cfg.Relational.Pragmas[k] = v
		}
	}
	if n := fc.Native; n != nil {
		if n.CreateIfMissing != nil {
			cfg.Native.CreateIfMissing = *n.CreateIfMissing
		}
		if n.NodeCapacityHint != nil {
			cfg.Native.NodeCapacityHint = *n.NodeCapacityHint
		}
		if n.EdgeCapacityHint != nil {
			cfg.Native.EdgeCapacityHint = *n.EdgeCapacityHint
		}
	}
	if l := fc.Logging; l != nil {
		if l.Level != nil {
			cfg.Logging.Level = *l.Level
		}
		if l.Format != nil {
			cfg.Logging.Format = *l.Format
		}
	}

	return cfg, nil
}
