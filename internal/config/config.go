// Package config loads sqlchunker settings from built-in defaults, an
// optional .sqlchunker/config.yml file, SQLCHUNKER_* environment variables
// and bound command-line flags.
package config

import (
	"github.com/dshills/sqlchunker/internal/chunker"
	"github.com/dshills/sqlchunker/internal/indexer"
)

// DefaultDBPath is the index database used when storage.db_path is unset
const DefaultDBPath = "~/.sqlchunker/index.db"

// Config represents the complete sqlchunker configuration.
type Config struct {
	Chunking ChunkingConfig `yaml:"chunking" mapstructure:"chunking"`
	Paths    PathsConfig    `yaml:"paths" mapstructure:"paths"`
	Index    IndexConfig    `yaml:"index" mapstructure:"index"`
	Storage  StorageConfig  `yaml:"storage" mapstructure:"storage"`
}

// ChunkingConfig holds the chunker ceilings.
type ChunkingConfig struct {
	Strategy       string `yaml:"strategy" mapstructure:"strategy"`               // strict_logical, size_constrained or hybrid
	TargetSize     int    `yaml:"target_size" mapstructure:"target_size"`         // preferred lines per sub-chunk
	MinSize        int    `yaml:"min_size" mapstructure:"min_size"`               // shortest sub-chunk worth cutting
	MaxSize        int    `yaml:"max_size" mapstructure:"max_size"`               // size ceiling
	ForceThreshold int    `yaml:"force_threshold" mapstructure:"force_threshold"` // hybrid forced ceiling
	MaxComplexity  int    `yaml:"max_complexity" mapstructure:"max_complexity"`
	MaxDepth       int    `yaml:"max_depth" mapstructure:"max_depth"`
}

// PathsConfig selects which scripts are indexed.
type PathsConfig struct {
	Include []string `yaml:"include" mapstructure:"include"`
	Ignore  []string `yaml:"ignore" mapstructure:"ignore"`
}

// IndexConfig tunes the indexer.
type IndexConfig struct {
	Workers   int `yaml:"workers" mapstructure:"workers"`       // 0 means one per CPU
	BatchSize int `yaml:"batch_size" mapstructure:"batch_size"` // scripts per write transaction
}

// StorageConfig locates the index database.
type StorageConfig struct {
	DBPath string `yaml:"db_path" mapstructure:"db_path"`
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	c := chunker.DefaultConfig()
	return &Config{
		Chunking: ChunkingConfig{
			Strategy:       string(c.Strategy),
			TargetSize:     c.TargetChunkSize,
			MinSize:        c.MinChunkSize,
			MaxSize:        c.MaxChunkSize,
			ForceThreshold: c.ForceSubdivisionThreshold,
			MaxComplexity:  c.MaxComplexity,
			MaxDepth:       c.MaxRecursionDepth,
		},
		Paths: PathsConfig{
			Include: append([]string(nil), indexer.DefaultInclude...),
			Ignore:  append([]string(nil), indexer.DefaultIgnore...),
		},
		Index: IndexConfig{
			Workers:   0,
			BatchSize: 20,
		},
		Storage: StorageConfig{
			DBPath: DefaultDBPath,
		},
	}
}

// ChunkerConfig converts the chunking section to a chunker.Config.
func (c *Config) ChunkerConfig() chunker.Config {
	return chunker.Config{
		Strategy:                  chunker.Strategy(c.Chunking.Strategy),
		TargetChunkSize:           c.Chunking.TargetSize,
		MinChunkSize:              c.Chunking.MinSize,
		MaxChunkSize:              c.Chunking.MaxSize,
		ForceSubdivisionThreshold: c.Chunking.ForceThreshold,
		MaxComplexity:             c.Chunking.MaxComplexity,
		MaxRecursionDepth:         c.Chunking.MaxDepth,
	}
}

// IndexerConfig builds the indexer settings for one run.
func (c *Config) IndexerConfig(force bool, progress indexer.ProgressReporter) *indexer.Config {
	return &indexer.Config{
		Workers:   c.Index.Workers,
		BatchSize: c.Index.BatchSize,
		Include:   c.Paths.Include,
		Ignore:    c.Paths.Ignore,
		Chunking:  c.ChunkerConfig(),
		Force:     force,
		Progress:  progress,
	}
}
