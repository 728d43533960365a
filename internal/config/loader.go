package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Option adjusts the viper instance before the configuration is read,
// typically to bind command-line flags.
type Option func(v *viper.Viper) error

// Loader loads configuration for a project directory.
type Loader struct {
	rootDir string
	opts    []Option
}

// NewLoader creates a configuration loader for the given root directory.
func NewLoader(rootDir string, opts ...Option) *Loader {
	return &Loader{
		rootDir: rootDir,
		opts:    opts,
	}
}

// BindFlag returns an Option that lets flag override key. An unset flag
// never overrides the file, environment or default value.
func BindFlag(key string, flag *pflag.Flag) Option {
	return func(v *viper.Viper) error {
		if flag == nil {
			return nil
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", flag.Name, err)
		}
		return nil
	}
}

// Load loads configuration with the following priority (highest to lowest):
// 1. Bound flags
// 2. Environment variables (SQLCHUNKER_*)
// 3. Config file (.sqlchunker/config.yml or .sqlchunker/config.yaml)
// 4. Default values
func (l *Loader) Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(filepath.Join(l.rootDir, ".sqlchunker"))

	// SQLCHUNKER_CHUNKING_MAX_SIZE overrides chunking.max_size
	v.SetEnvPrefix("SQLCHUNKER")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	for _, key := range []string{
		"chunking.strategy",
		"chunking.target_size",
		"chunking.min_size",
		"chunking.max_size",
		"chunking.force_threshold",
		"chunking.max_complexity",
		"chunking.max_depth",
		"paths.include",
		"paths.ignore",
		"index.workers",
		"index.batch_size",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}
	if err := v.BindEnv("storage.db_path", "SQLCHUNKER_DB_PATH", "SQLCHUNKER_STORAGE_DB_PATH"); err != nil {
		return nil, fmt.Errorf("failed to bind storage.db_path: %w", err)
	}

	setDefaults(v)

	for _, opt := range l.opts {
		if err := opt(v); err != nil {
			return nil, err
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("chunking.strategy", defaults.Chunking.Strategy)
	v.SetDefault("chunking.target_size", defaults.Chunking.TargetSize)
	v.SetDefault("chunking.min_size", defaults.Chunking.MinSize)
	v.SetDefault("chunking.max_size", defaults.Chunking.MaxSize)
	v.SetDefault("chunking.force_threshold", defaults.Chunking.ForceThreshold)
	v.SetDefault("chunking.max_complexity", defaults.Chunking.MaxComplexity)
	v.SetDefault("chunking.max_depth", defaults.Chunking.MaxDepth)

	v.SetDefault("paths.include", defaults.Paths.Include)
	v.SetDefault("paths.ignore", defaults.Paths.Ignore)

	v.SetDefault("index.workers", defaults.Index.Workers)
	v.SetDefault("index.batch_size", defaults.Index.BatchSize)

	v.SetDefault("storage.db_path", defaults.Storage.DBPath)
}

// LoadConfig loads configuration rooted at the current working directory.
func LoadConfig(opts ...Option) (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	return NewLoader(wd, opts...).Load()
}
