package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gobwas/glob"
)

var (
	// ErrInvalidChunking indicates chunking ceilings the chunker rejects
	ErrInvalidChunking = errors.New("invalid chunking configuration")

	// ErrInvalidPattern indicates an empty or malformed glob pattern
	ErrInvalidPattern = errors.New("invalid path pattern")

	// ErrInvalidWorkers indicates a negative worker count
	ErrInvalidWorkers = errors.New("invalid worker count")

	// ErrInvalidBatchSize indicates a non-positive batch size
	ErrInvalidBatchSize = errors.New("invalid batch size")

	// ErrEmptyDBPath indicates a missing database path
	ErrEmptyDBPath = errors.New("empty database path")
)

// Validate checks every section and reports all problems at once.
func Validate(cfg *Config) error {
	var errs []error

	if err := cfg.ChunkerConfig().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("%w: %w", ErrInvalidChunking, err))
	}

	errs = append(errs, validatePatterns("paths.include", cfg.Paths.Include)...)
	errs = append(errs, validatePatterns("paths.ignore", cfg.Paths.Ignore)...)

	if cfg.Index.Workers < 0 {
		errs = append(errs, fmt.Errorf("%w: workers cannot be negative, got %d", ErrInvalidWorkers, cfg.Index.Workers))
	}
	if cfg.Index.BatchSize <= 0 {
		errs = append(errs, fmt.Errorf("%w: batch_size must be positive, got %d", ErrInvalidBatchSize, cfg.Index.BatchSize))
	}

	if strings.TrimSpace(cfg.Storage.DBPath) == "" {
		errs = append(errs, fmt.Errorf("%w: storage.db_path is required", ErrEmptyDBPath))
	}

	return errors.Join(errs...)
}

func validatePatterns(key string, patterns []string) []error {
	var errs []error
	for _, p := range patterns {
		if strings.TrimSpace(p) == "" {
			errs = append(errs, fmt.Errorf("%w: %s contains an empty pattern", ErrInvalidPattern, key))
			continue
		}
		if _, err := glob.Compile(p, '/'); err != nil {
			errs = append(errs, fmt.Errorf("%w: %s %q: %w", ErrInvalidPattern, key, p, err))
		}
	}
	return errs
}
