package chunker

import (
	"errors"
	"fmt"
)

// Strategy selects how oversized logical blocks are treated
type Strategy string

const (
	// StrategyStrictLogical keeps every logical block whole, whatever its size
	StrategyStrictLogical Strategy = "strict_logical"
	// StrategySizeConstrained subdivides blocks above the size or complexity ceiling
	StrategySizeConstrained Strategy = "size_constrained"
	// StrategyHybrid also subdivides blocks above the forced-subdivision threshold
	StrategyHybrid Strategy = "hybrid"
)

// Lookahead windows and capped default extents, in lines
const (
	declarationWindow  = 150
	declarationDefault = 50
	statementWindow    = 40
	statementDefault   = 15
	blockWindow        = 2000
	conditionWindow    = 20
	relocationWindow   = 15
	backwardWindow     = 40
)

// ErrInvalidConfig is returned when a Config fails validation
var ErrInvalidConfig = errors.New("invalid chunker config")

// Config controls chunk sizing. It is passed by value and never modified
// during a run.
type Config struct {
	Strategy                  Strategy
	TargetChunkSize           int // Preferred lines per sub-chunk
	MinChunkSize              int // Sub-chunks shorter than this are not cut
	MaxChunkSize              int // Size ceiling that triggers subdivision
	ForceSubdivisionThreshold int // Hybrid-mode forced ceiling
	MaxComplexity             int // Complexity ceiling that triggers subdivision
	MaxRecursionDepth         int
}

// DefaultConfig returns the default chunking configuration
func DefaultConfig() Config {
	return Config{
		Strategy:                  StrategyHybrid,
		TargetChunkSize:           60,
		MinChunkSize:              10,
		MaxChunkSize:              120,
		ForceSubdivisionThreshold: 200,
		MaxComplexity:             80,
		MaxRecursionDepth:         3,
	}
}

// ParseStrategy converts a strategy name to a Strategy
func ParseStrategy(name string) (Strategy, error) {
	switch s := Strategy(name); s {
	case StrategyStrictLogical, StrategySizeConstrained, StrategyHybrid:
		return s, nil
	default:
		return "", fmt.Errorf("%w: unknown strategy %q", ErrInvalidConfig, name)
	}
}

// Validate checks that the ceilings are positive and consistently ordered
func (c Config) Validate() error {
	if _, err := ParseStrategy(string(c.Strategy)); err != nil {
		return err
	}
	if c.MinChunkSize <= 0 || c.TargetChunkSize <= 0 || c.MaxChunkSize <= 0 {
		return fmt.Errorf("%w: chunk sizes must be positive", ErrInvalidConfig)
	}
	if c.MinChunkSize > c.TargetChunkSize {
		return fmt.Errorf("%w: min size %d exceeds target size %d", ErrInvalidConfig, c.MinChunkSize, c.TargetChunkSize)
	}
	if c.TargetChunkSize > c.MaxChunkSize {
		return fmt.Errorf("%w: target size %d exceeds max size %d", ErrInvalidConfig, c.TargetChunkSize, c.MaxChunkSize)
	}
	if c.ForceSubdivisionThreshold <= 0 || c.MaxComplexity <= 0 {
		return fmt.Errorf("%w: thresholds must be positive", ErrInvalidConfig)
	}
	if c.MaxRecursionDepth < 1 {
		return fmt.Errorf("%w: recursion depth must be at least 1", ErrInvalidConfig)
	}
	return nil
}

// normalized fills zero fields from DefaultConfig
func (c Config) normalized() Config {
	d := DefaultConfig()
	if c.Strategy == "" {
		c.Strategy = d.Strategy
	}
	if c.TargetChunkSize <= 0 {
		c.TargetChunkSize = d.TargetChunkSize
	}
	if c.MinChunkSize <= 0 {
		c.MinChunkSize = d.MinChunkSize
	}
	if c.MaxChunkSize <= 0 {
		c.MaxChunkSize = d.MaxChunkSize
	}
	if c.ForceSubdivisionThreshold <= 0 {
		c.ForceSubdivisionThreshold = d.ForceSubdivisionThreshold
	}
	if c.MaxComplexity <= 0 {
		c.MaxComplexity = d.MaxComplexity
	}
	if c.MaxRecursionDepth <= 0 {
		c.MaxRecursionDepth = d.MaxRecursionDepth
	}
	return c
}
