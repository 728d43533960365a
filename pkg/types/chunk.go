package types

import (
	"crypto/sha256"
	"errors"
	"slices"
)

// ChunkType represents the dominant kind of logic in a chunk
type ChunkType string

const (
	ChunkDeclaration   ChunkType = "declaration"
	ChunkTransaction   ChunkType = "transaction"
	ChunkErrorHandling ChunkType = "error_handling"
	ChunkLoop          ChunkType = "loop"
	ChunkConditional   ChunkType = "conditional"
	ChunkCursor        ChunkType = "cursor"
	ChunkDynamicSQL    ChunkType = "dynamic_sql"
	ChunkModification  ChunkType = "modification"
	ChunkRetrieval     ChunkType = "retrieval"
	ChunkCalculation   ChunkType = "calculation"
	ChunkValidation    ChunkType = "validation"
	ChunkGeneral       ChunkType = "general"
)

// ChunkTypePriority lists every chunk type from highest to lowest precedence.
// When a chunk shows signals of several types the first match wins.
var ChunkTypePriority = []ChunkType{
	ChunkDeclaration,
	ChunkTransaction,
	ChunkErrorHandling,
	ChunkLoop,
	ChunkConditional,
	ChunkCursor,
	ChunkDynamicSQL,
	ChunkModification,
	ChunkRetrieval,
	ChunkCalculation,
	ChunkValidation,
	ChunkGeneral,
}

// Valid reports whether t is a member of the taxonomy
func (t ChunkType) Valid() bool {
	return slices.Contains(ChunkTypePriority, t)
}

// SubdivisionInfo describes where a sub-chunk came from
type SubdivisionInfo struct {
	// Parent block descriptor
	ParentType  ChunkType
	ParentStart int // 1-based first line of the original block
	ParentEnd   int // 1-based last line of the original block

	Ordinal int // 1-based position among siblings
	Total   int
	Reason  string
}

// SameParent reports whether two sub-chunks were cut from the same block
func (s *SubdivisionInfo) SameParent(o *SubdivisionInfo) bool {
	return s != nil && o != nil &&
		s.ParentStart == o.ParentStart && s.ParentEnd == o.ParentEnd && s.ParentType == o.ParentType
}

// Chunk is a contiguous, classified slice of a script presented as one analysis unit
type Chunk struct {
	// Identification
	ID    int // Dense 1..N within a chunk sequence
	Title string

	// Location (1-based, inclusive)
	StartLine int
	EndLine   int

	// Content
	Content     string
	ContentHash [32]byte // SHA-256 hash for change detection
	TokenCount  int

	// Classification
	ChunkType  ChunkType
	Complexity int
	Summary    string

	// Aggregated line facts
	Operations        []string
	DeclaredVariables []string
	UsedVariables     []string
	Tables            []string
	ControlKeywords   []string
	BusinessFunctions []string

	// Linking
	Dependencies     []int // IDs of earlier chunks this one relies on
	Subdivision      *SubdivisionInfo
	ContinuationFrom int // 0 when absent
	ContinuationTo   int // 0 when absent
}

// LineCount returns the number of source lines in the chunk
func (c *Chunk) LineCount() int {
	return c.EndLine - c.StartLine + 1
}

// IsSubChunk reports whether the chunk was produced by subdivision
func (c *Chunk) IsSubChunk() bool {
	return c.Subdivision != nil
}

// ValidateRange checks that the line range is well formed
func (c *Chunk) ValidateRange() error {
	if c.StartLine <= 0 || c.EndLine <= 0 {
		return errors.New("line numbers must be positive")
	}

	if c.StartLine > c.EndLine {
		return errors.New("start line must be before or equal to end line")
	}

	return nil
}

// ComputeTokenCount estimates the number of tokens in the chunk
// Uses a simple heuristic: characters / 4
func (c *Chunk) ComputeTokenCount() int {
	c.TokenCount = len(c.Content) / 4
	return c.TokenCount
}

// ComputeContentHash computes the SHA-256 hash of the chunk content
func (c *Chunk) ComputeContentHash() {
	c.ContentHash = sha256.Sum256([]byte(c.Content))
}

// ValidateChunkType checks if the chunk type is valid
func (c *Chunk) ValidateChunkType() error {
	if !c.ChunkType.Valid() {
		return ErrInvalidChunkType
	}
	return nil
}

// Validate performs comprehensive validation of the chunk
func (c *Chunk) Validate() error {
	if c.ID <= 0 {
		return ErrInvalidChunkID
	}

	if err := c.ValidateRange(); err != nil {
		return err
	}

	if err := c.ValidateChunkType(); err != nil {
		return err
	}

	if c.Complexity < 0 {
		return ErrNegativeComplexity
	}

	for _, dep := range c.Dependencies {
		if dep >= c.ID || dep <= 0 {
			return ErrForwardDependency
		}
	}

	if s := c.Subdivision; s != nil && (s.Ordinal < 1 || s.Ordinal > s.Total) {
		return ErrInvalidSubdivision
	}

	return nil
}
