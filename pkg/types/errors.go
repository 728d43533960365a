package types

import "errors"

// Domain errors for type validation
var (
	// Chunk errors
	ErrInvalidChunkID     = errors.New("invalid chunk ID")
	ErrInvalidChunkType   = errors.New("invalid chunk type")
	ErrNegativeComplexity = errors.New("complexity cannot be negative")
	ErrForwardDependency  = errors.New("dependencies must point to earlier chunks")
	ErrInvalidSubdivision = errors.New("subdivision ordinal must be within 1..total")

	// Search result errors
	ErrInvalidRank           = errors.New("rank must be >= 1")
	ErrInvalidRelevanceScore = errors.New("relevance score must be between 0 and 1")
	ErrMissingScriptInfo     = errors.New("script info is required")
	ErrEmptyContent          = errors.New("content cannot be empty")
)
