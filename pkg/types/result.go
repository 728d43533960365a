package types

// SearchResult represents a single search result with relevance information
type SearchResult struct {
	// Identification
	ChunkID int64 // Storage row ID
	Rank    int   // Position in result set (1-based)

	// Scoring
	RelevanceScore float64 // Normalised BM25 score

	// Metadata
	Script *ScriptInfo
	Chunk  *Chunk
}

// ScriptInfo contains script metadata for a search result
type ScriptInfo struct {
	Path      string // Relative to project root
	LineCount int
}

// Validate checks if the search result is valid
func (sr *SearchResult) Validate() error {
	if sr.ChunkID == 0 {
		return ErrInvalidChunkID
	}

	if sr.Rank < 1 {
		return ErrInvalidRank
	}

	if sr.RelevanceScore < 0 || sr.RelevanceScore > 1 {
		return ErrInvalidRelevanceScore
	}

	if sr.Script == nil {
		return ErrMissingScriptInfo
	}

	if sr.Chunk == nil || sr.Chunk.Content == "" {
		return ErrEmptyContent
	}

	return nil
}

// LineRange is an inclusive 1-based range of lines
type LineRange struct {
	Start int
	End   int
}

// Overlap is a pair of ranges that share at least one line
type Overlap struct {
	First  LineRange
	Second LineRange
}

// CoverageReport is the outcome of checking that a set of ranges tiles a script
type CoverageReport struct {
	Ranges        []LineRange // Sorted by start line
	Gaps          []LineRange // Lines covered by no range
	Overlaps      []Overlap
	CoveredLines  int // Sum of range lengths
	ExpectedLines int
}

// Perfect reports whether the ranges cover every line exactly once
func (r *CoverageReport) Perfect() bool {
	return len(r.Gaps) == 0 && len(r.Overlaps) == 0 && r.CoveredLines == r.ExpectedLines
}
