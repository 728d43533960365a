// Package types provides shared type definitions for the SQL chunker.
//
// # Core Types
//
// LineFact is the per-line classification produced by the parser:
//
//	fact := result.Facts[i]
//	fact.Operations    // ["UPDATE", "AGGREGATE:SUM"]
//	fact.NestingDelta  // +1 for BEGIN, -1 for END
//
// Chunk is a contiguous slice of a script presented as one analysis unit,
// with its classification, aggregated facts and links to other chunks:
//
//	chunk := &types.Chunk{
//	    ID:        3,
//	    StartLine: 41,
//	    EndLine:   97,
//	    ChunkType: types.ChunkLoop,
//	}
//
// SubdivisionInfo is attached to chunks cut from an oversized block and
// CoverageReport describes how a set of line ranges tiles a script.
//
// # Chunk Types
//
// ChunkTypePriority lists the closed taxonomy from highest to lowest
// precedence. A block showing signals of several types takes the first one.
//
// # Validation
//
// Types provide Validate methods that return the sentinel errors defined in
// errors.go:
//
//	if err := chunk.Validate(); err != nil {
//	    if errors.Is(err, types.ErrForwardDependency) {
//	        // dependency on a later chunk
//	    }
//	}
package types
