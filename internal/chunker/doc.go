// Package chunker divides procedural SQL scripts into logically coherent,
// size- and complexity-bounded chunks that can be reviewed one at a time.
//
// # Basic Usage
//
//	c, err := chunker.New(chunker.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := c.ChunkFile("/path/to/proc.sql")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for _, chunk := range result.Chunks {
//	    fmt.Printf("%d %s: lines %d-%d, complexity %d\n",
//	        chunk.ID, chunk.Title, chunk.StartLine, chunk.EndLine, chunk.Complexity)
//	}
//
// The pure entry point is Chunk, which takes the script lines and an
// immutable Config and performs no I/O.
//
// # Pipeline
//
// Each run passes through four stages:
//   - Classification: the parser turns every line into a types.LineFact
//   - Planning: one forward sweep resolves complete logical blocks (IF/ELSE
//     chains, WHILE loops, TRY/CATCH pairs, declaration runs, statements);
//     comment-only blocks fold into the block that follows them
//   - Subdivision: blocks above the size or complexity ceiling are cut at
//     validated points, recursing up to MaxRecursionDepth
//   - Linking: ids are renumbered 1..N, sibling sub-chunks are chained and
//     each chunk depends on the earlier chunks declaring variables it uses
//
// # Cut Points
//
// Candidates come from section-marker comments, business-function changes
// and nesting returns first. Logical block groups, IF/ELSE boundaries and
// statement groups are consulted only while a piece is still oversized.
// Every candidate must pass the safety validator, which never lets a cut
// separate an IF from its body, an END from a following ELSE, a TRY from
// its CATCH, or fall inside an open parenthesis group or multi-line
// statement. A rejected candidate moves forward at most 15 lines to a
// natural boundary or is dropped. When nothing survives the block stays
// whole: an oversized chunk is preferred over an unsafe one.
//
// # Coverage
//
// Chunk ranges are contiguous and cover every input line exactly once.
// VerifyCoverage checks that property from line ranges alone:
//
//	report := chunker.VerifyCoverage(chunker.ChunkRanges(chunks), len(lines))
//	if !report.Perfect() {
//	    log.Printf("gaps: %v overlaps: %v", report.Gaps, report.Overlaps)
//	}
package chunker
