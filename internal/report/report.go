package report

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/dshills/sqlchunker/internal/chunker"
	"github.com/dshills/sqlchunker/pkg/types"
)

// Format selects how a chunk sequence is rendered
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
)

// ParseFormat converts a format name to a Format
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(name)); f {
	case FormatMarkdown, FormatJSON:
		return f, nil
	case "md":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("unknown report format %q", name)
	}
}

// Render renders chunks in the requested format
func Render(format Format, chunks []*types.Chunk, cfg chunker.Config) ([]byte, error) {
	switch format {
	case FormatJSON:
		return JSON(chunks, cfg)
	case FormatMarkdown:
		return []byte(Markdown(chunks, cfg)), nil
	default:
		return nil, fmt.Errorf("unknown report format %q", format)
	}
}

// Export is the JSON document written for a chunk sequence
type Export struct {
	Strategy string        `json:"strategy"`
	Config   ExportConfig  `json:"config"`
	Chunks   []ChunkRecord `json:"chunks"`
}

// ExportConfig records the ceilings the chunks were produced with
type ExportConfig struct {
	TargetChunkSize           int `json:"target_chunk_size"`
	MinChunkSize              int `json:"min_chunk_size"`
	MaxChunkSize              int `json:"max_chunk_size"`
	ForceSubdivisionThreshold int `json:"force_subdivision_threshold"`
	MaxComplexity             int `json:"max_complexity"`
	MaxRecursionDepth         int `json:"max_recursion_depth"`
}

// ChunkRecord is the exported form of one chunk
type ChunkRecord struct {
	ChunkID           int             `json:"chunk_id"`
	Title             string          `json:"title"`
	Lines             []string        `json:"lines"`
	StartLine         int             `json:"start_line"`
	EndLine           int             `json:"end_line"`
	ChunkType         string          `json:"chunk_type"`
	ComplexityScore   int             `json:"complexity_score"`
	SQLOperations     []string        `json:"sql_operations"`
	VariablesDeclared []string        `json:"variables_declared"`
	VariablesUsed     []string        `json:"variables_used"`
	TablesAccessed    []string        `json:"tables_accessed"`
	ControlStructures []string        `json:"control_structures"`
	Dependencies      []int           `json:"dependencies"`
	ContextSummary    string          `json:"context_summary"`
	BusinessFunctions []string        `json:"business_functions"`
	SubChunkInfo      *SubChunkRecord `json:"sub_chunk_info,omitempty"`
	ContinuationFrom  int             `json:"continuation_from,omitempty"`
	ContinuationTo    int             `json:"continuation_to,omitempty"`
}

// SubChunkRecord is the exported form of SubdivisionInfo
type SubChunkRecord struct {
	ParentBlockType   string `json:"parent_block_type"`
	ParentBlockStart  int    `json:"parent_block_start"`
	ParentBlockEnd    int    `json:"parent_block_end"`
	SubChunkIndex     int    `json:"sub_chunk_index"`
	TotalSubChunks    int    `json:"total_sub_chunks"`
	SubdivisionReason string `json:"subdivision_reason"`
}

// NewExport converts a chunk sequence to its exported form
func NewExport(chunks []*types.Chunk, cfg chunker.Config) *Export {
	export := &Export{
		Strategy: string(cfg.Strategy),
		Config: ExportConfig{
			TargetChunkSize:           cfg.TargetChunkSize,
			MinChunkSize:              cfg.MinChunkSize,
			MaxChunkSize:              cfg.MaxChunkSize,
			ForceSubdivisionThreshold: cfg.ForceSubdivisionThreshold,
			MaxComplexity:             cfg.MaxComplexity,
			MaxRecursionDepth:         cfg.MaxRecursionDepth,
		},
		Chunks: make([]ChunkRecord, 0, len(chunks)),
	}

	for _, c := range chunks {
		rec := ChunkRecord{
			ChunkID:           c.ID,
			Title:             c.Title,
			Lines:             strings.Split(c.Content, "\n"),
			StartLine:         c.StartLine,
			EndLine:           c.EndLine,
			ChunkType:         string(c.ChunkType),
			ComplexityScore:   c.Complexity,
			SQLOperations:     orEmpty(c.Operations),
			VariablesDeclared: orEmpty(c.DeclaredVariables),
			VariablesUsed:     orEmpty(c.UsedVariables),
			TablesAccessed:    orEmpty(c.Tables),
			ControlStructures: orEmpty(c.ControlKeywords),
			Dependencies:      orEmpty(c.Dependencies),
			ContextSummary:    c.Summary,
			BusinessFunctions: orEmpty(c.BusinessFunctions),
			ContinuationFrom:  c.ContinuationFrom,
			ContinuationTo:    c.ContinuationTo,
		}
		if s := c.Subdivision; s != nil {
			rec.SubChunkInfo = &SubChunkRecord{
				ParentBlockType:   string(s.ParentType),
				ParentBlockStart:  s.ParentStart,
				ParentBlockEnd:    s.ParentEnd,
				SubChunkIndex:     s.Ordinal,
				TotalSubChunks:    s.Total,
				SubdivisionReason: s.Reason,
			}
		}
		export.Chunks = append(export.Chunks, rec)
	}

	return export
}

// Ranges returns the line range of every exported chunk in document order
func (e *Export) Ranges() []types.LineRange {
	ranges := make([]types.LineRange, 0, len(e.Chunks))
	for _, c := range e.Chunks {
		ranges = append(ranges, types.LineRange{Start: c.StartLine, End: c.EndLine})
	}
	return ranges
}

// JSON renders chunks as an indented JSON export
func JSON(chunks []*types.Chunk, cfg chunker.Config) ([]byte, error) {
	data, err := json.MarshalIndent(NewExport(chunks, cfg), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal export: %w", err)
	}
	return data, nil
}

// ParseJSON reads an export written by JSON
func ParseJSON(data []byte) (*Export, error) {
	var export Export
	if err := json.Unmarshal(data, &export); err != nil {
		return nil, fmt.Errorf("failed to parse export: %w", err)
	}
	return &export, nil
}

// Markdown renders the analysis guide: statistics, the sequential reading
// order and one detailed section per chunk
func Markdown(chunks []*types.Chunk, cfg chunker.Config) string {
	var b strings.Builder

	b.WriteString("# Adaptive SQL Script Analysis Guide\n\n")
	fmt.Fprintf(&b, "**Chunking Strategy**: %s\n", chunker.Humanize(string(cfg.Strategy)))
	fmt.Fprintf(&b, "**Target Chunk Size**: %d lines\n", cfg.TargetChunkSize)
	fmt.Fprintf(&b, "**Max Chunk Size**: %d lines\n\n", cfg.MaxChunkSize)

	writeStatistics(&b, chunks)
	writeOrder(&b, chunks)
	writeDetails(&b, chunks)

	return b.String()
}

func writeStatistics(b *strings.Builder, chunks []*types.Chunk) {
	typeCounts := make(map[types.ChunkType]int)
	business := make(map[string]bool)
	total, subdivided := 0, 0
	for _, c := range chunks {
		typeCounts[c.ChunkType]++
		total += c.Complexity
		if c.IsSubChunk() {
			subdivided++
		}
		for _, bf := range c.BusinessFunctions {
			business[bf] = true
		}
	}

	average := 0.0
	if len(chunks) > 0 {
		average = float64(total) / float64(len(chunks))
	}

	b.WriteString("## Script Statistics\n")
	fmt.Fprintf(b, "- **Total Chunks**: %d\n", len(chunks))
	fmt.Fprintf(b, "- **Subdivided Chunks**: %d\n", subdivided)
	fmt.Fprintf(b, "- **Total Complexity Score**: %d\n", total)
	fmt.Fprintf(b, "- **Average Complexity per Chunk**: %.1f\n", average)
	fmt.Fprintf(b, "- **Business Functions Identified**: %d\n\n", len(business))

	if len(business) > 0 {
		b.WriteString("**Business Functions:**\n")
		for _, bf := range sortedKeys(business) {
			fmt.Fprintf(b, "- %s\n", chunker.Humanize(bf))
		}
		b.WriteString("\n")
	}

	b.WriteString("**Chunk Type Distribution:**\n")
	for _, ct := range types.ChunkTypePriority {
		if n := typeCounts[ct]; n > 0 {
			fmt.Fprintf(b, "- %s: %d\n", chunker.Humanize(string(ct)), n)
		}
	}
	b.WriteString("\n")
}

func writeOrder(b *strings.Builder, chunks []*types.Chunk) {
	b.WriteString("## Sequential Analysis Order\n")
	b.WriteString("Analyze chunks in this order:\n\n")

	// Dependencies only point backward, so the graph order matches the
	// sequence whenever the graph can be built.
	ordered := chunks
	var deps *chunker.DependencyGraph
	if g, err := chunker.BuildGraph(chunks); err == nil {
		deps = g
		if ids, err := g.Order(); err == nil {
			ordered = byIDs(chunks, ids)
		}
	}

	for i, c := range ordered {
		fmt.Fprintf(b, "%d. **Chunk %d**: %s\n", i+1, c.ID, c.Title)
		fmt.Fprintf(b, "   - Type: %s\n", c.ChunkType)
		fmt.Fprintf(b, "   - Complexity: %d\n", c.Complexity)
		fmt.Fprintf(b, "   - Lines: %d-%d\n", c.StartLine, c.EndLine)
		fmt.Fprintf(b, "   - Context: %s\n", c.Summary)
		if len(c.Dependencies) > 0 {
			fmt.Fprintf(b, "   - Dependencies: Chunks %s\n", joinInts(c.Dependencies))
		}
		if deps != nil {
			if needed, err := deps.Dependents(c.ID); err == nil && len(needed) > 0 {
				fmt.Fprintf(b, "   - Needed By: Chunks %s\n", joinInts(needed))
			}
		}
		if len(c.BusinessFunctions) > 0 {
			fmt.Fprintf(b, "   - Business Functions: %s\n", humanizeAll(c.BusinessFunctions))
		}
		if s := c.Subdivision; s != nil {
			fmt.Fprintf(b, "   - Subdivision: Part %d/%d of %s\n", s.Ordinal, s.Total, s.ParentType)
		}
		b.WriteString("\n")
	}
}

// Detail sections write "**Lines**:" so that ExtractLineRanges sees each
// chunk once, from the order section.
func writeDetails(b *strings.Builder, chunks []*types.Chunk) {
	b.WriteString("## Detailed Sequential Analysis\n\n")

	for _, c := range chunks {
		fmt.Fprintf(b, "### Chunk %d: %s\n", c.ID, c.Title)
		fmt.Fprintf(b, "**Type**: %s\n", c.ChunkType)
		fmt.Fprintf(b, "**Complexity Score**: %d\n", c.Complexity)
		fmt.Fprintf(b, "**Lines**: %d-%d\n", c.StartLine, c.EndLine)
		fmt.Fprintf(b, "**Context**: %s\n", c.Summary)

		if len(c.Operations) > 0 {
			fmt.Fprintf(b, "**SQL Operations**: %s\n", strings.Join(c.Operations, ", "))
		}
		if len(c.ControlKeywords) > 0 {
			fmt.Fprintf(b, "**Control Structures**: %s\n", strings.Join(c.ControlKeywords, ", "))
		}
		if len(c.BusinessFunctions) > 0 {
			fmt.Fprintf(b, "**Business Functions**: %s\n", humanizeAll(c.BusinessFunctions))
		}
		if n := len(c.DeclaredVariables); n > 0 {
			fmt.Fprintf(b, "**Variables Declared**: %s\n", strings.Join(c.DeclaredVariables[:min(n, maxListedVariables)], ", "))
			if n > maxListedVariables {
				fmt.Fprintf(b, "   (and %d more...)\n", n-maxListedVariables)
			}
		}
		if len(c.Tables) > 0 {
			fmt.Fprintf(b, "**Tables/Views**: %s\n", strings.Join(c.Tables, ", "))
		}
		if len(c.Dependencies) > 0 {
			fmt.Fprintf(b, "**Sequential Dependencies**: Chunks %s\n", joinInts(c.Dependencies))
		}
		if s := c.Subdivision; s != nil {
			fmt.Fprintf(b, "**Subdivision Info**: Part %d of %d\n", s.Ordinal, s.Total)
			fmt.Fprintf(b, "**Parent Block**: %s (lines %d-%d)\n", s.ParentType, s.ParentStart, s.ParentEnd)
		}

		b.WriteString("\n**Code:**\n```sql\n")
		b.WriteString(c.Content)
		b.WriteString("\n```\n\n")

		b.WriteString("**Analysis Questions:**\n")
		for i, q := range analysisQuestions {
			fmt.Fprintf(b, "%d. %s\n", i+1, q)
		}
		if c.ContinuationTo > 0 {
			fmt.Fprintf(b, "%d. How does this chunk connect to its continuation in chunk %d?\n", len(analysisQuestions)+1, c.ContinuationTo)
		}
		b.WriteString("\n---\n\n")
	}
}

const maxListedVariables = 10

var analysisQuestions = []string{
	"How does this chunk build upon the previous chunks?",
	"What business logic or data processing occurs here?",
	"Which variables or data from previous chunks are used?",
	"What outputs or state changes prepare for subsequent chunks?",
	"What error conditions or edge cases are handled?",
	"How does this contribute to the overall script workflow?",
}

var lineRangePattern = regexp.MustCompile(`Lines: (\d+)-(\d+)`)

// ExtractLineRanges returns every "Lines: X-Y" range of a rendered guide in
// document order. Text inside fenced code blocks is skipped.
func ExtractLineRanges(markdown string) []types.LineRange {
	var ranges []types.LineRange
	inFence := false
	for _, line := range strings.Split(markdown, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			inFence = !inFence
			continue
		}
		if inFence {
			continue
		}
		for _, m := range lineRangePattern.FindAllStringSubmatch(line, -1) {
			start, err1 := strconv.Atoi(m[1])
			end, err2 := strconv.Atoi(m[2])
			if err1 != nil || err2 != nil {
				continue
			}
			ranges = append(ranges, types.LineRange{Start: start, End: end})
		}
	}
	return ranges
}

// byIDs returns the chunks in the order of ids, keeping the sequence when
// the ids do not cover it
func byIDs(chunks []*types.Chunk, ids []int) []*types.Chunk {
	index := make(map[int]*types.Chunk, len(chunks))
	for _, c := range chunks {
		index[c.ID] = c
	}
	out := make([]*types.Chunk, 0, len(ids))
	for _, id := range ids {
		if c, ok := index[id]; ok {
			out = append(out, c)
		}
	}
	if len(out) != len(chunks) {
		return chunks
	}
	return out
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func joinInts(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, ", ")
}

func humanizeAll(names []string) string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = chunker.Humanize(n)
	}
	return strings.Join(out, ", ")
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
