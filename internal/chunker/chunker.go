package chunker

import (
	"fmt"

	"github.com/dshills/sqlchunker/internal/parser"
	"github.com/dshills/sqlchunker/pkg/types"
)

// Chunker segments procedural SQL scripts into logical chunks
type Chunker struct {
	cfg    Config
	parser *parser.Parser
}

// Result is the chunk sequence of one script together with its parse statistics
type Result struct {
	Lines  []string
	Parse  *types.ParseResult
	Chunks []*types.Chunk
}

// Coverage checks the chunk ranges against the script length
func (r *Result) Coverage() *types.CoverageReport {
	return VerifyCoverage(ChunkRanges(r.Chunks), len(r.Lines))
}

// New creates a Chunker. Zero fields of cfg take their default values; the
// result must pass Validate.
func New(cfg Config) (*Chunker, error) {
	cfg = cfg.normalized()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Chunker{cfg: cfg, parser: parser.New()}, nil
}

// Config returns the configuration the Chunker runs with
func (c *Chunker) Config() Config {
	return c.cfg
}

// ChunkLines classifies and chunks a script given as lines
func (c *Chunker) ChunkLines(lines []string) *Result {
	parsed := c.parser.Parse(lines)
	return &Result{
		Lines:  lines,
		Parse:  parsed,
		Chunks: ChunkFacts(parsed.Facts, c.cfg),
	}
}

// ChunkContent chunks a script held in memory
func (c *Chunker) ChunkContent(content string) *Result {
	return c.ChunkLines(parser.SplitLines(content))
}

// ChunkFile reads and chunks a script file
func (c *Chunker) ChunkFile(filePath string) (*Result, error) {
	parsed, lines, err := c.parser.ParseFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to chunk %s: %w", filePath, err)
	}
	return &Result{
		Lines:  lines,
		Parse:  parsed,
		Chunks: ChunkFacts(parsed.Facts, c.cfg),
	}, nil
}

// Chunk classifies lines and returns the ordered chunk sequence. It never
// fails: empty input yields no chunks and every other input yields chunks
// that cover each line exactly once.
func Chunk(lines []string, cfg Config) []*types.Chunk {
	return ChunkFacts(parser.New().Parse(lines).Facts, cfg)
}

// ChunkFacts runs the planning, subdivision and linking passes over
// classified lines
func ChunkFacts(facts []types.LineFact, cfg Config) []*types.Chunk {
	cfg = cfg.normalized()

	sub := newSubdivider(cfg, facts)
	var chunks []*types.Chunk
	for _, b := range planBlocks(facts) {
		chunks = append(chunks, sub.subdivide(b)...)
	}

	renumber(chunks)
	linkContinuations(chunks)
	linkDependencies(chunks)
	describe(chunks)

	return chunks
}

// renumber assigns the dense ids 1..N in sequence order
func renumber(chunks []*types.Chunk) {
	for i, c := range chunks {
		c.ID = i + 1
	}
}
