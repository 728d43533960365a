package chunker

import (
	"regexp"
	"sort"
	"strings"

	"github.com/dshills/sqlchunker/pkg/types"
)

// planBlocks sweeps the script once and returns maximal complete logical
// blocks. Lines between resolved blocks form gap blocks, so the result
// always covers every line exactly once.
func planBlocks(facts []types.LineFact) []logicalBlock {
	n := len(facts)
	if n == 0 {
		return nil
	}

	r := newResolver(facts, n)
	marks := []int{0}
	kinds := make(map[int]blockKind)
	mark := func(x int) {
		if x > 0 && x < n && marks[len(marks)-1] != x {
			marks = append(marks, x)
		}
	}

	for i := 0; i < n; {
		kind := r.opener(i)
		if kind == kindNone {
			i++
			continue
		}

		end, ok := r.extent(i)
		control := kind == kindIf || kind == kindWhile || kind == kindTry
		if !ok || (!control && end <= i) {
			i++
			continue
		}

		mark(i)
		kinds[i] = kind
		mark(end + 1)
		i = end + 1
	}

	if marks[len(marks)-1] != n {
		marks = append(marks, n)
	}

	blocks := make([]logicalBlock, 0, len(marks)-1)
	for k := 0; k+1 < len(marks); k++ {
		b := logicalBlock{start: marks[k], end: marks[k+1], kind: kindGap}
		if kind, ok := kinds[b.start]; ok {
			b.kind = kind
		}
		b.complexity = sumComplexity(facts, b.start, b.end)
		blocks = append(blocks, b)
	}

	return mergeCommentBlocks(facts, blocks)
}

// mergeCommentBlocks folds comment-only blocks into the next block. Trailing
// comment-only blocks with nothing after them stay as one standalone block.
func mergeCommentBlocks(facts []types.LineFact, blocks []logicalBlock) []logicalBlock {
	out := make([]logicalBlock, 0, len(blocks))
	pending := -1
	for _, b := range blocks {
		if commentOnly(facts, b.start, b.end) {
			if pending < 0 {
				pending = b.start
			}
			continue
		}
		if pending >= 0 {
			b.start = pending
			b.complexity = sumComplexity(facts, b.start, b.end)
			pending = -1
		}
		out = append(out, b)
	}

	if pending >= 0 {
		end := len(facts)
		out = append(out, logicalBlock{
			start:      pending,
			end:        end,
			kind:       kindGap,
			complexity: sumComplexity(facts, pending, end),
		})
	}
	return out
}

func commentOnly(facts []types.LineFact, lo, hi int) bool {
	for i := lo; i < hi; i++ {
		if !facts[i].IsBlankOrComment() {
			return false
		}
	}
	return true
}

func sumComplexity(facts []types.LineFact, lo, hi int) int {
	total := 0
	for i := lo; i < hi; i++ {
		total += facts[i].Complexity
	}
	return total
}

// newChunk aggregates the facts of lines [lo, hi) into a chunk
func newChunk(facts []types.LineFact, lo, hi int) *types.Chunk {
	c := &types.Chunk{
		StartLine: lo + 1,
		EndLine:   hi,
	}

	var (
		ops, declared, used, tables, control, business nameSet
		lines                                          = make([]string, 0, hi-lo)
	)
	for i := lo; i < hi; i++ {
		f := &facts[i]
		lines = append(lines, f.Raw)
		c.Complexity += f.Complexity
		ops.add(f.Operations...)
		declared.add(f.Declarations...)
		used.add(f.UsedVariables...)
		tables.add(f.Tables...)
		control.add(f.ControlKeywords...)
		business.add(f.BusinessFunctions...)
	}

	c.Content = strings.Join(lines, "\n")
	c.ComputeTokenCount()
	c.ComputeContentHash()

	c.Operations = ops.sorted()
	c.DeclaredVariables = declared.sorted()
	c.UsedVariables = used.sorted()
	c.Tables = tables.sorted()
	c.ControlKeywords = control.sorted()
	c.BusinessFunctions = business.ordered()
	c.ChunkType = dominantType(facts[lo:hi])

	return c
}

// nameSet collects names case-insensitively, keeping the first spelling seen
type nameSet struct {
	keys  map[string]string
	order []string
}

func (s *nameSet) add(names ...string) {
	if s.keys == nil {
		s.keys = make(map[string]string)
	}
	for _, n := range names {
		k := strings.ToUpper(n)
		if _, ok := s.keys[k]; !ok {
			s.keys[k] = n
			s.order = append(s.order, n)
		}
	}
}

func (s *nameSet) sorted() []string {
	out := append([]string(nil), s.order...)
	sort.Slice(out, func(i, j int) bool {
		return strings.ToUpper(out[i]) < strings.ToUpper(out[j])
	})
	return out
}

// ordered returns names in first-seen order
func (s *nameSet) ordered() []string {
	return append([]string(nil), s.order...)
}

var (
	calculationPattern = regexp.MustCompile(`[+\-*/]=|\bSET\s+@\w+\s*=.*[+\-*/%]|\b(?:SUM|AVG|COUNT)\s*\(`)
	validationPattern  = regexp.MustCompile(`\bIS\s+(?:NOT\s+)?NULL\b|\bEXISTS\s*\(|<=|>=|<>|!=`)
)

// chunkProfile summarises the signals used to pick a chunk type
type chunkProfile struct {
	ops          map[string]bool
	control      map[string]bool
	declarations bool
	code         []string
}

func (p *chunkProfile) anyOp(names ...string) bool {
	for _, n := range names {
		if p.ops[n] {
			return true
		}
	}
	return false
}

func (p *chunkProfile) anyControl(names ...string) bool {
	for _, n := range names {
		if p.control[n] {
			return true
		}
	}
	return false
}

func (p *chunkProfile) anyCode(re *regexp.Regexp) bool {
	for _, c := range p.code {
		if re.MatchString(c) {
			return true
		}
	}
	return false
}

// typeSignals holds the test for each chunk type; types.ChunkTypePriority
// decides which matching type wins
var typeSignals = map[types.ChunkType]func(p *chunkProfile) bool{
	types.ChunkDeclaration: func(p *chunkProfile) bool { return p.declarations },
	types.ChunkTransaction: func(p *chunkProfile) bool {
		return p.anyOp("BEGIN TRANSACTION", "COMMIT", "ROLLBACK", "SAVE TRANSACTION")
	},
	types.ChunkErrorHandling: func(p *chunkProfile) bool { return p.anyControl("TRY", "CATCH") },
	types.ChunkLoop:          func(p *chunkProfile) bool { return p.anyControl("WHILE") },
	types.ChunkConditional:   func(p *chunkProfile) bool { return p.anyControl("IF", "ELSE", "CASE") },
	types.ChunkCursor:        func(p *chunkProfile) bool { return p.anyOp("CURSOR", "FETCH", "DEALLOCATE") },
	types.ChunkDynamicSQL:    func(p *chunkProfile) bool { return p.anyOp("DYNAMIC_EXEC") },
	types.ChunkModification: func(p *chunkProfile) bool {
		return p.anyOp("INSERT", "UPDATE", "DELETE", "MERGE", "TRUNCATE")
	},
	types.ChunkRetrieval:   func(p *chunkProfile) bool { return p.anyOp("SELECT") },
	types.ChunkCalculation: func(p *chunkProfile) bool { return p.anyCode(calculationPattern) },
	types.ChunkValidation:  func(p *chunkProfile) bool { return p.anyCode(validationPattern) },
}

// dominantType picks the highest-priority type whose signal is present
func dominantType(facts []types.LineFact) types.ChunkType {
	p := &chunkProfile{
		ops:     make(map[string]bool),
		control: make(map[string]bool),
	}
	for i := range facts {
		f := &facts[i]
		for _, op := range f.Operations {
			p.ops[op] = true
		}
		for _, kw := range f.ControlKeywords {
			p.control[kw] = true
		}
		if len(f.Declarations) > 0 {
			p.declarations = true
		}
		if f.Code != "" {
			p.code = append(p.code, f.Code)
		}
	}

	for _, t := range types.ChunkTypePriority {
		if signal, ok := typeSignals[t]; ok && signal(p) {
			return t
		}
	}
	return types.ChunkGeneral
}
