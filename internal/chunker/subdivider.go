package chunker

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/dshills/sqlchunker/pkg/types"
)

// Names of the cut sources, in the order they are consulted
const (
	sourceSections   = "section markers"
	sourceBusiness   = "business function changes"
	sourceNesting    = "nesting boundaries"
	sourceGroups     = "logical block groups"
	sourceBranches   = "IF/ELSE boundaries"
	sourceStatements = "statement groups"
	sourceForced     = "forced statement grouping"
)

// subdivider splits oversized logical blocks into ordered sub-ranges
type subdivider struct {
	cfg   Config
	facts []types.LineFact
}

func newSubdivider(cfg Config, facts []types.LineFact) *subdivider {
	return &subdivider{cfg: cfg, facts: facts}
}

// oversized reports whether [lo, hi) breaks a ceiling of the active strategy
func (s *subdivider) oversized(lo, hi int) bool {
	if s.cfg.Strategy == StrategyStrictLogical {
		return false
	}
	lines := hi - lo
	if lines > s.cfg.MaxChunkSize {
		return true
	}
	if s.cfg.Strategy == StrategyHybrid && lines > s.cfg.ForceSubdivisionThreshold {
		return true
	}
	return sumComplexity(s.facts, lo, hi) > s.cfg.MaxComplexity
}

// trigger describes which ceiling [lo, hi) breaks
func (s *subdivider) trigger(lo, hi int) string {
	lines := hi - lo
	var parts []string
	if s.cfg.Strategy == StrategyHybrid && lines > s.cfg.ForceSubdivisionThreshold {
		parts = append(parts, fmt.Sprintf("%d lines exceed the forced subdivision threshold of %d", lines, s.cfg.ForceSubdivisionThreshold))
	} else if lines > s.cfg.MaxChunkSize {
		parts = append(parts, fmt.Sprintf("%d lines exceed the maximum of %d", lines, s.cfg.MaxChunkSize))
	}
	if c := sumComplexity(s.facts, lo, hi); c > s.cfg.MaxComplexity {
		parts = append(parts, fmt.Sprintf("complexity %d exceeds the maximum of %d", c, s.cfg.MaxComplexity))
	}
	return strings.Join(parts, " and ")
}

// subdivide turns block b into chunks. A block that cannot be split, or
// does not need to be, yields a single chunk without subdivision info.
func (s *subdivider) subdivide(b logicalBlock) []*types.Chunk {
	if !s.oversized(b.start, b.end) {
		return []*types.Chunk{newChunk(s.facts, b.start, b.end)}
	}

	pieces, sources := s.split(b.start, b.end, 0)
	if len(pieces) < 2 {
		return []*types.Chunk{newChunk(s.facts, b.start, b.end)}
	}

	parentType := dominantType(s.facts[b.start:b.end])
	reason := s.trigger(b.start, b.end)
	if len(sources) > 0 {
		reason += "; split at " + strings.Join(sources, ", ")
	}

	chunks := make([]*types.Chunk, 0, len(pieces))
	for k, p := range pieces {
		c := newChunk(s.facts, p.start, p.end)
		c.Subdivision = &types.SubdivisionInfo{
			ParentType:  parentType,
			ParentStart: b.start + 1,
			ParentEnd:   b.end,
			Ordinal:     k + 1,
			Total:       len(pieces),
			Reason:      reason,
		}
		chunks = append(chunks, c)
	}
	return chunks
}

// split recursively divides [lo, hi) and returns the pieces in order together
// with the names of the cut sources that produced them
func (s *subdivider) split(lo, hi, depth int) ([]logicalBlock, []string) {
	whole := []logicalBlock{{start: lo, end: hi, complexity: sumComplexity(s.facts, lo, hi)}}
	if depth >= s.cfg.MaxRecursionDepth || !s.oversized(lo, hi) {
		return whole, nil
	}

	points, sources := s.cutPoints(lo, hi)
	if len(points) == 0 {
		return whole, nil
	}

	bounds := make([]int, 0, len(points)+2)
	bounds = append(bounds, lo)
	bounds = append(bounds, points...)
	bounds = append(bounds, hi)

	var out []logicalBlock
	for k := 0; k+1 < len(bounds); k++ {
		a, b := bounds[k], bounds[k+1]
		if s.oversized(a, b) {
			if sub, subSources := s.split(a, b, depth+1); len(sub) > 1 {
				out = append(out, sub...)
				sources = appendSources(sources, subSources...)
				continue
			}
		}
		out = append(out, logicalBlock{start: a, end: b, complexity: sumComplexity(s.facts, a, b)})
	}
	return out, sources
}

// cutPoints gathers, validates and filters cut points for [lo, hi). A point
// p cuts before line p.
func (s *subdivider) cutPoints(lo, hi int) ([]int, []string) {
	v := newValidator(s.facts, lo, hi)
	accepted := make(map[int]string)
	add := func(source string, candidates []int) {
		for _, p := range candidates {
			q, ok := v.validate(p)
			if !ok {
				continue
			}
			if _, seen := accepted[q]; !seen {
				accepted[q] = source
			}
		}
	}

	add(sourceSections, s.sectionPoints(lo, hi))
	add(sourceBusiness, s.businessPoints(lo, hi))
	add(sourceNesting, s.nestingPoints(lo, hi))

	fallbacks := []struct {
		source string
		points func(lo, hi int) []int
	}{
		{sourceGroups, s.groupPoints},
		{sourceBranches, s.branchPoints},
		{sourceStatements, s.statementPoints},
	}
	for _, fb := range fallbacks {
		if !s.piecesOversized(lo, hi, s.filter(lo, hi, accepted)) {
			break
		}
		add(fb.source, fb.points(lo, hi))
	}

	if len(accepted) < 2 && sumComplexity(s.facts, lo, hi) > 2*s.cfg.MaxComplexity {
		add(sourceForced, s.forcedPoints(lo, hi))
	}

	points := s.filter(lo, hi, accepted)
	var sources []string
	for _, p := range points {
		sources = appendSources(sources, accepted[p])
	}
	return points, sources
}

// filter sorts the accepted points and drops those that would leave a
// piece shorter than MinChunkSize. Dropping a point merges two pieces, so
// coverage is unaffected.
func (s *subdivider) filter(lo, hi int, accepted map[int]string) []int {
	sorted := make([]int, 0, len(accepted))
	for p := range accepted {
		sorted = append(sorted, p)
	}
	sort.Ints(sorted)

	var kept []int
	last := lo
	for _, p := range sorted {
		if p-last >= s.cfg.MinChunkSize {
			kept = append(kept, p)
			last = p
		}
	}
	for len(kept) > 0 && hi-kept[len(kept)-1] < s.cfg.MinChunkSize {
		kept = kept[:len(kept)-1]
	}
	return kept
}

// piecesOversized reports whether cutting [lo, hi) at points still leaves
// an oversized piece
func (s *subdivider) piecesOversized(lo, hi int, points []int) bool {
	last := lo
	for _, p := range append(points, hi) {
		if s.oversized(last, p) {
			return true
		}
		last = p
	}
	return false
}

func (s *subdivider) sectionPoints(lo, hi int) []int {
	var points []int
	for i := lo + 1; i < hi; i++ {
		if s.facts[i].IsSectionMarker {
			points = append(points, i)
		}
	}
	return points
}

// businessPoints proposes a cut wherever a line's business functions differ
// from the functions seen last
func (s *subdivider) businessPoints(lo, hi int) []int {
	var points []int
	var current []string
	for i := lo; i < hi; i++ {
		bf := s.facts[i].BusinessFunctions
		if len(bf) == 0 {
			continue
		}
		if current != nil && i > lo && !sameFunctions(current, bf) {
			points = append(points, i)
		}
		current = bf
	}
	return points
}

// sameFunctions compares two business-function lists as sets
func sameFunctions(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for _, x := range a {
		if !slices.Contains(b, x) {
			return false
		}
	}
	return true
}

// nestingPoints proposes a cut after a line that closes nesting back to
// depth one or less
func (s *subdivider) nestingPoints(lo, hi int) []int {
	var points []int
	depth := 0
	for i := lo; i < hi; i++ {
		d := s.facts[i].NestingDelta
		depth += d
		if d < 0 && depth <= 1 && i+1 < hi {
			points = append(points, i+1)
		}
	}
	return points
}

// groupPoints groups body-level units greedily by complexity and line targets
func (s *subdivider) groupPoints(lo, hi int) []int {
	return groupUnits(s.units(lo, hi, false), max(1, s.cfg.MaxComplexity/2), s.cfg.TargetChunkSize)
}

// forcedPoints groups units at every nesting level with tighter targets
func (s *subdivider) forcedPoints(lo, hi int) []int {
	return groupUnits(s.units(lo, hi, true), max(1, s.cfg.MaxComplexity/4), max(s.cfg.MinChunkSize, s.cfg.TargetChunkSize/2))
}

func groupUnits(units []logicalBlock, complexityTarget, lineTarget int) []int {
	var points []int
	complexity, lines := 0, 0
	for k, u := range units {
		if k > 0 && lines > 0 && (complexity+u.complexity > complexityTarget || lines+u.lines() > lineTarget) {
			points = append(points, u.start)
			complexity, lines = 0, 0
		}
		complexity += u.complexity
		lines += u.lines()
	}
	return points
}

// units partitions [lo, hi) into complete units. Unless flat is set, only
// lines at the body level of the range may start a unit; the body level is
// the nesting depth after the block header.
func (s *subdivider) units(lo, hi int, flat bool) []logicalBlock {
	header := s.headerEnd(lo, hi)
	var stack []int
	for i := lo; i <= header; i++ {
		stack = applyNesting(stack, i, s.facts[i].NestingDelta)
	}
	base := len(stack)

	var units []logicalBlock
	start := lo
	for i := header + 1; i < hi; i++ {
		f := &s.facts[i]
		if i > start && (flat || len(stack) == base) && s.startsUnit(i) {
			units = append(units, logicalBlock{start: start, end: i, complexity: sumComplexity(s.facts, start, i)})
			start = i
		}
		stack = applyNesting(stack, i, f.NestingDelta)
	}
	return append(units, logicalBlock{start: start, end: hi, complexity: sumComplexity(s.facts, start, hi)})
}

// applyNesting pushes the opening line for each net opener and pops for each
// net closer
func applyNesting(stack []int, line, delta int) []int {
	for ; delta > 0; delta-- {
		stack = append(stack, line)
	}
	for ; delta < 0 && len(stack) > 0; delta++ {
		stack = stack[:len(stack)-1]
	}
	return stack
}

// headerEnd returns the last header line of a control block starting at lo,
// or lo-1 when the range does not start with one
func (s *subdivider) headerEnd(lo, hi int) int {
	first := nextCode(s.facts, lo, hi)
	if first < 0 || !isControlStart(&s.facts[first]) {
		return lo - 1
	}
	for i := first; i < hi && i-first <= conditionWindow; i++ {
		if s.facts[i].NestingDelta > 0 {
			return i
		}
	}
	return lo - 1
}

// startsUnit reports whether line i can begin a unit: the first of a run of
// comments, or a code line that neither follows a comment nor continues the
// previous construct
func (s *subdivider) startsUnit(i int) bool {
	f := &s.facts[i]
	if f.IsEmpty {
		return false
	}
	if i > 0 && s.facts[i-1].IsComment {
		return false
	}
	if f.IsComment {
		return true
	}

	switch firstWord(f.Code) {
	case "ELSE", "WHEN", "THEN", "END", "CATCH", "AND", "OR", "NOT", ")", ",":
		return false
	}
	if catchStart.MatchString(f.Code) || isBlockBegin(f.Code) {
		return false
	}
	prev := prevCode(s.facts, i-1, 0)
	return prev < 0 || !headerPending(s.facts[prev].Code)
}

// branchPoints proposes cuts before IF lines and after END lines that are
// not followed by ELSE
func (s *subdivider) branchPoints(lo, hi int) []int {
	var points []int
	for i := lo + 1; i < hi; i++ {
		code := s.facts[i].Code
		if firstWord(code) == "IF" {
			points = append(points, i)
		}
		if firstWord(code) == "END" && i+1 < hi {
			next := nextCode(s.facts, i+1, hi)
			if next < 0 || firstWord(s.facts[next].Code) != "ELSE" {
				points = append(points, i+1)
			}
		}
	}
	return points
}

// statementPoints proposes a cut at the first statement, control or comment
// start after every TargetChunkSize lines
func (s *subdivider) statementPoints(lo, hi int) []int {
	var points []int
	last := lo
	for i := lo + 1; i < hi; i++ {
		if i-last < s.cfg.TargetChunkSize {
			continue
		}
		f := &s.facts[i]
		if f.IsComment || isStatementStart(f) || isControlStart(f) {
			points = append(points, i)
			last = i
		}
	}
	return points
}

func appendSources(sources []string, more ...string) []string {
	for _, m := range more {
		if !containsSource(sources, m) {
			sources = append(sources, m)
		}
	}
	return sources
}

func containsSource(sources []string, s string) bool {
	for _, x := range sources {
		if x == s {
			return true
		}
	}
	return false
}
