package chunker

import (
	"strings"

	"github.com/dshills/sqlchunker/pkg/types"
)

// validator decides whether a cut before line p keeps control constructs and
// statements of the chunk [lo, hi) intact
type validator struct {
	facts  []types.LineFact
	lo, hi int
	parens []int // parens[k] is the parenthesis balance of lines [lo, lo+k)
	depth  []int // depth[k] is the BEGIN/CASE nesting of lines [lo, lo+k)
}

func newValidator(facts []types.LineFact, lo, hi int) *validator {
	v := &validator{
		facts:  facts,
		lo:     lo,
		hi:     hi,
		parens: make([]int, hi-lo+1),
		depth:  make([]int, hi-lo+1),
	}
	for i := lo; i < hi; i++ {
		v.parens[i-lo+1] = v.parens[i-lo] + facts[i].ParenDelta
		v.depth[i-lo+1] = v.depth[i-lo] + facts[i].NestingDelta
	}
	return v
}

// validate returns p when it is safe, otherwise the nearest safe point
// within the relocation window. Points no deeper than p are preferred, so a
// cut rejected before an ELSE moves past the ELSE body rather than into it.
// ok is false when the candidate is dropped.
func (v *validator) validate(p int) (int, bool) {
	if v.safe(p) {
		return p, true
	}
	if q, ok := v.relocate(p, true); ok {
		return q, true
	}
	return v.relocate(p, false)
}

func (v *validator) relocate(p int, shallow bool) (int, bool) {
	for q := p + 1; q < v.hi && q-p <= relocationWindow; q++ {
		if shallow && v.depth[q-v.lo] > v.depth[p-v.lo] {
			continue
		}
		if v.relocationTarget(q) && v.safe(q) {
			return q, true
		}
	}
	return 0, false
}

func (v *validator) safe(p int) bool {
	if p <= v.lo || p >= v.hi {
		return false
	}
	if v.parens[p-v.lo] > 0 {
		return false
	}

	next := nextCode(v.facts, p, v.hi)
	prev := prevCode(v.facts, p-1, v.lo)
	if next < 0 || prev < 0 {
		return true
	}

	code := v.facts[next].Code
	switch firstWord(code) {
	case "ELSE", "WHEN", "THEN", "CATCH", "AND", "OR", "NOT":
		return false
	}
	if catchStart.MatchString(code) || isBlockBegin(code) {
		return false
	}

	return !headerPending(v.facts[prev].Code) && !v.insideCondition(prev) && !v.insideStatement(p, prev)
}

// headerPending reports whether code is an IF/WHILE/ELSE header, or part of
// one, that has not yet reached its body
func headerPending(code string) bool {
	if endsWithContinuation(code) {
		return true
	}
	if m := endElse.FindStringSubmatch(code); m != nil && strings.TrimSpace(m[1]) == "" {
		return true
	}

	switch firstWord(code) {
	case "IF", "WHILE":
		_, _, found := splitCondition(afterWord(code), 0)
		return !found
	case "AND", "OR", "NOT":
		_, _, found := splitCondition(code, 0)
		return !found
	case "ELSE":
		rest := afterWord(code)
		if rest == "" {
			return true
		}
		if firstWord(rest) == "IF" {
			_, _, found := splitCondition(afterWord(rest), 0)
			return !found
		}
	}
	return false
}

// insideCondition scans back from line i to the nearest IF/WHILE header or
// CASE and reports whether its parenthesis group or CASE is still open
func (v *validator) insideCondition(i int) bool {
	parens, cases := 0, 0
	for j := i; j >= v.lo && i-j <= conditionWindow; j-- {
		f := &v.facts[j]
		if f.IsBlankOrComment() {
			continue
		}
		parens += f.ParenDelta
		cases += len(caseWord.FindAllStringIndex(f.Code, -1)) - len(endWord.FindAllStringIndex(f.Code, -1))

		w := firstWord(f.Code)
		if w == "IF" || w == "WHILE" || (w == "ELSE" && firstWord(afterWord(f.Code)) == "IF") {
			return parens > 0 || cases > 0
		}
		if w == "CASE" && cases > 0 {
			return true
		}
		if isBlockBegin(f.Code) || isStatementStart(f) {
			return false
		}
	}
	return false
}

// insideStatement reports whether a statement starting at or before prev
// extends to line p or beyond
func (v *validator) insideStatement(p, prev int) bool {
	for i := prev; i >= v.lo && prev-i <= backwardWindow; i-- {
		text, ok := statementText(&v.facts[i])
		if !ok {
			continue
		}
		if end, _ := scanStatement(v.facts, i, text, v.hi); end >= p {
			return true
		}
	}
	return false
}

// relocationTarget reports whether q is a natural place to move a rejected cut
func (v *validator) relocationTarget(q int) bool {
	f := &v.facts[q]
	if f.IsBlankOrComment() || isStatementStart(f) || isControlStart(f) || len(f.Declarations) > 0 {
		return true
	}

	prev := prevCode(v.facts, q-1, v.lo)
	if prev < 0 {
		return false
	}
	pc := v.facts[prev].Code
	switch firstWord(pc) {
	case "IF", "WHILE", "ELSE":
		return strings.HasSuffix(pc, "BEGIN")
	}
	return isBlockBegin(pc)
}
