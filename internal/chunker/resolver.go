package chunker

import (
	"github.com/dshills/sqlchunker/internal/parser"
	"github.com/dshills/sqlchunker/pkg/types"
)

// blockKind is the construct that opens a logical block
type blockKind int

const (
	kindNone blockKind = iota
	kindIf
	kindWhile
	kindTry
	kindDeclaration
	kindStatement
	kindGap // lines between resolved blocks
)

func (k blockKind) String() string {
	switch k {
	case kindIf:
		return "IF"
	case kindWhile:
		return "WHILE"
	case kindTry:
		return "TRY"
	case kindDeclaration:
		return "DECLARE"
	case kindStatement:
		return "STATEMENT"
	case kindGap:
		return "SEQUENCE"
	default:
		return "NONE"
	}
}

// logicalBlock is a contiguous fact range [start, end) with its construct kind
type logicalBlock struct {
	start      int
	end        int
	kind       blockKind
	complexity int
}

func (b logicalBlock) lines() int {
	return b.end - b.start
}

// resolver finds the extent of constructs within facts[:limit]
type resolver struct {
	facts []types.LineFact
	limit int
}

func newResolver(facts []types.LineFact, limit int) *resolver {
	if limit > len(facts) {
		limit = len(facts)
	}
	return &resolver{facts: facts, limit: limit}
}

// opener classifies the construct a line opens
func (r *resolver) opener(i int) blockKind {
	f := &r.facts[i]
	if f.IsBlankOrComment() {
		return kindNone
	}
	switch w := firstWord(f.Code); {
	case w == "IF":
		return kindIf
	case w == "WHILE":
		return kindWhile
	case tryStart.MatchString(f.Code):
		return kindTry
	case w == "DECLARE" || (len(f.Declarations) > 0 && len(w) > 0 && w[0] == '@'):
		return kindDeclaration
	case isStatementStart(f):
		return kindStatement
	}
	return kindNone
}

// extent returns the last line of the construct opened on line i
func (r *resolver) extent(i int) (int, bool) {
	switch r.opener(i) {
	case kindIf:
		return r.ifEnd(i, afterWord(r.facts[i].Code))
	case kindWhile:
		return r.whileEnd(i, afterWord(r.facts[i].Code))
	case kindTry:
		return r.tryEnd(i)
	case kindDeclaration:
		return r.declarationEnd(i)
	case kindStatement:
		return r.statementEnd(i)
	}
	return 0, false
}

// ifEnd resolves an IF whose condition text starts on line, following any
// ELSE IF / ELSE chain
func (r *resolver) ifEnd(line int, cond string) (int, bool) {
	bodyLine, body, ok := r.conditionEnd(line, cond)
	if !ok {
		return 0, false
	}
	end, ok := r.bodyEnd(bodyLine, body)
	if !ok {
		return 0, false
	}
	return r.elseEnd(end)
}

func (r *resolver) whileEnd(line int, cond string) (int, bool) {
	bodyLine, body, ok := r.conditionEnd(line, cond)
	if !ok {
		return 0, false
	}
	return r.bodyEnd(bodyLine, body)
}

// tryEnd resolves BEGIN TRY ... END TRY followed by BEGIN CATCH ... END CATCH.
// A TRY without its CATCH is not a complete block.
func (r *resolver) tryEnd(line int) (int, bool) {
	tryClose, ok := r.balancedEnd(line, r.facts[line].NestingDelta)
	if !ok {
		return 0, false
	}
	catch := nextCode(r.facts, tryClose+1, r.limit)
	if catch < 0 || !catchStart.MatchString(r.facts[catch].Code) {
		return 0, false
	}
	return r.balancedEnd(catch, r.facts[catch].NestingDelta)
}

// balancedEnd counts BEGIN/CASE against END from line, whose own contribution
// is depth, and returns the line where the count returns to zero
func (r *resolver) balancedEnd(line, depth int) (int, bool) {
	if depth <= 0 {
		return line, true
	}
	for i := line + 1; i < r.limit && i-line <= blockWindow; i++ {
		depth += r.facts[i].NestingDelta
		if depth <= 0 {
			return i, true
		}
	}
	return 0, false
}

// conditionEnd locates the body governed by an IF/WHILE condition. It
// returns the line holding the start of the body and the body text on that line.
func (r *resolver) conditionEnd(line int, cond string) (int, string, bool) {
	depth := 0
	text := cond
	for i := line; i < r.limit && i-line <= conditionWindow; {
		rest, d, found := splitCondition(text, depth)
		if found {
			return i, rest, true
		}
		depth = d

		next := nextCode(r.facts, i+1, r.limit)
		if next < 0 {
			return 0, "", false
		}
		code := r.facts[next].Code
		w := firstWord(code)
		continued := depth > 0 || endsWithContinuation(text) || w == "AND" || w == "OR" || w == "NOT"
		if !continued {
			return next, code, true
		}
		i, text = next, code
	}
	return 0, "", false
}

// bodyEnd resolves the body of an IF/WHILE/ELSE that starts on line with text
func (r *resolver) bodyEnd(line int, text string) (int, bool) {
	if text == "" {
		next := nextCode(r.facts, line+1, r.limit)
		if next < 0 || next-line > conditionWindow {
			return 0, false
		}
		line, text = next, r.facts[next].Code
	}

	switch w := firstWord(text); {
	case tryStart.MatchString(text):
		return r.tryEnd(line)
	case isBlockBegin(text):
		return r.balancedEnd(line, parser.NestingDelta(text))
	case w == "IF":
		return r.ifEnd(line, afterWord(text))
	case w == "WHILE":
		return r.whileEnd(line, afterWord(text))
	}

	end, _ := scanStatement(r.facts, line, text, r.limit)
	return end, true
}

// elseEnd extends a completed IF branch ending on line over a following
// ELSE or ELSE IF, on the same line or the next code line
func (r *resolver) elseEnd(line int) (int, bool) {
	for {
		if m := endElse.FindStringSubmatch(r.facts[line].Code); m != nil {
			end, ok := r.elseBody(line, m[1])
			if !ok {
				return 0, false
			}
			if end <= line {
				return line, true
			}
			line = end
			continue
		}

		next := nextCode(r.facts, line+1, r.limit)
		if next < 0 || firstWord(r.facts[next].Code) != "ELSE" {
			return line, true
		}
		end, ok := r.elseBody(next, afterWord(r.facts[next].Code))
		if !ok {
			return 0, false
		}
		line = end
	}
}

// elseBody resolves the text following an ELSE keyword
func (r *resolver) elseBody(line int, text string) (int, bool) {
	if firstWord(text) == "IF" {
		bodyLine, body, ok := r.conditionEnd(line, afterWord(text))
		if !ok {
			return 0, false
		}
		return r.bodyEnd(bodyLine, body)
	}
	return r.bodyEnd(line, text)
}

// declarationEnd consumes consecutive DECLARE lines, list continuations and
// SET @var assignments. Parenthesised table definitions are consumed until
// their depth returns to zero.
func (r *resolver) declarationEnd(start int) (int, bool) {
	last := start
	depth := 0
	for i := start; i < r.limit; i++ {
		if i-start >= declarationWindow {
			return r.cappedEnd(start, start+declarationDefault)
		}
		f := &r.facts[i]
		if f.IsBlankOrComment() {
			continue
		}
		if depth > 0 {
			depth = max(0, depth+f.ParenDelta)
			last = i
			continue
		}

		w := firstWord(f.Code)
		isDecl := len(f.Declarations) > 0 || w == "DECLARE" || w == "," || w == ";" || w == ")" ||
			setVariable.MatchString(f.Code)
		if !isDecl {
			return last, true
		}

		if f.HasOperation("CURSOR") {
			end, _ := scanStatement(r.facts, i, f.Code, r.limit)
			last, i = end, end
			continue
		}
		depth = max(0, f.ParenDelta)
		last = i
	}
	return last, true
}

// statementEnd resolves a SQL statement, falling back to a capped default
// extent when the lookahead window runs out
func (r *resolver) statementEnd(start int) (int, bool) {
	end, complete := scanStatement(r.facts, start, r.facts[start].Code, r.limit)
	if !complete {
		return r.cappedEnd(start, start+statementDefault)
	}
	return end, true
}

// cappedEnd returns the first line at or after capped where the parenthesis
// depth counted from start is closed again. An extent whose group never
// closes inside the block window is not found.
func (r *resolver) cappedEnd(start, capped int) (int, bool) {
	capped = min(capped, r.limit-1)
	depth := 0
	for i := start; i < r.limit && i-start <= blockWindow; i++ {
		depth += r.facts[i].ParenDelta
		if i >= capped && depth <= 0 {
			return i, true
		}
	}
	return 0, false
}
