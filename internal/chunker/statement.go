package chunker

import (
	"regexp"
	"strings"

	"github.com/dshills/sqlchunker/pkg/types"
)

var (
	routineHeader = regexp.MustCompile(`^(?:CREATE|ALTER)\s+(?:OR\s+ALTER\s+)?(?:PROC|PROCEDURE|FUNCTION|TRIGGER|VIEW)\b`)
	asTerminator  = regexp.MustCompile(`(?:^|\s)AS$`)
	valuesClause  = regexp.MustCompile(`\bVALUES\b`)
	selectClause  = regexp.MustCompile(`\bSELECT\b`)
	setClause     = regexp.MustCompile(`\bSET\b`)
	cursorFor     = regexp.MustCompile(`\bCURSOR\b`)
	bodyClause    = regexp.MustCompile(`^(?:SELECT|INSERT|UPDATE|DELETE|MERGE)\b`)
	caseWord      = regexp.MustCompile(`\bCASE\b`)
	endWord       = regexp.MustCompile(`\bEND\b`)
)

// statementScan tracks the statement-type-specific state needed to decide
// whether the next line continues the statement
type statementScan struct {
	kind       string
	parens     int
	cases      int
	sawValues  bool
	sawSelect  bool
	sawSet     bool
	sawBody    bool
	isCursor   bool
	isRoutine  bool
	lastCode   string
	terminated bool
}

func newStatementScan(text string) *statementScan {
	s := &statementScan{kind: firstWord(text)}
	s.isRoutine = routineHeader.MatchString(text)
	s.isCursor = s.kind == "DECLARE" && cursorFor.MatchString(text)
	if isTransactionBegin(text) {
		s.kind = "TRANSACTION"
	}
	return s
}

// consume folds one line of statement text into the scan state
func (s *statementScan) consume(text string, parenDelta int) {
	s.parens += parenDelta
	s.cases += len(caseWord.FindAllStringIndex(text, -1)) - len(endWord.FindAllStringIndex(text, -1))
	if s.cases < 0 {
		s.cases = 0
	}

	switch s.kind {
	case "INSERT":
		if valuesClause.MatchString(text) {
			s.sawValues = true
		}
		if selectClause.MatchString(text) {
			s.sawSelect = true
		}
	case "UPDATE":
		if setClause.MatchString(text) {
			s.sawSet = true
		}
	case "WITH":
		if s.parens <= 0 && bodyClause.MatchString(text) {
			s.sawBody = true
		}
	case "DECLARE":
		if s.isCursor && selectClause.MatchString(text) {
			s.sawSelect = true
		}
	}

	s.lastCode = text
	if s.parens <= 0 && strings.HasSuffix(text, ";") {
		s.terminated = true
	}
	if s.isRoutine && s.parens <= 0 && asTerminator.MatchString(text) {
		s.terminated = true
	}
	if s.kind == "GO" || s.parens < 0 {
		s.terminated = true
	}
}

// continues reports whether a line starting with code belongs to the
// statement rather than starting a new one
func (s *statementScan) continues(code string) bool {
	if s.parens > 0 || s.cases > 0 {
		return true
	}
	if endsWithContinuation(s.lastCode) {
		return true
	}

	w := firstWord(code)
	switch w {
	case "UNION", "EXCEPT", "INTERSECT", "VALUES":
		return true
	case "SELECT":
		switch {
		case s.kind == "INSERT":
			return !s.sawValues && !s.sawSelect
		case s.kind == "WITH":
			return !s.sawBody
		case s.isCursor:
			return !s.sawSelect
		}
		return false
	case "INSERT", "UPDATE", "DELETE":
		return s.kind == "MERGE" || (s.kind == "WITH" && !s.sawBody)
	case "MERGE":
		return s.kind == "WITH" && !s.sawBody
	case "SET":
		return (s.kind == "UPDATE" && !s.sawSet) || s.kind == "MERGE"
	case "WHEN", "THEN":
		return s.kind == "MERGE"
	case "WITH":
		return strings.HasPrefix(afterWord(code), "(")
	case "BEGIN":
		return false
	}

	if s.isRoutine {
		return true
	}
	return !statementStarters[w] && w != "IF" && w != "ELSE" && w != "WHILE" && w != "END"
}

// scanStatement finds the last line of the statement that starts on line
// start with the given text. limit is the exclusive upper bound of the scan.
// complete is false when the lookahead window ran out first.
func scanStatement(facts []types.LineFact, start int, text string, limit int) (end int, complete bool) {
	s := newStatementScan(text)
	s.consume(text, strings.Count(text, "(")-strings.Count(text, ")"))
	end = start
	if s.terminated {
		return end, true
	}

	for i := start + 1; i < limit && i < len(facts); i++ {
		if i-start >= statementWindow {
			return end, false
		}
		f := &facts[i]
		if f.IsBlankOrComment() {
			continue
		}
		if !s.continues(f.Code) {
			return end, true
		}
		s.consume(f.Code, f.ParenDelta)
		end = i
		if s.terminated {
			return end, true
		}
	}
	return end, true
}

// statementText returns the statement that begins on the line, including a
// single-statement body that follows an IF/WHILE/ELSE condition on the same line
func statementText(f *types.LineFact) (string, bool) {
	if f.IsBlankOrComment() {
		return "", false
	}
	if isStatementStart(f) {
		return f.Code, true
	}

	text := f.Code
	for range 2 {
		switch firstWord(text) {
		case "IF", "WHILE":
			rest, _, found := splitCondition(afterWord(text), 0)
			if !found || !statementStarters[firstWord(rest)] {
				return "", false
			}
			return rest, true
		case "ELSE":
			text = afterWord(text)
			if statementStarters[firstWord(text)] {
				return text, true
			}
		default:
			return "", false
		}
	}
	return "", false
}
