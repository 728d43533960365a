package chunker

import (
	"regexp"
	"strings"

	"github.com/dshills/sqlchunker/pkg/types"
)

// statementStarters are leading keywords that begin a SQL statement
var statementStarters = map[string]bool{
	"SELECT": true, "INSERT": true, "UPDATE": true, "DELETE": true, "MERGE": true,
	"SET": true, "DECLARE": true, "EXEC": true, "EXECUTE": true, "PRINT": true,
	"RAISERROR": true, "THROW": true, "RETURN": true, "COMMIT": true, "ROLLBACK": true,
	"SAVE": true, "FETCH": true, "OPEN": true, "CLOSE": true, "DEALLOCATE": true,
	"TRUNCATE": true, "CREATE": true, "ALTER": true, "DROP": true, "WITH": true,
	"GO": true, "BREAK": true, "CONTINUE": true, "GOTO": true, "WAITFOR": true,
	"USE": true, "GRANT": true, "REVOKE": true, "BULK": true,
}

// bodyStarters may follow an IF/WHILE/ELSE condition as the governed body
var bodyStarters = map[string]bool{
	"BEGIN": true, "IF": true, "WHILE": true,
	"SELECT": true, "INSERT": true, "UPDATE": true, "DELETE": true, "MERGE": true,
	"SET": true, "DECLARE": true, "EXEC": true, "EXECUTE": true, "PRINT": true,
	"RAISERROR": true, "THROW": true, "RETURN": true, "COMMIT": true, "ROLLBACK": true,
	"SAVE": true, "FETCH": true, "OPEN": true, "CLOSE": true, "DEALLOCATE": true,
	"TRUNCATE": true, "BREAK": true, "CONTINUE": true, "GOTO": true, "WAITFOR": true,
	"WITH": true,
}

var (
	wordToken          = regexp.MustCompile(`\(|\)|[^\s()]+`)
	transactionStart   = regexp.MustCompile(`^BEGIN\s+(?:DISTRIBUTED\s+)?TRAN(?:SACTION)?\b`)
	tryStart           = regexp.MustCompile(`^BEGIN\s+TRY\b`)
	catchStart         = regexp.MustCompile(`^BEGIN\s+CATCH\b`)
	continuationSuffix = regexp.MustCompile(`(?:[,+\-*/=(<>]|\b(?:AND|OR|NOT|UNION|ALL|ON|WHERE|SET|SELECT|FROM|JOIN|THEN|ELSE|IN|BY|VALUES|INTO|WHEN|EXCEPT|INTERSECT|LIKE|BETWEEN))$`)
	setVariable        = regexp.MustCompile(`^SET\s+@\w+`)
	endElse            = regexp.MustCompile(`\bEND\s+ELSE\b\s*(.*)$`)
)

func isWordByte(c byte) bool {
	return c == '_' || c == '@' || c == '#' ||
		(c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9')
}

// firstWord returns the leading keyword of code, or its first character when
// code does not start with a word
func firstWord(code string) string {
	for i := 0; i < len(code); i++ {
		if !isWordByte(code[i]) {
			if i == 0 {
				return code[:1]
			}
			return code[:i]
		}
	}
	return code
}

// afterWord returns code without its leading keyword
func afterWord(code string) string {
	return strings.TrimSpace(code[len(firstWord(code)):])
}

func isTransactionBegin(code string) bool {
	return transactionStart.MatchString(code)
}

// isBlockBegin reports whether code starts a plain BEGIN ... END block
func isBlockBegin(code string) bool {
	return firstWord(code) == "BEGIN" && !isTransactionBegin(code) && !tryStart.MatchString(code) &&
		!catchStart.MatchString(code)
}

func isStatementStart(f *types.LineFact) bool {
	if f.IsBlankOrComment() {
		return false
	}
	return statementStarters[firstWord(f.Code)] || isTransactionBegin(f.Code)
}

func isControlStart(f *types.LineFact) bool {
	if f.IsBlankOrComment() {
		return false
	}
	w := firstWord(f.Code)
	return w == "IF" || w == "WHILE" || tryStart.MatchString(f.Code)
}

func endsWithContinuation(code string) bool {
	return continuationSuffix.MatchString(code)
}

// splitCondition scans a condition for the start of the governed body at
// parenthesis depth zero. depth carries the balance from previous lines.
func splitCondition(text string, depth int) (rest string, depthOut int, found bool) {
	for _, loc := range wordToken.FindAllStringIndex(text, -1) {
		tok := text[loc[0]:loc[1]]
		switch tok {
		case "(":
			depth++
			continue
		case ")":
			depth--
			continue
		}
		if depth > 0 {
			continue
		}
		w := firstWord(tok)
		if !bodyStarters[w] {
			continue
		}
		// UPDATE(col) inside a trigger condition is a function, not a statement
		if w == "UPDATE" && len(tok) == len(w) && loc[1] < len(text) && text[loc[1]] == '(' {
			continue
		}
		return strings.TrimSpace(text[loc[0]:]), depth, true
	}
	return "", depth, false
}

// nextCode returns the first code line in [from, limit), or -1
func nextCode(facts []types.LineFact, from, limit int) int {
	for i := from; i < limit && i < len(facts); i++ {
		if !facts[i].IsBlankOrComment() {
			return i
		}
	}
	return -1
}

// prevCode returns the last code line in [floor, from], or -1
func prevCode(facts []types.LineFact, from, floor int) int {
	for i := from; i >= floor && i >= 0; i-- {
		if !facts[i].IsBlankOrComment() {
			return i
		}
	}
	return -1
}
