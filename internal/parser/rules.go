package parser

import (
	"regexp"
	"strings"
)

// Category groups classifier rules by the kind of construct they detect
type Category int

const (
	CategoryOperation Category = iota
	CategoryTransaction
	CategoryCall
	CategoryFunction
	CategoryCursor
	CategoryDynamic
	CategorySystemVariable
	CategoryErrorRaise
)

// String returns the category name
func (c Category) String() string {
	switch c {
	case CategoryOperation:
		return "operation"
	case CategoryTransaction:
		return "transaction"
	case CategoryCall:
		return "call"
	case CategoryFunction:
		return "function"
	case CategoryCursor:
		return "cursor"
	case CategoryDynamic:
		return "dynamic"
	case CategorySystemVariable:
		return "system_variable"
	case CategoryErrorRaise:
		return "error_raise"
	default:
		return "unknown"
	}
}

// Rule is one (pattern, category, weight) entry of the classification table.
//
// Patterns run against the upper-cased code portion of a line. A rule with a
// fixed Tag emits that tag; otherwise the first capture group is emitted,
// prefixed with Prefix. Weight is added once per line unless PerMatch is set,
// in which case it is added for every distinct tag the rule emits.
type Rule struct {
	Pattern  *regexp.Regexp
	Category Category
	Weight   int
	Tag      string
	Prefix   string
	PerMatch bool

	// Accept optionally filters matches; loc holds submatch indexes into code
	Accept func(code string, loc []int) bool
}

// tags returns the distinct tags the rule emits for code
func (r *Rule) tags(code string) []string {
	if r.Tag != "" {
		if r.Pattern.MatchString(code) {
			return []string{r.Tag}
		}
		return nil
	}

	var out []string
	for _, loc := range r.Pattern.FindAllStringSubmatchIndex(code, -1) {
		if r.Accept != nil && !r.Accept(code, loc) {
			continue
		}
		if len(loc) < 4 || loc[2] < 0 {
			continue
		}
		tag := r.Prefix + code[loc[2]:loc[3]]
		if !containsString(out, tag) {
			out = append(out, tag)
		}
	}
	return out
}

// weightFor returns the complexity contributed by n emitted tags
func (r *Rule) weightFor(n int) int {
	if n == 0 {
		return 0
	}
	if r.PerMatch {
		return r.Weight * n
	}
	return r.Weight
}

func keyword(word string, category Category, weight int) Rule {
	return Rule{
		Pattern:  regexp.MustCompile(`\b` + word + `\b`),
		Category: category,
		Weight:   weight,
		Tag:      word,
	}
}

func functionFamily(prefix string, names ...string) Rule {
	return Rule{
		Pattern:  regexp.MustCompile(`\b(` + strings.Join(names, "|") + `)\s*\(`),
		Category: CategoryFunction,
		Weight:   1,
		Prefix:   prefix + ":",
		PerMatch: true,
	}
}

// nonCallPrefixes are words that, directly before "name(", mean the name is
// an object being defined or targeted rather than a function being invoked
var nonCallPrefixes = map[string]bool{
	"INTO": true, "TABLE": true, "FROM": true, "JOIN": true, "UPDATE": true,
	"EXEC": true, "EXECUTE": true, "PROCEDURE": true, "PROC": true,
	"FUNCTION": true, "ON": true, "REFERENCES": true, "VIEW": true, "INDEX": true,
}

func acceptUDFCall(code string, loc []int) bool {
	prev := strings.Fields(code[:loc[0]])
	if len(prev) == 0 {
		return true
	}
	return !nonCallPrefixes[prev[len(prev)-1]]
}

// DefaultRules is the classification table used by New
var DefaultRules = []Rule{
	// Base SQL operations
	keyword("SELECT", CategoryOperation, 1),
	keyword("INSERT", CategoryOperation, 1),
	keyword("UPDATE", CategoryOperation, 1),
	keyword("DELETE", CategoryOperation, 1),
	keyword("MERGE", CategoryOperation, 1),
	keyword("CREATE", CategoryOperation, 1),
	keyword("ALTER", CategoryOperation, 1),
	keyword("DROP", CategoryOperation, 1),
	keyword("TRUNCATE", CategoryOperation, 1),
	{Pattern: regexp.MustCompile(`\bEXEC(?:UTE)?\b`), Category: CategoryOperation, Weight: 1, Tag: "EXEC"},

	// Transactions
	{Pattern: regexp.MustCompile(`\bBEGIN\s+(?:DISTRIBUTED\s+)?TRAN(?:SACTION)?\b`), Category: CategoryTransaction, Weight: 1, Tag: "BEGIN TRANSACTION"},
	{Pattern: regexp.MustCompile(`\bSAVE\s+TRAN(?:SACTION)?\b`), Category: CategoryTransaction, Weight: 1, Tag: "SAVE TRANSACTION"},
	keyword("COMMIT", CategoryTransaction, 1),
	keyword("ROLLBACK", CategoryTransaction, 1),

	// Procedure and user-defined function calls
	{
		Pattern:  regexp.MustCompile(`\bEXEC(?:UTE)?\s+(?:@\w+\s*=\s*)?([A-Z_\[][\w\.\[\]]*)`),
		Category: CategoryCall,
		Weight:   2,
		Prefix:   "SP_CALL:",
		PerMatch: true,
	},
	{
		Pattern:  regexp.MustCompile(`\b([A-Z_]\w*\.[A-Z_]\w*)\s*\(`),
		Category: CategoryCall,
		Weight:   2,
		Prefix:   "UDF_CALL:",
		PerMatch: true,
		Accept:   acceptUDFCall,
	},

	// Built-in function families
	functionFamily("SYSTEM", "GETDATE", "GETUTCDATE", "SYSDATETIME", "NEWID", "SCOPE_IDENTITY", "OBJECT_ID",
		"DB_NAME", "SUSER_SNAME", "ERROR_MESSAGE", "ERROR_NUMBER", "ERROR_LINE", "ERROR_SEVERITY",
		"ERROR_STATE", "ERROR_PROCEDURE", "XACT_STATE", "HOST_NAME", "APP_NAME"),
	functionFamily("AGGREGATE", "SUM", "COUNT", "COUNT_BIG", "AVG", "MIN", "MAX", "STRING_AGG", "STDEV", "VAR"),
	functionFamily("STRING", "LEN", "SUBSTRING", "LEFT", "RIGHT", "LTRIM", "RTRIM", "TRIM", "UPPER", "LOWER",
		"REPLACE", "CHARINDEX", "PATINDEX", "CONCAT", "STUFF", "REPLICATE", "FORMAT"),
	functionFamily("DATE", "DATEADD", "DATEDIFF", "DATEPART", "DATENAME", "YEAR", "MONTH", "DAY", "EOMONTH"),
	functionFamily("MATH", "ROUND", "ABS", "CEILING", "FLOOR", "POWER", "SQRT"),
	functionFamily("CONVERSION", "CAST", "CONVERT", "TRY_CAST", "TRY_CONVERT", "PARSE", "TRY_PARSE"),
	functionFamily("WINDOW", "ROW_NUMBER", "RANK", "DENSE_RANK", "NTILE", "LAG", "LEAD", "FIRST_VALUE", "LAST_VALUE"),
	functionFamily("LOGICAL", "ISNULL", "COALESCE", "NULLIF", "IIF", "CHOOSE"),

	// Cursors
	{Pattern: regexp.MustCompile(`\bCURSOR\b.*\bFOR\b`), Category: CategoryCursor, Weight: 3, Tag: "CURSOR"},
	keyword("FETCH", CategoryCursor, 1),
	keyword("DEALLOCATE", CategoryCursor, 1),

	// Dynamic SQL
	{Pattern: regexp.MustCompile(`\bEXEC(?:UTE)?\s*\(|\bEXEC(?:UTE)?\s+@\w+\s*(?:;|$)`), Category: CategoryDynamic, Weight: 3, Tag: "DYNAMIC_EXEC"},
	{Pattern: regexp.MustCompile(`\bSP_EXECUTESQL\b`), Category: CategoryDynamic, Weight: 0, Tag: "DYNAMIC_EXEC"},

	// System variables
	{Pattern: regexp.MustCompile(`(@@\w+)`), Category: CategorySystemVariable, Weight: 1},

	// Error raising
	{Pattern: regexp.MustCompile(`\b(RAISERROR|THROW)\b`), Category: CategoryErrorRaise, Weight: 2},
}

// Control keywords and the weight of the ones that open nesting
var (
	controlPattern     = regexp.MustCompile(`\b(IF|ELSE|WHILE|BEGIN|END|TRY|CATCH|CASE|WHEN|THEN|RETURN|BREAK|CONTINUE|GOTO|WAITFOR)\b`)
	transactionBegin   = regexp.MustCompile(`\bBEGIN\s+(?:DISTRIBUTED\s+)?TRAN(?:SACTION)?\b`)
	beginPattern       = regexp.MustCompile(`\bBEGIN\b`)
	casePattern        = regexp.MustCompile(`\bCASE\b`)
	endPattern         = regexp.MustCompile(`\bEND\b`)
	nestingOpenWeights = map[string]int{"BEGIN": 2, "IF": 2, "WHILE": 2, "TRY": 2, "CASE": 2}
)

// Name extraction runs against the case-preserving code text
var (
	declarePattern     = regexp.MustCompile(`(?i)\bDECLARE\s+(@\w+)`)
	declareListPattern = regexp.MustCompile(`(?i)(?:^|,)\s*(@\w+)\s+(\w+)`)
	cursorDeclPattern  = regexp.MustCompile(`(?i)\bDECLARE\s+(\w+)\s+(?:\w+\s+)*?CURSOR\b`)
	variablePattern    = regexp.MustCompile(`@@?\w+`)
	tablePattern       = regexp.MustCompile(`(?i)\b(?:FROM|JOIN|UPDATE|INTO)\s+([#\[\]\w\.]+)`)
	deletePattern      = regexp.MustCompile(`(?i)\bDELETE\s+([#\[\]\w\.]+)`)
	execPattern        = regexp.MustCompile(`(?i)\bEXEC(?:UTE)?\b`)
	sectionRunPattern  = regexp.MustCompile(`={3,}|_{3,}|-{3,}|\*{3,}|#{3,}|~{3,}`)
)

// sectionPunctuation holds the characters section markers are drawn with
const sectionPunctuation = "=_-*#~"

// notDeclaredType lists words that follow an @variable in expressions, so the
// variable is being used rather than declared with a type
var notDeclaredType = map[string]bool{
	"IS": true, "IN": true, "AND": true, "OR": true, "NOT": true, "LIKE": true,
	"BETWEEN": true, "THEN": true, "ELSE": true, "END": true, "WHEN": true,
	"OUTPUT": true, "OUT": true, "FROM": true, "WHERE": true, "AS": true,
}

// notTableNames are words the table pattern can capture that never name a table
var notTableNames = map[string]bool{
	"SELECT": true, "SET": true, "WHERE": true, "VALUES": true, "TOP": true,
	"DISTINCT": true, "CASCADE": true, "OF": true, "STATISTICS": true, "FROM": true,
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
