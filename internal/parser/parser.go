package parser

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"unicode"

	"github.com/dshills/sqlchunker/pkg/types"
)

// Parser classifies the lines of procedural SQL scripts
type Parser struct {
	rules    []Rule
	business []BusinessRule
}

// New creates a Parser using the default rule tables
func New() *Parser {
	return NewWithRules(DefaultRules, DefaultBusinessRules)
}

// NewWithRules creates a Parser with custom tables, e.g. to add dialect keywords
func NewWithRules(rules []Rule, business []BusinessRule) *Parser {
	return &Parser{
		rules:    rules,
		business: business,
	}
}

// ParseFile reads a script and classifies every line.
// The returned lines are the script split the same way Parse saw them.
func (p *Parser) ParseFile(filePath string) (*types.ParseResult, []string, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read file: %w", err)
	}

	lines := SplitLines(string(content))
	return p.Parse(lines), lines, nil
}

// Parse classifies each line independently and collects line statistics
func (p *Parser) Parse(lines []string) *types.ParseResult {
	result := &types.ParseResult{
		Facts: make([]types.LineFact, len(lines)),
	}

	for i, line := range lines {
		fact, unterminated := p.classify(line, i)
		result.Facts[i] = fact

		switch {
		case fact.IsEmpty:
			result.BlankLines++
		case fact.IsComment:
			result.CommentLines++
		default:
			result.CodeLines++
		}

		if unterminated {
			result.AddWarning(fact.Number(), "string literal continues past end of line; keywords after the quote were ignored")
		}
	}

	return result
}

// ClassifyLine returns the LineFact for one line. It depends only on its
// arguments, so classifying the same line twice yields identical facts.
func (p *Parser) ClassifyLine(raw string, index int) types.LineFact {
	fact, _ := p.classify(raw, index)
	return fact
}

func (p *Parser) classify(raw string, index int) (types.LineFact, bool) {
	trimmed := strings.TrimSpace(raw)
	fact := types.LineFact{
		Index:   index,
		Raw:     raw,
		Trimmed: trimmed,
		Upper:   strings.ToUpper(trimmed),
		IsEmpty: trimmed == "",
	}

	if fact.IsEmpty {
		return fact, false
	}

	fact.BusinessFunctions = detectBusinessFunctions(p.business, fact.Upper)

	if isCommentLine(trimmed) {
		fact.IsComment = true
		fact.IsSectionMarker = isSectionMarker(trimmed)
		return fact, false
	}

	code, unterminated := stripCode(trimmed)
	fact.Code = strings.ToUpper(code)

	for i := range p.rules {
		r := &p.rules[i]
		tags := r.tags(fact.Code)
		for _, tag := range tags {
			if !containsString(fact.Operations, tag) {
				fact.Operations = append(fact.Operations, tag)
			}
		}
		fact.Complexity += r.weightFor(len(tags))
	}

	control := transactionBegin.ReplaceAllString(fact.Code, " ")
	for _, kw := range controlPattern.FindAllString(control, -1) {
		if !containsString(fact.ControlKeywords, kw) {
			fact.ControlKeywords = append(fact.ControlKeywords, kw)
			fact.Complexity += nestingOpenWeights[kw]
		}
	}
	fact.NestingDelta = NestingDelta(fact.Code)
	fact.ParenDelta = strings.Count(code, "(") - strings.Count(code, ")")

	fact.Declarations = extractDeclarations(code, fact.Code)
	fact.UsedVariables = extractVariables(code)
	fact.Tables = extractTables(code, fact.Code)

	return fact, unterminated
}

// isCommentLine recognises single-line comments and the lines of a block comment
func isCommentLine(trimmed string) bool {
	if strings.HasPrefix(trimmed, "--") || strings.HasPrefix(trimmed, "/*") || strings.HasPrefix(trimmed, "*") {
		return true
	}
	return strings.HasSuffix(trimmed, "*/") && !strings.Contains(trimmed, "/*")
}

// isSectionMarker flags long comment lines made mostly of repeated
// punctuation, e.g. "-- ===== VALIDATION =====".
func isSectionMarker(trimmed string) bool {
	if len(trimmed) <= 20 {
		return false
	}
	body := strings.TrimPrefix(strings.TrimPrefix(trimmed, "--"), "/*")
	body = strings.TrimSuffix(body, "*/")
	if !sectionRunPattern.MatchString(body) {
		return false
	}

	punct, total := 0, 0
	for _, r := range body {
		if unicode.IsSpace(r) {
			continue
		}
		total++
		if strings.ContainsRune(sectionPunctuation, r) {
			punct++
		}
	}
	return punct*2 >= total
}

// stripCode blanks string literal contents and removes comments, keeping the
// original case. It reports whether a string literal was left open.
func stripCode(line string) (string, bool) {
	var b strings.Builder
	b.Grow(len(line))

	inString := false
	for i := 0; i < len(line); i++ {
		ch := line[i]
		if inString {
			if ch == '\'' {
				inString = false
				b.WriteByte(ch)
			}
			continue
		}

		switch {
		case ch == '\'':
			inString = true
			b.WriteByte(ch)
		case ch == '-' && i+1 < len(line) && line[i+1] == '-':
			return strings.TrimSpace(b.String()), false
		case ch == '/' && i+1 < len(line) && line[i+1] == '*':
			end := strings.Index(line[i+2:], "*/")
			if end < 0 {
				return strings.TrimSpace(b.String()), false
			}
			b.WriteByte(' ')
			i += end + 3
		default:
			b.WriteByte(ch)
		}
	}

	return strings.TrimSpace(b.String()), inString
}

var paramHeaderPattern = regexp.MustCompile(`(?i)\b(?:PROC|PROCEDURE|FUNCTION)\s+[\w\.\[\]]+\s*\(?\s*(@\w+)\s+(\w+)`)

func extractDeclarations(code, upper string) []string {
	var out []string
	add := func(name string) {
		if !containsFold(out, name) {
			out = append(out, name)
		}
	}

	hasDeclare := strings.Contains(upper, "DECLARE")
	for _, m := range declarePattern.FindAllStringSubmatch(code, -1) {
		add(m[1])
	}
	for _, m := range cursorDeclPattern.FindAllStringSubmatch(code, -1) {
		add(m[1])
	}
	for _, m := range paramHeaderPattern.FindAllStringSubmatch(code, -1) {
		if !notDeclaredType[strings.ToUpper(m[2])] {
			add(m[1])
		}
	}

	listed := hasDeclare || strings.HasPrefix(code, ",") || strings.HasPrefix(code, "@")
	if listed && !execPattern.MatchString(code) {
		for _, m := range declareListPattern.FindAllStringSubmatch(code, -1) {
			if !notDeclaredType[strings.ToUpper(m[2])] {
				add(m[1])
			}
		}
	}

	return out
}

func extractVariables(code string) []string {
	var out []string
	for _, v := range variablePattern.FindAllString(code, -1) {
		if strings.HasPrefix(v, "@@") {
			continue
		}
		if !containsFold(out, v) {
			out = append(out, v)
		}
	}
	return out
}

func extractTables(code, upper string) []string {
	if strings.Contains(upper, "FETCH") {
		return nil
	}

	var out []string
	add := func(name string) {
		if notTableNames[strings.ToUpper(name)] || containsFold(out, name) {
			return
		}
		out = append(out, name)
	}

	for _, m := range tablePattern.FindAllStringSubmatch(code, -1) {
		add(m[1])
	}
	for _, m := range deletePattern.FindAllStringSubmatch(code, -1) {
		add(m[1])
	}
	return out
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

// NestingDelta returns openers minus closers in upper-cased code: each BEGIN
// (other than BEGIN TRANSACTION) and CASE opens, each END closes
func NestingDelta(code string) int {
	control := transactionBegin.ReplaceAllString(code, " ")
	return countMatches(beginPattern, control) + countMatches(casePattern, control) -
		countMatches(endPattern, control)
}

func countMatches(re *regexp.Regexp, s string) int {
	return len(re.FindAllStringIndex(s, -1))
}

// SplitLines splits script content into lines, accepting \n and \r\n endings.
// A trailing newline does not produce an extra empty line.
func SplitLines(content string) []string {
	if content == "" {
		return nil
	}
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.TrimSuffix(content, "\n")
	return strings.Split(content, "\n")
}
