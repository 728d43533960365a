package types

// ParseResult is the classification of a whole script
type ParseResult struct {
	Facts []LineFact

	// Line statistics
	CodeLines    int
	CommentLines int
	BlankLines   int

	// Warnings are non-fatal observations about the script text
	Warnings []ParseWarning
}

// ParseWarning describes a line the classifier could only partially interpret
type ParseWarning struct {
	Line    int
	Message string
}

// Error implements the error interface
func (pw *ParseWarning) Error() string {
	return pw.Message
}

// HasWarnings returns true if any warnings were recorded
func (pr *ParseResult) HasWarnings() bool {
	return len(pr.Warnings) > 0
}

// AddWarning records a warning for a 1-based line number
func (pr *ParseResult) AddWarning(line int, msg string) {
	pr.Warnings = append(pr.Warnings, ParseWarning{
		Line:    line,
		Message: msg,
	})
}
