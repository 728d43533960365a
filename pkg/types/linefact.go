package types

import "slices"

// LineFact is the classification of a single source line.
// It is produced once by the classifier and never mutated afterwards.
type LineFact struct {
	// Location
	Index int // 0-based position in the script

	// Text
	Raw     string // Line as read, without the trailing newline
	Trimmed string // Raw with surrounding whitespace removed
	Upper   string // Trimmed, upper-cased
	Code    string // Upper with string literals blanked and trailing -- comment removed

	// Flags
	IsEmpty         bool
	IsComment       bool
	IsSectionMarker bool

	// Detected constructs
	Operations        []string // SQL operations and call/function tags
	ControlKeywords   []string // IF, ELSE, WHILE, BEGIN, END, TRY, CATCH, CASE, ...
	Declarations      []string // Variables and cursors declared on this line
	UsedVariables     []string // @variables referenced on this line
	Tables            []string // Tables referenced after FROM/JOIN/UPDATE/INTO
	BusinessFunctions []string // Business-function categories hinted by keywords

	// Structure
	NestingDelta int // Openers (BEGIN, CASE) minus closers (END)
	ParenDelta   int // Open minus close parentheses in Code
	Complexity   int // Heuristic weight of this line
}

// Number returns the 1-based line number
func (f *LineFact) Number() int {
	return f.Index + 1
}

// IsBlankOrComment reports whether the line carries no executable code
func (f *LineFact) IsBlankOrComment() bool {
	return f.IsEmpty || f.IsComment
}

// HasKeyword reports whether the line contains the control keyword kw
func (f *LineFact) HasKeyword(kw string) bool {
	return slices.Contains(f.ControlKeywords, kw)
}

// HasOperation reports whether the line contains the operation op
func (f *LineFact) HasOperation(op string) bool {
	return slices.Contains(f.Operations, op)
}
