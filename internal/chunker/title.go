package chunker

import (
	"fmt"
	"strings"

	"github.com/dshills/sqlchunker/pkg/types"
)

var baseTitles = map[types.ChunkType]string{
	types.ChunkDeclaration:   "Variable & Parameter Declarations",
	types.ChunkTransaction:   "Transaction Management",
	types.ChunkErrorHandling: "Error Handling & Recovery",
	types.ChunkLoop:          "Loop Processing",
	types.ChunkConditional:   "Conditional Logic & Branching",
	types.ChunkCursor:        "Cursor Operations",
	types.ChunkDynamicSQL:    "Dynamic SQL Execution",
	types.ChunkModification:  "Data Modification",
	types.ChunkRetrieval:     "Data Retrieval",
	types.ChunkCalculation:   "Calculations & Computations",
	types.ChunkValidation:    "Validation Logic",
	types.ChunkGeneral:       "General Logic",
}

// describe fills in the title and context summary of every chunk. Ids,
// dependencies and continuation links must already be set.
func describe(chunks []*types.Chunk) {
	for _, c := range chunks {
		c.Title = title(c)
		c.Summary = summary(c)
	}
}

func title(c *types.Chunk) string {
	t := baseTitles[c.ChunkType]
	if t == "" {
		t = baseTitles[types.ChunkGeneral]
	}

	var focus []string
	switch {
	case len(c.BusinessFunctions) > 0:
		for _, bf := range firstN(c.BusinessFunctions, 2) {
			focus = append(focus, Humanize(bf))
		}
	case len(baseOperations(c.Operations)) > 0:
		focus = firstN(baseOperations(c.Operations), 2)
	default:
		focus = firstN(c.ControlKeywords, 2)
	}
	if len(focus) > 0 {
		t += " - " + strings.Join(focus, ", ")
	}

	if s := c.Subdivision; s != nil {
		t += fmt.Sprintf(" (Part %d/%d)", s.Ordinal, s.Total)
	}
	return t
}

func summary(c *types.Chunk) string {
	var sentences []string

	if len(c.BusinessFunctions) > 0 {
		names := make([]string, 0, len(c.BusinessFunctions))
		for _, bf := range c.BusinessFunctions {
			names = append(names, strings.ToLower(Humanize(bf)))
		}
		sentences = append(sentences, "Handles "+strings.Join(names, ", ")+".")
	}
	if ops := baseOperations(c.Operations); len(ops) > 0 {
		sentences = append(sentences, "Performs "+strings.Join(ops, ", ")+" operations.")
	}
	if len(c.ControlKeywords) > 0 {
		sentences = append(sentences, "Uses "+strings.Join(c.ControlKeywords, ", ")+" logic.")
	}
	if len(c.Tables) > 0 {
		sentences = append(sentences, "Touches "+strings.Join(c.Tables, ", ")+".")
	}
	if len(c.Dependencies) > 0 {
		ids := make([]string, 0, len(c.Dependencies))
		for _, d := range c.Dependencies {
			ids = append(ids, fmt.Sprint(d))
		}
		sentences = append(sentences, "Follows chunks "+strings.Join(ids, ", ")+".")
	}

	if s := c.Subdivision; s != nil {
		sentences = append(sentences, fmt.Sprintf("Part %d of %d of the %s block at lines %d-%d.",
			s.Ordinal, s.Total, strings.ReplaceAll(string(s.ParentType), "_", " "), s.ParentStart, s.ParentEnd))
	}
	if c.ContinuationFrom > 0 {
		sentences = append(sentences, fmt.Sprintf("Continues from chunk %d.", c.ContinuationFrom))
	}
	if c.ContinuationTo > 0 {
		sentences = append(sentences, fmt.Sprintf("Continues in chunk %d.", c.ContinuationTo))
	}

	if len(sentences) == 0 {
		return "Comments and formatting only."
	}
	return strings.Join(sentences, " ")
}

// baseOperations drops call and function-family tags
func baseOperations(ops []string) []string {
	var out []string
	for _, op := range ops {
		if !strings.Contains(op, ":") {
			out = append(out, op)
		}
	}
	return out
}

// Humanize turns CUSTOMER_VALIDATION into Customer Validation
func Humanize(name string) string {
	words := strings.Split(strings.ToLower(name), "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

func firstN(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
