// Package parser classifies the lines of procedural SQL scripts.
//
// The parser is a table-driven, line-at-a-time classifier. Every line is
// reduced to a types.LineFact without looking at its neighbours, so the
// structural work (matching BEGIN with END, finding statement boundaries)
// is left to the chunker.
//
// # Basic Usage
//
//	p := parser.New()
//	result, lines, err := p.ParseFile("usp_ProcessOrder.sql")
//	if err != nil {
//	    return err
//	}
//
//	for _, fact := range result.Facts {
//	    fmt.Printf("%d: ops=%v complexity=%d\n", fact.Number(), fact.Operations, fact.Complexity)
//	}
//
// # What Gets Extracted
//
// For each line the parser records:
//   - Comment, blank and section-marker flags
//   - SQL operations, call tags (SP_CALL:, UDF_CALL:) and built-in function families
//   - Control keywords and the BEGIN/CASE minus END nesting delta
//   - Declared and referenced @variables, cursor names and table names
//   - Business-function hints such as PAYMENT_PROCESSING, taken from code and comments
//
// Keywords inside string literals and trailing comments are ignored.
//
// # Complexity
//
// Each rule in DefaultRules carries a weight. A line's complexity is the sum
// of the weights of the rules it matches plus 2 for every nesting opener
// (IF, WHILE, BEGIN, TRY, CASE).
//
// # Custom Rules
//
// NewWithRules accepts alternative rule tables, e.g. to teach the classifier
// dialect-specific keywords:
//
//	rules := append(slices.Clone(parser.DefaultRules), myRules...)
//	p := parser.NewWithRules(rules, parser.DefaultBusinessRules)
//
// # Error Handling
//
// Classification never fails. A line whose string literal runs past the end
// of the line is still classified and reported in ParseResult.Warnings.
package parser
