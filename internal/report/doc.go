// Package report renders chunk sequences for readers and tools.
//
// Markdown produces an analysis guide: script statistics, the sequential
// reading order with dependencies, and a detailed section per chunk with its
// code and analysis questions. JSON produces a machine-readable export that
// ParseJSON reads back.
//
// Both formats can be checked for coverage without the original script:
//
//	ranges := report.ExtractLineRanges(guide)
//	coverage := chunker.VerifyCoverage(ranges, lineCount)
package report
