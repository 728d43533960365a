package chunker

import (
	"sort"

	"github.com/dshills/sqlchunker/pkg/types"
)

// ChunkRanges returns the line range of each chunk in sequence order
func ChunkRanges(chunks []*types.Chunk) []types.LineRange {
	ranges := make([]types.LineRange, 0, len(chunks))
	for _, c := range chunks {
		ranges = append(ranges, types.LineRange{Start: c.StartLine, End: c.EndLine})
	}
	return ranges
}

// VerifyCoverage checks that ranges cover lines 1..totalLines exactly once.
// It works from the ranges alone, so it can check any rendered report.
func VerifyCoverage(ranges []types.LineRange, totalLines int) *types.CoverageReport {
	sorted := append([]types.LineRange(nil), ranges...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Start != sorted[j].Start {
			return sorted[i].Start < sorted[j].Start
		}
		return sorted[i].End < sorted[j].End
	})

	report := &types.CoverageReport{
		Ranges:        sorted,
		ExpectedLines: totalLines,
	}

	covered := 0 // highest line covered so far
	var prev *types.LineRange
	for i := range sorted {
		r := sorted[i]
		report.CoveredLines += r.End - r.Start + 1

		if r.Start > covered+1 {
			report.Gaps = append(report.Gaps, types.LineRange{Start: covered + 1, End: r.Start - 1})
		}
		if prev != nil && r.Start <= prev.End {
			report.Overlaps = append(report.Overlaps, types.Overlap{First: *prev, Second: r})
		}

		covered = max(covered, r.End)
		prev = &sorted[i]
	}

	if covered < totalLines {
		report.Gaps = append(report.Gaps, types.LineRange{Start: covered + 1, End: totalLines})
	}
	return report
}
