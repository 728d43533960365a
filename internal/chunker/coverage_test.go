package chunker

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dshills/sqlchunker/pkg/types"
)

func TestVerifyCoverage(t *testing.T) {
	tests := []struct {
		name     string
		ranges   []types.LineRange
		total    int
		perfect  bool
		gaps     []types.LineRange
		overlaps int
	}{
		{
			name:    "perfect",
			ranges:  []types.LineRange{{Start: 1, End: 10}, {Start: 11, End: 20}, {Start: 21, End: 25}},
			total:   25,
			perfect: true,
		},
		{
			name:    "unsorted input",
			ranges:  []types.LineRange{{Start: 11, End: 20}, {Start: 1, End: 10}},
			total:   20,
			perfect: true,
		},
		{
			name:   "gap in the middle",
			ranges: []types.LineRange{{Start: 1, End: 10}, {Start: 14, End: 20}},
			total:  20,
			gaps:   []types.LineRange{{Start: 11, End: 13}},
		},
		{
			name:   "leading and trailing gaps",
			ranges: []types.LineRange{{Start: 3, End: 10}},
			total:  12,
			gaps:   []types.LineRange{{Start: 1, End: 2}, {Start: 11, End: 12}},
		},
		{
			name:     "overlap",
			ranges:   []types.LineRange{{Start: 1, End: 10}, {Start: 8, End: 20}},
			total:    20,
			overlaps: 1,
		},
		{
			name:    "empty script",
			total:   0,
			perfect: true,
		},
		{
			name:   "no ranges",
			total:  5,
			gaps:   []types.LineRange{{Start: 1, End: 5}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := VerifyCoverage(tt.ranges, tt.total)

			assert.Equal(t, tt.perfect, report.Perfect())
			assert.Equal(t, tt.gaps, report.Gaps)
			assert.Len(t, report.Overlaps, tt.overlaps)
			assert.Equal(t, tt.total, report.ExpectedLines)
		})
	}
}

func TestVerifyCoverage_DoesNotReorderInput(t *testing.T) {
	ranges := []types.LineRange{{Start: 11, End: 20}, {Start: 1, End: 10}}

	report := VerifyCoverage(ranges, 20)

	assert.Equal(t, types.LineRange{Start: 11, End: 20}, ranges[0])
	assert.Equal(t, types.LineRange{Start: 1, End: 10}, report.Ranges[0])
	assert.Equal(t, 20, report.CoveredLines)
}

func TestChunkRanges(t *testing.T) {
	chunks := []*types.Chunk{{StartLine: 1, EndLine: 4}, {StartLine: 5, EndLine: 9}}

	assert.Equal(t, []types.LineRange{{Start: 1, End: 4}, {Start: 5, End: 9}}, ChunkRanges(chunks))
}
