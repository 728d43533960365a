package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validChunk() *Chunk {
	return &Chunk{
		ID:           3,
		StartLine:    10,
		EndLine:      25,
		ChunkType:    ChunkLoop,
		Complexity:   12,
		Dependencies: []int{1, 2},
	}
}

func TestChunk_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Chunk)
		want   error
	}{
		{"valid", func(c *Chunk) {}, nil},
		{"zero id", func(c *Chunk) { c.ID = 0 }, ErrInvalidChunkID},
		{"unknown type", func(c *Chunk) { c.ChunkType = "function" }, ErrInvalidChunkType},
		{"negative complexity", func(c *Chunk) { c.Complexity = -1 }, ErrNegativeComplexity},
		{"self dependency", func(c *Chunk) { c.Dependencies = []int{3} }, ErrForwardDependency},
		{"later dependency", func(c *Chunk) { c.Dependencies = []int{4} }, ErrForwardDependency},
		{"bad ordinal", func(c *Chunk) { c.Subdivision = &SubdivisionInfo{Ordinal: 3, Total: 2} }, ErrInvalidSubdivision},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validChunk()
			tt.mutate(c)

			err := c.Validate()
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestChunk_ValidateRange(t *testing.T) {
	c := validChunk()
	c.StartLine, c.EndLine = 30, 20
	assert.Error(t, c.Validate())

	c.StartLine, c.EndLine = 0, 5
	assert.Error(t, c.ValidateRange())

	c.StartLine, c.EndLine = 7, 7
	assert.NoError(t, c.ValidateRange())
	assert.Equal(t, 1, c.LineCount())
}

func TestChunk_ContentMetrics(t *testing.T) {
	c := &Chunk{Content: "SELECT Id FROM dbo.Orders"}

	assert.Equal(t, 6, c.ComputeTokenCount())

	c.ComputeContentHash()
	first := c.ContentHash
	c.ComputeContentHash()
	assert.Equal(t, first, c.ContentHash)
	assert.NotEqual(t, [32]byte{}, first)
}

func TestChunkType_Valid(t *testing.T) {
	for _, ct := range ChunkTypePriority {
		assert.True(t, ct.Valid(), ct)
	}
	assert.False(t, ChunkType("procedure").Valid())
	assert.Equal(t, ChunkDeclaration, ChunkTypePriority[0])
	assert.Equal(t, ChunkGeneral, ChunkTypePriority[len(ChunkTypePriority)-1])
}

func TestSubdivisionInfo_SameParent(t *testing.T) {
	a := &SubdivisionInfo{ParentType: ChunkLoop, ParentStart: 5, ParentEnd: 300, Ordinal: 1, Total: 2}
	b := &SubdivisionInfo{ParentType: ChunkLoop, ParentStart: 5, ParentEnd: 300, Ordinal: 2, Total: 2}
	other := &SubdivisionInfo{ParentType: ChunkLoop, ParentStart: 301, ParentEnd: 500, Ordinal: 1, Total: 2}

	assert.True(t, a.SameParent(b))
	assert.False(t, a.SameParent(other))
	assert.False(t, a.SameParent(nil))

	var none *SubdivisionInfo
	assert.False(t, none.SameParent(a))
}

func TestCoverageReport_Perfect(t *testing.T) {
	r := &CoverageReport{CoveredLines: 10, ExpectedLines: 10}
	assert.True(t, r.Perfect())

	r.Gaps = []LineRange{{Start: 4, End: 4}}
	assert.False(t, r.Perfect())
}

func TestSearchResult_Validate(t *testing.T) {
	sr := &SearchResult{
		ChunkID:        1,
		Rank:           1,
		RelevanceScore: 0.5,
		Script:         &ScriptInfo{Path: "a.sql"},
		Chunk:          &Chunk{Content: "SELECT 1"},
	}
	assert.NoError(t, sr.Validate())

	sr.RelevanceScore = 1.5
	assert.ErrorIs(t, sr.Validate(), ErrInvalidRelevanceScore)
}
