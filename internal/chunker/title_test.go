package chunker

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dshills/sqlchunker/pkg/types"
)

func TestTitle(t *testing.T) {
	tests := []struct {
		name  string
		chunk types.Chunk
		want  string
	}{
		{
			name: "business functions",
			chunk: types.Chunk{
				ChunkType:         types.ChunkConditional,
				BusinessFunctions: []string{"CUSTOMER_VALIDATION", "PAYMENT_PROCESSING", "REPORTING"},
				Operations:        []string{"SELECT"},
			},
			want: "Conditional Logic & Branching - Customer Validation, Payment Processing",
		},
		{
			name: "operations",
			chunk: types.Chunk{
				ChunkType:  types.ChunkRetrieval,
				Operations: []string{"SELECT", "UDF_CALL:DBO.FN_TOTAL", "UPDATE"},
			},
			want: "Data Retrieval - SELECT, UPDATE",
		},
		{
			name: "control keywords",
			chunk: types.Chunk{
				ChunkType:       types.ChunkLoop,
				ControlKeywords: []string{"BEGIN", "WHILE"},
			},
			want: "Loop Processing - BEGIN, WHILE",
		},
		{
			name:  "bare",
			chunk: types.Chunk{ChunkType: types.ChunkGeneral},
			want:  "General Logic",
		},
		{
			name: "part",
			chunk: types.Chunk{
				ChunkType:   types.ChunkModification,
				Operations:  []string{"INSERT"},
				Subdivision: &types.SubdivisionInfo{Ordinal: 2, Total: 3},
			},
			want: "Data Modification - INSERT (Part 2/3)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, title(&tt.chunk))
		})
	}
}

func TestSummary(t *testing.T) {
	c := &types.Chunk{
		ChunkType:         types.ChunkModification,
		BusinessFunctions: []string{"INVENTORY_MANAGEMENT"},
		Operations:        []string{"UPDATE", "FUNC:DATE"},
		ControlKeywords:   []string{"IF"},
		Tables:            []string{"dbo.Stock"},
		Dependencies:      []int{1, 3},
		Subdivision: &types.SubdivisionInfo{
			ParentType:  types.ChunkErrorHandling,
			ParentStart: 10,
			ParentEnd:   200,
			Ordinal:     2,
			Total:       4,
		},
		ContinuationFrom: 3,
		ContinuationTo:   5,
	}

	s := summary(c)

	assert.Contains(t, s, "Handles inventory management.")
	assert.Contains(t, s, "Performs UPDATE operations.")
	assert.Contains(t, s, "Uses IF logic.")
	assert.Contains(t, s, "Touches dbo.Stock.")
	assert.Contains(t, s, "Follows chunks 1, 3.")
	assert.Contains(t, s, "Part 2 of 4 of the error handling block at lines 10-200.")
	assert.Contains(t, s, "Continues from chunk 3.")
	assert.Contains(t, s, "Continues in chunk 5.")
	assert.NotContains(t, s, "FUNC:DATE")
}

func TestSummary_CommentsOnly(t *testing.T) {
	assert.Equal(t, "Comments and formatting only.", summary(&types.Chunk{ChunkType: types.ChunkGeneral}))
}

func TestHumanize(t *testing.T) {
	assert.Equal(t, "Shipping Logistics", Humanize("SHIPPING_LOGISTICS"))
	assert.Equal(t, "Notification", Humanize("NOTIFICATION"))
}
