package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupSearchDB(t *testing.T) (*SQLiteStorage, int64, []int64) {
	t.Helper()
	storage := setupTestDB(t)
	project, script := setupScript(t, storage, "procs/order.sql")

	ids, err := storage.ReplaceChunks(context.Background(), script.ID, testChunks())
	require.NoError(t, err)
	return storage, project.ID, ids
}

func TestSearchText(t *testing.T) {
	storage, projectID, ids := setupSearchDB(t)

	results, err := storage.SearchText(context.Background(), projectID, "inventory", 10, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, ids[1], results[0].ChunkID)
	assert.Greater(t, results[0].BM25Score, 0.0)
	assert.Less(t, results[0].BM25Score, 1.0)
}

func TestSearchText_Filters(t *testing.T) {
	storage, projectID, ids := setupSearchDB(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		filters *SearchFilters
		want    []int64
	}{
		{"no filters", nil, []int64{ids[1], ids[2]}},
		{"chunk type", &SearchFilters{ChunkTypes: []string{"retrieval"}}, []int64{ids[2]}},
		{"table case-insensitive", &SearchFilters{Table: "DBO.PAYMENTS"}, []int64{ids[2]}},
		{"min complexity", &SearchFilters{MinComplexity: 5}, []int64{ids[1]}},
		{"file pattern match", &SearchFilters{FilePattern: "procs/*.sql"}, []int64{ids[1], ids[2]}},
		{"file pattern miss", &SearchFilters{FilePattern: "views/*"}, nil},
		{"relevance cutoff", &SearchFilters{MinRelevance: 0.999}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := storage.SearchText(ctx, projectID, "dbo", 10, tt.filters)
			require.NoError(t, err)

			got := make([]int64, 0, len(results))
			for _, r := range results {
				got = append(got, r.ChunkID)
			}
			assert.ElementsMatch(t, tt.want, got)
		})
	}
}

func TestSearchText_Limit(t *testing.T) {
	storage, projectID, _ := setupSearchDB(t)

	results, err := storage.SearchText(context.Background(), projectID, "dbo", 1, nil)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestSearchText_OtherProject(t *testing.T) {
	storage, projectID, _ := setupSearchDB(t)

	results, err := storage.SearchText(context.Background(), projectID+1, "dbo", 10, nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchText_EmptyQuery(t *testing.T) {
	storage, projectID, _ := setupSearchDB(t)

	_, err := storage.SearchText(context.Background(), projectID, "  ;; ()", 10, nil)
	assert.ErrorIs(t, err, ErrEmptyQuery)
}

func TestSearchText_OperatorsAreLiteral(t *testing.T) {
	storage, projectID, ids := setupSearchDB(t)

	results, err := storage.SearchText(context.Background(), projectID, `inventory NEAR( "`, 10, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, ids[1], results[0].ChunkID)
}

func TestSanitizeFTSQuery(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"inventory", `"inventory"`},
		{"order  total", `"order" OR "total"`},
		{`say "hi"`, `"say" OR """hi"""`},
		{"-- ;", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sanitizeFTSQuery(tt.in), tt.in)
	}
}

func TestNormalizeBM25(t *testing.T) {
	assert.Equal(t, 0.0, normalizeBM25(0))
	assert.Equal(t, 0.0, normalizeBM25(2))
	assert.InDelta(t, 0.5, normalizeBM25(-1), 1e-9)
	assert.Greater(t, normalizeBM25(-4), normalizeBM25(-1))
}
