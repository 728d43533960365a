package searcher

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/sqlchunker/internal/storage"
	"github.com/dshills/sqlchunker/pkg/types"
)

// setupTestSearcher creates a searcher over an in-memory project holding
// one script with three chunks
func setupTestSearcher(t *testing.T) (*Searcher, storage.Storage, *storage.Project) {
	t.Helper()
	ctx := context.Background()

	store, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	project := &storage.Project{RootPath: "/test/search", IndexVersion: storage.CurrentSchemaVersion}
	require.NoError(t, store.CreateProject(ctx, project))

	script := &storage.Script{
		ProjectID:  project.ID,
		FilePath:   "billing/close_payments.sql",
		LineCount:  3,
		Strategy:   "hybrid",
		AnalysisID: "run-1",
	}
	require.NoError(t, store.UpsertScript(ctx, script))

	chunks := []*types.Chunk{
		{
			ID: 1, Title: "Data Retrieval - SELECT", StartLine: 1, EndLine: 1,
			Content:   "SELECT Amount FROM dbo.Payments WHERE Status = 'open'",
			ChunkType: types.ChunkRetrieval, Complexity: 2,
			Operations: []string{"SELECT"}, Tables: []string{"dbo.Payments"},
		},
		{
			ID: 2, Title: "Data Modification - UPDATE", StartLine: 2, EndLine: 2,
			Content:   "UPDATE dbo.Payments SET Status = 'closed'",
			ChunkType: types.ChunkModification, Complexity: 6,
			Operations: []string{"UPDATE"}, Tables: []string{"dbo.Payments"},
			Dependencies: []int{1},
		},
		{
			ID: 3, Title: "Data Modification - INSERT", StartLine: 3, EndLine: 3,
			Content:   "INSERT INTO dbo.AuditLog (Msg) VALUES ('payment closed')",
			ChunkType: types.ChunkModification, Complexity: 3,
			Operations: []string{"INSERT"}, Tables: []string{"dbo.AuditLog"},
		},
	}
	_, err = store.ReplaceChunks(ctx, script.ID, chunks)
	require.NoError(t, err)

	return NewSearcher(store), store, project
}

func TestSearch(t *testing.T) {
	s, _, project := setupTestSearcher(t)

	resp, err := s.Search(context.Background(), SearchRequest{ProjectID: project.ID, Query: "payments"})
	require.NoError(t, err)

	require.Equal(t, 2, resp.TotalResults)
	assert.False(t, resp.CacheHit)
	for i, r := range resp.Results {
		assert.Equal(t, i+1, r.Rank)
		assert.NoError(t, r.Validate())
		assert.Equal(t, "billing/close_payments.sql", r.Script.Path)
		assert.Equal(t, []string{"dbo.Payments"}, r.Chunk.Tables)
	}
}

func TestSearch_Filters(t *testing.T) {
	s, _, project := setupTestSearcher(t)
	ctx := context.Background()

	resp, err := s.Search(ctx, SearchRequest{
		ProjectID:  project.ID,
		Query:      "payments",
		ChunkTypes: []string{"modification"},
	})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, 2, resp.Results[0].Chunk.ID)
	assert.Equal(t, []int{1}, resp.Results[0].Chunk.Dependencies)

	resp, err = s.Search(ctx, SearchRequest{
		ProjectID: project.ID,
		Query:     "closed",
		Table:     "dbo.auditlog",
	})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, 3, resp.Results[0].Chunk.ID)

	resp, err = s.Search(ctx, SearchRequest{
		ProjectID:     project.ID,
		Query:         "payments",
		MinComplexity: 5,
	})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, types.ChunkModification, resp.Results[0].Chunk.ChunkType)
}

func TestSearch_InvalidRequest(t *testing.T) {
	s, _, project := setupTestSearcher(t)
	ctx := context.Background()

	_, err := s.Search(ctx, SearchRequest{ProjectID: project.ID, Query: "   "})
	assert.ErrorIs(t, err, storage.ErrEmptyQuery)

	_, err = s.Search(ctx, SearchRequest{ProjectID: project.ID, Query: "x", ChunkTypes: []string{"function"}})
	assert.ErrorIs(t, err, types.ErrInvalidChunkType)

	_, err = s.Search(ctx, SearchRequest{ProjectID: project.ID, Query: "x", MinComplexity: -1})
	assert.ErrorIs(t, err, types.ErrNegativeComplexity)

	_, err = s.Search(ctx, SearchRequest{ProjectID: project.ID, Query: "x", MinRelevance: 2})
	assert.ErrorIs(t, err, types.ErrInvalidRelevanceScore)
}

func TestValidateRequest_Limits(t *testing.T) {
	tests := []struct {
		name  string
		limit int
		want  int
	}{
		{"zero defaults", 0, 10},
		{"negative defaults", -5, 10},
		{"kept", 25, 25},
		{"capped", 500, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := SearchRequest{Query: "orders", Limit: tt.limit}
			require.NoError(t, validateRequest(&req))
			assert.Equal(t, tt.want, req.Limit)
			assert.Equal(t, time.Hour, req.CacheTTL)
		})
	}
}

func TestSearch_Cache(t *testing.T) {
	s, _, project := setupTestSearcher(t)
	ctx := context.Background()
	req := SearchRequest{ProjectID: project.ID, Query: "payments", UseCache: true}

	first, err := s.Search(ctx, req)
	require.NoError(t, err)
	assert.False(t, first.CacheHit)
	assert.Equal(t, 1, s.CacheLen())

	// mutating a returned response must not leak into the cache
	first.Results[0].Chunk.Tables[0] = "changed"

	second, err := s.Search(ctx, req)
	require.NoError(t, err)
	assert.True(t, second.CacheHit)
	assert.Equal(t, []string{"dbo.Payments"}, second.Results[0].Chunk.Tables)

	s.InvalidateCache()
	assert.Zero(t, s.CacheLen())

	third, err := s.Search(ctx, req)
	require.NoError(t, err)
	assert.False(t, third.CacheHit)
}

func TestSearch_CacheExpiry(t *testing.T) {
	s, _, project := setupTestSearcher(t)
	ctx := context.Background()
	req := SearchRequest{ProjectID: project.ID, Query: "payments", UseCache: true, CacheTTL: time.Nanosecond}

	_, err := s.Search(ctx, req)
	require.NoError(t, err)
	time.Sleep(time.Millisecond)

	resp, err := s.Search(ctx, req)
	require.NoError(t, err)
	assert.False(t, resp.CacheHit)
}

func TestSearch_NoResultsNotCached(t *testing.T) {
	s, _, project := setupTestSearcher(t)

	resp, err := s.Search(context.Background(), SearchRequest{ProjectID: project.ID, Query: "shipments", UseCache: true})
	require.NoError(t, err)
	assert.Empty(t, resp.Results)
	assert.Zero(t, s.CacheLen())
}

func TestComputeQueryHash(t *testing.T) {
	base := SearchRequest{ProjectID: 1, Query: "orders", ChunkTypes: []string{"loop", "cursor"}}

	reordered := base
	reordered.ChunkTypes = []string{"cursor", "loop"}
	assert.Equal(t, computeQueryHash(base), computeQueryHash(reordered))

	otherProject := base
	otherProject.ProjectID = 2
	assert.NotEqual(t, computeQueryHash(base), computeQueryHash(otherProject))

	otherTable := base
	otherTable.Table = "dbo.Orders"
	assert.NotEqual(t, computeQueryHash(base), computeQueryHash(otherTable))
}
