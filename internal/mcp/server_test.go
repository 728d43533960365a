package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/sqlchunker/internal/chunker"
	"github.com/dshills/sqlchunker/internal/report"
	"github.com/dshills/sqlchunker/internal/storage"
)

const transferProc = `CREATE PROCEDURE dbo.usp_TransferStock
    @ProductId INT,
    @Qty INT
AS
BEGIN
    DECLARE @Available INT

    SELECT @Available = Quantity FROM dbo.Stock WHERE ProductId = @ProductId

    IF @Available < @Qty
    BEGIN
        RAISERROR('insufficient stock', 16, 1)
        RETURN
    END

    BEGIN TRANSACTION
        UPDATE dbo.Stock SET Quantity = Quantity - @Qty WHERE ProductId = @ProductId
        INSERT INTO dbo.StockMoves (ProductId, Qty) VALUES (@ProductId, @Qty)
    COMMIT TRANSACTION
END
`

func setupTestServer(t *testing.T) *Server {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return newServerWithStorage(store, Options{Chunking: chunker.DefaultConfig(), Workers: 2})
}

func setupScriptDir(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "inventory"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "inventory", "transfer.sql"), []byte(transferProc), 0644))
	return dir
}

func callTool(args map[string]interface{}) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()

	require.NotNil(t, result)
	require.NotEmpty(t, result.Content)
	switch c := result.Content[0].(type) {
	case mcp.TextContent:
		return c.Text
	case *mcp.TextContent:
		return c.Text
	default:
		t.Fatalf("unexpected content type %T", c)
		return ""
	}
}

func resultJSON(t *testing.T, result *mcp.CallToolResult) map[string]interface{} {
	t.Helper()

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &out))
	return out
}

func requireCode(t *testing.T, err error, code int) {
	t.Helper()

	var mcpErr *MCPError
	require.True(t, errors.As(err, &mcpErr), "expected MCPError, got %v", err)
	assert.Equal(t, code, mcpErr.Code)
}

func TestNewServer(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "index.db")

	s, err := NewServer(Options{DBPath: dbPath})
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	assert.NotNil(t, s.indexer)
	assert.NotNil(t, s.searcher)
	assert.FileExists(t, dbPath)
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	got, err := ExpandPath("")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".sqlchunker", "index.db"), got)

	got, err = ExpandPath("~/data/x.db")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "data", "x.db"), got)

	got, err = ExpandPath("/tmp/x.db")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/x.db", got)
}

func TestHandleAnalyzeSQL_JSON(t *testing.T) {
	s := setupTestServer(t)

	result, err := s.handleAnalyzeSQL(context.Background(), callTool(map[string]interface{}{
		"content": transferProc,
	}))
	require.NoError(t, err)

	export, err := report.ParseJSON([]byte(resultText(t, result)))
	require.NoError(t, err)
	assert.Equal(t, "hybrid", export.Strategy)
	require.NotEmpty(t, export.Chunks)

	coverage := chunker.VerifyCoverage(export.Ranges(), 20)
	assert.True(t, coverage.Perfect(), "gaps %v overlaps %v", coverage.Gaps, coverage.Overlaps)
}

func TestHandleAnalyzeSQL_MarkdownFromFile(t *testing.T) {
	s := setupTestServer(t)
	dir := setupScriptDir(t)

	result, err := s.handleAnalyzeSQL(context.Background(), callTool(map[string]interface{}{
		"path":     filepath.Join(dir, "inventory", "transfer.sql"),
		"format":   "markdown",
		"strategy": "strict_logical",
	}))
	require.NoError(t, err)

	text := resultText(t, result)
	assert.Contains(t, text, "Lines: ")
	coverage := chunker.VerifyCoverage(report.ExtractLineRanges(text), 20)
	assert.True(t, coverage.Perfect())
}

func TestHandleAnalyzeSQL_Errors(t *testing.T) {
	s := setupTestServer(t)
	dir := setupScriptDir(t)

	tests := []struct {
		name string
		args map[string]interface{}
		code int
	}{
		{"no input", map[string]interface{}{}, ErrorCodeInvalidParams},
		{"both inputs", map[string]interface{}{"path": "/a.sql", "content": "SELECT 1"}, ErrorCodeInvalidParams},
		{"relative path", map[string]interface{}{"path": "a.sql"}, ErrorCodeInvalidParams},
		{"missing file", map[string]interface{}{"path": filepath.Join(dir, "missing.sql")}, ErrorCodeFileNotFound},
		{"directory", map[string]interface{}{"path": dir}, ErrorCodeInvalidParams},
		{"bad format", map[string]interface{}{"content": "SELECT 1", "format": "xml"}, ErrorCodeInvalidParams},
		{"bad strategy", map[string]interface{}{"content": "SELECT 1", "strategy": "greedy"}, ErrorCodeInvalidParams},
		{"min above target", map[string]interface{}{"content": "SELECT 1", "min_size": float64(50), "target_size": float64(20)}, ErrorCodeInvalidParams},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.handleAnalyzeSQL(context.Background(), callTool(tt.args))
			requireCode(t, err, tt.code)
		})
	}
}

func TestHandleVerifyCoverage(t *testing.T) {
	s := setupTestServer(t)
	dir := setupScriptDir(t)
	ctx := context.Background()

	t.Run("script", func(t *testing.T) {
		result, err := s.handleVerifyCoverage(ctx, callTool(map[string]interface{}{
			"path": filepath.Join(dir, "inventory", "transfer.sql"),
		}))
		require.NoError(t, err)

		out := resultJSON(t, result)
		assert.Equal(t, true, out["perfect"])
		assert.Equal(t, float64(20), out["expected_lines"])
		assert.Equal(t, float64(20), out["covered_lines"])
	})

	t.Run("markdown with gap and overlap", func(t *testing.T) {
		doc := "   - Lines: 1-4\n   - Lines: 4-6\n   - Lines: 9-10\n"
		result, err := s.handleVerifyCoverage(ctx, callTool(map[string]interface{}{
			"document":    doc,
			"total_lines": float64(10),
		}))
		require.NoError(t, err)

		out := resultJSON(t, result)
		assert.Equal(t, false, out["perfect"])
		assert.Equal(t, []interface{}{"7-8"}, out["gaps"])
		assert.Equal(t, []interface{}{"1-4 / 4-6"}, out["overlaps"])
	})

	t.Run("json export", func(t *testing.T) {
		cfg := chunker.DefaultConfig()
		chunks := chunker.Chunk([]string{"DECLARE @a INT", "SELECT @a = 1"}, cfg)
		doc, err := report.JSON(chunks, cfg)
		require.NoError(t, err)

		result, err := s.handleVerifyCoverage(ctx, callTool(map[string]interface{}{
			"document":    string(doc),
			"total_lines": float64(2),
		}))
		require.NoError(t, err)
		assert.Equal(t, true, resultJSON(t, result)["perfect"])
	})

	t.Run("document without total", func(t *testing.T) {
		_, err := s.handleVerifyCoverage(ctx, callTool(map[string]interface{}{"document": "Lines: 1-2"}))
		requireCode(t, err, ErrorCodeInvalidParams)
	})

	t.Run("malformed json", func(t *testing.T) {
		_, err := s.handleVerifyCoverage(ctx, callTool(map[string]interface{}{
			"document":    "{not json",
			"total_lines": float64(2),
		}))
		requireCode(t, err, ErrorCodeInvalidParams)
	})
}

func TestIndexSearchStatus(t *testing.T) {
	s := setupTestServer(t)
	dir := setupScriptDir(t)
	ctx := context.Background()

	result, err := s.handleGetStatus(ctx, callTool(map[string]interface{}{"path": dir}))
	require.NoError(t, err)
	assert.Equal(t, false, resultJSON(t, result)["indexed"])

	_, err = s.handleSearchChunks(ctx, callTool(map[string]interface{}{"path": dir, "query": "stock"}))
	requireCode(t, err, ErrorCodeNotIndexed)

	result, err = s.handleIndexScripts(ctx, callTool(map[string]interface{}{"path": dir}))
	require.NoError(t, err)
	stats := resultJSON(t, result)
	assert.Equal(t, float64(1), stats["scripts_found"])
	assert.Equal(t, float64(1), stats["scripts_indexed"])
	assert.Greater(t, stats["chunks_created"], float64(0))

	result, err = s.handleSearchChunks(ctx, callTool(map[string]interface{}{
		"path":  dir,
		"query": "StockMoves",
		"limit": float64(5),
	}))
	require.NoError(t, err)
	out := resultJSON(t, result)
	results, ok := out["results"].([]interface{})
	require.True(t, ok)
	require.NotEmpty(t, results)
	first := results[0].(map[string]interface{})
	assert.Equal(t, "inventory/transfer.sql", first["script"])
	assert.Equal(t, float64(1), first["rank"])
	assert.Contains(t, first["content"], "StockMoves")

	result, err = s.handleGetStatus(ctx, callTool(map[string]interface{}{"path": dir}))
	require.NoError(t, err)
	status := resultJSON(t, result)
	assert.Equal(t, true, status["indexed"])
	assert.Equal(t, false, status["indexing"])
	statistics := status["statistics"].(map[string]interface{})
	assert.Equal(t, float64(1), statistics["scripts_count"])
	health := status["health"].(map[string]interface{})
	assert.Equal(t, storage.CurrentSchemaVersion, health["schema_version"])

	// unchanged scripts are skipped on the second run
	result, err = s.handleIndexScripts(ctx, callTool(map[string]interface{}{"path": dir}))
	require.NoError(t, err)
	assert.Equal(t, float64(1), resultJSON(t, result)["scripts_skipped"])
}

func TestHandleSearchChunks_Errors(t *testing.T) {
	s := setupTestServer(t)
	dir := setupScriptDir(t)
	ctx := context.Background()

	_, err := s.handleIndexScripts(ctx, callTool(map[string]interface{}{"path": dir}))
	require.NoError(t, err)

	tests := []struct {
		name string
		args map[string]interface{}
	}{
		{"missing path", map[string]interface{}{"query": "stock"}},
		{"relative path", map[string]interface{}{"path": "scripts", "query": "stock"}},
		{"empty query", map[string]interface{}{"path": dir, "query": "  "}},
		{"limit too small", map[string]interface{}{"path": dir, "query": "stock", "limit": float64(0)}},
		{"limit too large", map[string]interface{}{"path": dir, "query": "stock", "limit": float64(101)}},
		{"bad chunk type", map[string]interface{}{"path": dir, "query": "stock", "chunk_types": []interface{}{"function"}}},
		{"punctuation only", map[string]interface{}{"path": dir, "query": "()"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.handleSearchChunks(ctx, callTool(tt.args))
			requireCode(t, err, ErrorCodeInvalidParams)
		})
	}
}

func TestHandleIndexScripts_Errors(t *testing.T) {
	s := setupTestServer(t)
	ctx := context.Background()

	empty := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(empty, "notes.txt"), []byte("x"), 0644))

	file := filepath.Join(setupScriptDir(t), "inventory", "transfer.sql")

	tests := []struct {
		name string
		path string
	}{
		{"relative", "scripts"},
		{"missing", filepath.Join(empty, "nope")},
		{"file", file},
		{"no scripts", empty},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.handleIndexScripts(ctx, callTool(map[string]interface{}{"path": tt.path}))
			requireCode(t, err, ErrorCodeInvalidParams)
		})
	}
}

func TestHandleIndexScripts_InProgress(t *testing.T) {
	s := setupTestServer(t)
	dir := setupScriptDir(t)

	require.True(t, s.indexer.Lock().TryAcquire(dir))
	defer s.indexer.Lock().Release(dir)

	_, err := s.handleIndexScripts(context.Background(), callTool(map[string]interface{}{"path": dir}))
	requireCode(t, err, ErrorCodeIndexingInProgress)
}

func TestHandleIndexScripts_InvalidatesCache(t *testing.T) {
	s := setupTestServer(t)
	dir := setupScriptDir(t)
	ctx := context.Background()

	_, err := s.handleIndexScripts(ctx, callTool(map[string]interface{}{"path": dir}))
	require.NoError(t, err)

	_, err = s.handleSearchChunks(ctx, callTool(map[string]interface{}{"path": dir, "query": "stock"}))
	require.NoError(t, err)
	assert.Equal(t, 1, s.searcher.CacheLen())

	_, err = s.handleIndexScripts(ctx, callTool(map[string]interface{}{"path": dir, "force_reindex": true}))
	require.NoError(t, err)
	assert.Zero(t, s.searcher.CacheLen())
}

func TestArgumentHelpers(t *testing.T) {
	args := map[string]interface{}{
		"b":     true,
		"f":     float64(7),
		"i":     3,
		"s":     "x",
		"list":  []interface{}{"a", "", 4, "b"},
		"typed": []string{"c"},
	}

	assert.True(t, getBoolDefault(args, "b", false))
	assert.True(t, getBoolDefault(args, "missing", true))
	assert.Equal(t, 7, getIntDefault(args, "f", 0))
	assert.Equal(t, 3, getIntDefault(args, "i", 0))
	assert.Equal(t, 9, getIntDefault(args, "s", 9))
	assert.Equal(t, "x", getStringDefault(args, "s", ""))
	assert.Equal(t, []string{"a", "b"}, getStringSlice(args, "list", nil))
	assert.Equal(t, []string{"c"}, getStringSlice(args, "typed", nil))
	assert.Equal(t, []string{"d"}, getStringSlice(args, "missing", []string{"d"}))
}
