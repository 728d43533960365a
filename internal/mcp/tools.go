package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dshills/sqlchunker/internal/chunker"
	"github.com/dshills/sqlchunker/internal/indexer"
	"github.com/dshills/sqlchunker/internal/report"
	"github.com/dshills/sqlchunker/internal/searcher"
	"github.com/dshills/sqlchunker/internal/storage"
	"github.com/dshills/sqlchunker/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams      = -32602 // Invalid method parameters
	ErrorCodeInternalError      = -32603 // Internal JSON-RPC error
	ErrorCodeNotIndexed         = -32001 // Directory has not been indexed
	ErrorCodeIndexingInProgress = -32002 // Another indexing operation is already running
	ErrorCodeFileNotFound       = -32004 // Script file does not exist
)

// handleAnalyzeSQL handles the analyze_sql tool invocation
func (s *Server) handleAnalyzeSQL(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	format, err := report.ParseFormat(getStringDefault(args, "format", string(report.FormatJSON)))
	if err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid format", map[string]interface{}{
			"param":   "format",
			"reason":  err.Error(),
			"allowed": []string{"json", "markdown"},
		})
	}

	c, err := s.chunkerFromArgs(args)
	if err != nil {
		return nil, err
	}

	result, err := chunkInput(c, args)
	if err != nil {
		return nil, err
	}

	out, err := report.Render(format, result.Chunks, c.Config())
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to render report", map[string]interface{}{
			"error": err.Error(),
		})
	}

	return mcp.NewToolResultText(string(out)), nil
}

// handleVerifyCoverage handles the verify_coverage tool invocation
func (s *Server) handleVerifyCoverage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	var coverage *types.CoverageReport

	if document := getStringDefault(args, "document", ""); document != "" {
		totalLines := getIntDefault(args, "total_lines", -1)
		if totalLines < 0 {
			return nil, newMCPError(ErrorCodeInvalidParams, "total_lines is required with document", map[string]interface{}{
				"param":  "total_lines",
				"reason": "missing or negative",
			})
		}

		ranges, err := documentRanges(document)
		if err != nil {
			return nil, newMCPError(ErrorCodeInvalidParams, "invalid document", map[string]interface{}{
				"param":  "document",
				"reason": err.Error(),
			})
		}
		coverage = chunker.VerifyCoverage(ranges, totalLines)
	} else {
		c, err := s.chunkerFromArgs(args)
		if err != nil {
			return nil, err
		}
		result, err := chunkInput(c, args)
		if err != nil {
			return nil, err
		}
		coverage = result.Coverage()
	}

	return mcp.NewToolResultText(formatJSON(coverageResponse(coverage))), nil
}

// handleIndexScripts handles the index_scripts tool invocation
func (s *Server) handleIndexScripts(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	path, err := requirePath(args)
	if err != nil {
		return nil, err
	}

	if err := validateDirectory(path); err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid path", map[string]interface{}{
			"param":  "path",
			"reason": err.Error(),
		})
	}

	config := &indexer.Config{
		Workers:  s.opts.Workers,
		Include:  getStringSlice(args, "include", s.opts.Include),
		Ignore:   getStringSlice(args, "ignore", s.opts.Ignore),
		Chunking: s.opts.Chunking,
		Force:    getBoolDefault(args, "force_reindex", false),
	}

	stats, err := s.indexer.IndexProject(ctx, path, config)
	if errors.Is(err, indexer.ErrIndexInProgress) {
		return nil, newMCPError(ErrorCodeIndexingInProgress, "indexing already in progress", map[string]interface{}{
			"path": path,
		})
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "indexing failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
	s.searcher.InvalidateCache()

	response := map[string]interface{}{
		"indexed":         true,
		"analysis_id":     stats.AnalysisID,
		"scripts_found":   stats.ScriptsFound,
		"scripts_indexed": stats.ScriptsIndexed,
		"scripts_skipped": stats.ScriptsSkipped,
		"scripts_failed":  stats.ScriptsFailed,
		"scripts_removed": stats.ScriptsRemoved,
		"chunks_created":  stats.ChunksCreated,
		"sub_chunks":      stats.SubChunks,
		"duration_ms":     stats.Duration.Milliseconds(),
	}

	if len(stats.ErrorMessages) > 0 {
		errorCount := len(stats.ErrorMessages)
		if errorCount > 5 {
			response["errors"] = stats.ErrorMessages[:5]
			response["error_count"] = errorCount
		} else {
			response["errors"] = stats.ErrorMessages
		}
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleSearchChunks handles the search_chunks tool invocation
func (s *Server) handleSearchChunks(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	path, err := requirePath(args)
	if err != nil {
		return nil, err
	}

	query := strings.TrimSpace(getStringDefault(args, "query", ""))
	if query == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "query parameter is required and cannot be empty", map[string]interface{}{
			"param":  "query",
			"reason": "missing or empty",
		})
	}

	limit := getIntDefault(args, "limit", 10)
	if limit < 1 || limit > 100 {
		return nil, newMCPError(ErrorCodeInvalidParams, "limit must be between 1 and 100", map[string]interface{}{
			"param": "limit",
			"value": limit,
		})
	}

	chunkTypes := getStringSlice(args, "chunk_types", nil)
	for _, ct := range chunkTypes {
		if !types.ChunkType(ct).Valid() {
			return nil, newMCPError(ErrorCodeInvalidParams, "invalid chunk type", map[string]interface{}{
				"param": "chunk_types",
				"value": ct,
			})
		}
	}

	minComplexity := getIntDefault(args, "min_complexity", 0)
	if minComplexity < 0 {
		return nil, newMCPError(ErrorCodeInvalidParams, "min_complexity cannot be negative", map[string]interface{}{
			"param": "min_complexity",
			"value": minComplexity,
		})
	}

	project, err := s.lookupProject(ctx, path)
	if err != nil {
		return nil, err
	}

	resp, err := s.searcher.Search(ctx, searcher.SearchRequest{
		ProjectID:     project.ID,
		Query:         query,
		Limit:         limit,
		ChunkTypes:    chunkTypes,
		Table:         getStringDefault(args, "table", ""),
		MinComplexity: minComplexity,
		UseCache:      true,
	})
	if errors.Is(err, storage.ErrEmptyQuery) {
		return nil, newMCPError(ErrorCodeInvalidParams, "query has no searchable terms", map[string]interface{}{
			"param": "query",
			"value": query,
		})
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "search failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	results := make([]map[string]interface{}, 0, len(resp.Results))
	for _, r := range resp.Results {
		results = append(results, map[string]interface{}{
			"rank":            r.Rank,
			"relevance_score": r.RelevanceScore,
			"script":          r.Script.Path,
			"chunk_id":        r.Chunk.ID,
			"title":           r.Chunk.Title,
			"chunk_type":      r.Chunk.ChunkType,
			"start_line":      r.Chunk.StartLine,
			"end_line":        r.Chunk.EndLine,
			"complexity":      r.Chunk.Complexity,
			"tables":          nonNil(r.Chunk.Tables),
			"summary":         r.Chunk.Summary,
			"content":         r.Chunk.Content,
		})
	}

	response := map[string]interface{}{
		"query":         query,
		"total_results": resp.TotalResults,
		"cache_hit":     resp.CacheHit,
		"duration_ms":   resp.Duration.Milliseconds(),
		"results":       results,
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleGetStatus handles the get_status tool invocation
func (s *Server) handleGetStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	path, err := requirePath(args)
	if err != nil {
		return nil, err
	}

	project, err := s.storage.GetProject(ctx, path)
	if errors.Is(err, storage.ErrNotFound) {
		response := map[string]interface{}{
			"indexed":  false,
			"indexing": s.indexer.Indexing(path),
			"path":     path,
			"message":  "Directory not indexed. Use the index_scripts tool to index it.",
		}
		return mcp.NewToolResultText(formatJSON(response)), nil
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to get project status", map[string]interface{}{
			"error": err.Error(),
		})
	}

	status, err := s.storage.GetStatus(ctx, project.ID)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to get status", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"indexed":  true,
		"indexing": s.indexer.Indexing(path),
		"project": map[string]interface{}{
			"path":            project.RootPath,
			"index_version":   project.IndexVersion,
			"last_indexed_at": project.LastIndexedAt.Format(time.RFC3339),
		},
		"statistics": map[string]interface{}{
			"scripts_count":    status.ScriptsCount,
			"chunks_count":     status.ChunksCount,
			"sub_chunks_count": status.SubChunksCount,
			"total_complexity": status.TotalComplexity,
			"chunk_types":      status.ChunkTypes,
			"index_size_mb":    fmt.Sprintf("%.2f", status.IndexSizeMB),
		},
		"health": map[string]interface{}{
			"database_accessible": status.Health.DatabaseAccessible,
			"fts_indexes_built":   status.Health.FTSIndexesBuilt,
			"schema_version":      status.Health.SchemaVersion,
		},
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// lookupProject returns the indexed project at path or a not-indexed error
func (s *Server) lookupProject(ctx context.Context, path string) (*storage.Project, error) {
	project, err := s.storage.GetProject(ctx, path)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, newMCPError(ErrorCodeNotIndexed, "directory not indexed", map[string]interface{}{
			"path": path,
			"hint": "run index_scripts first",
		})
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to load project", map[string]interface{}{
			"error": err.Error(),
		})
	}
	return project, nil
}

// chunkerFromArgs applies the per-call chunking overrides to the server
// defaults
func (s *Server) chunkerFromArgs(args map[string]interface{}) (*chunker.Chunker, error) {
	cfg := s.opts.Chunking
	if name := getStringDefault(args, "strategy", ""); name != "" {
		strategy, err := chunker.ParseStrategy(name)
		if err != nil {
			return nil, newMCPError(ErrorCodeInvalidParams, "invalid strategy", map[string]interface{}{
				"param":   "strategy",
				"value":   name,
				"allowed": []string{"strict_logical", "size_constrained", "hybrid"},
			})
		}
		cfg.Strategy = strategy
	}

	for key, field := range map[string]*int{
		"target_size":     &cfg.TargetChunkSize,
		"min_size":        &cfg.MinChunkSize,
		"max_size":        &cfg.MaxChunkSize,
		"force_threshold": &cfg.ForceSubdivisionThreshold,
		"max_complexity":  &cfg.MaxComplexity,
		"max_depth":       &cfg.MaxRecursionDepth,
	} {
		*field = getIntDefault(args, key, *field)
	}

	c, err := chunker.New(cfg)
	if err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid chunking configuration", map[string]interface{}{
			"reason": err.Error(),
		})
	}
	return c, nil
}

// chunkInput chunks the script named by "path" or given as "content"
func chunkInput(c *chunker.Chunker, args map[string]interface{}) (*chunker.Result, error) {
	path := getStringDefault(args, "path", "")
	content, hasContent := args["content"].(string)

	switch {
	case path != "" && hasContent:
		return nil, newMCPError(ErrorCodeInvalidParams, "use either path or content, not both", nil)
	case hasContent:
		return c.ChunkContent(content), nil
	case path == "":
		return nil, newMCPError(ErrorCodeInvalidParams, "path or content parameter is required", map[string]interface{}{
			"param":  "path",
			"reason": "missing or empty",
		})
	}

	if !filepath.IsAbs(path) {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid path", map[string]interface{}{
			"param":  "path",
			"reason": ErrPathNotAbsolute.Error(),
		})
	}

	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, newMCPError(ErrorCodeFileNotFound, "script not found", map[string]interface{}{
			"path": path,
		})
	}
	if err == nil && info.IsDir() {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid path", map[string]interface{}{
			"param":  "path",
			"reason": "path is a directory",
		})
	}

	result, err := c.ChunkFile(path)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to read script", map[string]interface{}{
			"error": err.Error(),
		})
	}
	return result, nil
}

// documentRanges extracts chunk line ranges from a JSON export or a
// rendered markdown guide
func documentRanges(document string) ([]types.LineRange, error) {
	if strings.HasPrefix(strings.TrimSpace(document), "{") {
		export, err := report.ParseJSON([]byte(document))
		if err != nil {
			return nil, err
		}
		return export.Ranges(), nil
	}
	return report.ExtractLineRanges(document), nil
}

func coverageResponse(r *types.CoverageReport) map[string]interface{} {
	gaps := make([]string, 0, len(r.Gaps))
	for _, g := range r.Gaps {
		gaps = append(gaps, formatRange(g))
	}
	overlaps := make([]string, 0, len(r.Overlaps))
	for _, o := range r.Overlaps {
		overlaps = append(overlaps, formatRange(o.First)+" / "+formatRange(o.Second))
	}

	return map[string]interface{}{
		"perfect":        r.Perfect(),
		"chunks":         len(r.Ranges),
		"expected_lines": r.ExpectedLines,
		"covered_lines":  r.CoveredLines,
		"gaps":           gaps,
		"overlaps":       overlaps,
	}
}

func formatRange(r types.LineRange) string {
	return fmt.Sprintf("%d-%d", r.Start, r.End)
}

// Helper functions

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// requirePath extracts the absolute "path" argument
func requirePath(args map[string]interface{}) (string, error) {
	path, ok := args["path"].(string)
	if !ok || path == "" {
		return "", newMCPError(ErrorCodeInvalidParams, "path parameter is required", map[string]interface{}{
			"param":  "path",
			"reason": "missing or empty",
		})
	}
	if !filepath.IsAbs(path) {
		return "", newMCPError(ErrorCodeInvalidParams, "invalid path", map[string]interface{}{
			"param":  "path",
			"reason": ErrPathNotAbsolute.Error(),
		})
	}
	return filepath.Clean(path), nil
}

// validateDirectory checks that path is a readable directory holding at
// least one .sql file
func validateDirectory(path string) error {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return ErrPathNotFound
	}
	if err != nil {
		return ErrPathNotReadable
	}
	if !info.IsDir() {
		return ErrNotDirectory
	}

	f, err := os.Open(path)
	if err != nil {
		return ErrPathNotReadable
	}
	_ = f.Close()

	hasScripts := false
	_ = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(p), ".sql") {
			hasScripts = true
			return fs.SkipAll
		}
		return nil
	})

	if !hasScripts {
		return ErrNoScripts
	}
	return nil
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// getBoolDefault extracts a boolean parameter with a default value
func getBoolDefault(args map[string]interface{}, key string, defaultValue bool) bool {
	if val, ok := args[key].(bool); ok {
		return val
	}
	return defaultValue
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// getStringDefault extracts a string parameter with a default value
func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok {
		return val
	}
	return defaultValue
}

// getStringSlice extracts a string array parameter with a default value
func getStringSlice(args map[string]interface{}, key string, defaultValue []string) []string {
	raw, ok := args[key].([]interface{})
	if !ok {
		if val, ok := args[key].([]string); ok {
			return val
		}
		return defaultValue
	}
	values := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok && s != "" {
			values = append(values, s)
		}
	}
	return values
}

// Validation helpers

var (
	ErrPathNotAbsolute = errors.New("path must be absolute")
	ErrPathNotFound    = errors.New("path does not exist")
	ErrPathNotReadable = errors.New("path is not readable")
	ErrNotDirectory    = errors.New("path is not a directory")
	ErrNoScripts       = errors.New("directory does not contain .sql files")
)
