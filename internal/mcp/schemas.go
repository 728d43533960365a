package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// chunkingProperties are the chunker overrides accepted by analyze_sql and
// verify_coverage
func chunkingProperties() map[string]interface{} {
	return map[string]interface{}{
		"strategy": map[string]interface{}{
			"type":        "string",
			"description": "Chunking strategy: strict_logical keeps blocks whole, size_constrained splits oversized blocks, hybrid also forces splits above force_threshold",
			"enum":        []string{"strict_logical", "size_constrained", "hybrid"},
			"default":     "hybrid",
		},
		"target_size": map[string]interface{}{
			"type":        "integer",
			"description": "Preferred lines per sub-chunk",
			"minimum":     1,
		},
		"min_size": map[string]interface{}{
			"type":        "integer",
			"description": "Sub-chunks shorter than this are not cut",
			"minimum":     1,
		},
		"max_size": map[string]interface{}{
			"type":        "integer",
			"description": "Block size in lines above which a block is subdivided",
			"minimum":     1,
		},
		"force_threshold": map[string]interface{}{
			"type":        "integer",
			"description": "Hybrid strategy: blocks above this many lines are always subdivided",
			"minimum":     1,
		},
		"max_complexity": map[string]interface{}{
			"type":        "integer",
			"description": "Block complexity above which a block is subdivided",
			"minimum":     1,
		},
		"max_depth": map[string]interface{}{
			"type":        "integer",
			"description": "Maximum subdivision recursion depth",
			"minimum":     1,
		},
	}
}

func withChunking(props map[string]interface{}) map[string]interface{} {
	for k, v := range chunkingProperties() {
		props[k] = v
	}
	return props
}

// analyzeSQLTool returns the tool definition for analyze_sql
func analyzeSQLTool() mcp.Tool {
	return mcp.Tool{
		Name:        "analyze_sql",
		Description: "Split a procedural SQL script into logically coherent, size-bounded chunks and return an analysis guide or JSON export",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: withChunking(map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to a SQL script (use either path or content)",
				},
				"content": map[string]interface{}{
					"type":        "string",
					"description": "SQL script text (use either path or content)",
				},
				"format": map[string]interface{}{
					"type":        "string",
					"description": "Output format",
					"enum":        []string{"json", "markdown"},
					"default":     "json",
				},
			}),
		},
	}
}

// verifyCoverageTool returns the tool definition for verify_coverage
func verifyCoverageTool() mcp.Tool {
	return mcp.Tool{
		Name:        "verify_coverage",
		Description: "Check that a chunk sequence covers every line of a script exactly once, reporting gaps and overlaps",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: withChunking(map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to a SQL script to chunk and check",
				},
				"document": map[string]interface{}{
					"type":        "string",
					"description": "A rendered analysis guide (markdown) or JSON export to check instead of a script",
				},
				"total_lines": map[string]interface{}{
					"type":        "integer",
					"description": "Line count of the script the document describes (required with document)",
					"minimum":     0,
				},
			}),
		},
	}
}

// indexScriptsTool returns the tool definition for index_scripts
func indexScriptsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "index_scripts",
		Description: "Chunk every SQL script below a directory and store the chunks for searching",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to the directory holding the scripts",
				},
				"force_reindex": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, re-chunk all scripts ignoring content hashes",
					"default":     false,
				},
				"include": map[string]interface{}{
					"type":        "array",
					"description": "Glob patterns of scripts to index (default: **/*.sql)",
					"items":       map[string]interface{}{"type": "string"},
				},
				"ignore": map[string]interface{}{
					"type":        "array",
					"description": "Glob patterns to skip",
					"items":       map[string]interface{}{"type": "string"},
				},
			},
			Required: []string{"path"},
		},
	}
}

// searchChunksTool returns the tool definition for search_chunks
func searchChunksTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search_chunks",
		Description: "Keyword search over the stored chunks of an indexed directory",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to an indexed directory",
				},
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Keywords (table names, procedure names, SQL terms)",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of results to return (1-100)",
					"default":     10,
					"minimum":     1,
					"maximum":     100,
				},
				"chunk_types": map[string]interface{}{
					"type":        "array",
					"description": "Keep only these chunk types",
					"items": map[string]interface{}{
						"type": "string",
						"enum": []string{
							"declaration", "transaction", "error_handling", "loop", "conditional", "cursor",
							"dynamic_sql", "modification", "retrieval", "calculation", "validation", "general",
						},
					},
				},
				"table": map[string]interface{}{
					"type":        "string",
					"description": "Keep only chunks that access this table",
				},
				"min_complexity": map[string]interface{}{
					"type":        "integer",
					"description": "Keep only chunks at or above this complexity score",
					"minimum":     0,
				},
			},
			Required: []string{"path", "query"},
		},
	}
}

// getStatusTool returns the tool definition for get_status
func getStatusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_status",
		Description: "Query indexing status and statistics for a directory of SQL scripts",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to the directory",
				},
			},
			Required: []string{"path"},
		},
	}
}
