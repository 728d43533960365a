// Package mcp implements the Model Context Protocol (MCP) server for sqlchunker.
//
// The server exposes five tools over stdio:
//   - analyze_sql: chunk one script and return a markdown guide or JSON export
//   - verify_coverage: check that chunk ranges cover a script exactly once
//   - index_scripts: chunk every script below a directory and store the chunks
//   - search_chunks: keyword search over stored chunks
//   - get_status: indexing status and statistics for a directory
//
// # Tool: analyze_sql
//
//	Request:
//	{
//	  "name": "analyze_sql",
//	  "arguments": {
//	    "path": "/srv/db/procs/close_period.sql",
//	    "format": "markdown",
//	    "strategy": "hybrid",
//	    "max_size": 120
//	  }
//	}
//
// Either path or content is required. The chunking arguments override the
// server defaults for this call only.
//
// # Tool: search_chunks
//
//	Request:
//	{
//	  "name": "search_chunks",
//	  "arguments": {
//	    "path": "/srv/db/procs",
//	    "query": "Inventory cursor",
//	    "chunk_types": ["cursor", "loop"],
//	    "table": "dbo.Inventory"
//	  }
//	}
//
// Query terms are matched independently and ranked by BM25.
//
// # Error Handling
//
// Failures are returned as *MCPError values:
//   - -32602: Invalid params
//   - -32603: Internal error (database, filesystem)
//   - -32001: Directory not indexed
//   - -32002: Indexing in progress
//   - -32004: Script file not found
//
// The server logs to stderr; stdout carries the protocol.
package mcp
