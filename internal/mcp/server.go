package mcp

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/server"

	"github.com/dshills/sqlchunker/internal/chunker"
	"github.com/dshills/sqlchunker/internal/indexer"
	"github.com/dshills/sqlchunker/internal/searcher"
	"github.com/dshills/sqlchunker/internal/storage"
)

const (
	// ServerName is the MCP server name
	ServerName = "sqlchunker"
	// DefaultDBPath is the default location of the index database
	DefaultDBPath = "~/.sqlchunker/index.db"
)

// ServerVersion is reported to MCP clients; main overrides it at startup
var ServerVersion = "dev"

// Options configures a Server
type Options struct {
	DBPath   string         // Index database file; DefaultDBPath when empty
	Chunking chunker.Config // Defaults for analyze_sql, verify_coverage and index_scripts
	Include  []string       // Default include globs for index_scripts
	Ignore   []string       // Default ignore globs for index_scripts
	Workers  int
}

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp      *server.MCPServer
	storage  storage.Storage
	indexer  *indexer.Indexer
	searcher *searcher.Searcher
	opts     Options
}

// NewServer opens the index database and registers the tools
func NewServer(opts Options) (*Server, error) {
	dbPath, err := ExpandPath(opts.DBPath)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	return newServerWithStorage(store, opts), nil
}

func newServerWithStorage(store storage.Storage, opts Options) *Server {
	s := &Server{
		mcp:      server.NewMCPServer(ServerName, ServerVersion),
		storage:  store,
		indexer:  indexer.New(store),
		searcher: searcher.NewSearcher(store),
		opts:     opts,
	}
	s.registerTools()
	return s
}

// ExpandPath resolves a leading "~" and falls back to DefaultDBPath
func ExpandPath(path string) (string, error) {
	if path == "" {
		path = DefaultDBPath
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return path, nil
}

// Serve starts the MCP server on stdio and blocks until shutdown
func (s *Server) Serve(ctx context.Context) error {
	defer func() { _ = s.storage.Close() }()
	log.Printf("%s %s serving on stdio (%s storage)", ServerName, ServerVersion, storage.BuildMode)
	return server.ServeStdio(s.mcp)
}

// Close releases the index database
func (s *Server) Close() error {
	return s.storage.Close()
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	s.mcp.AddTool(analyzeSQLTool(), s.handleAnalyzeSQL)
	s.mcp.AddTool(verifyCoverageTool(), s.handleVerifyCoverage)
	s.mcp.AddTool(indexScriptsTool(), s.handleIndexScripts)
	s.mcp.AddTool(searchChunksTool(), s.handleSearchChunks)
	s.mcp.AddTool(getStatusTool(), s.handleGetStatus)
}
