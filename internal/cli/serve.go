package cli

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dshills/sqlchunker/internal/mcp"
	"github.com/dshills/sqlchunker/internal/storage"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server on stdio",
		Long: `Serve exposes analyze_sql, verify_coverage, index_scripts, search_chunks
and get_status to MCP clients over stdin/stdout. Logs go to stderr.

Client configuration:
  {
    "mcpServers": {
      "sqlchunker": {
        "command": "/usr/local/bin/sqlchunker",
        "args": ["serve"]
      }
    }
  }
`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}

	chunkingFlags(cmd)
	cmd.Flags().Int("workers", 0, "concurrent chunking workers for index_scripts")
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	// stdout is reserved for the protocol
	log.SetOutput(os.Stderr)

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	mcp.ServerVersion = Version
	log.Printf("sqlchunker MCP server %s starting (build mode %s, driver %s)", Version, storage.BuildMode, storage.DriverName)

	server, err := mcp.NewServer(mcp.Options{
		DBPath:   cfg.Storage.DBPath,
		Chunking: cfg.ChunkerConfig(),
		Include:  cfg.Paths.Include,
		Ignore:   cfg.Paths.Ignore,
		Workers:  cfg.Index.Workers,
	})
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}
	defer func() {
		if err := server.Close(); err != nil {
			log.Printf("Failed to close storage: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Serve(ctx)
	}()

	select {
	case <-ctx.Done():
		log.Printf("Received shutdown signal, stopping")
		return nil
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	log.Println("Server stopped")
	return nil
}
