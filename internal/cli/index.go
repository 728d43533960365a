package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dshills/sqlchunker/internal/config"
	"github.com/dshills/sqlchunker/internal/indexer"
	"github.com/dshills/sqlchunker/internal/mcp"
	"github.com/dshills/sqlchunker/internal/storage"
)

func newIndexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index [DIR]",
		Short: "Chunk every SQL script below a directory and store the chunks",
		Long: `Index walks DIR (default: the working directory), chunks every script
matching the include patterns and stores the chunks for searching.

Scripts whose content and chunking strategy are unchanged since the last
run are skipped; scripts that disappeared are removed from the index.

Examples:
  sqlchunker index ./db
  sqlchunker index ./db --ignore "**/archive/**" --force
`,
		Args: cobra.MaximumNArgs(1),
		RunE: runIndex,
	}

	chunkingFlags(cmd)
	cmd.Flags().Bool("force", false, "re-chunk every script even when unchanged")
	cmd.Flags().BoolP("quiet", "q", false, "disable progress output")
	cmd.Flags().Int("workers", 0, "concurrent chunking workers (default: number of CPUs)")
	cmd.Flags().StringSlice("include", nil, "glob patterns of scripts to index")
	cmd.Flags().StringSlice("ignore", nil, "glob patterns to skip")
	return cmd
}

func runIndex(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := "."
	if len(args) == 1 {
		root = args[0]
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", root, err)
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	force, _ := cmd.Flags().GetBool("force")
	quiet, _ := cmd.Flags().GetBool("quiet")

	store, err := openStorage(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	progress := NewCLIProgressReporter(cmd.ErrOrStderr(), quiet, verbose(cmd))
	stats, err := indexer.New(store).IndexProject(ctx, root, cfg.IndexerConfig(force, progress))
	if errors.Is(err, context.Canceled) {
		return errors.New("indexing interrupted")
	}
	if err != nil {
		return err
	}

	if stats.ScriptsFailed > 0 {
		return fmt.Errorf("%d of %d scripts could not be indexed", stats.ScriptsFailed, stats.ScriptsFound)
	}
	return nil
}

// openStorage opens the index database named by the configuration
func openStorage(cfg *config.Config) (*storage.SQLiteStorage, error) {
	dbPath, err := mcp.ExpandPath(cfg.Storage.DBPath)
	if err != nil {
		return nil, err
	}
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open index: %w", err)
	}
	return store, nil
}
