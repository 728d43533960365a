package cli

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dshills/sqlchunker/internal/searcher"
	"github.com/dshills/sqlchunker/internal/storage"
)

func newSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search DIR QUERY...",
		Short: "Keyword search over the indexed chunks of a directory",
		Long: `Search ranks the stored chunks of an indexed directory by BM25 relevance.
Each query word is matched on its own.

Examples:
  sqlchunker search ./db Inventory
  sqlchunker search ./db payment refund --type modification --table dbo.Payments
`,
		Args: cobra.MinimumNArgs(2),
		RunE: runSearch,
	}

	cmd.Flags().StringSlice("type", nil, "keep only these chunk types")
	cmd.Flags().String("table", "", "keep only chunks that access this table")
	cmd.Flags().Int("min-complexity", 0, "keep only chunks at or above this complexity")
	cmd.Flags().String("files", "", "keep only scripts matching this glob")
	cmd.Flags().IntP("limit", "n", 10, "maximum number of results (1-100)")
	cmd.Flags().Bool("content", false, "print the chunk source")
	return cmd
}

func runSearch(cmd *cobra.Command, args []string) error {
	root, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", args[0], err)
	}
	query := strings.Join(args[1:], " ")

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	chunkTypes, _ := flags.GetStringSlice("type")
	table, _ := flags.GetString("table")
	minComplexity, _ := flags.GetInt("min-complexity")
	files, _ := flags.GetString("files")
	limit, _ := flags.GetInt("limit")
	showContent, _ := flags.GetBool("content")

	store, err := openStorage(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	ctx := cmd.Context()
	project, err := store.GetProject(ctx, root)
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%s is not indexed; run 'sqlchunker index %s' first", root, args[0])
	}
	if err != nil {
		return err
	}

	resp, err := searcher.NewSearcher(store).Search(ctx, searcher.SearchRequest{
		ProjectID:     project.ID,
		Query:         query,
		Limit:         limit,
		ChunkTypes:    chunkTypes,
		Table:         table,
		MinComplexity: minComplexity,
		FilePattern:   files,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if resp.TotalResults == 0 {
		fmt.Fprintf(out, "No chunks match %q\n", query)
		return nil
	}

	for _, r := range resp.Results {
		c := r.Chunk
		fmt.Fprintf(out, "%2d. %s %s\n", r.Rank,
			accentColor.Sprintf("%s:%d-%d", r.Script.Path, c.StartLine, c.EndLine),
			c.Title)
		fmt.Fprintf(out, "    type=%s complexity=%d score=%.3f", c.ChunkType, c.Complexity, r.RelevanceScore)
		if len(c.Tables) > 0 {
			fmt.Fprintf(out, " tables=%s", strings.Join(c.Tables, ","))
		}
		fmt.Fprintln(out)
		if showContent {
			for _, line := range strings.Split(c.Content, "\n") {
				fmt.Fprintf(out, "    | %s\n", line)
			}
		}
	}
	if verbose(cmd) {
		fmt.Fprintf(out, "%d results in %v\n", resp.TotalResults, resp.Duration)
	}
	return nil
}
