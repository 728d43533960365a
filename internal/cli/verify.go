package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dshills/sqlchunker/internal/chunker"
	"github.com/dshills/sqlchunker/internal/parser"
	"github.com/dshills/sqlchunker/internal/report"
	"github.com/dshills/sqlchunker/pkg/types"
)

// ErrCoverageFailed is returned by verify when lines are missed or repeated
var ErrCoverageFailed = errors.New("chunk coverage check failed")

func newVerifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify FILE",
		Short: "Check that chunks cover every line of a script exactly once",
		Long: `Verify checks chunk line ranges for gaps and overlaps.

FILE may be a SQL script (.sql), which is chunked and checked, a JSON export
(.json) or a rendered markdown guide. For exports and guides the script
length comes from --script or --total-lines; without either, only gaps and
overlaps up to the last chunk are reported.

The command exits non-zero when the check fails.
`,
		Args: cobra.ExactArgs(1),
		RunE: runVerify,
	}

	chunkingFlags(cmd)
	cmd.Flags().String("script", "", "the SQL script an export or guide describes")
	cmd.Flags().Int("total-lines", -1, "line count of the script an export or guide describes")
	return cmd
}

func runVerify(cmd *cobra.Command, args []string) error {
	path := args[0]

	var coverage *types.CoverageReport
	if strings.EqualFold(filepath.Ext(path), ".sql") {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		c, err := chunker.New(cfg.ChunkerConfig())
		if err != nil {
			return err
		}
		result, err := c.ChunkFile(path)
		if err != nil {
			return err
		}
		coverage = result.Coverage()
	} else {
		ranges, err := readRanges(path)
		if err != nil {
			return err
		}
		total, err := expectedLines(cmd, ranges)
		if err != nil {
			return err
		}
		coverage = chunker.VerifyCoverage(ranges, total)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s: %d chunks\n", path, len(coverage.Ranges))
	printCoverage(out, coverage)
	if !coverage.Perfect() {
		return ErrCoverageFailed
	}
	return nil
}

// readRanges extracts chunk ranges from a JSON export or a markdown guide
func readRanges(path string) ([]types.LineRange, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if strings.EqualFold(filepath.Ext(path), ".json") {
		export, err := report.ParseJSON(data)
		if err != nil {
			return nil, err
		}
		return export.Ranges(), nil
	}
	return report.ExtractLineRanges(string(data)), nil
}

func expectedLines(cmd *cobra.Command, ranges []types.LineRange) (int, error) {
	script, err := cmd.Flags().GetString("script")
	if err != nil {
		return 0, fmt.Errorf("failed to get script flag: %w", err)
	}
	if script != "" {
		data, err := os.ReadFile(script)
		if err != nil {
			return 0, fmt.Errorf("failed to read %s: %w", script, err)
		}
		return len(parser.SplitLines(string(data))), nil
	}

	total, err := cmd.Flags().GetInt("total-lines")
	if err != nil {
		return 0, fmt.Errorf("failed to get total-lines flag: %w", err)
	}
	if total >= 0 {
		return total, nil
	}

	last := 0
	for _, r := range ranges {
		last = max(last, r.End)
	}
	return last, nil
}
