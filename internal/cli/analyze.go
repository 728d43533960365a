package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dshills/sqlchunker/internal/chunker"
	"github.com/dshills/sqlchunker/internal/report"
	"github.com/dshills/sqlchunker/pkg/types"
)

var (
	successColor = color.New(color.FgGreen, color.Bold)
	failureColor = color.New(color.FgRed, color.Bold)
	accentColor  = color.New(color.FgCyan)
)

func newAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze FILE",
		Short: "Chunk a SQL script and print an analysis guide or JSON export",
		Long: `Analyze splits one SQL script into logical chunks and renders them.

Examples:
  # Markdown analysis guide on stdout
  sqlchunker analyze procs/close_period.sql

  # JSON export with smaller chunks
  sqlchunker analyze procs/close_period.sql --format json --max-size 80 --output close_period.json
`,
		Args: cobra.ExactArgs(1),
		RunE: runAnalyze,
	}

	chunkingFlags(cmd)
	cmd.Flags().StringP("format", "f", "markdown", "output format (markdown|json)")
	cmd.Flags().StringP("output", "o", "", "write the report to this file instead of stdout")
	return cmd
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	formatName, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	format, err := report.ParseFormat(formatName)
	if err != nil {
		return err
	}

	c, err := chunker.New(cfg.ChunkerConfig())
	if err != nil {
		return err
	}

	result, err := c.ChunkFile(args[0])
	if err != nil {
		return err
	}

	out, err := report.Render(format, result.Chunks, c.Config())
	if err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}

	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return fmt.Errorf("failed to get output flag: %w", err)
	}
	if outputPath == "" {
		if _, err := cmd.OutOrStdout().Write(out); err != nil {
			return err
		}
	} else if err := os.WriteFile(outputPath, out, 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	printAnalysisSummary(cmd.ErrOrStderr(), args[0], result, outputPath, verbose(cmd))
	return nil
}

func printAnalysisSummary(w io.Writer, path string, result *chunker.Result, outputPath string, verbose bool) {
	subChunks := 0
	for _, ch := range result.Chunks {
		if ch.IsSubChunk() {
			subChunks++
		}
	}

	fmt.Fprintf(w, "%s %s: %d lines, %d chunks (%d sub-chunks)\n",
		successColor.Sprint("✓"), path, len(result.Lines), len(result.Chunks), subChunks)
	printCoverage(w, result.Coverage())
	if verbose {
		p := result.Parse
		fmt.Fprintf(w, "  %d code, %d comment, %d blank lines\n", p.CodeLines, p.CommentLines, p.BlankLines)
		if p.HasWarnings() {
			for _, warn := range p.Warnings {
				fmt.Fprintf(w, "  line %d: %s\n", warn.Line, warn.Message)
			}
		}
	}
	if outputPath != "" {
		fmt.Fprintf(w, "  Report written to %s\n", accentColor.Sprint(outputPath))
	}
}

// printCoverage writes a coverage verdict and its gaps and overlaps.
func printCoverage(w io.Writer, r *types.CoverageReport) {
	if r.Perfect() {
		fmt.Fprintf(w, "%s Coverage: %d/%d lines, no gaps or overlaps\n",
			successColor.Sprint("✓"), r.CoveredLines, r.ExpectedLines)
		return
	}

	fmt.Fprintf(w, "%s Coverage: %d/%d lines\n", failureColor.Sprint("✗"), r.CoveredLines, r.ExpectedLines)
	for _, g := range r.Gaps {
		fmt.Fprintf(w, "  gap      lines %d-%d\n", g.Start, g.End)
	}
	for _, o := range r.Overlaps {
		fmt.Fprintf(w, "  overlap  lines %d-%d and %d-%d\n", o.First.Start, o.First.End, o.Second.Start, o.Second.End)
	}
}
