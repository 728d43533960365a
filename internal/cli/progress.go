package cli

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/dshills/sqlchunker/internal/indexer"
)

// CLIProgressReporter draws a progress bar while scripts are indexed.
type CLIProgressReporter struct {
	out     io.Writer
	quiet   bool
	verbose bool

	mu  sync.Mutex
	bar *progressbar.ProgressBar
}

// NewCLIProgressReporter creates a reporter writing to out.
func NewCLIProgressReporter(out io.Writer, quiet, verbose bool) *CLIProgressReporter {
	return &CLIProgressReporter{
		out:     out,
		quiet:   quiet,
		verbose: verbose,
	}
}

func (c *CLIProgressReporter) OnDiscoveryComplete(totalScripts int) {
	if c.quiet {
		return
	}
	fmt.Fprintf(c.out, "Found %d SQL scripts\n", totalScripts)
	if totalScripts == 0 || c.verbose {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.bar = progressbar.NewOptions(totalScripts,
		progressbar.OptionSetWriter(c.out),
		progressbar.OptionSetDescription("Chunking scripts"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("scripts/s"),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(c.out)
		}),
	)
}

func (c *CLIProgressReporter) OnScriptProcessed(relPath string, outcome indexer.Outcome) {
	if c.quiet {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.verbose {
		fmt.Fprintf(c.out, "  %-8s %s\n", outcome, relPath)
		return
	}
	if c.bar != nil {
		_ = c.bar.Add(1)
	}
}

func (c *CLIProgressReporter) OnComplete(stats *indexer.Statistics) {
	if c.quiet {
		return
	}

	c.mu.Lock()
	if c.bar != nil {
		_ = c.bar.Finish()
		c.bar = nil
	}
	c.mu.Unlock()

	fmt.Fprintf(c.out, "%s Indexing complete: %d chunks in %.1fs\n",
		successColor.Sprint("✓"), stats.ChunksCreated, stats.Duration.Seconds())
	fmt.Fprintf(c.out, "  Scripts: %d indexed, %d unchanged, %d removed\n",
		stats.ScriptsIndexed, stats.ScriptsSkipped, stats.ScriptsRemoved)
	if stats.SubChunks > 0 {
		fmt.Fprintf(c.out, "  Sub-chunks: %d\n", stats.SubChunks)
	}
	if stats.ScriptsFailed > 0 {
		fmt.Fprintf(c.out, "%s %d scripts failed\n", failureColor.Sprint("✗"), stats.ScriptsFailed)
		for _, msg := range stats.ErrorMessages {
			fmt.Fprintf(c.out, "  %s\n", msg)
		}
	}
}

