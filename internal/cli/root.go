// Package cli implements the sqlchunker command tree.
package cli

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dshills/sqlchunker/internal/config"
)

// NewRootCmd builds the sqlchunker command with all subcommands attached.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "sqlchunker",
		Short: "Split procedural SQL scripts into analysable chunks",
		Long: `sqlchunker splits long T-SQL style scripts and stored procedures into
logically coherent, size-bounded chunks, each annotated with its type,
complexity, tables, variables and dependencies on earlier chunks.

Chunks can be rendered as a markdown analysis guide or a JSON export,
indexed for keyword search, or served to MCP clients over stdio.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return applyColorFlag(cmd)
		},
	}

	rootCmd.PersistentFlags().String("project", "", "directory holding .sqlchunker/config.yml (default is the working directory)")
	rootCmd.PersistentFlags().String("db", "", "index database path (default ~/.sqlchunker/index.db)")
	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")

	rootCmd.AddCommand(
		newAnalyzeCmd(),
		newVerifyCmd(),
		newIndexCmd(),
		newSearchCmd(),
		newServeCmd(),
		newVersionCmd(),
	)

	return rootCmd
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("Error:"), err)
		os.Exit(1)
	}
}

func applyColorFlag(cmd *cobra.Command) error {
	mode, err := cmd.Flags().GetString("color")
	if err != nil {
		return fmt.Errorf("failed to get color flag: %w", err)
	}
	switch mode {
	case "on":
		color.NoColor = false
	case "off":
		color.NoColor = true
	case "auto":
	default:
		return fmt.Errorf("invalid --color value %q (auto|on|off)", mode)
	}
	return nil
}

// chunkingFlags adds the chunker overrides shared by analyze, verify and index.
func chunkingFlags(cmd *cobra.Command) {
	cmd.Flags().String("strategy", "", "chunking strategy (strict_logical|size_constrained|hybrid)")
	cmd.Flags().Int("target-size", 0, "preferred lines per sub-chunk")
	cmd.Flags().Int("min-size", 0, "sub-chunks shorter than this are not cut")
	cmd.Flags().Int("max-size", 0, "block size in lines above which a block is subdivided")
	cmd.Flags().Int("force-threshold", 0, "hybrid strategy: blocks above this size are always subdivided")
	cmd.Flags().Int("max-complexity", 0, "block complexity above which a block is subdivided")
	cmd.Flags().Int("max-depth", 0, "maximum subdivision recursion depth")
}

// flagKeys maps command-line flags to configuration keys.
var flagKeys = map[string]string{
	"strategy":        "chunking.strategy",
	"target-size":     "chunking.target_size",
	"min-size":        "chunking.min_size",
	"max-size":        "chunking.max_size",
	"force-threshold": "chunking.force_threshold",
	"max-complexity":  "chunking.max_complexity",
	"max-depth":       "chunking.max_depth",
	"include":         "paths.include",
	"ignore":          "paths.ignore",
	"workers":         "index.workers",
	"db":              "storage.db_path",
}

// loadConfig loads the layered configuration with the command's flags bound.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	projectDir, err := cmd.Flags().GetString("project")
	if err != nil {
		return nil, fmt.Errorf("failed to get project flag: %w", err)
	}
	if projectDir == "" {
		if projectDir, err = os.Getwd(); err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
	}

	var opts []config.Option
	for name, key := range flagKeys {
		if f := cmd.Flags().Lookup(name); f != nil {
			opts = append(opts, config.BindFlag(key, f))
		}
	}

	return config.NewLoader(projectDir, opts...).Load()
}

func verbose(cmd *cobra.Command) bool {
	v, _ := cmd.Flags().GetBool("verbose")
	return v
}
