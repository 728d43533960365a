package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/sqlchunker/internal/storage"
)

var (
	// Version information, set via ldflags at build time
	Version   = "dev"
	GitCommit = "none"
	BuildDate = "unknown"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version and build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "sqlchunker %s\n", Version)
			fmt.Fprintf(out, "Git commit: %s\n", GitCommit)
			fmt.Fprintf(out, "Build date: %s\n", BuildDate)
			fmt.Fprintf(out, "Build mode: %s\n", storage.BuildMode)
			fmt.Fprintf(out, "SQLite driver: %s\n", storage.DriverName)
			fmt.Fprintf(out, "Index schema: %s\n", storage.CurrentSchemaVersion)
		},
	}
}
