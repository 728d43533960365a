package main

import (
	"log"
	"os"

	"github.com/dshills/sqlchunker/internal/cli"
)

var (
	version   = "dev"
	gitCommit = "none"
	buildTime = "unknown"
)

func main() {
	// stdout carries reports and the MCP protocol
	log.SetOutput(os.Stderr)

	cli.Version = version
	cli.GitCommit = gitCommit
	cli.BuildDate = buildTime
	cli.Execute()
}
