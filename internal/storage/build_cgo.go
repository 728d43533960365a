//go:build sqlite_cgo

package storage

// Compiled with the sqlite_cgo tag. Uses the C SQLite library, which needs
// the fts5 tag for the chunks_fts index:
//
//	CGO_ENABLED=1 go build -tags "sqlite_cgo,sqlite_fts5" ./...
//
// Driver used: github.com/mattn/go-sqlite3

import (
	_ "github.com/mattn/go-sqlite3"
)

const (
	// DriverName is the SQLite driver to use
	DriverName = "sqlite3"

	// BuildMode describes the current build configuration
	BuildMode = "cgo"
)
