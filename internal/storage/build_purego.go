//go:build !sqlite_cgo

package storage

// Default build. Uses the pure Go SQLite translation, which ships FTS5 and
// JSON1 and needs no C compiler:
//
//	CGO_ENABLED=0 go build ./...
//
// Driver used: modernc.org/sqlite

import (
	_ "modernc.org/sqlite"
)

const (
	// DriverName is the SQLite driver to use
	DriverName = "sqlite"

	// BuildMode describes the current build configuration
	BuildMode = "purego"
)
