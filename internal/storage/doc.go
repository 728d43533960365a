// Package storage provides SQLite-based persistence for indexed SQL scripts.
//
// The storage layer manages:
//   - Project metadata (root directory, script and chunk counts)
//   - Script paths, SHA-256 content hashes and the run that chunked them
//   - Chunk sequences with their classification, facts and subdivision info
//   - Chunk dependencies
//   - An FTS5 full-text index over chunk content, titles and tables
//
// # Database Schema
//
// Tables:
//   - schema_version: Applied migrations (semantic versions)
//   - projects: Indexed directories
//   - scripts: One row per .sql file
//   - chunks: One row per chunk; set-valued facts are JSON arrays
//   - chunk_dependencies: Chunk number pairs within a script
//   - chunks_fts: FTS5 index kept in sync by triggers
//
// # Basic Usage
//
//	store, err := storage.NewSQLiteStorage("~/.sqlchunker/index.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
//	script := &storage.Script{ProjectID: project.ID, FilePath: "procs/order.sql", ContentHash: hash}
//	if err := store.UpsertScript(ctx, script); err != nil {
//	    return err
//	}
//	ids, err := store.ReplaceChunks(ctx, script.ID, chunks)
//
// # Transactions
//
// Use transactions to persist a batch of scripts atomically:
//
//	tx, err := store.BeginTx(ctx)
//	if err != nil {
//	    return err
//	}
//	defer tx.Rollback()
//
//	_ = tx.UpsertScript(ctx, script)
//	_, _ = tx.ReplaceChunks(ctx, script.ID, chunks)
//	return tx.Commit()
//
// # Drivers
//
// The default build uses modernc.org/sqlite. Building with -tags sqlite_cgo
// switches to github.com/mattn/go-sqlite3.
package storage
