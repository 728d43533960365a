package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// CurrentSchemaVersion is the version reached after all migrations
const CurrentSchemaVersion = "1.1.0"

// Migration represents a database schema migration
type Migration struct {
	Version string
	Up      string
	Down    string
}

// AllMigrations contains all database migrations in ascending version order
var AllMigrations = []Migration{
	{
		Version: "1.0.0",
		Up:      migrationV1Up,
		Down:    migrationV1Down,
	},
	{
		Version: "1.1.0",
		Up:      migrationV11Up,
		Down:    migrationV11Down,
	},
}

const migrationV1Up = `
-- Schema version tracking
CREATE TABLE IF NOT EXISTS schema_version (
    version TEXT PRIMARY KEY,
    applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

-- Projects table
CREATE TABLE IF NOT EXISTS projects (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    root_path TEXT NOT NULL UNIQUE,
    script_count INTEGER DEFAULT 0,
    chunk_count INTEGER DEFAULT 0,
    index_version TEXT NOT NULL,
    last_indexed_at TIMESTAMP,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

-- Scripts table
CREATE TABLE IF NOT EXISTS scripts (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    project_id INTEGER NOT NULL,
    file_path TEXT NOT NULL,
    content_hash BLOB NOT NULL,
    mod_time TIMESTAMP,
    size_bytes INTEGER,
    line_count INTEGER DEFAULT 0,
    strategy TEXT NOT NULL,
    analysis_id TEXT NOT NULL,
    last_indexed_at TIMESTAMP,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY (project_id) REFERENCES projects(id) ON DELETE CASCADE,
    UNIQUE(project_id, file_path)
);

CREATE INDEX IF NOT EXISTS idx_scripts_project ON scripts(project_id);
CREATE INDEX IF NOT EXISTS idx_scripts_hash ON scripts(content_hash);

-- Chunks table; set-valued columns hold JSON arrays
CREATE TABLE IF NOT EXISTS chunks (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    script_id INTEGER NOT NULL,
    chunk_number INTEGER NOT NULL,
    title TEXT NOT NULL,
    chunk_type TEXT NOT NULL,
    start_line INTEGER NOT NULL,
    end_line INTEGER NOT NULL,
    complexity INTEGER NOT NULL DEFAULT 0,
    content TEXT NOT NULL,
    content_hash BLOB NOT NULL,
    token_count INTEGER,
    summary TEXT,
    operations TEXT NOT NULL DEFAULT '[]',
    declared_vars TEXT NOT NULL DEFAULT '[]',
    used_vars TEXT NOT NULL DEFAULT '[]',
    tables TEXT NOT NULL DEFAULT '[]',
    control_keywords TEXT NOT NULL DEFAULT '[]',
    business_functions TEXT NOT NULL DEFAULT '[]',
    parent_type TEXT,
    parent_start INTEGER,
    parent_end INTEGER,
    part_ordinal INTEGER,
    part_total INTEGER,
    subdivision_reason TEXT,
    continuation_from INTEGER DEFAULT 0,
    continuation_to INTEGER DEFAULT 0,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY (script_id) REFERENCES scripts(id) ON DELETE CASCADE,
    UNIQUE(script_id, chunk_number)
);

CREATE INDEX IF NOT EXISTS idx_chunks_script ON chunks(script_id);
CREATE INDEX IF NOT EXISTS idx_chunks_type ON chunks(chunk_type);
CREATE INDEX IF NOT EXISTS idx_chunks_complexity ON chunks(complexity);

-- Dependencies between chunks of the same script, by chunk number
CREATE TABLE IF NOT EXISTS chunk_dependencies (
    chunk_id INTEGER NOT NULL,
    depends_on INTEGER NOT NULL,
    PRIMARY KEY (chunk_id, depends_on),
    FOREIGN KEY (chunk_id) REFERENCES chunks(id) ON DELETE CASCADE
);

-- Full-text search on chunks
CREATE VIRTUAL TABLE IF NOT EXISTS chunks_fts USING fts5(
    content, title, tables,
    content='chunks',
    content_rowid='id'
);

-- Triggers to keep FTS in sync
CREATE TRIGGER IF NOT EXISTS chunks_ai AFTER INSERT ON chunks BEGIN
    INSERT INTO chunks_fts(rowid, content, title, tables)
    VALUES (new.id, new.content, new.title, new.tables);
END;

CREATE TRIGGER IF NOT EXISTS chunks_ad AFTER DELETE ON chunks BEGIN
    INSERT INTO chunks_fts(chunks_fts, rowid, content, title, tables)
    VALUES ('delete', old.id, old.content, old.title, old.tables);
END;

CREATE TRIGGER IF NOT EXISTS chunks_au AFTER UPDATE ON chunks BEGIN
    INSERT INTO chunks_fts(chunks_fts, rowid, content, title, tables)
    VALUES ('delete', old.id, old.content, old.title, old.tables);
    INSERT INTO chunks_fts(rowid, content, title, tables)
    VALUES (new.id, new.content, new.title, new.tables);
END;
`

const migrationV1Down = `
DROP TRIGGER IF EXISTS chunks_au;
DROP TRIGGER IF EXISTS chunks_ad;
DROP TRIGGER IF EXISTS chunks_ai;

DROP TABLE IF EXISTS chunks_fts;
DROP TABLE IF EXISTS chunk_dependencies;
DROP TABLE IF EXISTS chunks;
DROP TABLE IF EXISTS scripts;
DROP TABLE IF EXISTS projects;
DROP TABLE IF EXISTS schema_version;
`

// 1.1.0 indexes the lookups made by search filters and status queries
const migrationV11Up = `
CREATE INDEX IF NOT EXISTS idx_scripts_analysis ON scripts(analysis_id);
CREATE INDEX IF NOT EXISTS idx_chunk_dependencies_target ON chunk_dependencies(depends_on);
`

const migrationV11Down = `
DROP INDEX IF EXISTS idx_chunk_dependencies_target;
DROP INDEX IF EXISTS idx_scripts_analysis;
`

// SchemaVersion returns the most recently applied migration version, or
// 0.0.0 for an empty database
func SchemaVersion(ctx context.Context, db *sql.DB) (*semver.Version, error) {
	return schemaVersion(ctx, db)
}

func schemaVersion(ctx context.Context, q querier) (*semver.Version, error) {
	var tableName string
	err := q.QueryRowContext(ctx, "SELECT name FROM sqlite_master WHERE type='table' AND name='schema_version'").Scan(&tableName)
	if errors.Is(err, sql.ErrNoRows) {
		return semver.MustParse("0.0.0"), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to check schema_version table: %w", err)
	}

	rows, err := q.QueryContext(ctx, "SELECT version FROM schema_version")
	if err != nil {
		return nil, fmt.Errorf("failed to read schema_version: %w", err)
	}
	defer func() { _ = rows.Close() }()

	latest := semver.MustParse("0.0.0")
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		v, err := semver.NewVersion(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid schema version %s: %w", raw, err)
		}
		if v.GreaterThan(latest) {
			latest = v
		}
	}
	return latest, rows.Err()
}

// ApplyMigrations runs every migration newer than the current schema version.
// Each migration and its version record are applied in one transaction.
func ApplyMigrations(ctx context.Context, db *sql.DB) error {
	current, err := SchemaVersion(ctx, db)
	if err != nil {
		return err
	}

	for _, migration := range AllMigrations {
		version, err := semver.NewVersion(migration.Version)
		if err != nil {
			return fmt.Errorf("invalid migration version %s: %w", migration.Version, err)
		}
		if !current.LessThan(version) {
			continue
		}

		if err := runMigration(ctx, db, migration.Up, "INSERT INTO schema_version (version) VALUES (?)", migration.Version); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", migration.Version, err)
		}
		current = version
	}

	return nil
}

// RollbackMigration reverts the most recently applied migration
func RollbackMigration(ctx context.Context, db *sql.DB) error {
	current, err := SchemaVersion(ctx, db)
	if err != nil {
		return err
	}

	for i := len(AllMigrations) - 1; i >= 0; i-- {
		m := AllMigrations[i]
		if !semver.MustParse(m.Version).Equal(current) {
			continue
		}
		// The first migration drops schema_version itself, so there is no record left to delete
		record := "DELETE FROM schema_version WHERE version = ?"
		if i == 0 {
			record = ""
		}
		if err := runMigration(ctx, db, m.Down, record, m.Version); err != nil {
			return fmt.Errorf("failed to rollback migration %s: %w", m.Version, err)
		}
		return nil
	}

	return fmt.Errorf("no migration to roll back from version %s", current)
}

func runMigration(ctx context.Context, db *sql.DB, script, record, version string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, script); err != nil {
		return err
	}
	if record != "" {
		if _, err := tx.ExecContext(ctx, record, version); err != nil {
			return err
		}
	}
	return tx.Commit()
}
