package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"fortio.org/safecast"

	"github.com/dshills/sqlchunker/pkg/types"
)

var (
	// ErrNotFound is returned when a requested entity doesn't exist
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when trying to create a duplicate entity
	ErrAlreadyExists = errors.New("already exists")
)

// SQLiteStorage implements the Storage interface using SQLite
type SQLiteStorage struct {
	db *sql.DB
}

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// A single connection serialises writers and keeps :memory: databases alive
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// NewSQLiteStorage opens (creating if needed) the database at dbPath and
// migrates it to CurrentSchemaVersion
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// BeginTx starts a new transaction
func (s *SQLiteStorage) BeginTx(ctx context.Context) (Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &sqliteTx{tx: tx, storage: s}, nil
}

// querier is an interface that both *sql.DB and *sql.Tx implement
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// rowScanner is implemented by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// sqliteTx wraps a SQL transaction
type sqliteTx struct {
	tx      *sql.Tx
	storage *SQLiteStorage
}

func (t *sqliteTx) Commit() error {
	return t.tx.Commit()
}

func (t *sqliteTx) Rollback() error {
	return t.tx.Rollback()
}

func (t *sqliteTx) querier() querier {
	return t.tx
}

func (s *SQLiteStorage) querier() querier {
	return s.db
}

// Project operations

func (s *SQLiteStorage) createProjectWithQuerier(ctx context.Context, q querier, project *Project) error {
	query := `
		INSERT INTO projects (root_path, index_version, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(root_path) DO NOTHING
	`
	now := time.Now()
	result, err := q.ExecContext(ctx, query, project.RootPath, project.IndexVersion, now, now)
	if err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}

	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("project %s: %w", project.RootPath, ErrAlreadyExists)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	project.ID = id
	project.CreatedAt = now
	project.UpdatedAt = now
	return nil
}

func (s *SQLiteStorage) CreateProject(ctx context.Context, project *Project) error {
	return s.createProjectWithQuerier(ctx, s.querier(), project)
}

const projectColumns = `id, root_path, script_count, chunk_count, index_version, last_indexed_at, created_at, updated_at`

func scanProject(row rowScanner) (*Project, error) {
	var project Project
	var lastIndexedAt sql.NullTime
	err := row.Scan(
		&project.ID, &project.RootPath, &project.ScriptCount, &project.ChunkCount,
		&project.IndexVersion, &lastIndexedAt, &project.CreatedAt, &project.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if lastIndexedAt.Valid {
		project.LastIndexedAt = lastIndexedAt.Time
	}
	return &project, nil
}

func (s *SQLiteStorage) getProjectWithQuerier(ctx context.Context, q querier, rootPath string) (*Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE root_path = ?`
	return scanProject(q.QueryRowContext(ctx, query, rootPath))
}

func (s *SQLiteStorage) GetProject(ctx context.Context, rootPath string) (*Project, error) {
	return s.getProjectWithQuerier(ctx, s.querier(), rootPath)
}

func (s *SQLiteStorage) getProjectByIDWithQuerier(ctx context.Context, q querier, projectID int64) (*Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = ?`
	return scanProject(q.QueryRowContext(ctx, query, projectID))
}

func (s *SQLiteStorage) updateProjectWithQuerier(ctx context.Context, q querier, project *Project) error {
	query := `
		UPDATE projects
		SET script_count = ?, chunk_count = ?, index_version = ?, last_indexed_at = ?, updated_at = ?
		WHERE id = ?
	`
	now := time.Now()
	result, err := q.ExecContext(ctx, query,
		project.ScriptCount, project.ChunkCount, project.IndexVersion,
		project.LastIndexedAt, now, project.ID)
	if err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("project %d: %w", project.ID, ErrNotFound)
	}
	project.UpdatedAt = now
	return nil
}

func (s *SQLiteStorage) UpdateProject(ctx context.Context, project *Project) error {
	return s.updateProjectWithQuerier(ctx, s.querier(), project)
}

// Script operations

func (s *SQLiteStorage) upsertScriptWithQuerier(ctx context.Context, q querier, script *Script) error {
	query := `
		INSERT INTO scripts (
			project_id, file_path, content_hash, mod_time, size_bytes, line_count,
			strategy, analysis_id, last_indexed_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(project_id, file_path) DO UPDATE SET
			content_hash = excluded.content_hash,
			mod_time = excluded.mod_time,
			size_bytes = excluded.size_bytes,
			line_count = excluded.line_count,
			strategy = excluded.strategy,
			analysis_id = excluded.analysis_id,
			last_indexed_at = excluded.last_indexed_at,
			updated_at = excluded.updated_at
		RETURNING id, created_at
	`
	now := time.Now()
	err := q.QueryRowContext(ctx, query,
		script.ProjectID, script.FilePath, script.ContentHash[:], script.ModTime,
		script.SizeBytes, script.LineCount, script.Strategy, script.AnalysisID,
		now, now, now).Scan(&script.ID, &script.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert script: %w", err)
	}

	script.LastIndexedAt = now
	script.UpdatedAt = now
	return nil
}

func (s *SQLiteStorage) UpsertScript(ctx context.Context, script *Script) error {
	return s.upsertScriptWithQuerier(ctx, s.querier(), script)
}

const scriptColumns = `id, project_id, file_path, content_hash, mod_time, size_bytes, line_count,
	strategy, analysis_id, last_indexed_at, created_at, updated_at`

func scanScript(row rowScanner) (*Script, error) {
	var script Script
	var hash []byte
	err := row.Scan(
		&script.ID, &script.ProjectID, &script.FilePath, &hash, &script.ModTime,
		&script.SizeBytes, &script.LineCount, &script.Strategy, &script.AnalysisID,
		&script.LastIndexedAt, &script.CreatedAt, &script.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	copy(script.ContentHash[:], hash)
	return &script, nil
}

func (s *SQLiteStorage) getScriptWithQuerier(ctx context.Context, q querier, projectID int64, filePath string) (*Script, error) {
	query := `SELECT ` + scriptColumns + ` FROM scripts WHERE project_id = ? AND file_path = ?`
	return scanScript(q.QueryRowContext(ctx, query, projectID, filePath))
}

func (s *SQLiteStorage) GetScript(ctx context.Context, projectID int64, filePath string) (*Script, error) {
	return s.getScriptWithQuerier(ctx, s.querier(), projectID, filePath)
}

func (s *SQLiteStorage) getScriptByIDWithQuerier(ctx context.Context, q querier, scriptID int64) (*Script, error) {
	query := `SELECT ` + scriptColumns + ` FROM scripts WHERE id = ?`
	return scanScript(q.QueryRowContext(ctx, query, scriptID))
}

func (s *SQLiteStorage) GetScriptByID(ctx context.Context, scriptID int64) (*Script, error) {
	return s.getScriptByIDWithQuerier(ctx, s.querier(), scriptID)
}

func (s *SQLiteStorage) listScriptsWithQuerier(ctx context.Context, q querier, projectID int64) ([]*Script, error) {
	query := `SELECT ` + scriptColumns + ` FROM scripts WHERE project_id = ? ORDER BY file_path`
	rows, err := q.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	scripts := make([]*Script, 0)
	for rows.Next() {
		script, err := scanScript(rows)
		if err != nil {
			return nil, err
		}
		scripts = append(scripts, script)
	}
	return scripts, rows.Err()
}

func (s *SQLiteStorage) ListScripts(ctx context.Context, projectID int64) ([]*Script, error) {
	return s.listScriptsWithQuerier(ctx, s.querier(), projectID)
}

// deleteScriptWithQuerier removes a script; its chunks and their
// dependencies follow through ON DELETE CASCADE
func (s *SQLiteStorage) deleteScriptWithQuerier(ctx context.Context, q querier, scriptID int64) error {
	_, err := q.ExecContext(ctx, `DELETE FROM scripts WHERE id = ?`, scriptID)
	return err
}

func (s *SQLiteStorage) DeleteScript(ctx context.Context, scriptID int64) error {
	return s.deleteScriptWithQuerier(ctx, s.querier(), scriptID)
}

// Chunk operations

// replaceChunksWithQuerier deletes the stored chunks of a script and inserts
// the new sequence with its dependency rows. It returns the new row IDs in
// chunk order.
func (s *SQLiteStorage) replaceChunksWithQuerier(ctx context.Context, q querier, scriptID int64, chunks []*types.Chunk) ([]int64, error) {
	if _, err := q.ExecContext(ctx, `DELETE FROM chunks WHERE script_id = ?`, scriptID); err != nil {
		return nil, fmt.Errorf("failed to delete chunks: %w", err)
	}

	query := `
		INSERT INTO chunks (
			script_id, chunk_number, title, chunk_type, start_line, end_line, complexity,
			content, content_hash, token_count, summary,
			operations, declared_vars, used_vars, tables, control_keywords, business_functions,
			parent_type, parent_start, parent_end, part_ordinal, part_total, subdivision_reason,
			continuation_from, continuation_to, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`
	now := time.Now()
	ids := make([]int64, 0, len(chunks))
	for _, c := range chunks {
		var parentType, reason sql.NullString
		var parentStart, parentEnd, ordinal, total sql.NullInt64
		if sub := c.Subdivision; sub != nil {
			parentType = sql.NullString{String: string(sub.ParentType), Valid: true}
			reason = sql.NullString{String: sub.Reason, Valid: true}
			parentStart = sql.NullInt64{Int64: int64(sub.ParentStart), Valid: true}
			parentEnd = sql.NullInt64{Int64: int64(sub.ParentEnd), Valid: true}
			ordinal = sql.NullInt64{Int64: int64(sub.Ordinal), Valid: true}
			total = sql.NullInt64{Int64: int64(sub.Total), Valid: true}
		}

		var id int64
		err := q.QueryRowContext(ctx, query,
			scriptID, c.ID, c.Title, string(c.ChunkType), c.StartLine, c.EndLine, c.Complexity,
			c.Content, c.ContentHash[:], c.TokenCount, c.Summary,
			encodeList(c.Operations), encodeList(c.DeclaredVariables), encodeList(c.UsedVariables),
			encodeList(c.Tables), encodeList(c.ControlKeywords), encodeList(c.BusinessFunctions),
			parentType, parentStart, parentEnd, ordinal, total, reason,
			c.ContinuationFrom, c.ContinuationTo, now,
		).Scan(&id)
		if err != nil {
			return nil, fmt.Errorf("failed to insert chunk %d: %w", c.ID, err)
		}

		for _, dep := range c.Dependencies {
			if _, err := q.ExecContext(ctx,
				`INSERT INTO chunk_dependencies (chunk_id, depends_on) VALUES (?, ?)`, id, dep); err != nil {
				return nil, fmt.Errorf("failed to insert dependency of chunk %d: %w", c.ID, err)
			}
		}
		ids = append(ids, id)
	}

	return ids, nil
}

// ReplaceChunks swaps the stored chunk sequence of a script atomically
func (s *SQLiteStorage) ReplaceChunks(ctx context.Context, scriptID int64, chunks []*types.Chunk) ([]int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	ids, err := s.replaceChunksWithQuerier(ctx, tx, scriptID, chunks)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit chunks: %w", err)
	}
	return ids, nil
}

const chunkColumns = `id, script_id, chunk_number, title, chunk_type, start_line, end_line, complexity,
	content, content_hash, token_count, summary,
	operations, declared_vars, used_vars, tables, control_keywords, business_functions,
	parent_type, parent_start, parent_end, part_ordinal, part_total, subdivision_reason,
	continuation_from, continuation_to, created_at`

func scanChunk(row rowScanner) (*Chunk, error) {
	var c Chunk
	var hash []byte
	var chunkType string
	var summary, parentType, reason sql.NullString
	var parentStart, parentEnd, ordinal, total sql.NullInt64
	var ops, declared, used, tables, control, business string

	err := row.Scan(
		&c.RowID, &c.ScriptID, &c.ID, &c.Title, &chunkType, &c.StartLine, &c.EndLine, &c.Complexity,
		&c.Content, &hash, &c.TokenCount, &summary,
		&ops, &declared, &used, &tables, &control, &business,
		&parentType, &parentStart, &parentEnd, &ordinal, &total, &reason,
		&c.ContinuationFrom, &c.ContinuationTo, &c.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	c.ChunkType = types.ChunkType(chunkType)
	c.Summary = summary.String
	copy(c.ContentHash[:], hash)

	for _, field := range []struct {
		raw string
		dst *[]string
	}{
		{ops, &c.Operations},
		{declared, &c.DeclaredVariables},
		{used, &c.UsedVariables},
		{tables, &c.Tables},
		{control, &c.ControlKeywords},
		{business, &c.BusinessFunctions},
	} {
		if *field.dst, err = decodeList(field.raw); err != nil {
			return nil, fmt.Errorf("chunk %d: %w", c.RowID, err)
		}
	}

	if parentType.Valid {
		c.Subdivision = &types.SubdivisionInfo{
			ParentType:  types.ChunkType(parentType.String),
			ParentStart: int(parentStart.Int64),
			ParentEnd:   int(parentEnd.Int64),
			Ordinal:     int(ordinal.Int64),
			Total:       int(total.Int64),
			Reason:      reason.String,
		}
	}

	return &c, nil
}

func (s *SQLiteStorage) getChunkWithQuerier(ctx context.Context, q querier, rowID int64) (*Chunk, error) {
	query := `SELECT ` + chunkColumns + ` FROM chunks WHERE id = ?`
	c, err := scanChunk(q.QueryRowContext(ctx, query, rowID))
	if err != nil {
		return nil, err
	}

	rows, err := q.QueryContext(ctx, `SELECT depends_on FROM chunk_dependencies WHERE chunk_id = ? ORDER BY depends_on`, rowID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var dep int
		if err := rows.Scan(&dep); err != nil {
			return nil, err
		}
		c.Dependencies = append(c.Dependencies, dep)
	}
	return c, rows.Err()
}

func (s *SQLiteStorage) GetChunk(ctx context.Context, rowID int64) (*Chunk, error) {
	return s.getChunkWithQuerier(ctx, s.querier(), rowID)
}

func (s *SQLiteStorage) listChunksByScriptWithQuerier(ctx context.Context, q querier, scriptID int64) ([]*Chunk, error) {
	query := `SELECT ` + chunkColumns + ` FROM chunks WHERE script_id = ? ORDER BY chunk_number`
	rows, err := q.QueryContext(ctx, query, scriptID)
	if err != nil {
		return nil, err
	}

	chunks := make([]*Chunk, 0)
	byRow := make(map[int64]*Chunk)
	for rows.Next() {
		c, err := scanChunk(rows)
		if err != nil {
			_ = rows.Close()
			return nil, err
		}
		chunks = append(chunks, c)
		byRow[c.RowID] = c
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	_ = rows.Close()

	deps, err := q.QueryContext(ctx, `
		SELECT d.chunk_id, d.depends_on
		FROM chunk_dependencies d
		JOIN chunks c ON d.chunk_id = c.id
		WHERE c.script_id = ?
		ORDER BY d.chunk_id, d.depends_on
	`, scriptID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = deps.Close() }()

	for deps.Next() {
		var rowID int64
		var dep int
		if err := deps.Scan(&rowID, &dep); err != nil {
			return nil, err
		}
		if c, ok := byRow[rowID]; ok {
			c.Dependencies = append(c.Dependencies, dep)
		}
	}
	return chunks, deps.Err()
}

func (s *SQLiteStorage) ListChunksByScript(ctx context.Context, scriptID int64) ([]*Chunk, error) {
	return s.listChunksByScriptWithQuerier(ctx, s.querier(), scriptID)
}

// Search operations

func (s *SQLiteStorage) SearchText(ctx context.Context, projectID int64, query string, limit int, filters *SearchFilters) ([]TextResult, error) {
	return searchText(ctx, s.querier(), projectID, query, limit, filters)
}

// Status operations

func (s *SQLiteStorage) getStatusWithQuerier(ctx context.Context, q querier, projectID int64) (*ProjectStatus, error) {
	project, err := s.getProjectByIDWithQuerier(ctx, q, projectID)
	if err != nil {
		return nil, err
	}

	status := &ProjectStatus{
		Project:       project,
		LastIndexedAt: project.LastIndexedAt,
		ChunkTypes:    make(map[string]int),
	}

	var scripts, chunks, subChunks, complexity int64
	err = q.QueryRowContext(ctx, "SELECT COUNT(*) FROM scripts WHERE project_id = ?", projectID).Scan(&scripts)
	if err != nil {
		return nil, err
	}

	err = q.QueryRowContext(ctx, `
		SELECT COUNT(*), COUNT(c.part_total), COALESCE(SUM(c.complexity), 0)
		FROM chunks c
		JOIN scripts s ON c.script_id = s.id
		WHERE s.project_id = ?
	`, projectID).Scan(&chunks, &subChunks, &complexity)
	if err != nil {
		return nil, err
	}

	for dst, v := range map[*int]int64{
		&status.ScriptsCount:    scripts,
		&status.ChunksCount:     chunks,
		&status.SubChunksCount:  subChunks,
		&status.TotalComplexity: complexity,
	} {
		if *dst, err = safecast.Conv[int](v); err != nil {
			return nil, fmt.Errorf("status count out of range: %w", err)
		}
	}

	rows, err := q.QueryContext(ctx, `
		SELECT c.chunk_type, COUNT(*)
		FROM chunks c
		JOIN scripts s ON c.script_id = s.id
		WHERE s.project_id = ?
		GROUP BY c.chunk_type
	`, projectID)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var chunkType string
		var n int
		if err := rows.Scan(&chunkType, &n); err != nil {
			_ = rows.Close()
			return nil, err
		}
		status.ChunkTypes[chunkType] = n
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	_ = rows.Close()

	var pageCount, pageSize int64
	if err := q.QueryRowContext(ctx, "PRAGMA page_count").Scan(&pageCount); err == nil {
		_ = q.QueryRowContext(ctx, "PRAGMA page_size").Scan(&pageSize)
		status.IndexSizeMB = float64(pageCount*pageSize) / (1024 * 1024)
	}

	status.Health = HealthStatus{DatabaseAccessible: true}
	if v, err := schemaVersion(ctx, q); err == nil {
		status.Health.SchemaVersion = v.String()
	}
	var ftsName string
	err = q.QueryRowContext(ctx, "SELECT name FROM sqlite_master WHERE type='table' AND name='chunks_fts'").Scan(&ftsName)
	status.Health.FTSIndexesBuilt = err == nil

	return status, nil
}

func (s *SQLiteStorage) GetStatus(ctx context.Context, projectID int64) (*ProjectStatus, error) {
	return s.getStatusWithQuerier(ctx, s.querier(), projectID)
}

func encodeList(values []string) string {
	if len(values) == 0 {
		return "[]"
	}
	data, err := json.Marshal(values)
	if err != nil {
		return "[]"
	}
	return string(data)
}

func decodeList(raw string) ([]string, error) {
	if raw == "" || raw == "[]" {
		return nil, nil
	}
	var values []string
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil, fmt.Errorf("failed to decode list column: %w", err)
	}
	return values, nil
}

// Transaction implementations route every operation through the open transaction

func (t *sqliteTx) CreateProject(ctx context.Context, project *Project) error {
	return t.storage.createProjectWithQuerier(ctx, t.querier(), project)
}

func (t *sqliteTx) GetProject(ctx context.Context, rootPath string) (*Project, error) {
	return t.storage.getProjectWithQuerier(ctx, t.querier(), rootPath)
}

func (t *sqliteTx) UpdateProject(ctx context.Context, project *Project) error {
	return t.storage.updateProjectWithQuerier(ctx, t.querier(), project)
}

func (t *sqliteTx) UpsertScript(ctx context.Context, script *Script) error {
	return t.storage.upsertScriptWithQuerier(ctx, t.querier(), script)
}

func (t *sqliteTx) GetScript(ctx context.Context, projectID int64, filePath string) (*Script, error) {
	return t.storage.getScriptWithQuerier(ctx, t.querier(), projectID, filePath)
}

func (t *sqliteTx) GetScriptByID(ctx context.Context, scriptID int64) (*Script, error) {
	return t.storage.getScriptByIDWithQuerier(ctx, t.querier(), scriptID)
}

func (t *sqliteTx) ListScripts(ctx context.Context, projectID int64) ([]*Script, error) {
	return t.storage.listScriptsWithQuerier(ctx, t.querier(), projectID)
}

func (t *sqliteTx) DeleteScript(ctx context.Context, scriptID int64) error {
	return t.storage.deleteScriptWithQuerier(ctx, t.querier(), scriptID)
}

func (t *sqliteTx) ReplaceChunks(ctx context.Context, scriptID int64, chunks []*types.Chunk) ([]int64, error) {
	return t.storage.replaceChunksWithQuerier(ctx, t.querier(), scriptID, chunks)
}

func (t *sqliteTx) GetChunk(ctx context.Context, rowID int64) (*Chunk, error) {
	return t.storage.getChunkWithQuerier(ctx, t.querier(), rowID)
}

func (t *sqliteTx) ListChunksByScript(ctx context.Context, scriptID int64) ([]*Chunk, error) {
	return t.storage.listChunksByScriptWithQuerier(ctx, t.querier(), scriptID)
}

func (t *sqliteTx) SearchText(ctx context.Context, projectID int64, query string, limit int, filters *SearchFilters) ([]TextResult, error) {
	return searchText(ctx, t.querier(), projectID, query, limit, filters)
}

func (t *sqliteTx) GetStatus(ctx context.Context, projectID int64) (*ProjectStatus, error) {
	return t.storage.getStatusWithQuerier(ctx, t.querier(), projectID)
}

func (t *sqliteTx) Close() error {
	return t.Rollback()
}

func (t *sqliteTx) BeginTx(ctx context.Context) (Tx, error) {
	return nil, errors.New("nested transactions are not supported")
}
