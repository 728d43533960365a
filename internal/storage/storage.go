package storage

import (
	"context"
	"time"

	"github.com/dshills/sqlchunker/pkg/types"
)

// Storage defines the interface for persisting and querying indexed scripts
type Storage interface {
	// Project operations
	CreateProject(ctx context.Context, project *Project) error
	GetProject(ctx context.Context, rootPath string) (*Project, error)
	UpdateProject(ctx context.Context, project *Project) error

	// Script operations
	UpsertScript(ctx context.Context, script *Script) error
	GetScript(ctx context.Context, projectID int64, filePath string) (*Script, error)
	GetScriptByID(ctx context.Context, scriptID int64) (*Script, error)
	ListScripts(ctx context.Context, projectID int64) ([]*Script, error)
	DeleteScript(ctx context.Context, scriptID int64) error

	// Chunk operations
	ReplaceChunks(ctx context.Context, scriptID int64, chunks []*types.Chunk) ([]int64, error)
	GetChunk(ctx context.Context, rowID int64) (*Chunk, error)
	ListChunksByScript(ctx context.Context, scriptID int64) ([]*Chunk, error)

	// Search operations
	SearchText(ctx context.Context, projectID int64, query string, limit int, filters *SearchFilters) ([]TextResult, error)

	// Status operations
	GetStatus(ctx context.Context, projectID int64) (*ProjectStatus, error)

	// Database operations
	Close() error
	BeginTx(ctx context.Context) (Tx, error)
}

// Tx represents a database transaction
type Tx interface {
	Commit() error
	Rollback() error
	Storage
}

// Project represents an indexed directory of SQL scripts
type Project struct {
	ID            int64
	RootPath      string
	ScriptCount   int
	ChunkCount    int
	IndexVersion  string
	LastIndexedAt time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Script represents a tracked SQL script and the run that last chunked it
type Script struct {
	ID            int64
	ProjectID     int64
	FilePath      string // Relative to project root
	ContentHash   [32]byte
	ModTime       time.Time
	SizeBytes     int64
	LineCount     int
	Strategy      string
	AnalysisID    string // Indexing run that produced the stored chunks
	LastIndexedAt time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Chunk is a stored chunk row. The embedded types.Chunk keeps its dense
// per-script ID; RowID is the database key.
type Chunk struct {
	RowID    int64
	ScriptID int64
	types.Chunk
	CreatedAt time.Time
}

// SearchFilters narrows keyword search results
type SearchFilters struct {
	ChunkTypes    []string // Match any of these chunk types
	Table         string   // Chunk must reference this table (case-insensitive)
	MinComplexity int
	FilePattern   string  // SQLite GLOB over the script path
	MinRelevance  float64 // Minimum normalised score
}

// TextResult represents a result from full-text search
type TextResult struct {
	ChunkID   int64
	BM25Score float64 // Normalised to (0, 1], higher is better
}

// ProjectStatus contains statistics about an indexed project
type ProjectStatus struct {
	Project         *Project
	ScriptsCount    int
	ChunksCount     int
	SubChunksCount  int
	TotalComplexity int
	ChunkTypes      map[string]int
	IndexSizeMB     float64
	LastIndexedAt   time.Time
	Health          HealthStatus
}

// HealthStatus represents the health of the index
type HealthStatus struct {
	DatabaseAccessible bool
	FTSIndexesBuilt    bool
	SchemaVersion      string
}
