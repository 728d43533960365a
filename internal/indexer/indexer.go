package indexer

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"fortio.org/safecast"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/dshills/sqlchunker/internal/chunker"
	"github.com/dshills/sqlchunker/internal/storage"
)

// ErrIndexInProgress is returned when an indexing run is already active
var ErrIndexInProgress = errors.New("indexing already in progress")

// Indexer coordinates the indexing pipeline: discover -> chunk -> store
type Indexer struct {
	storage storage.Storage
	lock    IndexLock
}

// Config contains configuration for an indexing run
type Config struct {
	Workers   int      // Concurrent chunking workers (default: runtime.NumCPU())
	BatchSize int      // Scripts committed per transaction (default: 20)
	Include   []string // Glob patterns of scripts to index (default: DefaultInclude)
	Ignore    []string // Glob patterns excluded from indexing (default: DefaultIgnore)
	Chunking  chunker.Config
	Force     bool // Re-chunk scripts whose content has not changed
	Progress  ProgressReporter
}

// Statistics contains statistics about an indexing run
type Statistics struct {
	AnalysisID     string
	ScriptsFound   int
	ScriptsIndexed int
	ScriptsSkipped int
	ScriptsFailed  int
	ScriptsRemoved int
	ChunksCreated  int
	SubChunks      int
	Duration       time.Duration
	ErrorMessages  []string
}

// scriptResult is the outcome of chunking one discovered script
type scriptResult struct {
	relPath  string
	hash     [32]byte
	modTime  time.Time
	size     int64
	analysis *chunker.Result
	skipped  bool
	err      error
}

func (r *scriptResult) outcome() Outcome {
	switch {
	case r.err != nil:
		return OutcomeFailed
	case r.skipped:
		return OutcomeSkipped
	default:
		return OutcomeIndexed
	}
}

// New creates a new Indexer instance
func New(store storage.Storage) *Indexer {
	return &Indexer{storage: store}
}

func withDefaults(config *Config) Config {
	cfg := Config{Chunking: chunker.DefaultConfig()}
	if config != nil {
		cfg = *config
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 20
	}
	if cfg.Ignore == nil {
		cfg.Ignore = DefaultIgnore
	}
	if cfg.Progress == nil {
		cfg.Progress = NoOpProgressReporter{}
	}
	return cfg
}

// IndexProject chunks every matching script below rootPath and stores the
// results. Unchanged scripts are skipped, scripts that disappeared are
// removed. Per-script failures are collected in Statistics; only storage
// and discovery failures abort the run.
func (idx *Indexer) IndexProject(ctx context.Context, rootPath string, config *Config) (*Statistics, error) {
	cfg := withDefaults(config)
	startTime := time.Now()

	absRoot, err := filepath.Abs(rootPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", rootPath, err)
	}
	if !idx.lock.TryAcquire(absRoot) {
		return nil, ErrIndexInProgress
	}
	defer idx.lock.Release(absRoot)

	c, err := chunker.New(cfg.Chunking)
	if err != nil {
		return nil, err
	}

	matcher, err := NewMatcher(cfg.Include, cfg.Ignore)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", absRoot)
	}

	project, err := idx.getOrCreateProject(ctx, absRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to get or create project: %w", err)
	}

	paths, err := DiscoverScripts(absRoot, matcher)
	if err != nil {
		return nil, fmt.Errorf("failed to discover scripts: %w", err)
	}
	cfg.Progress.OnDiscoveryComplete(len(paths))

	stats := &Statistics{
		AnalysisID:    uuid.NewString(),
		ScriptsFound:  len(paths),
		ErrorMessages: make([]string, 0),
	}

	existing, err := idx.existingScripts(ctx, project.ID)
	if err != nil {
		return nil, err
	}

	results, err := idx.chunkScripts(ctx, absRoot, paths, existing, c, cfg)
	if err != nil {
		return nil, err
	}

	for start := 0; start < len(results); start += cfg.BatchSize {
		end := min(start+cfg.BatchSize, len(results))
		if err := idx.storeBatch(ctx, project, results[start:end], existing, string(c.Config().Strategy), stats); err != nil {
			return nil, err
		}
	}

	if err := idx.removeStale(ctx, paths, existing, stats); err != nil {
		return nil, err
	}

	if err := idx.updateProjectStats(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to update project stats: %w", err)
	}

	stats.Duration = time.Since(startTime)
	cfg.Progress.OnComplete(stats)
	return stats, nil
}

// Indexing reports whether rootPath is being indexed by this Indexer
func (idx *Indexer) Indexing(rootPath string) bool {
	absRoot, err := filepath.Abs(rootPath)
	if err != nil {
		return false
	}
	return idx.lock.Held(absRoot)
}

// Lock returns the per-root lock guarding IndexProject
func (idx *Indexer) Lock() *IndexLock {
	return &idx.lock
}

// getOrCreateProject retrieves an existing project or creates a new one
func (idx *Indexer) getOrCreateProject(ctx context.Context, rootPath string) (*storage.Project, error) {
	project, err := idx.storage.GetProject(ctx, rootPath)
	if err == nil {
		return project, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	project = &storage.Project{
		RootPath:     rootPath,
		IndexVersion: storage.CurrentSchemaVersion,
	}
	if err := idx.storage.CreateProject(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

func (idx *Indexer) existingScripts(ctx context.Context, projectID int64) (map[string]*storage.Script, error) {
	scripts, err := idx.storage.ListScripts(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list indexed scripts: %w", err)
	}
	byPath := make(map[string]*storage.Script, len(scripts))
	for _, s := range scripts {
		byPath[s.FilePath] = s
	}
	return byPath, nil
}

// chunkScripts hashes and chunks the scripts on a bounded worker pool.
// Results keep the order of paths.
func (idx *Indexer) chunkScripts(ctx context.Context, root string, paths []string,
	existing map[string]*storage.Script, c *chunker.Chunker, cfg Config) ([]*scriptResult, error) {

	workers, err := safecast.Conv[int64](cfg.Workers)
	if err != nil {
		return nil, fmt.Errorf("invalid worker count: %w", err)
	}
	sem := semaphore.NewWeighted(workers)

	results := make([]*scriptResult, len(paths))
	g, gctx := errgroup.WithContext(ctx)

	for i, relPath := range paths {
		if err := sem.Acquire(gctx, 1); err != nil {
			break
		}
		g.Go(func() error {
			defer sem.Release(1)
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = chunkScript(root, relPath, existing[relPath], c, cfg.Force)
			cfg.Progress.OnScriptProcessed(relPath, results[i].outcome())
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// chunkScript reads one script and chunks it unless its stored chunks are
// still current
func chunkScript(root, relPath string, prev *storage.Script, c *chunker.Chunker, force bool) *scriptResult {
	r := &scriptResult{relPath: relPath}
	path := filepath.Join(root, filepath.FromSlash(relPath))

	info, err := os.Stat(path)
	if err != nil {
		r.err = err
		return r
	}
	data, err := os.ReadFile(path)
	if err != nil {
		r.err = err
		return r
	}

	r.hash = sha256.Sum256(data)
	r.modTime = info.ModTime()
	r.size = info.Size()

	strategy := string(c.Config().Strategy)
	if !force && prev != nil && prev.ContentHash == r.hash && prev.Strategy == strategy {
		r.skipped = true
		return r
	}

	r.analysis = c.ChunkContent(string(data))
	if report := r.analysis.Coverage(); !report.Perfect() {
		r.err = fmt.Errorf("chunks do not cover the script: %d gaps, %d overlaps",
			len(report.Gaps), len(report.Overlaps))
	}
	return r
}

// storeBatch persists a batch of chunked scripts within one transaction
func (idx *Indexer) storeBatch(ctx context.Context, project *storage.Project, batch []*scriptResult,
	existing map[string]*storage.Script, strategy string, stats *Statistics) error {

	tx, err := idx.storage.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, r := range batch {
		if r == nil {
			continue
		}
		switch r.outcome() {
		case OutcomeSkipped:
			stats.ScriptsSkipped++
			continue
		case OutcomeFailed:
			stats.ScriptsFailed++
			stats.ErrorMessages = append(stats.ErrorMessages, fmt.Sprintf("%s: %v", r.relPath, r.err))
			continue
		}

		script := &storage.Script{
			ProjectID:   project.ID,
			FilePath:    r.relPath,
			ContentHash: r.hash,
			ModTime:     r.modTime,
			SizeBytes:   r.size,
			LineCount:   len(r.analysis.Lines),
			Strategy:    strategy,
			AnalysisID:  stats.AnalysisID,
		}
		if prev, ok := existing[r.relPath]; ok {
			script.ID = prev.ID
		}
		if err := tx.UpsertScript(ctx, script); err != nil {
			return err
		}
		if _, err := tx.ReplaceChunks(ctx, script.ID, r.analysis.Chunks); err != nil {
			return fmt.Errorf("failed to store chunks of %s: %w", r.relPath, err)
		}

		stats.ScriptsIndexed++
		stats.ChunksCreated += len(r.analysis.Chunks)
		for _, ch := range r.analysis.Chunks {
			if ch.IsSubChunk() {
				stats.SubChunks++
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// removeStale deletes stored scripts that are no longer discovered
func (idx *Indexer) removeStale(ctx context.Context, paths []string, existing map[string]*storage.Script, stats *Statistics) error {
	found := make(map[string]bool, len(paths))
	for _, p := range paths {
		found[p] = true
	}

	for path, script := range existing {
		if found[path] {
			continue
		}
		if err := idx.storage.DeleteScript(ctx, script.ID); err != nil {
			return fmt.Errorf("failed to remove %s: %w", path, err)
		}
		stats.ScriptsRemoved++
	}
	return nil
}

// updateProjectStats updates the project's script and chunk counts
func (idx *Indexer) updateProjectStats(ctx context.Context, project *storage.Project) error {
	status, err := idx.storage.GetStatus(ctx, project.ID)
	if err != nil {
		return err
	}

	project.ScriptCount = status.ScriptsCount
	project.ChunkCount = status.ChunksCount
	project.IndexVersion = storage.CurrentSchemaVersion
	project.LastIndexedAt = time.Now()

	return idx.storage.UpdateProject(ctx, project)
}
