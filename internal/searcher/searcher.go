package searcher

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/dshills/sqlchunker/internal/storage"
	"github.com/dshills/sqlchunker/pkg/types"
)

const (
	defaultLimit    = 10
	maxLimit        = 100
	defaultCacheTTL = time.Hour
	cacheSize       = 1000
)

// SearchRequest contains parameters for a search operation
type SearchRequest struct {
	ProjectID     int64
	Query         string
	Limit         int
	ChunkTypes    []string // Restrict to these chunk types
	Table         string   // Chunk must access this table
	MinComplexity int
	FilePattern   string  // Glob over script paths
	MinRelevance  float64 // Minimum normalised BM25 score
	UseCache      bool
	CacheTTL      time.Duration
}

// SearchResponse contains search results and metadata
type SearchResponse struct {
	Results      []types.SearchResult
	TotalResults int
	Duration     time.Duration
	CacheHit     bool
}

// cacheEntry represents a cached search response with expiration time
type cacheEntry struct {
	response  *SearchResponse
	expiresAt time.Time
}

// Searcher runs keyword searches over indexed chunks
type Searcher struct {
	storage storage.Storage
	cache   *lru.Cache[[32]byte, *cacheEntry]
	cacheMu sync.RWMutex
}

// NewSearcher creates a new Searcher instance
func NewSearcher(store storage.Storage) *Searcher {
	cache, err := lru.New[[32]byte, *cacheEntry](cacheSize)
	if err != nil {
		panic(fmt.Sprintf("failed to create LRU cache: %v", err))
	}

	return &Searcher{
		storage: store,
		cache:   cache,
	}
}

// Search performs a BM25 keyword search. Results are ordered by relevance
// and carry the stored chunk and its script.
func (s *Searcher) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	startTime := time.Now()

	if err := validateRequest(&req); err != nil {
		return nil, fmt.Errorf("invalid search request: %w", err)
	}

	if req.UseCache {
		if cached := s.checkCache(req); cached != nil {
			cached.CacheHit = true
			cached.Duration = time.Since(startTime)
			return cached, nil
		}
	}

	textResults, err := s.storage.SearchText(ctx, req.ProjectID, req.Query, req.Limit, filtersFor(req))
	if err != nil {
		return nil, err
	}

	results, err := s.fetchResults(ctx, textResults)
	if err != nil {
		return nil, err
	}

	response := &SearchResponse{
		Results:      results,
		TotalResults: len(results),
		Duration:     time.Since(startTime),
	}

	if req.UseCache && len(results) > 0 {
		s.storeInCache(req, response)
	}

	return response, nil
}

func filtersFor(req SearchRequest) *storage.SearchFilters {
	return &storage.SearchFilters{
		ChunkTypes:    req.ChunkTypes,
		Table:         req.Table,
		MinComplexity: req.MinComplexity,
		FilePattern:   req.FilePattern,
		MinRelevance:  req.MinRelevance,
	}
}

// fetchResults loads the chunk and script of each hit, in rank order
func (s *Searcher) fetchResults(ctx context.Context, hits []storage.TextResult) ([]types.SearchResult, error) {
	results := make([]types.SearchResult, 0, len(hits))
	scripts := make(map[int64]*storage.Script)

	for _, hit := range hits {
		chunk, err := s.storage.GetChunk(ctx, hit.ChunkID)
		if errors.Is(err, storage.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}

		script, ok := scripts[chunk.ScriptID]
		if !ok {
			script, err = s.storage.GetScriptByID(ctx, chunk.ScriptID)
			if err != nil {
				return nil, err
			}
			scripts[chunk.ScriptID] = script
		}

		c := chunk.Chunk
		results = append(results, types.SearchResult{
			ChunkID:        hit.ChunkID,
			Rank:           len(results) + 1,
			RelevanceScore: hit.BM25Score,
			Script: &types.ScriptInfo{
				Path:      script.FilePath,
				LineCount: script.LineCount,
			},
			Chunk: &c,
		})
	}

	return results, nil
}

// validateRequest checks the request and fills in defaults
func validateRequest(req *SearchRequest) error {
	if strings.TrimSpace(req.Query) == "" {
		return storage.ErrEmptyQuery
	}

	for _, ct := range req.ChunkTypes {
		if !types.ChunkType(ct).Valid() {
			return fmt.Errorf("%w: %q", types.ErrInvalidChunkType, ct)
		}
	}

	if req.MinComplexity < 0 {
		return types.ErrNegativeComplexity
	}

	if req.MinRelevance < 0 || req.MinRelevance > 1 {
		return types.ErrInvalidRelevanceScore
	}

	if req.Limit <= 0 {
		req.Limit = defaultLimit
	}
	if req.Limit > maxLimit {
		req.Limit = maxLimit
	}

	if req.CacheTTL == 0 {
		req.CacheTTL = defaultCacheTTL
	}

	return nil
}

// checkCache returns a copy of a live cached response, or nil
func (s *Searcher) checkCache(req SearchRequest) *SearchResponse {
	hash := computeQueryHash(req)
	now := time.Now()

	s.cacheMu.RLock()
	entry, found := s.cache.Get(hash)
	if !found {
		s.cacheMu.RUnlock()
		return nil
	}

	if now.After(entry.expiresAt) {
		s.cacheMu.RUnlock()

		s.cacheMu.Lock()
		s.cache.Remove(hash)
		s.cacheMu.Unlock()
		return nil
	}

	response := copySearchResponse(entry.response)
	s.cacheMu.RUnlock()

	return response
}

// storeInCache saves a copy of the response
func (s *Searcher) storeInCache(req SearchRequest, response *SearchResponse) {
	entry := &cacheEntry{
		response:  copySearchResponse(response),
		expiresAt: time.Now().Add(req.CacheTTL),
	}

	s.cacheMu.Lock()
	s.cache.Add(computeQueryHash(req), entry)
	s.cacheMu.Unlock()
}

// copySearchResponse creates a deep copy of a SearchResponse
func copySearchResponse(src *SearchResponse) *SearchResponse {
	if src == nil {
		return nil
	}

	dst := &SearchResponse{
		TotalResults: src.TotalResults,
		Duration:     src.Duration,
		CacheHit:     src.CacheHit,
		Results:      make([]types.SearchResult, len(src.Results)),
	}

	for i, result := range src.Results {
		dst.Results[i] = result
		if result.Script != nil {
			script := *result.Script
			dst.Results[i].Script = &script
		}
		if result.Chunk != nil {
			dst.Results[i].Chunk = copyChunk(result.Chunk)
		}
	}

	return dst
}

func copyChunk(src *types.Chunk) *types.Chunk {
	c := *src
	c.Operations = slices.Clone(src.Operations)
	c.DeclaredVariables = slices.Clone(src.DeclaredVariables)
	c.UsedVariables = slices.Clone(src.UsedVariables)
	c.Tables = slices.Clone(src.Tables)
	c.ControlKeywords = slices.Clone(src.ControlKeywords)
	c.BusinessFunctions = slices.Clone(src.BusinessFunctions)
	c.Dependencies = slices.Clone(src.Dependencies)
	if src.Subdivision != nil {
		sub := *src.Subdivision
		c.Subdivision = &sub
	}
	return &c
}

// computeQueryHash computes a unique hash for a search request
func computeQueryHash(req SearchRequest) [32]byte {
	chunkTypes := slices.Clone(req.ChunkTypes)
	slices.Sort(chunkTypes)

	var data strings.Builder
	fmt.Fprintf(&data, "%d|%s|%d", req.ProjectID, req.Query, req.Limit)
	fmt.Fprintf(&data, "|types:%s", strings.Join(chunkTypes, ","))
	fmt.Fprintf(&data, "|table:%s", strings.ToLower(req.Table))
	fmt.Fprintf(&data, "|complexity:%d", req.MinComplexity)
	fmt.Fprintf(&data, "|files:%s", req.FilePattern)
	fmt.Fprintf(&data, "|relevance:%.2f", req.MinRelevance)

	return sha256.Sum256([]byte(data.String()))
}

// InvalidateCache drops every cached response. It is called after a
// project is re-indexed; the LRU cannot be filtered by project, so the
// whole cache is purged.
func (s *Searcher) InvalidateCache() {
	s.cacheMu.Lock()
	s.cache.Purge()
	s.cacheMu.Unlock()
}

// CacheLen returns the number of cached responses
func (s *Searcher) CacheLen() int {
	s.cacheMu.RLock()
	defer s.cacheMu.RUnlock()
	return s.cache.Len()
}
