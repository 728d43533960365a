// Package searcher implements keyword search over indexed SQL chunks.
//
// Queries run against the SQLite FTS5 index of chunk content, titles and
// table names and are ranked by BM25. Each term of the query is matched on
// its own, so chunks matching more terms rank higher.
//
// # Basic Usage
//
//	s := searcher.NewSearcher(store)
//
//	resp, err := s.Search(ctx, searcher.SearchRequest{
//	    ProjectID:  project.ID,
//	    Query:      "inventory reservation",
//	    ChunkTypes: []string{"loop", "cursor"},
//	    Table:      "dbo.Inventory",
//	    Limit:      10,
//	})
//
//	for _, r := range resp.Results {
//	    fmt.Printf("[%d] %s:%d-%d %s (score: %.2f)\n", r.Rank, r.Script.Path,
//	        r.Chunk.StartLine, r.Chunk.EndLine, r.Chunk.Title, r.RelevanceScore)
//	}
//
// # Filters
//
//   - ChunkTypes: keep chunks of any listed type
//   - Table: keep chunks that access the table (case-insensitive)
//   - MinComplexity: keep chunks at or above a complexity score
//   - FilePattern: SQLite GLOB over the script path
//   - MinRelevance: drop hits below a normalised score
//
// # Caching
//
// With UseCache set, non-empty responses are kept in an LRU of 1000 entries
// keyed by a SHA-256 of the request, for CacheTTL (default one hour).
// Cached responses are deep-copied in both directions. Call InvalidateCache
// after re-indexing.
package searcher
