// Package indexer keeps a SQLite index of the chunked SQL scripts below a
// project root.
//
// # Basic Usage
//
//	store, _ := storage.NewSQLiteStorage("~/.sqlchunker/index.db")
//	idx := indexer.New(store)
//
//	stats, err := idx.IndexProject(ctx, "/path/to/scripts", &indexer.Config{
//	    Include: []string{"**/*.sql"},
//	    Ignore:  []string{"**/archive/**"},
//	})
//
//	fmt.Printf("Indexed %d scripts in %v\n", stats.ScriptsIndexed, stats.Duration)
//
// # Pipeline
//
//  1. Discovery: walk the root, keep paths matching an include glob and no
//     ignore glob; hidden directories are skipped
//  2. Incremental decision: compare the SHA-256 of each script with the
//     stored hash and skip unchanged scripts chunked with the same strategy
//  3. Chunking: changed scripts are chunked on a worker pool bounded by a
//     weighted semaphore (default NumCPU workers)
//  4. Store: chunk sequences replace the stored ones in batched
//     transactions; scripts that disappeared are deleted
//
// Every run gets a UUID analysis ID that is stored with the scripts it
// wrote.
//
// # Error Handling
//
// Unreadable scripts do not stop a run; they are counted in
// Statistics.ScriptsFailed and described in Statistics.ErrorMessages, and
// their previously stored chunks are kept. Storage failures abort the run.
//
// A second IndexProject call on a root that is already being indexed
// returns ErrIndexInProgress.
package indexer
