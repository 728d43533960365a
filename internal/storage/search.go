package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// ErrEmptyQuery is returned when a search query has no searchable terms
var ErrEmptyQuery = errors.New("empty search query")

// searchText performs BM25 full-text search over chunk content, titles and tables
func searchText(ctx context.Context, q querier, projectID int64, query string, limit int, filters *SearchFilters) ([]TextResult, error) {
	match := sanitizeFTSQuery(query)
	if match == "" {
		return nil, ErrEmptyQuery
	}

	sqlQuery := `
		SELECT c.id, bm25(chunks_fts) AS score
		FROM chunks_fts
		JOIN chunks c ON chunks_fts.rowid = c.id
		JOIN scripts s ON c.script_id = s.id
		WHERE chunks_fts MATCH ?
		AND s.project_id = ?
	`
	args := []interface{}{match, projectID}

	sqlQuery, args = applyTextFilters(sqlQuery, args, filters)

	// bm25() is negative; lower is better
	sqlQuery += " ORDER BY score, c.id LIMIT ?"
	args = append(args, limit)

	rows, err := q.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute FTS search: %w", err)
	}
	defer func() { _ = rows.Close() }()

	results := make([]TextResult, 0)
	for rows.Next() {
		var result TextResult
		if err := rows.Scan(&result.ChunkID, &result.BM25Score); err != nil {
			return nil, err
		}
		result.BM25Score = normalizeBM25(result.BM25Score)

		if filters != nil && filters.MinRelevance > 0 && result.BM25Score < filters.MinRelevance {
			continue
		}
		results = append(results, result)
	}

	return results, rows.Err()
}

// applyTextFilters adds WHERE clause filters for text search
func applyTextFilters(query string, args []interface{}, filters *SearchFilters) (string, []interface{}) {
	if filters == nil {
		return query, args
	}

	if len(filters.ChunkTypes) > 0 {
		query += " AND c.chunk_type IN (" + placeholders(len(filters.ChunkTypes)) + ")"
		for _, ct := range filters.ChunkTypes {
			args = append(args, ct)
		}
	}

	if filters.Table != "" {
		query += " AND EXISTS (SELECT 1 FROM json_each(c.tables) t WHERE lower(t.value) = lower(?))"
		args = append(args, filters.Table)
	}

	if filters.MinComplexity > 0 {
		query += " AND c.complexity >= ?"
		args = append(args, filters.MinComplexity)
	}

	if filters.FilePattern != "" {
		query += " AND s.file_path GLOB ?"
		args = append(args, filters.FilePattern)
	}

	return query, args
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

// normalizeBM25 maps a bm25() score onto [0, 1), higher meaning a better match
func normalizeBM25(score float64) float64 {
	s := -score
	if s <= 0 {
		return 0
	}
	return s / (s + 1)
}

// sanitizeFTSQuery turns free text into an FTS5 expression. Every term is
// quoted as a phrase so FTS5 operators and punctuation lose their meaning;
// terms are ORed and BM25 ranks chunks matching more of them higher.
func sanitizeFTSQuery(query string) string {
	var terms []string
	for _, field := range strings.Fields(query) {
		if strings.IndexFunc(field, isWordRune) < 0 {
			continue
		}
		terms = append(terms, `"`+strings.ReplaceAll(field, `"`, `""`)+`"`)
	}
	return strings.Join(terms, " OR ")
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
