package search

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/neilberkman/chatfmt/internal/core/db"
)

// DefaultLimit caps the number of results returned by Search
const DefaultLimit = 100

// Result represents a single search hit
type Result struct {
	ConversationID string
	Title          string
	File           string
	Turn           int
	Role           string
	Snippet        string
	SortTime       string
}

// Default sort order for search results (most recent conversation first)
const defaultOrderBy = "c.sort_time IS NULL, c.sort_time DESC, f.sequence ASC"

// Search performs a full-text search over catalogued fragments
func Search(database *db.DB, query string, limit int) ([]Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("search query cannot be empty")
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	// FTS5 query syntax chokes on these; use LIKE for exact substring matching
	hasSpecialChars := strings.ContainsAny(query, "-_@#$%&:\"*()")

	var rows *sql.Rows
	var err error

	if hasSpecialChars {
		rows, err = database.Query(fmt.Sprintf(`
			SELECT
				c.conversation_id,
				c.title,
				COALESCE(c.file, ''),
				f.turn,
				f.role,
				f.content,
				COALESCE(c.sort_time, '')
			FROM fragments f
			JOIN conversations c ON c.id = f.conversation_id
			WHERE f.content LIKE '%%' || ? || '%%' ESCAPE '\'
			ORDER BY %s
			LIMIT ?
		`, defaultOrderBy), escapeLike(query), limit)
	} else {
		rows, err = database.Query(fmt.Sprintf(`
			SELECT
				c.conversation_id,
				c.title,
				COALESCE(c.file, ''),
				f.turn,
				f.role,
				snippet(fragments_fts, -1, '', '', '...', 32) as snippet,
				COALESCE(c.sort_time, '')
			FROM fragments_fts
			JOIN fragments f ON fragments_fts.rowid = f.id
			JOIN conversations c ON c.id = f.conversation_id
			WHERE fragments_fts MATCH ?
			ORDER BY %s
			LIMIT ?
		`, defaultOrderBy), query, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("search query failed: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []Result
	for rows.Next() {
		var r Result
		if err := rows.Scan(
			&r.ConversationID,
			&r.Title,
			&r.File,
			&r.Turn,
			&r.Role,
			&r.Snippet,
			&r.SortTime,
		); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		if hasSpecialChars {
			r.Snippet = excerpt(r.Snippet, query, 80)
		}
		results = append(results, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating results: %w", err)
	}

	return results, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes LIKE wildcards in a query match literally
func escapeLike(query string) string {
	return likeEscaper.Replace(query)
}

// excerpt trims text to a window around the first match
func excerpt(text, query string, width int) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= width {
		return text
	}

	idx := strings.Index(strings.ToLower(text), strings.ToLower(query))
	if idx < 0 {
		return string(runes[:width]) + "..."
	}

	center := len([]rune(text[:idx]))
	start := center - width/2
	if start < 0 {
		start = 0
	}
	end := start + width
	if end > len(runes) {
		end = len(runes)
		start = end - width
	}

	out := string(runes[start:end])
	if start > 0 {
		out = "..." + out
	}
	if end < len(runes) {
		out += "..."
	}
	return out
}
