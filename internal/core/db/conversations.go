package db

import (
	"database/sql"
	"fmt"
	"time"
)

// sortTimeLayout sorts lexicographically in UTC
const sortTimeLayout = "2006-01-02 15:04:05"

// ConversationRecord is a formatted conversation as stored in the catalog
type ConversationRecord struct {
	ConversationID string
	Title          string
	InsertedAt     string
	UpdatedAt      string
	SortTime       time.Time // zero when the conversation is undated
	MessageCount   int
	File           string
	SourcePath     string
	Fragments      []FragmentRecord
}

// FragmentRecord is one request or response block
type FragmentRecord struct {
	Turn       int
	Role       string // "request" or "response"
	Content    string
	InsertedAt string
}

// Conversation is a row returned from ListConversations
type Conversation struct {
	ConversationID string
	Title          string
	MessageCount   int
	File           string
	SortTime       time.Time
	FormattedAt    time.Time
}

// UpsertConversation stores a conversation, replacing its fragments if it
// was catalogued before
func (db *DB) UpsertConversation(rec ConversationRecord) error {
	if rec.ConversationID == "" {
		return fmt.Errorf("conversation_id is required")
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var sortTime sql.NullString
	if !rec.SortTime.IsZero() {
		sortTime = sql.NullString{String: rec.SortTime.UTC().Format(sortTimeLayout), Valid: true}
	}

	_, err = tx.Exec(`
		INSERT INTO conversations (
			conversation_id, title, inserted_at, updated_at, sort_time,
			message_count, file, source_path, formatted_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(conversation_id) DO UPDATE SET
			title = excluded.title,
			inserted_at = excluded.inserted_at,
			updated_at = excluded.updated_at,
			sort_time = excluded.sort_time,
			message_count = excluded.message_count,
			file = excluded.file,
			source_path = excluded.source_path,
			formatted_at = CURRENT_TIMESTAMP
	`,
		rec.ConversationID,
		rec.Title,
		rec.InsertedAt,
		rec.UpdatedAt,
		sortTime,
		rec.MessageCount,
		rec.File,
		rec.SourcePath,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert conversation: %w", err)
	}

	var rowID int64
	err = tx.QueryRow("SELECT id FROM conversations WHERE conversation_id = ?", rec.ConversationID).Scan(&rowID)
	if err != nil {
		return fmt.Errorf("failed to look up conversation: %w", err)
	}

	if _, err := tx.Exec("DELETE FROM fragments WHERE conversation_id = ?", rowID); err != nil {
		return fmt.Errorf("failed to clear fragments: %w", err)
	}

	for i, frag := range rec.Fragments {
		_, err := tx.Exec(`
			INSERT INTO fragments (conversation_id, sequence, turn, role, content, inserted_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, rowID, i+1, frag.Turn, frag.Role, frag.Content, frag.InsertedAt)
		if err != nil {
			return fmt.Errorf("failed to insert fragment %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	return nil
}

// ListConversations returns catalogued conversations, newest first, with
// undated conversations last. A limit of 0 returns everything.
func (db *DB) ListConversations(limit int) ([]Conversation, error) {
	query := `
		SELECT conversation_id, title, message_count, COALESCE(file, ''),
			COALESCE(sort_time, ''), COALESCE(formatted_at, '')
		FROM conversations
		ORDER BY sort_time IS NULL, sort_time DESC, id ASC
	`
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var conversations []Conversation
	for rows.Next() {
		var c Conversation
		var sortTime, formattedAt string
		if err := rows.Scan(&c.ConversationID, &c.Title, &c.MessageCount, &c.File, &sortTime, &formattedAt); err != nil {
			return nil, fmt.Errorf("failed to scan conversation: %w", err)
		}
		c.SortTime = parseTimestamp(sortTime)
		c.FormattedAt = parseTimestamp(formattedAt)
		conversations = append(conversations, c)
	}

	return conversations, rows.Err()
}

// LogImport records one run over an export file
func (db *DB) LogImport(path string, conversations, fragments int, status, errMsg string) error {
	_, err := db.conn.Exec(`
		INSERT INTO import_log (file_path, conversations_imported, fragments_imported, status, error_message)
		VALUES (?, ?, ?, ?, ?)
	`, path, conversations, fragments, status, errMsg)
	if err != nil {
		return fmt.Errorf("failed to record import: %w", err)
	}
	return nil
}

// parseTimestamp attempts to parse timestamps from the layouts SQLite and
// the catalog write
func parseTimestamp(s string) time.Time {
	formats := []string{
		sortTimeLayout,
		time.RFC3339,
		time.RFC3339Nano,
	}

	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}

	return time.Time{}
}
