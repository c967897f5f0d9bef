package db

import (
	"database/sql"
	"time"
)

// Stats represents catalog statistics
type Stats struct {
	TotalConversations int
	TotalFragments     int
	Imports            int
	OldestConversation time.Time
	NewestConversation time.Time
	LastImport         time.Time
}

// GetStats returns catalog statistics
func (db *DB) GetStats() (*Stats, error) {
	stats := &Stats{}

	err := db.QueryRow("SELECT COUNT(*) FROM conversations").Scan(&stats.TotalConversations)
	if err != nil {
		return nil, err
	}

	err = db.QueryRow("SELECT COUNT(*) FROM fragments").Scan(&stats.TotalFragments)
	if err != nil {
		return nil, err
	}

	err = db.QueryRow("SELECT COUNT(*) FROM import_log").Scan(&stats.Imports)
	if err != nil {
		return nil, err
	}

	var oldest, newest, lastImport sql.NullString
	err = db.QueryRow("SELECT MIN(sort_time), MAX(sort_time) FROM conversations").Scan(&oldest, &newest)
	if err != nil {
		return nil, err
	}
	if oldest.Valid {
		stats.OldestConversation = parseTimestamp(oldest.String)
	}
	if newest.Valid {
		stats.NewestConversation = parseTimestamp(newest.String)
	}

	err = db.QueryRow("SELECT MAX(imported_at) FROM import_log").Scan(&lastImport)
	if err != nil {
		return nil, err
	}
	if lastImport.Valid {
		stats.LastImport = parseTimestamp(lastImport.String)
	}

	return stats, nil
}
