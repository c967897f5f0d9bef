package db

func (db *DB) initSchema() error {
	schema := `
	-- Conversations table
	CREATE TABLE IF NOT EXISTS conversations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		conversation_id TEXT UNIQUE NOT NULL,
		title TEXT NOT NULL,
		inserted_at TEXT,
		updated_at TEXT,
		sort_time TEXT,
		message_count INTEGER DEFAULT 0,
		file TEXT,
		source_path TEXT,
		formatted_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_conversations_sort_time ON conversations(sort_time);

	-- Fragments table: one row per request/response block
	CREATE TABLE IF NOT EXISTS fragments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		conversation_id INTEGER NOT NULL,
		sequence INTEGER NOT NULL,
		turn INTEGER NOT NULL,
		role TEXT NOT NULL CHECK(role IN ('request', 'response')),
		content TEXT,
		inserted_at TEXT,
		FOREIGN KEY (conversation_id) REFERENCES conversations(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_fragments_conversation_id ON fragments(conversation_id);

	-- Import log table
	CREATE TABLE IF NOT EXISTS import_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		file_path TEXT NOT NULL,
		imported_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		conversations_imported INTEGER,
		fragments_imported INTEGER,
		status TEXT CHECK(status IN ('success', 'partial', 'failed')),
		error_message TEXT
	);

	-- Natural language search with porter stemming
	CREATE VIRTUAL TABLE IF NOT EXISTS fragments_fts USING fts5(
		content,
		content=fragments,
		content_rowid=id,
		tokenize='porter unicode61'
	);

	-- Triggers to keep FTS in sync
	CREATE TRIGGER IF NOT EXISTS fragments_ai AFTER INSERT ON fragments BEGIN
		INSERT INTO fragments_fts(rowid, content) VALUES (new.id, new.content);
	END;

	CREATE TRIGGER IF NOT EXISTS fragments_ad AFTER DELETE ON fragments BEGIN
		INSERT INTO fragments_fts(fragments_fts, rowid, content) VALUES ('delete', old.id, old.content);
	END;

	CREATE TRIGGER IF NOT EXISTS fragments_au AFTER UPDATE ON fragments BEGIN
		INSERT INTO fragments_fts(fragments_fts, rowid, content) VALUES ('delete', old.id, old.content);
		INSERT INTO fragments_fts(rowid, content) VALUES (new.id, new.content);
	END;
	`

	_, err := db.conn.Exec(schema)
	return err
}
