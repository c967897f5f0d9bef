package db

import (
	"os"
	"testing"
	"time"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()

	tmpfile, err := os.CreateTemp("", "test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Remove(tmpfile.Name()) })
	_ = tmpfile.Close()

	database, err := New(tmpfile.Name())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })

	return database
}

func TestNew(t *testing.T) {
	database := newTestDB(t)

	// Verify schema initialized
	var count int
	err := database.conn.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table'").Scan(&count)
	if err != nil {
		t.Fatalf("Failed to query schema: %v", err)
	}

	// Should have: conversations, fragments, import_log, fragments_fts (+ shadow tables)
	if count < 4 {
		t.Errorf("Expected at least 4 tables, got %d", count)
	}
}

func TestNew_WALMode(t *testing.T) {
	database := newTestDB(t)

	var journalMode string
	err := database.conn.QueryRow("PRAGMA journal_mode").Scan(&journalMode)
	if err != nil {
		t.Fatalf("Failed to query journal mode: %v", err)
	}

	if journalMode != "wal" {
		t.Errorf("Expected WAL mode, got %s", journalMode)
	}
}

func TestNew_ForeignKeys(t *testing.T) {
	database := newTestDB(t)

	var fkEnabled int
	err := database.conn.QueryRow("PRAGMA foreign_keys").Scan(&fkEnabled)
	if err != nil {
		t.Fatalf("Failed to query foreign keys: %v", err)
	}

	if fkEnabled != 1 {
		t.Errorf("Expected foreign keys enabled (1), got %d", fkEnabled)
	}
}

func sampleRecord(id string, sortTime time.Time, contents ...string) ConversationRecord {
	rec := ConversationRecord{
		ConversationID: id,
		Title:          "Title " + id,
		SortTime:       sortTime,
		File:           id + ".html",
		MessageCount:   len(contents),
	}
	for i, c := range contents {
		role := "request"
		if i%2 == 1 {
			role = "response"
		}
		rec.Fragments = append(rec.Fragments, FragmentRecord{Turn: i/2 + 1, Role: role, Content: c})
	}
	return rec
}

func TestUpsertConversation_ReplacesFragments(t *testing.T) {
	database := newTestDB(t)

	rec := sampleRecord("c1", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), "first question", "first answer")
	if err := database.UpsertConversation(rec); err != nil {
		t.Fatalf("UpsertConversation() error = %v", err)
	}

	rec = sampleRecord("c1", time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC), "only question")
	if err := database.UpsertConversation(rec); err != nil {
		t.Fatalf("UpsertConversation() second call error = %v", err)
	}

	var conversations, fragments int
	if err := database.QueryRow("SELECT COUNT(*) FROM conversations").Scan(&conversations); err != nil {
		t.Fatal(err)
	}
	if err := database.QueryRow("SELECT COUNT(*) FROM fragments").Scan(&fragments); err != nil {
		t.Fatal(err)
	}

	if conversations != 1 {
		t.Errorf("Expected 1 conversation, got %d", conversations)
	}
	if fragments != 1 {
		t.Errorf("Expected 1 fragment after replace, got %d", fragments)
	}

	// FTS must not return the replaced content
	var hits int
	err := database.QueryRow("SELECT COUNT(*) FROM fragments_fts WHERE fragments_fts MATCH 'answer'").Scan(&hits)
	if err != nil {
		t.Fatalf("FTS query error = %v", err)
	}
	if hits != 0 {
		t.Errorf("Expected replaced fragment to leave the index, got %d hits", hits)
	}
}

func TestUpsertConversation_RequiresID(t *testing.T) {
	database := newTestDB(t)

	if err := database.UpsertConversation(ConversationRecord{Title: "x"}); err == nil {
		t.Error("UpsertConversation() should fail without a conversation id")
	}
}

func TestListConversations_Order(t *testing.T) {
	database := newTestDB(t)

	records := []ConversationRecord{
		sampleRecord("undated", time.Time{}),
		sampleRecord("old", time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)),
		sampleRecord("new", time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)),
	}
	for _, rec := range records {
		if err := database.UpsertConversation(rec); err != nil {
			t.Fatalf("UpsertConversation(%s) error = %v", rec.ConversationID, err)
		}
	}

	list, err := database.ListConversations(0)
	if err != nil {
		t.Fatalf("ListConversations() error = %v", err)
	}

	want := []string{"new", "old", "undated"}
	if len(list) != len(want) {
		t.Fatalf("ListConversations() returned %d rows, want %d", len(list), len(want))
	}
	for i, id := range want {
		if list[i].ConversationID != id {
			t.Errorf("list[%d] = %s, want %s", i, list[i].ConversationID, id)
		}
	}
	if !list[0].SortTime.Equal(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("SortTime = %v, want 2025-06-01", list[0].SortTime)
	}

	limited, err := database.ListConversations(1)
	if err != nil {
		t.Fatalf("ListConversations(1) error = %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("ListConversations(1) returned %d rows", len(limited))
	}
}

func TestGetStats(t *testing.T) {
	database := newTestDB(t)

	if err := database.UpsertConversation(sampleRecord("a", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), "q", "a")); err != nil {
		t.Fatal(err)
	}
	if err := database.LogImport("conversations.json", 1, 2, "success", ""); err != nil {
		t.Fatalf("LogImport() error = %v", err)
	}

	stats, err := database.GetStats()
	if err != nil {
		t.Fatalf("GetStats() error = %v", err)
	}

	if stats.TotalConversations != 1 || stats.TotalFragments != 2 || stats.Imports != 1 {
		t.Errorf("GetStats() = %+v", stats)
	}
	if stats.NewestConversation.IsZero() {
		t.Error("NewestConversation should be set")
	}
}
