package search

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/neilberkman/chatfmt/internal/core/db"
)

func newTestDB(t *testing.T) *db.DB {
	t.Helper()

	tmpfile, err := os.CreateTemp("", "test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Remove(tmpfile.Name()) })
	_ = tmpfile.Close()

	database, err := db.New(tmpfile.Name())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })

	conversations := []db.ConversationRecord{
		{
			ConversationID: "auth",
			Title:          "Building authentication",
			File:           "2025-01-01-002-Building_authentication.html",
			SortTime:       time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC),
			Fragments: []db.FragmentRecord{
				{Turn: 1, Role: "request", Content: "Let's implement user authentication with JWT tokens"},
				{Turn: 1, Role: "response", Content: "First, let's create the auth middleware"},
				{Turn: 2, Role: "request", Content: "Can you write the get_user_by_id function?"},
			},
		},
		{
			ConversationID: "db",
			Title:          "Database migrations",
			File:           "2025-02-01-001-Database_migrations.html",
			SortTime:       time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC),
			Fragments: []db.FragmentRecord{
				{Turn: 1, Role: "request", Content: "Let's add database migrations for the users table"},
				{Turn: 1, Role: "response", Content: "Migrations keep the schema versioned"},
			},
		},
	}
	for _, rec := range conversations {
		if err := database.UpsertConversation(rec); err != nil {
			t.Fatalf("UpsertConversation(%s) error = %v", rec.ConversationID, err)
		}
	}

	return database
}

func TestSearch(t *testing.T) {
	database := newTestDB(t)

	tests := []struct {
		name      string
		query     string
		wantCount int
		wantFirst string
	}{
		{"single word", "authentication", 1, "auth"},
		{"stemming", "migration", 2, "db"},
		{"across conversations", "users", 3, "db"},
		{"no match", "kubernetes", 0, ""},
		{"special characters use LIKE", "get_user_by_id", 1, "auth"},
		{"percent is literal", "get%id", 0, ""},
		{"underscore is literal", "users_table", 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := Search(database, tt.query, 0)
			if err != nil {
				t.Fatalf("Search(%q) error = %v", tt.query, err)
			}
			if len(results) != tt.wantCount {
				t.Fatalf("Search(%q) returned %d results, want %d", tt.query, len(results), tt.wantCount)
			}
			if tt.wantCount > 0 && results[0].ConversationID != tt.wantFirst {
				t.Errorf("first result = %s, want %s", results[0].ConversationID, tt.wantFirst)
			}
		})
	}
}

func TestSearch_EmptyQuery(t *testing.T) {
	database := newTestDB(t)

	if _, err := Search(database, "   ", 10); err == nil {
		t.Error("Search() should reject an empty query")
	}
}

func TestSearch_ResultFields(t *testing.T) {
	database := newTestDB(t)

	results, err := Search(database, "middleware", 10)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("Search() returned %d results, want 1", len(results))
	}

	r := results[0]
	if r.Role != "response" || r.Turn != 1 {
		t.Errorf("result role/turn = %s/%d, want response/1", r.Role, r.Turn)
	}
	if r.File != "2025-01-01-002-Building_authentication.html" {
		t.Errorf("result file = %s", r.File)
	}
	if !strings.Contains(r.Snippet, "middleware") {
		t.Errorf("snippet %q should contain the match", r.Snippet)
	}
}

func TestEscapeLike(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"100%", `100\%`},
		{"get_user", `get\_user`},
		{`C:\path`, `C:\\path`},
	}

	for _, tt := range tests {
		if got := escapeLike(tt.in); got != tt.want {
			t.Errorf("escapeLike(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestExcerpt(t *testing.T) {
	long := strings.Repeat("a ", 100) + "needle" + strings.Repeat(" b", 100)

	got := excerpt(long, "needle", 40)
	if !strings.Contains(got, "needle") {
		t.Errorf("excerpt() = %q, want window around match", got)
	}
	if !strings.HasPrefix(got, "...") || !strings.HasSuffix(got, "...") {
		t.Errorf("excerpt() = %q, want ellipses on both sides", got)
	}

	if got := excerpt("short text", "text", 40); got != "short text" {
		t.Errorf("excerpt() = %q, want unchanged short text", got)
	}
}
