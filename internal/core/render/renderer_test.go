package render

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/neilberkman/chatfmt/pkg/chatexport"
)

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := New(DefaultTemplates(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	r.now = func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) }
	return r
}

func fragments(pairs ...string) chatexport.Message {
	msg := chatexport.Message{}
	for i := 0; i+1 < len(pairs); i += 2 {
		msg.Fragments = append(msg.Fragments, chatexport.Fragment{Type: pairs[i], Content: chatexport.Text(pairs[i+1])})
	}
	return msg
}

func TestResolveMeta(t *testing.T) {
	tests := []struct {
		name       string
		conv       chatexport.Conversation
		wantTitle  string
		wantID     string
		wantPrefix string
		wantUpdate string
	}{
		{
			name:       "placeholders",
			conv:       chatexport.Conversation{},
			wantTitle:  "Conversation 7",
			wantID:     UnknownID,
			wantPrefix: NoDatePrefix,
			wantUpdate: UnknownDate,
		},
		{
			name: "updated wins",
			conv: chatexport.Conversation{
				ID:         "abc",
				Title:      "  Trip planning  ",
				InsertedAt: chatexport.ParseTimestamp("2024-12-31T23:00:00+08:00"),
				UpdatedAt:  chatexport.ParseTimestamp("2025-01-02T08:00:00+08:00"),
			},
			wantTitle:  "Trip planning",
			wantID:     "abc",
			wantPrefix: "2025-01-02",
			wantUpdate: "Jan 2, 2025 8:00 AM",
		},
		{
			name: "inserted fallback",
			conv: chatexport.Conversation{
				InsertedAt: chatexport.ParseTimestamp("2024-12-31T23:00:00+08:00"),
				UpdatedAt:  chatexport.ParseTimestamp("garbage"),
			},
			wantTitle:  "Conversation 7",
			wantID:     UnknownID,
			wantPrefix: "2024-12-31",
			wantUpdate: "garbage",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta := ResolveMeta(&tt.conv, 7)
			if meta.Title != tt.wantTitle {
				t.Errorf("Title = %v, want %v", meta.Title, tt.wantTitle)
			}
			if meta.ID != tt.wantID {
				t.Errorf("ID = %v, want %v", meta.ID, tt.wantID)
			}
			if meta.DatePrefix != tt.wantPrefix {
				t.Errorf("DatePrefix = %v, want %v", meta.DatePrefix, tt.wantPrefix)
			}
			if meta.Updated != tt.wantUpdate {
				t.Errorf("Updated = %v, want %v", meta.Updated, tt.wantUpdate)
			}
		})
	}
}

func TestBlocks_Labels(t *testing.T) {
	tests := []struct {
		name     string
		messages []chatexport.Message
		want     []string
	}{
		{
			name:     "pair in one message",
			messages: []chatexport.Message{fragments("REQUEST", "Hi", "OTHER", "Hello")},
			want:     []string{"Request 1", "Response 1"},
		},
		{
			name: "pairs across messages",
			messages: []chatexport.Message{
				fragments("REQUEST", "a"),
				fragments("RESPONSE", "b"),
				fragments("REQUEST", "c"),
				fragments("THINK", "d", "RESPONSE", "e"),
			},
			want: []string{"Request 1", "Response 1", "Request 2", "Response 2", "Response 2"},
		},
		{
			name:     "response before any request",
			messages: []chatexport.Message{fragments("RESPONSE", "x", "REQUEST", "y", "RESPONSE", "z")},
			want:     []string{"Response 1", "Request 1", "Response 1"},
		},
		{
			name:     "no messages",
			messages: nil,
			want:     []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blocks := Blocks(tt.messages)
			if len(blocks) != len(tt.want) {
				t.Fatalf("Block count = %d, want %d", len(blocks), len(tt.want))
			}
			for i, b := range blocks {
				if b.Label != tt.want[i] {
					t.Errorf("blocks[%d].Label = %v, want %v", i, b.Label, tt.want[i])
				}
			}
		})
	}
}

func TestConversation(t *testing.T) {
	r := newTestRenderer(t)

	conv := chatexport.Conversation{
		ID:        "conv-1",
		Title:     "Greetings <3",
		UpdatedAt: chatexport.ParseTimestamp("2025-01-10T09:30:00+08:00"),
		Mapping: json.RawMessage(`{
			"root": {"children": ["1"]},
			"1": {"message": {"fragments": [{"type": "REQUEST", "content": "Hi"}, {"type": "OTHER", "content": "Hello **there**"}]}}
		}`),
	}

	page, err := r.Conversation(&conv, 1)
	if err != nil {
		t.Fatalf("Conversation() error = %v", err)
	}

	if page.MessageCount != 1 {
		t.Errorf("MessageCount = %d, want 1", page.MessageCount)
	}

	for _, want := range []string{
		"<!DOCTYPE html>",
		"<title>Greetings &lt;3</title>",
		"Request 1",
		"Response 1",
		`class="block request"`,
		`class="block response"`,
		"Hello <strong>there</strong>",
		"ID: conv-1",
	} {
		if !strings.Contains(page.HTML, want) {
			t.Errorf("page HTML missing %q", want)
		}
	}
	if strings.Contains(page.HTML, "has no messages") {
		t.Error("page HTML should not show the empty notice")
	}
}

func TestConversation_NullMapping(t *testing.T) {
	r := newTestRenderer(t)

	conv := chatexport.Conversation{ID: "empty", Mapping: json.RawMessage(`null`)}

	page, err := r.Conversation(&conv, 3)
	if err != nil {
		t.Fatalf("Conversation() error = %v, want nil for null mapping", err)
	}
	if page.MessageCount != 0 {
		t.Errorf("MessageCount = %d, want 0", page.MessageCount)
	}
	if !strings.Contains(page.HTML, "This conversation has no messages.") {
		t.Error("page HTML should show the empty notice")
	}
	if !strings.Contains(page.HTML, "<h1>Conversation 3</h1>") {
		t.Error("page HTML should use the synthesized title")
	}
}

func TestConversation_CyclicMapping(t *testing.T) {
	r := newTestRenderer(t)

	conv := chatexport.Conversation{
		Mapping: json.RawMessage(`{"root": {"children": ["A"]}, "A": {"children": ["A"]}}`),
	}

	page, err := r.Conversation(&conv, 1)
	if err != nil {
		t.Fatalf("Conversation() error = %v, want nil for cyclic mapping", err)
	}
	if page.MessageCount != 0 {
		t.Errorf("MessageCount = %d, want 0", page.MessageCount)
	}
}

func TestErrorPage(t *testing.T) {
	r := newTestRenderer(t)

	html := r.ErrorPage("Bad <title>", errors.New("boom & bust"))

	if !strings.Contains(html, "boom &amp; bust") {
		t.Errorf("ErrorPage() should include the escaped error message, got %s", html)
	}
	if strings.Contains(html, "<title>Error: Bad <title>") {
		t.Error("ErrorPage() should escape the title")
	}
}

func TestIndex(t *testing.T) {
	r := newTestRenderer(t)

	html, err := r.Index(IndexData{
		Generated:          time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		TotalConversations: 2,
		TotalMessages:      5,
		Entries: []IndexEntry{
			{Number: 1, Title: "Newest", File: "2025-02-03-001-Newest.html", FormattedDate: "Feb 3, 2025 6:45 PM", MessageCount: 3},
			{Number: 2, Title: "Oldest & Co", File: "2025-01-10-002-Oldest_&_Co.html", FormattedDate: "Jan 10, 2025 9:30 AM", MessageCount: 2},
		},
	})
	if err != nil {
		t.Fatalf("Index() error = %v", err)
	}

	newest := strings.Index(html, "Newest")
	oldest := strings.Index(html, "Oldest &amp; Co")
	if newest < 0 || oldest < 0 || newest > oldest {
		t.Errorf("Index() rows out of order or missing: newest=%d oldest=%d", newest, oldest)
	}
	if !strings.Contains(html, `href="2025-02-03-001-Newest.html"`) {
		t.Error("Index() should link to conversation files")
	}
	if !strings.Contains(html, "Request: your messages") {
		t.Error("Index() should include the colour legend")
	}
	if strings.Contains(html, "errors</span>") {
		t.Error("Index() should not show an error count when there are none")
	}
}

func TestIndex_EscapesLinks(t *testing.T) {
	r := newTestRenderer(t)

	html, err := r.Index(IndexData{
		TotalConversations: 2,
		Entries: []IndexEntry{
			{Number: 1, Title: "C# tips", File: "2025-01-01-001-C#_tips.html"},
			{Number: 2, Title: "100% done", File: "2025-01-01-002-100%_done.html"},
		},
	})
	if err != nil {
		t.Fatalf("Index() error = %v", err)
	}

	for _, want := range []string{`href="2025-01-01-001-C%23_tips.html"`, `href="2025-01-01-002-100%25_done.html"`} {
		if !strings.Contains(html, want) {
			t.Errorf("Index() missing %s", want)
		}
	}
}

func TestNew_InvalidTemplate(t *testing.T) {
	_, err := New(Templates{Conversation: "{{#open}}", Index: defaultIndexTemplate}, nil)
	if err == nil {
		t.Error("New() should fail for an unclosed section")
	}
}

func TestMarkdown(t *testing.T) {
	r := newTestRenderer(t)

	conv := chatexport.Conversation{
		ID:    "md",
		Title: "Notes",
		Mapping: json.RawMessage(`{
			"root": {"children": ["1"]},
			"1": {"message": {"fragments": [{"type": "REQUEST", "content": "Hi"}]}, "children": ["2"]},
			"2": {"message": {"fragments": [{"type": "RESPONSE", "content": "Hello"}]}}
		}`),
	}

	md := r.Markdown(&conv, 1)

	for _, want := range []string{"# Notes", "**Conversation ID:** `md`", "**Messages:** 2", "**Request 1**\n\nHi", "**Response 1**\n\nHello"} {
		if !strings.Contains(md, want) {
			t.Errorf("Markdown() missing %q in:\n%s", want, md)
		}
	}
}
