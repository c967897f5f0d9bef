package render

import (
	"fmt"
	"log/slog"
	"net/url"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/cbroglie/mustache"
	"github.com/neilberkman/chatfmt/pkg/chatexport"
)

// Placeholders used when a conversation lacks metadata
const (
	UnknownID    = "unknown-id"
	UnknownDate  = "unknown"
	NoDatePrefix = "nodate"
)

// DisplayLayout is the human-readable date format used on pages and in summaries
const DisplayLayout = "Jan 2, 2006 3:04 PM"

// Meta is the resolved metadata of a conversation
type Meta struct {
	Ordinal    int
	ID         string
	Title      string
	Created    string
	Updated    string
	DatePrefix string // yyyy-mm-dd or "nodate"
	Date       time.Time
	HasDate    bool
}

// FormattedDate returns the display form of the sort date
func (m Meta) FormattedDate() string {
	if !m.HasDate {
		return UnknownDate
	}
	return m.Date.Format(DisplayLayout)
}

// ResolveMeta fills in placeholders for missing metadata
func ResolveMeta(conv *chatexport.Conversation, ordinal int) Meta {
	meta := Meta{
		Ordinal:    ordinal,
		ID:         conv.ID,
		Title:      strings.TrimSpace(conv.Title),
		Created:    displayTimestamp(conv.InsertedAt),
		Updated:    displayTimestamp(conv.UpdatedAt),
		DatePrefix: NoDatePrefix,
	}
	if meta.ID == "" {
		meta.ID = UnknownID
	}
	if meta.Title == "" {
		meta.Title = fmt.Sprintf("Conversation %d", ordinal)
	}
	if t, ok := conv.SortTime(); ok {
		meta.Date = t
		meta.HasDate = true
		meta.DatePrefix = t.Format("2006-01-02")
	}
	return meta
}

func displayTimestamp(ts chatexport.Timestamp) string {
	if ts.Valid {
		return ts.Time.Format(DisplayLayout)
	}
	if ts.Raw != "" {
		return ts.Raw
	}
	return UnknownDate
}

// Block is one rendered fragment
type Block struct {
	Label   string
	Number  int
	Request bool
	Time    string
	Text    string // source text
	HTML    string // rendered text
}

// Blocks labels every fragment of every message in order. Requests and the
// responses that follow them share a number; the number only advances on
// requests, so responses before the first request are numbered 1.
func Blocks(messages []chatexport.Message) []Block {
	blocks := []Block{}
	requests := 0

	for _, msg := range messages {
		stamp := ""
		if msg.InsertedAt.Valid {
			stamp = msg.InsertedAt.Time.Format(DisplayLayout)
		}

		for _, frag := range msg.Fragments {
			if frag.IsRequest() {
				requests++
			}
			number := requests
			if number < 1 {
				number = 1
			}

			label := "Response " + strconv.Itoa(number)
			if frag.IsRequest() {
				label = "Request " + strconv.Itoa(number)
			}

			blocks = append(blocks, Block{
				Label:   label,
				Number:  number,
				Request: frag.IsRequest(),
				Time:    stamp,
				Text:    string(frag.Content),
				HTML:    Text(string(frag.Content)),
			})
		}
	}

	return blocks
}

// Page is a rendered conversation document
type Page struct {
	Meta         Meta
	HTML         string
	MessageCount int
	Blocks       []Block
}

// PanicError is a recovered panic from rendering
type PanicError struct {
	Value interface{}
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic while rendering: %v", e.Value)
}

// Renderer produces HTML documents from conversations
type Renderer struct {
	conversation *mustache.Template
	index        *mustache.Template
	logger       *slog.Logger
	now          func() time.Time
}

// New parses the page templates
func New(templates Templates, logger *slog.Logger) (*Renderer, error) {
	if logger == nil {
		logger = slog.Default()
	}

	conversation, err := mustache.ParseString(templates.Conversation)
	if err != nil {
		return nil, fmt.Errorf("failed to parse conversation template: %w", err)
	}

	index, err := mustache.ParseString(templates.Index)
	if err != nil {
		return nil, fmt.Errorf("failed to parse index template: %w", err)
	}

	return &Renderer{
		conversation: conversation,
		index:        index,
		logger:       logger,
		now:          time.Now,
	}, nil
}

// Messages extracts a conversation's messages. A malformed mapping is logged
// and treated as an empty conversation.
func (r *Renderer) Messages(conv *chatexport.Conversation) []chatexport.Message {
	messages, err := chatexport.Extract(conv.Mapping)
	if err != nil {
		r.logger.Warn("failed to extract messages, treating conversation as empty",
			"id", conv.ID, "title", conv.Title, "error", err)
		return []chatexport.Message{}
	}
	return messages
}

// Conversation renders one conversation as a standalone HTML document. If
// rendering fails the returned page holds an error document and the error
// is returned alongside it.
func (r *Renderer) Conversation(conv *chatexport.Conversation, ordinal int) (page Page, err error) {
	page.Meta = ResolveMeta(conv, ordinal)

	defer func() {
		if rec := recover(); rec != nil {
			err = &PanicError{Value: rec, Stack: debug.Stack()}
			page.HTML = r.ErrorPage(page.Meta.Title, err)
		}
	}()

	messages := r.Messages(conv)
	page.MessageCount = len(messages)

	blocks := Blocks(messages)
	page.Blocks = blocks
	blockData := make([]map[string]interface{}, 0, len(blocks))
	for _, b := range blocks {
		kind := "response"
		if b.Request {
			kind = "request"
		}
		blockData = append(blockData, map[string]interface{}{
			"label":   b.Label,
			"kind":    kind,
			"time":    b.Time,
			"hasTime": b.Time != "",
			"html":    b.HTML,
		})
	}

	html, err := r.conversation.Render(map[string]interface{}{
		"style":        pageStyle,
		"title":        page.Meta.Title,
		"id":           page.Meta.ID,
		"ordinal":      page.Meta.Ordinal,
		"created":      page.Meta.Created,
		"updated":      page.Meta.Updated,
		"messageCount": page.MessageCount,
		"generated":    r.now().Format(DisplayLayout),
		"blocks":       blockData,
		"hasBlocks":    len(blockData) > 0,
	})
	if err != nil {
		err = fmt.Errorf("failed to render conversation %s: %w", page.Meta.ID, err)
		page.HTML = r.ErrorPage(page.Meta.Title, err)
		return page, err
	}

	page.HTML = html
	return page, nil
}

// ErrorPage returns a minimal document describing a rendering failure
func (r *Renderer) ErrorPage(title string, err error) string {
	message := "unknown error"
	if err != nil {
		message = err.Error()
	}
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Error: %s</title>
<style>%s</style>
</head>
<body>
<h1>%s</h1>
<div class="error"><p>This conversation could not be rendered.</p><pre>%s</pre></div>
<p><a href="index.html">&larr; All conversations</a></p>
</body>
</html>
`, EscapeHTML(title), pageStyle, EscapeHTML(title), EscapeHTML(message))
}

// IndexEntry is one row of the index page
type IndexEntry struct {
	Number        int
	ID            string
	Title         string
	File          string
	FormattedDate string
	MessageCount  int
}

// IndexData is everything the index page shows
type IndexData struct {
	Generated          time.Time
	TotalConversations int
	TotalMessages      int
	Errors             int
	Entries            []IndexEntry
}

// Index renders the page listing all conversations, in the order given
func (r *Renderer) Index(data IndexData) (string, error) {
	entries := make([]map[string]interface{}, 0, len(data.Entries))
	for _, e := range data.Entries {
		entries = append(entries, map[string]interface{}{
			"number":        e.Number,
			"id":            e.ID,
			"title":         e.Title,
			"file":          e.File,
			"href":          url.PathEscape(e.File),
			"hasFile":       e.File != "",
			"formattedDate": e.FormattedDate,
			"messageCount":  e.MessageCount,
		})
	}

	html, err := r.index.Render(map[string]interface{}{
		"style":              pageStyle,
		"generated":          data.Generated.Format(DisplayLayout),
		"totalConversations": data.TotalConversations,
		"totalMessages":      data.TotalMessages,
		"errors":             data.Errors,
		"hasErrors":          data.Errors > 0,
		"entries":            entries,
		"hasEntries":         len(entries) > 0,
	})
	if err != nil {
		return "", fmt.Errorf("failed to render index: %w", err)
	}
	return html, nil
}
