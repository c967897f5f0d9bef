package formatter

import (
	"encoding/json"
	"time"

	"github.com/neilberkman/chatfmt/internal/core/render"
	"github.com/neilberkman/chatfmt/pkg/chatexport"
)

const (
	SummaryFile = "summary.json"
	IndexFile   = "index.html"
)

// Summary is the document written to summary.json
type Summary struct {
	Generated          string         `json:"generated"`
	TotalConversations int            `json:"totalConversations"`
	TotalMessages      int            `json:"totalMessages"`
	ProcessedFiles     int            `json:"processedFiles"`
	Errors             int            `json:"errors"`
	Sorting            string         `json:"sorting"`
	Conversations      []SummaryEntry `json:"conversations"`
}

// SummaryEntry describes one formatted conversation
type SummaryEntry struct {
	Number        int                  `json:"number"`
	ID            string               `json:"id"`
	Title         string               `json:"title"`
	Date          string               `json:"date"`
	FormattedDate string               `json:"formattedDate"`
	File          string               `json:"file"`
	Created       chatexport.Timestamp `json:"created"`
	Updated       chatexport.Timestamp `json:"updated"`
	MessageCount  int                  `json:"messageCount"`
}

func newSummaryEntry(meta render.Meta, conv *chatexport.Conversation, file string, messageCount int) SummaryEntry {
	return SummaryEntry{
		Number:        meta.Ordinal,
		ID:            meta.ID,
		Title:         meta.Title,
		Date:          meta.DatePrefix,
		FormattedDate: meta.FormattedDate(),
		File:          file,
		Created:       conv.InsertedAt,
		Updated:       conv.UpdatedAt,
		MessageCount:  messageCount,
	}
}

func buildSummary(stats *Stats, generated time.Time) Summary {
	entries := stats.Entries
	if entries == nil {
		entries = []SummaryEntry{}
	}
	return Summary{
		Generated:          generated.Format(time.RFC3339),
		TotalConversations: stats.TotalConversations,
		TotalMessages:      stats.TotalMessages,
		ProcessedFiles:     stats.ProcessedFiles,
		Errors:             stats.Errors,
		Sorting:            SortOrder,
		Conversations:      entries,
	}
}

func marshalSummary(summary Summary) ([]byte, error) {
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

func buildIndexData(stats *Stats, generated time.Time) render.IndexData {
	data := render.IndexData{
		Generated:          generated,
		TotalConversations: stats.TotalConversations,
		TotalMessages:      stats.TotalMessages,
		Errors:             stats.Errors,
	}
	for _, e := range stats.Entries {
		data.Entries = append(data.Entries, render.IndexEntry{
			Number:        e.Number,
			ID:            e.ID,
			Title:         e.Title,
			File:          e.File,
			FormattedDate: e.FormattedDate,
			MessageCount:  e.MessageCount,
		})
	}
	return data
}
