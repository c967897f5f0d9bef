package formatter

import (
	"fmt"

	"github.com/neilberkman/chatfmt/internal/core/db"
	"github.com/neilberkman/chatfmt/internal/core/render"
	"github.com/neilberkman/chatfmt/pkg/chatexport"
)

// CatalogRecord converts a resolved conversation into a catalog row.
// Conversations without an id are keyed by their file name.
func CatalogRecord(meta render.Meta, conv *chatexport.Conversation, messageCount int, blocks []render.Block, file, sourcePath string) db.ConversationRecord {
	key := conv.ID
	if key == "" {
		key = "file:" + file
	}

	rec := db.ConversationRecord{
		ConversationID: key,
		Title:          meta.Title,
		InsertedAt:     conv.InsertedAt.Raw,
		UpdatedAt:      conv.UpdatedAt.Raw,
		MessageCount:   messageCount,
		File:           file,
		SourcePath:     sourcePath,
	}
	if meta.HasDate {
		rec.SortTime = meta.Date
	}

	for _, b := range blocks {
		role := "response"
		if b.Request {
			role = "request"
		}
		rec.Fragments = append(rec.Fragments, db.FragmentRecord{
			Turn:       b.Number,
			Role:       role,
			Content:    b.Text,
			InsertedAt: b.Time,
		})
	}
	return rec
}

// Sync catalogs every conversation of the export without writing pages
func (f *Formatter) Sync(opts Options) (*Stats, error) {
	if opts.Catalog == nil {
		return nil, fmt.Errorf("sync requires a catalog")
	}

	conversations, err := f.Load(opts.InputPath, opts.Since, opts.Until)
	if err != nil {
		return nil, err
	}

	stats := &Stats{TotalConversations: len(conversations)}
	if opts.Progress != nil {
		opts.Progress.Start(len(conversations))
	}

	for i := range conversations {
		conv := &conversations[i]
		ordinal := i + 1

		meta := render.ResolveMeta(conv, ordinal)
		messages := f.renderer.Messages(conv)
		file := Filename(meta.DatePrefix, ordinal, Slugify(meta.Title))

		entry := newSummaryEntry(meta, conv, file, len(messages))
		stats.TotalMessages += entry.MessageCount
		stats.Entries = append(stats.Entries, entry)

		rec := CatalogRecord(meta, conv, len(messages), render.Blocks(messages), file, opts.InputPath)
		if err := opts.Catalog.UpsertConversation(rec); err != nil {
			stats.CatalogErrors++
			f.logger.Warn("failed to catalog conversation", "title", meta.Title, "error", err)
		} else {
			stats.ProcessedFiles++
		}

		if opts.Progress != nil {
			opts.Progress.Update(meta.Title, fmt.Sprintf("%d messages", entry.MessageCount))
		}
	}

	if opts.Progress != nil {
		opts.Progress.Finish()
	}

	f.logImport(opts, stats)
	return stats, nil
}
