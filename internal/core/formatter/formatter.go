package formatter

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"

	"github.com/pkg/errors"

	"github.com/neilberkman/chatfmt/internal/core/db"
	"github.com/neilberkman/chatfmt/internal/core/render"
	"github.com/neilberkman/chatfmt/pkg/chatexport"
)

// PageRenderer renders conversations and the index page
type PageRenderer interface {
	Conversation(conv *chatexport.Conversation, ordinal int) (render.Page, error)
	ErrorPage(title string, err error) string
	Index(data render.IndexData) (string, error)
	Messages(conv *chatexport.Conversation) []chatexport.Message
}

// Catalog receives formatted conversations for full-text search
type Catalog interface {
	UpsertConversation(rec db.ConversationRecord) error
	LogImport(path string, conversations, fragments int, status, errMsg string) error
}

// Options configures a formatting run
type Options struct {
	InputPath string
	OutputDir string
	Since     time.Time // zero means unbounded
	Until     time.Time // zero means unbounded
	Catalog   Catalog   // optional
	Progress  ProgressCallback
}

// Stats accumulates the results of a run
type Stats struct {
	TotalConversations int
	TotalMessages      int
	ProcessedFiles     int
	Errors             int
	CatalogErrors      int
	BytesWritten       int64
	Entries            []SummaryEntry
}

// Formatter turns an export file into HTML pages, summary.json and index.html
type Formatter struct {
	renderer PageRenderer
	logger   *slog.Logger
	now      func() time.Time
}

// New creates a formatter
func New(renderer PageRenderer, logger *slog.Logger) *Formatter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Formatter{
		renderer: renderer,
		logger:   logger,
		now:      time.Now,
	}
}

// Load parses the export, applies the date window and sorts the result.
// Parse failures are fatal and returned as-is.
func (f *Formatter) Load(inputPath string, since, until time.Time) ([]chatexport.Conversation, error) {
	conversations, err := chatexport.ParseFile(inputPath)
	if err != nil {
		return nil, err
	}

	conversations = FilterWindow(conversations, since, until)
	return f.sort(conversations), nil
}

// sort orders conversations, falling back to the input order if sorting
// panics
func (f *Formatter) sort(conversations []chatexport.Conversation) (sorted []chatexport.Conversation) {
	defer func() {
		if rec := recover(); rec != nil {
			f.logger.Warn("failed to sort conversations, keeping input order", "error", rec)
			sorted = conversations
		}
	}()
	return SortConversations(conversations)
}

// Run formats every conversation of the export. Only input and output
// directory problems are returned as errors; per-conversation failures are
// counted in Stats and the run continues.
func (f *Formatter) Run(opts Options) (*Stats, error) {
	conversations, err := f.Load(opts.InputPath, opts.Since, opts.Until)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	stats := &Stats{TotalConversations: len(conversations)}
	if opts.Progress != nil {
		opts.Progress.Start(len(conversations))
	}

	for i := range conversations {
		conv := &conversations[i]
		ordinal := i + 1

		result := f.formatOne(conv, ordinal, opts)
		stats.TotalMessages += result.entry.MessageCount
		stats.BytesWritten += result.bytes
		stats.Entries = append(stats.Entries, result.entry)

		switch {
		case result.err != nil:
			stats.Errors++
			f.reportFailure(conv, result.entry, result.err)
		case result.written:
			stats.ProcessedFiles++
			f.logger.Debug("wrote conversation", "file", result.entry.File, "messages", result.entry.MessageCount)
		}
		if result.catalogErr != nil {
			stats.CatalogErrors++
			f.logger.Warn("failed to catalog conversation", "title", result.entry.Title, "error", result.catalogErr)
		}

		if opts.Progress != nil {
			opts.Progress.Update(result.entry.Title, fmt.Sprintf("%d messages", result.entry.MessageCount))
		}
	}

	if opts.Progress != nil {
		opts.Progress.Finish()
	}

	f.writeSummary(opts.OutputDir, stats)
	f.writeIndex(opts.OutputDir, stats)
	f.logImport(opts, stats)

	return stats, nil
}

type formatResult struct {
	entry      SummaryEntry
	written    bool
	bytes      int64
	err        error
	catalogErr error
}

// formatOne renders and writes a single conversation. A rendering failure
// still writes the error page; a write failure leaves no file behind.
func (f *Formatter) formatOne(conv *chatexport.Conversation, ordinal int, opts Options) (result formatResult) {
	meta := render.ResolveMeta(conv, ordinal)
	result.entry = newSummaryEntry(meta, conv, "", 0)

	defer func() {
		if rec := recover(); rec != nil {
			result.err = errors.WithStack(&render.PanicError{Value: rec, Stack: debug.Stack()})
			result.written = false
		}
	}()

	page, renderErr := f.renderPage(conv, ordinal)
	filename := Filename(page.Meta.DatePrefix, ordinal, Slugify(page.Meta.Title))
	result.entry = newSummaryEntry(page.Meta, conv, filename, page.MessageCount)

	if renderErr != nil {
		result.err = errors.WithStack(renderErr)
	}

	if err := writeFileAtomic(filepath.Join(opts.OutputDir, filename), []byte(page.HTML)); err != nil {
		result.entry.File = ""
		if result.err == nil {
			result.err = errors.Wrapf(err, "failed to write %s", filename)
		}
		return result
	}
	result.written = true
	result.bytes = int64(len(page.HTML))

	if opts.Catalog != nil && renderErr == nil {
		rec := CatalogRecord(page.Meta, conv, page.MessageCount, page.Blocks, filename, opts.InputPath)
		result.catalogErr = opts.Catalog.UpsertConversation(rec)
	}

	return result
}

// renderPage calls the renderer, turning a panic into an error page
func (f *Formatter) renderPage(conv *chatexport.Conversation, ordinal int) (page render.Page, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = &render.PanicError{Value: rec, Stack: debug.Stack()}
			page = render.Page{Meta: render.ResolveMeta(conv, ordinal)}
			page.HTML = f.renderer.ErrorPage(page.Meta.Title, err)
		}
	}()
	return f.renderer.Conversation(conv, ordinal)
}

func (f *Formatter) reportFailure(conv *chatexport.Conversation, entry SummaryEntry, err error) {
	f.logger.Error("failed to format conversation",
		"number", entry.Number, "id", entry.ID, "title", entry.Title, "error", err)

	var panicErr *render.PanicError
	if errors.As(err, &panicErr) {
		f.logger.Debug("panic stack", "stack", string(panicErr.Stack))
	} else {
		f.logger.Debug("error stack", "stack", fmt.Sprintf("%+v", err))
	}
	f.logger.Debug("offending conversation", "raw", string(conv.Raw))
}

func (f *Formatter) writeSummary(outputDir string, stats *Stats) {
	data, err := marshalSummary(buildSummary(stats, f.now()))
	if err == nil {
		err = writeFileAtomic(filepath.Join(outputDir, SummaryFile), data)
	}
	if err != nil {
		f.logger.Warn("failed to write summary", "file", SummaryFile, "error", err)
	}
}

func (f *Formatter) writeIndex(outputDir string, stats *Stats) {
	html, err := f.renderer.Index(buildIndexData(stats, f.now()))
	if err == nil {
		err = writeFileAtomic(filepath.Join(outputDir, IndexFile), []byte(html))
	}
	if err != nil {
		f.logger.Warn("failed to write index", "file", IndexFile, "error", err)
	}
}

func (f *Formatter) logImport(opts Options, stats *Stats) {
	if opts.Catalog == nil {
		return
	}

	status := "success"
	errMsg := ""
	if stats.Errors > 0 || stats.CatalogErrors > 0 {
		status = "partial"
		errMsg = fmt.Sprintf("%d render errors, %d catalog errors", stats.Errors, stats.CatalogErrors)
	}

	if err := opts.Catalog.LogImport(opts.InputPath, stats.TotalConversations, stats.TotalMessages, status, errMsg); err != nil {
		f.logger.Warn("failed to record import", "error", err)
	}
}

// writeFileAtomic writes data to a temp file in the target directory and
// renames it into place, so readers see the old file or the full new one
func writeFileAtomic(path string, data []byte) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(path), ".chatfmt-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	if _, err := tmpFile.Write(data); err != nil {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("writing temp file: %w", err)
	}

	if err := tmpFile.Chmod(0o644); err != nil {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("chmod temp file: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}

	return nil
}
