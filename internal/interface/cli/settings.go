package cli

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
	"github.com/spf13/cobra"

	"github.com/neilberkman/chatfmt/internal/core/config"
	"github.com/neilberkman/chatfmt/internal/core/db"
	"github.com/neilberkman/chatfmt/internal/core/formatter"
	"github.com/neilberkman/chatfmt/internal/core/render"
	"github.com/neilberkman/chatfmt/pkg/chatexport"
)

// settings is the effective configuration of one command: explicit flags
// win over config.toml, which wins over built-in defaults
type settings struct {
	cfg     *config.Config
	input   string
	output  string
	dbPath  string
	catalog bool
	since   time.Time
	until   time.Time
}

func loadSettings(cmd *cobra.Command) (*settings, error) {
	var cfg *config.Config
	var err error
	if configDir == "" {
		cfg, err = config.Load()
	} else {
		cfg, err = config.LoadFrom(configDir)
	}
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	s := &settings{
		cfg:     cfg,
		input:   cfg.Input,
		output:  cfg.Output,
		dbPath:  cfg.DBPath,
		catalog: cfg.Catalog,
	}
	if flags.Changed("input") {
		s.input = inputPath
	}
	if flags.Changed("output") {
		s.output = outputDir
	}
	if flags.Changed("db") {
		s.dbPath = dbPath
	}
	if flags.Changed("catalog") {
		s.catalog = useCatalog
	}

	now := time.Now()
	if s.since, err = parseDateFlag(sinceFlag, now, false); err != nil {
		return nil, fmt.Errorf("invalid --since: %w", err)
	}
	if s.until, err = parseDateFlag(untilFlag, now, true); err != nil {
		return nil, fmt.Errorf("invalid --until: %w", err)
	}
	if !s.since.IsZero() && !s.until.IsZero() && s.until.Before(s.since) {
		return nil, fmt.Errorf("--until (%s) is before --since (%s)",
			s.until.Format("2006-01-02"), s.since.Format("2006-01-02"))
	}

	return s, nil
}

// Layouts tried before natural-language parsing. Date-only layouts cover a
// whole day, so an --until date includes that day.
var dateLayouts = []struct {
	layout   string
	dateOnly bool
}{
	{time.RFC3339, false},
	{"2006-01-02T15:04:05", false},
	{"2006-01-02", true},
	{"2006/01/02", true},
	{"01/02/2006", true},
}

// parseDateFlag parses a --since/--until value. Empty means unbounded.
func parseDateFlag(value string, now time.Time, endOfDay bool) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}

	for _, l := range dateLayouts {
		t, err := time.ParseInLocation(l.layout, value, now.Location())
		if err != nil {
			continue
		}
		if l.dateOnly && endOfDay {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		return t, nil
	}

	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)

	result, err := w.Parse(value, now)
	if err != nil {
		return time.Time{}, err
	}
	if result == nil {
		return time.Time{}, fmt.Errorf("unrecognised date %q", value)
	}
	return result.Time, nil
}

func newRenderer(cfg *config.Config, logger *slog.Logger) (*render.Renderer, error) {
	templates := render.DefaultTemplates()
	if cfg.ConversationTemplate != "" {
		templates.Conversation = cfg.ConversationTemplate
	}
	if cfg.IndexTemplate != "" {
		templates.Index = cfg.IndexTemplate
	}
	return render.New(templates, logger)
}

func openCatalog(path string) (*db.DB, error) {
	database, err := db.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	return database, nil
}

// export is the loaded, filtered and sorted input shared by the read-only
// commands
type export struct {
	settings      *settings
	renderer      *render.Renderer
	conversations []chatexport.Conversation
}

func loadExport(cmd *cobra.Command) (*export, error) {
	s, err := loadSettings(cmd)
	if err != nil {
		return nil, err
	}

	logger := newLogger(cmd.ErrOrStderr(), verbose)
	renderer, err := newRenderer(s.cfg, logger)
	if err != nil {
		return nil, err
	}

	conversations, err := formatter.New(renderer, logger).Load(s.input, s.since, s.until)
	if err != nil {
		return nil, err
	}

	return &export{settings: s, renderer: renderer, conversations: conversations}, nil
}

func indexPath(outputDir string) string {
	return filepath.Join(outputDir, formatter.IndexFile)
}
