package cli

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/neilberkman/chatfmt/internal/core/formatter"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Index an export into the search catalog",
	Long: `Catalog every conversation of an export for full-text search without
writing any HTML. Conversations already in the catalog are replaced.

Examples:
  chatfmt sync
  chatfmt sync -i ~/Downloads/conversations.json --db /tmp/chats.db`,
	Args: cobra.NoArgs,
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	logger := newLogger(cmd.ErrOrStderr(), verbose)
	renderer, err := newRenderer(s.cfg, logger)
	if err != nil {
		return err
	}

	database, err := openCatalog(s.dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = database.Close()
	}()

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintln(out, infoStyle.Render("Syncing conversations from: "+s.input))
	_, _ = fmt.Fprintln(out, dimStyle.Render("Catalog: "+s.dbPath))

	opts := formatter.Options{
		InputPath: s.input,
		Since:     s.since,
		Until:     s.until,
		Catalog:   database,
	}
	if !verbose {
		opts.Progress = formatter.NewProgressReporter(cmd.ErrOrStderr())
	}

	stats, err := formatter.New(renderer, logger).Sync(opts)
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	_, _ = fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("✓ Catalogued %s conversations (%s messages)",
		humanize.Comma(int64(stats.ProcessedFiles)), humanize.Comma(int64(stats.TotalMessages)))))
	if stats.CatalogErrors > 0 {
		_, _ = fmt.Fprintln(out, warningStyle.Render(fmt.Sprintf("! %d conversation(s) could not be catalogued", stats.CatalogErrors)))
	}
	return nil
}
