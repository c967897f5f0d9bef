package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/neilberkman/chatfmt/internal/core/config"
	"github.com/neilberkman/chatfmt/internal/core/formatter"
)

var (
	dbPath      string
	configDir   string
	verbose     bool
	inputPath   string
	sinceFlag   string
	untilFlag   string
	outputDir   string
	useCatalog  bool
	versionInfo string
)

// SetVersion sets the version information from build-time ldflags
func SetVersion(version, commit, date string) {
	versionInfo = fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date)
	rootCmd.Version = versionInfo
}

// Execute runs the CLI
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("✗ "+err.Error()))
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "chatfmt",
	Short: "Format chat export JSON into standalone HTML pages",
	Long: `chatfmt - turn a chat export into browsable HTML

Reads an exported conversations.json (an array of conversations whose
messages form a node tree) and writes one standalone HTML page per
conversation, plus summary.json and index.html.

Examples:
  chatfmt
  chatfmt -i ~/Downloads/conversations.json -o ~/chats
  chatfmt --since "last month" --catalog`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runFormat,
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", config.DefaultDBPath(), "Catalog database path")
	rootCmd.PersistentFlags().StringVar(&configDir, "config", config.Dir(), "Config directory (config.toml and template overrides)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose logging with stack traces for failures")
	rootCmd.PersistentFlags().StringVarP(&inputPath, "input", "i", config.DefaultInput, "Export file to read")
	rootCmd.PersistentFlags().StringVar(&sinceFlag, "since", "", `Only conversations updated on or after this date ("last week", 2025-01-31)`)
	rootCmd.PersistentFlags().StringVar(&untilFlag, "until", "", "Only conversations updated on or before this date")

	rootCmd.Flags().StringVarP(&outputDir, "output", "o", config.DefaultOutput, "Directory for generated files")
	rootCmd.Flags().BoolVar(&useCatalog, "catalog", false, "Also index formatted conversations into the catalog")
}

func runFormat(cmd *cobra.Command, args []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	logger := newLogger(cmd.ErrOrStderr(), verbose)
	renderer, err := newRenderer(s.cfg, logger)
	if err != nil {
		return err
	}

	opts := formatter.Options{
		InputPath: s.input,
		OutputDir: s.output,
		Since:     s.since,
		Until:     s.until,
	}

	if s.catalog {
		database, err := openCatalog(s.dbPath)
		if err != nil {
			return err
		}
		defer func() {
			_ = database.Close()
		}()
		opts.Catalog = database
	}

	// Log lines and the progress bar share stderr
	if !verbose {
		opts.Progress = formatter.NewProgressReporter(cmd.ErrOrStderr())
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintln(out, infoStyle.Render(fmt.Sprintf("Formatting %s into %s", s.input, s.output)))

	stats, err := formatter.New(renderer, logger).Run(opts)
	if err != nil {
		return err
	}

	printRunSummary(out, stats, s)
	return nil
}

func printRunSummary(w io.Writer, stats *formatter.Stats, s *settings) {
	_, _ = fmt.Fprintln(w, successStyle.Render(fmt.Sprintf("✓ Wrote %s of %s conversations (%s messages, %s) to %s",
		humanize.Comma(int64(stats.ProcessedFiles)),
		humanize.Comma(int64(stats.TotalConversations)),
		humanize.Comma(int64(stats.TotalMessages)),
		humanize.Bytes(uint64(stats.BytesWritten)),
		s.output)))

	if stats.Errors > 0 {
		_, _ = fmt.Fprintln(w, warningStyle.Render(fmt.Sprintf("! %d conversation(s) failed to render; error pages were written in their place", stats.Errors)))
	}
	if s.catalog {
		if stats.CatalogErrors > 0 {
			_, _ = fmt.Fprintln(w, warningStyle.Render(fmt.Sprintf("! %d conversation(s) could not be catalogued", stats.CatalogErrors)))
		} else {
			_, _ = fmt.Fprintln(w, dimStyle.Render("Catalogued into "+s.dbPath))
		}
	}
	_, _ = fmt.Fprintln(w, dimStyle.Render("Open "+indexPath(s.output)+" to browse"))
}
