package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/neilberkman/chatfmt/internal/core/render"
	"github.com/neilberkman/chatfmt/pkg/chatexport"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show export statistics",
	Long: `Display statistics about an export file: conversation and message counts,
request/response totals, date range and file size. If a catalog exists its
statistics are shown as well.`,
	Args: cobra.NoArgs,
	RunE: runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

// inputStats summarises an export
type inputStats struct {
	Conversations int
	Undated       int
	Empty         int
	Messages      int
	Requests      int
	Responses     int
	Oldest        time.Time
	Newest        time.Time
}

func collectInputStats(conversations []chatexport.Conversation, messages func(*chatexport.Conversation) []chatexport.Message) inputStats {
	stats := inputStats{Conversations: len(conversations)}

	for i := range conversations {
		conv := &conversations[i]

		if t, ok := conv.SortTime(); ok {
			if stats.Oldest.IsZero() || t.Before(stats.Oldest) {
				stats.Oldest = t
			}
			if stats.Newest.IsZero() || t.After(stats.Newest) {
				stats.Newest = t
			}
		} else {
			stats.Undated++
		}

		msgs := messages(conv)
		if len(msgs) == 0 {
			stats.Empty++
		}
		stats.Messages += len(msgs)
		for _, msg := range msgs {
			for _, frag := range msg.Fragments {
				if frag.IsRequest() {
					stats.Requests++
				} else {
					stats.Responses++
				}
			}
		}
	}

	return stats
}

func runStats(cmd *cobra.Command, args []string) error {
	exp, err := loadExport(cmd)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	stats := collectInputStats(exp.conversations, exp.renderer.Messages)

	_, _ = fmt.Fprintln(out, titleStyle.Render("Export Statistics"))
	_, _ = fmt.Fprintln(out)
	printStat(out, "Input", exp.settings.input)
	if info, err := os.Stat(exp.settings.input); err == nil {
		printStat(out, "Size", humanize.Bytes(uint64(info.Size())))
	}
	printStat(out, "Conversations", humanize.Comma(int64(stats.Conversations)))
	printStat(out, "Undated", humanize.Comma(int64(stats.Undated)))
	printStat(out, "Empty", humanize.Comma(int64(stats.Empty)))
	printStat(out, "Messages", humanize.Comma(int64(stats.Messages)))
	printStat(out, "Requests", humanize.Comma(int64(stats.Requests)))
	printStat(out, "Responses", humanize.Comma(int64(stats.Responses)))
	if !stats.Oldest.IsZero() {
		printStat(out, "Oldest", fmt.Sprintf("%s (%s)", stats.Oldest.Format(render.DisplayLayout), humanize.Time(stats.Oldest)))
		printStat(out, "Newest", fmt.Sprintf("%s (%s)", stats.Newest.Format(render.DisplayLayout), humanize.Time(stats.Newest)))
	}

	// Catalog statistics only when one has been created
	info, err := os.Stat(exp.settings.dbPath)
	if err != nil {
		return nil
	}

	database, err := openCatalog(exp.settings.dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = database.Close()
	}()

	catalog, err := database.GetStats()
	if err != nil {
		return fmt.Errorf("failed to read catalog stats: %w", err)
	}

	_, _ = fmt.Fprintln(out)
	_, _ = fmt.Fprintln(out, titleStyle.Render("Catalog"))
	_, _ = fmt.Fprintln(out)
	printStat(out, "Location", exp.settings.dbPath)
	printStat(out, "Size", humanize.Bytes(uint64(info.Size())))
	printStat(out, "Conversations", humanize.Comma(int64(catalog.TotalConversations)))
	printStat(out, "Fragments", humanize.Comma(int64(catalog.TotalFragments)))
	printStat(out, "Imports", humanize.Comma(int64(catalog.Imports)))
	if !catalog.LastImport.IsZero() {
		printStat(out, "Last import", humanize.Time(catalog.LastImport))
	}

	return nil
}

func printStat(w io.Writer, label, value string) {
	_, _ = fmt.Fprintf(w, "%s %s\n", labelStyle.Render(label+":"), value)
}
