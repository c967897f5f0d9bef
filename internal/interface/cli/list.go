package cli

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/neilberkman/chatfmt/internal/core/formatter"
	"github.com/neilberkman/chatfmt/internal/core/render"
)

var (
	listLimit int
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List conversations in the export",
	Long: `List the conversations of an export in output order (newest first,
undated last), with the file name each one is written to.

Examples:
  chatfmt list
  chatfmt list --limit 10
  chatfmt list --since "last week"`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().IntVar(&listLimit, "limit", 20, "Maximum number of conversations to display (0 for all)")
}

func runList(cmd *cobra.Command, args []string) error {
	exp, err := loadExport(cmd)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(exp.conversations) == 0 {
		_, _ = fmt.Fprintln(out, "No conversations found in "+exp.settings.input)
		return nil
	}

	shown := exp.conversations
	if listLimit > 0 && len(shown) > listLimit {
		shown = shown[:listLimit]
	}

	_, _ = fmt.Fprintln(out, titleStyle.Render(fmt.Sprintf("Showing %d of %d conversation(s)", len(shown), len(exp.conversations))))
	_, _ = fmt.Fprintln(out)

	for i := range shown {
		conv := &shown[i]
		meta := render.ResolveMeta(conv, i+1)
		messages := exp.renderer.Messages(conv)

		_, _ = fmt.Fprintf(out, "[%d] %s\n", meta.Ordinal, truncateTitle(meta.Title, 80))
		_, _ = fmt.Fprintf(out, "    ID:       %s\n", meta.ID)
		if meta.HasDate {
			_, _ = fmt.Fprintf(out, "    Updated:  %s %s\n", humanize.Time(meta.Date), dimStyle.Render("("+meta.FormattedDate()+")"))
		} else {
			_, _ = fmt.Fprintf(out, "    Updated:  %s\n", render.UnknownDate)
		}
		_, _ = fmt.Fprintf(out, "    Messages: %d\n", len(messages))
		_, _ = fmt.Fprintf(out, "    File:     %s\n", formatter.Filename(meta.DatePrefix, meta.Ordinal, formatter.Slugify(meta.Title)))
		_, _ = fmt.Fprintln(out)
	}

	if len(shown) < len(exp.conversations) {
		_, _ = fmt.Fprintln(out, dimStyle.Render(fmt.Sprintf("... and %d more (use --limit 0 to see all)", len(exp.conversations)-len(shown))))
	}

	return nil
}

// truncateTitle shortens long titles for display
func truncateTitle(title string, maxLen int) string {
	title = strings.Join(strings.Fields(title), " ")

	runes := []rune(title)
	if len(runes) <= maxLen {
		return title
	}

	// Find a good break point (end of word)
	truncated := string(runes[:maxLen])
	if lastSpace := strings.LastIndex(truncated, " "); lastSpace > len(truncated)-20 {
		truncated = truncated[:lastSpace]
	}

	return truncated + "..."
}
