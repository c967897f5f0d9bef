package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/neilberkman/chatfmt/internal/core/search"
)

var (
	searchLimit int
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search catalogued conversations using full-text search",
	Long: `Search through every conversation indexed with 'chatfmt sync' or
'chatfmt --catalog'.

Uses FTS5 full-text search with porter stemming for natural language.
Queries containing punctuation fall back to exact substring matching.
Results are grouped by conversation.

Examples:
  chatfmt search "database migration"
  chatfmt search "ERR-4021"
  chatfmt search retries --limit 5`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().IntVar(&searchLimit, "limit", 20, "Maximum number of conversations to show")
}

// conversationHits groups search results of one conversation
type conversationHits struct {
	id      string
	title   string
	file    string
	matches []search.Result
}

func groupResults(results []search.Result) []conversationHits {
	var groups []conversationHits
	index := map[string]int{}
	for _, r := range results {
		i, ok := index[r.ConversationID]
		if !ok {
			i = len(groups)
			index[r.ConversationID] = i
			groups = append(groups, conversationHits{id: r.ConversationID, title: r.Title, file: r.File})
		}
		groups[i].matches = append(groups[i].matches, r)
	}
	return groups
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")

	s, err := loadSettings(cmd)
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

	results, err := search.Search(database, query, search.DefaultLimit)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(results) == 0 {
		_, _ = fmt.Fprintf(out, "No results found for: %s\n", query)
		return nil
	}

	groups := groupResults(results)
	_, _ = fmt.Fprintln(out, titleStyle.Render(fmt.Sprintf("Found %d conversation(s) with %d match(es) for: %s", len(groups), len(results), query)))
	_, _ = fmt.Fprintln(out)

	for i, g := range groups {
		if i >= searchLimit {
			_, _ = fmt.Fprintln(out, dimStyle.Render(fmt.Sprintf("... and %d more conversations (use --limit to see more)", len(groups)-searchLimit)))
			break
		}

		_, _ = fmt.Fprintf(out, "=== %s ===\n", g.title)
		_, _ = fmt.Fprintf(out, "ID:      %s\n", g.id)
		if g.file != "" {
			_, _ = fmt.Fprintf(out, "File:    %s\n", g.file)
		}
		_, _ = fmt.Fprintf(out, "Matches: %d\n", len(g.matches))

		// Show up to 3 matches per conversation
		for j, m := range g.matches {
			if j >= 3 {
				break
			}
			label := "Response"
			if m.Role == "request" {
				label = "Request"
			}
			_, _ = fmt.Fprintf(out, "  %s %d: %s\n", label, m.Turn, truncateTitle(m.Snippet, 200))
		}
		_, _ = fmt.Fprintln(out)
	}

	return nil
}
