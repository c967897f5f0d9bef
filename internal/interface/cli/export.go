package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/neilberkman/chatfmt/internal/core/formatter"
	"github.com/neilberkman/chatfmt/internal/core/render"
	"github.com/neilberkman/chatfmt/pkg/chatexport"
)

var (
	exportOutput string
	exportFormat string
	exportCopy   bool
)

var exportCmd = &cobra.Command{
	Use:   "export <id|number>",
	Short: "Export one conversation to markdown or HTML",
	Long: `Export a single conversation, picked by id or by its number in 'chatfmt list'.

By default writes markdown to the current directory as conversation-<id>.md.
Use --output to choose a path, --format html for a standalone page, or
--copy to put the result on the clipboard instead of writing a file.

Examples:
  chatfmt export 3f2c9a6e-5d1b-4c8e-9a7f-0b1d2e3f4a5b
  chatfmt export 3 --format html -o chat.html
  chatfmt export 3 --copy`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file path (default: conversation-<id>.<format> in current directory)")
	exportCmd.Flags().StringVar(&exportFormat, "format", "md", "Output format: md or html")
	exportCmd.Flags().BoolVar(&exportCopy, "copy", false, "Copy to the clipboard instead of writing a file")
}

func runExport(cmd *cobra.Command, args []string) error {
	if exportFormat != "md" && exportFormat != "html" {
		return fmt.Errorf("unknown format %q (want md or html)", exportFormat)
	}

	exp, err := loadExport(cmd)
	if err != nil {
		return err
	}

	conv, ordinal, ok := findConversation(exp.conversations, args[0])
	if !ok {
		return fmt.Errorf("conversation not found: %s", args[0])
	}

	var content string
	if exportFormat == "html" {
		page, err := exp.renderer.Conversation(conv, ordinal)
		if err != nil {
			return err
		}
		content = page.HTML
	} else {
		content = exp.renderer.Markdown(conv, ordinal)
	}

	out := cmd.OutOrStdout()
	if exportCopy {
		if err := clipboard.WriteAll(content); err != nil {
			return fmt.Errorf("failed to copy to clipboard: %w", err)
		}
		_, _ = fmt.Fprintln(out, successStyle.Render("✓ Copied conversation to clipboard"))
		return nil
	}

	outputPath, err := exportPath(exportOutput, render.ResolveMeta(conv, ordinal), exportFormat)
	if err != nil {
		return err
	}

	if err := os.WriteFile(outputPath, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	_, _ = fmt.Fprintln(out, successStyle.Render("✓ Exported conversation to: "+outputPath))
	return nil
}

// findConversation matches key against conversation ids first, then against
// 1-based positions in output order
func findConversation(conversations []chatexport.Conversation, key string) (*chatexport.Conversation, int, bool) {
	for i := range conversations {
		if conversations[i].ID == key {
			return &conversations[i], i + 1, true
		}
	}

	if n, err := strconv.Atoi(key); err == nil && n >= 1 && n <= len(conversations) {
		return &conversations[n-1], n, true
	}

	return nil, 0, false
}

func exportPath(output string, meta render.Meta, format string) (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current directory: %w", err)
	}

	if output == "" {
		shortID := shortenID(meta.ID, 8)
		if meta.ID == render.UnknownID {
			shortID = formatter.Slugify(meta.Title)
		}
		return filepath.Join(cwd, fmt.Sprintf("conversation-%s.%s", shortID, format)), nil
	}

	if !filepath.IsAbs(output) {
		// Make relative paths absolute to current directory
		output = filepath.Join(cwd, output)
	}
	return output, nil
}

// shortenID keeps the first n characters of an id
func shortenID(id string, n int) string {
	runes := []rune(id)
	if len(runes) > n {
		return string(runes[:n])
	}
	return id
}
