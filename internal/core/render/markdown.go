package render

import (
	"strconv"
	"strings"

	"github.com/neilberkman/chatfmt/pkg/chatexport"
)

// Markdown renders a conversation as a plain markdown transcript
func (r *Renderer) Markdown(conv *chatexport.Conversation, ordinal int) string {
	meta := ResolveMeta(conv, ordinal)
	messages := r.Messages(conv)

	var b strings.Builder

	// Header
	b.WriteString("# ")
	b.WriteString(meta.Title)
	b.WriteString("\n\n")

	// Metadata
	b.WriteString("**Conversation ID:** `")
	b.WriteString(meta.ID)
	b.WriteString("`  \n")
	b.WriteString("**Created:** ")
	b.WriteString(meta.Created)
	b.WriteString("  \n")
	b.WriteString("**Updated:** ")
	b.WriteString(meta.Updated)
	b.WriteString("  \n")
	b.WriteString("**Messages:** ")
	b.WriteString(strconv.Itoa(len(messages)))
	b.WriteString("\n\n")
	b.WriteString("---\n\n")

	for _, block := range Blocks(messages) {
		b.WriteString("**")
		b.WriteString(block.Label)
		b.WriteString("**")
		if block.Time != "" {
			b.WriteString(" _")
			b.WriteString(block.Time)
			b.WriteString("_")
		}
		b.WriteString("\n\n")

		// Content (no truncation)
		if block.Text != "" {
			b.WriteString(block.Text)
			b.WriteString("\n\n")
		}

		b.WriteString("---\n\n")
	}

	return b.String()
}
