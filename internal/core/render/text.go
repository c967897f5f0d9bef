package render

import (
	"regexp"
	"strings"
)

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

var (
	fencePattern      = regexp.MustCompile("(?s)```[\\w+#.-]*\\n?(.*?)```")
	inlineCodePattern = regexp.MustCompile("`([^`\\n]+)`")
	h4Pattern         = regexp.MustCompile(`(?m)^### (.*)$`)
	h3Pattern         = regexp.MustCompile(`(?m)^## (.*)$`)
	h2Pattern         = regexp.MustCompile(`(?m)^# (.*)$`)
	boldPattern       = regexp.MustCompile(`\*\*(.+?)\*\*`)
	italicPattern     = regexp.MustCompile(`\*(.+?)\*`)
	listItemPattern   = regexp.MustCompile(`(?m)^- (.*)$`)
	listRunPattern    = regexp.MustCompile(`<li>.*</li>(?:\n<li>.*</li>)*`)
	linkPattern       = regexp.MustCompile(`\[([^\]]+)\]\(([^)\s]+)\)`)
)

// Link schemes that may become live links. Targets without a scheme are
// relative and always allowed.
var safeLinkSchemes = map[string]bool{
	"http":   true,
	"https":  true,
	"mailto": true,
}

// safeLinkTarget reports whether a link target is relative or uses an
// allowed scheme. Anything else (javascript:, data:, ...) renders as text.
func safeLinkTarget(target string) bool {
	end := strings.IndexAny(target, ":/?#")
	if end < 0 || target[end] != ':' {
		return true
	}
	return safeLinkSchemes[strings.ToLower(target[:end])]
}

// EscapeHTML escapes the five HTML-significant characters
func EscapeHTML(s string) string {
	return htmlEscaper.Replace(s)
}

// Text turns message text into an HTML fragment. The input is escaped first
// and a fixed chain of markdown-like substitutions runs on the escaped text,
// so every rule sees the output of the rules before it.
func Text(raw string) string {
	if raw == "" {
		return ""
	}

	out := strings.ReplaceAll(raw, "\r\n", "\n")
	out = EscapeHTML(out)

	out = fencePattern.ReplaceAllStringFunc(out, func(block string) string {
		code := fencePattern.FindStringSubmatch(block)[1]
		return "<pre><code>" + strings.TrimSpace(code) + "</code></pre>"
	})
	out = inlineCodePattern.ReplaceAllString(out, "<code>$1</code>")

	out = h4Pattern.ReplaceAllString(out, "<h4>$1</h4>")
	out = h3Pattern.ReplaceAllString(out, "<h3>$1</h3>")
	out = h2Pattern.ReplaceAllString(out, "<h2>$1</h2>")

	out = boldPattern.ReplaceAllString(out, "<strong>$1</strong>")
	out = italicPattern.ReplaceAllString(out, "<em>$1</em>")

	out = listItemPattern.ReplaceAllString(out, "<li>$1</li>")
	out = listRunPattern.ReplaceAllStringFunc(out, func(run string) string {
		return "<ul>" + strings.ReplaceAll(run, "\n", "") + "</ul>"
	})

	out = linkPattern.ReplaceAllStringFunc(out, func(link string) string {
		m := linkPattern.FindStringSubmatch(link)
		if !safeLinkTarget(m[2]) {
			return m[1]
		}
		return `<a href="` + m[2] + `" target="_blank" rel="noopener noreferrer">` + m[1] + `</a>`
	})

	return strings.ReplaceAll(out, "\n", "<br>")
}
