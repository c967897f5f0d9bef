package formatter

import (
	"fmt"
	"regexp"
)

// MaxSlugLength is the longest slug, in characters, used in file names
const MaxSlugLength = 50

var (
	// Characters that are unsafe in file names on common filesystems.
	// Whitespace control characters are left for the whitespace pass.
	unsafeFilenameChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x08\x0b\x0e-\x1f\x7f]`)
	whitespaceRun       = regexp.MustCompile(`\s+`)
)

// Slugify makes a title safe to use in a file name
func Slugify(title string) string {
	slug := unsafeFilenameChars.ReplaceAllString(title, "_")
	slug = whitespaceRun.ReplaceAllString(slug, "_")

	runes := []rune(slug)
	if len(runes) > MaxSlugLength {
		slug = string(runes[:MaxSlugLength])
	}
	return slug
}

// Filename builds the output file name of a conversation
func Filename(datePrefix string, ordinal int, slug string) string {
	return fmt.Sprintf("%s-%03d-%s.html", datePrefix, ordinal, slug)
}
