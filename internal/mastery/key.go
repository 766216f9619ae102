package mastery

import (
	"regexp"
	"strings"
)

var (
	nonKeyChars = regexp.MustCompile(`[^\w\s-]`)
	keySpaces   = regexp.MustCompile(`\s+`)
)

// NormalizeKey turns a concept display label into its matching key:
// lowercase, punctuation other than hyphens removed, whitespace collapsed.
func NormalizeKey(label string) string {
	s := strings.ToLower(label)
	s = nonKeyChars.ReplaceAllString(s, "")
	s = keySpaces.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
