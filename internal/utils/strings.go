package utils

import (
	"regexp"
	"strings"
)

var htmlTag = regexp.MustCompile(`<[^>]*>`)

// NormalizeSpace collapses repeated whitespace into a single space.
func NormalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// SanitizeText strips markup and collapses whitespace in free-text input.
func SanitizeText(s string) string {
	return NormalizeSpace(htmlTag.ReplaceAllString(s, ""))
}

// SameLocation compares two place names ignoring case and spacing.
func SameLocation(a, b string) bool {
	return strings.EqualFold(NormalizeSpace(a), NormalizeSpace(b))
}
