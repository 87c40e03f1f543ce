package utils

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var sanitizer = bluemonday.StrictPolicy()

// SanitizeText strips all markup from user supplied plain text such as display names.
func SanitizeText(input string) string {
	// StrictPolicy escapes entities; names are stored as plain text
	return strings.TrimSpace(html.UnescapeString(sanitizer.Sanitize(input)))
}
