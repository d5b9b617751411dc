// Package htmlsanitize strips markup from free-text fields before they are
// stored. Names and titles are rendered by the console UI and must never
// carry HTML.
package htmlsanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	strict = bluemonday.StrictPolicy()

	// angle brackets can reappear when escaped input is unescaped
	brackets = strings.NewReplacer("<", "", ">", "")
)

// PlainText removes all tags from s, unescapes the entities bluemonday
// leaves behind, and trims surrounding whitespace.
func PlainText(s string) string {
	if s == "" {
		return ""
	}
	out := html.UnescapeString(strict.Sanitize(s))
	return strings.TrimSpace(brackets.Replace(out))
}
