package shared

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// textPolicy strips every tag. Review and comment bodies are plain text.
var textPolicy = bluemonday.StrictPolicy()

// SanitizeText removes markup from user-submitted text and trims it. The
// result may be empty when the input was markup only.
func SanitizeText(s string) string {
	return strings.TrimSpace(html.UnescapeString(textPolicy.Sanitize(s)))
}
