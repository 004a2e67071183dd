// Package sanitize strips markup from reporter- and agency-supplied text
// before it is stored or pushed to live dashboards.
package sanitize

import (
	"regexp"
	"strings"
)

var (
	tagPattern = regexp.MustCompile(`<[^>]*>`)
	entities   = strings.NewReplacer(
		"&lt;", "<",
		"&gt;", ">",
		"&amp;", "&",
		"&quot;", `"`,
		"&#39;", "'",
	)
)

// Text removes HTML tags and trims surrounding whitespace. Entities are
// decoded between two strip passes so entity-encoded tags cannot survive.
func Text(s string) string {
	out := tagPattern.ReplaceAllString(s, "")
	out = entities.Replace(out)
	out = tagPattern.ReplaceAllString(out, "")
	return strings.TrimSpace(out)
}
