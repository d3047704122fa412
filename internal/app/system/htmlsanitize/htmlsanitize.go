// internal/app/system/htmlsanitize/htmlsanitize.go
package htmlsanitize

import "github.com/microcosm-cc/bluemonday"

var (
	ugc    = bluemonday.UGCPolicy()
	strict = bluemonday.StrictPolicy()
)

// Sanitize cleans user-supplied rich text (comment bodies, task
// descriptions) with the UGC policy: common formatting survives,
// scripts and event handlers do not.
func Sanitize(s string) string {
	return ugc.Sanitize(s)
}

// StripTags removes all markup, leaving plain text. Titles and names
// go through this.
func StripTags(s string) string {
	return strict.Sanitize(s)
}
