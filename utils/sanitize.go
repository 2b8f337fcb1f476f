package utils

import "github.com/microcosm-cc/bluemonday"

// Journal entries and comments regularly quote code, so the UGC policy is
// extended to keep code and pre blocks intact while stripping everything
// that could script.
var sanitizer = func() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowElements("code", "pre")
	p.AllowAttrs("class").Matching(bluemonday.SpaceSeparatedTokens).OnElements("code", "pre")
	return p
}()

// Sanitize strips unsafe HTML from user supplied content.
func Sanitize(input string) string {
	return sanitizer.Sanitize(input)
}
