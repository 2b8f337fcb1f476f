package utils

import (
	"strings"

	"github.com/clubdev/clubdev/config"
)

// IsSpam reports whether content matches any configured spam keyword.
// Matching is a case-insensitive substring check, so "Buy NOW!!!" is caught
// by the keyword "buy now".
func IsSpam(content string) bool {
	lowered := strings.ToLower(content)
	for _, kw := range config.Get().SpamKeywords {
		if kw == "" {
			continue
		}
		if strings.Contains(lowered, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}
