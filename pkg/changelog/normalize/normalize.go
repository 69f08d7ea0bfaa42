// Package normalize canonicalizes tag-name spelling for fuzzy matching.
package normalize

import "strings"

var stripper = strings.NewReplacer(" ", "", "-", "", "_", "")

// Key folds a tag name to its canonical lookup key: lowercased, trimmed,
// with spaces, hyphens and underscores removed. "OpenAI", "Open AI" and
// "open-ai" all collapse to "openai".
func Key(name string) string {
	return stripper.Replace(strings.ToLower(strings.TrimSpace(name)))
}
