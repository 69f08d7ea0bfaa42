// Package scraper turns competitor changelog pages into feature lists.
// Raw pages arrive either as markdown documents with a known heading
// grammar or as HTML that is flattened to text first.
package scraper

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/Yrzhe/vibe-coding-product-changelog/pkg/changelog/feature"
)

var (
	versionRe = regexp.MustCompile(`^## (v[\d.]+)\s*[–-]\s*(.+)$`)
	boldRe    = regexp.MustCompile(`\*\*(.+?):\*\*\s*(.+)`)
)

// parseDate normalizes "January 12, 2026" or "Jan 12, 2026" to
// YYYY-MM-DD. Anything else passes through unchanged so coarser dates
// ("March 2025") survive.
func parseDate(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	for _, layout := range []string{"January 2, 2006", "Jan 2, 2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return s
}

// ParseChangelog parses a markdown changelog document into features.
// The grammar:
//
//	## v2.7.4 – January 12, 2026   version heading, sets the date
//	### Features                   category heading
//	#### Feature Title             feature heading, body lines follow
//	- **Title:** description       single-line feature
//	- plain item                   title-only feature
//
// Entries come out sorted newest first.
func ParseChangelog(content string) []feature.Feature {
	var features []feature.Feature

	var (
		date    string
		title   string
		body    []string
		inBlock bool
	)

	flush := func() {
		if title != "" {
			features = append(features, feature.Feature{
				Title:       title,
				Description: strings.TrimSpace(strings.Join(body, "\n")),
				Time:        date,
			})
		}
		title = ""
		body = nil
		inBlock = false
	}

	for _, line := range strings.Split(content, "\n") {
		stripped := strings.TrimSpace(line)

		if m := versionRe.FindStringSubmatch(stripped); m != nil {
			flush()
			date = parseDate(m[2])
			continue
		}
		if strings.HasPrefix(stripped, "### ") {
			flush()
			continue
		}
		if strings.HasPrefix(stripped, "#### ") {
			flush()
			title = strings.TrimSpace(stripped[5:])
			inBlock = true
			continue
		}
		if strings.HasPrefix(stripped, "- ") {
			flush()
			item := strings.TrimSpace(stripped[2:])
			if m := boldRe.FindStringSubmatch(item); m != nil {
				title = strings.TrimSpace(m[1])
				body = []string{strings.TrimSpace(m[2])}
			} else {
				title = item
			}
			inBlock = true
			continue
		}
		if inBlock && stripped != "" {
			if stripped == "---" {
				flush()
			} else {
				body = append(body, stripped)
			}
		}
	}
	flush()

	sort.SliceStable(features, func(i, j int) bool {
		return features[i].Time > features[j].Time
	})
	return features
}
