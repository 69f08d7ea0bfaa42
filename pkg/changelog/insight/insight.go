// Package insight builds the cross-product tag coverage matrix and
// drives the model-written competitive summaries.
package insight

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Yrzhe/vibe-coding-product-changelog/pkg/changelog/feature"
	"github.com/Yrzhe/vibe-coding-product-changelog/pkg/changelog/store"
)

// Chatter sends one free-form prompt to the model.
type Chatter interface {
	Chat(ctx context.Context, system, user string) (string, error)
}

// TagCoverage is one cell of the matrix: how often one product touched
// one primary tag, and through which subtags.
type TagCoverage struct {
	Count   int      `json:"count"`
	Subtags []string `json:"subtags"`
}

// Coverage maps product -> primary tag -> coverage.
type Coverage map[string]map[string]TagCoverage

// Analyze builds the coverage matrix over all stored products. Tags and
// subtags named in exclude are left out of every cell.
func Analyze(ctx context.Context, st store.Store, exclude []string) (Coverage, error) {
	skip := make(map[string]struct{}, len(exclude))
	for _, name := range exclude {
		skip[name] = struct{}{}
	}

	metas, err := st.ListProducts(ctx)
	if err != nil {
		return nil, err
	}

	coverage := make(Coverage, len(metas))
	for _, meta := range metas {
		doc, found, err := st.LoadProduct(ctx, meta.Name)
		if err != nil {
			return nil, err
		}
		if !found {
			continue
		}
		cells := make(map[string]TagCoverage)
		for _, f := range doc.Features {
			if f.Tags.Status != feature.StatusTagged {
				continue
			}
			for _, a := range f.Tags.Assignments {
				if _, ok := skip[a.Name]; ok {
					continue
				}
				cell := cells[a.Name]
				cell.Count++
				for _, sub := range a.Subtags {
					if _, ok := skip[sub.Name]; ok {
						continue
					}
					if !contains(cell.Subtags, sub.Name) {
						cell.Subtags = append(cell.Subtags, sub.Name)
					}
				}
				cells[a.Name] = cell
			}
		}
		coverage[meta.Name] = cells
	}
	return coverage, nil
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

// Summarize renders the coverage matrix into a prompt and asks the
// model for a competitive-landscape overview, then stamps the run time
// into the shared bookkeeping document.
func Summarize(ctx context.Context, st store.Store, chatter Chatter, coverage Coverage, selfProduct string) (string, error) {
	products := make([]string, 0, len(coverage))
	for name := range coverage {
		products = append(products, name)
	}
	sort.Strings(products)

	var b strings.Builder
	for _, name := range products {
		label := name
		if name == selfProduct {
			label = name + " (our product)"
		}
		fmt.Fprintf(&b, "## %s\n", label)
		tags := make([]string, 0, len(coverage[name]))
		for tag := range coverage[name] {
			tags = append(tags, tag)
		}
		sort.Strings(tags)
		for _, tag := range tags {
			cell := coverage[name][tag]
			fmt.Fprintf(&b, "- %s: %d features (%s)\n", tag, cell.Count, strings.Join(cell.Subtags, ", "))
		}
		b.WriteString("\n")
	}

	system := "You are a senior product strategy analyst writing a competitive analysis report."
	user := fmt.Sprintf(`Below is a tag coverage matrix: per product, how many shipped
features touched each functional area and through which capabilities.

%s
Write a concise competitive landscape overview: where %s leads, where
it lags, and which areas competitors are investing in most heavily.`,
		b.String(), selfProduct)

	summary, err := chatter.Chat(ctx, system, user)
	if err != nil {
		return "", err
	}

	status, err := st.LoadRunStatus(ctx)
	if err != nil {
		return summary, err
	}
	status.SummaryLastRun = time.Now().UTC().Format(time.RFC3339)
	if err := st.SaveRunStatus(ctx, status); err != nil {
		return summary, err
	}
	return summary, nil
}
