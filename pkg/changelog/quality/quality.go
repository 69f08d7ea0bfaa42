// Package quality inspects stored product documents for data defects:
// missing or malformed dates, untagged backlogs, known junk titles.
package quality

import (
	"context"
	"regexp"

	"github.com/Yrzhe/vibe-coding-product-changelog/pkg/changelog/feature"
	"github.com/Yrzhe/vibe-coding-product-changelog/pkg/changelog/store"
)

var isoDateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`)

// ProductReport is the per-product quality summary.
type ProductReport struct {
	Product       string `json:"product"`
	Total         int    `json:"total"`
	WithDate      int    `json:"with_date"`
	Tagged        int    `json:"tagged"`
	NotApplicable int    `json:"not_applicable"`
	Untagged      int    `json:"untagged"`
}

// Healthy reports whether the document passes the baseline checks: it
// has entries and at least half of them carry a full date.
func (r ProductReport) Healthy() bool {
	return r.Total > 0 && r.WithDate*2 >= r.Total
}

// CheckProduct computes the quality summary for one document.
func CheckProduct(doc store.ProductDoc) ProductReport {
	r := ProductReport{Product: doc.Meta.Name, Total: len(doc.Features)}
	for _, f := range doc.Features {
		if isoDateRe.MatchString(f.Time) {
			r.WithDate++
		}
		switch f.Tags.Status {
		case feature.StatusTagged:
			r.Tagged++
		case feature.StatusNotApplicable:
			r.NotApplicable++
		default:
			r.Untagged++
		}
	}
	return r
}

// Check runs CheckProduct over every stored product.
func Check(ctx context.Context, st store.Store) ([]ProductReport, error) {
	metas, err := st.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	reports := make([]ProductReport, 0, len(metas))
	for _, meta := range metas {
		doc, found, err := st.LoadProduct(ctx, meta.Name)
		if err != nil {
			return nil, err
		}
		if !found {
			continue
		}
		reports = append(reports, CheckProduct(doc))
	}
	return reports, nil
}

// PruneInvalid removes entries whose titles are on the junk list and
// clears date fields where the crawler leaked a page heading instead of
// a date, writing the document back only when something changed.
func PruneInvalid(ctx context.Context, st store.Store, product string, junkTitles []string) (removed, cleared int, err error) {
	doc, found, err := st.LoadProduct(ctx, product)
	if err != nil || !found {
		return 0, 0, err
	}

	junk := make(map[string]struct{}, len(junkTitles))
	for _, t := range junkTitles {
		junk[t] = struct{}{}
	}

	kept := doc.Features[:0]
	for _, f := range doc.Features {
		if _, bad := junk[f.Title]; bad {
			removed++
			continue
		}
		if f.Time == "Changelog" {
			f.Time = ""
			cleared++
		}
		kept = append(kept, f)
	}
	if removed == 0 && cleared == 0 {
		return 0, 0, nil
	}
	doc.Features = kept
	return removed, cleared, st.SaveProduct(ctx, doc)
}
