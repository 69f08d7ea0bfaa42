// Package changelog is the feature-tracking engine: it reconciles scraped
// changelog entries against stored product documents by stable identity
// and classifies pending entries through an external oracle into the
// two-level tag taxonomy.
package changelog

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/Yrzhe/vibe-coding-product-changelog/pkg/changelog/feature"
	"github.com/Yrzhe/vibe-coding-product-changelog/pkg/changelog/internalerr"
	"github.com/Yrzhe/vibe-coding-product-changelog/pkg/changelog/runlog"
	"github.com/Yrzhe/vibe-coding-product-changelog/pkg/changelog/store"
	"github.com/Yrzhe/vibe-coding-product-changelog/pkg/changelog/taxonomy"
)

// Oracle proposes subtag names for one feature. An empty, error-free
// result means "not a classifiable feature"; an error means the attempt
// failed and the feature must stay pending.
type Oracle interface {
	Classify(ctx context.Context, title, description string, snapshot taxonomy.Taxonomy) ([]string, error)
}

// Scraper fetches the current changelog entries for one product. An empty
// result must be reported as an error, never as "zero features".
type Scraper interface {
	Scrape(ctx context.Context, product store.ProductMeta) ([]feature.Feature, error)
}

// Engine wires the store, the oracle and the scraper together.
type Engine struct {
	store   store.Store
	oracle  Oracle
	scraper Scraper
	pause   time.Duration
}

// Options configures an Engine.
type Options struct {
	Store   store.Store
	Oracle  Oracle
	Scraper Scraper
	// OraclePause spaces out consecutive oracle calls. Zero disables it.
	OraclePause time.Duration
}

// New creates an Engine with the given dependencies.
func New(opts Options) *Engine {
	return &Engine{
		store:   opts.Store,
		oracle:  opts.Oracle,
		scraper: opts.Scraper,
		pause:   opts.OraclePause,
	}
}

// Close shuts the engine down.
func (e *Engine) Close() error {
	return e.store.Close()
}

// Store exposes the underlying store for collaborators (admin surface).
func (e *Engine) Store() store.Store {
	return e.store
}

// TagReport summarizes one tagging batch. Per-item oracle failures never
// fail the batch; they only show up in Pending.
type TagReport struct {
	Processed  int
	Tagged     int
	Skipped    int // classified as non-functional content
	Pending    int // oracle failed, left for a later run
	NewSubtags []string
}

// TagPending classifies the product's untagged features one at a time.
// After every classified feature the whole product document is written
// back, so an interrupted batch resumes exactly where it stopped: a later
// run selects only the features still untagged. limit <= 0 means no limit.
func (e *Engine) TagPending(ctx context.Context, product string, limit int) (TagReport, error) {
	var report TagReport

	doc, found, err := e.store.LoadProduct(ctx, product)
	if err != nil {
		return report, err
	}
	if !found {
		return report, fmt.Errorf("product %s: %w", product, internalerr.ErrNotFound)
	}

	tax, _, err := e.store.LoadTaxonomy(ctx)
	if err != nil {
		return report, err
	}
	ts := taxonomy.NewStore(tax)
	resolver := &taxonomy.Resolver{Store: ts}

	var pending []int
	for i := range doc.Features {
		if doc.Features[i].Tags.Status == feature.StatusUntagged {
			pending = append(pending, i)
		}
	}
	if limit > 0 && len(pending) > limit {
		pending = pending[:limit]
	}

	for n, i := range pending {
		f := doc.Features[i]

		proposals, err := e.oracle.Classify(ctx, f.Title, f.Description, ts.Snapshot())
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return report, err
			}
			report.Pending++
			log.Printf("tag %s: %q left pending: %v", product, truncate(f.Title, 60), err)
			continue
		}

		if len(proposals) == 0 {
			doc.Features[i].Tags = feature.TagSet{Status: feature.StatusNotApplicable}
			report.Skipped++
		} else {
			res := resolver.Resolve(proposals, "")
			doc.Features[i].Tags = feature.Tagged(res.Assignments)
			if doc.Features[i].Tags.Status == feature.StatusTagged {
				report.Tagged++
			} else {
				report.Skipped++
			}
			if len(res.Created) > 0 {
				report.NewSubtags = append(report.NewSubtags, res.Created...)
				if err := e.store.SaveTaxonomy(ctx, ts.Snapshot()); err != nil {
					return report, fmt.Errorf("save taxonomy: %w", err)
				}
			}
		}

		if err := e.store.SaveProduct(ctx, doc); err != nil {
			return report, fmt.Errorf("save product %s: %w", product, err)
		}
		report.Processed++

		if e.pause > 0 && n < len(pending)-1 {
			select {
			case <-time.After(e.pause):
			case <-ctx.Done():
				return report, ctx.Err()
			}
		}
	}

	return report, nil
}

// UpdateFromScrape merges a scraped feature list into the stored product
// document and classifies whatever came out pending. The previous
// document stays untouched when the fresh list is empty.
func (e *Engine) UpdateFromScrape(ctx context.Context, meta store.ProductMeta, fresh []feature.Feature) (runlog.ProductResult, error) {
	result := runlog.ProductResult{Status: "success"}

	old, _, err := e.store.LoadProduct(ctx, meta.Name)
	if err != nil {
		return runlog.ProductResult{Status: "failed", Error: err.Error()}, err
	}
	result.OldCount = len(old.Features)

	merged, newKeys, err := feature.Merge(feature.Index(old.Features), fresh)
	if err != nil {
		result.Status = "empty_result"
		result.Error = err.Error()
		return result, err
	}
	result.TotalCount = len(merged)
	result.NewCount = len(newKeys)

	for _, f := range merged {
		if _, ok := newKeys[f.Key()]; ok {
			result.NewFeatures = append(result.NewFeatures, runlog.NewFeature{Title: f.Title, Time: f.Time})
		}
	}

	if err := e.store.SaveProduct(ctx, store.ProductDoc{Meta: meta, Features: merged}); err != nil {
		return runlog.ProductResult{Status: "failed", Error: err.Error()}, err
	}

	if len(newKeys) > 0 {
		if _, err := e.TagPending(ctx, meta.Name, 0); err != nil {
			return result, err
		}
	}
	return result, nil
}

// MonitorProduct scrapes one product and applies the incremental update.
// A crawl failure aborts the run for this product without mutating its
// document.
func (e *Engine) MonitorProduct(ctx context.Context, meta store.ProductMeta) (runlog.ProductResult, error) {
	if e.scraper == nil {
		return runlog.ProductResult{Status: "failed", Error: "no scraper configured"},
			fmt.Errorf("monitor %s: no scraper configured", meta.Name)
	}

	fresh, err := e.scraper.Scrape(ctx, meta)
	if err != nil {
		old, _, _ := e.store.LoadProduct(ctx, meta.Name)
		return runlog.ProductResult{
			Status:   "crawler_failed",
			OldCount: len(old.Features),
			Error:    err.Error(),
		}, fmt.Errorf("monitor %s: %w", meta.Name, err)
	}

	return e.UpdateFromScrape(ctx, meta, fresh)
}

// MonitorAll runs the incremental update for every product, records the
// per-product sync state and appends a run log entry when anything new
// was found. One product's failure never aborts the others.
func (e *Engine) MonitorAll(ctx context.Context, products []store.ProductMeta) (runlog.Entry, error) {
	entry := runlog.New()

	status, err := e.store.LoadRunStatus(ctx)
	if err != nil {
		return entry, err
	}
	if status.Products == nil {
		status.Products = make(map[string]store.ProductSync)
	}

	for _, meta := range products {
		result, err := e.MonitorProduct(ctx, meta)
		if err != nil {
			log.Printf("monitor %s: %v", meta.Name, err)
		}
		entry.Updates[meta.Name] = result

		status.Products[meta.Name] = store.ProductSync{
			LastSync:   time.Now().UTC().Format(time.RFC3339),
			LatestDate: e.latestDate(ctx, meta.Name),
		}
	}
	status.CrawlLastRun = time.Now().UTC().Format(time.RFC3339)

	if err := e.store.SaveRunStatus(ctx, status); err != nil {
		return entry, err
	}
	if entry.TotalNew() > 0 {
		if err := e.store.AppendRunLog(ctx, entry); err != nil {
			return entry, err
		}
	}
	return entry, nil
}

// latestDate returns the lexically greatest time string in the stored
// document; date strings sort correctly in YYYY-MM-DD form.
func (e *Engine) latestDate(ctx context.Context, product string) string {
	doc, ok, err := e.store.LoadProduct(ctx, product)
	if err != nil || !ok {
		return ""
	}
	latest := ""
	for _, f := range doc.Features {
		if f.Time > latest {
			latest = f.Time
		}
	}
	return latest
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
