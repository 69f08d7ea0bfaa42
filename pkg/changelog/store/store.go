// Package store defines persistence for product documents, the taxonomy
// document and run bookkeeping. Every mutation rewrites the affected
// document wholesale; there is no append log, which keeps retries
// idempotent and interrupted batches resumable.
package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Yrzhe/vibe-coding-product-changelog/pkg/changelog/feature"
	"github.com/Yrzhe/vibe-coding-product-changelog/pkg/changelog/internalerr"
	"github.com/Yrzhe/vibe-coding-product-changelog/pkg/changelog/runlog"
	"github.com/Yrzhe/vibe-coding-product-changelog/pkg/changelog/taxonomy"
)

// ProductMeta identifies one tracked product.
type ProductMeta struct {
	Name   string `json:"name"`
	URL    string `json:"url"`
	IsSelf bool   `json:"is_self,omitempty"`
}

// ProductDoc is the full persisted state for one product.
type ProductDoc struct {
	Meta     ProductMeta
	Features []feature.Feature
}

// ProductSync is the per-product sync bookkeeping.
type ProductSync struct {
	LastSync   string `json:"last_sync"`
	LatestDate string `json:"latest_date,omitempty"`
}

// RunStatus is the shared run bookkeeping document.
type RunStatus struct {
	CrawlLastRun   string                 `json:"crawl_last_run,omitempty"`
	SummaryLastRun string                 `json:"summary_last_run,omitempty"`
	Products       map[string]ProductSync `json:"products,omitempty"`
}

// Store persists product documents, the taxonomy and run bookkeeping.
type Store interface {
	Close() error

	// Products
	ListProducts(ctx context.Context) ([]ProductMeta, error)
	LoadProduct(ctx context.Context, name string) (ProductDoc, bool, error)
	SaveProduct(ctx context.Context, doc ProductDoc) error
	DeleteProduct(ctx context.Context, name string) error

	// Taxonomy
	LoadTaxonomy(ctx context.Context) (taxonomy.Taxonomy, bool, error)
	SaveTaxonomy(ctx context.Context, tax taxonomy.Taxonomy) error

	// Raw scraped changelog text, kept for re-parsing
	LoadRawChangelog(ctx context.Context, product string) (string, bool, error)
	SaveRawChangelog(ctx context.Context, product, content string) error

	// Run bookkeeping
	LoadRunStatus(ctx context.Context) (RunStatus, error)
	SaveRunStatus(ctx context.Context, status RunStatus) error
	AppendRunLog(ctx context.Context, entry runlog.Entry) error
}

// productBody is the second element of the persisted product pair.
type productBody struct {
	Name     string            `json:"name"`
	Features []feature.Feature `json:"features"`
}

// EncodeProductDoc renders the legacy wire shape: an ordered pair of the
// metadata object and the feature collection.
func EncodeProductDoc(doc ProductDoc) ([]byte, error) {
	features := doc.Features
	if features == nil {
		features = []feature.Feature{}
	}
	pair := []interface{}{
		doc.Meta,
		productBody{Name: "feature", Features: features},
	}
	return json.MarshalIndent(pair, "", "    ")
}

// DecodeProductDoc parses the legacy wire shape. A document without the
// expected two-element structure is corrupt; the caller must fail that
// product's run without touching others.
func DecodeProductDoc(data []byte) (ProductDoc, error) {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return ProductDoc{}, fmt.Errorf("%w: %v", internalerr.ErrCorruptDocument, err)
	}
	if len(pair) < 2 {
		return ProductDoc{}, fmt.Errorf("%w: expected [metadata, features] pair, got %d elements",
			internalerr.ErrCorruptDocument, len(pair))
	}
	var doc ProductDoc
	if err := json.Unmarshal(pair[0], &doc.Meta); err != nil {
		return ProductDoc{}, fmt.Errorf("%w: metadata: %v", internalerr.ErrCorruptDocument, err)
	}
	var body productBody
	if err := json.Unmarshal(pair[1], &body); err != nil {
		return ProductDoc{}, fmt.Errorf("%w: feature collection: %v", internalerr.ErrCorruptDocument, err)
	}
	doc.Features = body.Features
	return doc, nil
}
