// Package memstore is an in-memory store.Store used by tests.
package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/Yrzhe/vibe-coding-product-changelog/pkg/changelog/feature"
	"github.com/Yrzhe/vibe-coding-product-changelog/pkg/changelog/internalerr"
	"github.com/Yrzhe/vibe-coding-product-changelog/pkg/changelog/runlog"
	"github.com/Yrzhe/vibe-coding-product-changelog/pkg/changelog/store"
	"github.com/Yrzhe/vibe-coding-product-changelog/pkg/changelog/taxonomy"
)

// Store is an in-memory implementation of store.Store.
type Store struct {
	mu       sync.RWMutex
	products map[string]store.ProductDoc
	tax      *taxonomy.Taxonomy
	raw      map[string]string
	status   store.RunStatus
	logs     []runlog.Entry

	// SaveCount counts product document writes; tests use it to verify
	// the per-feature persistence discipline.
	SaveCount int
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		products: make(map[string]store.ProductDoc),
		raw:      make(map[string]string),
	}
}

// Close implements store.Store.
func (s *Store) Close() error { return nil }

// ListProducts returns metadata for every stored product, name-sorted.
func (s *Store) ListProducts(ctx context.Context) ([]store.ProductMeta, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	metas := make([]store.ProductMeta, 0, len(s.products))
	for _, doc := range s.products {
		metas = append(metas, doc.Meta)
	}
	sort.Slice(metas, func(i, j int) bool { return metas[i].Name < metas[j].Name })
	return metas, nil
}

// LoadProduct returns a deep copy of the stored document.
func (s *Store) LoadProduct(ctx context.Context, name string) (store.ProductDoc, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.products[name]
	if !ok {
		return store.ProductDoc{}, false, nil
	}
	return copyDoc(doc), true, nil
}

// SaveProduct rewrites the whole product document.
func (s *Store) SaveProduct(ctx context.Context, doc store.ProductDoc) error {
	if doc.Meta.Name == "" {
		return internalerr.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.products[doc.Meta.Name] = copyDoc(doc)
	s.SaveCount++
	return nil
}

// DeleteProduct removes a product document.
func (s *Store) DeleteProduct(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[name]; !ok {
		return internalerr.ErrNotFound
	}
	delete(s.products, name)
	return nil
}

// LoadTaxonomy returns a deep copy of the taxonomy document.
func (s *Store) LoadTaxonomy(ctx context.Context) (taxonomy.Taxonomy, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.tax == nil {
		return taxonomy.Taxonomy{}, false, nil
	}
	return s.tax.Clone(), true, nil
}

// SaveTaxonomy rewrites the taxonomy document.
func (s *Store) SaveTaxonomy(ctx context.Context, tax taxonomy.Taxonomy) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := tax.Clone()
	s.tax = &cp
	return nil
}

// LoadRawChangelog returns the stored raw changelog text.
func (s *Store) LoadRawChangelog(ctx context.Context, product string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	content, ok := s.raw[product]
	return content, ok, nil
}

// SaveRawChangelog stores the raw changelog text.
func (s *Store) SaveRawChangelog(ctx context.Context, product, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.raw[product] = content
	return nil
}

// LoadRunStatus returns the run bookkeeping document.
func (s *Store) LoadRunStatus(ctx context.Context) (store.RunStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status, nil
}

// SaveRunStatus rewrites the run bookkeeping document.
func (s *Store) SaveRunStatus(ctx context.Context, status store.RunStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
	return nil
}

// AppendRunLog records a run entry.
func (s *Store) AppendRunLog(ctx context.Context, entry runlog.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = append(s.logs, entry)
	return nil
}

// RunLogs returns recorded entries (test helper).
func (s *Store) RunLogs() []runlog.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]runlog.Entry(nil), s.logs...)
}

func copyDoc(doc store.ProductDoc) store.ProductDoc {
	cp := doc
	cp.Features = make([]feature.Feature, len(doc.Features))
	for i, f := range doc.Features {
		fc := f
		fc.Tags.Assignments = copyAssignments(f.Tags.Assignments)
		cp.Features[i] = fc
	}
	return cp
}

func copyAssignments(in []feature.TagAssignment) []feature.TagAssignment {
	if in == nil {
		return nil
	}
	out := make([]feature.TagAssignment, len(in))
	for i, a := range in {
		ac := a
		ac.Subtags = append([]feature.Subtag(nil), a.Subtags...)
		out[i] = ac
	}
	return out
}
