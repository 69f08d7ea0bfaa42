package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/Yrzhe/vibe-coding-product-changelog/pkg/changelog/feature"
	"github.com/Yrzhe/vibe-coding-product-changelog/pkg/changelog/internalerr"
	"github.com/Yrzhe/vibe-coding-product-changelog/pkg/changelog/runlog"
	"github.com/Yrzhe/vibe-coding-product-changelog/pkg/changelog/store"
	"github.com/Yrzhe/vibe-coding-product-changelog/pkg/changelog/taxonomy"
)

func openStore(t *testing.T) store.Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestProductUpsertAndDelete(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	doc := store.ProductDoc{
		Meta: store.ProductMeta{Name: "alpha", URL: "https://alpha.example"},
		Features: []feature.Feature{
			{Title: "A", Time: "2025-01-01"},
		},
	}
	if err := s.SaveProduct(ctx, doc); err != nil {
		t.Fatal(err)
	}

	// Saving again replaces the document, not appends.
	doc.Features = append(doc.Features, feature.Feature{Title: "B", Time: "2025-01-02"})
	if err := s.SaveProduct(ctx, doc); err != nil {
		t.Fatal(err)
	}

	back, found, err := s.LoadProduct(ctx, "alpha")
	if err != nil || !found {
		t.Fatalf("load: found=%v err=%v", found, err)
	}
	if len(back.Features) != 2 {
		t.Errorf("features = %d, want 2", len(back.Features))
	}

	metas, err := s.ListProducts(ctx)
	if err != nil || len(metas) != 1 {
		t.Errorf("list = %+v err=%v", metas, err)
	}

	if err := s.DeleteProduct(ctx, "alpha"); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteProduct(ctx, "alpha"); !errors.Is(err, internalerr.ErrNotFound) {
		t.Errorf("double delete: %v", err)
	}
	if err := s.SaveProduct(ctx, store.ProductDoc{}); !errors.Is(err, internalerr.ErrInvalidInput) {
		t.Errorf("nameless save: %v", err)
	}
}

func TestSingletonDocuments(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	if _, found, err := s.LoadTaxonomy(ctx); err != nil || found {
		t.Fatalf("empty taxonomy: found=%v err=%v", found, err)
	}
	tax := taxonomy.Taxonomy{
		PrimaryTags: []taxonomy.PrimaryTag{{Name: "AI", Subtags: []taxonomy.Subtag{{Name: "OpenAI"}}}},
	}
	if err := s.SaveTaxonomy(ctx, tax); err != nil {
		t.Fatal(err)
	}
	tax.PrimaryTags[0].Name = "Models"
	if err := s.SaveTaxonomy(ctx, tax); err != nil {
		t.Fatal(err)
	}
	back, found, err := s.LoadTaxonomy(ctx)
	if err != nil || !found || len(back.PrimaryTags) != 1 || back.PrimaryTags[0].Name != "Models" {
		t.Errorf("taxonomy upsert: %+v found=%v err=%v", back, found, err)
	}

	status, err := s.LoadRunStatus(ctx)
	if err != nil || status.CrawlLastRun != "" {
		t.Fatalf("empty status: %+v err=%v", status, err)
	}
	status.SummaryLastRun = "2025-06-01T12:00:00Z"
	if err := s.SaveRunStatus(ctx, status); err != nil {
		t.Fatal(err)
	}
	back2, err := s.LoadRunStatus(ctx)
	if err != nil || back2.SummaryLastRun != status.SummaryLastRun {
		t.Errorf("status upsert: %+v err=%v", back2, err)
	}
}

func TestRawChangelogUpsert(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	if err := s.SaveRawChangelog(ctx, "alpha", "first"); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveRawChangelog(ctx, "alpha", "second"); err != nil {
		t.Fatal(err)
	}
	content, found, err := s.LoadRawChangelog(ctx, "alpha")
	if err != nil || !found || content != "second" {
		t.Errorf("raw = %q found=%v err=%v", content, found, err)
	}
}

func TestAppendRunLog(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	a := runlog.New()
	a.Updates["alpha"] = runlog.ProductResult{Status: "success", NewCount: 1}
	b := runlog.New()

	if err := s.AppendRunLog(ctx, a); err != nil {
		t.Fatal(err)
	}
	if err := s.AppendRunLog(ctx, b); err != nil {
		t.Fatal(err)
	}
	// Same ID twice violates the primary key.
	if err := s.AppendRunLog(ctx, a); err == nil {
		t.Error("duplicate run log accepted")
	}
}
