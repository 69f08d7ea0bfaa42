package quality

import (
	"context"
	"testing"

	"github.com/Yrzhe/vibe-coding-product-changelog/pkg/changelog/feature"
	"github.com/Yrzhe/vibe-coding-product-changelog/pkg/changelog/store"
	"github.com/Yrzhe/vibe-coding-product-changelog/pkg/changelog/store/memstore"
)

func taggedSet() feature.TagSet {
	return feature.TagSet{
		Status: feature.StatusTagged,
		Assignments: []feature.TagAssignment{
			{Name: "AI", Subtags: []feature.Subtag{{Name: "OpenAI"}}},
		},
	}
}

func TestCheckProduct(t *testing.T) {
	doc := store.ProductDoc{
		Meta: store.ProductMeta{Name: "alpha"},
		Features: []feature.Feature{
			{Title: "A", Time: "2025-01-01", Tags: taggedSet()},
			{Title: "B", Time: "March 2025"},
			{Title: "C", Time: "", Tags: feature.TagSet{Status: feature.StatusNotApplicable}},
			{Title: "D", Time: "2025-02-01"},
		},
	}
	r := CheckProduct(doc)
	if r.Total != 4 || r.WithDate != 2 || r.Tagged != 1 || r.NotApplicable != 1 || r.Untagged != 2 {
		t.Errorf("report = %+v", r)
	}
	if !r.Healthy() {
		t.Error("half-dated document should be healthy")
	}

	empty := CheckProduct(store.ProductDoc{Meta: store.ProductMeta{Name: "empty"}})
	if empty.Healthy() {
		t.Error("empty document reported healthy")
	}
}

func TestCheckWalksAllProducts(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()
	for _, name := range []string{"alpha", "beta"} {
		if err := st.SaveProduct(ctx, store.ProductDoc{
			Meta:     store.ProductMeta{Name: name},
			Features: []feature.Feature{{Title: "X", Time: "2025-01-01"}},
		}); err != nil {
			t.Fatal(err)
		}
	}
	reports, err := Check(ctx, st)
	if err != nil {
		t.Fatal(err)
	}
	if len(reports) != 2 {
		t.Errorf("reports = %+v", reports)
	}
}

func TestPruneInvalid(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()
	if err := st.SaveProduct(ctx, store.ProductDoc{
		Meta: store.ProductMeta{Name: "alpha"},
		Features: []feature.Feature{
			{Title: "Keep me", Time: "2025-01-01"},
			{Title: "Matt Palmer", Time: "2025-01-01"},
			{Title: "Heading leak", Time: "Changelog"},
		},
	}); err != nil {
		t.Fatal(err)
	}

	removed, cleared, err := PruneInvalid(ctx, st, "alpha", []string{"Matt Palmer"})
	if err != nil {
		t.Fatal(err)
	}
	if removed != 1 || cleared != 1 {
		t.Errorf("removed=%d cleared=%d", removed, cleared)
	}

	doc, _, _ := st.LoadProduct(ctx, "alpha")
	if len(doc.Features) != 2 {
		t.Fatalf("features = %+v", doc.Features)
	}
	if doc.Features[1].Time != "" {
		t.Errorf("leaked heading not cleared: %q", doc.Features[1].Time)
	}

	// Nothing to do: no write.
	before := st.SaveCount
	if _, _, err := PruneInvalid(ctx, st, "alpha", nil); err != nil {
		t.Fatal(err)
	}
	if st.SaveCount != before {
		t.Error("clean document rewritten")
	}
}
