package admin

import (
	"context"
	"errors"
	"testing"

	"github.com/Yrzhe/vibe-coding-product-changelog/pkg/changelog/feature"
	"github.com/Yrzhe/vibe-coding-product-changelog/pkg/changelog/internalerr"
	"github.com/Yrzhe/vibe-coding-product-changelog/pkg/changelog/store"
	"github.com/Yrzhe/vibe-coding-product-changelog/pkg/changelog/store/memstore"
	"github.com/Yrzhe/vibe-coding-product-changelog/pkg/changelog/taxonomy"
)

func seedStore(t *testing.T) *memstore.Store {
	t.Helper()
	ctx := context.Background()
	st := memstore.New()

	tax := taxonomy.Taxonomy{
		PrimaryTags: []taxonomy.PrimaryTag{
			{Name: "AI", Subtags: []taxonomy.Subtag{{Name: "OpenAI"}, {Name: "Anthropic"}}},
			{Name: "Integrations", Subtags: []taxonomy.Subtag{{Name: "GitHub"}}},
		},
	}
	if err := st.SaveTaxonomy(ctx, tax); err != nil {
		t.Fatal(err)
	}

	docs := []store.ProductDoc{
		{
			Meta: store.ProductMeta{Name: "alpha"},
			Features: []feature.Feature{
				{
					Title: "Model picker", Time: "2025-01-01",
					Tags: feature.TagSet{Status: feature.StatusTagged, Assignments: []feature.TagAssignment{
						{Name: "AI", Subtags: []feature.Subtag{{Name: "OpenAI"}}},
					}},
				},
				{Title: "Pending thing", Time: "2025-01-02"},
			},
		},
		{
			Meta: store.ProductMeta{Name: "beta"},
			Features: []feature.Feature{
				{
					Title: "Claude support", Time: "2025-02-01",
					Tags: feature.TagSet{Status: feature.StatusTagged, Assignments: []feature.TagAssignment{
						{Name: "AI", Subtags: []feature.Subtag{{Name: "Anthropic"}, {Name: "OpenAI"}}},
						{Name: "Integrations", Subtags: []feature.Subtag{{Name: "GitHub"}}},
					}},
				},
			},
		},
	}
	for _, doc := range docs {
		if err := st.SaveProduct(ctx, doc); err != nil {
			t.Fatal(err)
		}
	}
	return st
}

func TestRenameSubtagPropagates(t *testing.T) {
	ctx := context.Background()
	st := seedStore(t)
	svc := &Service{Store: st}

	result, err := svc.RenameOrMerge(ctx, "OpenAI", "OpenAI Platform", KindSubtag)
	if err != nil {
		t.Fatal(err)
	}
	if result.Mode != ModeRenamed {
		t.Errorf("mode = %v, want renamed", result.Mode)
	}
	if result.AffectedProducts != 2 || result.AffectedAssignments != 2 {
		t.Errorf("result = %+v", result)
	}

	tax, _, _ := st.LoadTaxonomy(ctx)
	ts := taxonomy.NewStore(tax)
	if ts.HasSubtag("OpenAI") {
		t.Error("old subtag survived in taxonomy")
	}
	if !ts.HasSubtag("OpenAI Platform") {
		t.Error("new subtag missing from taxonomy")
	}

	for _, product := range []string{"alpha", "beta"} {
		doc, _, _ := st.LoadProduct(ctx, product)
		for _, f := range doc.Features {
			for _, a := range f.Tags.Assignments {
				for _, sub := range a.Subtags {
					if sub.Name == "OpenAI" {
						t.Errorf("%s/%s still references the old subtag", product, f.Title)
					}
				}
			}
		}
	}
}

func TestMergeSubtagDedupsInsideAssignment(t *testing.T) {
	ctx := context.Background()
	st := seedStore(t)
	svc := &Service{Store: st}

	result, err := svc.RenameOrMerge(ctx, "OpenAI", "Anthropic", KindSubtag)
	if err != nil {
		t.Fatal(err)
	}
	if result.Mode != ModeMerged {
		t.Errorf("mode = %v, want merged", result.Mode)
	}

	doc, _, _ := st.LoadProduct(ctx, "beta")
	ai := doc.Features[0].Tags.Assignments[0]
	if len(ai.Subtags) != 1 || ai.Subtags[0].Name != "Anthropic" {
		t.Errorf("subtags after merge = %+v", ai.Subtags)
	}
}

func TestMergePrimariesFoldsAssignments(t *testing.T) {
	ctx := context.Background()
	st := seedStore(t)
	svc := &Service{Store: st}

	result, err := svc.RenameOrMerge(ctx, "Integrations", "AI", KindPrimary)
	if err != nil {
		t.Fatal(err)
	}
	if result.Mode != ModeMerged {
		t.Errorf("mode = %v, want merged", result.Mode)
	}

	doc, _, _ := st.LoadProduct(ctx, "beta")
	assignments := doc.Features[0].Tags.Assignments
	if len(assignments) != 1 {
		t.Fatalf("assignments not folded: %+v", assignments)
	}
	names := map[string]bool{}
	for _, sub := range assignments[0].Subtags {
		names[sub.Name] = true
	}
	if !names["GitHub"] || !names["OpenAI"] || !names["Anthropic"] {
		t.Errorf("folded subtags = %v", names)
	}
}

func TestRenamePrimaryLeavesUntouchedProductsAlone(t *testing.T) {
	ctx := context.Background()
	st := seedStore(t)
	svc := &Service{Store: st}

	before := st.SaveCount
	result, err := svc.RenameOrMerge(ctx, "Integrations", "Connections", KindPrimary)
	if err != nil {
		t.Fatal(err)
	}
	if result.AffectedProducts != 1 {
		t.Errorf("affected products = %d, want 1 (only beta references Integrations)", result.AffectedProducts)
	}
	if st.SaveCount-before != 1 {
		t.Errorf("product writes = %d, want 1", st.SaveCount-before)
	}
}

func TestRenameOrMergeValidation(t *testing.T) {
	ctx := context.Background()
	svc := &Service{Store: seedStore(t)}

	if _, err := svc.RenameOrMerge(ctx, "", "X", KindSubtag); !errors.Is(err, internalerr.ErrInvalidInput) {
		t.Errorf("empty old name: %v", err)
	}
	if _, err := svc.RenameOrMerge(ctx, "A", "A", KindSubtag); !errors.Is(err, internalerr.ErrInvalidInput) {
		t.Errorf("identical names: %v", err)
	}
	if _, err := svc.RenameOrMerge(ctx, "Missing", "X", KindSubtag); !errors.Is(err, internalerr.ErrNotFound) {
		t.Errorf("missing node: %v", err)
	}
	if _, err := svc.RenameOrMerge(ctx, "A", "B", Kind("bogus")); !errors.Is(err, internalerr.ErrInvalidInput) {
		t.Errorf("bogus kind: %v", err)
	}
}
