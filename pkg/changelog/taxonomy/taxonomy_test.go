package taxonomy

import (
	"errors"
	"testing"

	"github.com/Yrzhe/vibe-coding-product-changelog/pkg/changelog/internalerr"
)

func seedTaxonomy() Taxonomy {
	return Taxonomy{
		PrimaryTags: []PrimaryTag{
			{Name: "AI Capabilities", Subtags: []Subtag{
				{Name: "OpenAI"}, {Name: "Anthropic"},
			}},
			{Name: "Integrations", Subtags: []Subtag{
				{Name: "GitHub"},
			}},
		},
	}
}

func TestReindexRebuildsReverseIndex(t *testing.T) {
	tax := seedTaxonomy()
	// A stale reverse index must be discarded in favor of the hierarchy.
	tax.SubtagToPrimary = map[string]string{"Ghost": "AI Capabilities"}

	s := NewStore(tax)
	if _, _, ok := s.ResolveSubtag("Ghost"); ok {
		t.Error("stale reverse-index entry survived reindexing")
	}
	if _, primary, ok := s.ResolveSubtag("GitHub"); !ok || primary != "Integrations" {
		t.Errorf("ResolveSubtag(GitHub) = %q, %v", primary, ok)
	}
}

func TestResolveByCanonicalKey(t *testing.T) {
	s := NewStore(seedTaxonomy())

	if got, ok := s.ResolvePrimary("ai-capabilities"); !ok || got != "AI Capabilities" {
		t.Errorf("ResolvePrimary = %q, %v", got, ok)
	}
	if got, _, ok := s.ResolveSubtag("open ai"); !ok || got != "OpenAI" {
		t.Errorf("ResolveSubtag = %q, %v", got, ok)
	}
	if _, _, ok := s.ResolveSubtag("Stripe"); ok {
		t.Error("unknown name resolved")
	}
}

func TestRegisterNewSubtag(t *testing.T) {
	s := NewStore(seedTaxonomy())

	if err := s.RegisterNewSubtag("Integrations", "Supabase"); err != nil {
		t.Fatal(err)
	}
	if got, primary, ok := s.ResolveSubtag("supabase"); !ok || got != "Supabase" || primary != "Integrations" {
		t.Errorf("new subtag not resolvable: %q %q %v", got, primary, ok)
	}

	// Same canonical key under a different primary is a collision.
	err := s.RegisterNewSubtag("AI Capabilities", "supa-base")
	if !errors.Is(err, internalerr.ErrSubtagCollision) {
		t.Errorf("expected ErrSubtagCollision, got %v", err)
	}

	// A subtag name folding to a primary name is rejected.
	err = s.RegisterNewSubtag("Integrations", "integrations")
	if !errors.Is(err, internalerr.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}

	err = s.RegisterNewSubtag("Nope", "Anything")
	if !errors.Is(err, internalerr.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown primary, got %v", err)
	}
}

func TestRenamePrimary(t *testing.T) {
	s := NewStore(seedTaxonomy())

	if err := s.RenamePrimary("AI Capabilities", "AI Models"); err != nil {
		t.Fatal(err)
	}
	if s.HasPrimary("AI Capabilities") {
		t.Error("old name still present")
	}
	if _, primary, _ := s.ResolveSubtag("OpenAI"); primary != "AI Models" {
		t.Errorf("reverse index points at %q, want AI Models", primary)
	}

	err := s.RenamePrimary("AI Models", "Integrations")
	if !errors.Is(err, internalerr.ErrDuplicate) {
		t.Errorf("expected ErrDuplicate, got %v", err)
	}
}

func TestMergePrimaries(t *testing.T) {
	tax := seedTaxonomy()
	tax.PrimaryTags[1].Subtags = append(tax.PrimaryTags[1].Subtags, Subtag{Name: "OpenAI"})
	s := NewStore(tax)

	if err := s.MergePrimaries("Integrations", "AI Capabilities"); err != nil {
		t.Fatal(err)
	}
	if s.HasPrimary("Integrations") {
		t.Error("merged primary still present")
	}
	snapshot := s.Snapshot()
	if len(snapshot.PrimaryTags) != 1 {
		t.Fatalf("primary count = %d, want 1", len(snapshot.PrimaryTags))
	}
	names := map[string]int{}
	for _, st := range snapshot.PrimaryTags[0].Subtags {
		names[st.Name]++
	}
	if names["OpenAI"] != 1 {
		t.Errorf("OpenAI appears %d times after merge, want 1", names["OpenAI"])
	}
	if names["GitHub"] != 1 {
		t.Error("GitHub lost during merge")
	}
}

func TestRenameAndMergeSubtags(t *testing.T) {
	s := NewStore(seedTaxonomy())

	if err := s.RenameSubtag("OpenAI", "Open AI Platform"); err != nil {
		t.Fatal(err)
	}
	if s.HasSubtag("OpenAI") {
		t.Error("old subtag name still registered")
	}
	if _, primary, ok := s.ResolveSubtag("Open AI Platform"); !ok || primary != "AI Capabilities" {
		t.Errorf("renamed subtag resolves to %q, %v", primary, ok)
	}

	if err := s.MergeSubtags("Anthropic", "Open AI Platform"); err != nil {
		t.Fatal(err)
	}
	if s.HasSubtag("Anthropic") {
		t.Error("merged subtag still registered")
	}

	err := s.RenameSubtag("Missing", "X")
	if !errors.Is(err, internalerr.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	err = s.MergeSubtags("GitHub", "Missing")
	if !errors.Is(err, internalerr.ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing target, got %v", err)
	}
}

func TestSnapshotIsDetached(t *testing.T) {
	s := NewStore(seedTaxonomy())
	snap := s.Snapshot()
	snap.PrimaryTags[0].Name = "Mutated"

	if !s.HasPrimary("AI Capabilities") {
		t.Error("mutating a snapshot leaked into the store")
	}
}
