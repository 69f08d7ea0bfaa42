package taxonomy

import (
	"testing"
)

func TestResolveDropsPrimaryNames(t *testing.T) {
	r := &Resolver{Store: NewStore(seedTaxonomy())}

	res := r.Resolve([]string{"AI Capabilities", "OpenAI", "integrations"}, "")
	if len(res.Dropped) != 2 {
		t.Fatalf("dropped = %v, want the two primary names", res.Dropped)
	}
	if len(res.Assignments) != 1 || res.Assignments[0].Name != "AI Capabilities" {
		t.Fatalf("assignments = %+v", res.Assignments)
	}
	if got := res.Assignments[0].Subtags[0].Name; got != "OpenAI" {
		t.Errorf("subtag = %q, want OpenAI", got)
	}
}

func TestResolveFoldsSpellingVariants(t *testing.T) {
	r := &Resolver{Store: NewStore(seedTaxonomy())}

	res := r.Resolve([]string{"open ai", "open-ai", "OpenAI"}, "")
	if len(res.Created) != 0 {
		t.Errorf("variants registered as new: %v", res.Created)
	}
	if len(res.Assignments) != 1 || len(res.Assignments[0].Subtags) != 1 {
		t.Fatalf("variants not folded: %+v", res.Assignments)
	}
	if res.Assignments[0].Subtags[0].Name != "OpenAI" {
		t.Errorf("canonical spelling lost: %q", res.Assignments[0].Subtags[0].Name)
	}
}

func TestResolveRegistersNovelUnderHint(t *testing.T) {
	store := NewStore(seedTaxonomy())
	r := &Resolver{Store: store}

	res := r.Resolve([]string{"Stripe"}, "Integrations")
	if len(res.Created) != 1 || res.Created[0] != "Stripe" {
		t.Fatalf("created = %v", res.Created)
	}
	if res.Assignments[0].Name != "Integrations" {
		t.Errorf("registered under %q, want Integrations", res.Assignments[0].Name)
	}
	if !store.HasSubtag("Stripe") {
		t.Error("novel subtag not persisted to the store")
	}
}

func TestResolveNovelFallsBackToOthers(t *testing.T) {
	store := NewStore(seedTaxonomy())
	r := &Resolver{Store: store}

	res := r.Resolve([]string{"Quantum Widgets"}, "")
	if res.Assignments[0].Name != DefaultPrimary {
		t.Fatalf("novel landed under %q, want %q", res.Assignments[0].Name, DefaultPrimary)
	}
	if !store.HasPrimary(DefaultPrimary) {
		t.Error("catch-all primary not materialized")
	}

	// An unknown hint also falls back.
	res = r.Resolve([]string{"Another Thing"}, "No Such Primary")
	if res.Assignments[0].Name != DefaultPrimary {
		t.Errorf("unknown hint landed under %q", res.Assignments[0].Name)
	}
}

func TestResolveGroupsByPrimaryInFirstAppearanceOrder(t *testing.T) {
	r := &Resolver{Store: NewStore(seedTaxonomy())}

	res := r.Resolve([]string{"GitHub", "OpenAI", "Anthropic"}, "")
	if len(res.Assignments) != 2 {
		t.Fatalf("assignments = %+v", res.Assignments)
	}
	if res.Assignments[0].Name != "Integrations" || res.Assignments[1].Name != "AI Capabilities" {
		t.Errorf("grouping order wrong: %q, %q", res.Assignments[0].Name, res.Assignments[1].Name)
	}
	if len(res.Assignments[1].Subtags) != 2 {
		t.Errorf("AI Capabilities subtags = %+v", res.Assignments[1].Subtags)
	}
}

func TestResolveSkipsBlankProposals(t *testing.T) {
	r := &Resolver{Store: NewStore(seedTaxonomy())}

	res := r.Resolve([]string{"", "   ", "GitHub"}, "")
	if len(res.Assignments) != 1 || len(res.Assignments[0].Subtags) != 1 {
		t.Fatalf("blank proposals not skipped: %+v", res.Assignments)
	}
	if len(res.Created) != 0 {
		t.Errorf("blank proposal registered: %v", res.Created)
	}
}

func TestResolveMixedKnownAndNovel(t *testing.T) {
	store := NewStore(seedTaxonomy())
	r := &Resolver{Store: store}

	res := r.Resolve([]string{"Open AI", "agent mode"}, "")
	if len(res.Assignments) != 2 {
		t.Fatalf("assignments = %+v", res.Assignments)
	}
	if res.Assignments[0].Name != "AI Capabilities" || res.Assignments[0].Subtags[0].Name != "OpenAI" {
		t.Errorf("known variant resolution: %+v", res.Assignments[0])
	}
	if res.Assignments[1].Name != DefaultPrimary || res.Assignments[1].Subtags[0].Name != "agent mode" {
		t.Errorf("novel resolution: %+v", res.Assignments[1])
	}
	if _, primary, ok := store.ResolveSubtag("agent mode"); !ok || primary != DefaultPrimary {
		t.Error("novel subtag missing from the reverse index")
	}
}

func TestResolveIsIdempotentForRegisteredNames(t *testing.T) {
	store := NewStore(seedTaxonomy())
	r := &Resolver{Store: store}

	first := r.Resolve([]string{"New Thing"}, "Integrations")
	if len(first.Created) != 1 {
		t.Fatalf("created = %v", first.Created)
	}
	second := r.Resolve([]string{"new-thing"}, "")
	if len(second.Created) != 0 {
		t.Errorf("second resolve re-created: %v", second.Created)
	}
	if second.Assignments[0].Name != "Integrations" {
		t.Errorf("second resolve landed under %q", second.Assignments[0].Name)
	}
}
