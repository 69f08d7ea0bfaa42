// Package admin implements taxonomy rename and merge operations with
// propagation into every product's stored feature tags.
package admin

import (
	"context"
	"fmt"
	"strings"

	"github.com/Yrzhe/vibe-coding-product-changelog/pkg/changelog/feature"
	"github.com/Yrzhe/vibe-coding-product-changelog/pkg/changelog/internalerr"
	"github.com/Yrzhe/vibe-coding-product-changelog/pkg/changelog/store"
	"github.com/Yrzhe/vibe-coding-product-changelog/pkg/changelog/taxonomy"
)

// Kind selects which taxonomy level an operation targets.
type Kind string

const (
	KindPrimary Kind = "primary"
	KindSubtag  Kind = "subtag"
)

// Mode reports how the operation was dispatched.
type Mode string

const (
	ModeRenamed Mode = "renamed"
	ModeMerged  Mode = "merged"
)

// Result summarizes one rename/merge operation.
type Result struct {
	Mode                Mode `json:"mode"`
	AffectedProducts    int  `json:"affected_products"`
	AffectedAssignments int  `json:"affected_assignments"`
}

// Service runs administrative taxonomy operations against the store.
type Service struct {
	Store store.Store
}

// RenameOrMerge renames a taxonomy node, or merges it into an existing one
// when newName already denotes a node of the same kind (exact match). The
// taxonomy mutation is followed by propagation into every product
// document; only modified documents are rewritten.
func (s *Service) RenameOrMerge(ctx context.Context, oldName, newName string, kind Kind) (Result, error) {
	oldName = strings.TrimSpace(oldName)
	newName = strings.TrimSpace(newName)
	if oldName == "" || newName == "" || oldName == newName {
		return Result{}, internalerr.ErrInvalidInput
	}

	tax, found, err := s.Store.LoadTaxonomy(ctx)
	if err != nil {
		return Result{}, err
	}
	if !found {
		return Result{}, fmt.Errorf("taxonomy: %w", internalerr.ErrNotFound)
	}
	ts := taxonomy.NewStore(tax)

	var mode Mode
	switch kind {
	case KindPrimary:
		if ts.HasPrimary(newName) {
			mode = ModeMerged
			err = ts.MergePrimaries(oldName, newName)
		} else {
			mode = ModeRenamed
			err = ts.RenamePrimary(oldName, newName)
		}
	case KindSubtag:
		if ts.HasSubtag(newName) {
			mode = ModeMerged
			err = ts.MergeSubtags(oldName, newName)
		} else {
			mode = ModeRenamed
			err = ts.RenameSubtag(oldName, newName)
		}
	default:
		return Result{}, fmt.Errorf("kind %q: %w", kind, internalerr.ErrInvalidInput)
	}
	if err != nil {
		return Result{}, err
	}

	result := Result{Mode: mode}
	metas, err := s.Store.ListProducts(ctx)
	if err != nil {
		return Result{}, err
	}
	for _, meta := range metas {
		doc, ok, err := s.Store.LoadProduct(ctx, meta.Name)
		if err != nil {
			return result, err
		}
		if !ok {
			continue
		}
		changed := 0
		for i := range doc.Features {
			if doc.Features[i].Tags.Status != feature.StatusTagged {
				continue
			}
			var n int
			if kind == KindPrimary {
				doc.Features[i].Tags.Assignments, n = rewritePrimary(doc.Features[i].Tags.Assignments, oldName, newName)
			} else {
				doc.Features[i].Tags.Assignments, n = rewriteSubtag(doc.Features[i].Tags.Assignments, oldName, newName)
			}
			changed += n
		}
		if changed == 0 {
			continue
		}
		if err := s.Store.SaveProduct(ctx, doc); err != nil {
			return result, err
		}
		result.AffectedProducts++
		result.AffectedAssignments += changed
	}

	if err := s.Store.SaveTaxonomy(ctx, ts.Snapshot()); err != nil {
		return result, err
	}
	return result, nil
}

// rewritePrimary renames an assignment's primary, folding it into an
// existing assignment for newName when the feature already carries one.
// The returned count is the number of assignments touched.
func rewritePrimary(assignments []feature.TagAssignment, oldName, newName string) ([]feature.TagAssignment, int) {
	changed := 0
	out := make([]feature.TagAssignment, 0, len(assignments))

	for _, a := range assignments {
		if a.Name == oldName {
			a.Name = newName
			changed++
		}
		if prev := findAssignment(out, a.Name); prev >= 0 {
			out[prev].Subtags = unionSubtags(out[prev].Subtags, a.Subtags)
			continue
		}
		out = append(out, a)
	}
	return out, changed
}

// rewriteSubtag renames a subtag inside every assignment, dropping the old
// entry when the new name is already present. The returned count is the
// number of assignments touched.
func rewriteSubtag(assignments []feature.TagAssignment, oldName, newName string) ([]feature.TagAssignment, int) {
	changed := 0
	for i := range assignments {
		touched := false
		renamed := make([]feature.Subtag, 0, len(assignments[i].Subtags))
		seen := make(map[string]struct{}, len(assignments[i].Subtags))
		for _, st := range assignments[i].Subtags {
			if st.Name == oldName {
				st.Name = newName
				touched = true
			}
			if _, dup := seen[st.Name]; dup {
				continue
			}
			seen[st.Name] = struct{}{}
			renamed = append(renamed, st)
		}
		if touched {
			assignments[i].Subtags = renamed
			changed++
		}
	}
	return assignments, changed
}

func findAssignment(assignments []feature.TagAssignment, name string) int {
	for i, a := range assignments {
		if a.Name == name {
			return i
		}
	}
	return -1
}

func unionSubtags(a, b []feature.Subtag) []feature.Subtag {
	seen := make(map[string]struct{}, len(a))
	out := append([]feature.Subtag(nil), a...)
	for _, st := range a {
		seen[st.Name] = struct{}{}
	}
	for _, st := range b {
		if _, dup := seen[st.Name]; dup {
			continue
		}
		seen[st.Name] = struct{}{}
		out = append(out, st)
	}
	return out
}
