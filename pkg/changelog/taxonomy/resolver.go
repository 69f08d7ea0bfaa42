package taxonomy

import (
	"strings"

	"github.com/Yrzhe/vibe-coding-product-changelog/pkg/changelog/feature"
)

// Resolver validates and normalizes the oracle's raw subtag proposals,
// growing the taxonomy when genuinely novel names appear.
type Resolver struct {
	Store *Store
}

// Resolution is the outcome of resolving one proposal list.
type Resolution struct {
	Assignments []feature.TagAssignment
	Dropped     []string // proposals rejected as primary-tag names
	Created     []string // novel subtags registered during this call
}

// Resolve processes each proposed name in order:
//
//  1. a name folding to a registered primary tag is dropped — a valid
//     classification never equals a primary-tag name;
//  2. a name folding to a registered subtag uses the canonical spelling
//     and its owning primary;
//  3. anything else is registered as a new subtag under primaryHint when
//     that primary exists, otherwise under the "Others" catch-all,
//     created on first use.
//
// Resolved pairs are grouped by primary, subtags deduplicated by resolved
// name. Resolving already-registered names is idempotent: the store is
// untouched and the grouping is stable.
func (r *Resolver) Resolve(proposed []string, primaryHint string) Resolution {
	var res Resolution

	order := make([]string, 0, len(proposed))
	byPrimary := make(map[string][]feature.Subtag)
	seen := make(map[string]map[string]struct{})

	add := func(primary, subtag string) {
		if _, ok := byPrimary[primary]; !ok {
			order = append(order, primary)
			seen[primary] = make(map[string]struct{})
		}
		if _, dup := seen[primary][subtag]; dup {
			return
		}
		seen[primary][subtag] = struct{}{}
		byPrimary[primary] = append(byPrimary[primary], feature.Subtag{Name: subtag})
	}

	for _, raw := range proposed {
		name := strings.TrimSpace(raw)
		if name == "" {
			continue
		}

		if registered, ok := r.Store.ResolvePrimary(name); ok {
			res.Dropped = append(res.Dropped, registered)
			continue
		}

		if subtag, primary, ok := r.Store.ResolveSubtag(name); ok {
			add(primary, subtag)
			continue
		}

		primary := r.targetPrimary(primaryHint)
		if err := r.Store.RegisterNewSubtag(primary, name); err != nil {
			// A concurrent duplicate within this same proposal list; fold
			// onto whatever registration won.
			if subtag, owner, ok := r.Store.ResolveSubtag(name); ok {
				add(owner, subtag)
			}
			continue
		}
		res.Created = append(res.Created, name)
		add(primary, name)
	}

	for _, primary := range order {
		res.Assignments = append(res.Assignments, feature.TagAssignment{
			Name:    primary,
			Subtags: byPrimary[primary],
		})
	}
	return res
}

// targetPrimary picks where a novel subtag lands, creating the catch-all
// primary on first use.
func (r *Resolver) targetPrimary(hint string) string {
	if hint != "" {
		if registered, ok := r.Store.ResolvePrimary(hint); ok {
			return registered
		}
	}
	if registered, ok := r.Store.ResolvePrimary(DefaultPrimary); ok {
		return registered
	}
	// First novel subtag ever: materialize the catch-all.
	_ = r.Store.RegisterNewPrimary(DefaultPrimary, nil)
	return DefaultPrimary
}
