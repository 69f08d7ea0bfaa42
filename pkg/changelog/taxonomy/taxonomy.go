// Package taxonomy models the two-level tag hierarchy and its resolution
// rules. A Store wraps the persisted Taxonomy document with canonical-key
// indexes so that differently spelled names ("Open AI", "open-ai") fold to
// one registered tag.
package taxonomy

import (
	"fmt"

	"github.com/Yrzhe/vibe-coding-product-changelog/pkg/changelog/internalerr"
	"github.com/Yrzhe/vibe-coding-product-changelog/pkg/changelog/normalize"
)

// DefaultPrimary is the catch-all primary tag for novel subtags that
// arrive without a usable hint.
const DefaultPrimary = "Others"

// Subtag is a second-level taxonomy entry, globally unique across primaries.
type Subtag struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// PrimaryTag is a top-level taxonomy category.
type PrimaryTag struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Subtags     []Subtag `json:"subtags"`
}

// Taxonomy is the persisted taxonomy document: the hierarchy plus the
// subtag -> primary reverse index.
type Taxonomy struct {
	PrimaryTags     []PrimaryTag      `json:"primary_tags"`
	SubtagToPrimary map[string]string `json:"subtag_to_primary"`
}

// Clone returns a deep copy.
func (t Taxonomy) Clone() Taxonomy {
	out := Taxonomy{
		PrimaryTags:     make([]PrimaryTag, len(t.PrimaryTags)),
		SubtagToPrimary: make(map[string]string, len(t.SubtagToPrimary)),
	}
	for i, pt := range t.PrimaryTags {
		cp := pt
		cp.Subtags = append([]Subtag(nil), pt.Subtags...)
		out.PrimaryTags[i] = cp
	}
	for k, v := range t.SubtagToPrimary {
		out.SubtagToPrimary[k] = v
	}
	return out
}

// Store holds a Taxonomy plus derived canonical-key indexes. All mutation
// of the taxonomy during a tagging batch funnels through this type; it is
// not safe for concurrent use, matching the single-threaded batch model.
type Store struct {
	tax Taxonomy

	primaryNames map[string]struct{} // exact registered primary names
	primaryByKey map[string]string   // canonical key -> primary name
	subtagByKey  map[string]string   // canonical key -> subtag name (global)
}

// NewStore builds a Store from a taxonomy document, reconstructing the
// reverse index from the hierarchy so that the two can never disagree.
func NewStore(tax Taxonomy) *Store {
	s := &Store{tax: tax.Clone()}
	if s.tax.SubtagToPrimary == nil {
		s.tax.SubtagToPrimary = make(map[string]string)
	}
	s.reindex()
	return s
}

func (s *Store) reindex() {
	s.primaryNames = make(map[string]struct{}, len(s.tax.PrimaryTags))
	s.primaryByKey = make(map[string]string, len(s.tax.PrimaryTags))
	s.subtagByKey = make(map[string]string)

	rebuilt := make(map[string]string)
	for _, pt := range s.tax.PrimaryTags {
		s.primaryNames[pt.Name] = struct{}{}
		s.primaryByKey[normalize.Key(pt.Name)] = pt.Name
		for _, st := range pt.Subtags {
			s.subtagByKey[normalize.Key(st.Name)] = st.Name
			rebuilt[st.Name] = pt.Name
		}
	}
	s.tax.SubtagToPrimary = rebuilt
}

// Snapshot returns a deep copy of the current taxonomy document.
func (s *Store) Snapshot() Taxonomy {
	return s.tax.Clone()
}

// ResolvePrimary maps a proposed name to a registered primary tag name,
// exact match first, then by canonical key. ok is false when no primary
// matches.
func (s *Store) ResolvePrimary(name string) (string, bool) {
	if _, ok := s.primaryNames[name]; ok {
		return name, true
	}
	registered, ok := s.primaryByKey[normalize.Key(name)]
	return registered, ok
}

// ResolveSubtag maps a proposed name to a registered subtag and its owning
// primary, exact match first, then by canonical key.
func (s *Store) ResolveSubtag(name string) (subtag, primary string, ok bool) {
	if primary, ok := s.tax.SubtagToPrimary[name]; ok {
		return name, primary, true
	}
	registered, ok := s.subtagByKey[normalize.Key(name)]
	if !ok {
		return "", "", false
	}
	return registered, s.tax.SubtagToPrimary[registered], true
}

// ResolveSubtagUnderPrimary resolves a name against one primary's subtag
// set only.
func (s *Store) ResolveSubtagUnderPrimary(primary, name string) (string, bool) {
	registered, owner, ok := s.ResolveSubtag(name)
	if !ok || owner != primary {
		return "", false
	}
	return registered, true
}

// RegisterNewPrimary adds a primary tag with optional initial subtags.
func (s *Store) RegisterNewPrimary(name string, subtags []Subtag) error {
	if name == "" {
		return internalerr.ErrInvalidInput
	}
	if _, ok := s.ResolvePrimary(name); ok {
		return fmt.Errorf("primary tag %q: %w", name, internalerr.ErrDuplicate)
	}
	for _, st := range subtags {
		if err := s.checkNewSubtag(st.Name); err != nil {
			return err
		}
	}
	s.tax.PrimaryTags = append(s.tax.PrimaryTags, PrimaryTag{
		Name:    name,
		Subtags: append([]Subtag(nil), subtags...),
	})
	s.reindex()
	return nil
}

// RegisterNewSubtag appends a subtag to the named primary and to the
// global reverse index. A name whose canonical key already resolves under
// a different primary is a collision to be resolved as a fold, never a
// fresh registration.
func (s *Store) RegisterNewSubtag(primary, name string) error {
	if _, ok := s.primaryNames[primary]; !ok {
		return fmt.Errorf("primary tag %q: %w", primary, internalerr.ErrNotFound)
	}
	if registered, owner, ok := s.ResolveSubtag(name); ok {
		if owner != primary {
			return fmt.Errorf("subtag %q (registered as %q under %q): %w",
				name, registered, owner, internalerr.ErrSubtagCollision)
		}
		return fmt.Errorf("subtag %q: %w", name, internalerr.ErrDuplicate)
	}
	if err := s.checkNewSubtag(name); err != nil {
		return err
	}
	for i := range s.tax.PrimaryTags {
		if s.tax.PrimaryTags[i].Name != primary {
			continue
		}
		s.tax.PrimaryTags[i].Subtags = append(s.tax.PrimaryTags[i].Subtags, Subtag{
			Name:        name,
			Description: name,
		})
		break
	}
	s.tax.SubtagToPrimary[name] = primary
	s.subtagByKey[normalize.Key(name)] = name
	return nil
}

// checkNewSubtag enforces the disjoint-namespace invariant: a subtag name
// must never fold to a registered primary name.
func (s *Store) checkNewSubtag(name string) error {
	if name == "" {
		return internalerr.ErrInvalidInput
	}
	if registered, ok := s.ResolvePrimary(name); ok {
		return fmt.Errorf("name %q collides with primary tag %q: %w",
			name, registered, internalerr.ErrInvalidInput)
	}
	return nil
}

// primaryIndex returns the position of an exactly named primary, or -1.
func (s *Store) primaryIndex(name string) int {
	for i, pt := range s.tax.PrimaryTags {
		if pt.Name == name {
			return i
		}
	}
	return -1
}

// HasPrimary reports whether a primary with exactly this name exists.
func (s *Store) HasPrimary(name string) bool {
	_, ok := s.primaryNames[name]
	return ok
}

// HasSubtag reports whether a subtag with exactly this name exists.
func (s *Store) HasSubtag(name string) bool {
	_, ok := s.tax.SubtagToPrimary[name]
	return ok
}

// RenamePrimary changes a primary tag's name in place and repoints every
// reverse-index entry. The new name must not already exist.
func (s *Store) RenamePrimary(oldName, newName string) error {
	i := s.primaryIndex(oldName)
	if i < 0 {
		return fmt.Errorf("primary tag %q: %w", oldName, internalerr.ErrNotFound)
	}
	if s.HasPrimary(newName) {
		return fmt.Errorf("primary tag %q: %w", newName, internalerr.ErrDuplicate)
	}
	s.tax.PrimaryTags[i].Name = newName
	s.reindex()
	return nil
}

// MergePrimaries folds oldName's subtags into newName (dedup by name),
// deletes oldName's node, and repoints the reverse index.
func (s *Store) MergePrimaries(oldName, newName string) error {
	oi := s.primaryIndex(oldName)
	ni := s.primaryIndex(newName)
	if oi < 0 || ni < 0 {
		return fmt.Errorf("merge %q into %q: %w", oldName, newName, internalerr.ErrNotFound)
	}
	existing := make(map[string]struct{}, len(s.tax.PrimaryTags[ni].Subtags))
	for _, st := range s.tax.PrimaryTags[ni].Subtags {
		existing[st.Name] = struct{}{}
	}
	for _, st := range s.tax.PrimaryTags[oi].Subtags {
		if _, dup := existing[st.Name]; dup {
			continue
		}
		s.tax.PrimaryTags[ni].Subtags = append(s.tax.PrimaryTags[ni].Subtags, st)
		existing[st.Name] = struct{}{}
	}
	s.tax.PrimaryTags = append(s.tax.PrimaryTags[:oi], s.tax.PrimaryTags[oi+1:]...)
	s.reindex()
	return nil
}

// RenameSubtag changes a subtag's name inside its owning primary and
// repoints its reverse-index key. The new name must not already exist.
func (s *Store) RenameSubtag(oldName, newName string) error {
	owner, ok := s.tax.SubtagToPrimary[oldName]
	if !ok {
		return fmt.Errorf("subtag %q: %w", oldName, internalerr.ErrNotFound)
	}
	if s.HasSubtag(newName) {
		return fmt.Errorf("subtag %q: %w", newName, internalerr.ErrDuplicate)
	}
	i := s.primaryIndex(owner)
	for j := range s.tax.PrimaryTags[i].Subtags {
		if s.tax.PrimaryTags[i].Subtags[j].Name == oldName {
			s.tax.PrimaryTags[i].Subtags[j].Name = newName
			break
		}
	}
	s.reindex()
	return nil
}

// MergeSubtags deletes oldName from its owning primary; newName already
// exists and is kept as-is.
func (s *Store) MergeSubtags(oldName, newName string) error {
	owner, ok := s.tax.SubtagToPrimary[oldName]
	if !ok {
		return fmt.Errorf("subtag %q: %w", oldName, internalerr.ErrNotFound)
	}
	if !s.HasSubtag(newName) {
		return fmt.Errorf("subtag %q: %w", newName, internalerr.ErrNotFound)
	}
	i := s.primaryIndex(owner)
	subtags := s.tax.PrimaryTags[i].Subtags
	for j := range subtags {
		if subtags[j].Name == oldName {
			s.tax.PrimaryTags[i].Subtags = append(subtags[:j], subtags[j+1:]...)
			break
		}
	}
	s.reindex()
	return nil
}
