// Package feature models changelog entries and their merge semantics.
package feature

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Status is the classification state of a feature.
type Status int

const (
	// StatusUntagged means the feature has never been classified, or was
	// administratively cleared back to pending.
	StatusUntagged Status = iota
	// StatusNotApplicable means the oracle judged the entry to be
	// non-functional content (pure bug fix, announcement, etc.).
	StatusNotApplicable
	// StatusTagged means the feature carries at least one assignment.
	StatusTagged
)

// String returns a human-readable status name.
func (s Status) String() string {
	switch s {
	case StatusNotApplicable:
		return "not_applicable"
	case StatusTagged:
		return "tagged"
	default:
		return "untagged"
	}
}

// Subtag references a second-level taxonomy entry by name.
type Subtag struct {
	Name string `json:"name"`
}

// TagAssignment groups the subtags of one primary tag assigned to a feature.
type TagAssignment struct {
	Name    string   `json:"name"`
	Subtags []Subtag `json:"subtags"`
}

// TagSet is the classification state of a feature: an explicit status plus
// the assignments when tagged. It replaces the legacy sentinel scheme where
// the tags field was either absent, the string "None", an empty list, or a
// list of assignments.
type TagSet struct {
	Status      Status
	Assignments []TagAssignment
}

// Tagged builds a TagSet carrying the given assignments. An empty list
// yields StatusNotApplicable, matching the "classified, nothing confident"
// outcome.
func Tagged(assignments []TagAssignment) TagSet {
	if len(assignments) == 0 {
		return TagSet{Status: StatusNotApplicable}
	}
	return TagSet{Status: StatusTagged, Assignments: assignments}
}

// Feature is one changelog entry for one product.
type Feature struct {
	Title       string
	Description string
	Time        string // "YYYY-MM-DD", coarser "Month YYYY", or empty
	Tags        TagSet
}

// Key derives the stable merge identity: first 16 hex characters of the
// md5 of the title, joined with the time string. Description changes do
// not alter identity.
func (f Feature) Key() string {
	sum := md5.Sum([]byte(f.Title))
	return hex.EncodeToString(sum[:])[:16] + "_" + f.Time
}

// Index builds a key -> feature lookup from a stored feature list.
func Index(features []Feature) map[string]Feature {
	idx := make(map[string]Feature, len(features))
	for _, f := range features {
		idx[f.Key()] = f
	}
	return idx
}

// featureWire is the persisted JSON shape. The tags field keeps the legacy
// encodings: key omitted for untagged, the string "None" for not
// applicable, and an assignment list when tagged.
type featureWire struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Time        string          `json:"time"`
	Tags        json.RawMessage `json:"tags,omitempty"`
}

// MarshalJSON encodes the feature in the legacy document format.
func (f Feature) MarshalJSON() ([]byte, error) {
	w := featureWire{Title: f.Title, Description: f.Description, Time: f.Time}
	switch f.Tags.Status {
	case StatusNotApplicable:
		w.Tags = json.RawMessage(`"None"`)
	case StatusTagged:
		raw, err := json.Marshal(f.Tags.Assignments)
		if err != nil {
			return nil, err
		}
		w.Tags = raw
	}
	return json.Marshal(w)
}

// UnmarshalJSON decodes the legacy document format. An absent tags key and
// an empty list both map to StatusUntagged: an empty list was written
// either by an older run that never finished classifying or by an
// administrative reset, and in both cases the entry should be re-examined.
func (f *Feature) UnmarshalJSON(data []byte) error {
	var w featureWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	f.Title = w.Title
	f.Description = w.Description
	f.Time = w.Time
	f.Tags = TagSet{}

	if len(w.Tags) == 0 {
		return nil
	}
	var sentinel string
	if err := json.Unmarshal(w.Tags, &sentinel); err == nil {
		if sentinel == "None" {
			f.Tags.Status = StatusNotApplicable
		}
		return nil
	}
	var assignments []TagAssignment
	if err := json.Unmarshal(w.Tags, &assignments); err != nil {
		return fmt.Errorf("feature %q: malformed tags field: %w", w.Title, err)
	}
	if len(assignments) > 0 {
		f.Tags = TagSet{Status: StatusTagged, Assignments: assignments}
	}
	return nil
}
