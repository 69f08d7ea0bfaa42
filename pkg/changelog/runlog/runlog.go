// Package runlog records the outcome of monitor runs.
package runlog

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

var entropy = ulid.Monotonic(rand.Reader, 0)

// NewID returns a sortable unique run identifier.
func NewID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

// NewFeature identifies one newly discovered entry in a run.
type NewFeature struct {
	Title string `json:"title"`
	Time  string `json:"time"`
}

// ProductResult is the per-product outcome of one monitor run.
type ProductResult struct {
	Status      string       `json:"status"` // success, crawler_failed, empty_result, failed
	OldCount    int          `json:"old_count"`
	TotalCount  int          `json:"total_count,omitempty"`
	NewCount    int          `json:"new_count"`
	NewFeatures []NewFeature `json:"new_features,omitempty"`
	Error       string       `json:"error,omitempty"`
}

// Entry is one persisted monitor run.
type Entry struct {
	ID        string                   `json:"id"`
	Timestamp time.Time                `json:"timestamp"`
	Updates   map[string]ProductResult `json:"updates"`
}

// New creates an empty run entry stamped with a fresh ID.
func New() Entry {
	return Entry{
		ID:        NewID(),
		Timestamp: time.Now().UTC(),
		Updates:   make(map[string]ProductResult),
	}
}

// TotalNew sums new entries across all products.
func (e Entry) TotalNew() int {
	total := 0
	for _, r := range e.Updates {
		total += r.NewCount
	}
	return total
}
