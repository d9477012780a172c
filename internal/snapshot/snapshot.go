// Package snapshot combines the label and recommendation sources into one
// consistent evaluation context and multicasts it to consumers.
package snapshot

import (
	"fmt"
	"slices"
	"sync/atomic"

	"github.com/robby/ghlens/internal/domain"
	"github.com/robby/ghlens/internal/labels"
	"github.com/robby/ghlens/internal/query"
	"github.com/robby/ghlens/internal/recommend"
)

// Snapshot is one combined, immutable view of the auxiliary data. Labels and
// recommendations always come from the same combined emission.
type Snapshot struct {
	Seq             uint64
	Labels          []domain.Label
	LabelsByID      map[string]domain.Label
	Recommendations []domain.Recommendation

	recommender recommend.Func
}

// Build creates a snapshot from complete label and recommendation lists.
// The lists are copied; fn defaults to recommend.Applicable.
func Build(ls []domain.Label, recs []domain.Recommendation, fn recommend.Func) *Snapshot {
	if fn == nil {
		fn = recommend.Applicable
	}
	ls = slices.Clone(ls)
	return &Snapshot{
		Labels:          ls,
		LabelsByID:      labels.Index(ls),
		Recommendations: slices.Clone(recs),
		recommender:     fn,
	}
}

// RecommendationsFor returns the recommendations applicable to item, computed
// against this snapshot's own recommendation list and label index.
func (s *Snapshot) RecommendationsFor(item domain.Item) []domain.Recommendation {
	return s.recommender(item, s.Recommendations, s.LabelsByID)
}

// Event is one publication of the provider: a new snapshot, or a terminal
// failure (Snapshot nil, Err set). Seq increases with every publication.
type Event struct {
	Seq      uint64
	Snapshot *Snapshot
	Err      error
}

// Current returns the snapshot carried by e, or an error wrapping
// query.ErrMissingContext when there is none. A nil event means nothing has
// been published yet.
func (e *Event) Current() (*Snapshot, error) {
	if e == nil || (e.Snapshot == nil && e.Err == nil) {
		return nil, query.ErrMissingContext
	}
	if e.Err != nil {
		return nil, fmt.Errorf("%w: %w", query.ErrMissingContext, e.Err)
	}
	return e.Snapshot, nil
}

// Tracker holds the newest event observed by a consumer. Deliveries with a
// sequence number not above the current one are dropped, so a consumer never
// moves back to an older snapshot.
type Tracker struct {
	cur atomic.Pointer[Event]
}

// Observe records ev if it is newer than the current event and reports
// whether it was kept.
func (t *Tracker) Observe(ev Event) bool {
	for {
		old := t.cur.Load()
		if old != nil && old.Seq >= ev.Seq {
			return false
		}
		if t.cur.CompareAndSwap(old, &ev) {
			return true
		}
	}
}

// Current returns the newest observed snapshot.
func (t *Tracker) Current() (*Snapshot, error) {
	return t.cur.Load().Current()
}
