// Package filter keeps the relations that touch the allow-list.
package filter

import (
	"errors"
	"fmt"
	"iter"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/agenthands/kbslice/internal/core/model"
	"github.com/agenthands/kbslice/internal/store"
)

// ErrSourceMismatch means a retained MRREL row has SAB != SL. The release
// is not shaped the way the gold output assumes, so the run must stop.
var ErrSourceMismatch = errors.New("source abbreviation does not match source label")

// DefaultThreshold is the minimum (exclusive) silver score kept.
const DefaultThreshold = 0.5

// Membership is the only thing the filters need from the allow-list.
type Membership interface {
	Contains(id string) bool
}

// TripleSet is the deduplicated gold relation output, kept in first-seen order.
type TripleSet struct {
	seen  mapset.Set[model.Triple]
	order []model.Triple
}

func NewTripleSet() *TripleSet {
	return &TripleSet{seen: mapset.NewThreadUnsafeSet[model.Triple]()}
}

// Add inserts t and reports whether it was new.
func (s *TripleSet) Add(t model.Triple) bool {
	if !s.seen.Add(t) {
		return false
	}
	s.order = append(s.order, t)
	return true
}

func (s *TripleSet) Contains(t model.Triple) bool { return s.seen.Contains(t) }

func (s *TripleSet) Len() int { return len(s.order) }

// All iterates the triples in the order they were first added.
func (s *TripleSet) All() iter.Seq[model.Triple] {
	return func(yield func(model.Triple) bool) {
		for _, t := range s.order {
			if !yield(t) {
				return
			}
		}
	}
}

// Triples keeps relations with at least one endpoint in allow. Every kept
// relation must carry SAB == SL.
func Triples(seq iter.Seq2[model.SourcedRelation, error], allow Membership) (*TripleSet, error) {
	out := NewTripleSet()
	for r, err := range seq {
		if err != nil {
			return nil, err
		}
		if !allow.Contains(r.Subject) && !allow.Contains(r.Object) {
			continue
		}
		if r.SAB != r.SL {
			return nil, fmt.Errorf("relation %s (%s -> %s): SAB %q, SL %q: %w",
				r.RUI, r.Subject, r.Object, r.SAB, r.SL, ErrSourceMismatch)
		}
		out.Add(r.Triple())
	}
	return out, nil
}

type SilverOptions struct {
	Threshold float64
	// Seen holds the dedup keys. A fresh in-memory set is used when nil.
	Seen store.KeySet
}

type SilverStats struct {
	Read      int
	Matched   int // an endpoint was in the allow-list
	AboveBar  int // matched and score > threshold
	Emitted   int
	Duplicate int
}

// Silver streams predictions, passing every new (subject, predicate, object)
// that touches allow and scores above the threshold to emit as soon as it is
// first seen. Later duplicates are dropped whatever their score.
func Silver(seq iter.Seq2[model.Prediction, error], allow Membership, opts SilverOptions, emit func(model.SilverTriple) error) (SilverStats, error) {
	var stats SilverStats
	seen := opts.Seen
	if seen == nil {
		seen = store.NewMemory()
	}

	for p, err := range seq {
		if err != nil {
			return stats, err
		}
		stats.Read++
		if !allow.Contains(p.EntPair[0]) && !allow.Contains(p.EntPair[1]) {
			continue
		}
		stats.Matched++
		if !(p.Score > opts.Threshold) {
			continue
		}
		stats.AboveBar++

		t := p.Triple()
		added, err := seen.Add(store.Key(t.Subject, t.Predicate, t.Object))
		if err != nil {
			return stats, err
		}
		if !added {
			stats.Duplicate++
			continue
		}
		if err := emit(t); err != nil {
			return stats, fmt.Errorf("emit silver triple: %w", err)
		}
		stats.Emitted++
	}
	return stats, nil
}
