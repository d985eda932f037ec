package dedupe

import (
	"iter"
	"slices"

	mapset "github.com/deckarep/golang-set/v2"
)

// Pairer is implemented by records that reduce to an (identifier, value) pair.
type Pairer interface {
	Pair() (id, value string)
}

// Index maps an identifier to the distinct values seen for it. Memory grows
// with distinct identifiers and values, not with input lines.
type Index struct {
	values map[string]mapset.Set[string]
}

func NewIndex() *Index {
	return &Index{values: make(map[string]mapset.Set[string])}
}

// Add records value under id. Adding the same pair twice is a no-op.
func (ix *Index) Add(id, value string) {
	set, ok := ix.values[id]
	if !ok {
		set = mapset.NewThreadUnsafeSet[string]()
		ix.values[id] = set
	}
	set.Add(value)
}

func (ix *Index) Has(id string) bool {
	_, ok := ix.values[id]
	return ok
}

// Values returns the values for id in sorted order, or nil.
func (ix *Index) Values(id string) []string {
	set, ok := ix.values[id]
	if !ok {
		return nil
	}
	out := set.ToSlice()
	slices.Sort(out)
	return out
}

// Len is the number of distinct identifiers.
func (ix *Index) Len() int { return len(ix.values) }

// Pairs is the total number of distinct (id, value) pairs.
func (ix *Index) Pairs() int {
	n := 0
	for _, set := range ix.values {
		n += set.Cardinality()
	}
	return n
}

// IDs returns every identifier in sorted order.
func (ix *Index) IDs() []string {
	ids := make([]string, 0, len(ix.values))
	for id := range ix.values {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Fold drains seq into a new Index. The first error stops the fold.
func Fold[T Pairer](seq iter.Seq2[T, error]) (*Index, error) {
	ix := NewIndex()
	for rec, err := range seq {
		if err != nil {
			return nil, err
		}
		ix.Add(rec.Pair())
	}
	return ix, nil
}
