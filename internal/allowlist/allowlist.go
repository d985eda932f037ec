// Package allowlist loads the target set of concept identifiers.
package allowlist

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	mapset "github.com/deckarep/golang-set/v2"
)

// IDColumn is the CSV column holding the identifier.
const IDColumn = 1

var ErrMalformedRow = errors.New("malformed allow-list row")

// Set is an immutable set of identifiers.
type Set struct {
	ids mapset.Set[string]
}

func New(ids ...string) *Set {
	return &Set{ids: mapset.NewThreadUnsafeSet(ids...)}
}

// Contains reports exact, case-sensitive membership.
func (s *Set) Contains(id string) bool { return s.ids.Contains(id) }

func (s *Set) Len() int { return s.ids.Cardinality() }

// IDs returns the identifiers in no particular order.
func (s *Set) IDs() []string { return s.ids.ToSlice() }

// Read parses an allow-list CSV. The header row is skipped and rows with an
// empty identifier are ignored.
func Read(r io.Reader) (*Set, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	ids := mapset.NewThreadUnsafeSet[string]()
	for row := 0; ; row++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read allow-list: %w", err)
		}
		if row == 0 {
			continue
		}
		if len(rec) <= IDColumn {
			line, _ := cr.FieldPos(0)
			return nil, fmt.Errorf("line %d has %d columns: %w", line, len(rec), ErrMalformedRow)
		}
		if id := rec[IDColumn]; id != "" {
			ids.Add(id)
		}
	}
	return &Set{ids: ids}, nil
}

func Load(path string) (*Set, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open allow-list: %w", err)
	}
	defer f.Close()

	s, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}
