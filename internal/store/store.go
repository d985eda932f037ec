// Package store holds the dedup key sets used while filtering.
package store

import (
	"fmt"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
)

// KeySet remembers keys. Add reports whether the key was new.
type KeySet interface {
	Add(key string) (bool, error)
	Len() int
	Close() error
}

const (
	BackendMemory = "memory"
	BackendBadger = "badger"
)

// keySep cannot appear in UMLS identifiers or relation labels.
const keySep = "\x1f"

// Key joins parts into a single dedup key.
func Key(parts ...string) string {
	return strings.Join(parts, keySep)
}

// Memory is an in-process KeySet.
type Memory struct {
	keys mapset.Set[string]
}

func NewMemory() *Memory {
	return &Memory{keys: mapset.NewThreadUnsafeSet[string]()}
}

func (m *Memory) Add(key string) (bool, error) { return m.keys.Add(key), nil }

func (m *Memory) Len() int { return m.keys.Cardinality() }

func (m *Memory) Close() error { return nil }

// Open returns the KeySet named by backend. dir is used by badger only.
func Open(backend, dir string) (KeySet, error) {
	switch backend {
	case "", BackendMemory:
		return NewMemory(), nil
	case BackendBadger:
		return OpenBadger(BadgerOptions{Dir: dir})
	default:
		return nil, fmt.Errorf("unknown dedup backend %q", backend)
	}
}
