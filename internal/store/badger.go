package store

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

type BadgerOptions struct {
	Dir      string
	InMemory bool
	Logger   badger.Logger
}

// Badger keeps keys on disk so the silver dedup set can outgrow RAM.
type Badger struct {
	db *badger.DB
	n  int
}

// OpenBadger opens the store at opts.Dir and starts it empty.
func OpenBadger(opts BadgerOptions) (*Badger, error) {
	if opts.Dir == "" && !opts.InMemory {
		return nil, errors.New("badger key store needs a directory")
	}
	bopts := badger.DefaultOptions(opts.Dir)
	if opts.InMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	}
	// badger logs to stderr unless told otherwise
	bopts = bopts.WithLogger(opts.Logger)

	bopts = bopts.
		WithMemTableSize(16 << 20).
		WithValueLogFileSize(64 << 20).
		WithNumMemtables(2).
		WithNumLevelZeroTables(2).
		WithNumLevelZeroTablesStall(4).
		WithBlockCacheSize(32 << 20).
		WithIndexCacheSize(16 << 20)

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger key store: %w", err)
	}
	// the key set belongs to one run; keys left in Dir by an earlier run go
	if err := db.DropAll(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to clear badger key store: %w", err)
	}
	return &Badger{db: db}, nil
}

func (b *Badger) Add(key string) (bool, error) {
	added := false
	err := b.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(key))
		if err == nil {
			return nil
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		added = true
		return txn.Set([]byte(key), nil)
	})
	if err != nil {
		return false, fmt.Errorf("badger add: %w", err)
	}
	if added {
		b.n++
	}
	return added, nil
}

// Len counts keys added through this handle.
func (b *Badger) Len() int { return b.n }

func (b *Badger) Close() error { return b.db.Close() }
