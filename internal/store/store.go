// Package store holds the in-memory key-value state applied by a replica
// once a write's global order index has been assigned. Persistence to
// stable storage is an explicit Non-goal of the protocol (spec.md §1): the
// teacher repo's write-ahead log and snapshot machinery have no home here,
// see DESIGN.md.
package store

import "seqkv/internal/wire"

// Entry is the per-key state at a replica: the latest value and the order
// index at which it was written. Absent keys read as the zero Entry with
// Present == false ("(null, null)" in spec.md's terms).
type Entry struct {
	Value      wire.Value
	OrderIndex int
	Present    bool
}

// Store is the replica's in-memory key-value map.
//
// It is touched only from the node's single dispatch worker (spec.md §5's
// single-writer executor), so unlike the teacher's store.Store it carries no
// internal lock: the single-writer discipline is the synchronization
// mechanism, not a mutex. This mirrors spec.md §9's note that shared
// dynamic-attribute maps translate to explicit records with enumerated
// fields, plus §5's guidance that single-writer access "avoids per-field
// locking and is the simplest correct design."
type Store struct {
	data map[wire.Key]Entry
}

// New creates an empty Store.
func New() *Store {
	return &Store{data: make(map[wire.Key]Entry)}
}

// Get returns the current Entry for key, or a zero Entry if the key has
// never been written.
func (s *Store) Get(key wire.Key) Entry {
	e, ok := s.data[key]
	if !ok {
		return Entry{}
	}
	return e
}

// Set records value as the current state of key at orderIndex. Callers must
// only call this in increasing orderIndex order per spec.md's I1 invariant
// (order_index equals the count of writes applied locally).
func (s *Store) Set(key wire.Key, value wire.Value, orderIndex int) {
	s.data[key] = Entry{Value: value, OrderIndex: orderIndex, Present: true}
}

// Keys returns every key ever written, for debugging and tests.
func (s *Store) Keys() []wire.Key {
	keys := make([]wire.Key, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	return keys
}
