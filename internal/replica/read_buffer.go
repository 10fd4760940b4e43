package replica

import "seqkv/internal/wire"

// readBuffer maps a pending key to the read transactions blocked on it
// (spec.md §3's ReadBuffer). Drained by the write_order handler once a key
// is no longer pending.
type readBuffer struct {
	byKey map[wire.Key][]*readTransaction
}

func newReadBuffer() *readBuffer {
	return &readBuffer{byKey: make(map[wire.Key][]*readTransaction)}
}

func (b *readBuffer) park(key wire.Key, txn *readTransaction) {
	b.byKey[key] = append(b.byKey[key], txn)
}

// drain removes and returns every transaction parked on key.
func (b *readBuffer) drain(key wire.Key) []*readTransaction {
	txns := b.byKey[key]
	delete(b.byKey, key)
	return txns
}
