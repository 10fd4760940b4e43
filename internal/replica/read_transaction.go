package replica

import "seqkv/internal/wire"

// readSlot is the per-key state of an in-flight read: either resolved
// (committed, with a value and order index) or still waiting on a pending
// write.
type readSlot struct {
	committed  bool
	value      wire.Value
	orderIndex int
	present    bool // whether the key has ever been written
}

// readTransaction accumulates a multi-key read response, possibly blocked on
// keys that have writes in flight (spec.md §3/§4.4's ReadTransaction).
type readTransaction struct {
	clientAddr wire.Host
	keys       []wire.Key // preserves client-requested order
	slots      map[wire.Key]*readSlot
	nPending   int
}

func newReadTransaction(clientAddr wire.Host, keys []wire.Key) *readTransaction {
	t := &readTransaction{
		clientAddr: clientAddr,
		keys:       keys,
		slots:      make(map[wire.Key]*readSlot, len(keys)),
	}
	return t
}

// addPending marks key's slot as blocked on an in-flight write and
// increments the pending counter.
func (t *readTransaction) addPending(key wire.Key) {
	t.slots[key] = &readSlot{}
	t.nPending++
}

// addPair fills key's slot with a resolved value. If committed is true and
// the slot was previously pending, the pending counter is decremented.
// Returns true iff the transaction is now final (every slot filled and
// nPending == 0), matching spec.md §4.4.
func (t *readTransaction) addPair(key wire.Key, value wire.Value, orderIndex int, present, committed bool) bool {
	wasPending := t.isMarkedPending(key)

	t.slots[key] = &readSlot{committed: true, value: value, orderIndex: orderIndex, present: present}
	if committed && wasPending {
		t.nPending--
	}
	return t.isFinal()
}

// isMarkedPending reports whether key's slot was created by addPending and
// has not yet been resolved.
func (t *readTransaction) isMarkedPending(key wire.Key) bool {
	slot, ok := t.slots[key]
	return ok && !slot.committed
}

func (t *readTransaction) isFinal() bool {
	if t.nPending > 0 {
		return false
	}
	for _, k := range t.keys {
		if s, ok := t.slots[k]; !ok || !s.committed {
			return false
		}
	}
	return true
}

// response produces the reply payload: value/order_index sequences in the
// client's requested key order. response always returns parallel sequences;
// flattening a single-key result to a scalar is the job of the Scalar methods
// on wire.ReadResult and client.ReadResult, applied by whoever renders the
// reply for a client (e.g. cmd/client, through client.ReadResult.Scalar).
func (t *readTransaction) response() ([]wire.Value, []*int) {
	values := make([]wire.Value, len(t.keys))
	indexes := make([]*int, len(t.keys))
	for i, k := range t.keys {
		slot := t.slots[k]
		if slot == nil || !slot.present {
			continue
		}
		values[i] = slot.value
		idx := slot.orderIndex
		indexes[i] = &idx
	}
	return values, indexes
}
