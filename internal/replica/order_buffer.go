package replica

import "seqkv/internal/wire"

// orderBuffer holds write_order announcements received before their index
// equals the replica's next-expected order_index (spec.md §3's
// OrderBuffer). It is drained in increasing index order; gaps can only
// arise from out-of-order delivery between write_order messages (spec.md
// §4.1's tie-break note), never from a missing CommitPending entry.
type orderBuffer struct {
	byIndex map[int]wire.MsgID
}

func newOrderBuffer() *orderBuffer {
	return &orderBuffer{byIndex: make(map[int]wire.MsgID)}
}

// insert buffers a (id, index) order decision.
func (b *orderBuffer) insert(id wire.MsgID, index int) {
	b.byIndex[index] = id
}

// next returns the MsgID buffered at index, if any, and removes it.
func (b *orderBuffer) next(index int) (wire.MsgID, bool) {
	id, ok := b.byIndex[index]
	if ok {
		delete(b.byIndex, index)
	}
	return id, ok
}
