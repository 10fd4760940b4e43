package replica

import "seqkv/internal/wire"

// pendingKeyIndex is a reverse index of key -> number of in-flight writes
// observable at this replica for that key, kept in sync with PendingWrite
// and CommitPending insert/remove so is_key_pending is O(1) instead of
// scanning both tables (spec.md §9's suggested optimization, which the spec
// explicitly says does not change semantics).
//
// Per spec.md §4.1, a PendingWrite contributes its pending count for every
// key in its batch, but a CommitPending entry contributes only for its
// first key — that asymmetry is part of the spec's (deliberately
// conservative) is_key_pending definition, not a bug introduced here.
type pendingKeyIndex map[wire.Key]int

func newPendingKeyIndex() pendingKeyIndex {
	return make(pendingKeyIndex)
}

func (idx pendingKeyIndex) addPendingWrite(keys []wire.Key) {
	for _, k := range keys {
		idx[k]++
	}
}

func (idx pendingKeyIndex) removePendingWrite(keys []wire.Key) {
	for _, k := range keys {
		idx.dec(k)
	}
}

func (idx pendingKeyIndex) addCommitPending(firstKey wire.Key) {
	idx[firstKey]++
}

func (idx pendingKeyIndex) removeCommitPending(firstKey wire.Key) {
	idx.dec(firstKey)
}

func (idx pendingKeyIndex) dec(k wire.Key) {
	if idx[k] <= 1 {
		delete(idx, k)
		return
	}
	idx[k]--
}

func (idx pendingKeyIndex) isPending(k wire.Key) bool {
	return idx[k] > 0
}
