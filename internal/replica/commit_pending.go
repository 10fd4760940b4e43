package replica

import "seqkv/internal/wire"

// commitEntry is a write that has been durably recorded at this replica
// (either as a peer's "write" broadcast, or as the originator's own
// just-completed PendingWrite) but has not yet received its global order
// index (spec.md §3's CommitPending).
//
// clientAddr is non-nil only at the originating replica, which is the only
// one that owes the client a reply.
type commitEntry struct {
	keys       []wire.Key
	values     []wire.Value
	clientAddr *wire.Host
}

// commitPending maps MsgID to its not-yet-ordered write. A duplicate
// insertion (a peer redelivering the same "write" message) simply replaces
// an identical entry, which is safe because a MsgID's (keys, values) are
// immutable for its lifetime (spec.md §9).
type commitPending map[wire.MsgID]commitEntry
