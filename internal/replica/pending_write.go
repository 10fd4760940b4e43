package replica

import "seqkv/internal/wire"

// pendingWrite is the originating replica's record of a write awaiting peer
// acknowledgements (spec.md §3's PendingWrite). It exists only on the
// replica that first accepted the client_write (invariant I3).
type pendingWrite struct {
	id         wire.MsgID
	keys       []wire.Key
	values     []wire.Value
	clientAddr wire.Host
	ackFrom    map[wire.Host]struct{}
}

func newPendingWrite(id wire.MsgID, keys []wire.Key, values []wire.Value, clientAddr wire.Host) *pendingWrite {
	return &pendingWrite{
		id:         id,
		keys:       keys,
		values:     values,
		clientAddr: clientAddr,
		ackFrom:    make(map[wire.Host]struct{}),
	}
}

// ack records that host has acknowledged this write. Idempotent: acking the
// same host twice leaves the set unchanged, matching spec.md §4.3.
func (p *pendingWrite) ack(host wire.Host) {
	p.ackFrom[host] = struct{}{}
}

// complete reports whether enough peers have acked for a cluster of n
// total nodes. The originator does not ack itself, so the threshold is
// n-1, per spec.md §3.
func (p *pendingWrite) complete(n int) bool {
	return len(p.ackFrom) >= n-1
}
