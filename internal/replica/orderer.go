package replica

import (
	"log"

	"seqkv/internal/wire"
)

// Orderer is a Replica that additionally assigns the global order index to
// each fully-acknowledged write and broadcasts the decision (spec.md
// §4.2). It embeds *Replica so it behaves as a plain Replica for every
// other message type, including its own client_write/client_read.
type Orderer struct {
	*Replica
	nextIndex int
}

// NewOrderer wraps a Replica with order-assignment responsibility. cfg.Self
// must equal cfg.Orderer.
func NewOrderer(cfg Config, sender Sender, logger *log.Logger) *Orderer {
	return &Orderer{Replica: New(cfg, sender, logger)}
}

// allReplicas is every node in the cluster, including the orderer itself —
// the audience for write_order, per spec.md §4.2 ("broadcasts write_order
// to ALL replicas including itself").
func (o *Orderer) allReplicas() []wire.Host {
	return append(append([]wire.Host{}, o.cfg.Peers...), o.cfg.Self)
}

// HandleClientWriteAck implements spec.md §4.2: assign the next index in
// strict arrival order and broadcast write_order to every replica.
//
// Processing is inherently sequential because this method, like every other
// handler, only ever runs on the node's single dispatch worker (spec.md
// §5) — there is no separate queue to serialize, and no special case is
// needed for the orderer acking its own writes (spec.md §9's open
// question): a client_write_ack that originated locally arrives through
// the exact same dispatch path as one that arrived over the network.
func (o *Orderer) HandleClientWriteAck(id wire.MsgID) {
	index := o.nextIndex
	o.nextIndex++
	o.broadcast(o.allReplicas(), wire.TypeWriteOrder, wire.WriteOrder{ID: id, Index: index})
}
