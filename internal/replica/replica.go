// Package replica implements the core replicated write protocol of
// spec.md §4.1/§4.2: a Replica accepts client reads and writes, broadcasts
// and acknowledges peer writes, buffers committed-but-unordered writes, and
// applies them strictly in OrderIndex order; an Orderer (orderer.go) adds
// the single responsibility of assigning that order.
package replica

import (
	"context"
	"fmt"
	"log"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"seqkv/internal/store"
	"seqkv/internal/wire"
)

// Sender delivers a message to host. Replica calls it from fire-and-forget
// fan-out goroutines; it never blocks the dispatch worker on the result.
// Implemented by internal/transport's HTTP sender.
type Sender interface {
	Send(ctx context.Context, to wire.Host, msgType string, payload any) error
}

// Config is the static, startup-time description of where a Replica sits
// in the cluster. It is built once by internal/cluster and never mutated
// (dynamic membership changes are an explicit Non-goal).
type Config struct {
	Self         wire.Host
	Peers        []wire.Host // every other node in the cluster
	Orderer      wire.Host
	OrderOnWrite bool
}

// Replica is a single node's view of the replicated store. All fields
// except orderIndexGauge are touched only by the single dispatch worker
// that owns this Replica (spec.md §5); no internal locking is needed.
type Replica struct {
	cfg    Config
	sender Sender
	logger *log.Logger

	store *store.Store

	seq           uint64
	pendingWrites map[wire.MsgID]*pendingWrite
	commits       commitPending
	order         *orderBuffer
	reads         *readBuffer
	pendingKeys   pendingKeyIndex
	nextOrderIdx  int

	orderIndexGauge atomic.Int64
}

// New creates a Replica for the given cluster configuration.
func New(cfg Config, sender Sender, logger *log.Logger) *Replica {
	return &Replica{
		cfg:           cfg,
		sender:        sender,
		logger:        logger,
		store:         store.New(),
		pendingWrites: make(map[wire.MsgID]*pendingWrite),
		commits:       make(commitPending),
		order:         newOrderBuffer(),
		reads:         newReadBuffer(),
		pendingKeys:   newPendingKeyIndex(),
	}
}

// clusterSize is N in spec.md's "ack_from >= N-1" completion rule: self
// plus every peer.
func (r *Replica) clusterSize() int {
	return len(r.cfg.Peers) + 1
}

// OrderIndex returns the number of writes applied locally so far. Safe to
// call from any goroutine (e.g. a /health handler outside the dispatch
// worker); it is the one piece of Replica state deliberately exposed via an
// atomic counter rather than through the message loop.
func (r *Replica) OrderIndex() int {
	return int(r.orderIndexGauge.Load())
}

// Get returns the current StoreEntry for key. Only ever called from inside
// the dispatch worker (it is not part of the exported transport-facing
// surface); exported for tests that drive a Replica directly.
func (r *Replica) Get(key wire.Key) store.Entry {
	return r.store.Get(key)
}

// ─── client_write ──────────────────────────────────────────────────────────

// HandleClientWrite implements spec.md §4.1's client_write: allocate a
// fresh MsgID, record a PendingWrite, and broadcast write{...} to every
// peer. Does not reply to the client immediately.
func (r *Replica) HandleClientWrite(keys []wire.Key, values []wire.Value, returnAddr wire.Host) {
	id := r.nextMsgID()
	r.pendingWrites[id] = newPendingWrite(id, keys, values, returnAddr)
	r.pendingKeys.addPendingWrite(keys)

	r.broadcast(r.cfg.Peers, wire.TypeWrite, wire.Write{
		ID: id, Keys: keys, Values: values, From: r.cfg.Self,
	})
}

func (r *Replica) nextMsgID() wire.MsgID {
	r.seq++
	return wire.MsgID(fmt.Sprintf("%s:%d", r.cfg.Self.String(), r.seq))
}

// ─── client_read ───────────────────────────────────────────────────────────

// HandleClientRead implements spec.md §4.1's client_read: fill every
// non-pending key immediately from local state; park the rest in the read
// buffer until the write(s) touching them commit. Replies now if nothing is
// pending.
func (r *Replica) HandleClientRead(keys []wire.Key, returnAddr wire.Host) {
	txn := newReadTransaction(returnAddr, keys)

	for _, k := range keys {
		if r.pendingKeys.isPending(k) {
			txn.addPending(k)
			r.reads.park(k, txn)
			continue
		}
		entry := r.store.Get(k)
		txn.addPair(k, entry.Value, entry.OrderIndex, entry.Present, true)
	}

	if txn.isFinal() {
		r.replyRead(txn)
	}
}

// ─── write (peer) ───────────────────────────────────────────────────────────

// HandleWrite implements spec.md §4.1's write: record the batch under id in
// CommitPending (client_addr nil — only the originator owes the client a
// reply) and acknowledge back to the sender. Idempotent: redelivery simply
// replaces an identical entry.
func (r *Replica) HandleWrite(id wire.MsgID, keys []wire.Key, values []wire.Value, from wire.Host) {
	_, existed := r.commits[id]
	r.commits[id] = commitEntry{keys: keys, values: values, clientAddr: nil}
	if !existed && len(keys) > 0 {
		r.pendingKeys.addCommitPending(keys[0])
	}

	r.broadcast([]wire.Host{from}, wire.TypeAcknowledge, wire.Acknowledge{ID: id, From: r.cfg.Self})
}

// ─── acknowledge (peer) ─────────────────────────────────────────────────────

// HandleAcknowledge implements spec.md §4.1's acknowledge. Unknown ids
// (typically a late ack after the write already completed) are ignored.
func (r *Replica) HandleAcknowledge(id wire.MsgID, from wire.Host) {
	pw, ok := r.pendingWrites[id]
	if !ok {
		return
	}
	pw.ack(from)
	if !pw.complete(r.clusterSize()) {
		return
	}

	delete(r.pendingWrites, id)
	r.pendingKeys.removePendingWrite(pw.keys)

	clientAddr := pw.clientAddr
	r.commits[id] = commitEntry{keys: pw.keys, values: pw.values, clientAddr: &clientAddr}
	if len(pw.keys) > 0 {
		r.pendingKeys.addCommitPending(pw.keys[0])
	}

	r.broadcast([]wire.Host{r.cfg.Orderer}, wire.TypeClientWriteAck, wire.ClientWriteAck{ID: id})

	if !r.cfg.OrderOnWrite {
		r.sendWriteResult(clientAddr, pw.keys, pw.values, nil)
	}
}

// ─── write_order (from orderer) ─────────────────────────────────────────────

// HandleWriteOrder implements spec.md §4.1's write_order: buffer the
// decision, then drain every entry whose index matches order_index,
// applying each to the store and waking any reads that were blocked on the
// keys it touched.
func (r *Replica) HandleWriteOrder(id wire.MsgID, index int) {
	r.order.insert(id, index)

	for {
		nextID, ok := r.order.next(r.nextOrderIdx)
		if !ok {
			break
		}
		r.applyCommit(nextID, r.nextOrderIdx)
		r.nextOrderIdx++
		r.orderIndexGauge.Store(int64(r.nextOrderIdx))
		r.drainReadyReads()
	}
}

// applyCommit writes one CommitPending entry's effects into the store and,
// if this replica is the entry's originator, replies to the client (when
// order_on_write is enabled — otherwise the reply already went out from
// HandleAcknowledge).
func (r *Replica) applyCommit(id wire.MsgID, orderIndex int) {
	entry, ok := r.commits[id]
	if !ok {
		// Impossible per spec.md §4.1's reasoning: CommitPending is always
		// populated before write_order can arrive for that id.
		r.logger.Printf("write_order for unknown id %s: dropped", id)
		return
	}
	delete(r.commits, id)
	if len(entry.keys) > 0 {
		r.pendingKeys.removeCommitPending(entry.keys[0])
	}

	for i, k := range entry.keys {
		r.store.Set(k, entry.values[i], orderIndex)
	}

	if r.cfg.OrderOnWrite && entry.clientAddr != nil {
		idx := orderIndex
		r.sendWriteResult(*entry.clientAddr, entry.keys, entry.values, &idx)
	}
}

// drainReadyReads revisits every key currently parked in the read buffer
// and, for any that is no longer pending, resolves and (if final) replies
// to each waiting transaction.
func (r *Replica) drainReadyReads() {
	for key := range r.reads.byKey {
		if r.pendingKeys.isPending(key) {
			continue
		}
		entry := r.store.Get(key)
		for _, txn := range r.reads.drain(key) {
			if txn.addPair(key, entry.Value, entry.OrderIndex, entry.Present, true) {
				r.replyRead(txn)
			}
		}
	}
}

// ─── exit ────────────────────────────────────────────────────────────────

// HandleExit is a no-op on the Replica itself: there is no store or
// in-flight state to tear down. The dispatch loop that called this
// (internal/transport.Node.loop) is the one that actually closes the
// socket and stops, once this call returns.
func (r *Replica) HandleExit() {}

// ─── outbound replies ──────────────────────────────────────────────────────

func (r *Replica) sendWriteResult(clientAddr wire.Host, keys []wire.Key, values []wire.Value, orderIndex *int) {
	r.broadcast([]wire.Host{clientAddr}, wire.TypeWriteResult, wire.WriteResult{
		Keys: keys, Values: values, OrderIndex: orderIndex,
	})
}

func (r *Replica) replyRead(txn *readTransaction) {
	values, indexes := txn.response()
	r.broadcast([]wire.Host{txn.clientAddr}, wire.TypeReadResult, wire.ReadResult{
		Keys: txn.keys, Values: values, OrderIndex: indexes,
	})
}

// broadcast fans msgType/payload out to every host in hosts without
// blocking the caller: spec.md §5 requires that writes "fan out messages
// and return." Each call starts one goroutine per target host; errors are
// logged, never propagated — the core does not retry a dead peer (spec.md §7).
func (r *Replica) broadcast(hosts []wire.Host, msgType string, payload any) {
	if len(hosts) == 0 {
		return
	}
	go func() {
		g, ctx := errgroup.WithContext(context.Background())
		for _, h := range hosts {
			h := h
			g.Go(func() error {
				if err := r.sender.Send(ctx, h, msgType, payload); err != nil {
					r.logger.Printf("send %s to %s: %v", msgType, h, err)
				}
				return nil
			})
		}
		_ = g.Wait()
	}()
}
