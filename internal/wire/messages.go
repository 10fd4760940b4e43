package wire

import "encoding/json"

// Message type discriminators, matching the wire table in spec.md §6.
const (
	TypeClientWrite    = "client_write"
	TypeClientRead     = "client_read"
	TypeWrite          = "write"
	TypeAcknowledge    = "acknowledge"
	TypeClientWriteAck = "client_write_ack"
	TypeWriteOrder     = "write_order"
	TypeWriteResult    = "write_result"
	TypeReadResult     = "read_result"
	TypeExit           = "exit"
)

// Envelope is the outer JSON object every message is framed in: a type
// discriminator plus an opaque payload decoded once the type is known. This
// is the "JSON-serialized objects with a type discriminator" framing spec.md
// §4.5 calls for, whatever the underlying substrate (UDP datagram or, here,
// an HTTP POST body).
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// NewEnvelope marshals payload and wraps it with its type discriminator.
func NewEnvelope(msgType string, payload any) (Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Type: msgType, Payload: raw}, nil
}

// ClientWrite is sent by a client to any replica to submit a batch write.
// Keys and Values are equal-length parallel sequences, written atomically.
type ClientWrite struct {
	Keys       []Key   `json:"keys"`
	Values     []Value `json:"values"`
	ReturnAddr Host    `json:"return_addr"`
}

// ClientRead is sent by a client to any replica to read a batch of keys.
type ClientRead struct {
	Keys       []Key `json:"keys"`
	ReturnAddr Host  `json:"return_addr"`
}

// Write is broadcast by the originating replica to every other replica once
// a client_write is accepted. It is never sent to self.
type Write struct {
	ID     MsgID   `json:"id"`
	Keys   []Key   `json:"keys"`
	Values []Value `json:"values"`
	From   Host    `json:"from"`
}

// Acknowledge is sent by a replica back to the write's originator once the
// replica has recorded the write in its commit-pending table.
type Acknowledge struct {
	ID   MsgID `json:"id"`
	From Host  `json:"from"`
}

// ClientWriteAck is sent by the originating replica to the orderer once a
// write has been acknowledged by N-1 peers.
type ClientWriteAck struct {
	ID MsgID `json:"id"`
}

// WriteOrder is broadcast by the orderer to every replica, including
// itself, once it has assigned a global order index to a write.
type WriteOrder struct {
	ID    MsgID `json:"id"`
	Index int   `json:"index"`
}

// WriteResult is sent by the originating replica back to the client once a
// write's effects are visible (timing depends on order_on_write). Keys and
// Values mirror the ClientWrite batch.
//
// OrderIndex is nil when order_on_write is false: the reply is sent as soon
// as all peers have acked, before the orderer has assigned an index.
type WriteResult struct {
	Keys       []Key   `json:"keys"`
	Values     []Value `json:"values"`
	OrderIndex *int    `json:"order_index"`
}

// Scalar flattens a single-key WriteResult to its bare key, value and
// order index, per spec.md §6's "single-key request" reply shape. ok is
// false when the result carries more (or fewer) than one key.
func (wr WriteResult) Scalar() (key Key, value Value, orderIndex *int, ok bool) {
	if len(wr.Keys) != 1 || len(wr.Values) != 1 {
		return "", "", nil, false
	}
	return wr.Keys[0], wr.Values[0], wr.OrderIndex, true
}

// ReadResult is sent by a replica back to the client in reply to a
// client_read, once every requested key is resolved.
//
// A key that was never written reports OrderIndex == nil and Value == "".
type ReadResult struct {
	Keys       []Key   `json:"keys"`
	Values     []Value `json:"values"`
	OrderIndex []*int  `json:"order_index"`
}

// Scalar flattens a single-key ReadResult to its bare value and order
// index, matching spec.md §6's "each is either a scalar (single-key
// request) or a parallel sequence." ok is false for any other shape.
func (rr ReadResult) Scalar() (value Value, orderIndex *int, ok bool) {
	if len(rr.Keys) != 1 {
		return "", nil, false
	}
	return rr.Values[0], rr.OrderIndex[0], true
}

// Exit asks a node to cleanly shut down its message loop and listener.
type Exit struct{}
