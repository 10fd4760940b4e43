package transport

import (
	"encoding/json"
	"fmt"

	"seqkv/internal/wire"
)

// core is the subset of *replica.Replica's handler methods the dispatcher
// needs. Declared locally (rather than imported) so this package depends on
// replica only through the narrow surface it actually drives.
type core interface {
	HandleClientWrite(keys []wire.Key, values []wire.Value, returnAddr wire.Host)
	HandleClientRead(keys []wire.Key, returnAddr wire.Host)
	HandleWrite(id wire.MsgID, keys []wire.Key, values []wire.Value, from wire.Host)
	HandleAcknowledge(id wire.MsgID, from wire.Host)
	HandleWriteOrder(id wire.MsgID, index int)
	HandleExit()
}

// ordererCore is the one extra handler *replica.Orderer adds on top of
// core.
type ordererCore interface {
	HandleClientWriteAck(id wire.MsgID)
}

// Dispatcher decodes an Envelope's payload into its typed wire message and
// calls the matching Replica/Orderer handler. It is the "dispatch to the
// handler for that type; unknown types are logged and dropped" piece of
// spec.md §4.5.
type Dispatcher struct {
	core    core
	orderer ordererCore // nil on a node that is not the orderer
}

// NewDispatcher builds a Dispatcher for a plain replica.
func NewDispatcher(c core) *Dispatcher {
	return &Dispatcher{core: c}
}

// NewOrdererDispatcher builds a Dispatcher for the orderer node, which
// accepts client_write_ack in addition to every ordinary replica message.
func NewOrdererDispatcher(c core, o ordererCore) *Dispatcher {
	return &Dispatcher{core: c, orderer: o}
}

// Dispatch implements the Node's message switch. Malformed payloads and
// unknown types are reported as errors for the caller to log and drop, per
// spec.md §7's "Protocol-malformed message" handling — never surfaced back
// to whoever sent the message.
func (d *Dispatcher) Dispatch(msgType string, payload json.RawMessage) error {
	switch msgType {
	case wire.TypeClientWrite:
		var m wire.ClientWrite
		if err := json.Unmarshal(payload, &m); err != nil {
			return err
		}
		d.core.HandleClientWrite(m.Keys, m.Values, m.ReturnAddr)

	case wire.TypeClientRead:
		var m wire.ClientRead
		if err := json.Unmarshal(payload, &m); err != nil {
			return err
		}
		d.core.HandleClientRead(m.Keys, m.ReturnAddr)

	case wire.TypeWrite:
		var m wire.Write
		if err := json.Unmarshal(payload, &m); err != nil {
			return err
		}
		d.core.HandleWrite(m.ID, m.Keys, m.Values, m.From)

	case wire.TypeAcknowledge:
		var m wire.Acknowledge
		if err := json.Unmarshal(payload, &m); err != nil {
			return err
		}
		d.core.HandleAcknowledge(m.ID, m.From)

	case wire.TypeClientWriteAck:
		if d.orderer == nil {
			return fmt.Errorf("client_write_ack received by a non-orderer node")
		}
		var m wire.ClientWriteAck
		if err := json.Unmarshal(payload, &m); err != nil {
			return err
		}
		d.orderer.HandleClientWriteAck(m.ID)

	case wire.TypeWriteOrder:
		var m wire.WriteOrder
		if err := json.Unmarshal(payload, &m); err != nil {
			return err
		}
		d.core.HandleWriteOrder(m.ID, m.Index)

	case wire.TypeExit:
		d.core.HandleExit()

	default:
		return fmt.Errorf("unknown message type %q", msgType)
	}
	return nil
}
