// Package wire defines the messages exchanged between clients, replicas, and
// the orderer, and the Host addressing scheme they are framed around.
package wire

import "fmt"

// Host identifies a node (or an ephemeral client listener) by address and
// port. It is the addressing unit used throughout the protocol: every
// message either originates at a Host or carries one as a return address.
type Host struct {
	Address string `json:"address"`
	Port    int    `json:"port"`
}

// String renders the host as "address:port", the form embedded in MsgIDs and
// used to build request URLs.
func (h Host) String() string {
	return fmt.Sprintf("%s:%d", h.Address, h.Port)
}

// Equal reports whether two hosts name the same address and port.
func (h Host) Equal(other Host) bool {
	return h.Address == other.Address && h.Port == other.Port
}

// MsgID uniquely identifies a client-originated write across the cluster.
// It is constructed at the originating replica as "host:port:seq" and is
// never reused.
type MsgID string

// Key and Value are opaque strings chosen by clients.
type Key = string
type Value = string
