// Package cluster builds the frozen, startup-time membership view every
// node uses: the full host list, which one is the orderer, and the
// order_on_write setting (spec.md §1/§3/§6).
//
// Memberships are fixed at startup (spec.md §1's Non-goals explicitly
// exclude dynamic membership changes), so unlike the teacher repo's
// cluster.Membership this carries no Join/Leave and no locking — it is
// built once in cmd/server and handed to the Replica/Orderer as an
// immutable replica.Config.
package cluster

import (
	"fmt"

	"seqkv/internal/replica"
	"seqkv/internal/wire"
)

// Cluster is the resolved, validated view of a node's place in the
// cluster.
type Cluster struct {
	Self         wire.Host
	Peers        []wire.Host // every host other than Self
	Orderer      wire.Host
	IsOrderer    bool
	OrderOnWrite bool
}

// New validates and builds a Cluster. hosts is the full membership list
// (spec.md §3: "Fixed at startup; one host is designated the orderer");
// ordererHost must be a member of hosts (or equal self) and self must be a
// member of hosts.
func New(self wire.Host, hosts []wire.Host, ordererHost wire.Host, orderOnWrite bool) (*Cluster, error) {
	selfFound := false
	ordererFound := self.Equal(ordererHost)
	peers := make([]wire.Host, 0, len(hosts))

	for _, h := range hosts {
		if h.Equal(self) {
			selfFound = true
			continue
		}
		if h.Equal(ordererHost) {
			ordererFound = true
		}
		peers = append(peers, h)
	}
	if !selfFound {
		return nil, fmt.Errorf("cluster: self %s is not a member of the host list", self)
	}
	if !ordererFound {
		return nil, fmt.Errorf("cluster: orderer %s is not a member of the host list", ordererHost)
	}

	return &Cluster{
		Self:         self,
		Peers:        peers,
		Orderer:      ordererHost,
		IsOrderer:    self.Equal(ordererHost),
		OrderOnWrite: orderOnWrite,
	}, nil
}

// All returns every host in the cluster, self included, in no particular
// order.
func (c *Cluster) All() []wire.Host {
	return append(append([]wire.Host{}, c.Peers...), c.Self)
}

// ReplicaConfig adapts the cluster view into the Config the replica
// package consumes.
func (c *Cluster) ReplicaConfig() replica.Config {
	return replica.Config{
		Self:         c.Self,
		Peers:        c.Peers,
		Orderer:      c.Orderer,
		OrderOnWrite: c.OrderOnWrite,
	}
}
