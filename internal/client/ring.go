package client

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"slices"
	"sort"
)

// ring picks a default node to contact for a key, the way the teacher
// repo's consistent-hash ring (internal/cluster/ring.go) picked which nodes
// owned a key for sharded replication.
//
// This protocol has no sharding — every write goes to every replica
// (spec.md §4.1) and any node may answer any read — so the ring has no
// ownership role here. What it still offers is a deterministic pick that
// scatters different keys across the cluster. Client.defaultHost looks up
// one fixed key, so for a given host list it always yields the same
// contact node. This is a client ergonomics concern (spec.md §1 scopes "host
// selection" to the client library, an external collaborator), never a
// correctness mechanism.
//
// Built once from the cluster's static membership list and never mutated
// afterwards (dynamic membership is an explicit Non-goal), so unlike the
// teacher's Ring it carries no lock.
const defaultVnodes = 150

type ring struct {
	vnodes int
	points map[uint32]string
	sorted []uint32
}

func newRing(hosts []string, vnodes int) *ring {
	if vnodes <= 0 {
		vnodes = defaultVnodes
	}
	r := &ring{vnodes: vnodes, points: make(map[uint32]string)}
	for _, h := range hosts {
		r.add(h)
	}
	return r
}

func (r *ring) add(host string) {
	for i := 0; i < r.vnodes; i++ {
		pos := r.hash(fmt.Sprintf("%s#%d", host, i))
		r.points[pos] = host
	}
	r.rebuild()
}

// pick returns the single host responsible for key on the ring.
func (r *ring) pick(key string) (string, bool) {
	if len(r.sorted) == 0 {
		return "", false
	}
	pos := r.hash(key)
	idx := r.search(pos)
	return r.points[r.sorted[idx]], true
}

func (r *ring) hash(s string) uint32 {
	h := sha256.Sum256([]byte(s))
	return binary.BigEndian.Uint32(h[:4])
}

func (r *ring) rebuild() {
	r.sorted = make([]uint32, 0, len(r.points))
	for pos := range r.points {
		r.sorted = append(r.sorted, pos)
	}
	slices.Sort(r.sorted)
}

func (r *ring) search(pos uint32) int {
	idx := sort.Search(len(r.sorted), func(i int) bool {
		return r.sorted[i] >= pos
	})
	if idx == len(r.sorted) {
		idx = 0
	}
	return idx
}
