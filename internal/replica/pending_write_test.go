package replica

import (
	"testing"

	"seqkv/internal/wire"
)

func host(port int) wire.Host {
	return wire.Host{Address: "127.0.0.1", Port: port}
}

func TestPendingWriteCompleteAtNMinusOneAcks(t *testing.T) {
	pw := newPendingWrite("m1", []wire.Key{"k1"}, []wire.Value{"v1"}, host(9000))

	if pw.complete(3) {
		t.Fatal("expected incomplete with zero acks for cluster size 3")
	}

	pw.ack(host(1))
	if pw.complete(3) {
		t.Fatal("expected incomplete with one ack for cluster size 3")
	}

	pw.ack(host(2))
	if !pw.complete(3) {
		t.Fatal("expected complete at N-1 acks")
	}
}

func TestPendingWriteAckIsIdempotent(t *testing.T) {
	pw := newPendingWrite("m1", []wire.Key{"k1"}, []wire.Value{"v1"}, host(9000))

	pw.ack(host(1))
	pw.ack(host(1))

	if pw.complete(3) {
		t.Fatal("duplicate ack from the same host must not count twice")
	}
}

func TestPendingWriteCompleteSingleNodeCluster(t *testing.T) {
	pw := newPendingWrite("m1", []wire.Key{"k1"}, []wire.Value{"v1"}, host(9000))
	if !pw.complete(1) {
		t.Fatal("a cluster of size 1 needs zero peer acks")
	}
}
