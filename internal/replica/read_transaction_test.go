package replica

import (
	"testing"

	"seqkv/internal/wire"
)

func TestReadTransactionResolvesImmediatelyWhenNothingPending(t *testing.T) {
	txn := newReadTransaction(host(9000), []wire.Key{"k1", "k2"})

	final := txn.addPair("k1", "v1", 0, true, true)
	if final {
		t.Fatal("should not be final until every key is resolved")
	}
	final = txn.addPair("k2", "v2", 1, true, true)
	if !final {
		t.Fatal("expected final once every key is resolved")
	}

	values, indexes := txn.response()
	if values[0] != "v1" || values[1] != "v2" {
		t.Fatalf("got values %v", values)
	}
	if *indexes[0] != 0 || *indexes[1] != 1 {
		t.Fatalf("got indexes %v %v", indexes[0], indexes[1])
	}
}

func TestReadTransactionWaitsOnPendingKey(t *testing.T) {
	txn := newReadTransaction(host(9000), []wire.Key{"k1", "k2"})
	txn.addPending("k1")

	final := txn.addPair("k2", "v2", 0, true, true)
	if final {
		t.Fatal("k1 is still pending, transaction must not be final")
	}
	if !txn.isMarkedPending("k1") {
		t.Fatal("k1 should still be marked pending")
	}

	final = txn.addPair("k1", "v1", 1, true, true)
	if !final {
		t.Fatal("expected final once the pending key resolves")
	}
}

func TestReadTransactionNeverWrittenKeyReportsAbsent(t *testing.T) {
	txn := newReadTransaction(host(9000), []wire.Key{"k1"})
	final := txn.addPair("k1", "", 0, false, true)
	if !final {
		t.Fatal("expected final for a single never-written key")
	}

	values, indexes := txn.response()
	if values[0] != "" {
		t.Fatalf("expected empty value, got %q", values[0])
	}
	if indexes[0] != nil {
		t.Fatalf("expected nil order index for a never-written key, got %v", *indexes[0])
	}
}
