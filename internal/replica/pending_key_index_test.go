package replica

import (
	"testing"

	"seqkv/internal/wire"
)

func TestPendingKeyIndexPendingWriteCountsEveryKey(t *testing.T) {
	idx := newPendingKeyIndex()
	idx.addPendingWrite([]wire.Key{"k1", "k2"})

	if !idx.isPending("k1") || !idx.isPending("k2") {
		t.Fatal("expected both keys of the batch to be pending")
	}

	idx.removePendingWrite([]wire.Key{"k1", "k2"})
	if idx.isPending("k1") || idx.isPending("k2") {
		t.Fatal("expected both keys to be cleared")
	}
}

// TestPendingKeyIndexCommitPendingCountsOnlyFirstKey pins down the spec's
// deliberately asymmetric rule: a CommitPending entry marks only its first
// key pending, even though the write touches every key in the batch.
func TestPendingKeyIndexCommitPendingCountsOnlyFirstKey(t *testing.T) {
	idx := newPendingKeyIndex()
	idx.addCommitPending("k1")

	if !idx.isPending("k1") {
		t.Fatal("expected first key to be pending")
	}
	if idx.isPending("k2") {
		t.Fatal("second key of the same batch must not be marked pending")
	}
}

func TestPendingKeyIndexOverlappingWritesOnSameKey(t *testing.T) {
	idx := newPendingKeyIndex()
	idx.addPendingWrite([]wire.Key{"k1"})
	idx.addPendingWrite([]wire.Key{"k1"})

	idx.removePendingWrite([]wire.Key{"k1"})
	if !idx.isPending("k1") {
		t.Fatal("one outstanding write on k1 should still be pending after removing one of two")
	}

	idx.removePendingWrite([]wire.Key{"k1"})
	if idx.isPending("k1") {
		t.Fatal("expected k1 to be clear once both writes are removed")
	}
}
