package replica

import "testing"

func TestOrderBufferInsertAndNext(t *testing.T) {
	b := newOrderBuffer()

	if _, ok := b.next(0); ok {
		t.Fatal("expected nothing buffered at index 0")
	}

	b.insert("m2", 1)
	b.insert("m1", 0)

	id, ok := b.next(0)
	if !ok || id != "m1" {
		t.Fatalf("got (%v, %v), want (m1, true)", id, ok)
	}

	// Consumed entries are removed.
	if _, ok := b.next(0); ok {
		t.Fatal("index 0 should have been drained")
	}

	id, ok = b.next(1)
	if !ok || id != "m2" {
		t.Fatalf("got (%v, %v), want (m2, true)", id, ok)
	}
}
