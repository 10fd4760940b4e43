package client

import "testing"

func TestRingPickIsDeterministic(t *testing.T) {
	r := newRing([]string{"h1:8080", "h2:8081", "h3:8082"}, 0)

	first, ok := r.pick("default")
	if !ok {
		t.Fatal("expected a pick from a non-empty ring")
	}
	second, _ := r.pick("default")
	if first != second {
		t.Fatalf("pick(%q) should be deterministic, got %q then %q", "default", first, second)
	}
}

func TestRingPickEmptyRing(t *testing.T) {
	r := newRing(nil, 0)
	if _, ok := r.pick("default"); ok {
		t.Fatal("expected no pick from an empty ring")
	}
}

func TestRingPickOnlyReturnsKnownHosts(t *testing.T) {
	hosts := []string{"h1:8080", "h2:8081", "h3:8082"}
	r := newRing(hosts, 0)

	known := make(map[string]bool)
	for _, h := range hosts {
		known[h] = true
	}

	for _, key := range []string{"a", "b", "c", "default", "zzz"} {
		picked, ok := r.pick(key)
		if !ok {
			t.Fatalf("pick(%q) returned no host", key)
		}
		if !known[picked] {
			t.Fatalf("pick(%q) returned unknown host %q", key, picked)
		}
	}
}

func TestRingSpreadsLoadAcrossHosts(t *testing.T) {
	hosts := []string{"h1:8080", "h2:8081", "h3:8082"}
	r := newRing(hosts, 0)

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		picked, ok := r.pick(string(rune('a' + i%26)))
		if !ok {
			t.Fatal("expected a pick")
		}
		seen[picked] = true
	}
	if len(seen) < 2 {
		t.Fatalf("expected keys to spread across more than one host, got %v", seen)
	}
}
