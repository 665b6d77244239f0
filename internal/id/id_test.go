package id

import (
	"sort"
	"testing"
)

func TestNewOrdering(t *testing.T) {
	const n = 1000
	ids := make([]ID, n)
	for i := range ids {
		ids[i] = New()
	}
	for i := 1; i < n; i++ {
		if !ids[i-1].Less(ids[i]) {
			t.Fatalf("ids not strictly increasing at %d: %s >= %s", i, ids[i-1], ids[i])
		}
	}
	if !sort.SliceIsSorted(ids, func(i, j int) bool { return ids[i] < ids[j] }) {
		t.Fatal("string order does not match creation order")
	}
}

func TestNewLength(t *testing.T) {
	a := New()
	if len(a) != 36 {
		t.Fatalf("expected fixed-length token, got %d chars: %s", len(a), a)
	}
}

func TestParseRoundTrip(t *testing.T) {
	a := New()
	parsed, err := Parse(a.String())
	if err != nil {
		t.Fatal(err)
	}
	if parsed != a {
		t.Fatalf("round trip changed id: %s -> %s", a, parsed)
	}
}

func TestParseInvalid(t *testing.T) {
	if _, err := Parse("not-an-id"); err == nil {
		t.Fatal("expected error for malformed id")
	}
}

func TestParseNormalizes(t *testing.T) {
	a := New()
	upper := ID("")
	for _, r := range a {
		if r >= 'a' && r <= 'f' {
			r -= 32
		}
		upper += ID(r)
	}
	parsed, err := Parse(upper.String())
	if err != nil {
		t.Fatal(err)
	}
	if parsed != a {
		t.Fatalf("expected canonical form %s, got %s", a, parsed)
	}
}
