package model

import (
	"testing"
	"time"
)

func TestRemoteDataStates(t *testing.T) {
	var notAsked RemoteData[*ClientMap]
	if notAsked.State() != NotAsked {
		t.Fatal("zero value should be NotAsked")
	}
	if _, ok := notAsked.Value(); ok {
		t.Fatal("NotAsked should have no value")
	}

	loading := NewLoading[*ClientMap]()
	if loading.State() != Loading {
		t.Fatal("expected Loading")
	}
	if _, ok := loading.Value(); ok {
		t.Fatal("Loading should have no value")
	}

	loaded := NewLoaded(NewClientMap())
	if loaded.State() != Loaded {
		t.Fatal("expected Loaded")
	}
	if v, ok := loaded.Value(); !ok || v == nil {
		t.Fatal("Loaded should expose its value")
	}
}

func TestChangesStatusTransitions(t *testing.T) {
	var c ChangesStatus
	if c.String() != "" {
		t.Fatalf("fresh status should be silent, got %q", c.String())
	}

	c.Begin()
	c.Begin()
	if c.InFlight() != 2 {
		t.Fatalf("expected 2 in flight, got %d", c.InFlight())
	}
	if c.String() != "saving 2 changes…" {
		t.Fatalf("unexpected text %q", c.String())
	}

	now := time.Date(2021, 3, 14, 15, 4, 5, 0, time.Local)
	c.End(now)
	if c.String() != "saving 1 change…" {
		t.Fatalf("unexpected text %q", c.String())
	}
	c.End(now)
	if c.String() != "saved at 15:04:05" {
		t.Fatalf("unexpected text %q", c.String())
	}

	// Underflow is clamped.
	c.End(now.Add(time.Second))
	if c.InFlight() != 0 {
		t.Fatal("in flight must not go negative")
	}
}
