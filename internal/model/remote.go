package model

import (
	"fmt"
	"time"
)

// RemoteState tells whether a server-sourced value has been requested yet.
type RemoteState int

const (
	NotAsked RemoteState = iota
	Loading
	Loaded
)

// RemoteData wraps a server-sourced value so that loading and absent states
// are explicit rather than implicit nil checks. A fetch that fails leaves the
// wrapper in Loading; the error is reported separately.
type RemoteData[T any] struct {
	state RemoteState
	data  T
}

func NewLoading[T any]() RemoteData[T] {
	return RemoteData[T]{state: Loading}
}

func NewLoaded[T any](v T) RemoteData[T] {
	return RemoteData[T]{state: Loaded, data: v}
}

func (r RemoteData[T]) State() RemoteState { return r.state }

// Value returns the loaded data, or ok=false when the data has not arrived.
// Handlers built on Value silently do nothing while a fetch is outstanding.
func (r RemoteData[T]) Value() (T, bool) {
	var zero T
	if r.state != Loaded {
		return zero, false
	}
	return r.data, true
}

// ChangesStatus tracks aggregate save progress across in-flight mutations.
type ChangesStatus struct {
	inFlight int
	savedAt  time.Time
}

// Begin records one dispatched mutation.
func (c *ChangesStatus) Begin() { c.inFlight++ }

// End records one resolved mutation; when the last one resolves the status
// becomes "saved" as of now.
func (c *ChangesStatus) End(now time.Time) {
	if c.inFlight > 0 {
		c.inFlight--
	}
	if c.inFlight == 0 {
		c.savedAt = now
	}
}

func (c ChangesStatus) InFlight() int { return c.inFlight }

func (c ChangesStatus) String() string {
	switch {
	case c.inFlight == 1:
		return "saving 1 change…"
	case c.inFlight > 1:
		return fmt.Sprintf("saving %d changes…", c.inFlight)
	case !c.savedAt.IsZero():
		return "saved at " + c.savedAt.Format("15:04:05")
	default:
		return ""
	}
}
