package main

import (
	"fmt"
	"math"
	"time"

	"github.com/larsks/gerrit-view/status"
)

// refresher is the staleness scheduler: once per tick it decides whether
// the cached snapshot is fresh enough and, if not, arms the fetch gate.
// Arming is coalesced by the gate, so no number of ticks can stack up more
// than one outstanding fetch.
type refresher struct {
	store    *status.Store
	gate     *status.Gate
	interval time.Duration
}

func newRefresher(store *status.Store, gate *status.Gate, interval time.Duration) *refresher {
	return &refresher{
		store:    store,
		gate:     gate,
		interval: interval,
	}
}

// Tick runs one scheduling decision and returns the status line to show.
func (r *refresher) Tick(now time.Time) string {
	_, fetchedAt, ok := r.store.Get()
	if !ok {
		r.gate.Arm()
		return "Initializing..."
	}
	age := now.Sub(fetchedAt)
	if age >= r.interval {
		r.gate.Arm()
		return "Refresh expected anytime now..."
	}
	remaining := int(math.Ceil((r.interval - age).Seconds()))
	return fmt.Sprintf("Refresh in %d seconds...", remaining)
}

// fetchTimeout bounds a stalled network call to half the refresh interval
// so it can never block the next eligible fetch for a full cycle.
func (r *refresher) fetchTimeout() time.Duration {
	return r.interval / 2
}
