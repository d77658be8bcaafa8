package status

import (
	"context"
	"sync/atomic"
)

// Gate is the single-flight trigger between the tick-driven scheduler and
// the fetch worker. Arming while a fetch is pending is a no-op: the signal
// is coalesced into the already-pending attempt, never queued behind it.
// The armed flag clears only after the attempt completes (success or
// failure), so no sequence of Arm calls can produce two outstanding fetches.
type Gate struct {
	armed  atomic.Bool
	signal chan struct{}
}

func NewGate() *Gate {
	return &Gate{signal: make(chan struct{}, 1)}
}

// Arm requests a fetch. It reports whether this call armed the gate; false
// means an attempt was already pending.
func (g *Gate) Arm() bool {
	if !g.armed.CompareAndSwap(false, true) {
		return false
	}
	select {
	case g.signal <- struct{}{}:
	default:
	}
	return true
}

// Armed reports whether a fetch attempt is pending.
func (g *Gate) Armed() bool {
	return g.armed.Load()
}

// Wait blocks until the gate is armed or the context ends. It returns false
// on context cancellation.
func (g *Gate) Wait(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return false
	case <-g.signal:
		return true
	}
}

// Done marks the current fetch attempt finished, re-opening the gate.
func (g *Gate) Done() {
	g.armed.Store(false)
}
