package ui

import (
	"testing"
	"time"
)

func TestDrawSchedulerCoalescesLatestPerID(t *testing.T) {
	s := newDrawScheduler(nil, 60)

	var seq []string
	s.Schedule("tree", func() { seq = append(seq, "tree-1") })
	s.Schedule("tree", func() { seq = append(seq, "tree-2") })
	s.Schedule("status", func() { seq = append(seq, "status") })

	s.flush()

	if len(seq) != 2 {
		t.Fatalf("expected 2 callbacks after coalescing, got %d (%v)", len(seq), seq)
	}
	for _, got := range seq {
		if got == "tree-1" {
			t.Fatalf("superseded update ran: %v", seq)
		}
	}

	s.flush()
	if len(seq) != 2 {
		t.Fatalf("empty flush must not rerun callbacks, got %v", seq)
	}
}

func TestDrawSchedulerFlushesPendingOnStop(t *testing.T) {
	s := newDrawScheduler(nil, 60)
	ran := make(chan struct{})
	s.Start()
	s.Schedule("pane", func() { close(ran) })
	s.Stop()

	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatalf("pending callback did not flush on stop")
	}
}

func TestDrawSchedulerStopIdempotent(t *testing.T) {
	s := newDrawScheduler(nil, 60)
	s.Start()
	s.Stop()
	s.Stop()
}

func TestDrawSchedulerNilSafe(t *testing.T) {
	var s *drawScheduler
	s.Schedule("x", func() {})
}
