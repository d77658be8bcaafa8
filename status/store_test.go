package status

import (
	"sync"
	"testing"
	"time"
)

func TestStoreEmptyUntilFirstSet(t *testing.T) {
	store := NewStore()
	if _, _, ok := store.Get(); ok {
		t.Fatalf("expected empty store before first Set")
	}

	snap := &Snapshot{}
	at := time.Now()
	store.Set(snap, at)

	got, gotAt, ok := store.Get()
	if !ok {
		t.Fatalf("expected snapshot after Set")
	}
	if got != snap {
		t.Fatalf("expected the stored snapshot pointer back")
	}
	if !gotAt.Equal(at) {
		t.Fatalf("expected timestamp %v, got %v", at, gotAt)
	}
}

func TestStoreReplacesNotAccumulates(t *testing.T) {
	store := NewStore()
	first := &Snapshot{Pipelines: []Pipeline{{Name: "gate"}}}
	second := &Snapshot{Pipelines: []Pipeline{{Name: "check"}}}
	store.Set(first, time.Unix(1, 0))
	store.Set(second, time.Unix(2, 0))

	got, at, _ := store.Get()
	if got != second {
		t.Fatalf("expected latest snapshot only")
	}
	if !at.Equal(time.Unix(2, 0)) {
		t.Fatalf("expected latest timestamp, got %v", at)
	}
}

// Each snapshot is stored with a timestamp that identifies it; concurrent
// readers must never observe a mismatched pair.
func TestStorePairStaysConsistentUnderConcurrency(t *testing.T) {
	store := NewStore()
	snaps := make([]*Snapshot, 16)
	for i := range snaps {
		snaps[i] = &Snapshot{Pipelines: []Pipeline{{Name: "p"}}}
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			store.Set(snaps[i%len(snaps)], time.Unix(int64(i%len(snaps)), 0))
		}
	}()
	errs := make(chan error, 1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			snap, at, ok := store.Get()
			if !ok {
				continue
			}
			if snaps[at.Unix()] != snap {
				select {
				case errs <- nil:
				default:
				}
				return
			}
		}
	}()
	wg.Wait()
	select {
	case <-errs:
		t.Fatalf("observed snapshot paired with wrong timestamp")
	default:
	}
}
