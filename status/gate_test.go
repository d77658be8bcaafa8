package status

import (
	"context"
	"testing"
	"time"
)

func TestGateArmCoalesces(t *testing.T) {
	gate := NewGate()
	if !gate.Arm() {
		t.Fatalf("first Arm should arm the gate")
	}
	if gate.Arm() {
		t.Fatalf("second Arm before Done must coalesce")
	}
	if !gate.Armed() {
		t.Fatalf("gate should report armed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if !gate.Wait(ctx) {
		t.Fatalf("Wait should observe the armed gate")
	}

	// Only one signal may have been delivered for the two Arm calls.
	drained, drainCancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer drainCancel()
	if gate.Wait(drained) {
		t.Fatalf("coalesced Arm must not queue a second signal")
	}
}

func TestGateRearmsAfterDone(t *testing.T) {
	gate := NewGate()
	gate.Arm()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	gate.Wait(ctx)
	gate.Done()

	if gate.Armed() {
		t.Fatalf("gate should be open after Done")
	}
	if !gate.Arm() {
		t.Fatalf("Arm after Done should arm again")
	}
	if !gate.Wait(ctx) {
		t.Fatalf("Wait should observe the re-armed gate")
	}
}

func TestGateArmsDuringFetchAreAbsorbed(t *testing.T) {
	gate := NewGate()
	gate.Arm()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	gate.Wait(ctx)

	// Worker is "fetching" now; ticks keep arming.
	for i := 0; i < 5; i++ {
		if gate.Arm() {
			t.Fatalf("Arm during a pending fetch must be a no-op")
		}
	}
	gate.Done()

	drained, drainCancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer drainCancel()
	if gate.Wait(drained) {
		t.Fatalf("absorbed arms must not leave a queued signal")
	}
}

func TestGateWaitHonorsContext(t *testing.T) {
	gate := NewGate()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if gate.Wait(ctx) {
		t.Fatalf("Wait should return false on cancelled context")
	}
}
