package status

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestFetchOnceStoresSnapshot(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"pipelines":[{"name":"gate"}]}`))
	}))
	defer server.Close()

	store := NewStore()
	fetcher := NewFetcher(server.URL, store)
	if !fetcher.FetchOnce(context.Background(), time.Second) {
		t.Fatalf("expected fetch to succeed")
	}

	snap, at, ok := store.Get()
	if !ok {
		t.Fatalf("expected store to hold a snapshot")
	}
	if len(snap.Pipelines) != 1 || snap.Pipelines[0].Name != "gate" {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	if at.IsZero() {
		t.Fatalf("expected a fetch timestamp")
	}
}

func TestFetchFailuresLeaveStoreUntouched(t *testing.T) {
	var mode atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch mode.Load() {
		case 0:
			w.Write([]byte(`{"pipelines":[{"name":"gate"}]}`))
		case 1:
			w.WriteHeader(http.StatusInternalServerError)
		case 2:
			w.Write([]byte(`not json at all`))
		case 3:
			w.Write([]byte(`["pipelines"]`))
		}
	}))
	defer server.Close()

	store := NewStore()
	fetcher := NewFetcher(server.URL, store)
	if !fetcher.FetchOnce(context.Background(), time.Second) {
		t.Fatalf("seed fetch should succeed")
	}
	seeded, seededAt, _ := store.Get()

	for _, failureMode := range []int32{1, 2, 3} {
		mode.Store(failureMode)
		if fetcher.FetchOnce(context.Background(), time.Second) {
			t.Fatalf("mode %d: expected fetch to fail", failureMode)
		}
		snap, at, ok := store.Get()
		if !ok || snap != seeded || !at.Equal(seededAt) {
			t.Fatalf("mode %d: failure must not disturb the stored snapshot", failureMode)
		}
	}
}

func TestFetchTimeoutFails(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	store := NewStore()
	fetcher := NewFetcher(server.URL, store)
	if fetcher.FetchOnce(context.Background(), 50*time.Millisecond) {
		t.Fatalf("expected timeout failure")
	}
	if _, _, ok := store.Get(); ok {
		t.Fatalf("timeout must leave the store empty")
	}
}

func TestFetchUnreachableHostFails(t *testing.T) {
	store := NewStore()
	fetcher := NewFetcher("http://127.0.0.1:1/status.json", store)
	if fetcher.FetchOnce(context.Background(), time.Second) {
		t.Fatalf("expected connection failure")
	}
	if _, _, ok := store.Get(); ok {
		t.Fatalf("failure must leave the store empty")
	}
}
