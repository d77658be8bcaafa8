package status

import (
	"sync"
	"time"
)

// Store holds the single latest successfully fetched snapshot together with
// its fetch timestamp. The pair is replaced atomically; no reader ever sees
// a snapshot with the wrong timestamp. No history is kept.
type Store struct {
	mu        sync.Mutex
	snapshot  *Snapshot
	fetchedAt time.Time
}

func NewStore() *Store {
	return &Store{}
}

// Set replaces the stored snapshot and timestamp.
func (s *Store) Set(snap *Snapshot, fetchedAt time.Time) {
	s.mu.Lock()
	s.snapshot = snap
	s.fetchedAt = fetchedAt
	s.mu.Unlock()
}

// Get returns the stored pair, or ok=false when nothing has been fetched yet.
func (s *Store) Get() (*Snapshot, time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snapshot == nil {
		return nil, time.Time{}, false
	}
	return s.snapshot, s.fetchedAt, true
}
