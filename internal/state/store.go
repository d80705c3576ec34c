// Package state holds the latest ingestion result and republishes it to
// subscribers. Snapshots are replaced wholesale per batch, never
// mutated in place.
package state

import (
	"sync"
	"time"

	"github.com/qdblens/qdblens/internal/ingest"
)

// Snapshot is one published ingestion result.
type Snapshot struct {
	Result     *ingest.Result
	IngestedAt time.Time
}

// Store is the state container between the pipeline and the read
// surfaces (API, dashboard).
type Store struct {
	mu          sync.RWMutex
	current     Snapshot
	subscribers []func(Snapshot)
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{current: Snapshot{Result: &ingest.Result{}}}
}

// Set replaces the current snapshot and notifies subscribers in
// subscription order. Notification runs on the caller's goroutine.
func (s *Store) Set(result *ingest.Result) {
	s.mu.Lock()
	snap := Snapshot{Result: result, IngestedAt: time.Now().UTC()}
	s.current = snap
	subs := make([]func(Snapshot), len(s.subscribers))
	copy(subs, s.subscribers)
	s.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}

// Reset discards the current snapshot ahead of a new batch.
func (s *Store) Reset() {
	s.Set(&ingest.Result{})
}

// Snapshot returns the currently published snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Subscribe registers a callback invoked on every Set/Reset. There is
// no unsubscribe: subscribers live as long as the store.
func (s *Store) Subscribe(fn func(Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}
