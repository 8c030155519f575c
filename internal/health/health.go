// Package health maintains the host health snapshot consumed by the
// scorer. The snapshot is populated out-of-band by an external probe;
// scoring reads it synchronously and never performs network I/O.
package health

import "sync"

// HostStatus is the probe's view of one host.
type HostStatus struct {
	Online         bool
	ResponseTimeMs float64
}

// Snapshot maps host location to its last probed status.
type Snapshot map[string]HostStatus

// Store holds the current snapshot behind a RWMutex. Update replaces
// the whole snapshot atomically; Lookup is a pure read.
type Store struct {
	mu      sync.RWMutex
	current Snapshot
}

// NewStore creates an empty store. Every host is unknown (and so
// scored as unavailable) until the first Update.
func NewStore() *Store {
	return &Store{current: Snapshot{}}
}

// Update replaces the snapshot. The probe calls this on its own
// schedule; in-flight scoring passes keep reading the snapshot they
// started with or the new one, never a mix.
func (s *Store) Update(snap Snapshot) {
	copied := make(Snapshot, len(snap))
	for host, st := range snap {
		copied[host] = st
	}
	s.mu.Lock()
	s.current = copied
	s.mu.Unlock()
}

// Set records the status of a single host, leaving the rest of the
// snapshot untouched. Used when health reports arrive host-by-host
// instead of as a full probe sweep.
func (s *Store) Set(host string, st HostStatus) {
	s.mu.Lock()
	s.current[host] = st
	s.mu.Unlock()
}

// Lookup returns the host's status and whether the host is known.
func (s *Store) Lookup(host string) (HostStatus, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.current[host]
	return st, ok
}

// Len returns the number of known hosts.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.current)
}
