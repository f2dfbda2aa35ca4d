// Package presence tracks which authenticated connections are online right now.
package presence

import (
	"sort"
	"sync"
)

// Entry is one online connection as shown on the roster.
type Entry struct {
	ConnectionID string
	Nickname     string
	Avatar       string
}

type slot struct {
	entry Entry
	seq   uint64
}

// Registry is a mutex-guarded map from connection id to roster entry.
// No I/O happens while the lock is held.
type Registry struct {
	mu      sync.Mutex
	entries map[string]slot
	seq     uint64
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]slot)}
}

// Add inserts or overwrites the entry for connectionID.
// An overwrite keeps the original roster position.
func (r *Registry) Add(connectionID, nickname, avatar string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, exists := r.entries[connectionID]
	if !exists {
		r.seq++
		s.seq = r.seq
	}
	s.entry = Entry{ConnectionID: connectionID, Nickname: nickname, Avatar: avatar}
	r.entries[connectionID] = s
}

// Remove deletes the entry for connectionID. Returns false if there was none.
func (r *Registry) Remove(connectionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[connectionID]; !exists {
		return false
	}
	delete(r.entries, connectionID)
	return true
}

// Snapshot returns a copy of all entries in the order they first joined.
func (r *Registry) Snapshot() []Entry {
	r.mu.Lock()
	slots := make([]slot, 0, len(r.entries))
	for _, s := range r.entries {
		slots = append(slots, s)
	}
	r.mu.Unlock()

	sort.Slice(slots, func(i, j int) bool { return slots[i].seq < slots[j].seq })

	out := make([]Entry, len(slots))
	for i, s := range slots {
		out[i] = s.entry
	}
	return out
}

// Len returns the number of online connections.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
