// Package registry tracks in-flight query contexts so an operator can
// enumerate and administratively cancel them.
package registry

import (
	"sync"

	"github.com/google/uuid"
)

// Entry is one tracked query.
type Entry struct {
	ID     string
	Query  string
	Cancel func()
}

// Registry is a thread-safe table of active queries.
type Registry struct {
	mu      sync.Mutex
	entries map[string]Entry
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{entries: make(map[string]Entry)}
}

// Register adds a new entry, generating an id via google/uuid (the pack's
// convention for request identifiers, e.g. uzqw-vex), and returns it along
// with a release function the caller must invoke on completion.
func (r *Registry) Register(query string, cancel func()) (id string, release func()) {
	id = uuid.NewString()
	r.mu.Lock()
	r.entries[id] = Entry{ID: id, Query: query, Cancel: cancel}
	r.mu.Unlock()
	return id, func() {
		r.mu.Lock()
		delete(r.entries, id)
		r.mu.Unlock()
	}
}

// Cancel terminates the query with the given id, if still active. Returns
// false if no such query is registered (already finished or unknown id).
func (r *Registry) Cancel(id string) bool {
	r.mu.Lock()
	e, ok := r.entries[id]
	r.mu.Unlock()
	if !ok {
		return false
	}
	e.Cancel()
	return true
}

// List returns a snapshot of all currently active queries.
func (r *Registry) List() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e)
	}
	return out
}

// Len reports the number of active queries.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
