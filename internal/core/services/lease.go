package services

import (
	"fmt"
	"sort"
	"sync"

	"github.com/custodia-labs/ndavault/internal/core/domain"
)

// LeaseRegistry grants at most one processing lease per filename.
type LeaseRegistry struct {
	mu     sync.Mutex
	leases map[string]struct{}
}

// NewLeaseRegistry creates an empty registry.
func NewLeaseRegistry() *LeaseRegistry {
	return &LeaseRegistry{leases: make(map[string]struct{})}
}

// Acquire takes the lease for filename. It returns a release function that
// is safe to call more than once, or domain.ErrProcessingInProgress if the
// lease is already held.
func (r *LeaseRegistry) Acquire(filename string) (func(), error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, held := r.leases[filename]; held {
		return nil, fmt.Errorf("%s: %w", filename, domain.ErrProcessingInProgress)
	}
	r.leases[filename] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			delete(r.leases, filename)
			r.mu.Unlock()
		})
	}, nil
}

// Held reports whether a lease is held for filename.
func (r *LeaseRegistry) Held(filename string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, held := r.leases[filename]
	return held
}

// Active returns the filenames currently leased, sorted.
func (r *LeaseRegistry) Active() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]string, 0, len(r.leases))
	for name := range r.leases {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
