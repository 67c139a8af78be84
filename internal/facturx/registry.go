package facturx

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrBuilderNotFound indicates no builder is registered for a profile.
// It is a configuration error: fatal to the request, never retried.
var ErrBuilderNotFound = errors.New("facturx: builder not found")

// Registry maps profiles to their document builders.
type Registry struct {
	mu       sync.RWMutex
	builders map[Profile]Builder
}

// NewRegistry constructs a registry with the given builders registered.
func NewRegistry(builders ...Builder) *Registry {
	r := &Registry{builders: make(map[Profile]Builder)}
	for _, b := range builders {
		r.Register(b)
	}
	return r
}

// Register installs a builder for its profile. Last registration wins.
func (r *Registry) Register(b Builder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.builders[b.Profile()] = b
}

// Get returns the builder for a profile.
func (r *Registry) Get(p Profile) (Builder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.builders[p]
	if !ok {
		return nil, fmt.Errorf("%w: no builder registered for profile %q", ErrBuilderNotFound, p)
	}
	return b, nil
}

// SupportedProfiles lists registered profiles in stable order.
func (r *Registry) SupportedProfiles() []Profile {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Profile, 0, len(r.builders))
	for p := range r.builders {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
