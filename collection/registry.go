package collection

import (
	"fmt"
	"sort"
	"sync"
)

// Registry maps fully qualified generated type names to their handles.
// Both the record name and the collection name resolve to the same handle.
type Registry struct {
	mu      sync.RWMutex
	handles map[string]Handle
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{handles: make(map[string]Handle)}
}

// defaultRegistry receives registrations from generated init functions.
var defaultRegistry = NewRegistry()

// Default returns the process-wide registry used by generated code.
func Default() *Registry {
	return defaultRegistry
}

// Register adds a handle to the default registry.
// Panics if either type name is already registered.
func Register(h Handle) {
	defaultRegistry.Register(h)
}

// Register adds a handle to the registry.
// Panics if either type name is already registered or the handle has no factories.
func (r *Registry) Register(h Handle) {
	if !h.Valid() {
		panic(fmt.Sprintf("collection: handle for %s has nil factories", h.CollectionName()))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, name := range []string{h.RecordName(), h.CollectionName()} {
		if _, exists := r.handles[name]; exists {
			panic(fmt.Sprintf("collection: type already registered: %s", name))
		}
	}

	r.handles[h.RecordName()] = h
	r.handles[h.CollectionName()] = h
}

// Lookup returns the handle registered under a record or collection name.
// Returns false if the generated code has not been compiled into this binary.
func (r *Registry) Lookup(fullName string) (Handle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	h, ok := r.handles[fullName]
	return h, ok
}

// All returns every registered handle once, sorted by collection name.
func (r *Registry) All() []Handle {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]bool)
	result := make([]Handle, 0, len(r.handles)/2)
	for _, h := range r.handles {
		if seen[h.CollectionName()] {
			continue
		}
		seen[h.CollectionName()] = true
		result = append(result, h)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CollectionName() < result[j].CollectionName()
	})
	return result
}

// Len returns the number of registered sheets.
func (r *Registry) Len() int {
	return len(r.All())
}

// Clear removes all registrations.
// Primarily useful for testing.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handles = make(map[string]Handle)
}
