package inbox

import "sync"

// Registry tracks which endpoints are currently live for each user. It is
// process-local state, rebuilt as connections come and go, and is the only
// shared mutable resource in the messaging core. Construct one at server
// start and inject it; it is not a package global.
type Registry struct {
	mu        sync.RWMutex
	endpoints map[string][]string // userID -> ordered endpoint IDs
}

func NewRegistry() *Registry {
	return &Registry{endpoints: make(map[string][]string)}
}

// Register adds an endpoint to the user's set, creating the set if absent.
// Registering the same endpoint twice is a no-op.
func (r *Registry) Register(userID, endpointID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range r.endpoints[userID] {
		if id == endpointID {
			return
		}
	}
	r.endpoints[userID] = append(r.endpoints[userID], endpointID)
}

// Unregister removes an endpoint from the user's set. The entry is pruned
// when the last endpoint goes away.
func (r *Registry) Unregister(userID, endpointID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := r.endpoints[userID]
	for i, id := range ids {
		if id == endpointID {
			ids = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	if len(ids) == 0 {
		delete(r.endpoints, userID)
		return
	}
	r.endpoints[userID] = ids
}

// EndpointsFor returns a snapshot of the user's live endpoint IDs in
// registration order. Unknown users yield an empty slice.
func (r *Registry) EndpointsFor(userID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := r.endpoints[userID]
	out := make([]string, len(ids))
	copy(out, ids)
	return out
}
