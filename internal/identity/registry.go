// Package identity assigns and tracks the stable unique id of every synced
// scene object, and maintains the id -> live object mapping both directions
// of the sync engine resolve through.
package identity

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/dyluth/easel/pkg/scene"
)

// Registry maps object ids to live scene objects. The registry does not own
// the objects; the scene does. Safe for concurrent use.
type Registry struct {
	mu   sync.Mutex
	byID map[string]*scene.Object
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byID: make(map[string]*scene.Object)}
}

// EnsureID returns the object's id, assigning a fresh UUID if the object
// has none yet, and registers the object under it. Idempotent: calling it
// again returns the same id. An id, once assigned, is never reassigned.
func (r *Registry) EnsureID(obj *scene.Object) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if obj.ID == "" {
		obj.ID = uuid.NewString()
	}
	r.byID[obj.ID] = obj
	return obj.ID
}

// Register records the id -> object mapping for an object whose id is
// already known (remote materialization). Returns an error if the id is
// registered to a different object; ids are write-once.
func (r *Registry) Register(id string, obj *scene.Object) error {
	if id == "" {
		return fmt.Errorf("cannot register empty id")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.byID[id]; ok && existing != obj {
		return fmt.Errorf("id %s already registered to a different object", id)
	}
	obj.ID = id
	r.byID[id] = obj
	return nil
}

// Unregister drops the mapping for id. Unknown ids are a no-op.
func (r *Registry) Unregister(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byID, id)
}

// Resolve returns the live object registered under id.
func (r *Registry) Resolve(id string) (*scene.Object, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	obj, ok := r.byID[id]
	return obj, ok
}

// IDs returns every registered id, in no particular order.
func (r *Registry) IDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.byID))
	for id := range r.byID {
		ids = append(ids, id)
	}
	return ids
}

// Reset drops every mapping. Used when the scene is rebuilt from the
// replicated document on bootstrap.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID = make(map[string]*scene.Object)
}
