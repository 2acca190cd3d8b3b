package scene

import "sync"

// Memory is a headless in-memory Scene. It keeps objects in insertion
// order, dispatches events synchronously, and counts render requests so
// tests can assert on redraw batching. The CLI replica uses it as the local
// scene when no rendering engine is attached.
type Memory struct {
	mu        sync.Mutex
	objects   []*Object
	index     map[string]int // id -> position in objects
	listeners map[int]Listener
	nextID    int
	renders   int
}

// NewMemory creates an empty in-memory scene.
func NewMemory() *Memory {
	return &Memory{
		index:     make(map[string]int),
		listeners: make(map[int]Listener),
	}
}

// Insert adds an object and fires object-added.
func (m *Memory) Insert(obj *Object) {
	m.mu.Lock()
	m.objects = append(m.objects, obj)
	if obj.ID != "" {
		m.index[obj.ID] = len(m.objects) - 1
	}
	m.mu.Unlock()

	m.dispatch(Event{Kind: EventObjectAdded, Object: obj})
}

// ApplyPatch applies a partial update in place and fires object-modified.
func (m *Memory) ApplyPatch(obj *Object, p Patch) {
	obj.Apply(p)
	m.dispatch(Event{Kind: EventObjectModified, Object: obj})
}

// Remove takes an object out and fires object-removed.
// Removing an object that is not present is a no-op.
func (m *Memory) Remove(obj *Object) {
	m.mu.Lock()
	removed := false
	for i, o := range m.objects {
		if o == obj {
			m.objects = append(m.objects[:i], m.objects[i+1:]...)
			removed = true
			break
		}
	}
	if removed {
		m.reindex()
	}
	m.mu.Unlock()

	if removed {
		m.dispatch(Event{Kind: EventObjectRemoved, Object: obj})
	}
}

// Clear drops every object and fires scene-cleared.
func (m *Memory) Clear() {
	m.mu.Lock()
	m.objects = nil
	m.index = make(map[string]int)
	m.mu.Unlock()

	m.dispatch(Event{Kind: EventSceneCleared})
}

// Objects returns the current objects in insertion order.
func (m *Memory) Objects() []*Object {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Object, len(m.objects))
	copy(out, m.objects)
	return out
}

// Lookup returns the scene object with the given id, if present.
func (m *Memory) Lookup(id string) (*Object, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i, ok := m.index[id]; ok && i < len(m.objects) && m.objects[i].ID == id {
		return m.objects[i], true
	}
	// Ids assigned after insertion (local objects on first sync) are not in
	// the index; fall back to a scan.
	for _, o := range m.objects {
		if o.ID == id {
			return o, true
		}
	}
	return nil, false
}

// RequestRender counts the redraw request. A real scene would schedule a
// repaint here.
func (m *Memory) RequestRender() {
	m.mu.Lock()
	m.renders++
	m.mu.Unlock()
}

// Renders returns how many redraws have been requested.
func (m *Memory) Renders() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.renders
}

// AddListener registers a mutation listener.
func (m *Memory) AddListener(fn Listener) (remove func()) {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.listeners, id)
		m.mu.Unlock()
	}
}

// FinishPath inserts a completed freehand path and fires path-created,
// the discrete terminal event of a drawing gesture.
func (m *Memory) FinishPath(obj *Object) {
	m.mu.Lock()
	m.objects = append(m.objects, obj)
	if obj.ID != "" {
		m.index[obj.ID] = len(m.objects) - 1
	}
	m.mu.Unlock()

	m.dispatch(Event{Kind: EventPathCreated, Object: obj})
}

// ExitTextEdit fires text-edit-exited for a text object whose in-place
// editing just finished.
func (m *Memory) ExitTextEdit(obj *Object) {
	m.dispatch(Event{Kind: EventTextEditExited, Object: obj})
}

// dispatch invokes every listener synchronously, outside the scene lock so
// listeners can call back into the scene.
func (m *Memory) dispatch(ev Event) {
	m.mu.Lock()
	fns := make([]Listener, 0, len(m.listeners))
	for _, fn := range m.listeners {
		fns = append(fns, fn)
	}
	m.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

func (m *Memory) reindex() {
	m.index = make(map[string]int, len(m.objects))
	for i, o := range m.objects {
		if o.ID != "" {
			m.index[o.ID] = i
		}
	}
}
