package scene

// EventKind identifies what happened to the scene.
type EventKind string

const (
	// EventObjectAdded fires when a new object enters the scene.
	EventObjectAdded EventKind = "object-added"

	// EventObjectModified fires on every property change, including each
	// step of an in-progress drag or resize gesture.
	EventObjectModified EventKind = "object-modified"

	// EventObjectRemoved fires when an object leaves the scene.
	EventObjectRemoved EventKind = "object-removed"

	// EventPathCreated fires when a freehand drawing gesture completes.
	EventPathCreated EventKind = "path-created"

	// EventTextEditExited fires when an in-place text edit finishes.
	EventTextEditExited EventKind = "text-edit-exited"

	// EventSceneCleared fires after the scene drops every object.
	// It carries no object.
	EventSceneCleared EventKind = "scene-cleared"
)

// Event is one scene mutation notification. Object is nil for
// EventSceneCleared.
type Event struct {
	Kind   EventKind
	Object *Object
}

// Listener receives scene events. Listeners are invoked synchronously on
// the goroutine performing the mutation.
type Listener func(Event)

// Scene is the surface the sync engine drives the local scene through.
// The rendering engine behind it is out of scope; anything that can insert,
// patch, and remove objects and redraw on request can sit here.
type Scene interface {
	// Insert adds an object to the scene.
	Insert(obj *Object)

	// ApplyPatch applies a partial update to an existing object in place.
	ApplyPatch(obj *Object, p Patch)

	// Remove takes an object out of the scene.
	Remove(obj *Object)

	// Clear drops every object.
	Clear()

	// Objects returns the scene's current objects in insertion order.
	Objects() []*Object

	// RequestRender asks the scene to redraw. Cheap to call; the scene may
	// coalesce requests.
	RequestRender()

	// AddListener registers a mutation listener and returns a function that
	// removes it.
	AddListener(fn Listener) (remove func())
}
