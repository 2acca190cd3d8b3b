// Package scene defines the drawable object model the sync engine operates
// on, the interface it drives the local scene through, and a headless
// in-memory scene used by tests and the CLI replica.
//
// The engine never renders anything itself. It observes scene mutation
// events, pushes patches and new objects back into the scene, and asks the
// scene to re-render; everything visual lives behind the Scene interface.
package scene

import "fmt"

// ObjectType discriminates the drawable kinds the engine syncs.
type ObjectType string

const (
	// ObjectPath is a freehand or constructed vector path.
	ObjectPath ObjectType = "path"

	// ObjectRect is an axis-aligned rectangle.
	ObjectRect ObjectType = "rect"

	// ObjectEllipse is an ellipse.
	ObjectEllipse ObjectType = "ellipse"

	// ObjectText is an editable text block.
	ObjectText ObjectType = "text"
)

// Validate checks if the ObjectType is a valid enum value.
func (t ObjectType) Validate() error {
	switch t {
	case ObjectPath, ObjectRect, ObjectEllipse, ObjectText:
		return nil
	default:
		return fmt.Errorf("unknown object type: %q", t)
	}
}

// Object is one drawable entity. The ID is assigned once on first sync and
// never changes afterwards; every replicated mapping hangs off it.
type Object struct {
	ID   string
	Type ObjectType

	// Geometry
	X        float64
	Y        float64
	ScaleX   float64
	ScaleY   float64
	Rotation float64 // degrees
	Width    float64
	Height   float64
	Path     string // path data, ObjectPath only
	Text     string // ObjectText only

	// Style
	Fill        Fill
	Stroke      string
	StrokeWidth float64
	Opacity     float64

	// Derived axis-aligned bounds, recomputed after geometry changes.
	// Not serialized; every replica derives its own.
	Bounds Bounds
}

// Bounds is an axis-aligned bounding box in scene coordinates.
type Bounds struct {
	MinX, MinY float64
	MaxX, MaxY float64
}

// RecomputeBounds rederives the object's bounding box from its geometry.
// Rotation is folded in as the loose (circumscribed) box; the engine only
// needs bounds for invalidation, not for hit testing.
func (o *Object) RecomputeBounds() {
	w := o.Width * scaleOrOne(o.ScaleX)
	h := o.Height * scaleOrOne(o.ScaleY)
	if o.Rotation != 0 {
		// Circumscribed square around the rotated box.
		d := w
		if h > d {
			d = h
		}
		w, h = d, d
	}
	o.Bounds = Bounds{MinX: o.X, MinY: o.Y, MaxX: o.X + w, MaxY: o.Y + h}
}

func scaleOrOne(s float64) float64 {
	if s == 0 {
		return 1
	}
	return s
}

// Patch is a partial object update. Nil fields are left untouched;
// a non-nil Fill replaces the current fill.
type Patch struct {
	Type *ObjectType

	X        *float64
	Y        *float64
	ScaleX   *float64
	ScaleY   *float64
	Rotation *float64
	Width    *float64
	Height   *float64
	Path     *string
	Text     *string

	Fill        Fill
	Stroke      *string
	StrokeWidth *float64
	Opacity     *float64
}

// Apply writes the patch's present fields onto the object and recomputes
// its bounds. Applying the same patch twice yields the same object state.
func (o *Object) Apply(p Patch) {
	if p.Type != nil {
		o.Type = *p.Type
	}
	if p.X != nil {
		o.X = *p.X
	}
	if p.Y != nil {
		o.Y = *p.Y
	}
	if p.ScaleX != nil {
		o.ScaleX = *p.ScaleX
	}
	if p.ScaleY != nil {
		o.ScaleY = *p.ScaleY
	}
	if p.Rotation != nil {
		o.Rotation = *p.Rotation
	}
	if p.Width != nil {
		o.Width = *p.Width
	}
	if p.Height != nil {
		o.Height = *p.Height
	}
	if p.Path != nil {
		o.Path = *p.Path
	}
	if p.Text != nil {
		o.Text = *p.Text
	}
	if p.Fill != nil {
		o.Fill = p.Fill
	}
	if p.Stroke != nil {
		o.Stroke = *p.Stroke
	}
	if p.StrokeWidth != nil {
		o.StrokeWidth = *p.StrokeWidth
	}
	if p.Opacity != nil {
		o.Opacity = *p.Opacity
	}
	o.RecomputeBounds()
}
