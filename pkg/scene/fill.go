package scene

import "image"

// Fill is the paint applied to an object's interior. Exactly one of the
// three implementations applies: Solid, *Gradient, or *Pattern. The scene
// keeps these rich types throughout; only the serialization boundary
// flattens them into tagged plain values.
type Fill interface {
	fillKind() string
}

// Solid is a flat color fill, e.g. "#ff0000".
type Solid string

func (Solid) fillKind() string { return "solid" }

// GradientType selects the gradient geometry.
type GradientType string

const (
	GradientLinear GradientType = "linear"
	GradientRadial GradientType = "radial"
)

// GradientStop is one color stop along a gradient.
type GradientStop struct {
	Offset float64 // 0..1 along the gradient axis
	Color  string
}

// Gradient is a multi-stop gradient fill.
type Gradient struct {
	Type  GradientType
	Stops []GradientStop

	// Geometry: (X1,Y1)-(X2,Y2) axis for linear gradients,
	// center/focal circles with radii R1, R2 for radial ones.
	X1, Y1 float64
	X2, Y2 float64
	R1, R2 float64
}

func (*Gradient) fillKind() string { return "gradient" }

// Pattern is a named-texture fill with a tint. The texture pixels are never
// replicated; Image is resolved locally on each replica from Name + Color
// and stays nil until that resolution completes (or fails).
type Pattern struct {
	Name  string
	Color string // tint
	Image image.Image
}

func (*Pattern) fillKind() string { return "pattern" }
