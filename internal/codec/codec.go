// Package codec converts scene objects to and from the plain records the
// replicated document can store. Rich fill values (gradients, patterns)
// cross this boundary as {kind, payload} tagged values; pattern texture
// pixels never cross it at all.
package codec

import (
	"context"
	"fmt"

	"github.com/dyluth/easel/internal/pattern"
	"github.com/dyluth/easel/pkg/document"
	"github.com/dyluth/easel/pkg/scene"
)

// Record field names. All values are plain: strings, float64s, nested
// map[string]any / []any, so records survive any JSON-shaped substrate.
const (
	fieldID          = "id"
	fieldType        = "type"
	fieldX           = "x"
	fieldY           = "y"
	fieldScaleX      = "scale_x"
	fieldScaleY      = "scale_y"
	fieldRotation    = "rotation"
	fieldWidth       = "width"
	fieldHeight      = "height"
	fieldPath        = "path"
	fieldText        = "text"
	fieldFill        = "fill"
	fieldStroke      = "stroke"
	fieldStrokeWidth = "stroke_width"
	fieldOpacity     = "opacity"
)

// Fill encoding tags.
const (
	fillKindGradient = "gradient"
	fillKindPattern  = "pattern"
)

// ToRecord produces the plain representation of obj. The record's id always
// equals the object's id.
func ToRecord(obj *scene.Object) document.Record {
	rec := document.Record{
		fieldID:          obj.ID,
		fieldType:        string(obj.Type),
		fieldX:           obj.X,
		fieldY:           obj.Y,
		fieldScaleX:      obj.ScaleX,
		fieldScaleY:      obj.ScaleY,
		fieldRotation:    obj.Rotation,
		fieldWidth:       obj.Width,
		fieldHeight:      obj.Height,
		fieldPath:        obj.Path,
		fieldText:        obj.Text,
		fieldStroke:      obj.Stroke,
		fieldStrokeWidth: obj.StrokeWidth,
		fieldOpacity:     obj.Opacity,
	}
	if fill := encodeFill(obj.Fill); fill != nil {
		rec[fieldFill] = fill
	}
	return rec
}

func encodeFill(f scene.Fill) any {
	switch fill := f.(type) {
	case nil:
		return nil
	case scene.Solid:
		return string(fill)
	case *scene.Gradient:
		stops := make([]any, len(fill.Stops))
		for i, s := range fill.Stops {
			stops[i] = map[string]any{"offset": s.Offset, "color": s.Color}
		}
		return map[string]any{
			"kind": fillKindGradient,
			"payload": map[string]any{
				"type":  string(fill.Type),
				"stops": stops,
				"x1":    fill.X1, "y1": fill.Y1,
				"x2": fill.X2, "y2": fill.Y2,
				"r1": fill.R1, "r2": fill.R2,
			},
		}
	case *scene.Pattern:
		// Symbolic reference plus tint only - no pixel data.
		return map[string]any{
			"kind":    fillKindPattern,
			"payload": map[string]any{"name": fill.Name, "color": fill.Color},
		}
	default:
		return nil
	}
}

// FillResolution is the deferred step of decoding a pattern fill: the
// texture fetch is I/O-bound and must not block applying the rest of the
// object's properties.
type FillResolution struct {
	Name  string
	Color string
}

// Resolve fetches and tints the named texture, yielding the materialized
// pattern fill. On failure callers fall back to Fallback().
func (f *FillResolution) Resolve(ctx context.Context, r pattern.Resolver) (scene.Fill, error) {
	if r == nil {
		return nil, fmt.Errorf("no pattern resolver configured")
	}
	img, err := r.Resolve(ctx, f.Name, f.Color)
	if err != nil {
		return nil, err
	}
	return &scene.Pattern{Name: f.Name, Color: f.Color, Image: img}, nil
}

// Fallback is the flat-color stand-in used when texture resolution fails or
// no resolver is configured.
func (f *FillResolution) Fallback() scene.Fill {
	return scene.Solid(f.Color)
}

// FromRecord decodes rec into a patch for immediate application, plus the
// deferred pattern-fill resolution step when the fill is a pattern.
// The patch carries every property except an unresolved pattern fill.
func FromRecord(rec document.Record) (scene.Patch, *FillResolution, error) {
	id, _ := rec[fieldID].(string)
	if id == "" {
		return scene.Patch{}, nil, fmt.Errorf("record has no id")
	}

	objType := scene.ObjectType(stringField(rec, fieldType))
	if err := objType.Validate(); err != nil {
		return scene.Patch{}, nil, fmt.Errorf("record %s: %w", id, err)
	}

	p := scene.Patch{
		Type:        &objType,
		X:           floatField(rec, fieldX),
		Y:           floatField(rec, fieldY),
		ScaleX:      floatField(rec, fieldScaleX),
		ScaleY:      floatField(rec, fieldScaleY),
		Rotation:    floatField(rec, fieldRotation),
		Width:       floatField(rec, fieldWidth),
		Height:      floatField(rec, fieldHeight),
		Path:        stringFieldPtr(rec, fieldPath),
		Text:        stringFieldPtr(rec, fieldText),
		Stroke:      stringFieldPtr(rec, fieldStroke),
		StrokeWidth: floatField(rec, fieldStrokeWidth),
		Opacity:     floatField(rec, fieldOpacity),
	}

	fill, res, err := decodeFill(rec[fieldFill])
	if err != nil {
		return scene.Patch{}, nil, fmt.Errorf("record %s: %w", id, err)
	}
	p.Fill = fill
	return p, res, nil
}

func decodeFill(v any) (scene.Fill, *FillResolution, error) {
	switch fill := v.(type) {
	case nil:
		return nil, nil, nil
	case string:
		return scene.Solid(fill), nil, nil
	case map[string]any:
		kind, _ := fill["kind"].(string)
		payload, _ := fill["payload"].(map[string]any)
		switch kind {
		case fillKindGradient:
			return decodeGradient(payload), nil, nil
		case fillKindPattern:
			name, _ := payload["name"].(string)
			color, _ := payload["color"].(string)
			if name == "" {
				return nil, nil, fmt.Errorf("pattern fill has no name")
			}
			// The pattern itself resolves asynchronously.
			return nil, &FillResolution{Name: name, Color: color}, nil
		default:
			return nil, nil, fmt.Errorf("unknown fill kind: %q", kind)
		}
	default:
		return nil, nil, fmt.Errorf("malformed fill value of type %T", v)
	}
}

func decodeGradient(payload map[string]any) *scene.Gradient {
	g := &scene.Gradient{
		Type: scene.GradientType(stringField(payload, "type")),
		X1:   floatValue(payload["x1"]),
		Y1:   floatValue(payload["y1"]),
		X2:   floatValue(payload["x2"]),
		Y2:   floatValue(payload["y2"]),
		R1:   floatValue(payload["r1"]),
		R2:   floatValue(payload["r2"]),
	}
	stops, _ := payload["stops"].([]any)
	for _, s := range stops {
		stop, _ := s.(map[string]any)
		g.Stops = append(g.Stops, scene.GradientStop{
			Offset: floatValue(stop["offset"]),
			Color:  stringField(stop, "color"),
		})
	}
	return g
}

func stringField(rec map[string]any, field string) string {
	s, _ := rec[field].(string)
	return s
}

func stringFieldPtr(rec map[string]any, field string) *string {
	if v, ok := rec[field].(string); ok {
		return &v
	}
	return nil
}

func floatField(rec map[string]any, field string) *float64 {
	if v, ok := rec[field]; ok {
		f := floatValue(v)
		return &f
	}
	return nil
}

// floatValue coerces the numeric types a record can carry. JSON substrates
// deliver float64; in-process records may hold ints.
func floatValue(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	default:
		return 0
	}
}
