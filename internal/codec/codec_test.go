package codec

import (
	"context"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dyluth/easel/pkg/scene"
)

// fakeResolver returns a fixed image for every texture name.
type fakeResolver struct {
	img  image.Image
	err  error
	name string
	tint string
}

func (f *fakeResolver) Resolve(ctx context.Context, name, tint string) (image.Image, error) {
	f.name, f.tint = name, tint
	if f.err != nil {
		return nil, f.err
	}
	return f.img, nil
}

func baseObject() *scene.Object {
	return &scene.Object{
		ID:          "abc",
		Type:        scene.ObjectRect,
		X:           10,
		Y:           20,
		ScaleX:      1.5,
		ScaleY:      2,
		Rotation:    30,
		Width:       100,
		Height:      50,
		Stroke:      "#333333",
		StrokeWidth: 2,
		Opacity:     0.8,
	}
}

func TestRecordIDInvariant(t *testing.T) {
	obj := baseObject()
	rec := ToRecord(obj)
	assert.Equal(t, obj.ID, rec["id"])
}

func TestRoundTripSolidFill(t *testing.T) {
	obj := baseObject()
	obj.Fill = scene.Solid("#ff0000")

	patch, res, err := FromRecord(ToRecord(obj))
	require.NoError(t, err)
	assert.Nil(t, res)

	got := &scene.Object{ID: obj.ID}
	got.Apply(patch)

	assert.Equal(t, obj.Type, got.Type)
	assert.Equal(t, obj.X, got.X)
	assert.Equal(t, obj.Y, got.Y)
	assert.Equal(t, obj.ScaleX, got.ScaleX)
	assert.Equal(t, obj.ScaleY, got.ScaleY)
	assert.Equal(t, obj.Rotation, got.Rotation)
	assert.Equal(t, obj.Width, got.Width)
	assert.Equal(t, obj.Height, got.Height)
	assert.Equal(t, obj.Stroke, got.Stroke)
	assert.Equal(t, obj.StrokeWidth, got.StrokeWidth)
	assert.Equal(t, obj.Opacity, got.Opacity)
	assert.Equal(t, scene.Solid("#ff0000"), got.Fill)
}

func TestRoundTripGradientFill(t *testing.T) {
	obj := baseObject()
	obj.Fill = &scene.Gradient{
		Type: scene.GradientRadial,
		Stops: []scene.GradientStop{
			{Offset: 0, Color: "#000000"},
			{Offset: 0.5, Color: "#808080"},
			{Offset: 1, Color: "#ffffff"},
		},
		X1: 1, Y1: 2, X2: 3, Y2: 4, R1: 5, R2: 6,
	}

	rec := ToRecord(obj)

	// The replicated form is a tagged plain value, never the rich type.
	fill, ok := rec["fill"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "gradient", fill["kind"])

	patch, res, err := FromRecord(rec)
	require.NoError(t, err)
	assert.Nil(t, res)

	got := &scene.Object{ID: obj.ID}
	got.Apply(patch)
	assert.Equal(t, obj.Fill, got.Fill)
}

func TestRoundTripPatternFill(t *testing.T) {
	obj := baseObject()
	obj.Fill = &scene.Pattern{
		Name:  "hatch",
		Color: "#00ff00",
		Image: image.NewNRGBA(image.Rect(0, 0, 4, 4)), // pixels must not replicate
	}

	rec := ToRecord(obj)
	fill, ok := rec["fill"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "pattern", fill["kind"])
	payload := fill["payload"].(map[string]any)
	assert.Equal(t, map[string]any{"name": "hatch", "color": "#00ff00"}, payload)

	patch, res, err := FromRecord(rec)
	require.NoError(t, err)

	// The immediate patch carries no fill; the pattern resolves deferred.
	assert.Nil(t, patch.Fill)
	require.NotNil(t, res)
	assert.Equal(t, "hatch", res.Name)
	assert.Equal(t, "#00ff00", res.Color)

	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	r := &fakeResolver{img: img}
	fillValue, err := res.Resolve(context.Background(), r)
	require.NoError(t, err)

	pat, ok := fillValue.(*scene.Pattern)
	require.True(t, ok)
	assert.Equal(t, "hatch", pat.Name)
	assert.Equal(t, "#00ff00", pat.Color)
	assert.Same(t, img, pat.Image.(*image.NRGBA))
	assert.Equal(t, "hatch", r.name)
	assert.Equal(t, "#00ff00", r.tint)
}

func TestFillResolutionFallback(t *testing.T) {
	res := &FillResolution{Name: "hatch", Color: "#00ff00"}

	t.Run("no resolver configured", func(t *testing.T) {
		_, err := res.Resolve(context.Background(), nil)
		assert.Error(t, err)
	})

	t.Run("fallback is the flat tint", func(t *testing.T) {
		assert.Equal(t, scene.Solid("#00ff00"), res.Fallback())
	})
}

func TestFromRecordErrors(t *testing.T) {
	t.Run("missing id", func(t *testing.T) {
		_, _, err := FromRecord(map[string]any{"type": "rect"})
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "no id")
	})

	t.Run("unknown type", func(t *testing.T) {
		_, _, err := FromRecord(map[string]any{"id": "a", "type": "blob"})
		assert.Error(t, err)
	})

	t.Run("unknown fill kind", func(t *testing.T) {
		_, _, err := FromRecord(map[string]any{
			"id": "a", "type": "rect",
			"fill": map[string]any{"kind": "sparkles"},
		})
		assert.Error(t, err)
	})

	t.Run("pattern without name", func(t *testing.T) {
		_, _, err := FromRecord(map[string]any{
			"id": "a", "type": "rect",
			"fill": map[string]any{"kind": "pattern", "payload": map[string]any{"color": "#fff"}},
		})
		assert.Error(t, err)
	})
}

func TestSettingsRecords(t *testing.T) {
	t.Run("dimensions round trip", func(t *testing.T) {
		w, h, err := RecordToDimensions(DimensionsToRecord(800, 600))
		require.NoError(t, err)
		assert.Equal(t, 800, w)
		assert.Equal(t, 600, h)
	})

	t.Run("dimensions missing fields", func(t *testing.T) {
		_, _, err := RecordToDimensions(map[string]any{"width": 800.0})
		assert.Error(t, err)
	})

	t.Run("preset round trip", func(t *testing.T) {
		p, err := RecordToPreset(PresetToRecord("dark"))
		require.NoError(t, err)
		assert.Equal(t, "dark", p)
	})

	t.Run("preset missing value", func(t *testing.T) {
		_, err := RecordToPreset(map[string]any{})
		assert.Error(t, err)
	})
}
