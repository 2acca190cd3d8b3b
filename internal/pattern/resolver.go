// Package pattern resolves named pattern textures into tinted images.
// Texture pixels are never replicated; each replica resolves the symbolic
// {name, tint} reference against its own local texture set.
package pattern

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Resolver fetches the named texture and recolors it with the tint.
// Resolution is I/O-bound; implementations must honour ctx cancellation.
type Resolver interface {
	Resolve(ctx context.Context, name, tint string) (image.Image, error)
}

// DirResolver loads {name}.png from a local textures directory and
// multiplies every pixel by the tint color.
type DirResolver struct {
	Dir string
}

// Resolve loads and tints the named texture.
func (d *DirResolver) Resolve(ctx context.Context, name, tint string) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Refuse path traversal in texture names.
	if name == "" || name != filepath.Base(name) {
		return nil, fmt.Errorf("invalid texture name: %q", name)
	}

	f, err := os.Open(filepath.Join(d.Dir, name+".png"))
	if err != nil {
		return nil, fmt.Errorf("failed to open texture %q: %w", name, err)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode texture %q: %w", name, err)
	}

	tintColor, err := ParseHexColor(tint)
	if err != nil {
		return nil, fmt.Errorf("invalid tint for texture %q: %w", name, err)
	}

	return Tint(img, tintColor), nil
}

// Tint multiplies every pixel of img by c, preserving alpha.
func Tint(img image.Image, c color.NRGBA) *image.NRGBA {
	bounds := img.Bounds()
	out := image.NewNRGBA(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, a := img.At(x, y).RGBA()
			out.SetNRGBA(x, y, color.NRGBA{
				R: mul8(uint8(r>>8), c.R),
				G: mul8(uint8(g>>8), c.G),
				B: mul8(uint8(b>>8), c.B),
				A: uint8(a >> 8),
			})
		}
	}
	return out
}

func mul8(a, b uint8) uint8 {
	return uint8((uint16(a) * uint16(b)) / 255)
}

// ParseHexColor parses "#rgb" or "#rrggbb" into an opaque color.
func ParseHexColor(s string) (color.NRGBA, error) {
	hex := strings.TrimPrefix(s, "#")
	switch len(hex) {
	case 3:
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	case 6:
		// ok
	default:
		return color.NRGBA{}, fmt.Errorf("malformed color %q", s)
	}

	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("malformed color %q: %w", s, err)
	}
	return color.NRGBA{
		R: uint8(v >> 16),
		G: uint8(v >> 8),
		B: uint8(v),
		A: 0xff,
	}, nil
}
