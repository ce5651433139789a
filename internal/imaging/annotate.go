package imaging

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// DefaultBoxColor is the outline colour for examined text regions.
const DefaultBoxColor = "#00FF00"

// ParseColor parses a "#RRGGBB" or "#RGB" hex string into an opaque colour.
func ParseColor(hex string) (color.NRGBA, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid color %q: %w", hex, err)
	}
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 255}, nil
}

// DrawRect outlines r on dst in place with a border of the given thickness.
//
// The border is drawn inside r and clipped to dst's bounds.
func DrawRect(dst draw.Image, r image.Rectangle, c color.Color, thickness int) {
	if thickness < 1 {
		thickness = 1
	}
	src := image.NewUniform(c)
	r = r.Canon()

	edges := []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+thickness), // top
		image.Rect(r.Min.X, r.Max.Y-thickness, r.Max.X, r.Max.Y), // bottom
		image.Rect(r.Min.X, r.Min.Y, r.Min.X+thickness, r.Max.Y), // left
		image.Rect(r.Max.X-thickness, r.Min.Y, r.Max.X, r.Max.Y), // right
	}
	for _, e := range edges {
		e = e.Intersect(r).Intersect(dst.Bounds())
		if e.Empty() {
			continue
		}
		draw.Draw(dst, e, src, image.Point{}, draw.Src)
	}
}
