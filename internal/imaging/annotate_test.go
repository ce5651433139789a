package imaging

import (
	"image"
	"image/color"
	"testing"
)

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want color.NRGBA
	}{
		{"#00FF00", color.NRGBA{0, 255, 0, 255}},
		{"#ff0000", color.NRGBA{255, 0, 0, 255}},
		{"#00f", color.NRGBA{0, 0, 255, 255}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseColor(tt.in)
			if err != nil {
				t.Fatalf("ParseColor failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseColor_Invalid(t *testing.T) {
	if _, err := ParseColor("green"); err == nil {
		t.Error("expected error for non-hex colour")
	}
}

func TestDrawRect(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 50, 50))
	green := color.NRGBA{0, 255, 0, 255}

	DrawRect(img, image.Rect(10, 10, 30, 40), green, 2)

	tests := []struct {
		name string
		x, y int
		want bool
	}{
		{"top edge", 20, 10, true},
		{"top edge inner row", 20, 11, true},
		{"below top edge", 20, 12, false},
		{"left edge", 10, 25, true},
		{"right edge", 29, 25, true},
		{"bottom edge", 20, 39, true},
		{"centre", 20, 25, false},
		{"outside", 5, 5, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := img.NRGBAAt(tt.x, tt.y) == green
			if got != tt.want {
				t.Errorf("pixel (%d,%d) painted=%v, want %v", tt.x, tt.y, got, tt.want)
			}
		})
	}
}

func TestDrawRect_ClipsToImage(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 20, 20))
	// Must not panic when the rectangle leaves the image.
	DrawRect(img, image.Rect(-5, -5, 40, 40), color.White, 3)
	DrawRect(img, image.Rect(15, 15, 25, 25), color.White, 0)

	if img.NRGBAAt(15, 15).A == 0 {
		t.Error("visible part of the outline should be drawn")
	}
}
