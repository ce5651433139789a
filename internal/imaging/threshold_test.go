package imaging

import (
	"image"
	"image/color"
	"testing"
)

func TestGrayscale(t *testing.T) {
	img := createPatternImage(40, 40)

	g := Grayscale(img)
	if g.Bounds() != image.Rect(0, 0, 40, 40) {
		t.Fatalf("bounds: got %v", g.Bounds())
	}

	// White quadrant must be brighter than the blue quadrant.
	white := g.GrayAt(30, 30).Y
	blue := g.GrayAt(5, 30).Y
	if white <= blue {
		t.Errorf("expected white (%d) > blue (%d)", white, blue)
	}
	if white < 250 {
		t.Errorf("white should stay near 255, got %d", white)
	}
}

func TestGrayscale_LumaWeights(t *testing.T) {
	img := createPatternImage(40, 40)

	g := Grayscale(img)
	tests := []struct {
		name string
		x, y int
		want uint8
	}{
		{"red", 5, 5, 76},
		{"green", 30, 5, 150},
		{"blue", 5, 30, 29},
		{"white", 30, 30, 255},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := g.GrayAt(tt.x, tt.y).Y; got != tt.want {
				t.Errorf("GrayAt(%d,%d): got %d, want %d", tt.x, tt.y, got, tt.want)
			}
		})
	}
}

func TestGrayscale_SubImageOrigin(t *testing.T) {
	img := createPatternImage(40, 40).SubImage(image.Rect(20, 20, 40, 40))

	g := Grayscale(img)
	if g.Bounds() != image.Rect(0, 0, 20, 20) {
		t.Fatalf("bounds: got %v", g.Bounds())
	}
	if got := g.GrayAt(0, 0).Y; got != 255 {
		t.Errorf("sub-image origin should map to white, got %d", got)
	}
}

func TestGrayscale_Empty(t *testing.T) {
	g := Grayscale(image.NewRGBA(image.Rect(0, 0, 0, 0)))
	if !g.Bounds().Empty() {
		t.Errorf("expected empty result, got %v", g.Bounds())
	}
}

func TestOtsuLevel_Bimodal(t *testing.T) {
	g := createGray(100, 100, 220)
	fillGray(g, image.Rect(10, 10, 40, 30), 30)

	level := OtsuLevel(g)
	if level < 30 || level >= 220 {
		t.Errorf("level %d should separate 30 from 220", level)
	}
}

func TestOtsuLevel_Uniform(t *testing.T) {
	tests := []struct {
		name string
		v    uint8
	}{
		{"black", 0},
		{"mid", 128},
		{"white", 255},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := OtsuLevel(createGray(20, 20, tt.v)); got != 0 {
				t.Errorf("uniform image: got level %d, want 0", got)
			}
		})
	}
}

func TestOtsuLevel_Empty(t *testing.T) {
	g := image.NewGray(image.Rect(0, 0, 0, 0))
	if got := OtsuLevel(g); got != 0 {
		t.Errorf("empty image: got %d, want 0", got)
	}
}

func TestThresholdOtsuInv(t *testing.T) {
	g := createGray(100, 60, 255)
	ink := image.Rect(20, 20, 50, 30)
	fillGray(g, ink, 0)

	bin, level := ThresholdOtsuInv(g)
	if level != 0 {
		t.Errorf("level: got %d, want 0", level)
	}

	if bin.GrayAt(25, 25).Y != 255 {
		t.Error("dark ink should become foreground (255)")
	}
	if bin.GrayAt(5, 5).Y != 0 {
		t.Error("light background should become 0")
	}
	if got, want := countForeground(bin), ink.Dx()*ink.Dy(); got != want {
		t.Errorf("foreground pixels: got %d, want %d", got, want)
	}
}

func TestThresholdOtsuInv_AdjacentLevels(t *testing.T) {
	g := createGray(10, 10, 10)
	fillGray(g, image.Rect(5, 0, 10, 10), 11)

	bin, level := ThresholdOtsuInv(g)
	if level != 10 {
		t.Fatalf("level: got %d, want 10", level)
	}
	if got := bin.GrayAt(0, 0).Y; got != 255 {
		t.Errorf("pixel at level: got %d, want 255", got)
	}
	if got := bin.GrayAt(9, 0).Y; got != 0 {
		t.Errorf("pixel at level+1: got %d, want 0", got)
	}
}

func TestThresholdOtsuInv_SubImage(t *testing.T) {
	g := createGray(40, 40, 255)
	fillGray(g, image.Rect(25, 25, 30, 30), 0)
	sub := g.SubImage(image.Rect(20, 20, 40, 40)).(*image.Gray)

	bin, _ := ThresholdOtsuInv(sub)
	if bin.Bounds() != image.Rect(0, 0, 20, 20) {
		t.Fatalf("bounds: got %v", bin.Bounds())
	}
	if bin.GrayAt(5, 5).Y != 255 || bin.GrayAt(0, 0).Y != 0 {
		t.Error("mask not aligned with the sub-image origin")
	}
}

func TestThresholdOtsuInv_BlankCard(t *testing.T) {
	bin, _ := ThresholdOtsuInv(createGray(50, 50, 240))
	if n := countForeground(bin); n != 0 {
		t.Errorf("blank card should have no foreground, got %d pixels", n)
	}
}

func TestClone_NormalizesOrigin(t *testing.T) {
	src := image.NewRGBA(image.Rect(10, 10, 30, 20))
	src.Set(10, 10, color.RGBA{255, 0, 0, 255})

	c := Clone(src)
	if c.Bounds() != image.Rect(0, 0, 20, 10) {
		t.Fatalf("bounds: got %v", c.Bounds())
	}
	if r, _, _, _ := c.At(0, 0).RGBA(); r>>8 != 255 {
		t.Error("origin pixel not copied")
	}
}
