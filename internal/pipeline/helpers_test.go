package pipeline

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/ironsheep/nid-extract/internal/detection"
	"github.com/ironsheep/nid-extract/internal/imaging"
	"github.com/ironsheep/nid-extract/internal/nid"
)

type stubFinder struct {
	regions []detection.Bounds
}

func (f *stubFinder) FindRegions(*image.Gray) ([]detection.Bounds, error) {
	return append([]detection.Bounds(nil), f.regions...), nil
}

type stubOCR struct {
	text string
	err  error
}

func (o *stubOCR) Text(context.Context, image.Image) (string, error) {
	return o.text, o.err
}

type stubFaces struct {
	mu    sync.Mutex
	dets  []image.Rectangle
	err   error
	calls int
}

func (f *stubFaces) Detect(*image.Gray) ([]image.Rectangle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.dets, f.err
}

// createCardFile writes a 200×120 PNG with a dark number strip and a red
// "photo" square at (140,20)-(180,60).
func createCardFile(t *testing.T) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 200, 120))
	for y := 0; y < 120; y++ {
		for x := 0; x < 200; x++ {
			c := color.NRGBA{240, 240, 240, 255}
			switch {
			case x >= 20 && x < 120 && y >= 80 && y < 95:
				c = color.NRGBA{10, 10, 10, 255}
			case x >= 140 && x < 180 && y >= 20 && y < 60:
				c = color.NRGBA{200, 30, 30, 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}

	path := filepath.Join(t.TempDir(), "card.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create card: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("Failed to encode card: %v", err)
	}
	return path
}

// newTestPipeline wires stubs that recognize text on the single strip region.
func newTestPipeline(text string, faces *stubFaces) *Pipeline {
	return &Pipeline{
		Cache: imaging.NewImageCache(),
		Scanner: &nid.Scanner{
			Finder: &stubFinder{regions: []detection.Bounds{{X1: 20, Y1: 80, X2: 120, Y2: 95}}},
			OCR:    &stubOCR{text: text},
		},
		Faces: faces,
	}
}
