package face

import (
	"fmt"
	"image"
	"os"

	pigo "github.com/esimov/pigo/core"
)

// PigoDetector finds faces with the pure Go pigo cascade.
//
// Raw pigo hits are grouped with the same neighbour rule as OpenCV's
// detectMultiScale, so Params.MinNeighbors has the familiar meaning.
type PigoDetector struct {
	classifier  *pigo.Pigo
	params      Params
	shiftFactor float64
}

// NewPigoDetector parses a pigo cascade (e.g. the "facefinder" file shipped
// with pigo).
func NewPigoDetector(cascade []byte, p Params) (*PigoDetector, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	classifier, err := unpack(cascade)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCascade, err)
	}
	return &PigoDetector{classifier: classifier, params: p, shiftFactor: 0.1}, nil
}

// pigoHeaderSize covers the version, tree depth and tree count words.
const pigoHeaderSize = 16

// unpack parses a cascade. pigo indexes the packet without bounds checks, so
// a truncated file surfaces as a panic that is turned into an error here.
func unpack(cascade []byte) (classifier *pigo.Pigo, err error) {
	if len(cascade) < pigoHeaderSize {
		return nil, fmt.Errorf("cascade too short: %d bytes", len(cascade))
	}
	defer func() {
		if r := recover(); r != nil {
			classifier, err = nil, fmt.Errorf("malformed cascade: %v", r)
		}
	}()
	return pigo.NewPigo().Unpack(cascade)
}

// LoadPigoDetector reads a pigo cascade file from disk.
func LoadPigoDetector(path string, p Params) (*PigoDetector, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrCascade, path, err)
	}
	return NewPigoDetector(data, p)
}

// Detect implements Detector.
func (d *PigoDetector) Detect(gray *image.Gray) ([]image.Rectangle, error) {
	b := gray.Bounds()
	cols, rows := b.Dx(), b.Dy()
	if cols == 0 || rows == 0 {
		return nil, nil
	}

	pixels := make([]uint8, cols*rows)
	for y := 0; y < rows; y++ {
		off := gray.PixOffset(b.Min.X, b.Min.Y+y)
		copy(pixels[y*cols:(y+1)*cols], gray.Pix[off:off+cols])
	}

	maxSize := d.params.MaxSize
	if maxSize == 0 {
		maxSize = minInt(cols, rows)
	}

	dets := d.classifier.RunCascade(pigo.CascadeParams{
		MinSize:     d.params.MinSize,
		MaxSize:     maxSize,
		ShiftFactor: d.shiftFactor,
		ScaleFactor: d.params.ScaleFactor,
		ImageParams: pigo.ImageParams{
			Pixels: pixels,
			Rows:   rows,
			Cols:   cols,
			Dim:    cols,
		},
	}, 0.0)

	raw := make([]image.Rectangle, 0, len(dets))
	for _, det := range dets {
		half := det.Scale / 2
		raw = append(raw, image.Rect(det.Col-half, det.Row-half, det.Col+half, det.Row+half).
			Add(b.Min))
	}
	return groupRectangles(raw, d.params.MinNeighbors), nil
}
