// Package face detects faces on an identity card photograph.
//
// A Detector returns every detection in its native order. The pipeline uses
// only the first one (First) and crops it from the colour image (Crop). No
// ranking by size or position is applied, and extra faces are ignored.
//
// Two detectors exist: PigoDetector (pure Go, always available) and
// CascadeDetector (OpenCV Haar cascade, built with the "gocv" tag). Both honour
// the classic cascade parameters: scale factor 1.1 between pyramid levels and a
// minimum of 5 neighbouring raw hits per accepted face.
package face

import (
	"errors"
	"fmt"
	"image"

	"github.com/ironsheep/nid-extract/internal/imaging"
)

// ErrCascade is returned when a cascade file cannot be read or parsed.
var ErrCascade = errors.New("cannot load face cascade")

// Params are the cascade detection parameters.
type Params struct {
	// ScaleFactor is the size ratio between successive search scales. Must be > 1.
	ScaleFactor float64

	// MinNeighbors is how many overlapping raw hits a candidate needs to be kept.
	MinNeighbors int

	// MinSize and MaxSize bound the detected face side in pixels. Zero MaxSize
	// means the shorter image side.
	MinSize int
	MaxSize int
}

// DefaultParams returns scale factor 1.1 and 5 minimum neighbours.
func DefaultParams() Params {
	return Params{ScaleFactor: 1.1, MinNeighbors: 5, MinSize: 30}
}

// Validate checks that p describes a usable search.
func (p Params) Validate() error {
	if p.ScaleFactor <= 1 {
		return fmt.Errorf("scale factor must be > 1, got %v", p.ScaleFactor)
	}
	if p.MinNeighbors < 0 {
		return fmt.Errorf("min neighbors must be >= 0, got %d", p.MinNeighbors)
	}
	if p.MinSize < 0 {
		return fmt.Errorf("min size must be >= 0, got %d", p.MinSize)
	}
	if p.MaxSize < 0 {
		return fmt.Errorf("max size must be >= 0, got %d", p.MaxSize)
	}
	if p.MaxSize != 0 && p.MaxSize < p.MinSize {
		return fmt.Errorf("max size %d smaller than min size %d", p.MaxSize, p.MinSize)
	}
	return nil
}

// Detector finds faces in a grayscale image.
type Detector interface {
	Detect(gray *image.Gray) ([]image.Rectangle, error)
}

// First returns the first detection, if any. It deliberately ignores size,
// position and score.
func First(dets []image.Rectangle) (image.Rectangle, bool) {
	if len(dets) == 0 {
		return image.Rectangle{}, false
	}
	return dets[0], true
}

// Crop cuts the face rectangle out of the colour image, clipped to its bounds.
func Crop(col image.Image, r image.Rectangle) (*image.NRGBA, error) {
	face, err := imaging.CropRect(col, r)
	if err != nil {
		return nil, fmt.Errorf("failed to crop face: %w", err)
	}
	return face, nil
}
