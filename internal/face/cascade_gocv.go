//go:build gocv

package face

import (
	"fmt"
	"image"
	"os"
	"sync"

	"gocv.io/x/gocv"
)

// DefaultHaarCascade is the OpenCV frontal face model looked up by default.
const DefaultHaarCascade = "haarcascade_frontalface_default.xml"

// CascadeDetector wraps an OpenCV Haar cascade classifier.
type CascadeDetector struct {
	mu         sync.Mutex
	classifier gocv.CascadeClassifier
	params     Params
}

// NewCascadeDetector loads an OpenCV cascade XML file. A missing or unreadable
// file returns an error wrapping ErrCascade.
func NewCascadeDetector(path string, p Params) (*CascadeDetector, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrCascade, path, err)
	}

	classifier := gocv.NewCascadeClassifier()
	if !classifier.Load(path) {
		classifier.Close()
		return nil, fmt.Errorf("%w %s: classifier rejected file", ErrCascade, path)
	}
	return &CascadeDetector{classifier: classifier, params: p}, nil
}

// Detect implements Detector.
func (d *CascadeDetector) Detect(gray *image.Gray) ([]image.Rectangle, error) {
	mat, err := gocv.ImageGrayToMatGray(gray)
	if err != nil {
		return nil, fmt.Errorf("failed to convert image to mat: %w", err)
	}
	defer mat.Close()

	minSize := image.Pt(d.params.MinSize, d.params.MinSize)
	maxSize := image.Pt(d.params.MaxSize, d.params.MaxSize)

	d.mu.Lock()
	defer d.mu.Unlock()
	rects := d.classifier.DetectMultiScaleWithParams(mat, d.params.ScaleFactor, d.params.MinNeighbors, 0, minSize, maxSize)
	for i := range rects {
		rects[i] = rects[i].Add(gray.Bounds().Min)
	}
	return rects, nil
}

// Close releases the native classifier.
func (d *CascadeDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.classifier.Close()
}
