package nid

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/ironsheep/nid-extract/internal/detection"
	"github.com/ironsheep/nid-extract/internal/imaging"
	"github.com/ironsheep/nid-extract/internal/ocr"
)

// ErrSizeMismatch is returned when the grayscale and colour inputs differ in size.
var ErrSizeMismatch = errors.New("grayscale and colour images differ in size")

// Scanner runs the region-and-OCR scan.
type Scanner struct {
	// Finder locates candidate text blocks on the grayscale image.
	Finder detection.RegionFinder

	// OCR reads each cropped block.
	OCR ocr.Recognizer

	// Order sequences the candidates before scanning. The zero value keeps
	// the finder's native order.
	Order detection.Order

	// BoxColor and BoxThickness style the debug outline drawn around every
	// examined block. nil means imaging.DefaultBoxColor; 0 means 2 pixels.
	BoxColor     color.Color
	BoxThickness int
}

// ScanResult is the outcome of one scan.
type ScanResult struct {
	// ID is the recognized number, or NotRecognized.
	ID string `json:"id"`

	// Recognized is true when ID holds a real number.
	Recognized bool `json:"recognized"`

	// Region is the block whose OCR text produced ID. nil when not recognized.
	Region *detection.Bounds `json:"region,omitempty"`

	// Regions lists every candidate block in scan order.
	Regions []detection.Bounds `json:"regions"`

	// Examined counts the blocks that were OCR'd before the scan stopped.
	Examined int `json:"examined"`

	// Annotated is a copy of the colour image with an outline around every
	// examined block. It is a debugging artifact only.
	Annotated *image.NRGBA `json:"-"`
}

// Scan finds the first qualifying ID number on the card.
//
// gray drives region finding; col supplies the pixels that are cropped and
// OCR'd. Both must have the same size and start at (0,0). Candidates are tried
// in s.Order and the scan returns on the first block whose OCR output contains
// a qualifying line. When no block qualifies the result carries NotRecognized.
//
// OCR and finder errors abort the scan and are returned wrapped.
func (s *Scanner) Scan(ctx context.Context, gray *image.Gray, col image.Image) (*ScanResult, error) {
	if gray.Bounds().Size() != col.Bounds().Size() {
		return nil, fmt.Errorf("%w: %v vs %v", ErrSizeMismatch, gray.Bounds().Size(), col.Bounds().Size())
	}

	regions, err := s.Finder.FindRegions(gray)
	if err != nil {
		return nil, fmt.Errorf("region detection failed: %w", err)
	}
	detection.SortBounds(regions, s.Order)

	boxColor := s.BoxColor
	if boxColor == nil {
		boxColor, _ = imaging.ParseColor(imaging.DefaultBoxColor)
	}
	thickness := s.BoxThickness
	if thickness == 0 {
		thickness = 2
	}

	result := &ScanResult{
		ID:        NotRecognized,
		Regions:   regions,
		Annotated: imaging.Clone(col),
	}

	for i := range regions {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		r := regions[i].Rect()
		imaging.DrawRect(result.Annotated, r, boxColor, thickness)
		result.Examined++

		crop, err := imaging.CropRect(col, r)
		if err != nil {
			// A block outside the image cannot hold text; skip it.
			continue
		}

		text, err := s.OCR.Text(ctx, crop)
		if err != nil {
			return nil, fmt.Errorf("OCR of region %d %v failed: %w", i, r, err)
		}

		if id, ok := MatchText(text); ok {
			result.ID = id
			result.Recognized = true
			result.Region = &regions[i]
			return result, nil
		}
	}

	return result, nil
}
