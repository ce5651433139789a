package detection

import (
	"fmt"
	"image"
	"sort"
	"strings"
)

// DefaultKernelSize is the side of the square structuring element used to
// merge character strokes into text blocks. Smaller values such as 10 tend to
// isolate single words instead of whole lines.
const DefaultKernelSize = 18

// Bounds represents a rectangular bounding box in pixel coordinates.
type Bounds struct {
	X1 int `json:"x1"` // Left edge (inclusive)
	Y1 int `json:"y1"` // Top edge (inclusive)
	X2 int `json:"x2"` // Right edge (exclusive)
	Y2 int `json:"y2"` // Bottom edge (exclusive)
}

// FromRect converts an image.Rectangle to Bounds.
func FromRect(r image.Rectangle) Bounds {
	return Bounds{X1: r.Min.X, Y1: r.Min.Y, X2: r.Max.X, Y2: r.Max.Y}
}

// Rect converts b to an image.Rectangle.
func (b Bounds) Rect() image.Rectangle {
	return image.Rect(b.X1, b.Y1, b.X2, b.Y2)
}

// Width returns X2 - X1.
func (b Bounds) Width() int { return b.X2 - b.X1 }

// Height returns Y2 - Y1.
func (b Bounds) Height() int { return b.Y2 - b.Y1 }

// Area returns Width × Height.
func (b Bounds) Area() int { return b.Width() * b.Height() }

// RegionFinder reports the bounding boxes of text-like blocks in a grayscale image.
type RegionFinder interface {
	FindRegions(gray *image.Gray) ([]Bounds, error)
}

// Order selects how candidate regions are sequenced before scanning.
type Order string

const (
	// OrderNative keeps the finder's own traversal order.
	OrderNative Order = "native"

	// OrderReading sorts top-to-bottom, then left-to-right.
	OrderReading Order = "reading"

	// OrderArea sorts largest block first.
	OrderArea Order = "area"
)

// ParseOrder maps a configuration string to an Order. An empty string selects
// OrderReading.
func ParseOrder(s string) (Order, error) {
	switch Order(strings.ToLower(strings.TrimSpace(s))) {
	case "", OrderReading:
		return OrderReading, nil
	case OrderNative:
		return OrderNative, nil
	case OrderArea:
		return OrderArea, nil
	}
	return "", fmt.Errorf("unknown region order: %q", s)
}

// SortBounds reorders bs in place according to order. Ties keep their native
// relative order.
func SortBounds(bs []Bounds, order Order) {
	switch order {
	case OrderReading:
		sort.SliceStable(bs, func(i, j int) bool {
			if bs[i].Y1 != bs[j].Y1 {
				return bs[i].Y1 < bs[j].Y1
			}
			return bs[i].X1 < bs[j].X1
		})
	case OrderArea:
		sort.SliceStable(bs, func(i, j int) bool {
			return bs[i].Area() > bs[j].Area()
		})
	}
}
