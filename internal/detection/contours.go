package detection

import (
	"fmt"
	"image"

	"github.com/ironsheep/nid-extract/internal/imaging"
)

// ContourFinder finds text blocks with a pure Go implementation of
// threshold → dilate → external contours.
type ContourFinder struct {
	// KernelWidth and KernelHeight size the rectangular structuring element.
	// Zero values fall back to DefaultKernelSize.
	KernelWidth  int
	KernelHeight int
}

// NewContourFinder returns a finder using an 18×18 kernel.
func NewContourFinder() *ContourFinder {
	return &ContourFinder{KernelWidth: DefaultKernelSize, KernelHeight: DefaultKernelSize}
}

// FindRegions binarizes gray, dilates the mask and returns the bounding box of
// every external contour in native (raster) order.
func (f *ContourFinder) FindRegions(gray *image.Gray) ([]Bounds, error) {
	kw, kh := f.KernelWidth, f.KernelHeight
	if kw == 0 {
		kw = DefaultKernelSize
	}
	if kh == 0 {
		kh = DefaultKernelSize
	}

	bin, _ := imaging.ThresholdOtsuInv(gray)
	dilated, err := imaging.DilateRect(bin, kw, kh)
	if err != nil {
		return nil, fmt.Errorf("dilation failed: %w", err)
	}
	return ExternalBounds(dilated), nil
}

// ExternalBounds returns the bounding boxes of the outermost foreground blobs
// of a binary mask.
//
// Foreground is any non-zero pixel and is 8-connected; background is therefore
// 4-connected. A blob is external when it touches the image border or the
// background region reachable from the border. Blobs sitting inside a hole of
// another blob are skipped, which matches external-only contour retrieval: the
// bounding box of an external contour is the bounding box of its blob.
//
// Boxes are returned in the raster order of each blob's first pixel.
func ExternalBounds(mask *image.Gray) []Bounds {
	b := mask.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return nil
	}

	fg := make([]bool, w*h)
	for y := 0; y < h; y++ {
		off := mask.PixOffset(b.Min.X, b.Min.Y+y)
		for x := 0; x < w; x++ {
			fg[y*w+x] = mask.Pix[off+x] != 0
		}
	}

	outer := floodOuterBackground(fg, w, h)
	labeled := make([]bool, w*h)
	stack := make([]int, 0, 64)
	var result []Bounds

	for start := range fg {
		if !fg[start] || labeled[start] {
			continue
		}

		box := Bounds{X1: w, Y1: h, X2: -1, Y2: -1}
		external := false
		labeled[start] = true
		stack = append(stack[:0], start)

		for len(stack) > 0 {
			i := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			x, y := i%w, i/w

			box.X1 = minInt(box.X1, x)
			box.Y1 = minInt(box.Y1, y)
			box.X2 = maxInt(box.X2, x+1)
			box.Y2 = maxInt(box.Y2, y+1)

			if !external {
				if x == 0 || y == 0 || x == w-1 || y == h-1 {
					external = true
				} else if outer[i-1] || outer[i+1] || outer[i-w] || outer[i+w] {
					external = true
				}
			}

			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					nx, ny := x+dx, y+dy
					if nx < 0 || ny < 0 || nx >= w || ny >= h {
						continue
					}
					n := ny*w + nx
					if fg[n] && !labeled[n] {
						labeled[n] = true
						stack = append(stack, n)
					}
				}
			}
		}

		if external {
			box.X1 += b.Min.X
			box.X2 += b.Min.X
			box.Y1 += b.Min.Y
			box.Y2 += b.Min.Y
			result = append(result, box)
		}
	}

	return result
}

// floodOuterBackground marks the background pixels 4-connected to the border.
func floodOuterBackground(fg []bool, w, h int) []bool {
	outer := make([]bool, w*h)
	stack := make([]int, 0, 2*(w+h))

	push := func(i int) {
		if !fg[i] && !outer[i] {
			outer[i] = true
			stack = append(stack, i)
		}
	}

	for x := 0; x < w; x++ {
		push(x)
		push((h-1)*w + x)
	}
	for y := 0; y < h; y++ {
		push(y * w)
		push(y*w + w - 1)
	}

	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		x, y := i%w, i/w
		if x > 0 {
			push(i - 1)
		}
		if x < w-1 {
			push(i + 1)
		}
		if y > 0 {
			push(i - w)
		}
		if y < h-1 {
			push(i + w)
		}
	}
	return outer
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
