package imaging

import (
	"fmt"
	"image"
)

// DilateRect dilates a binary mask with a kw×kh rectangular structuring element.
//
// Any non-zero pixel in src counts as foreground. The kernel anchor is its centre
// (kw/2, kh/2), so a foreground pixel at x spreads to the columns
// [x-(kw-1-kw/2), x+kw/2]. Pixels outside the image never contribute. The output
// holds 255 for foreground and 0 for background and starts at (0,0).
//
// The rectangle is separable, so the dilation runs as a horizontal pass followed
// by a vertical pass, each a sliding-window count over prefix sums.
func DilateRect(src *image.Gray, kw, kh int) (*image.Gray, error) {
	if kw < 1 || kh < 1 {
		return nil, fmt.Errorf("invalid kernel size %dx%d", kw, kh)
	}

	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))
	if w == 0 || h == 0 {
		return out, nil
	}

	mask := make([]bool, w*h)
	for y := 0; y < h; y++ {
		off := src.PixOffset(b.Min.X, b.Min.Y+y)
		for x := 0; x < w; x++ {
			mask[y*w+x] = src.Pix[off+x] != 0
		}
	}

	ax, ay := kw/2, kh/2
	horiz := make([]bool, w*h)
	prefix := make([]int, maxInt(w, h)+1)

	for y := 0; y < h; y++ {
		row := mask[y*w : (y+1)*w]
		for x := 0; x < w; x++ {
			prefix[x+1] = prefix[x]
			if row[x] {
				prefix[x+1]++
			}
		}
		for x := 0; x < w; x++ {
			// dst(x) = max src(x + i - ax) for i in [0, kw)
			lo, hi := clamp(x-ax, 0, w), clamp(x-ax+kw, 0, w)
			horiz[y*w+x] = prefix[hi]-prefix[lo] > 0
		}
	}

	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			prefix[y+1] = prefix[y]
			if horiz[y*w+x] {
				prefix[y+1]++
			}
		}
		for y := 0; y < h; y++ {
			lo, hi := clamp(y-ay, 0, h), clamp(y-ay+kh, 0, h)
			if prefix[hi]-prefix[lo] > 0 {
				out.Pix[y*out.Stride+x] = 255
			}
		}
	}

	return out, nil
}

// clamp constrains an integer value to the range [min, max].
func clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
