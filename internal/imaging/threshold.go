package imaging

import (
	"image"

	"github.com/anthonynsimon/bild/effect"
	"github.com/disintegration/imaging"
)

// Clone copies img into a new NRGBA image whose bounds start at (0,0).
func Clone(img image.Image) *image.NRGBA {
	return imaging.Clone(img)
}

// Rec. 601 luma weights, the same ones OpenCV uses for BGR to gray.
const (
	lumaR = 0.299
	lumaG = 0.587
	lumaB = 0.114
)

// Grayscale converts img to an 8-bit grayscale image using Rec. 601 luma
// weights. The result shares img's dimensions and starts at (0,0).
func Grayscale(img image.Image) *image.Gray {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	gray := image.NewGray(image.Rect(0, 0, w, h))
	if b.Empty() {
		return gray
	}

	// bild writes the luma into R, G and B alike; keep the R channel.
	rgba := effect.GrayscaleWithWeights(img, lumaR, lumaG, lumaB)
	for y := 0; y < h; y++ {
		src := rgba.Pix[y*rgba.Stride : y*rgba.Stride+4*w]
		dst := gray.Pix[y*gray.Stride : y*gray.Stride+w]
		for x := range dst {
			dst[x] = src[4*x]
		}
	}
	return gray
}

// OtsuLevel computes the global threshold that maximizes the between-class
// variance of gray's histogram.
//
// Pixels at or below the returned level form the dark class. An image with a
// single intensity returns 0.
func OtsuLevel(gray *image.Gray) uint8 {
	var hist [256]int
	b := gray.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		off := gray.PixOffset(b.Min.X, y)
		for _, v := range gray.Pix[off : off+b.Dx()] {
			hist[v]++
		}
	}

	total := b.Dx() * b.Dy()
	if total == 0 {
		return 0
	}

	var sum float64
	for i, n := range hist {
		sum += float64(i * n)
	}

	var (
		sumB  float64
		wB    int
		best  float64
		level int
	)
	for t := 0; t < 256; t++ {
		wB += hist[t]
		if wB == 0 {
			continue
		}
		wF := total - wB
		if wF == 0 {
			break
		}
		sumB += float64(t * hist[t])
		mB := sumB / float64(wB)
		mF := (sum - sumB) / float64(wF)
		between := float64(wB) * float64(wF) * (mB - mF) * (mB - mF)
		if between > best {
			best = between
			level = t
		}
	}
	return uint8(level)
}

// ThresholdOtsuInv binarizes gray with an automatic Otsu level and inverts the
// result: pixels brighter than the level become 0, the rest become 255.
//
// Dark ink on a light card therefore becomes white foreground. The chosen level
// is returned alongside the mask.
func ThresholdOtsuInv(gray *image.Gray) (*image.Gray, uint8) {
	level := OtsuLevel(gray)
	b := gray.Bounds()
	w, h := b.Dx(), b.Dy()
	bin := image.NewGray(image.Rect(0, 0, w, h))

	// Exact comparison on the stored values: level+1 is always background.
	for y := 0; y < h; y++ {
		off := gray.PixOffset(b.Min.X, b.Min.Y+y)
		src := gray.Pix[off : off+w]
		dst := bin.Pix[y*bin.Stride : y*bin.Stride+w]
		for x, v := range src {
			if v <= level {
				dst[x] = 255
			}
		}
	}
	return bin, level
}
