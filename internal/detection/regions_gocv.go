//go:build gocv

package detection

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// OpenCVFinder runs the threshold → dilate → external contours recipe through
// OpenCV. Its native order is OpenCV's contour traversal order.
type OpenCVFinder struct {
	KernelWidth  int
	KernelHeight int
}

// NewOpenCVFinder returns a finder using an 18×18 kernel.
func NewOpenCVFinder() *OpenCVFinder {
	return &OpenCVFinder{KernelWidth: DefaultKernelSize, KernelHeight: DefaultKernelSize}
}

// FindRegions implements RegionFinder.
func (f *OpenCVFinder) FindRegions(gray *image.Gray) ([]Bounds, error) {
	kw, kh := f.KernelWidth, f.KernelHeight
	if kw == 0 {
		kw = DefaultKernelSize
	}
	if kh == 0 {
		kh = DefaultKernelSize
	}

	src, err := gocv.ImageGrayToMatGray(gray)
	if err != nil {
		return nil, fmt.Errorf("failed to convert image to mat: %w", err)
	}
	defer src.Close()

	thresh := gocv.NewMat()
	defer thresh.Close()
	gocv.Threshold(src, &thresh, 0, 255, gocv.ThresholdBinaryInv|gocv.ThresholdOtsu)

	kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(kw, kh))
	defer kernel.Close()

	dilated := gocv.NewMat()
	defer dilated.Close()
	gocv.Dilate(thresh, &dilated, kernel)

	contours := gocv.FindContours(dilated, gocv.RetrievalExternal, gocv.ChainApproxNone)
	defer contours.Close()

	regions := make([]Bounds, 0, contours.Size())
	for i := 0; i < contours.Size(); i++ {
		regions = append(regions, FromRect(gocv.BoundingRect(contours.At(i))))
	}
	return regions, nil
}
