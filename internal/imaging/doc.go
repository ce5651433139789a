// Package imaging provides the raster operations used by the NID extraction pipeline.
//
// This package loads card photographs, converts them to grayscale, binarizes them
// with Otsu's method, dilates the binary mask with a rectangular structuring element,
// and crops, annotates, encodes and saves the resulting regions. All operations work
// with standard Go image types and use a coordinate system where (0,0) is at the
// top-left corner, X increases rightward, and Y increases downward.
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//   - For regions, (x1,y1) is inclusive (top-left), (x2,y2) is exclusive (bottom-right)
//
// Images produced by this package (Clone, Grayscale, ThresholdOtsuInv, DilateRect)
// always have their origin at (0,0). Callers that start from a decoded image should
// Clone it first so that every later stage agrees on coordinates.
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. Individual image operations
// are stateless and can be called concurrently on different images. DrawRect
// mutates its destination and must not race with readers of the same image.
//
// # Error Handling
//
// Functions return errors for invalid inputs such as:
//   - Coordinates outside image bounds
//   - Invalid region specifications (x1 >= x2 or y1 >= y2)
//   - Unreadable or undecodable input files (wrapping ErrDecode)
//   - Encoding errors during image output
package imaging
