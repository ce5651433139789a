// Package detection locates text-like blocks on an identity card photograph.
//
// The recipe is fixed and mirrors the classic OpenCV "text block" trick:
//
//  1. Binarize the grayscale image with an automatic Otsu level, inverted so that
//     dark ink becomes foreground.
//  2. Dilate the mask with an 18×18 rectangular structuring element so that the
//     strokes of neighbouring characters merge into solid blocks.
//  3. Extract the external contours of the blocks (no hierarchy) and report the
//     bounding box of each.
//
// Two RegionFinder implementations exist. ContourFinder is pure Go and is always
// available. OpenCVFinder runs the same recipe through gocv and is compiled in
// with the "gocv" build tag.
//
// # Ordering
//
// The native order of a finder is implementation-defined: ContourFinder reports
// blocks in the raster order of their first pixel, OpenCV uses its own traversal.
// Because the NID scan stops at the first matching block, callers that need a
// layout-stable result should sort with SortBounds(OrderReading).
//
// # Coordinate System
//
// Bounds use inclusive top-left (X1,Y1) and exclusive bottom-right (X2,Y2)
// corners, exactly like image.Rectangle.
package detection
