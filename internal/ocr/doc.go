// Package ocr provides Optical Character Recognition (OCR) functionality using Tesseract.
//
// This package wraps the Tesseract OCR engine (via gosseract/v2) to extract text
// from card regions. An Engine holds the language, tessdata location and page
// segmentation settings; every call opens its own Tesseract client, so an Engine
// is safe for concurrent use.
//
// # Prerequisites
//
// Tesseract must be installed on the system:
//   - Ubuntu/Debian: apt-get install tesseract-ocr libtesseract-dev
//   - macOS: brew install tesseract
//
// Language data files are required for each language:
//   - Ubuntu/Debian: apt-get install tesseract-ocr-eng (for English)
//   - Other languages: tesseract-ocr-<lang> packages
//
// Set NID_TESSDATA_PREFIX to point at a custom tessdata directory.
//
// # Functions
//
//   - Engine.Text: OCR of an in-memory image, used by the NID scan
//   - Engine.ExtractText: Full-image OCR of a file with word bounding boxes
//   - Engine.ExtractTextFromRegion: OCR on a specific rectangular region
//   - Engine.Info: availability and version of the OCR subsystem
//
// # Error Handling
//
// Functions return errors for missing or invalid images, unsupported language
// codes and Tesseract initialization failures. Nothing in this package panics on
// engine errors.
//
// If bounding box extraction fails (e.g., Tesseract version mismatch),
// ExtractText still returns the extracted text with an empty Regions slice.
package ocr
