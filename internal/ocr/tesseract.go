package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"
)

// DefaultLanguage is the Tesseract language used when none is configured.
const DefaultLanguage = "eng"

// Recognizer converts an image region to text. Engine is the production
// implementation; tests substitute their own.
type Recognizer interface {
	Text(ctx context.Context, img image.Image) (string, error)
}

// Config holds Tesseract settings shared by every call of an Engine.
type Config struct {
	// Language is a Tesseract language code such as "eng". Empty means DefaultLanguage.
	Language string

	// TessdataPrefix overrides the directory holding *.traineddata files.
	// Empty uses the Tesseract default (TESSDATA_PREFIX or the install location).
	TessdataPrefix string

	// PageSegMode selects Tesseract's layout analysis. Zero keeps the engine default.
	PageSegMode gosseract.PageSegMode

	// Whitelist restricts recognized characters, e.g. "0123456789". Empty means no restriction.
	Whitelist string
}

// Engine runs Tesseract OCR with a fixed configuration.
type Engine struct {
	cfg Config
}

// NewEngine creates an Engine. Missing fields fall back to defaults.
func NewEngine(cfg Config) *Engine {
	if cfg.Language == "" {
		cfg.Language = DefaultLanguage
	}
	return &Engine{cfg: cfg}
}

// Config returns the engine's effective configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// newClient opens a Tesseract client configured from e.cfg. The caller must Close it.
func (e *Engine) newClient() (*gosseract.Client, error) {
	client := gosseract.NewClient()

	if e.cfg.TessdataPrefix != "" {
		if err := client.SetTessdataPrefix(e.cfg.TessdataPrefix); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to set tessdata path: %w", err)
		}
	}
	if err := client.SetLanguage(e.cfg.Language); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set language: %w", err)
	}
	if e.cfg.PageSegMode != 0 {
		if err := client.SetPageSegMode(e.cfg.PageSegMode); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to set page segmentation mode: %w", err)
		}
	}
	if e.cfg.Whitelist != "" {
		if err := client.SetWhitelist(e.cfg.Whitelist); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to set whitelist: %w", err)
		}
	}
	return client, nil
}

// Text runs OCR over an in-memory image and returns the raw recognized text.
//
// The image is PNG-encoded and handed to Tesseract from memory; no temporary
// file is written. ctx is checked before the (non-interruptible) engine call.
func (e *Engine) Text(ctx context.Context, img image.Image) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("failed to encode image for OCR: %w", err)
	}

	client, err := e.newClient()
	if err != nil {
		return "", err
	}
	defer client.Close()

	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return "", fmt.Errorf("failed to set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("OCR failed: %w", err)
	}
	return text, nil
}

// Bounds represents a rectangular bounding box in pixel coordinates.
type Bounds struct {
	X1 int `json:"x1"` // Left edge
	Y1 int `json:"y1"` // Top edge
	X2 int `json:"x2"` // Right edge
	Y2 int `json:"y2"` // Bottom edge
}

// TextRegion represents a word with its location and OCR confidence.
type TextRegion struct {
	// Text is the recognized text content.
	Text string `json:"text"`

	// Confidence is the OCR confidence score (0.0 to 1.0).
	Confidence float64 `json:"confidence"`

	// Bounds is the bounding box around this text in the image.
	Bounds Bounds `json:"bounds"`
}

// OCRResult contains the complete results of text extraction from an image.
type OCRResult struct {
	// FullText is all recognized text as a single string with original spacing/newlines.
	FullText string `json:"full_text"`

	// Regions contains individual words with their bounding boxes and confidence scores.
	// May be empty if bounding box extraction fails (text will still be in FullText).
	Regions []TextRegion `json:"regions"`
}

// ExtractText performs OCR on an entire image file and returns recognized text.
//
// Parameters:
//   - imagePath: Path to the image file. Supports PNG, JPEG, TIFF, BMP.
//
// Returns:
//   - *OCRResult: FullText holds the complete recognized text and Regions the
//     individual words with bounding boxes and confidence.
//   - error: Non-nil if Tesseract cannot be initialized or the image cannot be read.
//
// # Word-Level Results
//
// Regions use Tesseract's RIL_WORD iterator level. Empty words are filtered out.
// If word boxes cannot be read, FullText is still returned with no Regions.
func (e *Engine) ExtractText(imagePath string) (*OCRResult, error) {
	client, err := e.newClient()
	if err != nil {
		return nil, err
	}
	defer client.Close()

	if err := client.SetImage(imagePath); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}
	return collect(client)
}

// ExtractTextFromRegion performs OCR on a rectangular region of img.
//
// Parameters:
//   - img: The source image, already loaded into memory.
//   - x1, y1: Top-left corner of the region (inclusive).
//   - x2, y2: Bottom-right corner of the region (exclusive).
//
// Returns:
//   - *OCRResult: Text extracted from the region.
//   - error: Non-nil if the region is empty after clamping or OCR fails.
//
// # Coordinate Adjustment
//
// The region is clamped to the image bounds and returned word boxes are shifted
// back to the original image. A word found at (10, 20) inside a region starting
// at (100, 50) is reported at (110, 70).
func (e *Engine) ExtractTextFromRegion(img image.Image, x1, y1, x2, y2 int) (*OCRResult, error) {
	r := image.Rect(x1, y1, x2, y2).Intersect(img.Bounds())
	if r.Empty() {
		return nil, fmt.Errorf("region (%d,%d)-(%d,%d) outside image bounds", x1, y1, x2, y2)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, imaging.Crop(img, r)); err != nil {
		return nil, fmt.Errorf("failed to encode region: %w", err)
	}

	client, err := e.newClient()
	if err != nil {
		return nil, err
	}
	defer client.Close()

	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	result, err := collect(client)
	if err != nil {
		return nil, err
	}

	for i := range result.Regions {
		result.Regions[i].Bounds.X1 += r.Min.X
		result.Regions[i].Bounds.Y1 += r.Min.Y
		result.Regions[i].Bounds.X2 += r.Min.X
		result.Regions[i].Bounds.Y2 += r.Min.Y
	}
	return result, nil
}

// collect reads the text and word boxes from a client whose image is set.
func collect(client *gosseract.Client) (*OCRResult, error) {
	text, err := client.Text()
	if err != nil {
		return nil, fmt.Errorf("OCR failed: %w", err)
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		// Return just text if boxes fail
		return &OCRResult{FullText: text, Regions: []TextRegion{}}, nil
	}

	regions := make([]TextRegion, 0, len(boxes))
	for _, box := range boxes {
		if box.Word == "" {
			continue
		}
		regions = append(regions, TextRegion{
			Text:       box.Word,
			Confidence: float64(box.Confidence) / 100.0,
			Bounds: Bounds{
				X1: box.Box.Min.X,
				Y1: box.Box.Min.Y,
				X2: box.Box.Max.X,
				Y2: box.Box.Max.Y,
			},
		})
	}

	return &OCRResult{FullText: text, Regions: regions}, nil
}

// Info contains information about the OCR subsystem.
type Info struct {
	Available    bool   `json:"available"`
	Version      string `json:"version,omitempty"`
	Language     string `json:"language"`
	TessdataPath string `json:"tessdata_path,omitempty"`
	Backend      string `json:"backend"`
	Error        string `json:"error,omitempty"`
}

// Info reports whether Tesseract can be initialized with the engine's settings.
func (e *Engine) Info() Info {
	info := Info{
		Language:     e.cfg.Language,
		TessdataPath: e.cfg.TessdataPrefix,
		Backend:      "gosseract",
	}

	client, err := e.newClient()
	if err != nil {
		info.Error = err.Error()
		return info
	}
	defer client.Close()

	info.Version = client.Version()

	// Language data is only loaded on the first recognition, so probe with a blank pixel.
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, 1, 1))); err != nil {
		info.Error = err.Error()
		return info
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		info.Error = err.Error()
		return info
	}
	if _, err := client.Text(); err != nil {
		info.Error = err.Error()
		return info
	}

	info.Available = true
	return info
}
