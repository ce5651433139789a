package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// CropResult contains the cropped image data
type CropResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// Crop extracts a rectangular region from an image and returns it as a base64 PNG.
func Crop(img image.Image, x1, y1, x2, y2 int, scale float64) (*CropResult, error) {
	bounds := img.Bounds()

	if x1 < bounds.Min.X || y1 < bounds.Min.Y || x2 > bounds.Max.X || y2 > bounds.Max.Y {
		return nil, fmt.Errorf("crop region (%d,%d)-(%d,%d) outside image bounds (%d,%d)-(%d,%d)",
			x1, y1, x2, y2, bounds.Min.X, bounds.Min.Y, bounds.Max.X, bounds.Max.Y)
	}
	if x1 >= x2 || y1 >= y2 {
		return nil, fmt.Errorf("invalid crop region: x1 must be < x2, y1 must be < y2")
	}

	cropped := imaging.Crop(img, image.Rect(x1, y1, x2, y2))

	if scale != 1.0 && scale > 0 {
		newWidth := int(float64(cropped.Bounds().Dx()) * scale)
		newHeight := int(float64(cropped.Bounds().Dy()) * scale)
		cropped = imaging.Resize(cropped, newWidth, newHeight, imaging.Lanczos)
	}

	encoded, mime, err := EncodeBase64(cropped, "png")
	if err != nil {
		return nil, err
	}

	return &CropResult{
		Width:       cropped.Bounds().Dx(),
		Height:      cropped.Bounds().Dy(),
		ImageBase64: encoded,
		MimeType:    mime,
	}, nil
}

// CropRect copies the part of img inside r into a new image starting at (0,0).
//
// r is clipped to the image bounds. An empty intersection returns an error.
func CropRect(img image.Image, r image.Rectangle) (*image.NRGBA, error) {
	clipped := r.Intersect(img.Bounds())
	if clipped.Empty() {
		return nil, fmt.Errorf("crop region %v outside image bounds %v", r, img.Bounds())
	}
	return imaging.Crop(img, clipped), nil
}

// EncodeBase64 encodes img as "png" or "jpeg" and returns the base64 payload
// along with its MIME type.
func EncodeBase64(img image.Image, format string) (string, string, error) {
	var (
		f    imaging.Format
		mime string
	)
	switch format {
	case "png", "":
		f, mime = imaging.PNG, "image/png"
	case "jpeg", "jpg":
		f, mime = imaging.JPEG, "image/jpeg"
	default:
		return "", "", fmt.Errorf("unsupported output format: %s", format)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, f); err != nil {
		return "", "", fmt.Errorf("failed to encode %s image: %w", format, err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), mime, nil
}
