package server

import (
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/ironsheep/nid-extract/internal/detection"
	"github.com/ironsheep/nid-extract/internal/nid"
	"github.com/ironsheep/nid-extract/internal/ocr"
	"github.com/ironsheep/nid-extract/internal/pipeline"
)

type stubFinder struct {
	regions []detection.Bounds
}

func (f *stubFinder) FindRegions(*image.Gray) ([]detection.Bounds, error) {
	return append([]detection.Bounds(nil), f.regions...), nil
}

// stubOCR answers with text for crops the size of testNumberRegion and with
// a card heading for anything else.
type stubOCR struct {
	text string
}

func (o *stubOCR) Text(_ context.Context, img image.Image) (string, error) {
	if img.Bounds().Dx() != testNumberRegion.Width() {
		return "PEOPLE'S REPUBLIC\nNATIONAL ID CARD", nil
	}
	return o.text, nil
}

type stubFaces struct {
	dets []image.Rectangle
}

func (f *stubFaces) Detect(*image.Gray) ([]image.Rectangle, error) {
	return f.dets, nil
}

type fakeExtractor struct {
	text string
}

func (e *fakeExtractor) ExtractText(string) (*ocr.OCRResult, error) {
	return &ocr.OCRResult{FullText: e.text, Regions: []ocr.TextRegion{}}, nil
}

func (e *fakeExtractor) ExtractTextFromRegion(_ image.Image, x1, y1, x2, y2 int) (*ocr.OCRResult, error) {
	return &ocr.OCRResult{
		FullText: e.text,
		Regions:  []ocr.TextRegion{{Text: e.text, Confidence: 0.9, Bounds: ocr.Bounds{X1: x1, Y1: y1, X2: x2, Y2: y2}}},
	}, nil
}

func (e *fakeExtractor) Info() ocr.Info {
	return ocr.Info{Available: true, Version: "5.3.0", Language: "eng", Backend: "gosseract"}
}

// Layout of the card written by createCardFile.
var (
	testNumberRegion = detection.Bounds{X1: 20, Y1: 80, X2: 120, Y2: 95}
	testLabelRegion  = detection.Bounds{X1: 20, Y1: 10, X2: 100, Y2: 25}
	testFace         = image.Rect(140, 20, 180, 60)
)

// createTestImageFile creates a test image file and returns its path
func createTestImageFile(t *testing.T, width, height int, c color.Color) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return writePNG(t, img)
}

// createCardFile writes a 200×120 card with a red face square at testFace.
func createCardFile(t *testing.T) string {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, 200, 120))
	for y := 0; y < 120; y++ {
		for x := 0; x < 200; x++ {
			c := color.NRGBA{240, 240, 240, 255}
			if image.Pt(x, y).In(testFace) {
				c = color.NRGBA{200, 30, 30, 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}
	return writePNG(t, img)
}

func writePNG(t *testing.T, img image.Image) string {
	t.Helper()

	f, err := os.CreateTemp(t.TempDir(), "handler-test-*.png")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return f.Name()
}

// newTestServer builds a server whose OCR reads text only from the number region.
func newTestServer(text string, faces []image.Rectangle) *Server {
	return New(Deps{
		Pipeline: &pipeline.Pipeline{
			Scanner: &nid.Scanner{
				Finder: &stubFinder{regions: []detection.Bounds{testNumberRegion, testLabelRegion}},
				OCR:    &stubOCR{text: text},
				Order:  detection.OrderReading,
			},
			Faces: &stubFaces{dets: faces},
		},
		OCR: &fakeExtractor{text: text},
	})
}

// callTool issues a tools/call request and returns the response.
func callTool(t *testing.T, s *Server, name string, args map[string]interface{}) *MCPResponse {
	t.Helper()

	params := map[string]interface{}{
		"name":      name,
		"arguments": args,
	}
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		t.Fatalf("failed to marshal params: %v", err)
	}

	resp := s.handleRequest(&MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  paramsJSON,
	})
	if resp == nil {
		t.Fatal("handleRequest returned nil")
	}
	return resp
}

// toolResult decodes the JSON text payload of a successful tool response into v.
func toolResult(t *testing.T, resp *MCPResponse, v interface{}) {
	t.Helper()

	if resp.Error != nil {
		t.Fatalf("Unexpected error: %+v", resp.Error)
	}
	result, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatal("Result should be a map")
	}
	content, ok := result["content"].([]map[string]interface{})
	if !ok || len(content) != 1 {
		t.Fatalf("unexpected content: %#v", result["content"])
	}
	text, _ := content[0]["text"].(string)
	if err := json.Unmarshal([]byte(text), v); err != nil {
		t.Fatalf("failed to decode tool result %q: %v", text, err)
	}
}

func mustExist(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected %s to exist: %v", filepath.Base(path), err)
	}
}
