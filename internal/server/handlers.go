package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"

	"github.com/ironsheep/nid-extract/internal/detection"
	"github.com/ironsheep/nid-extract/internal/face"
	"github.com/ironsheep/nid-extract/internal/imaging"
	"github.com/ironsheep/nid-extract/internal/nid"
	"github.com/ironsheep/nid-extract/internal/pipeline"
)

// errInvalidArgs marks tool arguments that are malformed or incomplete.
// Such failures are answered with -32602 instead of -32000.
var errInvalidArgs = errors.New("invalid arguments")

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_load", "nid_recognize").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`

	// Meta carries the optional progress token.
	Meta *RequestMeta `json:"_meta,omitempty"`
}

// RequestMeta is the MCP request metadata.
type RequestMeta struct {
	// ProgressToken, when set, asks for notifications/progress while the
	// tool runs. It may be a string or a number.
	ProgressToken interface{} `json:"progressToken,omitempty"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000;
// bad arguments return -32602.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(&params)
	if err != nil {
		if errors.Is(err, errInvalidArgs) {
			return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
		}
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(params *ToolCallParams) (interface{}, error) {
	args := params.Arguments
	switch params.Name {
	// Basic Image Information
	case "image_load":
		return s.handleImageLoad(args)
	case "image_dimensions":
		return s.handleImageDimensions(args)
	case "image_crop":
		return s.handleImageCrop(args)

	// ID Card Operations
	case "nid_detect_regions":
		return s.handleDetectRegions(args)
	case "nid_scan":
		return s.handleScan(args)
	case "face_detect":
		return s.handleFaceDetect(args)
	case "nid_recognize":
		var token interface{}
		if params.Meta != nil {
			token = params.Meta.ProgressToken
		}
		return s.handleRecognize(args, token)
	case "nid_save_face":
		return s.handleSaveFace(args)

	// OCR Operations
	case "image_ocr_full":
		return s.handleOCRFull(args)
	case "image_ocr_region":
		return s.handleOCRRegion(args)
	case "ocr_info":
		return s.handleOCRInfo()

	default:
		return nil, fmt.Errorf("unknown tool: %s", params.Name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// decodeArgs unmarshals tool arguments; missing arguments decode as {}.
func decodeArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("%w: %v", errInvalidArgs, err)
	}
	return nil
}

type pathArgs struct {
	Path string `json:"path"`
}

func (a *pathArgs) validate() error {
	if a.Path == "" {
		return fmt.Errorf("%w: path is required", errInvalidArgs)
	}
	return nil
}

// decodePathArgs decodes v, which must embed pathArgs, and checks the path.
func decodePathArgs(args json.RawMessage, v interface{ validate() error }) error {
	if err := decodeArgs(args, v); err != nil {
		return err
	}
	return v.validate()
}

// loadCard returns the cached image with its grayscale and colour working copies.
func (s *Server) loadCard(path string) (*image.Gray, *image.NRGBA, error) {
	img, err := s.cache.Load(path)
	if err != nil {
		return nil, nil, err
	}
	return imaging.Grayscale(img), imaging.Clone(img), nil
}

// === Basic Image Information Handlers ===

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := decodePathArgs(args, &a); err != nil {
		return nil, err
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}

func (s *Server) handleImageDimensions(args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := decodePathArgs(args, &a); err != nil {
		return nil, err
	}
	return imaging.GetDimensions(s.cache, a.Path)
}

type imageCropArgs struct {
	pathArgs
	X1    int     `json:"x1"`
	Y1    int     `json:"y1"`
	X2    int     `json:"x2"`
	Y2    int     `json:"y2"`
	Scale float64 `json:"scale"`
}

func (s *Server) handleImageCrop(args json.RawMessage) (interface{}, error) {
	var a imageCropArgs
	if err := decodePathArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Scale == 0 {
		a.Scale = 1.0
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	return imaging.Crop(img, a.X1, a.Y1, a.X2, a.Y2, a.Scale)
}

// === ID Card Handlers ===

type detectRegionsArgs struct {
	pathArgs
	Order string `json:"order"`
}

type detectRegionsResult struct {
	Regions []detection.Bounds `json:"regions"`
	Count   int                `json:"count"`
	Order   detection.Order    `json:"order"`
}

func (s *Server) handleDetectRegions(args json.RawMessage) (interface{}, error) {
	var a detectRegionsArgs
	if err := decodePathArgs(args, &a); err != nil {
		return nil, err
	}

	order := s.scanner.Order
	if a.Order != "" {
		var err error
		if order, err = detection.ParseOrder(a.Order); err != nil {
			return nil, fmt.Errorf("%w: %v", errInvalidArgs, err)
		}
	}

	gray, _, err := s.loadCard(a.Path)
	if err != nil {
		return nil, err
	}
	regions, err := s.finder.FindRegions(gray)
	if err != nil {
		return nil, err
	}
	detection.SortBounds(regions, order)

	if regions == nil {
		regions = []detection.Bounds{}
	}
	if order == "" {
		order = detection.OrderNative
	}
	return &detectRegionsResult{Regions: regions, Count: len(regions), Order: order}, nil
}

type scanArgs struct {
	pathArgs
	IncludeAnnotated bool `json:"include_annotated"`
}

type scanResult struct {
	*nid.ScanResult
	AnnotatedBase64 string `json:"annotated_base64,omitempty"`
}

func (s *Server) handleScan(args json.RawMessage) (interface{}, error) {
	var a scanArgs
	if err := decodePathArgs(args, &a); err != nil {
		return nil, err
	}

	gray, col, err := s.loadCard(a.Path)
	if err != nil {
		return nil, err
	}
	res, err := s.scanner.Scan(context.Background(), gray, col)
	if err != nil {
		return nil, err
	}

	out := &scanResult{ScanResult: res}
	if a.IncludeAnnotated {
		if out.AnnotatedBase64, _, err = imaging.EncodeBase64(res.Annotated, "png"); err != nil {
			return nil, err
		}
	}
	return out, nil
}

type faceDetectArgs struct {
	pathArgs
	IncludeFace bool `json:"include_face"`
}

type faceDetectResult struct {
	Faces      []detection.Bounds `json:"faces"`
	Count      int                `json:"count"`
	Selected   *detection.Bounds  `json:"selected,omitempty"`
	FaceBase64 string             `json:"face_base64,omitempty"`
}

func (s *Server) handleFaceDetect(args json.RawMessage) (interface{}, error) {
	var a faceDetectArgs
	if err := decodePathArgs(args, &a); err != nil {
		return nil, err
	}

	gray, col, err := s.loadCard(a.Path)
	if err != nil {
		return nil, err
	}
	dets, err := s.faces.Detect(gray)
	if err != nil {
		return nil, err
	}

	result := &faceDetectResult{Faces: make([]detection.Bounds, 0, len(dets)), Count: len(dets)}
	for _, r := range dets {
		result.Faces = append(result.Faces, detection.FromRect(r))
	}

	if r, ok := face.First(dets); ok {
		b := detection.FromRect(r)
		result.Selected = &b
		if a.IncludeFace {
			crop, err := face.Crop(col, r)
			if err != nil {
				return nil, err
			}
			if result.FaceBase64, _, err = imaging.EncodeBase64(crop, "png"); err != nil {
				return nil, err
			}
		}
	}
	return result, nil
}

type recognizeArgs struct {
	pathArgs
	IncludeFace bool `json:"include_face"`
}

// handleRecognize runs the pipeline on the background worker and forwards its
// progress events as notifications when token is set.
func (s *Server) handleRecognize(args json.RawMessage, token interface{}) (interface{}, error) {
	var a recognizeArgs
	if err := decodePathArgs(args, &a); err != nil {
		return nil, err
	}

	var (
		result *pipeline.Result
		runErr error
	)
	for ev := range s.worker.Start(context.Background(), a.Path) {
		switch ev.Kind {
		case pipeline.EventProgress:
			if token != nil {
				s.notifyProgress(token, ev.Progress)
			}
		case pipeline.EventFailed:
			runErr = ev.Err
		case pipeline.EventDone:
			result = ev.Result
		}
	}
	if runErr != nil {
		return nil, runErr
	}

	if a.IncludeFace {
		if err := result.EncodeFace("jpeg"); err != nil {
			return nil, err
		}
	}
	return result, nil
}

type saveFaceArgs struct {
	pathArgs
	Dir string `json:"dir"`
}

type saveFaceResult struct {
	ID         string            `json:"id"`
	SavedPath  string            `json:"saved_path"`
	FaceBounds *detection.Bounds `json:"face_bounds"`
}

func (s *Server) handleSaveFace(args json.RawMessage) (interface{}, error) {
	var a saveFaceArgs
	if err := decodePathArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Dir == "" {
		a.Dir = s.pipeline.SaveDir
	}
	if a.Dir == "" {
		return nil, fmt.Errorf("%w: dir is required when no save directory is configured", errInvalidArgs)
	}

	p := *s.pipeline
	p.SaveDir = a.Dir
	res, err := p.Run(context.Background(), a.Path, nil)
	if err != nil {
		return nil, err
	}

	switch {
	case !res.Recognized:
		return nil, fmt.Errorf("%s: %w", a.Path, pipeline.ErrNotRecognized)
	case !res.FaceFound:
		return nil, fmt.Errorf("%s: %w", a.Path, pipeline.ErrNoFace)
	case res.SaveError != "":
		return nil, fmt.Errorf("failed to save face: %s", res.SaveError)
	}
	return &saveFaceResult{ID: res.ID, SavedPath: res.SavedPath, FaceBounds: res.FaceBounds}, nil
}

// === OCR Operation Handlers ===

var errNoOCR = errors.New("OCR engine not configured")

func (s *Server) handleOCRFull(args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := decodePathArgs(args, &a); err != nil {
		return nil, err
	}
	if s.ocr == nil {
		return nil, errNoOCR
	}
	return s.ocr.ExtractText(a.Path)
}

type ocrRegionArgs struct {
	pathArgs
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

func (s *Server) handleOCRRegion(args json.RawMessage) (interface{}, error) {
	var a ocrRegionArgs
	if err := decodePathArgs(args, &a); err != nil {
		return nil, err
	}
	if s.ocr == nil {
		return nil, errNoOCR
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	return s.ocr.ExtractTextFromRegion(img, a.X1, a.Y1, a.X2, a.Y2)
}

func (s *Server) handleOCRInfo() (interface{}, error) {
	if s.ocr == nil {
		return nil, errNoOCR
	}
	return s.ocr.Info(), nil
}
