package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// pathProperty is the schema shared by every tool taking an image file.
var pathProperty = map[string]interface{}{
	"type":        "string",
	"description": "Absolute path to the image file",
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Basic Image Information
		{
			Name:        "image_load",
			Description: "Load an image file and return its dimensions and format. The decoded image is cached for subsequent operations.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_dimensions",
			Description: "Get the width and height of an image file.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_crop",
			Description: "Crop a rectangular region from an image and return it as base64-encoded PNG. Use this to inspect a candidate text block or face up close.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
					"x1": map[string]interface{}{
						"type":        "integer",
						"description": "Left edge X coordinate (0-based)",
					},
					"y1": map[string]interface{}{
						"type":        "integer",
						"description": "Top edge Y coordinate (0-based)",
					},
					"x2": map[string]interface{}{
						"type":        "integer",
						"description": "Right edge X coordinate (exclusive)",
					},
					"y2": map[string]interface{}{
						"type":        "integer",
						"description": "Bottom edge Y coordinate (exclusive)",
					},
					"scale": map[string]interface{}{
						"type":        "number",
						"description": "Optional scale factor (e.g., 2.0 to double size). Default 1.0",
						"default":     1.0,
					},
				},
				"required": []string{"path", "x1", "y1", "x2", "y2"},
			},
		},

		// ID Card Operations
		{
			Name:        "nid_detect_regions",
			Description: "Find candidate text blocks on an ID card (Otsu inverse threshold, 18x18 dilation, external contours). Returns bounding boxes in scan order without running OCR.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
					"order": map[string]interface{}{
						"type":        "string",
						"description": "Box order: 'reading' (top-to-bottom, left-to-right), 'native' (contour order) or 'area' (largest first). Default is the server setting",
						"enum":        []string{"reading", "native", "area"},
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "nid_scan",
			Description: "OCR the candidate text blocks one by one and return the first line holding 10, 13, 15 or 17 digits. Returns 'Not Recognized' when no block qualifies.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
					"include_annotated": map[string]interface{}{
						"type":        "boolean",
						"description": "Also return the card with every examined block outlined, as base64 PNG",
						"default":     false,
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "face_detect",
			Description: "Run the cascade face detector (scale factor 1.1, 5 neighbours). Returns all detections and the selected face, which is always the first one.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
					"include_face": map[string]interface{}{
						"type":        "boolean",
						"description": "Also return the selected face crop as base64 PNG",
						"default":     false,
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "nid_recognize",
			Description: "Full card recognition: ID number and first face. Sends notifications/progress (20, 50, 100) when the request carries a progressToken.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
					"include_face": map[string]interface{}{
						"type":        "boolean",
						"description": "Return the face crop as base64 JPEG",
						"default":     false,
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "nid_save_face",
			Description: "Recognize a card and save its face as <dir>/<id>.jpg. Fails when the number is not recognized or no face is found.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
					"dir": map[string]interface{}{
						"type":        "string",
						"description": "Output directory. Defaults to NID_SAVE_DIR",
					},
				},
				"required": []string{"path"},
			},
		},

		// OCR Operations
		{
			Name:        "image_ocr_full",
			Description: "Extract all text from the image using OCR. Returns text with word bounding boxes.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_ocr_region",
			Description: "Extract text from a specific rectangular region of the image.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
					"x1":   map[string]interface{}{"type": "integer"},
					"y1":   map[string]interface{}{"type": "integer"},
					"x2":   map[string]interface{}{"type": "integer"},
					"y2":   map[string]interface{}{"type": "integer"},
				},
				"required": []string{"path", "x1", "y1", "x2", "y2"},
			},
		},
		{
			Name:        "ocr_info",
			Description: "Report whether Tesseract is available, its version, language and tessdata path.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
