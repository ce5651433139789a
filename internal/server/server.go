package server

import (
	"bufio"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"log"
	"os"
	"sync"

	"github.com/ironsheep/nid-extract/internal/detection"
	"github.com/ironsheep/nid-extract/internal/face"
	"github.com/ironsheep/nid-extract/internal/imaging"
	"github.com/ironsheep/nid-extract/internal/nid"
	"github.com/ironsheep/nid-extract/internal/ocr"
	"github.com/ironsheep/nid-extract/internal/pipeline"
)

// ServerName and ServerVersion are reported by initialize.
const (
	ServerName    = "nid-extract"
	ServerVersion = "0.1.0"
)

// TextExtractor is the OCR surface used by the plain OCR tools.
type TextExtractor interface {
	ExtractText(path string) (*ocr.OCRResult, error)
	ExtractTextFromRegion(img image.Image, x1, y1, x2, y2 int) (*ocr.OCRResult, error)
	Info() ocr.Info
}

// Deps are the components the tools call into.
type Deps struct {
	Pipeline *pipeline.Pipeline
	OCR      TextExtractor
}

// Server handles MCP protocol communication
type Server struct {
	cache    *imaging.ImageCache
	finder   detection.RegionFinder
	scanner  *nid.Scanner
	faces    face.Detector
	ocr      TextExtractor
	pipeline *pipeline.Pipeline
	worker   *pipeline.Worker

	// out receives responses and notifications; outMu keeps lines whole.
	outMu sync.Mutex
	out   io.Writer
}

// MCPRequest represents an incoming JSON-RPC request
type MCPRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// MCPResponse represents an outgoing JSON-RPC response
type MCPResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *MCPError   `json:"error,omitempty"`
}

// MCPError represents a JSON-RPC error
type MCPError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// MCPNotification represents an outgoing notification (no ID)
type MCPNotification struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
}

// New creates a new MCP server instance around d.Pipeline, whose cache,
// scanner and face detector are shared by every tool.
func New(d Deps) *Server {
	p := d.Pipeline
	if p.Cache == nil {
		p.Cache = imaging.NewImageCache()
	}
	return &Server{
		cache:    p.Cache,
		finder:   p.Scanner.Finder,
		scanner:  p.Scanner,
		faces:    p.Faces,
		ocr:      d.OCR,
		pipeline: p,
		worker:   pipeline.NewWorker(p),
	}
}

// Run starts the MCP server, reading from stdin and writing to stdout
func (s *Server) Run() error {
	return s.Serve(os.Stdin, os.Stdout)
}

// Serve handles newline-delimited requests from r until EOF, writing
// responses and notifications to w.
func (s *Server) Serve(r io.Reader, w io.Writer) error {
	s.outMu.Lock()
	s.out = w
	s.outMu.Unlock()

	scanner := bufio.NewScanner(r)
	// Increase buffer size for large requests
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req MCPRequest
		if err := json.Unmarshal(line, &req); err != nil {
			log.Printf("Failed to parse request: %v", err)
			continue
		}

		resp := s.handleRequest(&req)
		if resp != nil {
			if err := s.write(resp); err != nil {
				log.Printf("Failed to encode response: %v", err)
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scanner error: %w", err)
	}

	return nil
}

// write encodes v as one JSON line. Without an output (handlers called
// directly) it is a no-op.
func (s *Server) write(v interface{}) error {
	s.outMu.Lock()
	defer s.outMu.Unlock()
	if s.out == nil {
		return nil
	}
	return json.NewEncoder(s.out).Encode(v)
}

// notifyProgress sends notifications/progress for a request that asked for it.
func (s *Server) notifyProgress(token interface{}, progress int) {
	err := s.write(&MCPNotification{
		JSONRPC: "2.0",
		Method:  "notifications/progress",
		Params: map[string]interface{}{
			"progressToken": token,
			"progress":      progress,
			"total":         pipeline.ProgressFaces,
		},
	})
	if err != nil {
		log.Printf("Failed to send progress: %v", err)
	}
}

// handleRequest routes requests to appropriate handlers
func (s *Server) handleRequest(req *MCPRequest) *MCPResponse {
	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "notifications/initialized":
		// Client acknowledgment, no response needed
		return nil
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolsCall(req)
	case "ping":
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result:  map[string]interface{}{},
		}
	default:
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error: &MCPError{
				Code:    -32601,
				Message: fmt.Sprintf("Method not found: %s", req.Method),
			},
		}
	}
}

// handleInitialize responds to the initialize request
func (s *Server) handleInitialize(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"protocolVersion": "2024-11-05",
			"capabilities": map[string]interface{}{
				"tools": map[string]interface{}{},
			},
			"serverInfo": map[string]interface{}{
				"name":    ServerName,
				"version": ServerVersion,
			},
		},
	}
}
