// Package server implements the MCP (Model Context Protocol) server for ID card recognition.
//
// This package provides a JSON-RPC 2.0 server that exposes the card pipeline
// through the MCP protocol, so MCP clients can read ID numbers and face photos
// from card images.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses and notifications on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Basic Image Information:
//   - image_load: Load image and get metadata
//   - image_dimensions: Get width and height
//   - image_crop: Extract rectangular region
//
// ID Card Operations:
//   - nid_detect_regions: Candidate text blocks
//   - nid_scan: Region-by-region OCR scan for the ID number
//   - face_detect: Cascade face detection, first face selected
//   - nid_recognize: Number and face in one run, with progress
//   - nid_save_face: Recognize and save <dir>/<id>.jpg
//
// OCR Operations:
//   - image_ocr_full: Extract all text
//   - image_ocr_region: Extract text from region
//   - ocr_info: Tesseract availability
//
// # Progress
//
// A tools/call for nid_recognize whose params carry _meta.progressToken gets
// notifications/progress messages with progress 20, 50 and 100 (total 100)
// before its response. The run itself happens on a pipeline.Worker.
//
// # Image Caching
//
// The server maintains an in-memory cache of loaded images. Images are cached
// by path and reused across multiple tool calls, avoiding redundant disk I/O.
// The cache persists for the lifetime of the server process.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure), -32602 (bad arguments) or
//     -32601 (unknown method)
//   - message: Human-readable error description
//   - data: Additional error details (typically the Go error string)
//
// # Usage
//
//	srv := server.New(server.Deps{Pipeline: p, OCR: engine})
//	if err := srv.Run(); err != nil {
//	    log.Fatal(err)
//	}
package server
