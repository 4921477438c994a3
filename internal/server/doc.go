// Package server implements the MCP (Model Context Protocol) server for sprite sheet tools.
//
// This package provides a JSON-RPC 2.0 server that exposes sprite detection and
// frame slicing through the MCP protocol, so an agent can find the frames of a
// sprite sheet and check its own results visually.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Sheet Information:
//   - sprite_load: Load a sheet and get its metadata
//
// Detection:
//   - sprite_detect: Connected-component sprite detection with layout analysis
//     and frame suggestion
//   - sprite_detect_background: Color-key background detection
//
// Layout:
//   - sprite_analyze_layout: Classify a list of rectangles
//   - sprite_suggest_frames: Suggest grid frame settings
//   - sprite_grid_slice: Compute the rectangles of a regular grid
//   - sprite_auto_grid: Infer frame size, margins and spacing from the pixels
//
// Output:
//   - sprite_extract_frames: Export frames as images, a repacked sheet or an
//     animated GIF, inline or as files
//   - sprite_overlay: Draw rectangles on the sheet
//
// # Caching
//
// Decoded images are cached by path and decoded again when the file's size or
// modification time changes. sprite_detect always decodes the bytes it hashes.
// Detection reports are cached in a store.Store keyed by the MD5 of the file
// contents and the detection options, so editing a sheet invalidates its
// reports.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: Additional error details (typically the Go error string)
//
// sprite_detect reports an unreadable sheet in its result instead, with
// success=false, the error message and an empty sprite list.
//
// # Usage
//
//	srv := server.New(cfg, reports, logger)
//	if err := srv.Run(); err != nil {
//	    logger.Fatal("server error", zap.Error(err))
//	}
package server
