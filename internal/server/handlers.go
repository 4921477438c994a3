package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/ironsheep/sprite-tools-mcp/internal/detection"
	"github.com/ironsheep/sprite-tools-mcp/internal/imaging"
	"github.com/ironsheep/sprite-tools-mcp/internal/store"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "sprite_detect", "sprite_overlay").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
// sprite_detect is the exception: a sheet that cannot be loaded is a
// successful call whose result has success=false.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		s.logger.Warn("tool failed", zap.String("tool", params.Name), zap.Error(err))
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
//
// Each tool handler:
//  1. Unmarshals arguments from JSON
//  2. Applies configured defaults for optional parameters
//  3. Loads images from cache as needed
//  4. Calls the appropriate detection/imaging function
//  5. Returns the result or error
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}

	switch name {
	// Sheet Information
	case "sprite_load":
		return s.handleSpriteLoad(args)

	// Detection
	case "sprite_detect":
		return s.handleSpriteDetect(args)
	case "sprite_detect_background":
		return s.handleSpriteDetectBackground(args)

	// Layout
	case "sprite_analyze_layout":
		return s.handleSpriteAnalyzeLayout(args)
	case "sprite_suggest_frames":
		return s.handleSpriteSuggestFrames(args)
	case "sprite_grid_slice":
		return s.handleSpriteGridSlice(args)
	case "sprite_auto_grid":
		return s.handleSpriteAutoGrid(args)

	// Output
	case "sprite_extract_frames":
		return s.handleSpriteExtractFrames(args)
	case "sprite_overlay":
		return s.handleSpriteOverlay(args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
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

// === Sheet Information Handlers ===

type spriteLoadArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleSpriteLoad(args json.RawMessage) (interface{}, error) {
	var a spriteLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}

// === Detection Handlers ===

// spriteDetectArgs uses pointers so that an explicit zero (merge_threshold 0
// disables merging) is distinguishable from an omitted argument.
type spriteDetectArgs struct {
	Path                     string `json:"path"`
	MinSpriteSize            *int   `json:"min_sprite_size"`
	AlphaThreshold           *int   `json:"alpha_threshold"`
	MergeThreshold           *int   `json:"merge_threshold"`
	ColorKey                 *bool  `json:"color_key"`
	KeepIrregularCollections *bool  `json:"keep_irregular_collections"`
}

func (a spriteDetectArgs) options(base detection.Options) detection.Options {
	if a.MinSpriteSize != nil {
		base.MinSpriteSize = *a.MinSpriteSize
	}
	if a.AlphaThreshold != nil {
		base.AlphaThreshold = *a.AlphaThreshold
	}
	if a.MergeThreshold != nil {
		base.MergeThreshold = *a.MergeThreshold
	}
	if a.ColorKey != nil {
		base.ColorKey = *a.ColorKey
	}
	if a.KeepIrregularCollections != nil {
		base.KeepIrregularCollections = *a.KeepIrregularCollections
	}
	return base
}

func (s *Server) handleSpriteDetect(args json.RawMessage) (interface{}, error) {
	var a spriteDetectArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	opts := a.options(s.cfg.Detection.Options())
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return s.detect(a.Path, opts), nil
}

// detect runs the pipeline on path, consulting the report store first.
// The sheet is decoded from the same bytes that key the store, so an edited
// file is never detected from a stale decode. Load failures come back as a
// failed report, never as an error.
func (s *Server) detect(path string, opts detection.Options) *detection.Report {
	ctx := context.Background()

	data, err := os.ReadFile(path)
	if err != nil {
		return s.failedReport(path, fmt.Errorf("failed to open image: %w", err))
	}

	key := store.Key(store.BytesMD5(data), opts)
	cached, err := s.reports.Get(ctx, key)
	switch {
	case err == nil:
		s.logger.Debug("report cache hit", zap.String("path", path), zap.String("key", key))
		return cached
	case !errors.Is(err, store.ErrNotFound):
		s.logger.Warn("failed to read report cache", zap.String("key", key), zap.Error(err))
	}

	img, _, err := imaging.Decode(data)
	if err != nil {
		return s.failedReport(path, err)
	}

	det := detection.Detect(img, opts)
	report := detection.NewReport(det, nil)

	s.logger.Debug("detected sprites",
		zap.String("path", path),
		zap.Int("components", det.ComponentCount),
		zap.Int("sprites", len(det.Rects)),
		zap.String("layout", string(report.Analysis.Kind())))

	if err := s.reports.Set(ctx, key, report); err != nil {
		s.logger.Warn("failed to write report cache", zap.String("key", key), zap.Error(err))
	}
	return report
}

func (s *Server) failedReport(path string, err error) *detection.Report {
	err = fmt.Errorf("failed to load sprite sheet: %w", err)
	s.logger.Warn("detection failed", zap.String("path", path), zap.Error(err))
	return detection.NewReport(nil, err)
}

type spriteDetectBackgroundArgs struct {
	Path           string `json:"path"`
	AlphaThreshold *int   `json:"alpha_threshold"`
}

// BackgroundResult reports the color-key background of a sheet, if any.
type BackgroundResult struct {
	Found      bool                  `json:"found"`
	Background *detection.Background `json:"background,omitempty"`
	Color      *imaging.ColorResult  `json:"color,omitempty"`
}

func (s *Server) handleSpriteDetectBackground(args json.RawMessage) (interface{}, error) {
	var a spriteDetectBackgroundArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	threshold := s.cfg.Detection.AlphaThreshold
	if a.AlphaThreshold != nil {
		threshold = *a.AlphaThreshold
	}
	if threshold < 0 || threshold > 255 {
		return nil, fmt.Errorf("alpha_threshold %d out of range 0-255", threshold)
	}

	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	bg := detection.DetectBackground(img, threshold)
	if bg == nil {
		return &BackgroundResult{Found: false}, nil
	}
	described := imaging.DescribeColor(bg.Color())
	return &BackgroundResult{Found: true, Background: bg, Color: &described}, nil
}

// === Layout Handlers ===

type spriteAnalyzeLayoutArgs struct {
	Sprites []detection.Rect `json:"sprites"`
}

func (s *Server) handleSpriteAnalyzeLayout(args json.RawMessage) (interface{}, error) {
	var a spriteAnalyzeLayoutArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return detection.AnalyzeLayout(a.Sprites), nil
}

type spriteSuggestFramesArgs struct {
	Sprites     []detection.Rect `json:"sprites"`
	SheetWidth  int              `json:"sheet_width"`
	SheetHeight int              `json:"sheet_height"`
}

func (s *Server) handleSpriteSuggestFrames(args json.RawMessage) (interface{}, error) {
	var a spriteSuggestFramesArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	analysis := detection.AnalyzeLayout(a.Sprites)
	return map[string]interface{}{
		"suggestion": detection.SuggestFrameSettings(analysis, a.Sprites, a.SheetWidth, a.SheetHeight),
	}, nil
}

type spriteGridSliceArgs struct {
	Path        string `json:"path"`
	SheetWidth  int    `json:"sheet_width"`
	SheetHeight int    `json:"sheet_height"`
	detection.GridConfig
}

// GridSliceResult is the outcome of slicing a sheet into a regular grid.
type GridSliceResult struct {
	Layout  *detection.GridLayout `json:"layout"`
	Sprites []detection.Rect      `json:"sprites"`
}

func (s *Server) handleSpriteGridSlice(args json.RawMessage) (interface{}, error) {
	var a spriteGridSliceArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	width, height := a.SheetWidth, a.SheetHeight
	if a.Path != "" {
		img, err := s.cache.Load(a.Path)
		if err != nil {
			return nil, err
		}
		width, height = img.Bounds().Dx(), img.Bounds().Dy()
	}

	layout, rects, err := detection.SliceGrid(width, height, a.GridConfig, s.cfg.Grid.Limits())
	if err != nil {
		return nil, err
	}
	return &GridSliceResult{Layout: layout, Sprites: rects}, nil
}

type spriteAutoGridArgs struct {
	Path           string `json:"path"`
	AlphaThreshold int    `json:"alpha_threshold"`
}

// AutoGridResult is an inferred grid and the frames it cuts.
type AutoGridResult struct {
	*detection.AutoGrid
	Sprites []detection.Rect `json:"sprites"`
}

func (s *Server) handleSpriteAutoGrid(args json.RawMessage) (interface{}, error) {
	var a spriteAutoGridArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.AlphaThreshold == 0 {
		a.AlphaThreshold = s.cfg.Grid.AutoAlphaThreshold
	}
	if a.AlphaThreshold < 0 || a.AlphaThreshold > 255 {
		return nil, fmt.Errorf("alpha_threshold must be between 0 and 255")
	}

	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	limits := s.cfg.Grid.Limits()
	auto := detection.AutoDetectGrid(img, a.AlphaThreshold, limits)
	result := &AutoGridResult{AutoGrid: auto, Sprites: []detection.Rect{}}
	if auto.Layout != nil {
		_, result.Sprites, _ = detection.SliceGrid(img.Bounds().Dx(), img.Bounds().Dy(), auto.Grid, limits)
	}

	s.logger.Debug("auto-detected grid",
		zap.String("path", a.Path),
		zap.Bool("success", auto.Success),
		zap.String("method", string(auto.Method)),
		zap.String("confidence", string(auto.Confidence)),
		zap.Int("frames", len(result.Sprites)))

	return result, nil
}

// === Output Handlers ===

type spriteExtractFramesArgs struct {
	Path      string                `json:"path"`
	Sprites   []detection.Rect      `json:"sprites"`
	Grid      *detection.GridConfig `json:"grid"`
	Scale     int                   `json:"scale"`
	Mode      string                `json:"mode"`
	Format    string                `json:"format"`
	OutputDir string                `json:"output_dir"`
	Prefix    string                `json:"prefix"`
	Columns   int                   `json:"columns"`
	Padding   int                   `json:"padding"`
	DelayMS   int                   `json:"delay_ms"`
	LoopCount int                   `json:"loop_count"`
}

// handleSpriteExtractFrames exports frames as individual images, a repacked
// sheet or an animated GIF, either inline or written to output_dir.
func (s *Server) handleSpriteExtractFrames(args json.RawMessage) (interface{}, error) {
	var a spriteExtractFramesArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Scale == 0 {
		a.Scale = 1
	}

	mode, err := imaging.ParseExportMode(a.Mode)
	if err != nil {
		return nil, err
	}
	format, err := imaging.ParseExportFormat(a.Format)
	if err != nil {
		return nil, err
	}

	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	rects := a.Sprites
	switch {
	case len(rects) > 0:
	case a.Grid != nil:
		_, rects, err = detection.SliceGrid(img.Bounds().Dx(), img.Bounds().Dy(), *a.Grid, s.cfg.Grid.Limits())
		if err != nil {
			return nil, err
		}
	default:
		rects = detection.Detect(img, s.cfg.Detection.Options()).Rects
	}

	result, err := imaging.Export(img, rects, imaging.ExportOptions{
		Mode:      mode,
		Format:    format,
		Scale:     a.Scale,
		Dir:       a.OutputDir,
		Prefix:    a.Prefix,
		Columns:   a.Columns,
		Padding:   a.Padding,
		Delay:     a.DelayMS,
		LoopCount: a.LoopCount,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("frames exported",
		zap.String("path", a.Path),
		zap.String("mode", string(result.Mode)),
		zap.String("format", string(result.Format)),
		zap.Int("count", result.Count),
		zap.Int("files", len(result.Files)))

	return result, nil
}

type spriteOverlayArgs struct {
	Path      string           `json:"path"`
	Sprites   []detection.Rect `json:"sprites"`
	Color     string           `json:"color"`
	Thickness int              `json:"thickness"`
	ShowIndex *bool            `json:"show_index"`
}

func (s *Server) handleSpriteOverlay(args json.RawMessage) (interface{}, error) {
	var a spriteOverlayArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Thickness == 0 {
		a.Thickness = 1
	}
	showIndex := true
	if a.ShowIndex != nil {
		showIndex = *a.ShowIndex
	}

	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	rects := a.Sprites
	if len(rects) == 0 {
		rects = detection.Detect(img, s.cfg.Detection.Options()).Rects
	}

	return imaging.Overlay(img, rects, imaging.OverlayOptions{
		Color:     a.Color,
		Thickness: a.Thickness,
		ShowIndex: showIndex,
	})
}
