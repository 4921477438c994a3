package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

var pathProperty = map[string]interface{}{
	"type":        "string",
	"description": "Absolute path to the sprite sheet image",
}

// spritesProperty describes a list of sprite rectangles in sheet pixels.
var spritesProperty = map[string]interface{}{
	"type":        "array",
	"description": "Sprite rectangles in sheet pixel coordinates",
	"items": map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"x":      map[string]interface{}{"type": "integer"},
			"y":      map[string]interface{}{"type": "integer"},
			"width":  map[string]interface{}{"type": "integer"},
			"height": map[string]interface{}{"type": "integer"},
		},
		"required": []string{"x", "y", "width", "height"},
	},
}

var gridProperties = map[string]interface{}{
	"frame_width": map[string]interface{}{
		"type":        "integer",
		"description": "Frame width in pixels",
	},
	"frame_height": map[string]interface{}{
		"type":        "integer",
		"description": "Frame height in pixels",
	},
	"offset_x": map[string]interface{}{
		"type":        "integer",
		"description": "Margin from the left edge to the first frame. Default 0",
	},
	"offset_y": map[string]interface{}{
		"type":        "integer",
		"description": "Margin from the top edge to the first frame. Default 0",
	},
	"spacing_x": map[string]interface{}{
		"type":        "integer",
		"description": "Horizontal gap between frames. Default 0",
	},
	"spacing_y": map[string]interface{}{
		"type":        "integer",
		"description": "Vertical gap between frames. Default 0",
	},
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	gridSchema := map[string]interface{}{
		"path": pathProperty,
		"sheet_width": map[string]interface{}{
			"type":        "integer",
			"description": "Sheet width in pixels. Read from the image when path is given",
		},
		"sheet_height": map[string]interface{}{
			"type":        "integer",
			"description": "Sheet height in pixels. Read from the image when path is given",
		},
	}
	for k, v := range gridProperties {
		gridSchema[k] = v
	}

	return []Tool{
		// Sheet Information
		{
			Name:        "sprite_load",
			Description: "Load a sprite sheet and return its dimensions, format and whether it has an alpha channel. The image is cached for subsequent calls.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
				},
				"required": []string{"path"},
			},
		},

		// Detection
		{
			Name:        "sprite_detect",
			Description: "Detect sprite bounding boxes with connected-component labeling, then analyze the layout and suggest grid frame settings. Failures are reported in the result with success=false and an empty sprite list.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
					"min_sprite_size": map[string]interface{}{
						"type":        "integer",
						"description": "Discard components narrower or shorter than this. Default 8",
					},
					"alpha_threshold": map[string]interface{}{
						"type":        "integer",
						"description": "Pixels with alpha strictly above this are opaque (0-255). Default 128",
					},
					"merge_threshold": map[string]interface{}{
						"type":        "integer",
						"description": "Merge components closer than this many pixels. 0 disables merging. Default 50",
					},
					"color_key": map[string]interface{}{
						"type":        "boolean",
						"description": "Detect a solid background color on opaque sheets. Default false",
					},
					"keep_irregular_collections": map[string]interface{}{
						"type":        "boolean",
						"description": "Skip merging on sheets that look like atlases of unrelated sprites. Default false",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "sprite_detect_background",
			Description: "Detect a solid background color on a sheet without transparency. Returns found=false when the sheet is transparent or has no dominant corner color.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
					"alpha_threshold": map[string]interface{}{
						"type":        "integer",
						"description": "Alpha threshold used to decide whether the sheet is opaque. Default 128",
					},
				},
				"required": []string{"path"},
			},
		},

		// Layout
		{
			Name:        "sprite_analyze_layout",
			Description: "Classify a list of sprite rectangles as regular_grid, horizontal_strip, vertical_strip or irregular, with size statistics.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"sprites": spritesProperty,
				},
				"required": []string{"sprites"},
			},
		},
		{
			Name:        "sprite_suggest_frames",
			Description: "Suggest frame width, height, offset and spacing for slicing a sheet, from a list of sprite rectangles. Returns a null suggestion for an empty list.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"sprites": spritesProperty,
					"sheet_width": map[string]interface{}{
						"type":        "integer",
						"description": "Sheet width in pixels, used to clamp the frame size",
					},
					"sheet_height": map[string]interface{}{
						"type":        "integer",
						"description": "Sheet height in pixels, used to clamp the frame size",
					},
				},
				"required": []string{"sprites"},
			},
		},
		{
			Name:        "sprite_grid_slice",
			Description: "Compute the frame rectangles of a regular grid. Either path or sheet_width and sheet_height must be given.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": gridSchema,
				"required":   []string{"frame_width", "frame_height"},
			},
		},
		{
			Name:        "sprite_auto_grid",
			Description: "Infer frame size, margins and spacing of a regularly laid out sheet from its pixels, and return the grid with the frames it cuts. Reports a score, a confidence grade and the outcome of each detection step.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
					"alpha_threshold": map[string]interface{}{
						"type":        "integer",
						"description": "Pixels with alpha above this count as content (0-255). Default 10",
						"default":     10,
					},
				},
				"required": []string{"path"},
			},
		},

		// Output
		{
			Name:        "sprite_extract_frames",
			Description: "Export frames of a sheet as individual images, a repacked sprite sheet or an animated GIF, returned as base64 or written to output_dir. Frames come from sprites if given, else from grid if given, else from detection with default settings.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":    pathProperty,
					"sprites": spritesProperty,
					"grid": map[string]interface{}{
						"type":        "object",
						"description": "Grid configuration to slice the sheet with",
						"properties":  gridProperties,
						"required":    []string{"frame_width", "frame_height"},
					},
					"scale": map[string]interface{}{
						"type":        "integer",
						"description": "Integer nearest-neighbour upscale factor (1-16). Default 1",
						"default":     1,
					},
					"mode": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"individual", "sheet", "gif"},
						"description": "individual: one image per frame. sheet: frames repacked into a new evenly spaced sheet with a JSON layout. gif: animated GIF in frame order. Default individual",
						"default":     "individual",
					},
					"format": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"png", "jpg", "bmp", "gif"},
						"description": "Image format for individual and sheet modes. JPEG drops transparency. Default png",
						"default":     "png",
					},
					"output_dir": map[string]interface{}{
						"type":        "string",
						"description": "Write files to this directory, created if missing, instead of returning base64",
					},
					"prefix": map[string]interface{}{
						"type":        "string",
						"description": "File name prefix when writing to output_dir. Default \"frame\"",
					},
					"columns": map[string]interface{}{
						"type":        "integer",
						"description": "Frames per row in sheet mode. Default picks a near-square layout",
					},
					"padding": map[string]interface{}{
						"type":        "integer",
						"description": "Pixels between frames in sheet mode. Default 0",
					},
					"delay_ms": map[string]interface{}{
						"type":        "integer",
						"description": "Frame time in gif mode, in milliseconds. Default 100",
						"default":     100,
					},
					"loop_count": map[string]interface{}{
						"type":        "integer",
						"description": "gif mode: 0 loops forever, -1 plays once, n plays n+1 times. Default 0",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "sprite_overlay",
			Description: "Draw sprite rectangles on the sheet and return it as a base64 PNG, for checking detection results visually. Detects sprites when none are given.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":    pathProperty,
					"sprites": spritesProperty,
					"color": map[string]interface{}{
						"type":        "string",
						"description": "Outline color as #rrggbb. Default is a distinct color per sprite",
					},
					"thickness": map[string]interface{}{
						"type":        "integer",
						"description": "Outline thickness in pixels. Default 1",
					},
					"show_index": map[string]interface{}{
						"type":        "boolean",
						"description": "Label each sprite with its index. Default true",
					},
				},
				"required": []string{"path"},
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
