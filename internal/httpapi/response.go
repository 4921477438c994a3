package httpapi

import (
	"github.com/ironsheep/sprite-tools-mcp/internal/detection"
)

// Response is the envelope for successful API responses.
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ErrorResponse is the envelope for failed API responses.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// DetectResult is the data of a detect response.
type DetectResult struct {
	MD5    string            `json:"md5"`
	Cached bool              `json:"cached"`
	Report *detection.Report `json:"report"`
}

// LayoutRequest is the body of POST /api/v1/layout.
type LayoutRequest struct {
	Sprites     []detection.Rect `json:"sprites"`
	SheetWidth  int              `json:"sheet_width"`
	SheetHeight int              `json:"sheet_height"`
}

// LayoutResult is the data of a layout response.
type LayoutResult struct {
	Analysis   *detection.LayoutAnalysis `json:"analysis"`
	Suggestion *detection.FrameSettings  `json:"suggestion"`
}

// GridRequest is the body of POST /api/v1/grid.
type GridRequest struct {
	SheetWidth  int `json:"sheet_width"`
	SheetHeight int `json:"sheet_height"`
	detection.GridConfig
}

// GridResult is the data of a grid response.
type GridResult struct {
	Layout  *detection.GridLayout `json:"layout"`
	Sprites []detection.Rect      `json:"sprites"`
}

// AutoGridResult is the data of an autogrid response.
type AutoGridResult struct {
	MD5 string `json:"md5"`
	*detection.AutoGrid
	Sprites []detection.Rect `json:"sprites"`
}
