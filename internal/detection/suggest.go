package detection

import "math"

// Confidence grades how well a single uniform grid describes a sheet.
type Confidence string

// Confidence levels reported by SuggestFrameSettings.
const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// FrameSettings is a suggested configuration for uniform grid slicing.
type FrameSettings struct {
	FrameWidth  int `json:"frame_width"`
	FrameHeight int `json:"frame_height"`
	OffsetX     int `json:"offset_x"`
	OffsetY     int `json:"offset_y"`
	SpacingX    int `json:"spacing_x"`
	SpacingY    int `json:"spacing_y"`

	DetectedLayout LayoutKind `json:"detected_layout"`
	Confidence     Confidence `json:"confidence"`

	// GridCols and GridRows are set only for grid-like suggestions.
	GridCols int `json:"grid_cols,omitempty"`
	GridRows int `json:"grid_rows,omitempty"`

	// IndividualBounds carries every detected rectangle when no single grid
	// describes the sheet (low confidence).
	IndividualBounds []Rect `json:"individual_bounds,omitempty"`
}

// GridConfig converts the suggestion into a grid slicing configuration.
func (f *FrameSettings) GridConfig() GridConfig {
	return GridConfig{
		FrameWidth:  f.FrameWidth,
		FrameHeight: f.FrameHeight,
		OffsetX:     f.OffsetX,
		OffsetY:     f.OffsetY,
		SpacingX:    f.SpacingX,
		SpacingY:    f.SpacingY,
	}
}

// SuggestFrameSettings proposes frame size, offset and spacing for slicing a
// sheet as a uniform grid.
//
// Parameters:
//   - analysis: Layout analysis of rects. If nil it is computed from rects.
//   - rects: The rectangles the analysis was derived from.
//   - sheetWidth, sheetHeight: Sheet dimensions in pixels. Suggested frame
//     sizes never exceed them. Pass 0 to skip clamping.
//
// Returns nil when rects is empty; there is nothing to suggest.
//
// # Grid-like sheets
//
// For "regular_grid" and "horizontal_strip" layouts with at least two sprites:
//   - Frame size is the rounded mean sprite size.
//   - SpacingX is the widest gap between consecutive same-row sprites among
//     the first GridCols sprites sorted by (Y, X).
//   - SpacingY is the gap between the first sprite of row 0 and the first
//     sprite of row 1.
//   - Offsets are the minimum X and minimum Y over all sprites.
//   - Confidence is "high" when both dimensions are uniform, else "medium".
//
// Offsets and spacings are clamped to zero.
//
// # Everything else
//
// Irregular sheets, vertical strips and single sprites get the rounded mean
// size, zero offsets and spacing, confidence "low", and the full rectangle
// list in IndividualBounds.
func SuggestFrameSettings(analysis *LayoutAnalysis, rects []Rect, sheetWidth, sheetHeight int) *FrameSettings {
	if len(rects) == 0 {
		return nil
	}
	if analysis == nil || analysis.Count != len(rects) {
		analysis = AnalyzeLayout(rects)
	}

	frameWidth := clampFrame(int(math.Round(analysis.Width.Mean)), sheetWidth)
	frameHeight := clampFrame(int(math.Round(analysis.Height.Mean)), sheetHeight)

	cols, rows, gridLike := Grid(analysis.Layout)
	if !gridLike || len(rects) < 2 {
		bounds := make([]Rect, len(rects))
		copy(bounds, rects)
		return &FrameSettings{
			FrameWidth:       frameWidth,
			FrameHeight:      frameHeight,
			DetectedLayout:   KindIrregular,
			Confidence:       ConfidenceLow,
			IndividualBounds: bounds,
		}
	}

	sorted := sortByRowThenColumn(rects)

	spacingX := 0
	if cols > 1 {
		for i := 1; i < minInt(cols, len(sorted)); i++ {
			prev, curr := sorted[i-1], sorted[i]
			if absInt(curr.Y-prev.Y) < RowTolerance {
				spacingX = maxInt(spacingX, curr.X-prev.Right())
			}
		}
	}

	spacingY := 0
	if rows > 1 && len(sorted) > cols {
		spacingY = sorted[cols].Y - sorted[0].Bottom()
	}

	offsetX, offsetY := sorted[0].X, sorted[0].Y
	for _, r := range rects {
		offsetX = minInt(offsetX, r.X)
		offsetY = minInt(offsetY, r.Y)
	}

	confidence := ConfidenceMedium
	if analysis.UniformWidth && analysis.UniformHeight {
		confidence = ConfidenceHigh
	}

	return &FrameSettings{
		FrameWidth:     frameWidth,
		FrameHeight:    frameHeight,
		OffsetX:        maxInt(0, offsetX),
		OffsetY:        maxInt(0, offsetY),
		SpacingX:       maxInt(0, spacingX),
		SpacingY:       maxInt(0, spacingY),
		DetectedLayout: analysis.Kind(),
		Confidence:     confidence,
		GridCols:       cols,
		GridRows:       rows,
	}
}

func clampFrame(size, limit int) int {
	if limit > 0 && size > limit {
		return limit
	}
	return size
}
