package detection

import (
	"errors"
	"fmt"
)

// ErrInvalidGrid is wrapped by every grid validation failure.
var ErrInvalidGrid = errors.New("invalid grid configuration")

// GridConfig describes a uniform frame grid laid over a sprite sheet.
type GridConfig struct {
	FrameWidth  int `json:"frame_width"`
	FrameHeight int `json:"frame_height"`
	OffsetX     int `json:"offset_x"`  // margin from the left edge to the first frame
	OffsetY     int `json:"offset_y"`  // margin from the top edge to the first frame
	SpacingX    int `json:"spacing_x"` // gap between horizontally adjacent frames
	SpacingY    int `json:"spacing_y"` // gap between vertically adjacent frames
}

// GridLimits bounds the values accepted by SliceGrid. A zero field disables
// that check.
type GridLimits struct {
	MaxFrameSize int `json:"max_frame_size"`
	MaxOffset    int `json:"max_offset"`
	MaxSpacing   int `json:"max_spacing"`
}

// DefaultGridLimits returns the limits the sprite viewer has always enforced.
func DefaultGridLimits() GridLimits {
	return GridLimits{
		MaxFrameSize: 2048,
		MaxOffset:    1000,
		MaxSpacing:   20,
	}
}

// GridLayout reports how many frames a grid configuration yields.
type GridLayout struct {
	FramesPerRow    int `json:"frames_per_row"`
	FramesPerCol    int `json:"frames_per_col"`
	TotalFrames     int `json:"total_frames"`
	AvailableWidth  int `json:"available_width"`
	AvailableHeight int `json:"available_height"`
}

// Validate checks cfg against limits and the sheet size. At least one frame
// must fit after applying the offsets.
func (cfg GridConfig) Validate(sheetWidth, sheetHeight int, limits GridLimits) error {
	switch {
	case cfg.FrameWidth <= 0:
		return fmt.Errorf("%w: frame width must be greater than 0", ErrInvalidGrid)
	case cfg.FrameHeight <= 0:
		return fmt.Errorf("%w: frame height must be greater than 0", ErrInvalidGrid)
	case limits.MaxFrameSize > 0 && cfg.FrameWidth > limits.MaxFrameSize:
		return fmt.Errorf("%w: frame width cannot exceed %d", ErrInvalidGrid, limits.MaxFrameSize)
	case limits.MaxFrameSize > 0 && cfg.FrameHeight > limits.MaxFrameSize:
		return fmt.Errorf("%w: frame height cannot exceed %d", ErrInvalidGrid, limits.MaxFrameSize)
	case cfg.OffsetX < 0:
		return fmt.Errorf("%w: x offset cannot be negative", ErrInvalidGrid)
	case cfg.OffsetY < 0:
		return fmt.Errorf("%w: y offset cannot be negative", ErrInvalidGrid)
	case limits.MaxOffset > 0 && cfg.OffsetX > limits.MaxOffset:
		return fmt.Errorf("%w: x offset cannot exceed %d", ErrInvalidGrid, limits.MaxOffset)
	case limits.MaxOffset > 0 && cfg.OffsetY > limits.MaxOffset:
		return fmt.Errorf("%w: y offset cannot exceed %d", ErrInvalidGrid, limits.MaxOffset)
	case cfg.SpacingX < 0:
		return fmt.Errorf("%w: x spacing cannot be negative", ErrInvalidGrid)
	case cfg.SpacingY < 0:
		return fmt.Errorf("%w: y spacing cannot be negative", ErrInvalidGrid)
	case limits.MaxSpacing > 0 && cfg.SpacingX > limits.MaxSpacing:
		return fmt.Errorf("%w: x spacing cannot exceed %d", ErrInvalidGrid, limits.MaxSpacing)
	case limits.MaxSpacing > 0 && cfg.SpacingY > limits.MaxSpacing:
		return fmt.Errorf("%w: y spacing cannot exceed %d", ErrInvalidGrid, limits.MaxSpacing)
	case cfg.OffsetX+cfg.FrameWidth > sheetWidth:
		return fmt.Errorf("%w: frame width + x offset (%d) exceeds sheet width (%d)",
			ErrInvalidGrid, cfg.OffsetX+cfg.FrameWidth, sheetWidth)
	case cfg.OffsetY+cfg.FrameHeight > sheetHeight:
		return fmt.Errorf("%w: frame height + y offset (%d) exceeds sheet height (%d)",
			ErrInvalidGrid, cfg.OffsetY+cfg.FrameHeight, sheetHeight)
	}
	return nil
}

// SliceGrid computes the frame rectangles of a uniform grid.
//
// Parameters:
//   - sheetWidth, sheetHeight: Sprite sheet dimensions in pixels.
//   - cfg: Frame size, margins and spacing.
//   - limits: Upper bounds for cfg values; see DefaultGridLimits.
//
// Returns:
//   - *GridLayout: Frame counts and the area left after the offsets.
//   - []Rect: Frames in row-major order (left to right, then top to bottom).
//     Every frame lies fully inside the sheet.
//   - error: Wraps ErrInvalidGrid when cfg fails validation.
//
// N frames along an axis need N-1 gaps, so the count along X is
// (available + spacing) / (frame + spacing).
func SliceGrid(sheetWidth, sheetHeight int, cfg GridConfig, limits GridLimits) (*GridLayout, []Rect, error) {
	if err := cfg.Validate(sheetWidth, sheetHeight, limits); err != nil {
		return nil, nil, err
	}

	availableWidth := sheetWidth - cfg.OffsetX
	availableHeight := sheetHeight - cfg.OffsetY

	perRow := (availableWidth + cfg.SpacingX) / (cfg.FrameWidth + cfg.SpacingX)
	perCol := (availableHeight + cfg.SpacingY) / (cfg.FrameHeight + cfg.SpacingY)

	frames := make([]Rect, 0, perRow*perCol)
	for row := 0; row < perCol; row++ {
		for col := 0; col < perRow; col++ {
			x := cfg.OffsetX + col*(cfg.FrameWidth+cfg.SpacingX)
			y := cfg.OffsetY + row*(cfg.FrameHeight+cfg.SpacingY)
			if x+cfg.FrameWidth <= sheetWidth && y+cfg.FrameHeight <= sheetHeight {
				frames = append(frames, Rect{X: x, Y: y, Width: cfg.FrameWidth, Height: cfg.FrameHeight})
			}
		}
	}

	return &GridLayout{
		FramesPerRow:    perRow,
		FramesPerCol:    perCol,
		TotalFrames:     perRow * perCol,
		AvailableWidth:  availableWidth,
		AvailableHeight: availableHeight,
	}, frames, nil
}
