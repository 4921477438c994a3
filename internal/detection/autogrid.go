package detection

import (
	"fmt"
	"image"
	"math"

	"gonum.org/v1/gonum/stat"
)

// DefaultAutoGridAlphaThreshold is the alpha cut-off AutoDetectGrid uses to
// tell content from empty margins and gaps. It is far lower than the sprite
// detection default so faint shadows still count as content.
const DefaultAutoGridAlphaThreshold = 10

const (
	minReasonableFrames = 2
	maxReasonableFrames = 200

	// Auto-detected grids test gaps of 0 to maxTestedSpacing pixels at up to
	// spacingSamples positions per axis.
	maxTestedSpacing = 10
	spacingSamples   = 3

	minSquareFrame   = 16
	minContentSprite = 8
	stripAspectRatio = 3.0
	maxStripMargin   = 5
	noiseMargin      = 2
)

var (
	// squareFrameSizes are tried largest first by DetectSquareFrames.
	squareFrameSizes = []int{256, 192, 128, 64, 32, 16}

	baseFrameSizes = []int{8, 12, 16, 20, 24, 32, 40, 48, 64, 80, 96, 128, 160, 192, 256}

	// frameAspects are width:height pairs tried by DetectRectangularFrames.
	frameAspects = [][2]int{{1, 1}, {1, 2}, {2, 1}, {2, 3}, {3, 2}, {3, 4}, {4, 3}}

	commonFrameSides  = []int{16, 24, 32, 48, 64, 96, 128}
	commonFrameRatios = []float64{1.0, 0.5, 2.0, 0.75, 1.33, 0.67, 1.5}
)

// SizeMethod names the strategy that found a frame size.
type SizeMethod string

const (
	SizeFromContent     SizeMethod = "content"
	SizeFromRectangular SizeMethod = "rectangular"
	SizeFromSquare      SizeMethod = "square"
)

// Margins are the transparent borders around the content of a sheet.
//
// Left, Right, Top and Bottom are raw measurements. OffsetX and OffsetY are
// the margins after sanity checks and are what a grid should start from.
type Margins struct {
	Left    int      `json:"left"`
	Right   int      `json:"right"`
	Top     int      `json:"top"`
	Bottom  int      `json:"bottom"`
	OffsetX int      `json:"offset_x"`
	OffsetY int      `json:"offset_y"`
	Notes   []string `json:"notes,omitempty"`
}

// FrameSize is a frame size candidate.
type FrameSize struct {
	Width  int        `json:"width"`
	Height int        `json:"height"`
	Method SizeMethod `json:"method"`

	// Count is the number of sprites that share this size for
	// SizeFromContent, and the number of grid cells otherwise.
	Count int `json:"count"`

	// Score ranks SizeFromRectangular candidates; higher is better.
	Score float64 `json:"score,omitempty"`
}

// Spacing is a detected frame gap and how consistently it held.
type Spacing struct {
	X            int     `json:"x"`
	Y            int     `json:"y"`
	ConsistencyX float64 `json:"consistency_x"`
	ConsistencyY float64 `json:"consistency_y"`
}

// Consistency is the mean consistency of both axes.
func (s Spacing) Consistency() float64 {
	return (s.ConsistencyX + s.ConsistencyY) / 2
}

// AutoGridStep records the outcome of one stage of AutoDetectGrid.
type AutoGridStep struct {
	Name    string  `json:"name"`
	Score   float64 `json:"score"`
	Message string  `json:"message"`
}

// AutoGrid is a grid configuration inferred from a sheet's pixels.
type AutoGrid struct {
	// Success is false when no frame size could be found. Grid is then
	// meaningless.
	Success bool       `json:"success"`
	Grid    GridConfig `json:"grid"`
	Method  SizeMethod `json:"method,omitempty"`

	Margins Margins     `json:"margins"`
	Spacing Spacing     `json:"spacing"`
	Layout  *GridLayout `json:"layout,omitempty"`

	// Score is the mean of the step scores, 0 to 1.
	Score      float64        `json:"score"`
	Confidence Confidence     `json:"confidence"`
	Steps      []AutoGridStep `json:"steps"`
}

// AutoDetectGrid infers frame size, margins and spacing of a regularly laid
// out sheet without any user input.
//
// The stages run in order: margins, frame size, spacing, validation. Frame
// size is taken from the most common sprite bounding box when at least two
// sprites share one, else from the best scoring rectangular grid that divides
// the sheet, else from the largest square tile that does. Every stage
// contributes a score; Confidence grades their mean the same way
// SuggestFrameSettings grades its suggestions.
//
// Parameters:
//   - img: The sprite sheet.
//   - alphaThreshold: Pixels with alpha above this are content. Zero or
//     less selects DefaultAutoGridAlphaThreshold.
//   - limits: Grid limits the result is validated against.
func AutoDetectGrid(img image.Image, alphaThreshold int, limits GridLimits) *AutoGrid {
	if alphaThreshold <= 0 {
		alphaThreshold = DefaultAutoGridAlphaThreshold
	}
	mask := BuildAlphaMask(img, alphaThreshold)
	width, height := mask.Width, mask.Height

	result := &AutoGrid{}
	scores := make([]float64, 0, 4)
	step := func(name string, score float64, format string, args ...interface{}) {
		scores = append(scores, score)
		result.Steps = append(result.Steps, AutoGridStep{Name: name, Score: score, Message: fmt.Sprintf(format, args...)})
	}

	result.Margins = DetectMargins(mask, 0, 0)
	result.Grid.OffsetX = result.Margins.OffsetX
	result.Grid.OffsetY = result.Margins.OffsetY
	step("margins", 0.9, "left %d, right %d, top %d, bottom %d; using offset (%d,%d)",
		result.Margins.Left, result.Margins.Right, result.Margins.Top, result.Margins.Bottom,
		result.Margins.OffsetX, result.Margins.OffsetY)

	size, ok := DetectContentFrames(mask)
	sizeScore := 0.95
	if !ok {
		size, ok = DetectRectangularFrames(width, height)
		sizeScore = 0.8
	}
	if !ok {
		size, ok = DetectSquareFrames(width, height)
		sizeScore = 0.6
	}
	if !ok {
		step("frame_size", 0.1, "no frame size fits a %dx%d sheet", width, height)
		step("spacing", 0.1, "skipped without a frame size")
		step("validation", 0.4, "skipped without a frame size")
		result.finish(scores)
		return result
	}

	result.Success = true
	result.Method = size.Method
	result.Grid.FrameWidth = size.Width
	result.Grid.FrameHeight = size.Height
	step("frame_size", sizeScore, "%dx%d by %s detection (%d matches)", size.Width, size.Height, size.Method, size.Count)

	result.Spacing = DetectSpacing(mask, size.Width, size.Height, result.Grid.OffsetX, result.Grid.OffsetY)
	result.Grid.SpacingX = result.Spacing.X
	result.Grid.SpacingY = result.Spacing.Y
	consistency := result.Spacing.Consistency()
	spacingScore := 0.5
	switch {
	case consistency >= 0.8:
		spacingScore = 0.9
	case consistency >= 0.5:
		spacingScore = 0.7
	}
	step("spacing", spacingScore, "x %d, y %d (consistency %.2f)", result.Spacing.X, result.Spacing.Y, consistency)

	layout, _, err := SliceGrid(width, height, result.Grid, limits)
	switch {
	case err != nil:
		step("validation", 0.4, "%v", err)
	case layout.TotalFrames < minReasonableFrames || layout.TotalFrames > maxReasonableFrames:
		result.Layout = layout
		step("validation", 0.4, "%d frames is outside %d-%d", layout.TotalFrames, minReasonableFrames, maxReasonableFrames)
	default:
		result.Layout = layout
		step("validation", 0.8, "%dx%d grid, %d frames", layout.FramesPerRow, layout.FramesPerCol, layout.TotalFrames)
	}

	result.finish(scores)
	return result
}

func (a *AutoGrid) finish(scores []float64) {
	a.Score = stat.Mean(scores, nil)
	switch {
	case a.Score >= 0.8:
		a.Confidence = ConfidenceHigh
	case a.Score >= 0.6:
		a.Confidence = ConfidenceMedium
	default:
		a.Confidence = ConfidenceLow
	}
}

// DetectMargins measures the transparent border on each side of mask and
// derives the grid offset from the left and top margins.
//
// Offsets are reset to 0 when a margin exceeds a quarter of the sheet, capped
// at 5 pixels on strips more than three times wider than tall, and dropped
// when 2 pixels or less. When frameWidth and frameHeight are positive an
// offset that leaves a remainder is reduced until the remaining sheet divides
// evenly into frames, if such an offset exists.
func DetectMargins(mask *Mask, frameWidth, frameHeight int) Margins {
	width, height := mask.Width, mask.Height
	m := Margins{
		Left:   scanEmpty(width, func(x int) bool { return columnEmpty(mask, x, 0, height) }),
		Right:  scanEmpty(width, func(i int) bool { return columnEmpty(mask, width-1-i, 0, height) }),
		Top:    scanEmpty(height, func(y int) bool { return rowEmpty(mask, y, 0, width) }),
		Bottom: scanEmpty(height, func(i int) bool { return rowEmpty(mask, height-1-i, 0, width) }),
	}
	m.OffsetX, m.OffsetY = m.Left, m.Top

	if m.OffsetX > width/4 {
		m.Notes = append(m.Notes, fmt.Sprintf("left margin %d exceeds a quarter of the width, reset to 0", m.OffsetX))
		m.OffsetX = 0
	}
	if m.OffsetY > height/4 {
		m.Notes = append(m.Notes, fmt.Sprintf("top margin %d exceeds a quarter of the height, reset to 0", m.OffsetY))
		m.OffsetY = 0
	}

	if frameWidth > 0 && frameHeight > 0 {
		if x, ok := evenOffset(width, frameWidth, m.OffsetX); ok && x != m.OffsetX {
			m.Notes = append(m.Notes, fmt.Sprintf("left margin reduced to %d to fit whole frames", x))
			m.OffsetX = x
		}
		if y, ok := evenOffset(height, frameHeight, m.OffsetY); ok && y != m.OffsetY {
			m.Notes = append(m.Notes, fmt.Sprintf("top margin reduced to %d to fit whole frames", y))
			m.OffsetY = y
		}
	}

	if height > 0 && float64(width)/float64(height) > stripAspectRatio {
		if m.OffsetX > maxStripMargin || m.OffsetY > maxStripMargin {
			m.Notes = append(m.Notes, fmt.Sprintf("margins capped at %d for a horizontal strip", maxStripMargin))
		}
		m.OffsetX = minInt(m.OffsetX, maxStripMargin)
		m.OffsetY = minInt(m.OffsetY, maxStripMargin)
	}

	if m.OffsetX <= noiseMargin {
		m.OffsetX = 0
	}
	if m.OffsetY <= noiseMargin {
		m.OffsetY = 0
	}
	return m
}

// evenOffset returns offset when (size - offset) is a multiple of frame,
// otherwise the largest smaller offset that makes it one.
func evenOffset(size, frame, offset int) (int, bool) {
	for o := offset; o >= 0; o-- {
		if (size-o)%frame == 0 {
			return o, true
		}
	}
	return offset, false
}

// scanEmpty counts leading lines for which empty reports true.
func scanEmpty(n int, empty func(int) bool) int {
	i := 0
	for i < n && empty(i) {
		i++
	}
	return i
}

// columnEmpty reports whether column x has no opaque cell in rows [y0, y1).
func columnEmpty(mask *Mask, x, y0, y1 int) bool {
	for y := y0; y < y1; y++ {
		if mask.At(x, y) {
			return false
		}
	}
	return true
}

// rowEmpty reports whether row y has no opaque cell in columns [x0, x1).
func rowEmpty(mask *Mask, y, x0, x1 int) bool {
	for x := x0; x < x1; x++ {
		if mask.At(x, y) {
			return false
		}
	}
	return true
}

// DetectContentFrames labels the sprites in mask and returns the bounding box
// size shared by the most sprites. Specks smaller than 8 pixels are ignored.
// It fails unless at least two sprites share a size; ties go to the size seen
// first in label order.
func DetectContentFrames(mask *Mask) (FrameSize, bool) {
	labels, count := Label(mask)
	rects := FilterBySize(BoundingBoxes(labels, count), minContentSprite)

	type dims struct{ w, h int }
	counts := make(map[dims]int, len(rects))
	var best dims
	bestCount := 0
	for _, r := range rects {
		d := dims{r.Width, r.Height}
		counts[d]++
		if counts[d] > bestCount {
			best, bestCount = d, counts[d]
		}
	}

	if bestCount < 2 {
		return FrameSize{}, false
	}
	return FrameSize{Width: best.w, Height: best.h, Method: SizeFromContent, Count: bestCount}, true
}

// DetectRectangularFrames scores every frame size built from a common base
// size and aspect ratio that divides the sheet into 2 to 200 frames, and
// returns the highest scoring one.
//
// Scoring favours common frame sides, 4 to 16 frames, square grids and
// frames of at least 32x32. Ties go to the smaller base size.
func DetectRectangularFrames(sheetWidth, sheetHeight int) (FrameSize, bool) {
	var best FrameSize
	found := false

	for _, base := range baseFrameSizes {
		for _, aspect := range frameAspects {
			fw, fh := base*aspect[0], base*aspect[1]
			if fw > sheetWidth || fh > sheetHeight || sheetWidth%fw != 0 || sheetHeight%fh != 0 {
				continue
			}
			cols, rows := sheetWidth/fw, sheetHeight/fh
			total := cols * rows
			if total < minReasonableFrames || total > maxReasonableFrames {
				continue
			}

			score := scoreFrameCandidate(fw, fh, cols, rows)
			if !found || score > best.Score {
				best = FrameSize{Width: fw, Height: fh, Method: SizeFromRectangular, Count: total, Score: score}
				found = true
			}
		}
	}
	return best, found
}

func scoreFrameCandidate(fw, fh, cols, rows int) float64 {
	score := 0.0
	if containsInt(commonFrameSides, fw) {
		score += 2
	}
	if containsInt(commonFrameSides, fh) {
		score += 2
	}

	switch total := cols * rows; {
	case total >= 4 && total <= 16:
		score += 3
	case total >= 17 && total <= 32:
		score += 2
	case total >= 33 && total <= 64:
		score += 1
	}

	aspect := float64(fw) / float64(fh)
	for _, r := range commonFrameRatios {
		if math.Abs(aspect-r) < 0.1 {
			score += 1.5
			break
		}
	}

	if cols == rows {
		score += 1
	} else if minInt(cols, rows) >= 2 {
		score += 0.5
	}
	if fw*fh >= 1024 {
		score += 0.5
	}
	return score
}

// DetectSquareFrames returns the largest common square tile that divides the
// sheet into 2 to 200 frames, falling back to the greatest common divisor of
// the sheet sides when that is at least 16.
func DetectSquareFrames(sheetWidth, sheetHeight int) (FrameSize, bool) {
	for _, size := range squareFrameSizes {
		if sheetWidth%size != 0 || sheetHeight%size != 0 {
			continue
		}
		total := (sheetWidth / size) * (sheetHeight / size)
		if total >= minReasonableFrames && total <= maxReasonableFrames {
			return FrameSize{Width: size, Height: size, Method: SizeFromSquare, Count: total}, true
		}
	}

	if g := gcd(sheetWidth, sheetHeight); g >= minSquareFrame {
		return FrameSize{Width: g, Height: g, Method: SizeFromSquare, Count: (sheetWidth / g) * (sheetHeight / g)}, true
	}
	return FrameSize{}, false
}

// DetectSpacing finds the gap between frames of the given size starting at
// (offsetX, offsetY).
//
// For each axis every gap from 0 to 10 pixels is tried at up to three frame
// boundaries. A boundary counts when the gap is fully transparent across the
// frame and the next frame has content on its leading edge. The gap with the
// highest share of counting boundaries wins, the smallest on ties. An axis
// with room for only one frame has nothing to contradict it and reports gap
// 0 with consistency 1.
func DetectSpacing(mask *Mask, frameWidth, frameHeight, offsetX, offsetY int) Spacing {
	if frameWidth <= 0 || frameHeight <= 0 {
		return Spacing{}
	}
	rowEnd := minInt(offsetY+frameHeight, mask.Height)
	colEnd := minInt(offsetX+frameWidth, mask.Width)

	var s Spacing
	s.X, s.ConsistencyX = axisSpacing(mask.Width, frameWidth, offsetX,
		func(x int) bool { return columnEmpty(mask, x, offsetY, rowEnd) })
	s.Y, s.ConsistencyY = axisSpacing(mask.Height, frameHeight, offsetY,
		func(y int) bool { return rowEmpty(mask, y, offsetX, colEnd) })
	return s
}

// axisSpacing tests gaps along one axis. empty reports whether the line at a
// position is transparent across the first frame's extent on the other axis.
func axisSpacing(size, frame, offset int, empty func(int) bool) (int, float64) {
	available := size - offset
	bestSpacing, bestScore := 0, 0.0
	anyChecked := false

	for spacing := 0; spacing <= maxTestedSpacing; spacing++ {
		perAxis := (available + spacing) / (frame + spacing)
		positions := minInt(spacingSamples, perAxis-1)

		checked, hits := 0, 0
		for p := 0; p < positions; p++ {
			gapStart := offset + (p+1)*frame + p*spacing
			next := gapStart + spacing
			if next+frame > size {
				break
			}
			checked++

			gapClear := true
			for i := gapStart; i < next && gapClear; i++ {
				gapClear = empty(i)
			}
			if gapClear && !empty(next) {
				hits++
			}
		}
		if checked == 0 {
			continue
		}

		anyChecked = true
		if score := float64(hits) / float64(checked); score > bestScore {
			bestSpacing, bestScore = spacing, score
		}
	}

	if !anyChecked {
		return 0, 1
	}
	return bestSpacing, bestScore
}

func containsInt(values []int, v int) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}
