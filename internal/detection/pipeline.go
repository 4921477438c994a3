package detection

import (
	"errors"
	"fmt"
	"image"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ErrInvalidOptions is wrapped by every Options validation failure.
var ErrInvalidOptions = errors.New("invalid detection options")

// Irregular collection heuristics, applied before merging.
const (
	irregularMinCount      = 50
	irregularForceCount    = 200
	irregularDiversity     = 10.0
	irregularSmallSize     = 24
	irregularSmallCount    = 20
	irregularRangeMultiple = 3
)

// Options controls a detection run.
type Options struct {
	// MinSpriteSize is the minimum width and height a component must have to
	// be kept.
	MinSpriteSize int `json:"min_sprite_size"`

	// AlphaThreshold is the alpha cut-off; pixels with alpha above it are opaque.
	AlphaThreshold int `json:"alpha_threshold"`

	// MergeThreshold is the proximity merge distance in pixels. 0 disables
	// center-distance merging and only merges touching or overlapping boxes.
	MergeThreshold int `json:"merge_threshold"`

	// ColorKey enables solid background detection for sheets without
	// meaningful transparency.
	ColorKey bool `json:"color_key"`

	// KeepIrregularCollections skips merging when the sheet looks like a
	// sprite atlas of unrelated, differently sized sprites.
	KeepIrregularCollections bool `json:"keep_irregular_collections"`
}

// DefaultOptions returns the standard detection settings.
func DefaultOptions() Options {
	return Options{
		MinSpriteSize:  8,
		AlphaThreshold: 128,
		MergeThreshold: 50,
	}
}

// Validate rejects negative values and alpha thresholds above 255.
func (o Options) Validate() error {
	switch {
	case o.MinSpriteSize < 0:
		return fmt.Errorf("%w: min_sprite_size cannot be negative", ErrInvalidOptions)
	case o.AlphaThreshold < 0 || o.AlphaThreshold > 255:
		return fmt.Errorf("%w: alpha_threshold must be between 0 and 255", ErrInvalidOptions)
	case o.MergeThreshold < 0:
		return fmt.Errorf("%w: merge_threshold cannot be negative", ErrInvalidOptions)
	}
	return nil
}

// Detection is the result of running the detection pipeline on one image.
type Detection struct {
	Width  int `json:"width"`
	Height int `json:"height"`

	// ComponentCount is the number of labeled components before size
	// filtering and merging.
	ComponentCount int `json:"component_count"`

	// Rects are the detected sprites in merge-group order.
	Rects []Rect `json:"sprites"`

	// Background is set when color keying was enabled and found a solid
	// background.
	Background *Background `json:"background,omitempty"`

	IrregularCollection bool `json:"irregular_collection"`
}

// Loader decodes an image from a path.
type Loader interface {
	Load(path string) (image.Image, error)
}

// Detect runs the full pipeline: mask, label, bounding boxes, size filter and
// proximity merge.
//
// Detect never fails. An image with no opaque pixels yields a Detection with
// an empty, non-nil Rects slice. opts is assumed to be valid; surfaces should
// call Options.Validate first.
func Detect(img image.Image, opts Options) *Detection {
	bounds := img.Bounds()
	det := &Detection{
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
		Rects:  []Rect{},
	}

	mask := BuildAlphaMask(img, opts.AlphaThreshold)
	if opts.ColorKey {
		if bg, keyed := detectColorKey(img, mask); bg != nil {
			det.Background = bg
			mask = keyed
		}
	}

	labels, count := Label(mask)
	det.ComponentCount = count

	rects := FilterBySize(BoundingBoxes(labels, count), opts.MinSpriteSize)
	det.IrregularCollection = isIrregularCollection(rects)

	if det.IrregularCollection && opts.KeepIrregularCollections {
		det.Rects = rects
		return det
	}
	det.Rects = MergeNearby(rects, opts.MergeThreshold)
	return det
}

// DetectFile loads path through loader and runs Detect.
//
// On load failure it returns an empty, non-nil Detection together with the
// error so callers can report the failure as data.
func DetectFile(loader Loader, path string, opts Options) (*Detection, error) {
	img, err := loader.Load(path)
	if err != nil {
		return &Detection{Rects: []Rect{}}, fmt.Errorf("failed to load sprite sheet: %w", err)
	}
	return Detect(img, opts), nil
}

// isIrregularCollection reports whether rects look like an atlas of unrelated
// sprites rather than animation frames. Only sheets with more than 50 sprites
// qualify.
func isIrregularCollection(rects []Rect) bool {
	if len(rects) <= irregularMinCount {
		return false
	}

	widths := make([]float64, len(rects))
	heights := make([]float64, len(rects))
	small := 0
	for i, r := range rects {
		widths[i] = float64(r.Width)
		heights[i] = float64(r.Height)
		if r.Width < irregularSmallSize || r.Height < irregularSmallSize {
			small++
		}
	}

	diversity := (popStdDev(widths) + popStdDev(heights)) / 2

	minW, maxW := floats.Min(widths), floats.Max(widths)
	minH, maxH := floats.Min(heights), floats.Max(heights)

	return diversity > irregularDiversity ||
		maxW-minW > minW*irregularRangeMultiple ||
		maxH-minH > minH*irregularRangeMultiple ||
		small > irregularSmallCount ||
		len(rects) > irregularForceCount
}

func popStdDev(values []float64) float64 {
	_, variance := stat.PopMeanVariance(values, nil)
	if variance <= 0 {
		return 0
	}
	return math.Sqrt(variance)
}

// Report bundles a detection with its layout analysis and frame suggestion.
// It is the unit returned by every surface and stored in the result cache.
type Report struct {
	Success    bool            `json:"success"`
	Error      string          `json:"error,omitempty"`
	Detection  *Detection      `json:"detection"`
	Analysis   *LayoutAnalysis `json:"analysis"`
	Suggestion *FrameSettings  `json:"suggestion"`
}

// NewReport analyses det and builds a report. A non-nil err marks the report
// as failed and records the message; det still supplies the (empty) sprites.
func NewReport(det *Detection, err error) *Report {
	if det == nil {
		det = &Detection{Rects: []Rect{}}
	}
	r := &Report{
		Success:   err == nil,
		Detection: det,
		Analysis:  AnalyzeLayout(det.Rects),
	}
	if err != nil {
		r.Error = err.Error()
	}
	r.Suggestion = SuggestFrameSettings(r.Analysis, det.Rects, det.Width, det.Height)
	return r
}
