package detection

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// UniformTolerance is the standard deviation, in pixels, below which a set of
// widths or heights is considered uniform.
const UniformTolerance = 2.0

// RowTolerance is the vertical distance, in pixels, within which two
// rectangles are treated as sitting on the same row.
const RowTolerance = 5

// LayoutKind names a sprite sheet arrangement.
type LayoutKind string

// Layout kinds reported by AnalyzeLayout.
const (
	KindRegularGrid     LayoutKind = "regular_grid"
	KindHorizontalStrip LayoutKind = "horizontal_strip"
	KindVerticalStrip   LayoutKind = "vertical_strip"
	KindIrregular       LayoutKind = "irregular"
)

// Layout is the classified arrangement of a set of sprites.
//
// The concrete type is one of RegularGrid, HorizontalStrip, VerticalStrip or
// Irregular. Grid dimensions only exist on the grid-like variants, so a caller
// holding a VerticalStrip cannot read a column count by mistake. Use Grid to
// extract dimensions without a type switch.
type Layout interface {
	Kind() LayoutKind
	layout()
}

// RegularGrid is a sheet whose sprites share both width and height.
type RegularGrid struct {
	Cols int
	Rows int
}

// HorizontalStrip is a sheet whose sprites share a height but not a width.
type HorizontalStrip struct {
	Cols int
	Rows int
}

// VerticalStrip is a sheet whose sprites share a width but not a height.
type VerticalStrip struct{}

// Irregular is a sheet with no shared sprite dimension.
type Irregular struct{}

func (RegularGrid) Kind() LayoutKind     { return KindRegularGrid }
func (HorizontalStrip) Kind() LayoutKind { return KindHorizontalStrip }
func (VerticalStrip) Kind() LayoutKind   { return KindVerticalStrip }
func (Irregular) Kind() LayoutKind       { return KindIrregular }

func (RegularGrid) layout()     {}
func (HorizontalStrip) layout() {}
func (VerticalStrip) layout()   {}
func (Irregular) layout()       {}

// Grid returns the inferred column and row counts for grid-like layouts.
// ok is false for VerticalStrip, Irregular and nil.
func Grid(l Layout) (cols, rows int, ok bool) {
	switch g := l.(type) {
	case RegularGrid:
		return g.Cols, g.Rows, true
	case HorizontalStrip:
		return g.Cols, g.Rows, true
	}
	return 0, 0, false
}

// SizeStats summarises one dimension (width or height) of a set of sprites.
type SizeStats struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"` // population standard deviation
	Min    int     `json:"min"`
	Max    int     `json:"max"`
	Median int     `json:"median"` // lower median for even counts
}

// Size is a width/height pair.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// LayoutAnalysis holds aggregate statistics over a list of sprite rectangles.
type LayoutAnalysis struct {
	Count         int       `json:"sprite_count"`
	Width         SizeStats `json:"width"`
	Height        SizeStats `json:"height"`
	UniformWidth  bool      `json:"uniform_width"`
	UniformHeight bool      `json:"uniform_height"`

	// Mode is the most frequent exact sprite size. Ties go to the size that
	// reached the winning count first.
	Mode Size `json:"mode_size"`

	Layout Layout `json:"-"`
}

// AnalyzeLayout computes size statistics and classifies the arrangement of
// rects.
//
// Classification:
//   - "regular_grid" when both widths and heights are uniform
//   - "horizontal_strip" when only heights are uniform
//   - "vertical_strip" when only widths are uniform
//   - "irregular" otherwise
//
// Widths or heights are uniform when their population standard deviation is
// below UniformTolerance.
//
// For grid-like layouts, the column count is the number of rectangles whose Y
// lies within RowTolerance of the top-most rectangle (after sorting by Y then
// X), with a floor of one. The row count is ceil(count / cols).
//
// An empty input yields a zero analysis with an Irregular layout; it is not an
// error.
func AnalyzeLayout(rects []Rect) *LayoutAnalysis {
	if len(rects) == 0 {
		return &LayoutAnalysis{Layout: Irregular{}}
	}

	widths := make([]float64, len(rects))
	heights := make([]float64, len(rects))
	for i, r := range rects {
		widths[i] = float64(r.Width)
		heights[i] = float64(r.Height)
	}

	a := &LayoutAnalysis{
		Count:  len(rects),
		Width:  sizeStats(widths),
		Height: sizeStats(heights),
		Mode:   modeSize(rects),
	}
	a.UniformWidth = a.Width.StdDev < UniformTolerance
	a.UniformHeight = a.Height.StdDev < UniformTolerance

	switch {
	case a.UniformWidth && a.UniformHeight:
		cols, rows := inferGrid(rects)
		a.Layout = RegularGrid{Cols: cols, Rows: rows}
	case a.UniformHeight:
		cols, rows := inferGrid(rects)
		a.Layout = HorizontalStrip{Cols: cols, Rows: rows}
	case a.UniformWidth:
		a.Layout = VerticalStrip{}
	default:
		a.Layout = Irregular{}
	}

	return a
}

// Kind returns the layout kind, or KindIrregular when no layout is set.
func (a *LayoutAnalysis) Kind() LayoutKind {
	if a == nil || a.Layout == nil {
		return KindIrregular
	}
	return a.Layout.Kind()
}

func sizeStats(values []float64) SizeStats {
	mean, variance := stat.PopMeanVariance(values, nil)

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	return SizeStats{
		Mean:   mean,
		StdDev: math.Sqrt(variance),
		Min:    int(floats.Min(values)),
		Max:    int(floats.Max(values)),
		Median: int(stat.Quantile(0.5, stat.Empirical, sorted, nil)),
	}
}

func modeSize(rects []Rect) Size {
	counts := make(map[Size]int, len(rects))
	var best Size
	bestCount := 0
	for _, r := range rects {
		s := Size{Width: r.Width, Height: r.Height}
		counts[s]++
		if counts[s] > bestCount {
			best = s
			bestCount = counts[s]
		}
	}
	return best
}

// inferGrid counts first-row members and derives the row count.
func inferGrid(rects []Rect) (cols, rows int) {
	sorted := sortByRowThenColumn(rects)
	firstY := sorted[0].Y
	for _, r := range sorted {
		if absInt(r.Y-firstY) < RowTolerance {
			cols++
		}
	}
	if cols < 1 {
		cols = 1
	}
	rows = (len(rects) + cols - 1) / cols
	return cols, rows
}

// sortRects sorts in place by Y, then X.
func sortRects(rects []Rect) {
	sort.SliceStable(rects, func(i, j int) bool {
		if rects[i].Y != rects[j].Y {
			return rects[i].Y < rects[j].Y
		}
		return rects[i].X < rects[j].X
	})
}

// layoutAnalysisJSON is the wire form of LayoutAnalysis. The layout sum type
// is flattened into layout_type plus optional grid dimensions.
type layoutAnalysisJSON struct {
	Count         int        `json:"sprite_count"`
	Width         SizeStats  `json:"width"`
	Height        SizeStats  `json:"height"`
	UniformWidth  bool       `json:"uniform_width"`
	UniformHeight bool       `json:"uniform_height"`
	Mode          Size       `json:"mode_size"`
	LayoutType    LayoutKind `json:"layout_type"`
	GridCols      *int       `json:"grid_cols,omitempty"`
	GridRows      *int       `json:"grid_rows,omitempty"`
}

// MarshalJSON flattens the layout variant into layout_type, grid_cols and
// grid_rows.
func (a LayoutAnalysis) MarshalJSON() ([]byte, error) {
	w := layoutAnalysisJSON{
		Count:         a.Count,
		Width:         a.Width,
		Height:        a.Height,
		UniformWidth:  a.UniformWidth,
		UniformHeight: a.UniformHeight,
		Mode:          a.Mode,
		LayoutType:    a.Kind(),
	}
	if cols, rows, ok := Grid(a.Layout); ok {
		w.GridCols = &cols
		w.GridRows = &rows
	}
	return json.Marshal(w)
}

// UnmarshalJSON restores the layout variant from its flattened form.
func (a *LayoutAnalysis) UnmarshalJSON(data []byte) error {
	var w layoutAnalysisJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	*a = LayoutAnalysis{
		Count:         w.Count,
		Width:         w.Width,
		Height:        w.Height,
		UniformWidth:  w.UniformWidth,
		UniformHeight: w.UniformHeight,
		Mode:          w.Mode,
	}

	var cols, rows int
	if w.GridCols != nil {
		cols = *w.GridCols
	}
	if w.GridRows != nil {
		rows = *w.GridRows
	}

	switch w.LayoutType {
	case KindRegularGrid:
		a.Layout = RegularGrid{Cols: cols, Rows: rows}
	case KindHorizontalStrip:
		a.Layout = HorizontalStrip{Cols: cols, Rows: rows}
	case KindVerticalStrip:
		a.Layout = VerticalStrip{}
	case KindIrregular, "":
		a.Layout = Irregular{}
	default:
		return fmt.Errorf("unknown layout type: %s", w.LayoutType)
	}
	return nil
}
