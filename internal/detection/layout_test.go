package detection

import (
	"encoding/json"
	"math"
	"strings"
	"testing"
)

// gridRects lays out cols x rows frames of size w x h separated by gap pixels
func gridRects(cols, rows, w, h, gap, offsetX, offsetY int) []Rect {
	rects := make([]Rect, 0, cols*rows)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			rects = append(rects, Rect{
				X:      offsetX + c*(w+gap),
				Y:      offsetY + r*(h+gap),
				Width:  w,
				Height: h,
			})
		}
	}
	return rects
}

func TestAnalyzeLayout_Empty(t *testing.T) {
	a := AnalyzeLayout(nil)
	if a.Count != 0 {
		t.Errorf("Expected count 0, got %d", a.Count)
	}
	if a.Kind() != KindIrregular {
		t.Errorf("Expected irregular layout, got %s", a.Kind())
	}
	if _, _, ok := Grid(a.Layout); ok {
		t.Error("Expected no grid dimensions for empty input")
	}
}

func TestAnalyzeLayout_Classification(t *testing.T) {
	tests := []struct {
		name     string
		rects    []Rect
		expected Layout
	}{
		{
			name:     "regular grid",
			rects:    gridRects(4, 2, 16, 16, 4, 0, 0),
			expected: RegularGrid{Cols: 4, Rows: 2},
		},
		{
			name:     "single sprite",
			rects:    []Rect{{X: 16, Y: 16, Width: 32, Height: 32}},
			expected: RegularGrid{Cols: 1, Rows: 1},
		},
		{
			name: "horizontal strip",
			rects: []Rect{
				{X: 0, Y: 0, Width: 10, Height: 16},
				{X: 20, Y: 0, Width: 20, Height: 16},
				{X: 50, Y: 0, Width: 30, Height: 16},
			},
			expected: HorizontalStrip{Cols: 3, Rows: 1},
		},
		{
			name: "vertical strip",
			rects: []Rect{
				{X: 0, Y: 0, Width: 16, Height: 10},
				{X: 0, Y: 20, Width: 16, Height: 20},
				{X: 0, Y: 50, Width: 16, Height: 30},
			},
			expected: VerticalStrip{},
		},
		{
			name: "irregular",
			rects: []Rect{
				{X: 0, Y: 0, Width: 10, Height: 40},
				{X: 20, Y: 0, Width: 40, Height: 10},
				{X: 70, Y: 0, Width: 25, Height: 25},
			},
			expected: Irregular{},
		},
		{
			name: "near-uniform sizes still form a grid",
			rects: []Rect{
				{X: 0, Y: 0, Width: 16, Height: 16},
				{X: 20, Y: 0, Width: 17, Height: 15},
				{X: 40, Y: 0, Width: 16, Height: 16},
				{X: 60, Y: 0, Width: 15, Height: 17},
			},
			expected: RegularGrid{Cols: 4, Rows: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := AnalyzeLayout(tt.rects)
			if a.Layout != tt.expected {
				t.Errorf("Expected layout %#v, got %#v", tt.expected, a.Layout)
			}
			if a.Count != len(tt.rects) {
				t.Errorf("Expected count %d, got %d", len(tt.rects), a.Count)
			}
		})
	}
}

func TestAnalyzeLayout_RowTolerance(t *testing.T) {
	rects := []Rect{
		{X: 40, Y: 5, Width: 16, Height: 16},
		{X: 20, Y: 4, Width: 16, Height: 16},
		{X: 0, Y: 0, Width: 16, Height: 16},
	}

	a := AnalyzeLayout(rects)

	// y=4 is within 5px of the top row, y=5 is not
	cols, rows, ok := Grid(a.Layout)
	if !ok {
		t.Fatalf("Expected grid layout, got %s", a.Kind())
	}
	if cols != 2 || rows != 2 {
		t.Errorf("Expected 2x2 grid, got %dx%d", cols, rows)
	}
}

func TestAnalyzeLayout_RowsRoundUp(t *testing.T) {
	// 7 sprites, 3 per row: the last row is partial
	rects := gridRects(3, 3, 16, 16, 2, 0, 0)[:7]

	cols, rows, _ := Grid(AnalyzeLayout(rects).Layout)
	if cols != 3 || rows != 3 {
		t.Errorf("Expected 3x3 grid, got %dx%d", cols, rows)
	}
}

func TestAnalyzeLayout_Statistics(t *testing.T) {
	rects := []Rect{
		{X: 0, Y: 0, Width: 10, Height: 8},
		{X: 20, Y: 0, Width: 20, Height: 8},
		{X: 50, Y: 0, Width: 30, Height: 8},
		{X: 90, Y: 0, Width: 40, Height: 8},
	}

	a := AnalyzeLayout(rects)

	if a.Width.Mean != 25 {
		t.Errorf("Expected mean width 25, got %f", a.Width.Mean)
	}
	// population stddev of 10,20,30,40
	if want := math.Sqrt(125); math.Abs(a.Width.StdDev-want) > 1e-9 {
		t.Errorf("Expected width stddev %f, got %f", want, a.Width.StdDev)
	}
	if a.Width.Min != 10 || a.Width.Max != 40 {
		t.Errorf("Expected width range 10-40, got %d-%d", a.Width.Min, a.Width.Max)
	}
	if a.Width.Median != 20 {
		t.Errorf("Expected lower median 20, got %d", a.Width.Median)
	}
	if a.UniformWidth || !a.UniformHeight {
		t.Errorf("Expected uniform height only, got width=%v height=%v", a.UniformWidth, a.UniformHeight)
	}
	if a.Height.StdDev != 0 {
		t.Errorf("Expected zero height stddev, got %f", a.Height.StdDev)
	}
}

func TestAnalyzeLayout_ModeSize(t *testing.T) {
	rects := []Rect{
		{Width: 16, Height: 16},
		{Width: 8, Height: 8},
		{Width: 8, Height: 8},
	}

	a := AnalyzeLayout(rects)
	if a.Mode != (Size{Width: 8, Height: 8}) {
		t.Errorf("Expected mode 8x8, got %v", a.Mode)
	}
}

func TestAnalyzeLayout_DoesNotReorderInput(t *testing.T) {
	rects := []Rect{
		{X: 40, Y: 20, Width: 16, Height: 16},
		{X: 0, Y: 0, Width: 16, Height: 16},
	}
	AnalyzeLayout(rects)
	if rects[0].X != 40 {
		t.Error("AnalyzeLayout reordered its input")
	}
}

func TestLayoutAnalysis_JSON(t *testing.T) {
	grid := AnalyzeLayout(gridRects(4, 2, 16, 16, 4, 0, 0))

	data, err := json.Marshal(grid)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	for _, want := range []string{`"layout_type":"regular_grid"`, `"grid_cols":4`, `"grid_rows":2`} {
		if !strings.Contains(string(data), want) {
			t.Errorf("Expected %s in %s", want, data)
		}
	}

	var decoded LayoutAnalysis
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if decoded.Layout != grid.Layout {
		t.Errorf("Expected layout %#v after round trip, got %#v", grid.Layout, decoded.Layout)
	}
	if decoded.Width != grid.Width || decoded.Count != grid.Count {
		t.Error("Statistics lost in round trip")
	}
}

func TestLayoutAnalysis_JSONOmitsGridForStrips(t *testing.T) {
	a := AnalyzeLayout([]Rect{
		{X: 0, Y: 0, Width: 16, Height: 10},
		{X: 0, Y: 20, Width: 16, Height: 30},
	})

	data, err := json.Marshal(a)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if strings.Contains(string(data), "grid_cols") {
		t.Errorf("Expected no grid_cols for a vertical strip: %s", data)
	}
}

func TestLayoutAnalysis_UnmarshalUnknownType(t *testing.T) {
	var a LayoutAnalysis
	if err := json.Unmarshal([]byte(`{"layout_type":"hexagonal"}`), &a); err == nil {
		t.Error("Expected error for unknown layout type")
	}
}
