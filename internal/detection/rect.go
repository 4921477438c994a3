package detection

import "image"

// Rect is an axis-aligned sprite rectangle in source-image pixel coordinates.
//
// The origin is the top-left pixel of the image, even when the decoded image's
// Bounds().Min is not (0,0). X and Y are inclusive; X+Width and Y+Height are
// exclusive.
type Rect struct {
	X      int `json:"x"`      // Left edge (inclusive)
	Y      int `json:"y"`      // Top edge (inclusive)
	Width  int `json:"width"`  // Horizontal extent in pixels
	Height int `json:"height"` // Vertical extent in pixels
}

// Right returns the exclusive right edge.
func (r Rect) Right() int { return r.X + r.Width }

// Bottom returns the exclusive bottom edge.
func (r Rect) Bottom() int { return r.Y + r.Height }

// Center returns the integer center point, rounding toward the top-left.
func (r Rect) Center() (int, int) {
	return r.X + r.Width/2, r.Y + r.Height/2
}

// Union returns the smallest rectangle covering both r and o.
func (r Rect) Union(o Rect) Rect {
	x1 := minInt(r.X, o.X)
	y1 := minInt(r.Y, o.Y)
	x2 := maxInt(r.Right(), o.Right())
	y2 := maxInt(r.Bottom(), o.Bottom())
	return Rect{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}
}

// Image converts r to an image.Rectangle relative to the given origin.
// Pass img.Bounds().Min to address pixels of a decoded image.
func (r Rect) Image(origin image.Point) image.Rectangle {
	return image.Rect(r.X, r.Y, r.Right(), r.Bottom()).Add(origin)
}

// sortByRowThenColumn orders rects by (Y, X) without touching the input.
func sortByRowThenColumn(rects []Rect) []Rect {
	sorted := make([]Rect, len(rects))
	copy(sorted, rects)
	sortRects(sorted)
	return sorted
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func absInt(a int) int {
	if a < 0 {
		return -a
	}
	return a
}
