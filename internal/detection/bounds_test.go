package detection

import (
	"reflect"
	"testing"
)

func TestBoundingBoxes(t *testing.T) {
	mask := maskFromRows(
		".##.....",
		".##...#.",
		"......##",
		"#.......",
	)

	labels, count := Label(mask)
	rects := BoundingBoxes(labels, count)

	expected := []Rect{
		{X: 1, Y: 0, Width: 2, Height: 2},
		{X: 6, Y: 1, Width: 2, Height: 2},
		{X: 0, Y: 3, Width: 1, Height: 1},
	}
	if !reflect.DeepEqual(rects, expected) {
		t.Errorf("Expected %v, got %v", expected, rects)
	}
}

func TestBoundingBoxes_Empty(t *testing.T) {
	labels, count := Label(maskFromRows("...", "..."))
	rects := BoundingBoxes(labels, count)
	if rects == nil || len(rects) != 0 {
		t.Errorf("Expected empty non-nil slice, got %v", rects)
	}
}

func TestBoundingBoxes_SkipsUnusedLabels(t *testing.T) {
	labels := &LabelMap{Width: 3, Height: 1, Labels: []int32{0, 2, 0}}
	rects := BoundingBoxes(labels, 2)
	if len(rects) != 1 {
		t.Fatalf("Expected 1 rect, got %d", len(rects))
	}
	if rects[0] != (Rect{X: 1, Y: 0, Width: 1, Height: 1}) {
		t.Errorf("Unexpected rect %v", rects[0])
	}
}

func TestFilterBySize(t *testing.T) {
	rects := []Rect{
		{X: 0, Y: 0, Width: 8, Height: 8},
		{X: 10, Y: 0, Width: 7, Height: 20},
		{X: 20, Y: 0, Width: 20, Height: 7},
		{X: 40, Y: 0, Width: 1, Height: 1},
		{X: 50, Y: 0, Width: 32, Height: 16},
	}

	kept := FilterBySize(rects, 8)

	expected := []Rect{rects[0], rects[4]}
	if !reflect.DeepEqual(kept, expected) {
		t.Errorf("Expected %v, got %v", expected, kept)
	}
	for _, r := range kept {
		if r.Width < 8 || r.Height < 8 {
			t.Errorf("Rect %v is below the minimum size", r)
		}
	}
}

func TestFilterBySize_Zero(t *testing.T) {
	rects := []Rect{{Width: 1, Height: 1}}
	if got := FilterBySize(rects, 0); len(got) != 1 {
		t.Errorf("Expected min size 0 to keep everything, got %d", len(got))
	}
}

func TestRect_Geometry(t *testing.T) {
	r := Rect{X: 10, Y: 20, Width: 5, Height: 8}

	if r.Right() != 15 || r.Bottom() != 28 {
		t.Errorf("Expected right/bottom 15/28, got %d/%d", r.Right(), r.Bottom())
	}
	if cx, cy := r.Center(); cx != 12 || cy != 24 {
		t.Errorf("Expected center (12,24), got (%d,%d)", cx, cy)
	}

	u := r.Union(Rect{X: 0, Y: 30, Width: 2, Height: 2})
	if u != (Rect{X: 0, Y: 20, Width: 15, Height: 12}) {
		t.Errorf("Unexpected union %v", u)
	}
}
