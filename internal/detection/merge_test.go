package detection

import (
	"reflect"
	"testing"
)

func TestMergeNearby(t *testing.T) {
	tests := []struct {
		name      string
		rects     []Rect
		threshold int
		expected  []Rect
	}{
		{
			name:      "empty",
			rects:     []Rect{},
			threshold: 50,
			expected:  []Rect{},
		},
		{
			name:      "single",
			rects:     []Rect{{X: 4, Y: 4, Width: 10, Height: 10}},
			threshold: 50,
			expected:  []Rect{{X: 4, Y: 4, Width: 10, Height: 10}},
		},
		{
			name: "centers within threshold",
			rects: []Rect{
				{X: 0, Y: 0, Width: 10, Height: 10},
				{X: 30, Y: 0, Width: 10, Height: 10},
			},
			threshold: 50,
			expected:  []Rect{{X: 0, Y: 0, Width: 40, Height: 10}},
		},
		{
			name: "zero threshold keeps separated sprites",
			rects: []Rect{
				{X: 0, Y: 0, Width: 16, Height: 16},
				{X: 20, Y: 0, Width: 16, Height: 16},
			},
			threshold: 0,
			expected: []Rect{
				{X: 0, Y: 0, Width: 16, Height: 16},
				{X: 20, Y: 0, Width: 16, Height: 16},
			},
		},
		{
			name: "band overlap without close centers",
			rects: []Rect{
				{X: 0, Y: 0, Width: 100, Height: 10},
				{X: 0, Y: 15, Width: 100, Height: 10},
			},
			threshold: 5,
			expected:  []Rect{{X: 0, Y: 0, Width: 100, Height: 25}},
		},
		{
			name: "transitive chain",
			rects: []Rect{
				{X: 0, Y: 0, Width: 10, Height: 10},
				{X: 25, Y: 0, Width: 10, Height: 10},
				{X: 50, Y: 0, Width: 10, Height: 10},
			},
			threshold: 20,
			expected:  []Rect{{X: 0, Y: 0, Width: 60, Height: 10}},
		},
		{
			name: "groups ordered by first member",
			rects: []Rect{
				{X: 0, Y: 0, Width: 10, Height: 10},
				{X: 200, Y: 200, Width: 10, Height: 10},
				{X: 5, Y: 5, Width: 10, Height: 10},
			},
			threshold: 10,
			expected: []Rect{
				{X: 0, Y: 0, Width: 15, Height: 15},
				{X: 200, Y: 200, Width: 10, Height: 10},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MergeNearby(tt.rects, tt.threshold)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestMergeNearby_ChainOrderIndependent(t *testing.T) {
	// A and C only link through B; the result must not depend on input order.
	a := Rect{X: 0, Y: 0, Width: 10, Height: 10}
	b := Rect{X: 25, Y: 0, Width: 10, Height: 10}
	c := Rect{X: 50, Y: 0, Width: 10, Height: 10}

	for _, order := range [][]Rect{{a, b, c}, {a, c, b}, {c, a, b}, {b, c, a}} {
		got := MergeNearby(order, 20)
		if len(got) != 1 || got[0] != (Rect{X: 0, Y: 0, Width: 60, Height: 10}) {
			t.Errorf("Order %v: expected a single merged rect, got %v", order, got)
		}
	}
}

func TestMergeNearby_Monotonic(t *testing.T) {
	var rects []Rect
	for i := 0; i < 6; i++ {
		for j := 0; j < 4; j++ {
			rects = append(rects, Rect{X: i * (10 + i*3), Y: j * 25, Width: 10 + i, Height: 12})
		}
	}

	prev := len(rects) + 1
	for threshold := 0; threshold <= 120; threshold += 5 {
		got := MergeNearby(rects, threshold)
		if len(got) > len(rects) {
			t.Fatalf("Threshold %d: merge produced more rects (%d) than input (%d)", threshold, len(got), len(rects))
		}
		if len(got) > prev {
			t.Errorf("Threshold %d: count grew from %d to %d", threshold, prev, len(got))
		}
		prev = len(got)

		for _, in := range rects {
			covered := false
			for _, out := range got {
				if in.X >= out.X && in.Y >= out.Y && in.Right() <= out.Right() && in.Bottom() <= out.Bottom() {
					covered = true
					break
				}
			}
			if !covered {
				t.Errorf("Threshold %d: input %v not covered by any output rect", threshold, in)
			}
		}
	}
}

func TestMergeNearby_DoesNotModifyInput(t *testing.T) {
	rects := []Rect{
		{X: 0, Y: 0, Width: 10, Height: 10},
		{X: 12, Y: 0, Width: 10, Height: 10},
	}
	original := append([]Rect(nil), rects...)

	MergeNearby(rects, 50)

	if !reflect.DeepEqual(rects, original) {
		t.Errorf("Input modified: %v", rects)
	}
}
