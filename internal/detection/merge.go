package detection

import "math"

// MergeNearby combines rectangles that likely belong to one logical sprite,
// such as a character body and a separately drawn weapon.
//
// Two rectangles are linked when either:
//   - the Euclidean distance between their centers is less than threshold, or
//   - their horizontal extents come within threshold pixels of each other AND
//     their vertical extents come within threshold pixels of each other.
//
// Links are transitive: if A links to B and B links to C, all three end up in
// one group even when A and C alone would not link. Each group is replaced by
// the bounding box of its members.
//
// Parameters:
//   - rects: Candidate rectangles, typically the output of FilterBySize.
//   - threshold: Merge distance in pixels. The same value drives both tests.
//
// Returns one rectangle per group, ordered by the position of the group's
// first member in rects. The result never has more entries than rects.
//
// # Algorithm
//
// Every pair is tested once and linked pairs are joined in a disjoint-set
// forest with path compression, so the grouping does not depend on the order
// pairs are visited. The pair scan is O(n²) in the number of rectangles, which
// stays cheap for the few hundred components a large sheet produces.
func MergeNearby(rects []Rect, threshold int) []Rect {
	if len(rects) <= 1 {
		out := make([]Rect, len(rects))
		copy(out, rects)
		return out
	}

	sets := newDisjointSet(len(rects))
	for i := 0; i < len(rects); i++ {
		for j := i + 1; j < len(rects); j++ {
			if shouldMerge(rects[i], rects[j], threshold) {
				sets.union(i, j)
			}
		}
	}

	// Groups are emitted in order of their lowest member index.
	slot := make(map[int]int, len(rects))
	merged := make([]Rect, 0, len(rects))
	for i, r := range rects {
		root := sets.find(i)
		if k, ok := slot[root]; ok {
			merged[k] = merged[k].Union(r)
			continue
		}
		slot[root] = len(merged)
		merged = append(merged, r)
	}

	return merged
}

// shouldMerge applies the center-distance and band-proximity tests.
func shouldMerge(a, b Rect, threshold int) bool {
	ax, ay := a.Center()
	bx, by := b.Center()
	dx := float64(bx - ax)
	dy := float64(by - ay)
	if math.Sqrt(dx*dx+dy*dy) < float64(threshold) {
		return true
	}

	horizontal := !(a.Right() < b.X-threshold || b.Right() < a.X-threshold)
	vertical := !(a.Bottom() < b.Y-threshold || b.Bottom() < a.Y-threshold)
	return horizontal && vertical
}

// disjointSet is a union-find forest over the indices 0..n-1.
type disjointSet struct {
	parent []int
	rank   []int
}

func newDisjointSet(n int) *disjointSet {
	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	return &disjointSet{parent: parent, rank: make([]int, n)}
}

func (d *disjointSet) find(i int) int {
	for d.parent[i] != i {
		d.parent[i] = d.parent[d.parent[i]]
		i = d.parent[i]
	}
	return i
}

func (d *disjointSet) union(a, b int) {
	ra, rb := d.find(a), d.find(b)
	if ra == rb {
		return
	}
	switch {
	case d.rank[ra] < d.rank[rb]:
		d.parent[ra] = rb
	case d.rank[ra] > d.rank[rb]:
		d.parent[rb] = ra
	default:
		d.parent[rb] = ra
		d.rank[ra]++
	}
}
