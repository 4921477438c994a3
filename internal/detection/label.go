package detection

// LabelMap assigns a component id to every cell of a mask.
//
// Labels[y*Width+x] is 0 for background cells and 1..N for cells belonging to
// component N. Components are numbered in raster-scan order of their first
// (top-most, then left-most) cell.
type LabelMap struct {
	Width  int
	Height int
	Labels []int32
}

// At returns the label of cell (x, y).
func (l *LabelMap) At(x, y int) int {
	return int(l.Labels[y*l.Width+x])
}

// Label partitions the opaque cells of mask into maximal 4-connected
// components.
//
// Two cells are connected only when they share an edge; diagonal neighbours
// are separate components. The returned count may be zero for an all-transparent
// mask.
//
// # Algorithm
//
// Breadth-first flood fill over a flat index queue. Each cell is enqueued at
// most once, so time and memory are O(width × height). The queue is reused
// between components to avoid per-component allocations on sheets with
// hundreds of sprites.
func Label(mask *Mask) (*LabelMap, int) {
	width := mask.Width
	height := mask.Height
	labels := make([]int32, width*height)

	var next int32
	queue := make([]int, 0, 1024)

	for start, opaque := range mask.Bits {
		if !opaque || labels[start] != 0 {
			continue
		}

		next++
		labels[start] = next
		queue = append(queue[:0], start)

		for head := 0; head < len(queue); head++ {
			idx := queue[head]
			x := idx % width
			y := idx / width

			// 4-connected neighbours: left, right, up, down
			if x > 0 {
				if n := idx - 1; mask.Bits[n] && labels[n] == 0 {
					labels[n] = next
					queue = append(queue, n)
				}
			}
			if x < width-1 {
				if n := idx + 1; mask.Bits[n] && labels[n] == 0 {
					labels[n] = next
					queue = append(queue, n)
				}
			}
			if y > 0 {
				if n := idx - width; mask.Bits[n] && labels[n] == 0 {
					labels[n] = next
					queue = append(queue, n)
				}
			}
			if y < height-1 {
				if n := idx + width; mask.Bits[n] && labels[n] == 0 {
					labels[n] = next
					queue = append(queue, n)
				}
			}
		}
	}

	return &LabelMap{Width: width, Height: height, Labels: labels}, int(next)
}
