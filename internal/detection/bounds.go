package detection

// BoundingBoxes returns the minimal rectangle covering each label 1..count.
//
// Rectangles are returned in label order. A label that owns no cells is
// skipped rather than reported as an empty rectangle.
func BoundingBoxes(labels *LabelMap, count int) []Rect {
	if count <= 0 {
		return []Rect{}
	}

	type extent struct {
		minX, minY, maxX, maxY int
		seen                   bool
	}
	extents := make([]extent, count+1)

	for y := 0; y < labels.Height; y++ {
		row := labels.Labels[y*labels.Width : (y+1)*labels.Width]
		for x, id := range row {
			if id == 0 || int(id) > count {
				continue
			}
			e := &extents[id]
			if !e.seen {
				*e = extent{minX: x, minY: y, maxX: x, maxY: y, seen: true}
				continue
			}
			if x < e.minX {
				e.minX = x
			}
			if x > e.maxX {
				e.maxX = x
			}
			// rows are scanned top-down so minY is fixed on first sight
			e.maxY = y
		}
	}

	rects := make([]Rect, 0, count)
	for id := 1; id <= count; id++ {
		e := extents[id]
		if !e.seen {
			continue
		}
		rects = append(rects, Rect{
			X:      e.minX,
			Y:      e.minY,
			Width:  e.maxX - e.minX + 1,
			Height: e.maxY - e.minY + 1,
		})
	}
	return rects
}

// FilterBySize keeps rectangles whose width and height are both at least
// minSize. It discards single-pixel noise and anti-aliasing specks.
func FilterBySize(rects []Rect, minSize int) []Rect {
	kept := make([]Rect, 0, len(rects))
	for _, r := range rects {
		if r.Width >= minSize && r.Height >= minSize {
			kept = append(kept, r)
		}
	}
	return kept
}
