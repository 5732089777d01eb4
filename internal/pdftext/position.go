package pdftext

import "sort"

// PageForChar returns the 1-based page containing the given character offset:
// the last page whose start offset is <= charOffset.
func PageForChar(charOffset int, pageOffsets []int) int {
	if len(pageOffsets) == 0 {
		return 1
	}
	i := sort.Search(len(pageOffsets), func(i int) bool {
		return pageOffsets[i] > charOffset
	})
	if i == 0 {
		return 1
	}
	return i
}

// BoundingBoxesForRange collects the bounding boxes of every text run
// overlapping [start, end), merging runs that sit on the same line of the same
// page. A range may span a page boundary; boxes come back in run order.
// Highlighting only, never correctness.
func BoundingBoxesForRange(start, end int, runs []TextRun) []BBox {
	var boxes []BBox
	for _, run := range runs {
		if run.CharStart >= end {
			break
		}
		if run.CharEnd <= start {
			continue
		}
		box := run.BBox
		if n := len(boxes); n > 0 && boxes[n-1].Page == box.Page && sameLine(boxes[n-1].Y, box.Y) {
			merged := &boxes[n-1]
			right := box.X + box.Width
			if box.X < merged.X {
				merged.X = box.X
			}
			if right > merged.X+merged.Width {
				merged.Width = right - merged.X
			}
			if box.Height > merged.Height {
				merged.Height = box.Height
			}
			continue
		}
		boxes = append(boxes, box)
	}
	return boxes
}

func sameLine(a, b float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= lineTolerance
}
