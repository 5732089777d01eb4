package pdftext

import "testing"

func TestPageForChar(t *testing.T) {
	offsets := []int{0, 100, 250}
	cases := []struct {
		char int
		page int
	}{
		{0, 1},
		{99, 1},
		{100, 2},
		{249, 2},
		{250, 3},
		{9999, 3},
	}
	for _, tc := range cases {
		if got := PageForChar(tc.char, offsets); got != tc.page {
			t.Fatalf("PageForChar(%d) = %d, want %d", tc.char, got, tc.page)
		}
	}
	if got := PageForChar(50, nil); got != 1 {
		t.Fatalf("empty offset table should default to page 1, got %d", got)
	}
}

func TestBoundingBoxesForRangeOverlap(t *testing.T) {
	runs := []TextRun{
		{Text: "alpha", CharStart: 0, CharEnd: 5, Page: 1, BBox: BBox{Page: 1, X: 10, Y: 700, Width: 50, Height: 12}},
		{Text: "beta", CharStart: 6, CharEnd: 10, Page: 1, BBox: BBox{Page: 1, X: 70, Y: 700, Width: 40, Height: 12}},
		{Text: "gamma", CharStart: 11, CharEnd: 16, Page: 2, BBox: BBox{Page: 2, X: 10, Y: 720, Width: 55, Height: 12}},
	}

	boxes := BoundingBoxesForRange(3, 8, runs)
	if len(boxes) != 1 {
		t.Fatalf("expected same-line runs merged into 1 box, got %d", len(boxes))
	}
	if boxes[0].X != 10 || boxes[0].X+boxes[0].Width != 110 {
		t.Fatalf("merged box should span both runs: %+v", boxes[0])
	}

	// Spanning the page boundary keeps one box per page.
	boxes = BoundingBoxesForRange(8, 14, runs)
	if len(boxes) != 2 {
		t.Fatalf("expected 2 boxes across pages, got %d", len(boxes))
	}
	if boxes[0].Page != 1 || boxes[1].Page != 2 {
		t.Fatalf("boxes on wrong pages: %+v", boxes)
	}

	if boxes := BoundingBoxesForRange(100, 200, runs); len(boxes) != 0 {
		t.Fatalf("range past all runs should yield no boxes, got %d", len(boxes))
	}
}
