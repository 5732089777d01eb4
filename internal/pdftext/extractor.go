package pdftext

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/ledongthuc/pdf"

	"incident-backend/internal/shared/util"
)

// ErrExtraction marks a source document that cannot be read: corrupt bytes,
// password protection, zero pages, or no extractable text. Callers surface it
// without creating partial state.
var ErrExtraction = errors.New("pdf extraction failed")

// BBox is a rectangle in page coordinates (PDF user space, origin bottom-left)
// locating a span of text for UI highlighting.
type BBox struct {
	Page   int     `json:"page"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// TextRun is a positioned piece of the reconstructed text. CharStart/CharEnd
// are byte offsets into Extraction.FullText.
type TextRun struct {
	Text      string `json:"text"`
	CharStart int    `json:"charStart"`
	CharEnd   int    `json:"charEnd"`
	Page      int    `json:"page"`
	BBox      BBox   `json:"bbox"`
}

// Extraction is the full output of parsing one PDF.
type Extraction struct {
	FullText    string
	PageCount   int
	PageOffsets []int
	TextRuns    []TextRun
	ContentHash string
}

// Gap heuristics for reconstructing whitespace the PDF content stream omits.
const (
	wordGapFactor = 0.25
	lineTolerance = 0.5
)

// Extract parses raw PDF bytes into full text, a page offset table, positioned
// text runs, and a content hash. Pure function over the input bytes.
//
// The underlying parser panics on some malformed inputs, so the whole walk is
// guarded and any panic is reported as ErrExtraction.
func Extract(data []byte) (ex Extraction, err error) {
	defer func() {
		if r := recover(); r != nil {
			ex = Extraction{}
			err = fmt.Errorf("%w: %v", ErrExtraction, r)
		}
	}()

	if len(data) == 0 {
		return Extraction{}, fmt.Errorf("%w: empty input", ErrExtraction)
	}

	reader, rerr := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if rerr != nil {
		return Extraction{}, fmt.Errorf("%w: %v", ErrExtraction, rerr)
	}

	pageCount := reader.NumPage()
	if pageCount == 0 {
		return Extraction{}, fmt.Errorf("%w: document has no pages", ErrExtraction)
	}

	var b strings.Builder
	pageOffsets := make([]int, 0, pageCount)
	var runs []TextRun

	for pageNum := 1; pageNum <= pageCount; pageNum++ {
		pageStart := b.Len()
		pageOffsets = append(pageOffsets, pageStart)

		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		runs = appendPageRuns(&b, runs, page.Content(), pageNum)
		if b.Len() > pageStart {
			b.WriteString("\n")
		}
	}

	fullText := b.String()
	if strings.TrimSpace(fullText) == "" {
		return Extraction{}, fmt.Errorf("%w: no extractable text", ErrExtraction)
	}

	return Extraction{
		FullText:    fullText,
		PageCount:   pageCount,
		PageOffsets: pageOffsets,
		TextRuns:    runs,
		ContentHash: util.HashBytes(data),
	}, nil
}

// openRun accumulates adjacent text fragments into one positioned run.
type openRun struct {
	start    int
	page     int
	font     string
	fontSize float64
	minX     float64
	endX     float64
	y        float64
	text     strings.Builder
}

func appendPageRuns(b *strings.Builder, runs []TextRun, content pdf.Content, pageNum int) []TextRun {
	var cur *openRun

	flush := func() {
		if cur == nil || cur.text.Len() == 0 {
			cur = nil
			return
		}
		width := cur.endX - cur.minX
		if width < 0 {
			width = 0
		}
		runs = append(runs, TextRun{
			Text:      cur.text.String(),
			CharStart: cur.start,
			CharEnd:   b.Len(),
			Page:      cur.page,
			BBox: BBox{
				Page:   cur.page,
				X:      cur.minX,
				Y:      cur.y,
				Width:  width,
				Height: cur.fontSize,
			},
		})
		cur = nil
	}

	for _, t := range content.Text {
		if t.S == "" {
			continue
		}

		if cur != nil {
			sameLine := math.Abs(t.Y-cur.y) <= lineTolerance
			if !sameLine {
				flush()
				b.WriteString("\n")
			} else if gap := t.X - cur.endX; gap > wordGapFactor*maxFloat(t.FontSize, 1) {
				flush()
				b.WriteString(" ")
			} else if t.Font != cur.font {
				flush()
			}
		}

		if cur == nil {
			cur = &openRun{
				start:    b.Len(),
				page:     pageNum,
				font:     t.Font,
				fontSize: t.FontSize,
				minX:     t.X,
				endX:     t.X,
				y:        t.Y,
			}
		}

		b.WriteString(t.S)
		cur.text.WriteString(t.S)
		if end := t.X + t.W; end > cur.endX {
			cur.endX = end
		}
		if t.FontSize > cur.fontSize {
			cur.fontSize = t.FontSize
		}
	}
	flush()
	return runs
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
