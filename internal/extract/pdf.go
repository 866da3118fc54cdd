// Package extract turns a PDF into positioned text lines for outline
// inference. It is the only package that talks to the PDF library;
// everything downstream consumes plain outline.Line values.
package extract

import (
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/dgallion1/pdfoutline/internal/outline"
	pdflib "github.com/ledongthuc/pdf"
)

const (
	// defaultRowTolerance is the baseline Y distance, in points, under
	// which fragments belong to the same visual row.
	defaultRowTolerance = 3.0

	// defaultWordGapFactor is the fraction of the font size a horizontal
	// gap must exceed before a space is inserted between fragments.
	defaultWordGapFactor = 0.3

	// defaultPageHeight is US Letter, used when a page has no readable
	// MediaBox.
	defaultPageHeight = 792.0
)

// Engine extracts per-line text records from PDF documents.
type Engine struct {
	RowTolerance  float64
	WordGapFactor float64
}

func NewEngine() *Engine {
	return &Engine{
		RowTolerance:  defaultRowTolerance,
		WordGapFactor: defaultWordGapFactor,
	}
}

// Document is an open PDF handle. Close is idempotent.
type Document struct {
	f      *os.File
	reader *pdflib.Reader

	closeOnce sync.Once
	closeErr  error
}

// Open opens a PDF file for extraction.
func Open(path string) (*Document, error) {
	f, reader, err := pdflib.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	return &Document{f: f, reader: reader}, nil
}

func (d *Document) Close() error {
	d.closeOnce.Do(func() {
		d.closeErr = d.f.Close()
	})
	return d.closeErr
}

// NumPages reports the page count of the open document.
func (d *Document) NumPages() int {
	return d.reader.NumPage()
}

// Extract opens path and returns its text lines in reading order.
func (e *Engine) Extract(path string) ([]outline.Line, error) {
	doc, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer doc.Close()
	return e.Lines(doc)
}

// ExtractReader spools r to a temporary file and extracts from it. The
// PDF library needs a seekable file with a known size, so uploads go
// through the filesystem.
func (e *Engine) ExtractReader(r io.Reader) ([]outline.Line, error) {
	tmp, err := os.CreateTemp("", "pdfoutline-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	tmp.Close()

	return e.Extract(tmpPath)
}

// Lines walks every page of the document, groups positioned fragments
// into visual rows, and emits one outline.Line per non-empty row, top
// to bottom within each page. Content-stream panics from malformed
// documents surface as errors rather than crashing the batch.
func (e *Engine) Lines(d *Document) (lines []outline.Line, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("extract text: %v", r)
		}
	}()

	numPages := d.reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := d.reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		height := pageHeight(page)
		content := page.Content()

		for _, frags := range e.groupRows(content.Text) {
			if line, ok := e.buildLine(frags, i-1, height); ok {
				lines = append(lines, line)
			}
		}
	}
	return lines, nil
}

// groupRows buckets fragments by baseline Y, then orders rows top to
// bottom (PDF user space grows upward) and fragments left to right.
func (e *Engine) groupRows(texts []pdflib.Text) [][]pdflib.Text {
	type row struct {
		y     float64
		frags []pdflib.Text
	}

	var rows []*row
	for _, t := range texts {
		if strings.TrimSpace(t.S) == "" {
			continue
		}
		var target *row
		for _, r := range rows {
			if math.Abs(r.y-t.Y) <= e.RowTolerance {
				target = r
				break
			}
		}
		if target == nil {
			rows = append(rows, &row{y: t.Y, frags: []pdflib.Text{t}})
			continue
		}
		target.frags = append(target.frags, t)
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].y > rows[j].y })

	out := make([][]pdflib.Text, 0, len(rows))
	for _, r := range rows {
		sort.SliceStable(r.frags, func(i, j int) bool { return r.frags[i].X < r.frags[j].X })
		out = append(out, r.frags)
	}
	return out
}

// buildLine joins a row's fragments into one line record. Horizontal
// gaps wider than WordGapFactor of the font size become spaces; kerning
// gaps inside a word do not.
func (e *Engine) buildLine(frags []pdflib.Text, pageIndex int, pageHeight float64) (outline.Line, bool) {
	var sb strings.Builder
	for i, t := range frags {
		if i > 0 {
			prev := frags[i-1]
			gap := t.X - (prev.X + prev.W)
			if gap > e.WordGapFactor*prev.FontSize {
				sb.WriteString(" ")
			}
		}
		sb.WriteString(t.S)
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		return outline.Line{}, false
	}

	// Reading-oriented box: the top edge gets the smaller Y value. The
	// glyph box spans from the baseline up by roughly the font size.
	bbox := fragmentBox(frags[0], pageHeight)
	for _, t := range frags[1:] {
		bbox = bbox.Union(fragmentBox(t, pageHeight))
	}

	return outline.Line{
		Text:     text,
		FontSize: dominantSpanSize(frags),
		Page:     pageIndex,
		BBox:     bbox,
	}, true
}

func fragmentBox(t pdflib.Text, pageHeight float64) outline.BBox {
	return outline.BBox{
		X0: t.X,
		Y0: pageHeight - (t.Y + t.FontSize),
		X1: t.X + t.W,
		Y1: pageHeight - t.Y,
	}
}

// dominantSpanSize is the most frequent fragment font size in a row,
// ties going to the size seen first.
func dominantSpanSize(frags []pdflib.Text) float64 {
	counts := make(map[float64]int)
	var order []float64
	for _, t := range frags {
		if counts[t.FontSize] == 0 {
			order = append(order, t.FontSize)
		}
		counts[t.FontSize]++
	}

	best := order[0]
	for _, size := range order[1:] {
		if counts[size] > counts[best] {
			best = size
		}
	}
	return best
}

// pageHeight reads the page's MediaBox height, walking up the page tree
// when the box is inherited. Unreadable boxes fall back to US Letter.
func pageHeight(page pdflib.Page) float64 {
	box := page.V.Key("MediaBox")
	parent := page.V.Key("Parent")
	for depth := 0; box.IsNull() && !parent.IsNull() && depth < 16; depth++ {
		box = parent.Key("MediaBox")
		parent = parent.Key("Parent")
	}
	if box.IsNull() || box.Kind() != pdflib.Array || box.Len() != 4 {
		return defaultPageHeight
	}

	coords := make([]float64, 4)
	for i := range coords {
		v := box.Index(i)
		switch v.Kind() {
		case pdflib.Integer:
			coords[i] = float64(v.Int64())
		case pdflib.Real:
			coords[i] = v.Float64()
		default:
			return defaultPageHeight
		}
	}

	h := coords[3] - coords[1]
	if h <= 0 {
		return defaultPageHeight
	}
	return h
}
