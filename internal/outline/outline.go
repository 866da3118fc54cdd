// Package outline infers a document's title and heading hierarchy from
// positioned text lines, using font-size statistics rather than any
// embedded bookmark metadata.
package outline

// BBox is a rectangle in page coordinates, reading orientation:
// Y0 is the top edge and Y1 the bottom edge, with Y0 < Y1.
type BBox struct {
	X0 float64
	Y0 float64
	X1 float64
	Y1 float64
}

// Union returns the coordinate-wise union of two boxes.
func (b BBox) Union(o BBox) BBox {
	return BBox{
		X0: min(b.X0, o.X0),
		Y0: min(b.Y0, o.Y0),
		X1: max(b.X1, o.X1),
		Y1: max(b.Y1, o.Y1),
	}
}

// Line is one visually rendered line of text on a page. The extractor
// produces these, and Merge fuses vertically adjacent fragments into
// logical lines of the same shape.
type Line struct {
	Text     string  // trimmed fragment text
	FontSize float64 // dominant font size among the line's fragments
	Page     int     // zero-based page index
	BBox     BBox
}

// Heading is a classified outline entry.
type Heading struct {
	Level string `json:"level"` // "H1".."H4"
	Text  string `json:"text"`
	Page  int    `json:"page"` // 1-based
}

// Structure is the final result for one document.
type Structure struct {
	Title   string    `json:"title"`
	Outline []Heading `json:"outline"`
}

// ErrorStructure builds the sentinel result for a document that could
// not be opened or read. Batch processing continues past these.
func ErrorStructure(err error) Structure {
	return Structure{
		Title:   "Error: " + err.Error(),
		Outline: []Heading{},
	}
}
