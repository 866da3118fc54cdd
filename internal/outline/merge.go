package outline

import "math"

// DefaultMergeThreshold is the vertical gap, in page units, under which
// two adjacent lines are considered fragments of the same logical line.
const DefaultMergeThreshold = 5

// maxFontSizeDelta bounds the font-size difference between fragments
// that may be fused into one logical line.
const maxFontSizeDelta = 1

// Merge folds a sequence of raw lines left to right, fusing each line
// into the current accumulator when it sits on the same page, within
// threshold of the accumulator's bottom edge, and within one point of
// its font size. Fused lines get space-joined text and a union bounding
// box; the font size of the first fragment is kept as-is. Input order
// is preserved and lines from different pages never merge.
func Merge(lines []Line, threshold float64) []Line {
	if len(lines) == 0 {
		return nil
	}

	merged := make([]Line, 0, len(lines))
	current := lines[0]

	for _, next := range lines[1:] {
		if next.Page == current.Page &&
			math.Abs(next.BBox.Y0-current.BBox.Y1) < threshold &&
			math.Abs(next.FontSize-current.FontSize) < maxFontSizeDelta {
			// Build a fresh value so earlier outputs never alias the
			// accumulator's box.
			current = Line{
				Text:     current.Text + " " + next.Text,
				FontSize: current.FontSize,
				Page:     current.Page,
				BBox:     current.BBox.Union(next.BBox),
			}
			continue
		}
		merged = append(merged, current)
		current = next
	}

	return append(merged, current)
}
