package outline

import (
	"fmt"
	"sort"
	"strings"
)

const (
	// defaultBodySize stands in for the body font size when a document
	// has no lines at all.
	defaultBodySize = 12

	// maxHeadingWords excludes long paragraph-like lines from heading
	// candidacy regardless of font size.
	maxHeadingWords = 20

	// maxHeadingLevels caps classification at H1..H4. Candidates in a
	// fifth or smaller size tier are dropped from the outline entirely.
	maxHeadingLevels = 4
)

// Infer derives the document title and heading outline from merged
// lines. The title is the set of first-page lines at the page's maximum
// font size; headings are lines larger than the document's dominant
// (body) font size, ranked into at most four tiers by distinct size.
func Infer(lines []Line) Structure {
	doc := Structure{Outline: []Heading{}}
	if len(lines) == 0 {
		return doc
	}

	var firstPage []Line
	for _, l := range lines {
		if l.Page == 0 {
			firstPage = append(firstPage, l)
		}
	}

	// Title lines are excluded from heading candidacy by exact bounding
	// box value, not identity.
	reserved := make(map[BBox]bool)
	if len(firstPage) > 0 {
		maxSize := firstPage[0].FontSize
		for _, l := range firstPage[1:] {
			if l.FontSize > maxSize {
				maxSize = l.FontSize
			}
		}
		var parts []string
		for _, l := range firstPage {
			if l.FontSize == maxSize {
				parts = append(parts, l.Text)
				reserved[l.BBox] = true
			}
		}
		doc.Title = strings.Join(parts, " ")
	}

	baseline := dominantFontSize(lines)

	var candidates []Line
	for _, l := range lines {
		if reserved[l.BBox] {
			continue
		}
		if l.FontSize > baseline && len(strings.Fields(l.Text)) < maxHeadingWords {
			candidates = append(candidates, l)
		}
	}
	if len(candidates) == 0 {
		return doc
	}

	levelBySize := classifyTiers(candidates)

	type ranked struct {
		heading Heading
		page    int
		top     float64
	}
	headings := make([]ranked, 0, len(candidates))
	for _, c := range candidates {
		level, ok := levelBySize[c.FontSize]
		if !ok {
			continue
		}
		headings = append(headings, ranked{
			heading: Heading{Level: level, Text: c.Text, Page: c.Page + 1},
			page:    c.Page,
			top:     c.BBox.Y0,
		})
	}

	// Reading order: page, then vertical position. Stable so equal keys
	// keep their input order.
	sort.SliceStable(headings, func(i, j int) bool {
		if headings[i].page != headings[j].page {
			return headings[i].page < headings[j].page
		}
		return headings[i].top < headings[j].top
	})

	for _, h := range headings {
		doc.Outline = append(doc.Outline, h.heading)
	}
	return doc
}

// dominantFontSize returns the most frequent font size across all
// lines. Ties go to the size encountered first.
func dominantFontSize(lines []Line) float64 {
	if len(lines) == 0 {
		return defaultBodySize
	}

	counts := make(map[float64]int)
	var order []float64
	for _, l := range lines {
		if counts[l.FontSize] == 0 {
			order = append(order, l.FontSize)
		}
		counts[l.FontSize]++
	}

	best := order[0]
	for _, size := range order[1:] {
		if counts[size] > counts[best] {
			best = size
		}
	}
	return best
}

// classifyTiers maps the largest distinct candidate font sizes to
// heading levels, largest first. Sizes beyond the fourth tier get no
// level and are therefore dropped by the caller.
func classifyTiers(candidates []Line) map[float64]string {
	seen := make(map[float64]bool)
	var sizes []float64
	for _, c := range candidates {
		if !seen[c.FontSize] {
			seen[c.FontSize] = true
			sizes = append(sizes, c.FontSize)
		}
	}

	sort.Sort(sort.Reverse(sort.Float64Slice(sizes)))
	if len(sizes) > maxHeadingLevels {
		sizes = sizes[:maxHeadingLevels]
	}

	levels := make(map[float64]string, len(sizes))
	for i, size := range sizes {
		levels[size] = fmt.Sprintf("H%d", i+1)
	}
	return levels
}
