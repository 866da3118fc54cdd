package outline

import (
	"reflect"
	"testing"
)

func rawLine(text string, size float64, page int, y0, y1 float64) Line {
	return Line{
		Text:     text,
		FontSize: size,
		Page:     page,
		BBox:     BBox{X0: 50, Y0: y0, X1: 300, Y1: y1},
	}
}

func TestMerge_CloseFragmentsFuse(t *testing.T) {
	// Two fragments 2 units apart with the same font size belong to one
	// logical line.
	lines := []Line{
		rawLine("Annual", 10, 0, 100, 110),
		rawLine("Report", 10, 0, 112, 120),
	}

	merged := Merge(lines, DefaultMergeThreshold)
	if len(merged) != 1 {
		t.Fatalf("expected 1 merged line, got %d", len(merged))
	}
	if merged[0].Text != "Annual Report" {
		t.Errorf("expected text %q, got %q", "Annual Report", merged[0].Text)
	}
	want := BBox{X0: 50, Y0: 100, X1: 300, Y1: 120}
	if merged[0].BBox != want {
		t.Errorf("expected union bbox %+v, got %+v", want, merged[0].BBox)
	}
}

func TestMerge_DistantFragmentsStaySeparate(t *testing.T) {
	// Gap of 8 is at or above the default threshold of 5.
	lines := []Line{
		rawLine("First paragraph", 10, 0, 100, 110),
		rawLine("Second paragraph", 10, 0, 118, 128),
	}

	merged := Merge(lines, DefaultMergeThreshold)
	if len(merged) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(merged))
	}
	if merged[0].Text != "First paragraph" || merged[1].Text != "Second paragraph" {
		t.Errorf("unexpected texts: %q, %q", merged[0].Text, merged[1].Text)
	}
}

func TestMerge_DifferentPagesNeverMerge(t *testing.T) {
	// Identical geometry, adjacent pages.
	lines := []Line{
		rawLine("End of page one", 10, 0, 100, 110),
		rawLine("Start of page two", 10, 1, 111, 120),
	}

	merged := Merge(lines, DefaultMergeThreshold)
	if len(merged) != 2 {
		t.Fatalf("expected 2 lines across pages, got %d", len(merged))
	}
}

func TestMerge_FontSizeMismatchBlocksMerge(t *testing.T) {
	lines := []Line{
		rawLine("Heading", 14, 0, 100, 110),
		rawLine("body text", 12, 0, 111, 120),
	}

	merged := Merge(lines, DefaultMergeThreshold)
	if len(merged) != 2 {
		t.Fatalf("expected 2 lines for differing font sizes, got %d", len(merged))
	}
}

func TestMerge_SubPointFontDriftStillMerges(t *testing.T) {
	// Differences under one point are treated as the same typography,
	// and the first fragment's size is the one retained.
	lines := []Line{
		rawLine("Intro", 10, 0, 100, 110),
		rawLine("duction", 10.5, 0, 111, 120),
	}

	merged := Merge(lines, DefaultMergeThreshold)
	if len(merged) != 1 {
		t.Fatalf("expected 1 merged line, got %d", len(merged))
	}
	if merged[0].FontSize != 10 {
		t.Errorf("expected font size 10 retained from the first fragment, got %v", merged[0].FontSize)
	}
}

func TestMerge_ChainFoldsIntoOneLine(t *testing.T) {
	// No bound on chain length: every qualifying neighbor folds in.
	lines := []Line{
		rawLine("one", 10, 0, 100, 110),
		rawLine("two", 10, 0, 112, 122),
		rawLine("three", 10, 0, 124, 134),
		rawLine("four", 10, 0, 136, 146),
	}

	merged := Merge(lines, DefaultMergeThreshold)
	if len(merged) != 1 {
		t.Fatalf("expected 1 merged line, got %d", len(merged))
	}
	if merged[0].Text != "one two three four" {
		t.Errorf("expected chained text, got %q", merged[0].Text)
	}
	if merged[0].BBox.Y1 != 146 {
		t.Errorf("expected bottom edge 146, got %v", merged[0].BBox.Y1)
	}
}

func TestMerge_PreservesInputOrder(t *testing.T) {
	lines := []Line{
		rawLine("alpha", 10, 0, 100, 110),
		rawLine("beta", 14, 0, 130, 140),
		rawLine("gamma", 10, 0, 160, 170),
	}

	merged := Merge(lines, DefaultMergeThreshold)
	if len(merged) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(merged))
	}
	for i, want := range []string{"alpha", "beta", "gamma"} {
		if merged[i].Text != want {
			t.Errorf("line %d: expected %q, got %q", i, want, merged[i].Text)
		}
	}
}

func TestMerge_IdempotentOnMaximalOutput(t *testing.T) {
	lines := []Line{
		rawLine("title part one", 18, 0, 50, 60),
		rawLine("title part two", 18, 0, 62, 72),
		rawLine("body", 12, 0, 200, 210),
		rawLine("next page", 12, 1, 50, 60),
	}

	once := Merge(lines, DefaultMergeThreshold)
	twice := Merge(once, DefaultMergeThreshold)
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("expected merge to be idempotent, got %+v then %+v", once, twice)
	}
}

func TestMerge_EmptyInput(t *testing.T) {
	if got := Merge(nil, DefaultMergeThreshold); len(got) != 0 {
		t.Errorf("expected empty output for empty input, got %d lines", len(got))
	}
}

func TestMerge_SingleLinePassesThrough(t *testing.T) {
	in := []Line{rawLine("only", 12, 0, 100, 110)}
	merged := Merge(in, DefaultMergeThreshold)
	if len(merged) != 1 || merged[0] != in[0] {
		t.Errorf("expected single line unchanged, got %+v", merged)
	}
}

func TestBBox_Union(t *testing.T) {
	a := BBox{X0: 50, Y0: 100, X1: 200, Y1: 110}
	b := BBox{X0: 40, Y0: 112, X1: 300, Y1: 120}
	want := BBox{X0: 40, Y0: 100, X1: 300, Y1: 120}
	if got := a.Union(b); got != want {
		t.Errorf("expected %+v, got %+v", want, got)
	}
}
