package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dgallion1/pdfoutline/internal/config"
	"github.com/dgallion1/pdfoutline/internal/outline"
)

// fakeExtractor serves canned lines keyed by file base name. A nil
// entry means the document is unreadable.
type fakeExtractor struct {
	lines map[string][]outline.Line
	errs  map[string]error
}

func (f *fakeExtractor) Extract(path string) ([]outline.Line, error) {
	name := filepath.Base(path)
	if err := f.errs[name]; err != nil {
		return nil, err
	}
	return f.lines[name], nil
}

func (f *fakeExtractor) ExtractReader(r io.Reader) ([]outline.Line, error) {
	return f.Extract("upload.pdf")
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// reportLines describes a small document: one title line, one heading
// and enough body text to fix the dominant size at 12.
func reportLines() []outline.Line {
	return []outline.Line{
		{Text: "Annual Report", FontSize: 24, Page: 0, BBox: outline.BBox{X0: 72, Y0: 72, X1: 300, Y1: 96}},
		{Text: "Introduction", FontSize: 16, Page: 0, BBox: outline.BBox{X0: 72, Y0: 140, X1: 200, Y1: 156}},
		{Text: "first paragraph", FontSize: 12, Page: 0, BBox: outline.BBox{X0: 72, Y0: 170, X1: 400, Y1: 182}},
		{Text: "second paragraph", FontSize: 12, Page: 0, BBox: outline.BBox{X0: 72, Y0: 190, X1: 400, Y1: 202}},
		{Text: "third paragraph", FontSize: 12, Page: 0, BBox: outline.BBox{X0: 72, Y0: 210, X1: 400, Y1: 222}},
	}
}

func batchConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		InputDir:       t.TempDir(),
		OutputDir:      filepath.Join(t.TempDir(), "out"),
		MergeThreshold: 5,
		WorkerCount:    2,
	}
}

func touchFile(t *testing.T, dir, name string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte("%PDF-1.4"), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func readArtifact(t *testing.T, dir, name string) outline.Structure {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		t.Fatalf("read artifact %s: %v", name, err)
	}
	var doc outline.Structure
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("unmarshal %s: %v", name, err)
	}
	return doc
}

func TestRunner_RunWritesOneArtifactPerDocument(t *testing.T) {
	cfg := batchConfig(t)
	touchFile(t, cfg.InputDir, "a.pdf")
	touchFile(t, cfg.InputDir, "b.pdf")

	ex := &fakeExtractor{lines: map[string][]outline.Line{
		"a.pdf": reportLines(),
		"b.pdf": reportLines(),
	}}
	runner := NewRunner(cfg, ex, testLogger())

	summary, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.Processed != 2 {
		t.Errorf("expected 2 processed, got %d", summary.Processed)
	}
	if summary.Failed != 0 {
		t.Errorf("expected 0 failed, got %d", summary.Failed)
	}

	doc := readArtifact(t, cfg.OutputDir, "a.json")
	if doc.Title != "Annual Report" {
		t.Errorf("expected title %q, got %q", "Annual Report", doc.Title)
	}
	if len(doc.Outline) != 1 {
		t.Fatalf("expected 1 heading, got %d", len(doc.Outline))
	}
	if doc.Outline[0].Level != "H1" || doc.Outline[0].Text != "Introduction" || doc.Outline[0].Page != 1 {
		t.Errorf("unexpected heading %+v", doc.Outline[0])
	}

	if _, err := os.Stat(filepath.Join(cfg.OutputDir, "b.json")); err != nil {
		t.Errorf("expected b.json artifact: %v", err)
	}
}

func TestRunner_UnreadableDocumentGetsSentinelAndSweepContinues(t *testing.T) {
	cfg := batchConfig(t)
	touchFile(t, cfg.InputDir, "bad.pdf")
	touchFile(t, cfg.InputDir, "good.pdf")

	ex := &fakeExtractor{
		lines: map[string][]outline.Line{"good.pdf": reportLines()},
		errs:  map[string]error{"bad.pdf": fmt.Errorf("open pdf: malformed xref table")},
	}
	runner := NewRunner(cfg, ex, testLogger())

	summary, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.Processed != 2 {
		t.Errorf("expected 2 processed, got %d", summary.Processed)
	}
	if summary.Failed != 1 {
		t.Errorf("expected 1 failed, got %d", summary.Failed)
	}

	sentinel := readArtifact(t, cfg.OutputDir, "bad.json")
	if sentinel.Title != "Error: open pdf: malformed xref table" {
		t.Errorf("expected sentinel title, got %q", sentinel.Title)
	}
	if sentinel.Outline == nil || len(sentinel.Outline) != 0 {
		t.Errorf("expected empty outline in sentinel, got %v", sentinel.Outline)
	}

	good := readArtifact(t, cfg.OutputDir, "good.json")
	if good.Title != "Annual Report" {
		t.Errorf("expected healthy document to still be processed, got title %q", good.Title)
	}
}

func TestRunner_IgnoresNonPDFFiles(t *testing.T) {
	cfg := batchConfig(t)
	touchFile(t, cfg.InputDir, "notes.txt")
	touchFile(t, cfg.InputDir, "doc.pdf")

	ex := &fakeExtractor{lines: map[string][]outline.Line{"doc.pdf": reportLines()}}
	runner := NewRunner(cfg, ex, testLogger())

	summary, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.Processed != 1 {
		t.Errorf("expected only the pdf to be processed, got %d", summary.Processed)
	}
	if _, err := os.Stat(filepath.Join(cfg.OutputDir, "notes.json")); !os.IsNotExist(err) {
		t.Error("expected no artifact for non-pdf input")
	}
}

func TestRunner_RecordsLatencySamples(t *testing.T) {
	cfg := batchConfig(t)
	touchFile(t, cfg.InputDir, "doc.pdf")

	ex := &fakeExtractor{lines: map[string][]outline.Line{"doc.pdf": reportLines()}}
	runner := NewRunner(cfg, ex, testLogger())

	if _, err := runner.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if snap := runner.StatsSnapshot(); snap.Count != 1 {
		t.Errorf("expected 1 latency sample, got %d", snap.Count)
	}
}

func TestWriteResult_Format(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.json")

	doc := outline.Structure{
		Title:   "Résumé <T&C>",
		Outline: []outline.Heading{},
	}
	if err := WriteResult(path, doc); err != nil {
		t.Fatalf("write result: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	out := string(data)

	if !strings.Contains(out, `    "title"`) {
		t.Errorf("expected four-space indentation, got:\n%s", out)
	}
	if !strings.Contains(out, `"outline": []`) {
		t.Errorf("expected empty outline to serialize as [], got:\n%s", out)
	}
	if !strings.Contains(out, "Résumé <T&C>") {
		t.Errorf("expected unescaped title text, got:\n%s", out)
	}
	if strings.Contains(out, "\\u003c") || strings.Contains(out, "\\u0026") {
		t.Errorf("expected HTML escaping disabled, got:\n%s", out)
	}
}
