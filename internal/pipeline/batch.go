package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dgallion1/pdfoutline/internal/config"
	"github.com/dgallion1/pdfoutline/internal/outline"
)

// Runner drives batch processing of a directory of PDFs: one JSON
// artifact per input document, unreadable documents degrading to their
// sentinel result without stopping the sweep.
type Runner struct {
	cfg       config.Config
	extractor Extractor
	log       *slog.Logger
	stats     *Stats

	// watchSettle is the quiet period a file must hold before watch
	// mode processes it; shortened in tests.
	watchSettle time.Duration
}

func NewRunner(cfg config.Config, ex Extractor, log *slog.Logger) *Runner {
	return &Runner{
		cfg:         cfg,
		extractor:   ex,
		log:         log,
		stats:       NewStats(time.Hour),
		watchSettle: watchSettleDelay,
	}
}

// StatsSnapshot returns the extraction latency aggregate.
func (r *Runner) StatsSnapshot() StatsSnapshot {
	return r.stats.Snapshot()
}

// Summary reports the outcome of one batch sweep.
type Summary struct {
	Processed int
	Failed    int
}

// Run scans the input directory for *.pdf files (non-recursive) and
// processes them with bounded concurrency. Documents are independent;
// a failure on one never aborts the others.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	if err := os.MkdirAll(r.cfg.OutputDir, 0o755); err != nil {
		return Summary{}, fmt.Errorf("create output dir: %w", err)
	}

	files, err := filepath.Glob(filepath.Join(r.cfg.InputDir, "*.pdf"))
	if err != nil {
		return Summary{}, fmt.Errorf("scan input dir: %w", err)
	}

	var (
		mu      sync.Mutex
		summary Summary
		wg      sync.WaitGroup
	)
	sem := make(chan struct{}, r.cfg.WorkerCount)

	for _, path := range files {
		select {
		case <-ctx.Done():
			wg.Wait()
			return summary, ctx.Err()
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(path string) {
			defer wg.Done()
			defer func() { <-sem }()

			failed := r.ProcessFile(path)

			mu.Lock()
			summary.Processed++
			if failed {
				summary.Failed++
			}
			mu.Unlock()
		}(path)
	}

	wg.Wait()
	return summary, nil
}

// ProcessFile runs one document through extraction and inference and
// writes `<name>.json` to the output directory. The artifact is written
// even for unreadable documents (as the sentinel result). Returns true
// if the document failed.
func (r *Runner) ProcessFile(path string) bool {
	log := r.log.With("file", filepath.Base(path))
	log.Info("processing")

	start := time.Now()
	doc, failed := r.process(path)
	r.stats.Record(time.Since(start).Milliseconds())

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)) + ".json"
	outPath := filepath.Join(r.cfg.OutputDir, name)
	if err := WriteResult(outPath, doc); err != nil {
		log.Error("write failed", "error", err)
		return true
	}

	if failed {
		log.Warn("document unreadable, wrote sentinel result", "output", name)
	} else {
		log.Info("wrote outline", "output", name, "headings", len(doc.Outline))
	}
	return failed
}

func (r *Runner) process(path string) (outline.Structure, bool) {
	lines, err := r.extractor.Extract(path)
	if err != nil {
		return outline.ErrorStructure(err), true
	}
	return outline.Infer(outline.Merge(lines, r.cfg.MergeThreshold)), false
}

// WriteResult writes a document structure as pretty-printed JSON,
// non-ASCII characters left unescaped.
func WriteResult(path string, doc outline.Structure) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	enc := json.NewEncoder(f)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(doc); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}
