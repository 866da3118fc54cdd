package pipeline

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/dgallion1/pdfoutline/internal/outline"
)

// Extractor produces positioned text lines from a PDF. Implemented by
// extract.Engine; swapped out in tests.
type Extractor interface {
	Extract(path string) ([]outline.Line, error)
	ExtractReader(r io.Reader) ([]outline.Line, error)
}

// Worker processes a single document job.
type Worker struct {
	extractor Extractor
	log       *slog.Logger
	threshold float64
	stats     *Stats
}

func NewWorker(ex Extractor, log *slog.Logger, threshold float64, stats *Stats) *Worker {
	return &Worker{
		extractor: ex,
		log:       log,
		threshold: threshold,
		stats:     stats,
	}
}

// Process runs the full extraction pipeline for a job. An unreadable
// document yields the sentinel error structure and a failed status; it
// never takes down the worker.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "filename", job.Filename)
	job.SetStatus(StatusExtracting, "extracting")

	start := time.Now()
	lines, err := w.extractor.ExtractReader(bytes.NewReader(job.FileData()))
	job.releaseFileData()

	if err != nil {
		w.stats.Record(time.Since(start).Milliseconds())
		log.Error("extraction failed", "error", err)
		job.SetError(err.Error())
		job.SetResult(outline.ErrorStructure(err))
		job.SetStatus(StatusFailed, "extracting")
		return
	}

	merged := outline.Merge(lines, w.threshold)
	doc := outline.Infer(merged)
	w.stats.Record(time.Since(start).Milliseconds())

	job.SetResult(doc)
	job.SetStatus(StatusCompleted, "done")
	log.Info("outline extracted",
		"raw_lines", len(lines),
		"merged_lines", len(merged),
		"headings", len(doc.Outline),
	)
}
