package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchSettleDelay is how long a file must go without further writes
// before it is processed. A Create event fires as soon as a copy
// starts, so processing immediately would read a half-written PDF.
const watchSettleDelay = 2 * time.Second

// Watch processes PDFs as they appear in the input directory. Each
// created or rewritten *.pdf goes through the same per-file path as a
// batch sweep once its writes settle. Returns when ctx is canceled.
func (r *Runner) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(r.cfg.InputDir); err != nil {
		return fmt.Errorf("watch %s: %w", r.cfg.InputDir, err)
	}
	r.log.Info("watching input directory", "dir", r.cfg.InputDir)

	// Last-write timestamps for files still settling. Every Create or
	// Write resets the clock; the file is processed once it has been
	// quiet for the settle delay.
	pending := make(map[string]time.Time)
	ticker := time.NewTicker(r.watchSettle / 4)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !strings.HasSuffix(ev.Name, ".pdf") {
				continue
			}
			if !ev.Op.Has(fsnotify.Create) && !ev.Op.Has(fsnotify.Write) {
				continue
			}
			pending[ev.Name] = time.Now()
		case now := <-ticker.C:
			for name, last := range pending {
				if now.Sub(last) >= r.watchSettle {
					delete(pending, name)
					r.ProcessFile(name)
				}
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			r.log.Error("watch error", "error", err)
		}
	}
}
