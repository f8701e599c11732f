package index

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/stella-dust/zolapub/internal/tree"
)

// DefaultDebounce is how long Watch waits after the last event before firing.
const DefaultDebounce = 500 * time.Millisecond

// Watch starts an fsnotify watcher on dir and calls fn once a burst of
// article changes has settled, until ctx is cancelled. Only direct
// children that are sync candidates (Markdown, not hidden, not reserved)
// trigger fn.
func Watch(ctx context.Context, dir string, debounce time.Duration, logger *slog.Logger, fn func(context.Context)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(dir); err != nil {
		return err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	logger.Info("watcher: started", slog.String("dir", dir))

	var timer *time.Timer
	var fire <-chan time.Time

	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(debounce)
			fire = timer.C
		} else {
			timer.Reset(debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-fire:
			timer, fire = nil, nil
			fn(ctx)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op == fsnotify.Chmod {
				continue
			}
			name := filepath.Base(ev.Name)
			if !tree.IsArticle(name) || tree.IsHidden(name) || tree.IsReserved(name) {
				continue
			}
			logger.Debug("watcher: change", slog.String("name", name), slog.String("op", ev.Op.String()))
			schedule()

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}
