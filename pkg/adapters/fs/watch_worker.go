package fs

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime/debug"
	"sync"
	"time"

	"github.com/aretw0/lifecycle/pkg/core/worker"
	"github.com/fsnotify/fsnotify"

	"github.com/aretw0/notecognito/pkg/core"
)

// DefaultDebounce coalesces the burst of events an editor produces on save.
const DefaultDebounce = 50 * time.Millisecond

// WatchWorker reloads config.json when something other than this process
// edits it, and hands the parsed config to onChange.
type WatchWorker struct {
	*worker.BaseWorker
	file     *ConfigFile
	onChange func(core.Config)
	debounce time.Duration
	logger   *slog.Logger

	watcher *fsnotify.Watcher
	cancel  context.CancelFunc

	mu      sync.Mutex
	timer   *time.Timer
	reloads int
}

// NewWatchWorker returns a worker for file. It does nothing until Start.
func (f *ConfigFile) NewWatchWorker(onChange func(core.Config)) *WatchWorker {
	return &WatchWorker{
		BaseWorker: worker.NewBaseWorker("config-watcher"),
		file:       f,
		onChange:   onChange,
		debounce:   DefaultDebounce,
		logger:     f.logger,
	}
}

func (w *WatchWorker) Start(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	status := w.State().Status
	if status != worker.StatusCreated && status != worker.StatusPending {
		return fmt.Errorf("config watcher already started (status: %s)", status)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	// Watch the directory: atomic saves replace the file's inode.
	if err := watcher.Add(w.file.Dir()); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", w.file.Dir(), err)
	}
	w.watcher = watcher

	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	w.SetStatus(worker.StatusRunning)
	return w.StartFunc(runCtx, w.run)
}

func (w *WatchWorker) Stop(ctx context.Context) error {
	if w.cancel != nil {
		w.StopRequested = true
		w.cancel()
	}
	return w.BaseWorker.Stop(ctx)
}

func (w *WatchWorker) State() worker.State {
	return w.ExportState(func(s *worker.State) {
		w.mu.Lock()
		reloads := w.reloads
		w.mu.Unlock()
		s.Metadata = map[string]string{
			worker.MetadataType: string(worker.TypeGoroutine),
			"path":              w.file.Path(),
			"reloads":           fmt.Sprintf("%d", reloads),
		}
	})
}

func (w *WatchWorker) run(ctx context.Context) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("config watcher panic: %v", recovered)
			if w.logger.Enabled(ctx, slog.LevelDebug) {
				w.logger.Error("config watcher panic", "error", err, "stack", string(debug.Stack()))
			} else {
				w.logger.Error("config watcher panic", "error", err)
			}
		}
	}()
	defer w.watcher.Close()
	defer w.stopTimer()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				if w.StopRequested || ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher events channel closed")
			}
			if filepath.Base(event.Name) != FileName {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			w.logger.Debug("config event", "op", event.Op.String())
			w.schedule(ctx)

		case wErr, ok := <-w.watcher.Errors:
			if !ok {
				if w.StopRequested || ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher errors channel closed")
			}
			w.logger.Error("fsnotify error", "error", wErr)
		}
	}
}

func (w *WatchWorker) schedule(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		if ctx.Err() != nil {
			return
		}
		w.reload()
	})
}

func (w *WatchWorker) stopTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
}

func (w *WatchWorker) reload() {
	cfg, changed, err := w.file.readIfChanged()
	if err != nil {
		// Half-written or hand-broken file: keep the current state.
		w.logger.Warn("ignoring unreadable config edit", "path", w.file.Path(), "error", err)
		return
	}
	if !changed {
		return
	}
	w.mu.Lock()
	w.reloads++
	w.mu.Unlock()
	w.logger.Info("config changed on disk, reloading", "path", w.file.Path())
	w.onChange(cfg)
}
