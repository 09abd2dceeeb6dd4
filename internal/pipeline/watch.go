package pipeline

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/backmassage/renamebot/internal/config"
	"github.com/backmassage/renamebot/internal/logging"
)

// Watch renames files that appear under InputDir until ctx is done. Files
// already present at startup are taken too. It returns the running totals.
func Watch(ctx context.Context, cfg *config.Config, log *logging.Logger) (RunStats, error) {
	r, err := newRunner(cfg, log)
	if err != nil {
		return RunStats{}, err
	}
	w := newDirWatcher(r, cfg.SettleTime, time.Now)

	log.Info("Watching %s (settle %s)", cfg.InputDir, cfg.SettleTime)
	w.scan()

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		log.Warn("fsnotify not available, falling back to polling: %v", err)
		return w.poll(ctx, cfg.PollInterval), nil
	}
	defer fsw.Close()
	if err := addTree(fsw, cfg.InputDir); err != nil {
		log.Warn("Failed to watch %s, falling back to polling: %v", cfg.InputDir, err)
		return w.poll(ctx, cfg.PollInterval), nil
	}
	log.Debug(cfg.Verbose, "Watcher started (using fsnotify)")

	tick := cfg.SettleTime / 2
	if tick <= 0 {
		tick = 100 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logSummary(cfg, log, &w.stats)
			return w.stats, nil

		case event, ok := <-fsw.Events:
			if !ok {
				log.Warn("fsnotify watcher closed, switching to polling")
				return w.poll(ctx, cfg.PollInterval), nil
			}
			w.handleEvent(fsw, event)

		case err, ok := <-fsw.Errors:
			if !ok {
				log.Warn("fsnotify error channel closed, switching to polling")
				return w.poll(ctx, cfg.PollInterval), nil
			}
			log.Warn("Watcher error: %v", err)

		case <-ticker.C:
			w.flush(ctx)
		}
	}
}

// fileStamp identifies one version of a file.
type fileStamp struct {
	size int64
	mod  time.Time
}

type pendingFile struct {
	stamp fileStamp
	since time.Time // last time the stamp changed
}

// dirWatcher tracks files waiting to settle and those already renamed.
// It is driven from a single goroutine.
type dirWatcher struct {
	r       *runner
	settle  time.Duration
	now     func() time.Time
	pending map[string]pendingFile
	done    map[string]fileStamp
	stats   RunStats
}

func newDirWatcher(r *runner, settle time.Duration, now func() time.Time) *dirWatcher {
	return &dirWatcher{
		r:       r,
		settle:  settle,
		now:     now,
		pending: make(map[string]pendingFile),
		done:    make(map[string]fileStamp),
	}
}

func (w *dirWatcher) handleEvent(fsw *fsnotify.Watcher, ev fsnotify.Event) {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
		return
	}
	fi, err := os.Stat(ev.Name)
	if err != nil {
		return
	}
	if fi.IsDir() {
		if ev.Has(fsnotify.Create) && !strings.HasPrefix(fi.Name(), ".") {
			if err := addTree(fsw, ev.Name); err != nil {
				w.r.log.Warn("Failed to watch %s: %v", ev.Name, err)
			}
			w.scanDir(ev.Name)
		}
		return
	}
	w.touch(ev.Name)
}

// touch records that path may have changed.
func (w *dirWatcher) touch(path string) {
	if KindOf(path) == "" {
		return
	}
	fi, err := os.Stat(path)
	if err != nil || !fi.Mode().IsRegular() {
		return
	}
	st := fileStamp{size: fi.Size(), mod: fi.ModTime()}
	if done, ok := w.done[path]; ok && done == st {
		return
	}
	if p, ok := w.pending[path]; ok && p.stamp == st {
		return
	}
	w.pending[path] = pendingFile{stamp: st, since: w.now()}
}

// flush renames every pending file whose stamp has not changed for the
// settle time.
func (w *dirWatcher) flush(ctx context.Context) {
	now := w.now()
	var ready []string
	for path, p := range w.pending {
		if now.Sub(p.since) >= w.settle {
			ready = append(ready, path)
		}
	}
	sort.Strings(ready)

	for _, path := range ready {
		if ctx.Err() != nil {
			return
		}
		p := w.pending[path]
		fi, err := os.Stat(path)
		if err != nil {
			delete(w.pending, path)
			continue
		}
		st := fileStamp{size: fi.Size(), mod: fi.ModTime()}
		if st != p.stamp {
			w.pending[path] = pendingFile{stamp: st, since: now}
			continue
		}
		delete(w.pending, path)
		w.done[path] = st

		w.stats.Total++
		w.stats.Current++
		w.r.log.Info("[watch] %s", filepath.Base(path))
		w.r.process(ctx, path, &w.stats)
	}
}

func (w *dirWatcher) scan() { w.scanDir(w.r.cfg.InputDir) }

func (w *dirWatcher) scanDir(dir string) {
	files, err := Discover(dir)
	if err != nil {
		w.r.log.Warn("Scan %s failed: %v", dir, err)
		return
	}
	for _, f := range files {
		w.touch(f)
	}
}

// poll is the fallback loop when fsnotify is unusable.
func (w *dirWatcher) poll(ctx context.Context, interval time.Duration) RunStats {
	w.r.log.Info("Watcher started (using polling fallback, %s interval)", interval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logSummary(w.r.cfg, w.r.log, &w.stats)
			return w.stats
		case <-ticker.C:
			w.scan()
			w.flush(ctx)
		}
	}
}

// addTree watches root and every non-hidden directory below it.
func addTree(fsw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return fsw.Add(path)
	})
}
