package runner

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"mercator-hq/ganymede/pkg/config"
)

// Watch runs one conversion immediately, then blocks re-running it
// whenever the rule file or the input path changes, until ctx is
// cancelled. Every trigger is a fresh run with a fresh engine and run
// id. onRun is called after each run, including the initial one; it may
// be nil. Rapid event bursts are debounced into a single run.
func (r *Runner) Watch(ctx context.Context, debounce time.Duration, onRun func(*Summary, error)) error {
	if debounce <= 0 {
		debounce = config.DefaultWatchDebounce
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	if err := addWatchPaths(fw, r.cfg.RulesFile, r.cfg.InputPath); err != nil {
		return err
	}

	run := func() {
		sum, err := r.Run(ctx)
		if err != nil {
			r.logger.Error("Conversion run failed", "error", err)
		}
		if onRun != nil {
			onRun(sum, err)
		}
	}
	run()

	// The debouncer only signals; runs happen in this loop so they
	// never overlap.
	runCh := make(chan struct{}, 1)
	deb := newDebouncer(debounce, func() {
		select {
		case runCh <- struct{}{}:
		default:
		}
	})
	defer deb.stop()

	r.logger.Info("Watching for changes",
		"rules_file", r.cfg.RulesFile,
		"input", r.cfg.InputPath,
		"debounce_ms", debounce.Milliseconds(),
	)

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Watcher stopped")
			return nil

		case <-runCh:
			run()

		case ev, ok := <-fw.Events:
			if !ok {
				return fmt.Errorf("fsnotify closed its events channel")
			}
			if !r.shouldTrigger(ev) {
				continue
			}
			r.logger.Debug("File event", "path", ev.Name, "op", ev.Op.String())
			deb.trigger()

		case err, ok := <-fw.Errors:
			if !ok {
				return fmt.Errorf("fsnotify closed its errors channel")
			}
			r.logger.Error("Watcher error", "error", err)
		}
	}
}

// addWatchPaths registers the given files and directory trees with the
// watcher. For plain files the containing directory is watched instead:
// editors replace files on save and a watch on the old inode goes dead.
func addWatchPaths(fw *fsnotify.Watcher, paths ...string) error {
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return fmt.Errorf("watch path %s: %w", p, err)
		}
		if !info.IsDir() {
			if err := fw.Add(filepath.Dir(p)); err != nil {
				return fmt.Errorf("watch %s: %w", p, err)
			}
			continue
		}
		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() {
				return nil
			}
			if strings.HasPrefix(d.Name(), ".") && path != p {
				return filepath.SkipDir
			}
			if err := fw.Add(path); err != nil {
				return fmt.Errorf("watch %s: %w", path, err)
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// shouldTrigger filters watch events down to ones worth a re-run:
// YAML files, not hidden, not bare chmods, and never our own outputs.
func (r *Runner) shouldTrigger(ev fsnotify.Event) bool {
	if ev.Op&fsnotify.Chmod == fsnotify.Chmod {
		return false
	}
	name := filepath.Base(ev.Name)
	if strings.HasPrefix(name, ".") {
		return false
	}
	if !hasYAMLExt(name) {
		return false
	}
	return !r.isOutput(ev.Name)
}

// isOutput reports whether path looks like one of this runner's own
// conversion outputs. Re-running on those would loop forever when the
// output lands inside the watched tree.
func (r *Runner) isOutput(path string) bool {
	if r.cfg.OutputPath != "" && underPath(r.cfg.OutputPath, path) {
		return true
	}
	base := filepath.Base(path)
	prefix := r.cfg.OutputPrefix
	if prefix == "" {
		prefix = config.DefaultOutputPrefix
	}
	if strings.HasPrefix(base, prefix) {
		return true
	}
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return strings.HasSuffix(stem, selfOverwriteSuffix)
}

func underPath(dir, path string) bool {
	d, err := filepath.Abs(dir)
	if err != nil {
		return false
	}
	p, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(d, p)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// debouncer coalesces event bursts, firing its callback only after a
// quiet interval.
type debouncer struct {
	interval time.Duration
	fire     func()

	mu      sync.Mutex
	timer   *time.Timer
	stopped bool
}

func newDebouncer(interval time.Duration, fire func()) *debouncer {
	return &debouncer{interval: interval, fire: fire}
}

// trigger arms the quiet-interval timer, replacing any pending one.
func (d *debouncer) trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.interval, d.fire)
}

func (d *debouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
