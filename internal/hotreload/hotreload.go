// Package hotreload watches the forbidden-command list and the operator
// roster for changes and reloads them in place, without restarting the
// supervisor. Modeled on the debounced fsnotify watch loop the pack uses
// for following a growing log file, adapted here to watch for rewrites
// of small config documents instead.
package hotreload

import (
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sable-ops/bouncer/internal/bans"
	"github.com/sable-ops/bouncer/internal/opsfile"
)

// DebounceWindow coalesces the burst of events an editor's save-and-rename
// sequence produces into a single reload.
const DebounceWindow = 200 * time.Millisecond

// OpsRoster is a concurrency-safe, hot-reloadable view of the operator
// list, satisfying adminapi.OpsList.
type OpsRoster struct {
	mu    sync.RWMutex
	names []string
}

// Names returns the current operator roster.
func (o *OpsRoster) Names() []string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := make([]string, len(o.names))
	copy(out, o.names)
	return out
}

func (o *OpsRoster) set(names []string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.names = names
}

// ForbiddenTable is a concurrency-safe, hot-reloadable forbidden-command
// rule table.
type ForbiddenTable struct {
	mu    sync.RWMutex
	rules []bans.ForbiddenRule
}

// Rules returns the current forbidden-command table.
func (f *ForbiddenTable) Rules() []bans.ForbiddenRule {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]bans.ForbiddenRule, len(f.rules))
	copy(out, f.rules)
	return out
}

func (f *ForbiddenTable) set(rules []bans.ForbiddenRule) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rules = rules
}

// Watcher reloads OpsRoster and ForbiddenTable whenever their backing
// files change on disk. A reload failure (malformed file) is logged and
// the previous in-memory table is retained.
type Watcher struct {
	log *slog.Logger

	opsPath       string
	forbiddenPath string
	ops           *OpsRoster
	forbidden     *ForbiddenTable

	onForbiddenReload func([]bans.ForbiddenRule)

	watcher *fsnotify.Watcher
	stop    chan struct{}
	wg      sync.WaitGroup
}

// NewWatcher loads both files once synchronously (populating ops and
// forbidden with their initial contents) and prepares an fsnotify watch
// on their containing directories. onForbiddenReload, if non-nil, is
// invoked with the freshly reloaded rule table after every successful
// reload — used to push the table into a live bans.Registry.
func NewWatcher(log *slog.Logger, opsPath, forbiddenPath string, onForbiddenReload func([]bans.ForbiddenRule)) (*Watcher, error) {
	if log == nil {
		log = slog.Default()
	}
	w := &Watcher{
		log:               log,
		opsPath:           opsPath,
		forbiddenPath:     forbiddenPath,
		ops:               &OpsRoster{},
		forbidden:         &ForbiddenTable{},
		onForbiddenReload: onForbiddenReload,
		stop:              make(chan struct{}),
	}

	w.reloadOps()
	w.reloadForbidden()

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w.watcher = fsw

	dirs := map[string]struct{}{
		filepath.Dir(opsPath):       {},
		filepath.Dir(forbiddenPath): {},
	}
	for dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			w.log.Warn("failed to watch directory for hot reload", "dir", dir, "error", err)
		}
	}

	return w, nil
}

// Ops returns the hot-reloadable operator roster.
func (w *Watcher) Ops() *OpsRoster { return w.ops }

// Forbidden returns the hot-reloadable forbidden-command table.
func (w *Watcher) Forbidden() *ForbiddenTable { return w.forbidden }

// Start launches the debounced watch loop.
func (w *Watcher) Start() {
	w.wg.Add(1)
	go w.loop()
}

// Shutdown stops the watch loop and releases the fsnotify watcher.
func (w *Watcher) Shutdown() {
	close(w.stop)
	w.wg.Wait()
	_ = w.watcher.Close()
}

func (w *Watcher) loop() {
	defer w.wg.Done()
	var debounce *time.Timer
	pending := make(map[string]struct{})

	fire := func() {
		for path := range pending {
			switch path {
			case w.opsPath:
				w.reloadOps()
			case w.forbiddenPath:
				w.reloadForbidden()
			}
		}
		pending = make(map[string]struct{})
	}

	for {
		var timerC <-chan time.Time
		if debounce != nil {
			timerC = debounce.C
		}
		select {
		case <-w.stop:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if ev.Name != w.opsPath && ev.Name != w.forbiddenPath {
				continue
			}
			pending[ev.Name] = struct{}{}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.NewTimer(DebounceWindow)
		case <-timerC:
			fire()
			debounce = nil
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("hot reload watcher error", "error", err)
		}
	}
}

func (w *Watcher) reloadOps() {
	names, err := opsfile.Load(w.opsPath)
	if err != nil {
		w.log.Warn("failed to reload operator list, keeping previous table", "path", w.opsPath, "error", err)
		return
	}
	w.ops.set(names)
}

func (w *Watcher) reloadForbidden() {
	rules, err := bans.LoadForbiddenRules(w.forbiddenPath)
	if err != nil {
		w.log.Warn("failed to reload forbidden-command list, keeping previous table", "path", w.forbiddenPath, "error", err)
		return
	}
	w.forbidden.set(rules)
	if w.onForbiddenReload != nil {
		w.onForbiddenReload(rules)
	}
}
