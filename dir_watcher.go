package fswatch

import (
	"os"
	"time"
)

const (
	readdirThrottleWindow = 1000 * time.Millisecond
	dirWatchThrottleWindow = 5 * time.Millisecond
)

// DirWatcher implements spec §4.6: a directory subscription maintaining
// the authoritative child set, diffing on each rescan, recursing
// depth-limited, emitting addDir/add/unlinkDir/unlink.
type dirWatcher struct {
	collab     *collab
	dispatcher *addDispatcher
	closers    *closerTable
}

// watch implements the "initial visit" half of spec §4.6 plus opening the
// event-driven branch, returning the closer AddDispatcher records.
func (dw *dirWatcher) watch(dir string, initialAdd bool, helpers *watchHelpers, depth int, target string) (func(), error) {
	fi, err := statPath(dir)
	if err != nil {
		return nil, err
	}

	parentDir, base := splitPath(dir)
	alreadyTracked := dw.collab.dirs.getOrCreate(parentDir).has(base)

	globOK := !helpers.hasGlob || helpers.globFilter.Match(dir)
	if !(initialAdd && dw.collab.options.IgnoreInitial) && !alreadyTracked && globOK {
		if h := dw.collab.throttle(throttleAddDir, dir, 0); h != nil {
			dw.collab.emit(AddDir, dir, fi)
		}
	}
	dw.collab.trackAdded(dir)
	dw.collab.dirs.getOrCreate(dir) // ensure a WatchedDir exists for dir itself

	var closer func()
	if !dw.depthExceeded(depth) {
		closer, err = dw.collab.native.subscribe(dir, dw.collab.options.Persistent, true,
			func(kind RawKind, entryPath string) {
				dw.onNotify(dir, helpers, depth, target)
			},
			func(err error) { dw.collab.handleError(err) },
			func(raw RawEvent) {
				if dw.collab.rawFn != nil {
					dw.collab.rawFn(raw)
				}
			},
		)
		if err != nil {
			return nil, err
		}
		dw.read(dir, initialAdd, helpers, depth, target)
	}

	return closer, nil
}

func (dw *dirWatcher) depthExceeded(depth int) bool {
	return dw.collab.options.Depth >= 0 && depth > dw.collab.options.Depth
}

// onNotify is the event-driven branch's callback (spec §4.6): ignores the
// mtime==0 deletion transient and otherwise re-runs the scan.
func (dw *dirWatcher) onNotify(dir string, helpers *watchHelpers, depth int, target string) {
	if h := dw.collab.throttle(throttleWatch, dir, dirWatchThrottleWindow); h == nil {
		return
	}
	if _, err := os.Lstat(dir); err != nil {
		// The directory itself vanished; rename compensation in
		// NativeWatchRegistry already routed the removal. Nothing to scan.
		return
	}
	dw.read(dir, false, helpers, depth, target)
}

// read implements spec §4.6's rescan algorithm.
func (dw *dirWatcher) read(dir string, initialAdd bool, helpers *watchHelpers, depth int, target string) {
	var h *throttleHandle
	if !helpers.hasGlob {
		h = dw.collab.throttle(throttleReaddir, dir, readdirThrottleWindow)
		if h == nil {
			return
		}
	}

	wd := dw.collab.dirs.getOrCreate(dir)
	previous := wd.childList()
	prevSet := make(map[string]bool, len(previous))
	for _, p := range previous {
		prevSet[p] = true
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		dw.collab.handleError(err)
		return
	}

	current := make(map[string]bool, len(entries))
	for _, entry := range entries {
		base := entry.Name()
		p := dir + sep + base

		lfi, err := lstatPath(p)
		if err != nil {
			continue // vanished between ReadDir and lstat
		}

		if lfi.IsDir() {
			if !helpers.filterDir(p) {
				continue
			}
		} else if !helpers.filterPath(p, lfi) {
			continue
		}
		current[base] = true

		if isSymlink(lfi) {
			outcome, err := dw.collab.symlinks.handle(p)
			if err == nil && outcome.handled {
				dw.collab.trackAdded(p)
				if outcome.action >= 0 && !prevSet[base] {
					dw.collab.emit(outcome.action, p, lfi)
				}
				continue
			}
		}

		wantsRecurse := (target != "" && base == basename(target)) || (target == "" && !prevSet[base])
		if wantsRecurse {
			dw.collab.ready.add()
			dw.dispatcher.add(p, false, helpers, depth+1, "")
		}
	}

	wasThrottled := false
	if h != nil {
		wasThrottled = h.clear()
	}

	for _, item := range previous {
		if current[item] {
			continue
		}
		p := dir + sep + item
		if helpers.filterDir(p) {
			dw.collab.remove(dir, item)
		}
	}

	if wasThrottled {
		dw.read(dir, false, helpers, depth, target)
	}
}
