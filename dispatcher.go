package fswatch

import "sync"

// closerTable is the facade's per-path closer table (spec §4.7 step 5:
// "Record the returned closer in the facade's per-path closer table").
type closerTable struct {
	mu      sync.Mutex
	closers map[string][]func()
}

func newCloserTable() *closerTable {
	return &closerTable{closers: make(map[string][]func())}
}

func (t *closerTable) record(path string, closer func()) {
	if closer == nil {
		return
	}
	t.mu.Lock()
	t.closers[path] = append(t.closers[path], closer)
	t.mu.Unlock()
}

func (t *closerTable) closeAll() {
	t.mu.Lock()
	all := t.closers
	t.closers = make(map[string][]func())
	t.mu.Unlock()
	for _, closers := range all {
		for _, c := range closers {
			c()
		}
	}
}

// AddDispatcher implements spec §4.7: the entry point for any new path,
// stat it, classify it, route it to the right watcher.
type addDispatcher struct {
	collab  *collab
	closers *closerTable
}

// add implements spec §4.7's add(path, initialAdd, priorFilters, depth,
// target) -> void.
func (d *addDispatcher) add(path string, initialAdd bool, prior *watchHelpers, depth int, target string) {
	if d.collab.isClosed() {
		d.collab.ready.done()
		return
	}
	if d.collab.isIgnored(path, nil) {
		d.collab.ready.done()
		return
	}

	helpers := d.collab.getWatchHelpers(path, prior)

	fi, err := lstatPath(helpers.watchPath)
	if err != nil {
		if !isVanished(err) {
			d.collab.handleError(err)
		}
		d.collab.ready.done()
		return
	}
	if d.collab.isIgnored(helpers.watchPath, fi) {
		d.collab.ready.done()
		return
	}

	switch {
	case fi.IsDir():
		d.addDir(helpers.watchPath, fi, initialAdd, helpers, depth, target)
	case isSymlink(fi):
		d.addSymlink(helpers.watchPath, fi, initialAdd, helpers, depth, path)
	default:
		d.addFile(helpers.watchPath, fi, initialAdd)
	}
}

func (d *addDispatcher) addFile(path string, fi FileStat, initialAdd bool) {
	closer, err := d.collab.watchFile(path, fi, initialAdd)
	if err != nil {
		d.collab.handleError(err)
		d.collab.ready.done()
		return
	}
	d.closers.record(path, closer)
	d.collab.ready.done()
}

func (d *addDispatcher) addDir(path string, fi FileStat, initialAdd bool, helpers *watchHelpers, depth int, target string) {
	dw := &dirWatcher{collab: d.collab, dispatcher: d, closers: d.closers}
	closer, err := dw.watch(path, initialAdd, helpers, depth, target)
	if err != nil {
		d.collab.handleError(err)
		d.collab.ready.done()
		return
	}
	d.closers.record(path, closer)
	d.collab.ready.done()
}

// addSymlink implements spec §4.7's symlink classification branch: record
// the basename under the parent's WatchedDir, emit add, hand the *parent*
// to DirWatcher with target = this symlink's path, then asynchronously
// resolve and remember the real target.
func (d *addDispatcher) addSymlink(path string, fi FileStat, initialAdd bool, helpers *watchHelpers, depth int, originalPath string) {
	parentDir, _ := splitPath(path)
	d.collab.trackAdded(path)

	if !(initialAdd && d.collab.options.IgnoreInitial) {
		if h := d.collab.throttle(throttleAdd, path, 0); h != nil {
			d.collab.emit(Add, path, fi)
		}
	}

	dw := &dirWatcher{collab: d.collab, dispatcher: d, closers: d.closers}
	closer, err := dw.watch(parentDir, initialAdd, helpers, depth, path)
	if err != nil {
		d.collab.handleError(err)
		d.collab.ready.done()
		return
	}
	d.closers.record(parentDir, closer)

	go func() {
		if _, err := d.collab.symlinks.handle(path); err != nil {
			// Resolution failure is not fatal: the symlink has already
			// been reported as added; only cycle/target bookkeeping is
			// lost for this entry.
			return
		}
	}()
	d.collab.ready.done()
}
