package fswatch

import (
	"sync"
	"sync/atomic"
	"time"
)

// Options mirrors the facade options spec §6 lists as consumed by the core.
type Options struct {
	Persistent           bool
	UsePolling           bool
	Interval             time.Duration
	BinaryInterval       time.Duration
	EnableBinaryInterval bool
	FollowSymlinks       bool
	IgnoreInitial        bool
	Depth                int // negative means unlimited
}

// DefaultOptions matches chokidar-style sane defaults: native watching,
// 100ms polling fallback interval, 300ms for classified-binary paths,
// unlimited recursion depth.
func DefaultOptions() Options {
	return Options{
		Persistent:     true,
		Interval:       100 * time.Millisecond,
		BinaryInterval: 300 * time.Millisecond,
		Depth:          -1,
	}
}

// collab bundles the function-value collaborators spec §6 names
// (_getWatchedDir, _isIgnored, _emit/_emitReady/_handleError, _throttle,
// _remove) plus the two registries and the symlink/throttle state they all
// share. Per §9 DESIGN NOTES ("model as a small set of function values held
// on a config struct, not as open inheritance"), FileWatcher/DirWatcher/
// AddDispatcher all take a *collab instead of embedding the facade.
type collab struct {
	options Options

	native   *NativeWatchRegistry
	polling  *PollingWatchRegistry
	throttler *Throttler
	symlinks *SymlinkResolver
	dirs     *WatchedDirRegistry

	isIgnored func(path string, stat FileStat) bool
	emitFn    func(action Action, path string, stat FileStat)
	rawFn     func(RawEvent)
	errorFn   func(err error) bool // returns true when terminal

	ready *readyBarrier
	closedFlag *atomic.Bool
}

func (c *collab) throttle(action throttleAction, key string, window time.Duration) *throttleHandle {
	return c.throttler.throttle(action, key, window)
}

func (c *collab) emit(action Action, path string, stat FileStat) {
	if c.isClosed() {
		return
	}
	c.emitFn(action, path, stat)
}

func (c *collab) handleError(err error) bool {
	return c.errorFn(err)
}

// trackAdded records path's basename in its parent's WatchedDir. It is the
// single choke point every discovery path (file, directory, symlink) calls
// through, unconditionally, so a rescan's diff against wd.childList() sees
// the child regardless of whether its Add/AddDir was itself throttled or
// suppressed by IgnoreInitial (spec §8 invariant 1).
func (c *collab) trackAdded(path string) {
	dir, base := splitPath(path)
	c.dirs.getOrCreate(dir).add(base)
}

func (c *collab) isClosed() bool {
	return c.closedFlag.Load()
}

// remove is spec §6's _remove(dir, basename) deletion propagator: translate
// a vanished WatchedDir entry into Unlink/UnlinkDir and drop the bookkeeping.
// Whether basename was a file or a directory is inferred from whether
// DirWatcher ever registered a WatchedDir for it, the same trick the
// teacher's node.go Del uses to decide whether to keep walking up and
// pruning empty parents.
func (c *collab) remove(dir, basename string) {
	if c.isClosed() {
		return
	}
	path := dir + sep + basename
	if dir == sep {
		path = sep + basename
	}
	wd := c.dirs.getOrCreate(dir)
	if !wd.has(basename) {
		return
	}
	wd.remove(basename)

	if c.dirs.exists(path) {
		// A removed directory drops its own WatchedDir and everything it
		// still thought it contained, each surfacing as its own
		// unlink/unlinkDir so subscribers see a complete teardown instead
		// of an orphaned branch.
		childWd := c.dirs.getOrCreate(path)
		for _, child := range childWd.childList() {
			c.remove(path, child)
		}
		c.dirs.delete(path)
		c.emit(UnlinkDir, path, nil)
		return
	}

	c.emit(Unlink, path, nil)
}

// binaryAwareInterval implements spec §4.5's interval upgrade: binaryInterval
// is used when EnableBinaryInterval is set and the basename classifies as
// binary.
func (c *collab) binaryAwareInterval(path string) time.Duration {
	if c.options.EnableBinaryInterval && isBinaryPath(path) {
		return c.options.BinaryInterval
	}
	return c.options.Interval
}

// readyBarrier implements spec §4.8: a monotonically incremented counter
// paired with decrement-on-completion, emitting Ready on the zero
// transition exactly once.
type readyBarrier struct {
	mu      sync.Mutex
	count   int
	fired   bool
	emitted func()
}

func newReadyBarrier(emitted func()) *readyBarrier {
	return &readyBarrier{emitted: emitted}
}

// add registers one pending deep add; done must be called exactly once for
// every add call.
func (r *readyBarrier) add() {
	r.mu.Lock()
	r.count++
	r.mu.Unlock()
}

// done decrements the counter and emits Ready exactly once on the zero
// transition, guarded so late decrements never re-fire it (spec §4.8 /
// §9's "single-shot guard").
func (r *readyBarrier) done() {
	r.mu.Lock()
	r.count--
	fire := r.count <= 0 && !r.fired
	if fire {
		r.fired = true
	}
	r.mu.Unlock()
	if fire {
		r.emitted()
	}
}
