// Package fswatch implements a cross-platform filesystem-watch engine: a
// de-duplicated, normalized stream of add/addDir/change/unlink/unlinkDir/
// ready/error/raw events multiplexed over an event-driven native watcher
// (github.com/fsnotify/fsnotify) and a polling stat-based fallback.
package fswatch

import (
	"fmt"
	"log"
	"os"
	"sync"
	"sync/atomic"
)

// Config configures a Watcher. The zero value is valid and behaves like
// DefaultOptions with no ignore predicate.
type Config struct {
	Options

	// Ignored is consulted by every path the engine is about to stat, scan
	// or recurse into (spec §6 _isIgnored). A nil Ignored ignores nothing.
	Ignored IgnoreFunc

	// Logger receives operational messages the way the teacher's
	// cmd/notify/main.go logs received events; defaults to
	// log.New(os.Stderr, "fswatch: ", log.LstdFlags).
	Logger *log.Logger
}

// Watcher is the public subscription facade spec §1 scopes out of the core
// as "interface contract only", implemented here so the module is usable
// end to end. It owns the per-path closer table, the ready/emit wiring, and
// compiles any glob patterns passed to Add via github.com/gobwas/glob.
type Watcher struct {
	collab     *collab
	dispatcher *addDispatcher
	closers    *closerTable

	events chan EventInfo
	errors chan error
	raw    chan RawEvent
	readyC chan struct{}

	// sendMu serializes every send against Close: a sender holds RLock for
	// the whole check-then-send, Close holds Lock while flipping closed and
	// closing the channels, so a sender either observes closed==false with
	// the channels still open, or closed==true and never touches them.
	// closed alone (even atomic) can't give that guarantee: a goroutine
	// could pass the check, then have Close store true and close the
	// channel before the goroutine's send runs, which panics.
	sendMu sync.RWMutex
	closed atomic.Bool

	closeOnce sync.Once
	readyOnce sync.Once
	logger    *log.Logger
}

func (w *Watcher) trySendEvent(e EventInfo) {
	w.sendMu.RLock()
	defer w.sendMu.RUnlock()
	if w.closed.Load() {
		return
	}
	select {
	case w.events <- e:
	default:
		w.logger.Printf("dropped %s event for %q: receiver too slow", e.Action(), e.Path())
	}
}

func (w *Watcher) trySendError(err error) {
	w.sendMu.RLock()
	defer w.sendMu.RUnlock()
	if w.closed.Load() {
		return
	}
	select {
	case w.errors <- err:
	default:
		w.logger.Printf("dropped error: %v", err)
	}
}

func (w *Watcher) trySendRaw(re RawEvent) {
	w.sendMu.RLock()
	defer w.sendMu.RUnlock()
	if w.closed.Load() {
		return
	}
	select {
	case w.raw <- re:
	default:
	}
}

// New constructs a Watcher with the given configuration. The returned
// Watcher must eventually be Closed.
func New(cfg Config) *Watcher {
	opts := cfg.Options
	// A caller who never touched Options gets DefaultOptions() wholesale.
	// Once they've set anything, every field is taken exactly as given,
	// Depth: 0 ("don't recurse into subdirectories") and Persistent: false
	// ("an unshared native handle per subscription") are both meaningful,
	// non-default values a zero-value-triggered per-field override would
	// otherwise clobber.
	if opts == (Options{}) {
		opts = DefaultOptions()
	}

	w := &Watcher{
		events: make(chan EventInfo, 64),
		errors: make(chan error, 16),
		raw:    make(chan RawEvent, 64),
		readyC: make(chan struct{}),
		logger: cfg.Logger,
	}
	if w.logger == nil {
		w.logger = log.New(os.Stderr, "fswatch: ", log.LstdFlags)
	}

	ignored := chainIgnore(cfg.Ignored)
	closedFlag := &w.closed

	c := &collab{
		options:    opts,
		throttler:  NewThrottler(),
		symlinks:   NewSymlinkResolver(opts.FollowSymlinks),
		dirs:       NewWatchedDirRegistry(),
		isIgnored:  ignored,
		closedFlag: closedFlag,
	}
	c.native = NewNativeWatchRegistry(c.remove)
	c.polling = NewPollingWatchRegistry()
	c.ready = newReadyBarrier(func() {
		w.readyOnce.Do(func() { close(w.readyC) })
	})
	c.emitFn = func(action Action, path string, stat FileStat) {
		w.trySendEvent(newEvent(action, path, stat))
	}
	c.errorFn = func(err error) bool {
		w.trySendError(err)
		return false
	}
	c.rawFn = func(re RawEvent) {
		w.trySendRaw(re)
	}

	w.collab = c
	w.closers = newCloserTable()
	w.dispatcher = &addDispatcher{collab: c, closers: w.closers}
	return w
}

// Add registers name, a file, directory, or glob pattern, for watching.
// name may be added more than once; the engine de-duplicates subscriptions
// at the registry level (spec §8 property 3).
func (w *Watcher) Add(name string) error {
	if w.closed.Load() {
		return fmt.Errorf("fswatch: Add on closed watcher")
	}
	abs, err := cleanAbs(name)
	if err != nil {
		return err
	}
	root, pattern, hasGlob, err := splitGlobRoot(abs)
	if err != nil {
		return fmt.Errorf("fswatch: invalid glob %q: %w", name, err)
	}

	var prior *watchHelpers
	if hasGlob {
		prior = &watchHelpers{hasGlob: true, globFilter: pattern}
	}

	w.collab.ready.add()
	w.dispatcher.add(root, true, prior, 0, "")
	return nil
}

// Remove drops name (and, for a directory, every child tracked beneath it)
// from the tracked-children bookkeeping and emits Unlink or UnlinkDir for
// each. It does not close the subscriptions already opened for those paths,
// so later changes to them can still produce events, and a rescan of the
// parent directory reports name again if it still exists.
func (w *Watcher) Remove(name string) error {
	abs, err := cleanAbs(name)
	if err != nil {
		return err
	}
	dir, base := splitPath(abs)
	w.collab.remove(dir, base)
	return nil
}

// Close implements spec §5's cancellation contract: synchronous bookkeeping
// (invoke every recorded closer, then flip closed and close the output
// channels under sendMu), after which no further events for any path
// previously watched by this Watcher are emitted (spec §8 property 4).
//
// closers.closeAll runs before the lock is taken: it stops native/polling
// dispatch, which is what eventually stops anything from calling
// trySendEvent/trySendError/trySendRaw at all. Holding sendMu only for the
// closed/close(...) step, not for closeAll, which can block on OS calls,
// is what gives every in-flight sender a consistent view: it either
// completes its send while the channel is still open, or it observes
// closed==true and skips the send, because sendMu forbids any interleaving
// of a send's check-then-send with Close's store-then-close.
func (w *Watcher) Close() error {
	w.closeOnce.Do(func() {
		w.closers.closeAll()

		w.sendMu.Lock()
		w.closed.Store(true)
		close(w.events)
		close(w.errors)
		close(w.raw)
		w.sendMu.Unlock()
	})
	return nil
}

// Events returns the reconciled add/addDir/change/unlink/unlinkDir stream.
func (w *Watcher) Events() <-chan EventInfo { return w.events }

// Errors returns surfaced, non-recoverable errors (spec §7).
func (w *Watcher) Errors() <-chan error { return w.errors }

// Raw returns the verbatim passthrough stream (spec §6 outbound "raw").
func (w *Watcher) Raw() <-chan RawEvent { return w.raw }

// Ready is closed exactly once, after every path supplied before the first
// call has been classified and its initial scan drained (spec §5, §4.8).
func (w *Watcher) Ready() <-chan struct{} { return w.readyC }
