package fswatch

import (
	"sync"
	"time"
)

// throttleAction identifies which kind of work a throttle entry suppresses,
// per spec §3 "ThrottleLedger" / §4.3.
type throttleAction uint8

const (
	throttleAdd throttleAction = iota
	throttleAddDir
	throttleChange
	throttleUnlink
	throttleUnlinkDir
	throttleReaddir
	throttleWatch
)

// throttleKey is the ThrottleLedger key: a (action, path) pair.
type throttleKey struct {
	action throttleAction
	path   string
}

// throttleHandle is returned by Throttler.throttle while its window is open.
// clear reports whether any further call arrived while the window was open,
// signalling the caller (almost always DirWatcher) that it should re-run
// once more to catch whatever raced in.
type throttleHandle struct {
	t         *Throttler
	key       throttleKey
	suppressed *bool
}

func (h *throttleHandle) clear() bool {
	h.t.mu.Lock()
	defer h.t.mu.Unlock()
	delete(h.t.deadlines, h.key)
	return *h.suppressed
}

// Throttler implements the per-(action,path) suppression window described
// in spec §4.3, grounded on the debounce-coalescing idiom shown by the
// retrieval pack's fs-watch debouncers (time.AfterFunc-driven windows with a
// shared mutex guarding the pending set), adapted here to a suppress/replay
// contract instead of a coalesce-then-fire one because DirWatcher needs a
// synchronous "may I proceed" answer, not an async batched callback.
type Throttler struct {
	mu        sync.Mutex
	deadlines map[throttleKey]*bool
}

// NewThrottler returns an empty ThrottleLedger.
func NewThrottler() *Throttler {
	return &Throttler{deadlines: make(map[throttleKey]*bool)}
}

// throttle implements spec §4.3: returns a handle if no active entry exists
// for (action, path); otherwise records that a call was suppressed and
// returns nil.
func (t *Throttler) throttle(action throttleAction, path string, window time.Duration) *throttleHandle {
	key := throttleKey{action, path}
	t.mu.Lock()
	if suppressed, active := t.deadlines[key]; active {
		*suppressed = true
		t.mu.Unlock()
		return nil
	}
	suppressed := new(bool)
	t.deadlines[key] = suppressed
	t.mu.Unlock()

	h := &throttleHandle{t: t, key: key, suppressed: suppressed}
	// A zero window (add/addDir dedup-only per spec §4.3) still needs the
	// entry to expire on its own: AfterFunc(0, ...) schedules the clear for
	// "as soon as possible" rather than "never", which is what dedup-only
	// means in a cooperative, single-threaded event loop.
	time.AfterFunc(window, func() {
		t.mu.Lock()
		if t.deadlines[key] == suppressed {
			delete(t.deadlines, key)
		}
		t.mu.Unlock()
	})
	return h
}
