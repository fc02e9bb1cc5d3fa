package fswatch

import (
	"sync"
	"time"
)

// pollingListener receives (curr, prev) exactly as spec §4.2 describes the
// polling primitive's callback. currStat is nil when the path has vanished
// (the comparison snapshot still carries mtime==0 in that case).
type pollingListener func(currStat FileStat, curr, prev statSnapshot)

type pollingOptions struct {
	persistent bool
	interval   time.Duration
}

// stronger reports whether o is a strictly stronger subscription request
// than other, per spec §3's PollingWatchEntry upgrade rule: "higher
// persistence or a shorter interval".
func (o pollingOptions) stronger(other pollingOptions) bool {
	if o.persistent && !other.persistent {
		return true
	}
	if o.interval < other.interval {
		return true
	}
	return false
}

type pollingSlot struct {
	listener   pollingListener
	rawEmitter func(RawEvent)
}

// pollingEntry is spec §3's PollingWatchEntry.
type pollingEntry struct {
	mu       sync.Mutex
	path     string
	opts     pollingOptions
	slots    map[int]*pollingSlot
	nextSlot int
	stop     chan struct{}
	last     statSnapshot
}

// PollingWatchRegistry implements spec §4.2, grounded on the retrieval
// pack's fspoll.go Watcher-interface idiom (a stat-polling counterpart to
// fsnotify with the same Add/Remove/Events/Errors shape); unlike that
// stub, this one actually drives a time.Ticker and diffs snapshots.
type PollingWatchRegistry struct {
	mu      sync.Mutex
	entries map[string]*pollingEntry
}

func NewPollingWatchRegistry() *PollingWatchRegistry {
	return &PollingWatchRegistry{entries: make(map[string]*pollingEntry)}
}

// subscribe implements spec §4.2's single operation, including the upgrade
// rule.
func (r *PollingWatchRegistry) subscribe(
	absPath string,
	opts pollingOptions,
	listener pollingListener,
	rawEmitter func(RawEvent),
) func() {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[absPath]
	if ok && opts.stronger(entry.opts) {
		close(entry.stop)
		entry = r.reopen(absPath, opts, entry)
	} else if !ok {
		entry = r.open(absPath, opts)
	}

	slot := entry.nextSlot
	entry.nextSlot++
	entry.mu.Lock()
	entry.slots[slot] = &pollingSlot{listener: listener, rawEmitter: rawEmitter}
	entry.mu.Unlock()

	return sync.OnceFunc(func() { r.unsubscribe(absPath, slot) })
}

func (r *PollingWatchRegistry) open(absPath string, opts pollingOptions) *pollingEntry {
	fi, _ := statPath(absPath)
	entry := &pollingEntry{
		path:  absPath,
		opts:  opts,
		slots: make(map[int]*pollingSlot),
		stop:  make(chan struct{}),
		last:  snapshot(fi),
	}
	r.entries[absPath] = entry
	go r.poll(entry)
	return entry
}

// reopen carries over listener/raw arrays to a freshly opened, stronger
// handle per spec §3's upgrade rule: "release the current handle, carry the
// listener and raw arrays, then reopen".
func (r *PollingWatchRegistry) reopen(absPath string, opts pollingOptions, old *pollingEntry) *pollingEntry {
	old.mu.Lock()
	carried := old.slots
	nextSlot := old.nextSlot
	old.mu.Unlock()

	fi, _ := statPath(absPath)
	entry := &pollingEntry{
		path:     absPath,
		opts:     opts,
		slots:    carried,
		nextSlot: nextSlot,
		stop:     make(chan struct{}),
		last:     snapshot(fi),
	}
	r.entries[absPath] = entry
	go r.poll(entry)
	return entry
}

func (r *PollingWatchRegistry) unsubscribe(absPath string, slot int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.entries[absPath]
	if !ok {
		return
	}
	entry.mu.Lock()
	delete(entry.slots, slot)
	empty := len(entry.slots) == 0
	entry.mu.Unlock()
	if empty {
		close(entry.stop)
		delete(r.entries, absPath)
	}
}

// poll drives the stat-comparison loop for one entry.
func (r *PollingWatchRegistry) poll(entry *pollingEntry) {
	interval := entry.opts.interval
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			fi, err := statPath(entry.path)
			curr := snapshot(fi)
			if err != nil {
				curr = statSnapshot{}
			}

			entry.mu.Lock()
			prev := entry.last
			entry.last = curr
			slots := make([]*pollingSlot, 0, len(entry.slots))
			for _, s := range entry.slots {
				slots = append(slots, s)
			}
			entry.mu.Unlock()

			for _, s := range slots {
				if s.rawEmitter != nil {
					s.rawEmitter(RawEvent{Kind: RawChange, WatchedPath: entry.path})
				}
			}
			// Processed listener fires per spec §4.2: size changed, mtime
			// advanced, or mtime==0 (the disappearance transient).
			if curr.size != prev.size || curr.mtime > prev.mtime || curr.mtime == 0 {
				for _, s := range slots {
					if s.listener != nil {
						s.listener(fi, curr, prev)
					}
				}
			}
		case <-entry.stop:
			return
		}
	}
}
