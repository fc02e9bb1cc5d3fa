package fswatch

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// nativeListener is the processed callback a subscriber registers through
// NativeWatchRegistry.subscribe. It receives only the translated kind and
// entry path, no stat; FileWatcher/DirWatcher restat as needed per spec
// §4.5/§4.6.
type nativeListener func(kind RawKind, entryPath string)

// nativeEntry is spec §3's NativeWatchEntry: {listeners[], errHandlers[],
// rawEmitters[], handle, unusable}, multiplexing N logical subscribers onto
// one *fsnotify.Watcher, grounded on the teacher's watchpoint.go map-keyed
// fan-out (watchpoint.Dispatch iterating registered channels) adapted from
// a channel-keyed map to a slot-indexed one so closers can be handed back
// as plain funcs instead of requiring the caller to keep its own channel
// identity around.
type nativeEntry struct {
	mu          sync.Mutex
	path        string
	handle      *fsnotify.Watcher
	listeners   map[int]nativeListener
	errHandlers map[int]func(error)
	rawEmitters map[int]func(RawEvent)
	nextSlot    int
	unusable    bool
	wasDir      bool // stat recorded at creation time, for rename compensation
}

// NativeWatchRegistry implements spec §4.1. It is kept per-facade (see
// SPEC_FULL §10 / REDESIGN guidance) rather than process-global, but
// preserves the source's reference-counted multiplex-one-handle-per-path
// and "unusable" leak-on-purpose semantics.
type NativeWatchRegistry struct {
	mu      sync.Mutex
	entries map[string]*nativeEntry

	// remove is the facade's _remove(dir, basename) collaborator (spec §6),
	// invoked by rename compensation.
	remove func(dir, basename string)
}

// NewNativeWatchRegistry constructs an empty registry bound to the given
// _remove collaborator.
func NewNativeWatchRegistry(remove func(dir, basename string)) *NativeWatchRegistry {
	return &NativeWatchRegistry{
		entries: make(map[string]*nativeEntry),
		remove:  remove,
	}
}

// subscribe implements spec §4.1's subscribe operation.
func (r *NativeWatchRegistry) subscribe(
	absPath string,
	persistent bool,
	wasDir bool,
	listener nativeListener,
	errHandler func(error),
	rawEmitter func(RawEvent),
) (closer func(), err error) {
	if !persistent {
		w, err := fsnotify.NewWatcher()
		if err != nil {
			return nil, err
		}
		if err := w.Add(absPath); err != nil {
			w.Close()
			return nil, err
		}
		stop := make(chan struct{})
		go r.unshared(w, absPath, wasDir, listener, rawEmitter, stop)
		return sync.OnceFunc(func() {
			close(stop)
			w.Close()
		}), nil
	}

	r.mu.Lock()
	entry, ok := r.entries[absPath]
	if !ok {
		w, err := fsnotify.NewWatcher()
		if err != nil {
			r.mu.Unlock()
			return nil, err
		}
		if err := w.Add(absPath); err != nil {
			w.Close()
			r.mu.Unlock()
			return nil, err
		}
		entry = &nativeEntry{
			path:        absPath,
			handle:      w,
			listeners:   make(map[int]nativeListener),
			errHandlers: make(map[int]func(error)),
			rawEmitters: make(map[int]func(RawEvent)),
			wasDir:      wasDir,
		}
		r.entries[absPath] = entry
		go r.dispatch(entry)
	}
	slot := entry.nextSlot
	entry.nextSlot++
	entry.mu.Lock()
	entry.listeners[slot] = listener
	entry.errHandlers[slot] = errHandler
	entry.rawEmitters[slot] = rawEmitter
	entry.mu.Unlock()
	r.mu.Unlock()

	return sync.OnceFunc(func() { r.unsubscribe(absPath, slot) }), nil
}

func (r *NativeWatchRegistry) unsubscribe(absPath string, slot int) {
	r.mu.Lock()
	entry, ok := r.entries[absPath]
	if !ok {
		r.mu.Unlock()
		return
	}
	entry.mu.Lock()
	delete(entry.listeners, slot)
	delete(entry.errHandlers, slot)
	delete(entry.rawEmitters, slot)
	empty := len(entry.listeners) == 0 && len(entry.errHandlers) == 0 && len(entry.rawEmitters) == 0
	unusable := entry.unusable
	entry.mu.Unlock()
	if empty {
		delete(r.entries, absPath)
	}
	r.mu.Unlock()

	// A handle flagged unusable is never closed: per spec §3/§7 closing it
	// after a fatal native error can crash the host. It leaks deliberately.
	if empty && !unusable {
		entry.handle.Close()
	}
}

func (r *NativeWatchRegistry) unshared(
	w *fsnotify.Watcher,
	watched string,
	wasDir bool,
	listener nativeListener,
	rawEmitter func(RawEvent),
	stop <-chan struct{},
) {
	for {
		select {
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			kind, entryPath := translate(watched, ev)
			if rawEmitter != nil {
				rawEmitter(RawEvent{Kind: kind, Entry: entryPath, WatchedPath: watched})
			}
			if listener != nil {
				listener(kind, entryPath)
			}
		case <-w.Errors:
		case <-stop:
			return
		}
	}
}

// dispatch is the per-entry goroutine reading off the shared *fsnotify.Watcher
// and fanning out to every multiplexed subscriber, plus running rename
// compensation and the descendant broadcast.
func (r *NativeWatchRegistry) dispatch(entry *nativeEntry) {
	for {
		select {
		case ev, ok := <-entry.handle.Events:
			if !ok {
				return
			}
			r.handleEvent(entry, ev)
		case err, ok := <-entry.handle.Errors:
			if !ok {
				return
			}
			r.handleError(entry, err)
		}
	}
}

func (r *NativeWatchRegistry) handleEvent(entry *nativeEntry, ev fsnotify.Event) {
	kind, entryPath := translate(entry.path, ev)

	entry.mu.Lock()
	listeners := cloneListeners(entry.listeners)
	rawEmitters := cloneRawEmitters(entry.rawEmitters)
	entry.mu.Unlock()

	raw := RawEvent{Kind: kind, Entry: entryPath, WatchedPath: entry.path}
	for _, emit := range rawEmitters {
		if emit != nil {
			emit(raw)
		}
	}
	for _, l := range listeners {
		if l != nil {
			l(kind, entryPath)
		}
	}

	if kind == RawRename {
		r.renameCompensation(entry)
	}

	// Descendant broadcast (spec §4.1): reroute to the child path's own
	// entry when the event reports a non-empty relative basename.
	if entryPath != "" {
		child := filepath.Join(entry.path, entryPath)
		if child != entry.path {
			r.broadcastDescendant(child, kind, raw)
		}
	}
}

func (r *NativeWatchRegistry) broadcastDescendant(child string, kind RawKind, raw RawEvent) {
	r.mu.Lock()
	ce, ok := r.entries[child]
	r.mu.Unlock()
	if !ok {
		return
	}
	ce.mu.Lock()
	listeners := cloneListeners(ce.listeners)
	rawEmitters := cloneRawEmitters(ce.rawEmitters)
	ce.mu.Unlock()
	childRaw := RawEvent{Kind: kind, Entry: "", WatchedPath: child}
	for _, emit := range rawEmitters {
		if emit != nil {
			emit(childRaw)
		}
	}
	for _, l := range listeners {
		if l != nil {
			l(kind, "")
		}
	}
	_ = raw
}

// renameCompensation implements spec §4.1's rename-on-directory
// compensation: if the watched path itself vanished and the pre-recorded
// stat said directory, synthesize a removal; additionally sweep every
// registry key nested under it that no longer exists.
func (r *NativeWatchRegistry) renameCompensation(entry *nativeEntry) {
	if _, err := os.Lstat(entry.path); err == nil {
		return
	}
	if entry.wasDir {
		dir, base := splitPath(entry.path)
		if r.remove != nil {
			r.remove(dir, base)
		}
	}

	prefix := entry.path + sep
	r.mu.Lock()
	var stranded []string
	for p := range r.entries {
		if strings.HasPrefix(p, prefix) {
			stranded = append(stranded, p)
		}
	}
	r.mu.Unlock()
	for _, p := range stranded {
		if _, err := os.Lstat(p); err == nil {
			continue
		}
		dir, base := splitPath(p)
		if r.remove != nil {
			r.remove(dir, base)
		}
	}
}

func (r *NativeWatchRegistry) handleError(entry *nativeEntry, err error) {
	entry.mu.Lock()
	entry.unusable = true
	handlers := make([]func(error), 0, len(entry.errHandlers))
	for _, h := range entry.errHandlers {
		handlers = append(handlers, h)
	}
	entry.mu.Unlock()

	if runtimeIsWindows() && isEPERM(err) {
		if !probeOpenClose(entry.path) {
			// Probe failed: the error is swallowed per spec §4.1/§7.
			return
		}
	}
	for _, h := range handlers {
		h(err)
	}
}

func cloneListeners(m map[int]nativeListener) []nativeListener {
	out := make([]nativeListener, 0, len(m))
	for _, l := range m {
		out = append(out, l)
	}
	return out
}

func cloneRawEmitters(m map[int]func(RawEvent)) []func(RawEvent) {
	out := make([]func(RawEvent), 0, len(m))
	for _, e := range m {
		out = append(out, e)
	}
	return out
}

// translate implements spec §4.1's raw-event translation from the
// fsnotify.Event vocabulary to this engine's {kind, entryPath} pair.
// Create/Remove/Rename become "rename" (the OS is reporting a name-space
// change the engine must reconcile against WatchedDir); Write/Chmod become
// "change".
func translate(watched string, ev fsnotify.Event) (RawKind, string) {
	kind := RawChange
	if ev.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
		kind = RawRename
	}
	entryPath := ""
	if ev.Name != watched {
		if rel, err := filepath.Rel(watched, ev.Name); err == nil && rel != "." && !strings.HasPrefix(rel, "..") {
			entryPath = rel
		}
	}
	return kind, entryPath
}
