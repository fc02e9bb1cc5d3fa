package fswatch

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

// newCollectingCollab builds a *collab wired to a buffered channel of
// emitted events instead of a real facade, for testing FileWatcher/
// DirWatcher in isolation.
func newCollectingCollab(opts Options) (*collab, chan EventInfo) {
	c := &collab{
		options:    opts,
		throttler:  NewThrottler(),
		symlinks:   NewSymlinkResolver(opts.FollowSymlinks),
		dirs:       NewWatchedDirRegistry(),
		isIgnored:  func(string, FileStat) bool { return false },
		closedFlag: new(atomic.Bool),
	}
	c.native = NewNativeWatchRegistry(c.remove)
	c.polling = NewPollingWatchRegistry()
	c.ready = newReadyBarrier(func() {})
	ch := make(chan EventInfo, 64)
	c.emitFn = func(action Action, path string, stat FileStat) {
		ch <- newEvent(action, path, stat)
	}
	c.errorFn = func(err error) bool { return false }
	c.rawFn = func(RawEvent) {}
	return c, ch
}

func waitForAction(t *testing.T, ch <-chan EventInfo, want Action, path string) EventInfo {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case e := <-ch:
			if e.Action() == want && e.Path() == path {
				return e
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s on %q", want, path)
		}
	}
}

func TestFileWatcherEmitsInitialAdd(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.txt")
	os.WriteFile(path, []byte("v1"), 0o644)

	c, ch := newCollectingCollab(Options{Persistent: true})
	fi, err := statPath(path)
	if err != nil {
		t.Fatal(err)
	}
	closer, err := c.watchFile(path, fi, true)
	if err != nil {
		t.Fatal(err)
	}
	defer closer()

	waitForAction(t, ch, Add, path)
}

func TestFileWatcherSuppressesInitialAddWhenIgnoreInitial(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.txt")
	os.WriteFile(path, []byte("v1"), 0o644)

	c, ch := newCollectingCollab(Options{Persistent: true, IgnoreInitial: true})
	fi, _ := statPath(path)
	closer, err := c.watchFile(path, fi, true)
	if err != nil {
		t.Fatal(err)
	}
	defer closer()

	select {
	case e := <-ch:
		t.Fatalf("unexpected event with IgnoreInitial set: %v", e)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestFileWatcherEmitsChangeViaPolling(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.txt")
	os.WriteFile(path, []byte("v1"), 0o644)

	c, ch := newCollectingCollab(Options{
		Persistent: true,
		UsePolling: true,
		Interval:   15 * time.Millisecond,
	})
	fi, _ := statPath(path)
	closer, err := c.watchFile(path, fi, true)
	if err != nil {
		t.Fatal(err)
	}
	defer closer()

	waitForAction(t, ch, Add, path)

	time.Sleep(30 * time.Millisecond)
	os.WriteFile(path, []byte("v2-longer-content"), 0o644)

	waitForAction(t, ch, Change, path)
}
