package fswatch

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestDispatcher(opts Options) (*addDispatcher, chan EventInfo) {
	c, ch := newCollectingCollab(opts)
	d := &addDispatcher{collab: c, closers: newCloserTable()}
	return d, ch
}

func TestAddDispatcherClassifiesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.txt")
	os.WriteFile(path, []byte("v1"), 0o644)

	d, ch := newTestDispatcher(Options{Persistent: true})
	d.collab.ready.add()
	d.add(path, true, nil, 0, "")
	defer d.closers.closeAll()

	waitForAction(t, ch, Add, path)
}

func TestAddDispatcherClassifiesDirectory(t *testing.T) {
	dir := t.TempDir()

	d, ch := newTestDispatcher(Options{Persistent: true})
	d.collab.ready.add()
	d.add(dir, true, nil, 0, "")
	defer d.closers.closeAll()

	waitForAction(t, ch, AddDir, dir)
}

func TestAddDispatcherSkipsIgnoredPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.txt")
	os.WriteFile(path, []byte("v1"), 0o644)

	c, ch := newCollectingCollab(Options{Persistent: true})
	c.isIgnored = func(p string, stat FileStat) bool { return true }
	d := &addDispatcher{collab: c, closers: newCloserTable()}

	d.collab.ready.add()
	d.add(path, true, nil, 0, "")
	defer d.closers.closeAll()

	select {
	case e := <-ch:
		t.Fatalf("unexpected event for ignored path: %v", e)
	case <-time.After(100 * time.Millisecond):
	}
}
