package fswatch

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDirWatcherInitialScanReportsChildren(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	d, ch := newTestDispatcher(Options{Persistent: true})
	d.collab.ready.add()
	d.add(dir, true, nil, 0, "")
	defer d.closers.closeAll()

	waitForAction(t, ch, AddDir, dir)
	waitForAction(t, ch, Add, filepath.Join(dir, "a.txt"))
}

func TestDirWatcherRescanDetectsNewFile(t *testing.T) {
	dir := t.TempDir()

	d, ch := newTestDispatcher(Options{Persistent: true})
	d.collab.ready.add()
	d.add(dir, true, nil, 0, "")
	defer d.closers.closeAll()

	waitForAction(t, ch, AddDir, dir)

	// readdirThrottleWindow suppresses a rescan fired right on top of the
	// one DirWatcher.watch already ran for the initial scan.
	time.Sleep(readdirThrottleWindow + 100*time.Millisecond)

	dw := &dirWatcher{collab: d.collab, dispatcher: d, closers: d.closers}
	newFile := filepath.Join(dir, "new.txt")
	if err := os.WriteFile(newFile, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	dw.read(dir, false, d.collab.getWatchHelpers(dir, nil), 0, "")

	waitForAction(t, ch, Add, newFile)
}

func TestDirWatcherRescanDetectsRemovedFile(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "gone.txt")
	if err := os.WriteFile(existing, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	d, ch := newTestDispatcher(Options{Persistent: true})
	d.collab.ready.add()
	d.add(dir, true, nil, 0, "")
	defer d.closers.closeAll()

	waitForAction(t, ch, AddDir, dir)
	waitForAction(t, ch, Add, existing)

	time.Sleep(readdirThrottleWindow + 100*time.Millisecond)

	if err := os.Remove(existing); err != nil {
		t.Fatal(err)
	}
	dw := &dirWatcher{collab: d.collab, dispatcher: d, closers: d.closers}
	dw.read(dir, false, d.collab.getWatchHelpers(dir, nil), 0, "")

	waitForAction(t, ch, Unlink, existing)
}

func TestDirWatcherRescanDoesNotReAddUnchangedFile(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "a.txt")
	if err := os.WriteFile(existing, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	d, ch := newTestDispatcher(Options{Persistent: true})
	d.collab.ready.add()
	d.add(dir, true, nil, 0, "")
	defer d.closers.closeAll()

	waitForAction(t, ch, AddDir, dir)
	waitForAction(t, ch, Add, existing)

	time.Sleep(readdirThrottleWindow + 100*time.Millisecond)

	dw := &dirWatcher{collab: d.collab, dispatcher: d, closers: d.closers}
	dw.read(dir, false, d.collab.getWatchHelpers(dir, nil), 0, "")

	select {
	case e := <-ch:
		t.Fatalf("unexpected event for unchanged file on rescan: %v", e)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestDirWatcherDepthExceeded(t *testing.T) {
	c, _ := newCollectingCollab(Options{Persistent: true, Depth: 0})
	dw := &dirWatcher{collab: c}
	if dw.depthExceeded(0) {
		t.Error("depthExceeded(0) with Depth=0, want false")
	}
	if !dw.depthExceeded(1) {
		t.Error("depthExceeded(1) with Depth=0, want true")
	}

	unlimited, _ := newCollectingCollab(Options{Persistent: true, Depth: -1})
	dwUnlimited := &dirWatcher{collab: unlimited}
	if dwUnlimited.depthExceeded(50) {
		t.Error("depthExceeded with Depth=-1 should never exceed")
	}
}

func TestDirWatcherOnNotifyIgnoresVanishedDir(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "sub")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}

	c, _ := newCollectingCollab(Options{Persistent: true})
	dw := &dirWatcher{collab: c, dispatcher: &addDispatcher{collab: c, closers: newCloserTable()}, closers: newCloserTable()}

	if err := os.Remove(sub); err != nil {
		t.Fatal(err)
	}

	done := make(chan struct{})
	go func() {
		dw.onNotify(sub, c.getWatchHelpers(sub, nil), 0, "")
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("onNotify on a vanished directory did not return")
	}
}
