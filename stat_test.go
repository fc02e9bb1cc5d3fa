package fswatch

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSnapshotNil(t *testing.T) {
	if s := snapshot(nil); s != (statSnapshot{}) {
		t.Errorf("snapshot(nil) = %+v, want zero value", s)
	}
}

func TestSnapshotTracksSizeAndMtime(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.txt")
	if err := os.WriteFile(path, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}
	fi, err := statPath(path)
	if err != nil {
		t.Fatal(err)
	}
	s := snapshot(fi)
	if s.size != int64(len("hello")) {
		t.Errorf("size = %d, want 5", s.size)
	}
	if s.mtime == 0 {
		t.Errorf("mtime = 0, want nonzero")
	}
}

func TestLstatPathDoesNotFollowSymlink(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "target.txt")
	if err := os.WriteFile(target, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	link := filepath.Join(dir, "link")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}
	fi, err := lstatPath(link)
	if err != nil {
		t.Fatal(err)
	}
	if !isSymlink(fi) {
		t.Errorf("lstatPath(link) did not report a symlink mode")
	}
}
