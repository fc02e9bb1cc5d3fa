package fswatch

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestNativeWatchRegistrySubscribeReceivesChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.txt")
	if err := os.WriteFile(path, []byte("v1"), 0o644); err != nil {
		t.Fatal(err)
	}

	r := NewNativeWatchRegistry(func(string, string) {})
	var mu sync.Mutex
	var gotChange bool

	closer, err := r.subscribe(path, true, false,
		func(kind RawKind, entryPath string) {
			mu.Lock()
			gotChange = true
			mu.Unlock()
		},
		func(error) {},
		nil,
	)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer closer()

	if err := os.WriteFile(path, []byte("v2"), 0o644); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		got := gotChange
		mu.Unlock()
		if got {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Error("native registry never reported the write")
}

func TestNativeWatchRegistryMultiplexesOneHandle(t *testing.T) {
	dir := t.TempDir()

	var removeCalls int
	var mu sync.Mutex
	r := NewNativeWatchRegistry(func(d, b string) {
		mu.Lock()
		removeCalls++
		mu.Unlock()
	})

	closerA, err := r.subscribe(dir, true, true, func(RawKind, string) {}, func(error) {}, nil)
	if err != nil {
		t.Fatalf("subscribe A: %v", err)
	}
	closerB, err := r.subscribe(dir, true, true, func(RawKind, string) {}, func(error) {}, nil)
	if err != nil {
		t.Fatalf("subscribe B: %v", err)
	}

	r.mu.Lock()
	n := len(r.entries)
	r.mu.Unlock()
	if n != 1 {
		t.Errorf("registry has %d entries for one path with two subscribers, want 1", n)
	}

	closerA()
	r.mu.Lock()
	_, stillPresent := r.entries[dir]
	r.mu.Unlock()
	if !stillPresent {
		t.Error("entry removed after only one of two subscribers closed")
	}

	closerB()
	r.mu.Lock()
	_, present := r.entries[dir]
	r.mu.Unlock()
	if present {
		t.Error("entry still present after the last subscriber closed")
	}
}

func TestNativeWatchRegistryUnsharedNonPersistent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.txt")
	os.WriteFile(path, []byte("v1"), 0o644)

	r := NewNativeWatchRegistry(func(string, string) {})
	var mu sync.Mutex
	var calls int

	closer, err := r.subscribe(path, false, false,
		func(RawKind, string) {
			mu.Lock()
			calls++
			mu.Unlock()
		},
		func(error) {},
		nil,
	)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	r.mu.Lock()
	_, shared := r.entries[path]
	r.mu.Unlock()
	if shared {
		t.Error("non-persistent subscription registered a shared entry")
	}

	closer()
}
