//go:build windows

package fswatch

import (
	"errors"
	"os"

	"golang.org/x/sys/windows"
)

func runtimeIsWindows() bool { return true }

// isEPERM classifies the error fsnotify's ReadDirectoryChangesW-backed
// watcher surfaces on a handle failure, per spec §4.1/§7 "WatcherEPerm
// (Windows)". Grounded on the teacher's per-OS syscall_*.go split
// (syscall_linux.go / syscall_stub.go), adapted to use golang.org/x/sys
// directly instead of the stdlib syscall package the teacher used, since
// x/sys/windows is the errno source the rest of the retrieval pack
// (lumipallolabs-diskdive) relies on for Windows-specific syscalls.
func isEPERM(err error) bool {
	var errno windows.Errno
	if errors.As(err, &errno) {
		return errno == windows.ERROR_ACCESS_DENIED
	}
	return errors.Is(err, os.ErrPermission)
}

// probeOpenClose attempts to open-then-close the path; success means the
// EPERM was transient and the original error should propagate per spec
// §4.1 ("only if that probe succeeds is the error propagated").
func probeOpenClose(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	f.Close()
	return true
}
