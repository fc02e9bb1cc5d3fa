//go:build !windows

package fswatch

func runtimeIsWindows() bool { return false }

// isEPERM and probeOpenClose are Windows-only recovery paths per spec §4.1;
// on every other OS the native error is always fatal and fans out directly,
// mirroring the teacher's syscall_stub.go no-op counterpart to
// syscall_linux.go.
func isEPERM(error) bool          { return false }
func probeOpenClose(string) bool  { return false }
