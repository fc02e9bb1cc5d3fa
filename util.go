package fswatch

import (
	"os"
	"path/filepath"
)

const sep = string(os.PathSeparator)

// splitPath mirrors the teacher's Split: it separates a clean absolute path
// into its parent directory and basename without the allocation overhead of
// filepath.Split's trailing-separator semantics.
func splitPath(s string) (dir, base string) {
	if i := lastIndexSep(s); i != -1 {
		if i == 0 {
			return sep, s[1:]
		}
		return s[:i], s[i+1:]
	}
	return "", s
}

func basename(s string) string {
	if i := lastIndexSep(s); i != -1 {
		return s[i+1:]
	}
	return s
}

func lastIndexSep(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == os.PathSeparator {
			return i
		}
	}
	return -1
}

// cleanAbs normalizes a user-supplied path into the canonical WatchedPath
// key described in spec §3: absolute, clean, trailing-slash insensitive.
func cleanAbs(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.Clean(abs), nil
}

func isVanished(err error) bool {
	return os.IsNotExist(err)
}
