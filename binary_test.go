package fswatch

import "testing"

func TestIsBinaryPath(t *testing.T) {
	cases := map[string]bool{
		"/a/photo.PNG":  true,
		"/a/archive.zip": true,
		"/a/main.go":    false,
		"/a/notes.txt":  false,
		"/a/noext":      false,
	}
	for path, want := range cases {
		if got := isBinaryPath(path); got != want {
			t.Errorf("isBinaryPath(%q) = %v, want %v", path, got, want)
		}
	}
}
