package fswatch

import (
	"path/filepath"
	"strings"
)

// binaryExt is a small, deliberately non-exhaustive set of extensions the
// classifier treats as binary, enough to exercise the EnableBinaryInterval
// option (spec §4.5: "interval is upgraded to binaryInterval when the
// classifier labels the basename as binary").
var binaryExt = map[string]struct{}{
	".png": {}, ".jpg": {}, ".jpeg": {}, ".gif": {}, ".webp": {}, ".ico": {},
	".pdf": {}, ".zip": {}, ".gz": {}, ".tar": {}, ".xz": {}, ".7z": {},
	".mp3": {}, ".mp4": {}, ".mov": {}, ".avi": {}, ".wasm": {},
	".exe": {}, ".dll": {}, ".so": {}, ".dylib": {}, ".bin": {},
}

// isBinaryPath classifies a path by extension alone, no content sniffing,
// matching the cheap basename-only classifier spec §4.5 assumes exists
// upstream of the core.
func isBinaryPath(path string) bool {
	_, ok := binaryExt[strings.ToLower(filepath.Ext(path))]
	return ok
}
