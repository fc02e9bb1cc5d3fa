package fswatch

import (
	"os"
	"strings"

	"github.com/gobwas/glob"
)

const globMeta = "*?[{"

// hasGlobMeta reports whether s contains any glob metacharacter understood
// by gobwas/glob.
func hasGlobMeta(s string) bool {
	return strings.ContainsAny(s, globMeta)
}

// splitGlobRoot implements the facade-side half of spec §1's "glob parsing
// ... external collaborator": it separates a user-supplied path argument
// into a concrete filesystem root to watch and, if any component contains
// glob metacharacters, a compiled matcher for the full pattern. Grounded on
// syncthing-syncthing's use of github.com/gobwas/glob for path-pattern
// matching.
func splitGlobRoot(path string) (root string, pattern glob.Glob, hasGlob bool, err error) {
	if !hasGlobMeta(path) {
		return path, nil, false, nil
	}
	parts := strings.Split(path, sep)
	cut := len(parts)
	for i, p := range parts {
		if hasGlobMeta(p) {
			cut = i
			break
		}
	}
	root = strings.Join(parts[:cut], sep)
	if root == "" {
		root = sep
	}
	g, err := glob.Compile(path, os.PathSeparator)
	if err != nil {
		return "", nil, false, err
	}
	return root, g, true, nil
}
