package fswatch

import "testing"

func TestHasGlobMeta(t *testing.T) {
	cases := map[string]bool{
		"/a/b/c.txt":  false,
		"/a/*.txt":    true,
		"/a/b?c":      true,
		"/a/[abc]":    true,
		"/a/{b,c}":    true,
		"plainstring": false,
	}
	for in, want := range cases {
		if got := hasGlobMeta(in); got != want {
			t.Errorf("hasGlobMeta(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestSplitGlobRootNoMeta(t *testing.T) {
	root, pattern, hasGlob, err := splitGlobRoot(sep + "a" + sep + "b")
	if err != nil {
		t.Fatal(err)
	}
	if hasGlob || pattern != nil {
		t.Errorf("splitGlobRoot with no metacharacters reported hasGlob=%v", hasGlob)
	}
	if root != sep+"a"+sep+"b" {
		t.Errorf("root = %q, want unchanged path", root)
	}
}

func TestSplitGlobRootSplitsAtFirstMetaComponent(t *testing.T) {
	path := sep + "a" + sep + "b" + sep + "*.txt"
	root, pattern, hasGlob, err := splitGlobRoot(path)
	if err != nil {
		t.Fatal(err)
	}
	if !hasGlob || pattern == nil {
		t.Fatal("splitGlobRoot did not detect the glob component")
	}
	wantRoot := sep + "a" + sep + "b"
	if root != wantRoot {
		t.Errorf("root = %q, want %q", root, wantRoot)
	}
	if !pattern.Match(sep + "a" + sep + "b" + sep + "file.txt") {
		t.Error("compiled pattern did not match an expected file")
	}
	if pattern.Match(sep + "a" + sep + "b" + sep + "c" + sep + "file.txt") {
		t.Error("compiled pattern matched a path nested deeper than the glob allows")
	}
}
