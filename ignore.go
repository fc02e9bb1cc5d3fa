package fswatch

// IgnoreFunc is the facade's _isIgnored(path, stats?) collaborator (spec
// §6). stat is nil when the predicate is evaluated before any stat call has
// happened yet (spec §4.7 step 1: "if the path is ignored ... emit ready-tick
// and return", evaluated before stat'ing).
type IgnoreFunc func(path string, stat FileStat) bool

// chainIgnore combines a user-supplied predicate with the always-ignored
// dotfile-free default chokidar-style watchers use: nothing is ignored by
// default beyond what the caller configures, since unlike chokidar this
// engine has no opinion about VCS directories baked in, that decision
// belongs entirely to the caller's Ignored func.
func chainIgnore(fn IgnoreFunc) IgnoreFunc {
	if fn == nil {
		return func(string, FileStat) bool { return false }
	}
	return fn
}
