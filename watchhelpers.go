package fswatch

import "github.com/gobwas/glob"

// watchHelpers is spec §6's _getWatchHelpers(path, depth) collaborator
// return value: {watchPath, hasGlob, globFilter, filterPath, filterDir,
// path}. There is no statMethod field: AddDispatcher always lstats
// watchPath. Grounded on syncthing-syncthing's use of
// github.com/gobwas/glob for ignore-pattern matching, the same library
// backs globFilter here.
type watchHelpers struct {
	watchPath  string
	path       string
	hasGlob    bool
	globFilter glob.Glob
	filterPath func(path string, stat FileStat) bool
	filterDir  func(path string) bool
}

// getWatchHelpers implements spec §4.7 step 2: construct helpers for path,
// inheriting glob state from prior when path itself carries none (spec:
// "if they lack glob state but priorFilters carries it, inherit hasGlob,
// globFilter, filterPath, filterDir").
func (c *collab) getWatchHelpers(path string, prior *watchHelpers) *watchHelpers {
	h := &watchHelpers{watchPath: path, path: path}

	if prior != nil && prior.hasGlob {
		h.hasGlob = prior.hasGlob
		h.globFilter = prior.globFilter
	}

	h.filterPath = func(p string, stat FileStat) bool {
		if c.isIgnored(p, stat) {
			return false
		}
		if h.hasGlob && !h.globFilter.Match(p) {
			return false
		}
		return true
	}
	h.filterDir = func(p string) bool {
		// Directories are never excluded purely for failing to match the
		// glob themselves: a glob like /a/**/b.txt must still traverse
		// every intermediate directory to reach matching leaves. They are
		// still excluded by the ignore predicate.
		return !c.isIgnored(p, nil)
	}
	return h
}
