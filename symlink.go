package fswatch

import (
	"os"
	"path/filepath"
	"sync"
)

// symlinkHandled is the sentinel SymlinkMemory records for a target it has
// already visited once, breaking cycles (spec §3 "SymlinkMemory").
const symlinkHandled = "\x00cycle"

// SymlinkResolver implements spec §4.4: bookkeeping for follow-vs-leaf
// symlink handling and cycle breaking, grounded on the teacher's node.go
// map-keyed-by-path memory idiom (Node.Child map, NodeSet dedup) but keyed
// by resolved target rather than tree position, since cycle breaking here
// cares about "have we ever resolved to this real path", not tree shape.
type SymlinkResolver struct {
	followSymlinks bool

	mu      sync.Mutex
	targets map[string]string // leaf mode: symlink path -> last resolved target; follow mode: resolved target -> symlinkHandled
}

// NewSymlinkResolver returns a resolver for the lifetime of one facade
// instance, per spec §3's "SymlinkMemory entries live for the lifetime of
// the owning facade instance."
func NewSymlinkResolver(followSymlinks bool) *SymlinkResolver {
	return &SymlinkResolver{
		followSymlinks: followSymlinks,
		targets:        make(map[string]string),
	}
}

// symlinkOutcome is returned by handle to tell DirWatcher/AddDispatcher
// whether to continue processing the entry.
//
// Per spec §9 Open Question: the source's _handleSymlink returns undefined
// in the follow-symlinks branch on first visit, and downstream treats that
// as falsy and continues to recurse. We replicate the two-mode contract
// explicitly instead of relying on a zero value: handled==true means "stop,
// this entry has been dealt with"; handled==false means "continue into the
// entry as if it were its resolved target".
type symlinkOutcome struct {
	handled bool
	action  Action // valid when handled
}

// handle implements the bulk of spec §4.4's dispatch table.
func (r *SymlinkResolver) handle(path string) (symlinkOutcome, error) {
	target, err := filepath.EvalSymlinks(path)
	if err != nil {
		return symlinkOutcome{}, err
	}

	if !r.followSymlinks {
		r.mu.Lock()
		prev, seen := r.targets[path]
		r.targets[path] = target
		r.mu.Unlock()
		if !seen {
			return symlinkOutcome{handled: true, action: Add}, nil
		}
		if prev != target {
			return symlinkOutcome{handled: true, action: Change}, nil
		}
		// Same resolved target as last time: nothing to report, but the
		// entry has still been fully handled as a leaf.
		return symlinkOutcome{handled: true, action: -1}, nil
	}

	r.mu.Lock()
	_, cycle := r.targets[target]
	r.targets[target] = symlinkHandled
	r.mu.Unlock()
	if cycle {
		return symlinkOutcome{handled: true}, nil
	}
	// First visit: signal "continue" so the caller recurses into the real
	// target as though it were encountered directly.
	return symlinkOutcome{handled: false}, nil
}

// isSymlink is a small stat-classification helper shared by AddDispatcher
// and DirWatcher.
func isSymlink(fi os.FileInfo) bool {
	return fi.Mode()&os.ModeSymlink != 0
}
