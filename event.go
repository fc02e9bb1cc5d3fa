package fswatch

import "strings"

// Action represents the type of filesystem change the engine emits to a
// subscriber. Unlike the raw kinds reported by the OS primitives (see
// RawKind), an Action has already been reconciled against the WatchedDir
// state: a rename that the OS reports as a single notification may surface
// here as a paired unlinkDir/addDir, or be silently absorbed into a Change.
//
// Signed so callers that need a sentinel for "no action" (SymlinkResolver's
// handled-but-nothing-to-report case) can use -1 without a separate bool.
type Action int8

// The events guaranteed to be present regardless of platform or which of
// the two underlying watch primitives produced them.
const (
	Add Action = iota
	AddDir
	Change
	Unlink
	UnlinkDir
	Ready
	Error
)

var actionstr = map[Action]string{
	Add:       "add",
	AddDir:    "addDir",
	Change:    "change",
	Unlink:    "unlink",
	UnlinkDir: "unlinkDir",
	Ready:     "ready",
	Error:     "error",
}

// String implements fmt.Stringer.
func (a Action) String() string {
	if s, ok := actionstr[a]; ok {
		return s
	}
	return "unknown"
}

// EventInfo describes a single reconciled filesystem change.
//
// It always describes a single event, even if the underlying primitive
// coalesced several changes into one notification. Path is absolute and
// clean. Stat is nil for Unlink, UnlinkDir, Ready and Error.
type EventInfo interface {
	Action() Action
	Path() string
	Stat() FileStat
}

type event struct {
	action Action
	path   string
	stat   FileStat
}

func (e *event) Action() Action { return e.action }
func (e *event) Path() string   { return e.path }
func (e *event) Stat() FileStat { return e.stat }

// String implements fmt.Stringer, used by the CLI driver and test failure
// messages.
func (e *event) String() string {
	var b strings.Builder
	b.WriteString(e.action.String())
	b.WriteString(`: "`)
	b.WriteString(e.path)
	b.WriteString(`"`)
	return b.String()
}

func newEvent(action Action, path string, stat FileStat) EventInfo {
	return &event{action: action, path: path, stat: stat}
}
