package fswatch

// RawKind is the event kind reported by the event-driven OS primitive
// before any reconciliation against WatchedDir state (spec §4.1: "the
// native primitive reports {kind, entryPath}").
type RawKind uint8

const (
	RawRename RawKind = iota
	RawChange
)

func (k RawKind) String() string {
	if k == RawRename {
		return "rename"
	}
	return "change"
}

// RawEvent is the verbatim passthrough the engine exposes alongside its
// reconciled Add/Change/Unlink stream (spec §6 outbound "raw" event). Entry
// is the basename relative to WatchedPath; it may be empty when the
// underlying primitive does not report one.
type RawEvent struct {
	Kind        RawKind
	Entry       string
	WatchedPath string
}
