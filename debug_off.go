//go:build !fswatchdebug

package fswatch

// dbg is the verbose-trace logger. In normal builds it is a cheap no-op;
// build with -tags fswatchdebug to route these through the real logger.
type dbgT struct{}

func (dbgT) Printf(string, ...interface{}) {}
func (dbgT) Print(...interface{})          {}

var dbg dbgT
