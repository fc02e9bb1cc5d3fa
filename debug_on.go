//go:build fswatchdebug

package fswatch

import (
	"log"
	"os"
)

type dbgT struct {
	*log.Logger
}

var dbg = dbgT{log.New(os.Stderr, "fswatch/debug: ", log.LstdFlags|log.Lmicroseconds)}
