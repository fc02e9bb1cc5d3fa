package fswatch

import "os"

// FileStat is the snapshot carried alongside Add/AddDir/Change events. It is
// a plain alias for os.FileInfo, since the engine never needs more than
// Size/ModTime/IsDir/Mode, and aliasing avoids a wrapper type purely for the
// sake of having one.
type FileStat = os.FileInfo

// statSnapshot is the minimal comparable view PollingWatchRegistry keeps
// between polls (spec §3 "StatSnapshot"). It is intentionally smaller than
// FileStat: the registry only ever compares size and mtime.
type statSnapshot struct {
	size  int64
	mtime int64 // UnixNano; 0 means "file vanished or never stat'd"
}

func snapshot(fi FileStat) statSnapshot {
	if fi == nil {
		return statSnapshot{}
	}
	return statSnapshot{size: fi.Size(), mtime: fi.ModTime().UnixNano()}
}

func statPath(path string) (FileStat, error) {
	return os.Stat(path)
}

func lstatPath(path string) (FileStat, error) {
	return os.Lstat(path)
}
