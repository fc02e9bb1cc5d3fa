package fswatch

import "time"

const watchThrottleWindow = 5 * time.Millisecond

// FileWatcher implements spec §4.5: a single-file subscription translating
// raw native/polling notifications into Add/Change, recovering the
// lost-mtime transient by restatting.
type FileWatcher struct {
	collab *collab
	path   string
}

// watchFile implements spec §4.5's watch(path, stats, onChange) -> closer.
// initialAdd/ignoreInitial gate the synthetic initial Add exactly as spec
// describes; there is no onChange parameter: every subsequent reconciled
// Change/Unlink goes out through collab.emit.
func (c *collab) watchFile(path string, stat FileStat, initialAdd bool) (func(), error) {
	fw := &FileWatcher{collab: c, path: path}

	var closer func()
	var err error
	if c.options.UsePolling {
		closer, err = fw.subscribePolling()
	} else {
		closer, err = fw.subscribeNative()
	}
	if err != nil {
		return nil, err
	}

	c.trackAdded(path)
	if initialAdd && c.options.IgnoreInitial {
		return closer, nil
	}
	if h := c.throttle(throttleAdd, path, 0); h != nil {
		c.emit(Add, path, stat)
	}
	return closer, nil
}

func (fw *FileWatcher) subscribeNative() (func(), error) {
	wasDir := false
	return fw.collab.native.subscribe(fw.path, fw.collab.options.Persistent, wasDir,
		func(kind RawKind, entryPath string) {
			fw.onNotify(nil)
		},
		func(err error) { fw.collab.handleError(err) },
		func(raw RawEvent) {},
	)
}

func (fw *FileWatcher) subscribePolling() (func(), error) {
	interval := fw.collab.binaryAwareInterval(fw.path)
	opts := pollingOptions{persistent: fw.collab.options.Persistent, interval: interval}
	closer := fw.collab.polling.subscribe(fw.path, opts,
		func(currStat FileStat, curr, prev statSnapshot) {
			fw.onNotify(currStat)
		},
		func(raw RawEvent) {},
	)
	return closer, nil
}

// onNotify implements spec §4.5's notification handling: throttle, then
// recover the lost-mtime transient by restatting, or trust the stats
// carried by the polling event.
func (fw *FileWatcher) onNotify(newStats FileStat) {
	if h := fw.collab.throttle(throttleWatch, fw.path, watchThrottleWindow); h == nil {
		return
	}

	if newStats == nil || newStats.ModTime().IsZero() {
		fi, err := statPath(fw.path)
		if err != nil {
			if isVanished(err) {
				dir, base := splitPath(fw.path)
				fw.collab.remove(dir, base)
			} else {
				fw.collab.handleError(err)
			}
			return
		}
		fw.collab.emit(Change, fw.path, fi)
		return
	}
	fw.collab.emit(Change, fw.path, newStats)
}
