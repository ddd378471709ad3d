package logger

import "sync/atomic"

// debug forces every logger built by New to emit all levels.
var debug uint32

func SetDebug(on bool) {
	if on {
		atomic.StoreUint32(&debug, 1)
		return
	}
	atomic.StoreUint32(&debug, 0)
}

func Debug() bool {
	return atomic.LoadUint32(&debug) == 1
}
