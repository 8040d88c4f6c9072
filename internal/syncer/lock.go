package syncer

import "sync/atomic"

// SyncLock provides non-blocking lock semantics using atomic
// operations, so a second concurrent fetch fails fast instead of
// queueing behind the first.
type SyncLock struct {
	state atomic.Int32 // 0 = unlocked, 1 = locked
}

// TryAcquire attempts to acquire the lock without blocking.
// Returns true if the lock was successfully acquired.
func (l *SyncLock) TryAcquire() bool {
	return l.state.CompareAndSwap(0, 1)
}

// Release releases the lock. Must only be called by the goroutine
// that successfully acquired it.
func (l *SyncLock) Release() {
	l.state.Store(0)
}
