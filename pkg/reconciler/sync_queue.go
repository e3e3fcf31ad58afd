package reconciler

import "fmt"

// scheduleSyncCallback queues fn for the next flushSyncCallbacks.
func (r *Reconciler) scheduleSyncCallback(fn func()) {
	r.syncMu.Lock()
	r.syncQueue = append(r.syncQueue, fn)
	r.syncMu.Unlock()
}

// flushSyncCallbacks runs queued sync callbacks, including ones queued
// while flushing, until the queue is empty. Re-entrant calls return
// immediately.
func (r *Reconciler) flushSyncCallbacks() {
	r.syncMu.Lock()
	if r.flushingSync {
		r.syncMu.Unlock()
		return
	}
	r.flushingSync = true
	r.syncMu.Unlock()

	defer func() {
		r.syncMu.Lock()
		r.flushingSync = false
		r.syncMu.Unlock()
	}()

	for {
		r.syncMu.Lock()
		queue := r.syncQueue
		r.syncQueue = nil
		r.syncMu.Unlock()
		if len(queue) == 0 {
			return
		}
		for _, cb := range queue {
			r.runSyncCallback(cb)
		}
	}
}

func (r *Reconciler) runSyncCallback(cb func()) {
	defer func() {
		if rec := recover(); rec != nil {
			r.config.Logger.Error("sync callback panicked", "panic", fmt.Sprint(rec))
		}
	}()
	cb()
}
