package store

import "sync"

// Process-wide "data changed" signal. Any surface can demand a reload for a
// user without holding a store reference; the store subscribes through
// ListenRefresh.

var (
	signalMu   sync.Mutex
	signalSubs = make(map[int]func(userID int64))
	signalNext int
)

// RequestRefresh broadcasts that userID's data should be reloaded from
// persistence.
func RequestRefresh(userID int64) {
	signalMu.Lock()
	fns := make([]func(int64), 0, len(signalSubs))
	for _, fn := range signalSubs {
		fns = append(fns, fn)
	}
	signalMu.Unlock()
	for _, fn := range fns {
		fn(userID)
	}
}

// OnRefreshRequest registers fn for refresh broadcasts and returns an
// unsubscribe function.
func OnRefreshRequest(fn func(userID int64)) func() {
	signalMu.Lock()
	id := signalNext
	signalNext++
	signalSubs[id] = fn
	signalMu.Unlock()
	return func() {
		signalMu.Lock()
		delete(signalSubs, id)
		signalMu.Unlock()
	}
}
