package health

import "sync/atomic"

var readyGate atomic.Bool

func init() {
	readyGate.Store(true)
}

// SetReady toggles the readiness gate. Graceful shutdown flips it off so load
// balancers drain the instance before connections are closed.
func SetReady(v bool) {
	readyGate.Store(v)
}
