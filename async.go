// File: async.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Async handles: the only handle whose operation is safe to call from
// any goroutine. Sends coalesce; a burst of Sends may deliver a single
// callback invocation.

package uv

import (
	"sync/atomic"

	"github.com/koehlma/uv/api"
)

// AsyncCallback is invoked on the loop after one or more Sends.
type AsyncCallback func(*Async)

// Async wakes the loop from another goroutine.
type Async struct {
	Handle
	cb      AsyncCallback
	pending atomic.Bool
	closed  atomic.Bool
}

// NewAsync creates an async handle bound to loop. cb must not be nil.
func NewAsync(loop *Loop, cb AsyncCallback) (*Async, error) {
	if err := loop.ensureOpen(); err != nil {
		return nil, err
	}
	if cb == nil {
		return nil, &api.InvalidStateError{Op: "async init", Reason: "nil callback"}
	}
	a := &Async{cb: cb}
	loop.initHandle(&a.Handle, api.HandleAsync, a)
	a.started = true
	a.stopWatch = func() { a.closed.Store(true) }
	return a, nil
}

// Send schedules the callback on the loop. Safe from any goroutine,
// returns ClosedHandleError after Close. Multiple Sends before the loop
// dispatches coalesce into one callback.
//
// Send may not read Handle.state: the loop goroutine writes it during
// the close sweep while Sends race in. The atomic closed flag, raised
// from the close path on the loop thread, is the only gate here; the
// posted closure re-checks state once it is back on the loop.
func (a *Async) Send() error {
	if a.closed.Load() {
		return &api.ClosedHandleError{Kind: a.kind}
	}
	if !a.pending.CompareAndSwap(false, true) {
		return nil
	}
	a.loop.post(func() {
		a.pending.Store(false)
		if a.state == StateActive {
			a.cb(a)
		}
	})
	return nil
}
