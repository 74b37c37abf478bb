// File: handle.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Handle lifecycle state machine. Every handle kind embeds Handle and
// moves uninitialized -> active -> closing -> closed, never backwards.
// The hazard this file exists to prevent is native access after release:
// once a handle reaches closed its descriptor is gone, its association is
// detached and nothing may touch the native layer on its behalf again.

package uv

import (
	"github.com/koehlma/uv/api"
	"github.com/koehlma/uv/internal/registry"
)

// HandleState is the lifecycle state of a handle.
type HandleState uint8

const (
	StateUninitialized HandleState = iota
	StateActive
	StateClosing
	StateClosed
)

// String returns the state name.
func (s HandleState) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return "uninitialized"
	}
}

// CloseCallback is invoked exactly once when a handle reaches closed and
// its native resources have been released.
type CloseCallback func()

// Handle is the state shared by every handle kind. It is not usable on
// its own; kind constructors initialize it through their loop.
type Handle struct {
	loop  *Loop
	kind  api.HandleKind
	state HandleState
	token registry.Token
	owner any

	pendingRequests int
	referenced      bool
	started         bool

	onClose CloseCallback
	data    any

	// stopWatch disarms the kind's watcher, detaches it from the
	// reactor and cancels queued requests; finalize releases the
	// native resource. Both are set by
	// the owning kind and run at most once, from the close path.
	stopWatch func()
	finalize  func()
}

// Loop returns the event loop this handle is bound to for its lifetime.
func (h *Handle) Loop() *Loop { return h.loop }

// Kind returns the handle's kind tag.
func (h *Handle) Kind() api.HandleKind { return h.kind }

// State returns the current lifecycle state.
func (h *Handle) State() HandleState { return h.state }

// Active reports whether the handle accepts operations.
func (h *Handle) Active() bool { return h.state == StateActive }

// Closing reports whether a close has been requested but the close
// callback has not fired yet.
func (h *Handle) Closing() bool { return h.state == StateClosing }

// Data returns the user payload attached to the handle.
func (h *Handle) Data() any { return h.data }

// SetData attaches an arbitrary user payload to the handle.
func (h *Handle) SetData(data any) { h.data = data }

// Referenced reports whether the handle keeps its loop alive.
func (h *Handle) Referenced() bool { return h.referenced }

// Ref makes the handle count towards loop liveness. Handles are
// referenced by default.
func (h *Handle) Ref() {
	if !h.referenced && (h.state == StateActive || h.state == StateClosing) {
		h.loop.refs++
	}
	h.referenced = true
}

// Unref excludes the handle from loop liveness: a loop whose remaining
// handles are all unreferenced exits its run.
func (h *Handle) Unref() {
	if h.referenced && (h.state == StateActive || h.state == StateClosing) {
		h.loop.refs--
	}
	h.referenced = false
}

// ensureActive rejects operations outside the active state, before any
// native code runs.
func (h *Handle) ensureActive(op string) error {
	switch h.state {
	case StateActive:
		return nil
	case StateClosing, StateClosed:
		return &api.ClosedHandleError{Kind: h.kind}
	default:
		return &api.InvalidStateError{Op: op, Reason: "handle is not initialized"}
	}
}

// Close requests teardown. The transition to closing is immediate: any
// further operation fails with ClosedHandleError. Queued requests are
// cancelled and complete with ECANCELED strictly before cb fires. Native
// release is deferred to the loop's close sweep; cb runs from loop
// dispatch exactly once. A second Close is a no-op and its callback is
// discarded.
func (h *Handle) Close(cb CloseCallback) error {
	switch h.state {
	case StateClosing, StateClosed:
		return nil
	case StateUninitialized:
		return &api.InvalidStateError{Op: "close", Reason: "handle is not initialized"}
	}

	h.state = StateClosing
	h.onClose = cb
	if h.stopWatch != nil {
		h.stopWatch()
		h.stopWatch = nil
	}
	h.started = false
	h.loop.requestClose(h)
	return nil
}

// finalizeClose completes the transition to closed. Runs once, from the
// loop's close sweep, after every pending request has completed. Releases
// exactly one association and never re-enters native code afterwards.
func (h *Handle) finalizeClose() {
	if h.finalize != nil {
		h.finalize()
		h.finalize = nil
	}
	h.loop.registry.Detach(h.token)
	h.token = 0

	if h.referenced {
		h.loop.refs--
	}
	delete(h.loop.handles, h)
	h.state = StateClosed

	if cb := h.onClose; cb != nil {
		h.onClose = nil
		cb()
	}
}
