// File: request.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Request lifecycle: submitted -> completed, terminal, no resubmission.
// A request holds one association from submission until its single
// completion fires; the association and the request's native resources
// are released unconditionally on both the success and the error path.

package uv

import (
	"github.com/koehlma/uv/api"
	"github.com/koehlma/uv/internal/registry"
)

// request is the state shared by every request kind.
type request struct {
	loop   *Loop
	handle *Handle // nil for standalone requests
	kind   api.RequestKind
	token  registry.Token
	done   bool
}

// Kind returns the request's operation kind.
func (r *request) Kind() api.RequestKind { return r.kind }

// Done reports whether the completion callback has fired.
func (r *request) Done() bool { return r.done }

// submit associates the request and registers it with its owner. The
// owning handle, when present, must be active; this is checked by the
// caller before any native work.
func (r *request) submit(loop *Loop, handle *Handle, kind api.RequestKind, owner any) {
	r.loop = loop
	r.handle = handle
	r.kind = kind
	r.token = loop.registry.Attach(owner)
	loop.activeRequests++
	if handle != nil {
		handle.pendingRequests++
	}
}

// finish delivers the terminal transition. The first call releases the
// association and schedules deliver on the loop; every later call is a
// no-op returning false, which is what guarantees exactly one completion
// per request even under cancellation races. The owner's pending count
// drops together with the delivery, so a closing handle cannot finalize
// before its cancelled requests have reported completion.
func (r *request) finish(deliver func()) bool {
	if r.done {
		return false
	}
	r.done = true
	r.loop.registry.Detach(r.token)
	r.token = 0
	r.loop.schedule(func() {
		r.loop.activeRequests--
		if r.handle != nil {
			r.handle.pendingRequests--
		}
		deliver()
	})
	return true
}

// operationError builds the typed completion error for a native status.
func operationError(op string, code api.Code, cause error) error {
	return &api.OperationError{Op: op, Code: code, Err: cause}
}

// cancelError is the completion error delivered to requests cancelled by
// a handle close.
func cancelError(op string) error {
	return operationError(op, api.ECANCELED, nil)
}
