// File: api/errors.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Typed error taxonomy raised at the native boundary. Native status codes
// are never surfaced raw: every failure crossing into user code is one of
// the types below, carrying the portable Code plus the original platform
// error for diagnostics.

package api

import (
	"errors"
	"fmt"
)

// Common sentinel errors used across the library.
var (
	ErrLoopClosed   = errors.New("event loop is closed")
	ErrNotSupported = errors.New("operation not supported")
)

// InitError reports that native resource creation failed. The handle that
// attempted initialization retains no native state and stays uninitialized.
type InitError struct {
	Kind HandleKind
	Code Code
	Err  error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("init %s handle: %s", e.Kind, e.Code)
}

func (e *InitError) Unwrap() error { return e.Err }

// OperationError reports a native completion failure for the named
// operation, e.g. a read that ended with ECONNRESET.
type OperationError struct {
	Op   string
	Code Code
	Err  error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Code)
}

func (e *OperationError) Unwrap() error { return e.Err }

// ClosedHandleError reports an operation attempted on a handle that is
// closing or closed. Raised synchronously, before any native code runs.
type ClosedHandleError struct {
	Kind HandleKind
}

func (e *ClosedHandleError) Error() string {
	return fmt.Sprintf("%s handle is closed", e.Kind)
}

// InvalidStateError reports an operation attempted outside its valid
// lifecycle state, e.g. submitting a request on an uninitialized handle.
type InvalidStateError struct {
	Op     string
	Reason string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("%s: invalid state: %s", e.Op, e.Reason)
}

// NotFoundError reports a failed opaque association lookup. It indicates
// a desynchronization between the native layer and its owners; the
// affected callback is dropped but the loop keeps running.
type NotFoundError struct {
	Token uint64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no owner associated with token %#x", e.Token)
}

// NoBufferAvailableError reports read buffer contention: the loop's
// scratch buffer was already held by another read when allocation was
// requested. The affected read fails, data is never corrupted.
type NoBufferAvailableError struct{}

func (e *NoBufferAvailableError) Error() string {
	return ENOBUFS.String()
}

// CodeOf extracts the portable status code from any error produced by
// this library. Errors without an embedded code map to EUNKNOWN, nil
// maps to OK.
func CodeOf(err error) Code {
	if err == nil {
		return OK
	}
	var initErr *InitError
	if errors.As(err, &initErr) {
		return initErr.Code
	}
	var opErr *OperationError
	if errors.As(err, &opErr) {
		return opErr.Code
	}
	var noBuf *NoBufferAvailableError
	if errors.As(err, &noBuf) {
		return ENOBUFS
	}
	return EUNKNOWN
}
