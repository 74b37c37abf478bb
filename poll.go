//go:build linux

// File: poll.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Poll handles watch readiness on descriptors the caller owns. Closing
// the handle detaches from the reactor but never closes the descriptor.

package uv

import (
	"github.com/koehlma/uv/api"
	"github.com/koehlma/uv/reactor"
)

// PollEvent is the readiness mask reported to a poll callback.
type PollEvent int

const (
	// PollReadable reports the descriptor readable.
	PollReadable PollEvent = 1 << iota
	// PollWritable reports the descriptor writable.
	PollWritable
	// PollDisconnect reports peer hangup.
	PollDisconnect
)

// PollCallback receives readiness for a watched descriptor.
type PollCallback func(events PollEvent, err error)

// Poll watches an externally owned descriptor for readiness. The
// caller keeps ownership of the descriptor; it must stay open while
// the handle is active and is never closed by the handle.
type Poll struct {
	Handle
	fd         int
	registered bool
	interest   reactor.EventType
	cb         PollCallback
}

// NewPoll creates a poll handle watching fd.
func NewPoll(loop *Loop, fd int) (*Poll, error) {
	if err := loop.ensureOpen(); err != nil {
		return nil, err
	}
	if fd < 0 {
		return nil, &api.InitError{Kind: api.HandlePoll, Code: api.EBADF, Err: nil}
	}

	p := &Poll{fd: fd}
	loop.initHandle(&p.Handle, api.HandlePoll, p)
	p.stopWatch = p.teardown
	if err := loop.reactor.Register(fd, 0, uintptr(p.token)); err != nil {
		loop.abortInit(&p.Handle)
		return nil, &api.InitError{Kind: api.HandlePoll, Code: api.CodeFromErrno(err), Err: err}
	}
	p.registered = true
	return p, nil
}

// FD returns the watched descriptor.
func (p *Poll) FD() int { return p.fd }

// Start arms the watch for events. A second Start replaces the mask
// and callback.
func (p *Poll) Start(events PollEvent, cb PollCallback) error {
	if err := p.ensureActive("poll start"); err != nil {
		return err
	}
	if cb == nil {
		return &api.InvalidStateError{Op: "poll start", Reason: "nil callback"}
	}
	if events&(PollReadable|PollWritable) == 0 {
		return operationError("poll start", api.EINVAL, nil)
	}

	var mask reactor.EventType
	if events&PollReadable != 0 {
		mask |= reactor.EventRead
	}
	if events&PollWritable != 0 {
		mask |= reactor.EventWrite
	}

	p.cb = cb
	p.started = true
	if mask != p.interest {
		p.interest = mask
		if err := p.loop.reactor.Modify(p.fd, mask, uintptr(p.token)); err != nil {
			p.started = false
			p.interest = 0
			return operationError("poll start", api.CodeFromErrno(err), err)
		}
	}
	return nil
}

// Stop disarms the watch. Idempotent.
func (p *Poll) Stop() error {
	if err := p.ensureActive("poll stop"); err != nil {
		return err
	}
	p.started = false
	if p.interest != 0 {
		p.interest = 0
		if err := p.loop.reactor.Modify(p.fd, 0, uintptr(p.token)); err != nil {
			p.loop.log.WithError(err).Warn("poll: reactor modify failed")
		}
	}
	return nil
}

// onEvent translates reactor readiness into the poll event mask.
func (p *Poll) onEvent(mask reactor.EventType) {
	if p.state != StateActive || !p.started {
		return
	}
	var events PollEvent
	if mask&reactor.EventRead != 0 {
		events |= PollReadable
	}
	if mask&reactor.EventWrite != 0 {
		events |= PollWritable
	}
	if mask&reactor.EventHangup != 0 {
		events |= PollDisconnect
	}
	if mask&reactor.EventError != 0 {
		p.cb(events, operationError("poll", api.EUNKNOWN, nil))
		return
	}
	p.cb(events, nil)
}

// teardown detaches from the reactor; the descriptor stays open.
func (p *Poll) teardown() {
	if p.registered {
		if err := p.loop.reactor.Unregister(p.fd); err != nil {
			p.loop.log.WithError(err).Warn("poll: reactor unregister failed")
		}
		p.registered = false
	}
}
