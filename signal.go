// File: signal.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Signal handles. Delivery arrives on a runtime-managed channel and is
// forwarded into the loop through the cross-thread intake, so the
// callback always runs on the loop goroutine.

package uv

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/koehlma/uv/api"
)

// SignalCallback receives the signal number the watch fired for.
type SignalCallback func(signum syscall.Signal)

// Signal watches one process signal.
type Signal struct {
	Handle
	signum  syscall.Signal
	cb      SignalCallback
	oneshot bool
	ch      chan os.Signal
	quit    chan struct{}
}

// NewSignal creates a signal handle bound to loop.
func NewSignal(loop *Loop) (*Signal, error) {
	if err := loop.ensureOpen(); err != nil {
		return nil, err
	}
	s := &Signal{}
	loop.initHandle(&s.Handle, api.HandleSignal, s)
	s.stopWatch = s.unsubscribe
	return s, nil
}

// Signum returns the watched signal number, zero before Start.
func (s *Signal) Signum() syscall.Signal { return s.signum }

// Start arms the watch for signum. A second Start replaces the watch.
func (s *Signal) Start(signum syscall.Signal, cb SignalCallback) error {
	return s.start(signum, cb, false)
}

// StartOneshot arms the watch for a single delivery; the watch stops
// itself before the callback runs.
func (s *Signal) StartOneshot(signum syscall.Signal, cb SignalCallback) error {
	return s.start(signum, cb, true)
}

func (s *Signal) start(signum syscall.Signal, cb SignalCallback, oneshot bool) error {
	if err := s.ensureActive("signal start"); err != nil {
		return err
	}
	if cb == nil {
		return &api.InvalidStateError{Op: "signal start", Reason: "nil callback"}
	}
	if signum <= 0 || signum == syscall.SIGKILL || signum == syscall.SIGSTOP {
		return operationError("signal start", api.EINVAL, nil)
	}

	s.unsubscribe()
	s.signum = signum
	s.cb = cb
	s.oneshot = oneshot
	s.started = true

	ch := make(chan os.Signal, 8)
	quit := make(chan struct{})
	s.ch = ch
	s.quit = quit
	signal.Notify(ch, signum)

	go func() {
		for {
			select {
			case <-quit:
				return
			case <-ch:
				s.loop.post(func() { s.deliver() })
			}
		}
	}()
	return nil
}

// deliver runs on the loop goroutine. The watch may have stopped or
// the handle closed between receipt and dispatch; stale deliveries are
// dropped.
func (s *Signal) deliver() {
	if s.state != StateActive || !s.started {
		return
	}
	if s.oneshot {
		s.unsubscribe()
	}
	s.cb(s.signum)
}

// Stop disarms the watch. Idempotent.
func (s *Signal) Stop() error {
	if err := s.ensureActive("signal stop"); err != nil {
		return err
	}
	s.unsubscribe()
	return nil
}

func (s *Signal) unsubscribe() {
	if s.ch != nil {
		signal.Stop(s.ch)
		close(s.quit)
		s.ch = nil
		s.quit = nil
	}
	s.started = false
}
