// File: phase.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Loop phase handles: idle runs every iteration and keeps the poll from
// blocking, prepare runs right before the poll, check right after.

package uv

import "github.com/koehlma/uv/api"

// IdleCallback is invoked once per iteration while the idle is started.
type IdleCallback func(*Idle)

// Idle runs its callback on every loop iteration. A started idle forces
// a zero poll timeout, turning the loop into a busy loop; stop it when
// there is no background work left.
type Idle struct {
	Handle
	cb IdleCallback
}

// NewIdle creates an idle handle bound to loop.
func NewIdle(loop *Loop) (*Idle, error) {
	if err := loop.ensureOpen(); err != nil {
		return nil, err
	}
	i := &Idle{}
	loop.initHandle(&i.Handle, api.HandleIdle, i)
	i.stopWatch = func() { i.detachPhase() }
	loop.idles = append(loop.idles, i)
	return i, nil
}

// Start arms the idle callback.
func (i *Idle) Start(cb IdleCallback) error {
	if err := i.ensureActive("idle start"); err != nil {
		return err
	}
	if cb == nil {
		return &api.InvalidStateError{Op: "idle start", Reason: "nil callback"}
	}
	i.cb = cb
	i.started = true
	return nil
}

// Stop disarms the idle callback. Idempotent.
func (i *Idle) Stop() error {
	if err := i.ensureActive("idle stop"); err != nil {
		return err
	}
	i.started = false
	return nil
}

func (i *Idle) detachPhase() {
	i.loop.idles = removePhase(i.loop.idles, i)
}

// PrepareCallback is invoked right before the loop blocks in the poll.
type PrepareCallback func(*Prepare)

// Prepare runs its callback immediately before each reactor poll.
type Prepare struct {
	Handle
	cb PrepareCallback
}

// NewPrepare creates a prepare handle bound to loop.
func NewPrepare(loop *Loop) (*Prepare, error) {
	if err := loop.ensureOpen(); err != nil {
		return nil, err
	}
	p := &Prepare{}
	loop.initHandle(&p.Handle, api.HandlePrepare, p)
	p.stopWatch = func() { p.loop.prepares = removePhase(p.loop.prepares, p) }
	loop.prepares = append(loop.prepares, p)
	return p, nil
}

// Start arms the prepare callback.
func (p *Prepare) Start(cb PrepareCallback) error {
	if err := p.ensureActive("prepare start"); err != nil {
		return err
	}
	if cb == nil {
		return &api.InvalidStateError{Op: "prepare start", Reason: "nil callback"}
	}
	p.cb = cb
	p.started = true
	return nil
}

// Stop disarms the prepare callback. Idempotent.
func (p *Prepare) Stop() error {
	if err := p.ensureActive("prepare stop"); err != nil {
		return err
	}
	p.started = false
	return nil
}

// CheckCallback is invoked right after the loop returns from the poll.
type CheckCallback func(*Check)

// Check runs its callback immediately after each reactor poll.
type Check struct {
	Handle
	cb CheckCallback
}

// NewCheck creates a check handle bound to loop.
func NewCheck(loop *Loop) (*Check, error) {
	if err := loop.ensureOpen(); err != nil {
		return nil, err
	}
	c := &Check{}
	loop.initHandle(&c.Handle, api.HandleCheck, c)
	c.stopWatch = func() { c.loop.checks = removePhase(c.loop.checks, c) }
	loop.checks = append(loop.checks, c)
	return c, nil
}

// Start arms the check callback.
func (c *Check) Start(cb CheckCallback) error {
	if err := c.ensureActive("check start"); err != nil {
		return err
	}
	if cb == nil {
		return &api.InvalidStateError{Op: "check start", Reason: "nil callback"}
	}
	c.cb = cb
	c.started = true
	return nil
}

// Stop disarms the check callback. Idempotent.
func (c *Check) Stop() error {
	if err := c.ensureActive("check stop"); err != nil {
		return err
	}
	c.started = false
	return nil
}

func removePhase[T comparable](list []T, item T) []T {
	for i, v := range list {
		if v == item {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}
