// File: timer.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Timer handles. Deadlines live in the loop's ordered timer set; the
// earliest deadline bounds the reactor poll timeout.

package uv

import (
	"time"

	"github.com/koehlma/uv/api"
)

// TimerCallback is invoked on the loop when the timer fires.
type TimerCallback func(*Timer)

// Timer fires a callback after a timeout and optionally on a repeating
// interval thereafter.
type Timer struct {
	Handle
	deadline time.Time
	repeat   time.Duration
	seq      uint64
	cb       TimerCallback
}

// NewTimer creates a timer bound to loop.
func NewTimer(loop *Loop) (*Timer, error) {
	if err := loop.ensureOpen(); err != nil {
		return nil, err
	}
	t := &Timer{}
	loop.initHandle(&t.Handle, api.HandleTimer, t)
	t.stopWatch = t.disarm
	return t, nil
}

// Start arms the timer: cb fires once after timeout, then every repeat
// interval while repeat is positive. Starting an armed timer rearms it.
func (t *Timer) Start(cb TimerCallback, timeout, repeat time.Duration) error {
	if err := t.ensureActive("timer start"); err != nil {
		return err
	}
	if cb == nil {
		return &api.InvalidStateError{Op: "timer start", Reason: "nil callback"}
	}
	if timeout < 0 {
		timeout = 0
	}
	t.disarm()
	t.cb = cb
	t.repeat = repeat
	t.rearm(t.loop.now.Add(timeout))
	return nil
}

// Stop disarms the timer. Idempotent.
func (t *Timer) Stop() error {
	if err := t.ensureActive("timer stop"); err != nil {
		return err
	}
	t.disarm()
	return nil
}

// Again restarts a repeating timer using its repeat interval. Fails with
// EINVAL when the timer has no repeat configured.
func (t *Timer) Again() error {
	if err := t.ensureActive("timer again"); err != nil {
		return err
	}
	if t.cb == nil || t.repeat <= 0 {
		return operationError("timer again", api.EINVAL, nil)
	}
	t.disarm()
	t.rearm(t.loop.now.Add(t.repeat))
	return nil
}

// Repeat returns the configured repeat interval.
func (t *Timer) Repeat() time.Duration { return t.repeat }

// SetRepeat replaces the repeat interval used after the next expiry.
func (t *Timer) SetRepeat(repeat time.Duration) { t.repeat = repeat }

// DueIn reports the time until the next expiry, zero for unarmed timers.
func (t *Timer) DueIn() time.Duration {
	if !t.started {
		return 0
	}
	d := t.deadline.Sub(t.loop.now)
	if d < 0 {
		return 0
	}
	return d
}

// rearm inserts the timer into the loop's ordered set. The sequence
// number breaks deadline ties in arming order.
func (t *Timer) rearm(deadline time.Time) {
	t.loop.timerSeq++
	t.seq = t.loop.timerSeq
	t.deadline = deadline
	t.started = true
	t.loop.timers.ReplaceOrInsert(t)
}

func (t *Timer) disarm() {
	if t.started {
		t.loop.timers.Delete(t)
		t.started = false
	}
}
