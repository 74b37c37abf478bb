// File: async_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package uv

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/koehlma/uv/api"
)

// TestAsync_SendFromGoroutine wakes a blocked loop from another
// goroutine.
func TestAsync_SendFromGoroutine(t *testing.T) {
	l := newTestLoop(t)

	delivered := false
	async, err := NewAsync(l, func(a *Async) {
		delivered = true
		a.Close(nil)
	})
	if err != nil {
		t.Fatalf("NewAsync: %v", err)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := async.Send(); err != nil {
			t.Errorf("Send: %v", err)
		}
	}()

	l.Run(RunDefault)
	wg.Wait()
	if !delivered {
		t.Error("async callback never ran")
	}
	l.Close()
}

// TestAsync_SendsCoalesce issues a burst of Sends before the loop
// dispatches and checks a single callback covers them.
func TestAsync_SendsCoalesce(t *testing.T) {
	l := newTestLoop(t)

	calls := 0
	async, _ := NewAsync(l, func(*Async) { calls++ })

	for i := 0; i < 10; i++ {
		if err := async.Send(); err != nil {
			t.Fatalf("Send %d: %v", i, err)
		}
	}

	l.Run(RunNoWait)
	if calls != 1 {
		t.Errorf("burst of sends delivered %d callbacks, want 1", calls)
	}

	// A send after dispatch delivers again.
	async.Send()
	l.Run(RunNoWait)
	if calls != 2 {
		t.Errorf("post-dispatch send delivered %d callbacks, want 2", calls)
	}

	async.Close(nil)
	l.Run(RunDefault)
	l.Close()
}

// TestAsync_SendAfterCloseFails checks Send reports the handle closed.
func TestAsync_SendAfterCloseFails(t *testing.T) {
	l := newTestLoop(t)

	async, _ := NewAsync(l, func(*Async) {})
	async.Close(nil)

	var closedErr *api.ClosedHandleError
	if err := async.Send(); !errors.As(err, &closedErr) {
		t.Errorf("Send after Close: got %v, want ClosedHandleError", err)
	}

	l.Run(RunDefault)
	l.Close()
}

// TestAsync_ConcurrentSendDuringClose hammers Send from another
// goroutine while the loop thread closes the handle, the usage Send's
// thread-safety contract promises. The race detector guards the close
// path here; functionally, every Send either succeeds or reports the
// handle closed, and no callback runs after the close callback.
func TestAsync_ConcurrentSendDuringClose(t *testing.T) {
	l := newTestLoop(t)

	closed := false
	async, err := NewAsync(l, func(*Async) {
		if closed {
			t.Error("async callback ran after close callback")
		}
	})
	if err != nil {
		t.Fatalf("NewAsync: %v", err)
	}

	timer, _ := NewTimer(l)
	timer.Start(func(tm *Timer) {
		async.Close(func() { closed = true })
		tm.Close(nil)
	}, 5*time.Millisecond, 0)

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		var closedErr *api.ClosedHandleError
		for {
			select {
			case <-stop:
				return
			default:
			}
			if err := async.Send(); err != nil && !errors.As(err, &closedErr) {
				t.Errorf("Send: %v", err)
				return
			}
		}
	}()

	l.Run(RunDefault)
	close(stop)
	wg.Wait()
	if !closed {
		t.Error("close callback never ran")
	}
	l.Close()
}

// TestAsync_NilCallbackRejected checks construction requires a callback.
func TestAsync_NilCallbackRejected(t *testing.T) {
	l := newTestLoop(t)
	defer l.Close()

	if _, err := NewAsync(l, nil); err == nil {
		t.Error("NewAsync accepted a nil callback")
	}
}
