// File: fake/reactor.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// In-memory reactor for tests. Readiness is injected by the test body
// instead of arriving from the kernel, which keeps loop tests free of
// real descriptors and timing.

package fake

import (
	"sync"

	"github.com/koehlma/uv/reactor"
)

// Reactor is a scriptable reactor.Reactor. Tests register descriptors
// through the code under test and inject readiness with Inject; Wait
// hands the queued events back in injection order.
type Reactor struct {
	mu      sync.Mutex
	cond    *sync.Cond
	watches map[int]watch
	queue   []reactor.Event
	wake    bool
	closed  bool

	// WaitCount increments on every Wait call; tests use it to assert
	// how often the loop polled.
	WaitCount int
}

type watch struct {
	interest reactor.EventType
	token    uintptr
}

// NewReactor creates an empty fake reactor.
func NewReactor() *Reactor {
	r := &Reactor{watches: make(map[int]watch)}
	r.cond = sync.NewCond(&r.mu)
	return r
}

// Register starts watching fd.
func (r *Reactor) Register(fd int, interest reactor.EventType, token uintptr) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.watches[fd] = watch{interest: interest, token: token}
	return nil
}

// Modify replaces fd's interest set and token.
func (r *Reactor) Modify(fd int, interest reactor.EventType, token uintptr) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.watches[fd] = watch{interest: interest, token: token}
	return nil
}

// Unregister stops watching fd.
func (r *Reactor) Unregister(fd int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.watches, fd)
	return nil
}

// Inject queues readiness for fd using its registered token. Events on
// unwatched descriptors are dropped, matching a kernel race where the
// descriptor was unregistered after the event was collected.
func (r *Reactor) Inject(fd int, events reactor.EventType) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.watches[fd]
	if !ok {
		return
	}
	r.queue = append(r.queue, reactor.Event{Token: w.token, Events: events})
	r.cond.Broadcast()
}

// InjectToken queues readiness for an explicit token, bypassing the
// watch table. Tests use it to simulate stale tokens.
func (r *Reactor) InjectToken(token uintptr, events reactor.EventType) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queue = append(r.queue, reactor.Event{Token: token, Events: events})
	r.cond.Broadcast()
}

// Watched reports whether fd currently has a watch.
func (r *Reactor) Watched(fd int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.watches[fd]
	return ok
}

// Interest returns fd's current interest set.
func (r *Reactor) Interest(fd int) reactor.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.watches[fd].interest
}

// Wait returns queued events. A negative timeout blocks until an event
// is injected, Wakeup fires or the reactor closes; any other timeout
// polls, so timer-driven loops spin against the fake instead of
// sleeping.
func (r *Reactor) Wait(events []reactor.Event, timeoutMs int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.WaitCount++

	if timeoutMs < 0 {
		for len(r.queue) == 0 && !r.wake && !r.closed {
			r.cond.Wait()
		}
	}
	r.wake = false

	n := copy(events, r.queue)
	r.queue = r.queue[n:]
	return n, nil
}

// Wakeup unblocks a pending or the next indefinite Wait.
func (r *Reactor) Wakeup() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.wake = true
	r.cond.Broadcast()
	return nil
}

// Close unblocks waiters permanently.
func (r *Reactor) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	r.cond.Broadcast()
	return nil
}
