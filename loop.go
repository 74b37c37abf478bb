// File: loop.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Event loop bridge. Owns the reactor, drives iterations of polling and
// callback dispatch, and marshals completions from helper goroutines
// onto the loop thread. A loop and everything bound to it belong to one
// goroutine; only Async.Send and the internal post path may be touched
// from outside.

package uv

import (
	"sync"
	"time"

	"github.com/eapache/queue"
	"github.com/google/btree"
	"github.com/sirupsen/logrus"

	"github.com/koehlma/uv/api"
	"github.com/koehlma/uv/internal/registry"
	"github.com/koehlma/uv/pool"
	"github.com/koehlma/uv/reactor"
)

// RunMode selects how Run drives the loop.
type RunMode int

const (
	// RunDefault iterates until no referenced handle, request or close
	// sweep remains, or Stop is called.
	RunDefault RunMode = iota
	// RunOnce performs a single iteration, blocking in the poll until
	// work arrives.
	RunOnce
	// RunNoWait performs a single iteration without blocking.
	RunNoWait
)

const maxPollEvents = 128

type options struct {
	logger     logrus.FieldLogger
	bufferSize int
	reactor    reactor.Reactor
}

// Option configures a loop at construction time.
type Option func(*options)

// WithLogger replaces the loop's diagnostics logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(o *options) { o.logger = log }
}

// WithBufferSize sets the size of the loop's scratch read buffer.
func WithBufferSize(size int) Option {
	return func(o *options) { o.bufferSize = size }
}

// WithReactor injects a reactor implementation. Intended for tests and
// fakes; production loops use the platform reactor.
func WithReactor(r reactor.Reactor) Option {
	return func(o *options) { o.reactor = r }
}

// Loop is the reactor instance everything else binds to. It owns the
// shared scratch read buffer, the token registry used for completion
// dispatch, and the set of handles registered to it.
type Loop struct {
	reactor  reactor.Reactor
	registry *registry.Registry
	buffers  *pool.Arbiter
	payloads *pool.BytePool
	log      logrus.FieldLogger

	now      time.Time
	timers   *btree.BTreeG[*Timer]
	timerSeq uint64

	ready *queue.Queue

	intakeMu     sync.Mutex
	intake       []func()
	intakeClosed bool

	handles        map[*Handle]struct{}
	closing        []*Handle
	refs           int
	activeRequests int

	idles    []*Idle
	prepares []*Prepare
	checks   []*Check

	events []reactor.Event

	running bool
	stopped bool
	closed  bool
}

// New constructs a loop bound to the platform reactor.
func New(opts ...Option) (*Loop, error) {
	o := options{
		logger:     logrus.StandardLogger(),
		bufferSize: pool.DefaultBufferSize,
	}
	for _, opt := range opts {
		opt(&o)
	}

	r := o.reactor
	if r == nil {
		var err error
		r, err = reactor.NewReactor()
		if err != nil {
			return nil, err
		}
	}

	return &Loop{
		reactor:  r,
		registry: registry.New(),
		buffers:  pool.NewArbiter(o.bufferSize),
		payloads: pool.NewBytePool(o.bufferSize),
		log:      o.logger,
		now:      time.Now(),
		timers: btree.NewG(8, func(a, b *Timer) bool {
			if !a.deadline.Equal(b.deadline) {
				return a.deadline.Before(b.deadline)
			}
			return a.seq < b.seq
		}),
		ready:   queue.New(),
		handles: make(map[*Handle]struct{}),
		events:  make([]reactor.Event, maxPollEvents),
	}, nil
}

// Now returns the loop time cached at the start of the current
// iteration.
func (l *Loop) Now() time.Time { return l.now }

// UpdateTime refreshes the cached loop time.
func (l *Loop) UpdateTime() { l.now = time.Now() }

// Alive reports whether further iterations can deliver work: a
// referenced handle is active or closing, a request is submitted, or a
// close sweep is pending.
func (l *Loop) Alive() bool {
	return l.refs > 0 || l.activeRequests > 0 || len(l.closing) > 0
}

// Stop marks the loop so the current or next iteration exits after
// dispatching already-ready callbacks. Callbacks in progress are never
// aborted. The mark is cleared when Run returns.
func (l *Loop) Stop() {
	l.stopped = true
	if err := l.reactor.Wakeup(); err != nil {
		l.log.WithError(err).Warn("loop: wakeup on stop failed")
	}
}

// Run drives the loop in the given mode and reports whether live work
// remained when it returned.
func (l *Loop) Run(mode RunMode) bool {
	if l.closed || l.running {
		return false
	}
	l.running = true
	defer func() {
		l.running = false
		l.stopped = false
	}()

	for l.Alive() && !l.stopped {
		l.runIteration(mode)
		if mode == RunOnce || mode == RunNoWait {
			break
		}
	}
	return l.Alive()
}

// Close tears the loop down. It fails with EBUSY while any handle
// remains open or any request is in flight.
func (l *Loop) Close() error {
	if l.closed {
		return nil
	}
	if len(l.handles) > 0 || l.activeRequests > 0 || len(l.closing) > 0 {
		return operationError("loop close", api.EBUSY, nil)
	}
	l.intakeMu.Lock()
	l.intakeClosed = true
	l.intakeMu.Unlock()
	l.closed = true
	return l.reactor.Close()
}

// Walk invokes fn for every handle currently registered to the loop.
// fn receives the concrete handle object (*TCP, *Timer, ...).
func (l *Loop) Walk(fn func(owner any)) {
	for h := range l.handles {
		fn(h.owner)
	}
}

// runIteration performs one reactor pass: due timers, marshalled and
// scheduled callbacks, idle and prepare phases, the poll with its
// synchronous readiness dispatch, scheduled completions, the check
// phase, and finally the close sweep.
func (l *Loop) runIteration(mode RunMode) {
	l.UpdateTime()
	l.runTimers()
	l.drainIntake()
	l.runReady()
	l.runIdle()
	l.runPrepare()
	l.poll(l.pollTimeout(mode))
	l.drainIntake()
	l.runReady()
	l.runCheck()
	l.sweepClosing()
}

// schedule queues fn for delivery from loop dispatch. Loop thread only.
func (l *Loop) schedule(fn func()) {
	l.ready.Add(fn)
}

// post marshals fn onto the loop from any goroutine and wakes the poll.
// Posts against a closed loop are dropped.
func (l *Loop) post(fn func()) {
	l.intakeMu.Lock()
	if l.intakeClosed {
		l.intakeMu.Unlock()
		return
	}
	l.intake = append(l.intake, fn)
	l.intakeMu.Unlock()
	if err := l.reactor.Wakeup(); err != nil {
		l.log.WithError(err).Warn("loop: wakeup failed")
	}
}

func (l *Loop) drainIntake() {
	l.intakeMu.Lock()
	fns := l.intake
	l.intake = nil
	l.intakeMu.Unlock()
	for _, fn := range fns {
		l.ready.Add(fn)
	}
}

// runReady delivers the callbacks that were ready when the phase
// started. Callbacks queued by callbacks run on the next pass.
func (l *Loop) runReady() {
	n := l.ready.Length()
	for i := 0; i < n; i++ {
		cb := l.ready.Remove().(func())
		cb()
	}
}

func (l *Loop) runTimers() {
	for {
		t, ok := l.timers.Min()
		if !ok || t.deadline.After(l.now) {
			break
		}
		l.timers.Delete(t)
		t.started = false
		if t.repeat > 0 {
			t.rearm(l.now.Add(t.repeat))
		}
		t.cb(t)
	}
}

func (l *Loop) runIdle() {
	for _, idle := range snapshotPhase(l.idles) {
		if idle.started {
			idle.cb(idle)
		}
	}
}

func (l *Loop) runPrepare() {
	for _, prep := range snapshotPhase(l.prepares) {
		if prep.started {
			prep.cb(prep)
		}
	}
}

func (l *Loop) runCheck() {
	for _, check := range snapshotPhase(l.checks) {
		if check.started {
			check.cb(check)
		}
	}
}

// snapshotPhase copies a phase list so start/stop from inside callbacks
// cannot disturb the iteration.
func snapshotPhase[T any](list []T) []T {
	if len(list) == 0 {
		return nil
	}
	out := make([]T, len(list))
	copy(out, list)
	return out
}

// pollTimeout computes how long the reactor may block this iteration.
func (l *Loop) pollTimeout(mode RunMode) int {
	if mode == RunNoWait || l.stopped {
		return 0
	}
	if l.ready.Length() > 0 || len(l.closing) > 0 {
		return 0
	}
	l.intakeMu.Lock()
	queued := len(l.intake)
	l.intakeMu.Unlock()
	if queued > 0 {
		return 0
	}
	for _, idle := range l.idles {
		if idle.started {
			return 0
		}
	}
	if t, ok := l.timers.Min(); ok {
		d := t.deadline.Sub(l.now)
		if d <= 0 {
			return 0
		}
		ms := int(d / time.Millisecond)
		if d%time.Millisecond != 0 {
			ms++
		}
		return ms
	}
	if l.refs == 0 && l.activeRequests == 0 {
		return 0
	}
	return -1
}

// poll waits on the reactor and dispatches readiness synchronously, in
// the order the reactor delivered the events. A token that fails to
// resolve indicates a native/managed desynchronization: it is reported
// and skipped, the iteration continues.
func (l *Loop) poll(timeoutMs int) {
	n, err := l.reactor.Wait(l.events, timeoutMs)
	if err != nil {
		l.log.WithError(err).Error("loop: reactor wait failed")
		return
	}
	for i := 0; i < n; i++ {
		ev := l.events[i]
		owner, ok := l.registry.Lookup(registry.Token(ev.Token))
		if !ok {
			lookupErr := &api.NotFoundError{Token: uint64(ev.Token)}
			l.log.WithError(lookupErr).Warn("loop: dropping event")
			continue
		}
		target, ok := owner.(reactorOwner)
		if !ok {
			l.log.WithField("owner", owner).Warn("loop: event for non-reactor owner")
			continue
		}
		target.onEvent(ev.Events)
	}
}

// reactorOwner is implemented by handle kinds that receive readiness
// events from the reactor.
type reactorOwner interface {
	onEvent(mask reactor.EventType)
}

// requestClose queues h for the close sweep.
func (l *Loop) requestClose(h *Handle) {
	l.closing = append(l.closing, h)
	if l.running {
		return
	}
	// Closed outside a run: make sure a blocked poll notices.
	if err := l.reactor.Wakeup(); err != nil {
		l.log.WithError(err).Warn("loop: wakeup on close failed")
	}
}

// sweepClosing finalizes handles whose pending requests have drained.
// Handles closed by close callbacks land in a fresh list and are swept
// on the next iteration.
func (l *Loop) sweepClosing() {
	pending := l.closing
	l.closing = nil
	for _, h := range pending {
		if h.pendingRequests > 0 {
			l.closing = append(l.closing, h)
			continue
		}
		h.finalizeClose()
	}
}

// initHandle binds h to the loop, attaches its association and counts it
// towards liveness. Called by kind constructors after the native
// resource, if any, was created successfully.
func (l *Loop) initHandle(h *Handle, kind api.HandleKind, owner any) {
	h.loop = l
	h.kind = kind
	h.state = StateActive
	h.owner = owner
	h.referenced = true
	h.token = l.registry.Attach(owner)
	l.handles[h] = struct{}{}
	l.refs++
}

// abortInit unwinds a partially initialized handle whose native attach
// failed. The handle returns to uninitialized and retains nothing.
func (l *Loop) abortInit(h *Handle) {
	if h.state != StateActive {
		return
	}
	l.registry.Detach(h.token)
	h.token = 0
	delete(l.handles, h)
	l.refs--
	h.state = StateUninitialized
	h.stopWatch = nil
	h.finalize = nil
}

// ensureOpen rejects handle construction on a closed loop.
func (l *Loop) ensureOpen() error {
	if l.closed {
		return api.ErrLoopClosed
	}
	return nil
}
