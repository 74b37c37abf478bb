// File: reactor/reactor.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Platform-neutral readiness reactor interface.

package reactor

// EventType is a bit set describing descriptor readiness.
type EventType uint8

const (
	// EventRead signals the descriptor is readable.
	EventRead EventType = 1 << iota
	// EventWrite signals the descriptor is writable.
	EventWrite
	// EventError signals an error condition on the descriptor.
	EventError
	// EventHangup signals the peer closed its end.
	EventHangup
)

// Event is one readiness notification. Token is the opaque value supplied
// at registration time; the reactor never interprets it.
type Event struct {
	Token  uintptr
	Events EventType
}

// Reactor multiplexes readiness notifications for registered descriptors.
// Wait may be called from exactly one goroutine; Wakeup is safe to call
// from any goroutine and forces a blocked Wait to return early.
type Reactor interface {
	// Register starts watching fd for the given event set, associating
	// the opaque token with future notifications.
	Register(fd int, interest EventType, token uintptr) error

	// Modify replaces the watched event set and token for fd.
	Modify(fd int, interest EventType, token uintptr) error

	// Unregister stops watching fd. Events already collected by a
	// concurrent Wait may still surface once afterwards.
	Unregister(fd int) error

	// Wait blocks until readiness events are available, the timeout
	// elapses, or Wakeup is called. timeoutMs < 0 blocks indefinitely,
	// 0 polls. Returns the number of events written into events.
	Wait(events []Event, timeoutMs int) (int, error)

	// Wakeup unblocks a pending or the next Wait.
	Wakeup() error

	// Close releases the reactor's resources.
	Close() error
}
