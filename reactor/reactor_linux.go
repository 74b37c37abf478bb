//go:build linux

// File: reactor/reactor_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Linux epoll(7)-based reactor implementation with eventfd(2) wakeup.

package reactor

import (
	"encoding/binary"
	"sync"

	"golang.org/x/sys/unix"
)

// linuxReactor is an epoll-based readiness reactor.
type linuxReactor struct {
	epfd   int
	wakefd int

	mu     sync.Mutex
	tokens map[int]uintptr // fd -> registered token
}

// NewReactor constructs the platform reactor for Linux.
func NewReactor() (Reactor, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, err
	}
	wakefd, err := unix.Eventfd(0, unix.EFD_CLOEXEC|unix.EFD_NONBLOCK)
	if err != nil {
		unix.Close(epfd)
		return nil, err
	}
	r := &linuxReactor{
		epfd:   epfd,
		wakefd: wakefd,
		tokens: make(map[int]uintptr),
	}
	event := &unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(wakefd)}
	if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, wakefd, event); err != nil {
		unix.Close(wakefd)
		unix.Close(epfd)
		return nil, err
	}
	return r, nil
}

func epollEvents(interest EventType) uint32 {
	var events uint32
	if interest&EventRead != 0 {
		events |= unix.EPOLLIN
	}
	if interest&EventWrite != 0 {
		events |= unix.EPOLLOUT
	}
	return events
}

// Register adds fd to the epoll watch set.
func (r *linuxReactor) Register(fd int, interest EventType, token uintptr) error {
	event := &unix.EpollEvent{Events: epollEvents(interest), Fd: int32(fd)}
	if err := unix.EpollCtl(r.epfd, unix.EPOLL_CTL_ADD, fd, event); err != nil {
		return err
	}
	r.mu.Lock()
	r.tokens[fd] = token
	r.mu.Unlock()
	return nil
}

// Modify replaces the watched event set for fd.
func (r *linuxReactor) Modify(fd int, interest EventType, token uintptr) error {
	event := &unix.EpollEvent{Events: epollEvents(interest), Fd: int32(fd)}
	if err := unix.EpollCtl(r.epfd, unix.EPOLL_CTL_MOD, fd, event); err != nil {
		return err
	}
	r.mu.Lock()
	r.tokens[fd] = token
	r.mu.Unlock()
	return nil
}

// Unregister removes fd from the epoll watch set.
func (r *linuxReactor) Unregister(fd int) error {
	err := unix.EpollCtl(r.epfd, unix.EPOLL_CTL_DEL, fd, nil)
	r.mu.Lock()
	delete(r.tokens, fd)
	r.mu.Unlock()
	return err
}

// Wait collects readiness events. The wakeup eventfd is drained
// internally and never surfaces as a caller-visible event.
func (r *linuxReactor) Wait(events []Event, timeoutMs int) (int, error) {
	raw := make([]unix.EpollEvent, len(events)+1)
	n, err := unix.EpollWait(r.epfd, raw, timeoutMs)
	if err != nil {
		if err == unix.EINTR {
			return 0, nil
		}
		return 0, err
	}

	out := 0
	for i := 0; i < n && out < len(events); i++ {
		fd := int(raw[i].Fd)
		if fd == r.wakefd {
			r.drainWakeup()
			continue
		}

		r.mu.Lock()
		token, ok := r.tokens[fd]
		r.mu.Unlock()
		if !ok {
			// Unregistered between collection and dispatch.
			continue
		}

		var mask EventType
		if raw[i].Events&(unix.EPOLLIN|unix.EPOLLRDHUP) != 0 {
			mask |= EventRead
		}
		if raw[i].Events&unix.EPOLLOUT != 0 {
			mask |= EventWrite
		}
		if raw[i].Events&unix.EPOLLERR != 0 {
			mask |= EventError
		}
		if raw[i].Events&unix.EPOLLHUP != 0 {
			mask |= EventHangup
		}
		events[out] = Event{Token: token, Events: mask}
		out++
	}
	return out, nil
}

// Wakeup posts to the eventfd, unblocking a pending Wait.
func (r *linuxReactor) Wakeup() error {
	var one [8]byte
	binary.NativeEndian.PutUint64(one[:], 1)
	_, err := unix.Write(r.wakefd, one[:])
	if err == unix.EAGAIN {
		// Counter saturated: a wakeup is already pending.
		return nil
	}
	return err
}

func (r *linuxReactor) drainWakeup() {
	var buf [8]byte
	for {
		if _, err := unix.Read(r.wakefd, buf[:]); err != nil {
			return
		}
	}
}

// Close releases the epoll instance and the wakeup eventfd.
func (r *linuxReactor) Close() error {
	unix.Close(r.wakefd)
	return unix.Close(r.epfd)
}
