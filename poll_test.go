//go:build linux

// File: poll_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package uv

import (
	"testing"

	"golang.org/x/sys/unix"

	"github.com/koehlma/uv/api"
)

// TestPoll_ReportsReadable watches the read end of a pipe and checks
// readiness fires once data lands.
func TestPoll_ReportsReadable(t *testing.T) {
	l, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	var fds [2]int
	if err := unix.Pipe2(fds[:], unix.O_NONBLOCK|unix.O_CLOEXEC); err != nil {
		t.Fatalf("pipe: %v", err)
	}
	defer unix.Close(fds[0])
	defer unix.Close(fds[1])

	p, err := NewPoll(l, fds[0])
	if err != nil {
		t.Fatalf("NewPoll: %v", err)
	}

	var seen PollEvent
	p.Start(PollReadable, func(events PollEvent, err error) {
		if err != nil {
			t.Errorf("poll: %v", err)
		}
		seen = events
		p.Close(nil)
	})

	if _, err := unix.Write(fds[1], []byte("x")); err != nil {
		t.Fatalf("write: %v", err)
	}

	l.Run(RunDefault)
	if seen&PollReadable == 0 {
		t.Errorf("events %v, want readable", seen)
	}

	// The descriptor stays ours after close.
	buf := make([]byte, 1)
	if _, err := unix.Read(fds[0], buf); err != nil {
		t.Errorf("descriptor unusable after handle close: %v", err)
	}
	l.Close()
}

// TestPoll_StartValidates rejects empty masks and nil callbacks.
func TestPoll_StartValidates(t *testing.T) {
	l, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	var fds [2]int
	if err := unix.Pipe2(fds[:], unix.O_NONBLOCK|unix.O_CLOEXEC); err != nil {
		t.Fatalf("pipe: %v", err)
	}
	defer unix.Close(fds[0])
	defer unix.Close(fds[1])

	p, _ := NewPoll(l, fds[0])
	if err := p.Start(0, func(PollEvent, error) {}); api.CodeOf(err) != api.EINVAL {
		t.Errorf("empty mask: got %v, want EINVAL", err)
	}
	if err := p.Start(PollReadable, nil); err == nil {
		t.Error("nil callback accepted")
	}

	p.Close(nil)
	l.Run(RunDefault)
	l.Close()
}

// TestPoll_StopSilences stops the watch and checks no callback fires
// for pending readiness.
func TestPoll_StopSilences(t *testing.T) {
	l, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	var fds [2]int
	if err := unix.Pipe2(fds[:], unix.O_NONBLOCK|unix.O_CLOEXEC); err != nil {
		t.Fatalf("pipe: %v", err)
	}
	defer unix.Close(fds[0])
	defer unix.Close(fds[1])

	p, _ := NewPoll(l, fds[0])
	p.Start(PollReadable, func(PollEvent, error) {
		t.Error("stopped poll fired")
	})
	p.Stop()

	unix.Write(fds[1], []byte("x"))
	l.Run(RunNoWait)

	p.Close(nil)
	l.Run(RunDefault)
	l.Close()
}
