//go:build linux

// File: signal_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package uv

import (
	"syscall"
	"testing"

	"golang.org/x/sys/unix"

	"github.com/koehlma/uv/api"
)

// TestSignal_DeliversToLoop sends SIGUSR1 to the test process and
// checks the callback runs on the loop with the right number.
func TestSignal_DeliversToLoop(t *testing.T) {
	l, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	s, err := NewSignal(l)
	if err != nil {
		t.Fatalf("NewSignal: %v", err)
	}

	var got syscall.Signal
	if err := s.Start(unix.SIGUSR1, func(signum syscall.Signal) {
		got = signum
		s.Close(nil)
	}); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if err := unix.Kill(unix.Getpid(), unix.SIGUSR1); err != nil {
		t.Fatalf("kill: %v", err)
	}

	l.Run(RunDefault)
	if got != unix.SIGUSR1 {
		t.Errorf("delivered %v, want SIGUSR1", got)
	}
	l.Close()
}

// TestSignal_OneshotStopsItself checks a oneshot watch goes quiet after
// the first delivery.
func TestSignal_OneshotStopsItself(t *testing.T) {
	l, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	s, _ := NewSignal(l)
	deliveries := 0
	s.StartOneshot(unix.SIGUSR2, func(syscall.Signal) {
		deliveries++
		s.Unref()
	})

	unix.Kill(unix.Getpid(), unix.SIGUSR2)
	l.Run(RunDefault)

	if deliveries != 1 {
		t.Errorf("oneshot delivered %d times, want 1", deliveries)
	}
	s.Close(nil)
	l.Run(RunDefault)
	l.Close()
}

// TestSignal_RejectsUncatchable refuses SIGKILL and SIGSTOP.
func TestSignal_RejectsUncatchable(t *testing.T) {
	l, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	s, _ := NewSignal(l)
	if err := s.Start(unix.SIGKILL, func(syscall.Signal) {}); api.CodeOf(err) != api.EINVAL {
		t.Errorf("SIGKILL: got %v, want EINVAL", err)
	}
	if err := s.Start(unix.SIGSTOP, func(syscall.Signal) {}); api.CodeOf(err) != api.EINVAL {
		t.Errorf("SIGSTOP: got %v, want EINVAL", err)
	}

	s.Close(nil)
	l.Run(RunDefault)
	l.Close()
}
