//go:build linux

// File: tty_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package uv

import (
	"errors"
	"os"
	"testing"

	"github.com/kr/pty"
	"golang.org/x/sys/unix"

	"github.com/koehlma/uv/api"
)

// openPTY opens a pty pair and hands over a duplicated slave
// descriptor the handle may own outright.
func openPTY(t *testing.T) (master *os.File, slaveFD int) {
	t.Helper()
	master, slave, err := pty.Open()
	if err != nil {
		t.Skipf("no pty available: %v", err)
	}
	fd, err := unix.Dup(int(slave.Fd()))
	if err != nil {
		master.Close()
		t.Fatalf("dup slave: %v", err)
	}
	slave.Close()
	return master, fd
}

// TestTTY_AdoptPseudoTerminal adopts the slave side of a pty, switches
// modes and reads a line written through the master.
func TestTTY_AdoptPseudoTerminal(t *testing.T) {
	master, slaveFD := openPTY(t)
	defer master.Close()

	l, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	term, err := NewTTY(l, slaveFD, true)
	if err != nil {
		t.Fatalf("NewTTY: %v", err)
	}

	if err := term.SetMode(TTYModeRaw); err != nil {
		t.Errorf("SetMode raw: %v", err)
	}
	if err := term.ResetMode(); err != nil {
		t.Errorf("ResetMode: %v", err)
	}
	if _, _, err := term.Winsize(); err != nil {
		t.Errorf("Winsize: %v", err)
	}

	var got []byte
	term.StartRead(func(data []byte, err error) {
		if err != nil {
			t.Errorf("read: %v", err)
			return
		}
		got = append(got, data...)
		term.Close(nil)
	})

	if _, err := master.WriteString("input\n"); err != nil {
		t.Fatalf("master write: %v", err)
	}

	l.Run(RunDefault)
	if len(got) == 0 {
		t.Error("no data arrived from the pty")
	}
	l.Close()
}

// TestTTY_RejectsNonTerminal checks a plain descriptor is refused with
// EINVAL and nothing is registered.
func TestTTY_RejectsNonTerminal(t *testing.T) {
	l, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer l.Close()

	fd0, fd1 := socketpair(t)
	defer unix.Close(fd0)
	defer unix.Close(fd1)

	_, err = NewTTY(l, fd0, true)
	var initErr *api.InitError
	if !errors.As(err, &initErr) {
		t.Fatalf("got %v, want InitError", err)
	}
	if initErr.Code != api.EINVAL {
		t.Errorf("code %v, want EINVAL", initErr.Code)
	}
}

// TestTTY_OutputOnlyRefusesRead checks StartRead fails on a terminal
// opened for output.
func TestTTY_OutputOnlyRefusesRead(t *testing.T) {
	master, slaveFD := openPTY(t)
	defer master.Close()

	l, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	term, err := NewTTY(l, slaveFD, false)
	if err != nil {
		t.Fatalf("NewTTY: %v", err)
	}
	if err := term.StartRead(func([]byte, error) {}); api.CodeOf(err) != api.EINVAL {
		t.Errorf("StartRead on output tty: got %v, want EINVAL", err)
	}

	term.Close(nil)
	l.Run(RunDefault)
	l.Close()
}
