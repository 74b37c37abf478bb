//go:build linux

// File: tty.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// TTY handles: adoption of terminal descriptors with raw/normal mode
// switching. The original termios settings are captured at init and
// restored by ResetMode or on close.

package uv

import (
	"golang.org/x/sys/unix"

	"github.com/koehlma/uv/api"
	"github.com/koehlma/uv/internal/normalize"
)

// TTYMode selects the terminal input discipline.
type TTYMode int

const (
	// TTYModeNormal is canonical line-buffered input with echo.
	TTYModeNormal TTYMode = iota
	// TTYModeRaw delivers input byte-wise with echo and signals off.
	TTYModeRaw
)

// TTY is a terminal handle adopted from an existing descriptor.
type TTY struct {
	stream
	readable bool
	saved    *unix.Termios
}

// NewTTY adopts the terminal descriptor fd. readable should be true for
// input terminals (stdin) and false for output ones. A descriptor that
// is not a terminal fails with InitError carrying EINVAL.
func NewTTY(loop *Loop, fd int, readable bool) (*TTY, error) {
	if err := loop.ensureOpen(); err != nil {
		return nil, err
	}
	if !normalize.IsTerminal(fd) {
		return nil, &api.InitError{Kind: api.HandleTTY, Code: api.EINVAL, Err: nil}
	}

	saved, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return nil, &api.InitError{Kind: api.HandleTTY, Code: api.CodeFromErrno(err), Err: err}
	}

	t := &TTY{readable: readable, saved: saved}
	if err := t.initStream(loop, api.HandleTTY, t, fd); err != nil {
		loop.abortInit(&t.Handle)
		return nil, &api.InitError{Kind: api.HandleTTY, Code: api.CodeFromErrno(err), Err: err}
	}
	t.writable = true
	prevFinalize := t.finalize
	t.finalize = func() {
		t.restoreMode()
		if prevFinalize != nil {
			prevFinalize()
		}
	}
	return t, nil
}

// SetMode switches the terminal between normal and raw mode.
func (t *TTY) SetMode(mode TTYMode) error {
	if err := t.ensureActive("tty mode"); err != nil {
		return err
	}
	tio := *t.saved
	if mode == TTYModeRaw {
		tio.Iflag &^= unix.BRKINT | unix.ICRNL | unix.INPCK | unix.ISTRIP | unix.IXON
		tio.Oflag &^= unix.OPOST
		tio.Lflag &^= unix.ECHO | unix.ICANON | unix.IEXTEN | unix.ISIG
		tio.Cflag &^= unix.CSIZE | unix.PARENB
		tio.Cflag |= unix.CS8
		tio.Cc[unix.VMIN] = 1
		tio.Cc[unix.VTIME] = 0
	}
	if err := unix.IoctlSetTermios(t.fd, unix.TCSETS, &tio); err != nil {
		return operationError("tty mode", api.CodeFromErrno(err), err)
	}
	return nil
}

// ResetMode restores the termios settings captured at init.
func (t *TTY) ResetMode() error {
	if err := t.ensureActive("tty reset"); err != nil {
		return err
	}
	if err := unix.IoctlSetTermios(t.fd, unix.TCSETS, t.saved); err != nil {
		return operationError("tty reset", api.CodeFromErrno(err), err)
	}
	return nil
}

func (t *TTY) restoreMode() {
	if t.fd >= 0 && t.saved != nil {
		unix.IoctlSetTermios(t.fd, unix.TCSETS, t.saved)
	}
}

// Winsize returns the terminal dimensions in character cells.
func (t *TTY) Winsize() (width, height int, err error) {
	if err := t.ensureActive("tty winsize"); err != nil {
		return 0, 0, err
	}
	ws, werr := unix.IoctlGetWinsize(t.fd, unix.TIOCGWINSZ)
	if werr != nil {
		return 0, 0, operationError("tty winsize", api.CodeFromErrno(werr), werr)
	}
	return int(ws.Col), int(ws.Row), nil
}

// StartRead arms the read watch. Fails with EINVAL on a terminal
// opened for output only.
func (t *TTY) StartRead(cb ReadCallback) error {
	if !t.readable {
		return operationError("tty read", api.EINVAL, nil)
	}
	return t.startRead(cb)
}

// StopRead disarms the read watch. Idempotent.
func (t *TTY) StopRead() error { return t.stopRead() }

// Write submits a write request; data is copied.
func (t *TTY) Write(data []byte, cb WriteCallback) (*WriteRequest, error) {
	return t.write(data, cb)
}
