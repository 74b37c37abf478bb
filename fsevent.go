//go:build linux

// File: fsevent.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Filesystem event handles backed by inotify. Each handle owns one
// inotify descriptor and a dedicated read buffer; event records are
// variable length so the shared scratch buffer is not used here.

package uv

import (
	"bytes"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/koehlma/uv/api"
	"github.com/koehlma/uv/reactor"
)

// FSEventType classifies a filesystem notification.
type FSEventType int

const (
	// FSEventRename covers create, delete and move of the watched path
	// or entries under it.
	FSEventRename FSEventType = 1 << iota
	// FSEventChange covers content and metadata modification.
	FSEventChange
)

// FSEventCallback receives one notification. name is the affected
// entry relative to the watched path, empty for events on the path
// itself. On watch loss err carries the failure and the watch stops.
type FSEventCallback func(name string, events FSEventType, err error)

// FSEvent watches one filesystem path.
type FSEvent struct {
	Handle
	fd         int
	wd         int
	registered bool
	watching   bool
	cb         FSEventCallback
	buf        []byte
}

// NewFSEvent creates a filesystem watch handle bound to loop.
func NewFSEvent(loop *Loop) (*FSEvent, error) {
	if err := loop.ensureOpen(); err != nil {
		return nil, err
	}

	fd, err := unix.InotifyInit1(unix.IN_NONBLOCK | unix.IN_CLOEXEC)
	if err != nil {
		return nil, &api.InitError{Kind: api.HandleFSEvent, Code: api.CodeFromErrno(err), Err: err}
	}

	f := &FSEvent{fd: fd, wd: -1, buf: make([]byte, 4096)}
	loop.initHandle(&f.Handle, api.HandleFSEvent, f)
	f.stopWatch = f.teardown
	f.finalize = f.closeFD
	if err := loop.reactor.Register(fd, 0, uintptr(f.token)); err != nil {
		loop.abortInit(&f.Handle)
		unix.Close(fd)
		return nil, &api.InitError{Kind: api.HandleFSEvent, Code: api.CodeFromErrno(err), Err: err}
	}
	f.registered = true
	return f, nil
}

// Start watches path. One watch per handle; a second Start fails with
// EALREADY.
func (f *FSEvent) Start(path string, cb FSEventCallback) error {
	if err := f.ensureActive("fsevent start"); err != nil {
		return err
	}
	if cb == nil {
		return &api.InvalidStateError{Op: "fsevent start", Reason: "nil callback"}
	}
	if f.watching {
		return operationError("fsevent start", api.EALREADY, nil)
	}

	mask := uint32(unix.IN_ATTRIB | unix.IN_MODIFY |
		unix.IN_CREATE | unix.IN_DELETE | unix.IN_DELETE_SELF |
		unix.IN_MOVED_FROM | unix.IN_MOVED_TO | unix.IN_MOVE_SELF)
	wd, err := unix.InotifyAddWatch(f.fd, path, mask)
	if err != nil {
		return operationError("fsevent start", api.CodeFromErrno(err), err)
	}

	f.wd = wd
	f.cb = cb
	f.watching = true
	f.started = true
	if err := f.loop.reactor.Modify(f.fd, reactor.EventRead, uintptr(f.token)); err != nil {
		f.loop.log.WithError(err).Warn("fsevent: reactor modify failed")
	}
	return nil
}

// Stop disarms the watch. Idempotent.
func (f *FSEvent) Stop() error {
	if err := f.ensureActive("fsevent stop"); err != nil {
		return err
	}
	f.removeWatch()
	return nil
}

func (f *FSEvent) removeWatch() {
	if f.wd >= 0 {
		unix.InotifyRmWatch(f.fd, uint32(f.wd))
		f.wd = -1
	}
	f.watching = false
	f.started = false
	if f.registered && f.state == StateActive {
		if err := f.loop.reactor.Modify(f.fd, 0, uintptr(f.token)); err != nil {
			f.loop.log.WithError(err).Warn("fsevent: reactor modify failed")
		}
	}
}

// onEvent drains the inotify descriptor and dispatches one callback
// per record.
func (f *FSEvent) onEvent(mask reactor.EventType) {
	if f.state != StateActive || !f.watching {
		return
	}

	n, err := unix.Read(f.fd, f.buf)
	if err == unix.EINTR || err == unix.EAGAIN {
		return
	}
	if err != nil {
		f.removeWatch()
		f.cb("", 0, operationError("fsevent read", api.CodeFromErrno(err), err))
		return
	}

	off := 0
	for off+unix.SizeofInotifyEvent <= n && f.state == StateActive && f.watching {
		ev := (*unix.InotifyEvent)(unsafe.Pointer(&f.buf[off]))
		nameLen := int(ev.Len)
		name := ""
		if nameLen > 0 {
			raw := f.buf[off+unix.SizeofInotifyEvent : off+unix.SizeofInotifyEvent+nameLen]
			name = string(bytes.TrimRight(raw, "\x00"))
		}
		off += unix.SizeofInotifyEvent + nameLen

		if ev.Mask&unix.IN_IGNORED != 0 {
			// Kernel dropped the watch (path deleted or unmounted).
			f.wd = -1
			continue
		}
		var events FSEventType
		if ev.Mask&(unix.IN_CREATE|unix.IN_DELETE|unix.IN_DELETE_SELF|
			unix.IN_MOVED_FROM|unix.IN_MOVED_TO|unix.IN_MOVE_SELF) != 0 {
			events |= FSEventRename
		}
		if ev.Mask&(unix.IN_ATTRIB|unix.IN_MODIFY) != 0 {
			events |= FSEventChange
		}
		if events != 0 {
			f.cb(name, events, nil)
		}
	}
}

// teardown removes the watch and detaches from the reactor.
func (f *FSEvent) teardown() {
	f.removeWatch()
	if f.registered {
		if err := f.loop.reactor.Unregister(f.fd); err != nil {
			f.loop.log.WithError(err).Warn("fsevent: reactor unregister failed")
		}
		f.registered = false
	}
}

func (f *FSEvent) closeFD() {
	if f.fd >= 0 {
		unix.Close(f.fd)
		f.fd = -1
	}
}
