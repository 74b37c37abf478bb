//go:build linux

// File: pipe.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Pipe handles: UNIX domain stream sockets and adopted pipe/socketpair
// descriptors, sharing the stream machinery with TCP.

package uv

import (
	"golang.org/x/sys/unix"

	"github.com/koehlma/uv/api"
)

// Pipe is a local stream handle backed by a UNIX domain socket or an
// adopted descriptor.
type Pipe struct {
	stream
}

// NewPipe creates a pipe handle bound to loop. The socket is created
// lazily by Bind or Connect; Open adopts an existing descriptor instead.
func NewPipe(loop *Loop) (*Pipe, error) {
	if err := loop.ensureOpen(); err != nil {
		return nil, err
	}
	p := &Pipe{}
	if err := p.initStream(loop, api.HandlePipe, p, -1); err != nil {
		loop.abortInit(&p.Handle)
		return nil, &api.InitError{Kind: api.HandlePipe, Code: api.CodeFromErrno(err), Err: err}
	}
	return p, nil
}

func (p *Pipe) ensureSocket() error {
	if p.fd >= 0 {
		return nil
	}
	fd, err := unix.Socket(unix.AF_UNIX, unix.SOCK_STREAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return operationError("socket", api.CodeFromErrno(err), err)
	}
	if err := p.attachFD(fd); err != nil {
		unix.Close(fd)
		return operationError("socket attach", api.CodeFromErrno(err), err)
	}
	return nil
}

// Open adopts an existing stream descriptor (one end of a pipe or
// socketpair). The handle owns the descriptor from here on.
func (p *Pipe) Open(fd int) error {
	if err := p.ensureActive("pipe open"); err != nil {
		return err
	}
	if p.fd >= 0 {
		return operationError("pipe open", api.EEXIST, nil)
	}
	if err := p.attachFD(fd); err != nil {
		return operationError("pipe open", api.CodeFromErrno(err), err)
	}
	p.writable = true
	return nil
}

// Bind binds the pipe to a filesystem path.
func (p *Pipe) Bind(path string) error {
	if err := p.ensureActive("pipe bind"); err != nil {
		return err
	}
	if err := p.ensureSocket(); err != nil {
		return err
	}
	if err := unix.Bind(p.fd, &unix.SockaddrUnix{Name: path}); err != nil {
		return operationError("pipe bind", api.CodeFromErrno(err), err)
	}
	return nil
}

// Listen starts accepting connections on a bound pipe.
func (p *Pipe) Listen(backlog int, cb ConnectionCallback) error {
	return p.listen(backlog, cb)
}

// Accept takes one pending connection off a listening pipe.
func (p *Pipe) Accept() (*Pipe, error) {
	nfd, _, err := p.acceptFD()
	if err != nil {
		return nil, err
	}
	conn := &Pipe{}
	if err := conn.initStream(p.loop, api.HandlePipe, conn, nfd); err != nil {
		p.loop.abortInit(&conn.Handle)
		unix.Close(nfd)
		return nil, operationError("accept", api.CodeFromErrno(err), err)
	}
	conn.writable = true
	return conn, nil
}

// Connect submits a connect request towards the pipe at path.
func (p *Pipe) Connect(path string, cb ConnectCallback) (*ConnectRequest, error) {
	if err := p.ensureActive("pipe connect"); err != nil {
		return nil, err
	}
	if err := p.ensureSocket(); err != nil {
		return nil, err
	}
	return p.connectSockaddr("pipe connect", &unix.SockaddrUnix{Name: path}, cb)
}

// StartRead arms the read watch.
func (p *Pipe) StartRead(cb ReadCallback) error { return p.startRead(cb) }

// StopRead disarms the read watch. Idempotent.
func (p *Pipe) StopRead() error { return p.stopRead() }

// Write submits a write request; data is copied.
func (p *Pipe) Write(data []byte, cb WriteCallback) (*WriteRequest, error) {
	return p.write(data, cb)
}

// Shutdown submits an outgoing-side shutdown.
func (p *Pipe) Shutdown(cb ShutdownCallback) (*ShutdownRequest, error) {
	return p.shutdown(cb)
}

// Sockname returns the path the pipe is bound to, empty for anonymous
// pipes.
func (p *Pipe) Sockname() (string, error) {
	if err := p.ensureActive("pipe sockname"); err != nil {
		return "", err
	}
	sa, err := unix.Getsockname(p.fd)
	if err != nil {
		return "", operationError("pipe sockname", api.CodeFromErrno(err), err)
	}
	if ua, ok := sa.(*unix.SockaddrUnix); ok {
		return ua.Name, nil
	}
	return "", nil
}
