//go:build linux

// File: tcp.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// TCP stream handles. Socket creation is deferred until the address
// family is known (bind, connect or open), unless a family is forced at
// construction time.

package uv

import (
	"time"

	"golang.org/x/sys/unix"

	"github.com/koehlma/uv/api"
	"github.com/koehlma/uv/internal/normalize"
)

// TCP is a TCP socket handle.
type TCP struct {
	stream
}

// NewTCP creates a TCP handle bound to loop. Without a family argument
// the socket is created lazily when bind or connect learns the family;
// with one, the socket is created immediately and an unsupported family
// fails with InitError carrying EAFNOSUPPORT.
func NewTCP(loop *Loop, family ...api.Family) (*TCP, error) {
	if err := loop.ensureOpen(); err != nil {
		return nil, err
	}

	fd := -1
	if len(family) > 0 && family[0] != api.FamilyUnspec {
		var err error
		fd, err = newSocket(family[0], unix.SOCK_STREAM)
		if err != nil {
			return nil, &api.InitError{Kind: api.HandleTCP, Code: api.CodeFromErrno(err), Err: err}
		}
	}

	t := &TCP{}
	if err := t.initStream(loop, api.HandleTCP, t, fd); err != nil {
		loop.abortInit(&t.Handle)
		if fd >= 0 {
			unix.Close(fd)
		}
		return nil, &api.InitError{Kind: api.HandleTCP, Code: api.CodeFromErrno(err), Err: err}
	}
	return t, nil
}

// newSocket creates a non-blocking socket for the portable family.
func newSocket(family api.Family, sotype int) (int, error) {
	var domain int
	switch family {
	case api.FamilyInet4:
		domain = unix.AF_INET
	case api.FamilyInet6:
		domain = unix.AF_INET6
	default:
		return -1, unix.EAFNOSUPPORT
	}
	return unix.Socket(domain, sotype|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, 0)
}

// ensureSocket creates and attaches the socket once the family is known.
func (t *TCP) ensureSocket(family api.Family) error {
	if t.fd >= 0 {
		return nil
	}
	fd, err := newSocket(family, unix.SOCK_STREAM)
	if err != nil {
		return operationError("socket", api.CodeFromErrno(err), err)
	}
	if err := t.attachFD(fd); err != nil {
		unix.Close(fd)
		return operationError("socket attach", api.CodeFromErrno(err), err)
	}
	return nil
}

// Open adopts an existing connected or listening socket descriptor.
func (t *TCP) Open(fd int) error {
	if err := t.ensureActive("tcp open"); err != nil {
		return err
	}
	if t.fd >= 0 {
		return operationError("tcp open", api.EEXIST, nil)
	}
	if err := t.attachFD(fd); err != nil {
		return operationError("tcp open", api.CodeFromErrno(err), err)
	}
	t.writable = true
	return nil
}

// Bind binds the socket to addr. SO_REUSEADDR is set first, matching
// the usual server expectation of fast restarts.
func (t *TCP) Bind(addr api.SockAddr) error {
	if err := t.ensureActive("tcp bind"); err != nil {
		return err
	}
	if err := t.ensureSocket(addr.Family()); err != nil {
		return err
	}
	if err := unix.SetsockoptInt(t.fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		return operationError("tcp bind", api.CodeFromErrno(err), err)
	}
	sa, err := normalize.ToSockaddr(addr)
	if err != nil {
		return operationError("tcp bind", api.CodeFromErrno(err), err)
	}
	if err := unix.Bind(t.fd, sa); err != nil {
		return operationError("tcp bind", api.CodeFromErrno(err), err)
	}
	return nil
}

// Listen starts accepting connections.
func (t *TCP) Listen(backlog int, cb ConnectionCallback) error {
	return t.listen(backlog, cb)
}

// Accept takes one pending connection off a listening handle and wraps
// it in a new TCP handle bound to the same loop.
func (t *TCP) Accept() (*TCP, error) {
	nfd, _, err := t.acceptFD()
	if err != nil {
		return nil, err
	}
	conn := &TCP{}
	if err := conn.initStream(t.loop, api.HandleTCP, conn, nfd); err != nil {
		t.loop.abortInit(&conn.Handle)
		unix.Close(nfd)
		return nil, operationError("accept", api.CodeFromErrno(err), err)
	}
	conn.writable = true
	return conn, nil
}

// Connect submits a connect request towards addr.
func (t *TCP) Connect(addr api.SockAddr, cb ConnectCallback) (*ConnectRequest, error) {
	if err := t.ensureActive("tcp connect"); err != nil {
		return nil, err
	}
	if err := t.ensureSocket(addr.Family()); err != nil {
		return nil, err
	}
	sa, err := normalize.ToSockaddr(addr)
	if err != nil {
		return nil, operationError("tcp connect", api.CodeFromErrno(err), err)
	}
	return t.connectSockaddr("tcp connect", sa, cb)
}

// StartRead arms the read watch.
func (t *TCP) StartRead(cb ReadCallback) error { return t.startRead(cb) }

// StopRead disarms the read watch. Idempotent.
func (t *TCP) StopRead() error { return t.stopRead() }

// Write submits a write request; data is copied.
func (t *TCP) Write(data []byte, cb WriteCallback) (*WriteRequest, error) {
	return t.write(data, cb)
}

// Shutdown submits an outgoing-side shutdown.
func (t *TCP) Shutdown(cb ShutdownCallback) (*ShutdownRequest, error) {
	return t.shutdown(cb)
}

// Sockname returns the locally bound address.
func (t *TCP) Sockname() (api.SockAddr, error) {
	if err := t.ensureActive("tcp sockname"); err != nil {
		return api.SockAddr{}, err
	}
	sa, err := unix.Getsockname(t.fd)
	if err != nil {
		return api.SockAddr{}, operationError("tcp sockname", api.CodeFromErrno(err), err)
	}
	return normalize.FromSockaddr(sa), nil
}

// Peername returns the remote address of a connected handle.
func (t *TCP) Peername() (api.SockAddr, error) {
	if err := t.ensureActive("tcp peername"); err != nil {
		return api.SockAddr{}, err
	}
	sa, err := unix.Getpeername(t.fd)
	if err != nil {
		return api.SockAddr{}, operationError("tcp peername", api.CodeFromErrno(err), err)
	}
	return normalize.FromSockaddr(sa), nil
}

// SetNoDelay toggles TCP_NODELAY.
func (t *TCP) SetNoDelay(enable bool) error {
	if err := t.ensureActive("tcp nodelay"); err != nil {
		return err
	}
	if t.fd < 0 {
		return operationError("tcp nodelay", api.EINVAL, nil)
	}
	v := 0
	if enable {
		v = 1
	}
	if err := unix.SetsockoptInt(t.fd, unix.IPPROTO_TCP, unix.TCP_NODELAY, v); err != nil {
		return operationError("tcp nodelay", api.CodeFromErrno(err), err)
	}
	return nil
}

// SetKeepAlive toggles SO_KEEPALIVE with the given idle delay.
func (t *TCP) SetKeepAlive(enable bool, delay time.Duration) error {
	if err := t.ensureActive("tcp keepalive"); err != nil {
		return err
	}
	if t.fd < 0 {
		return operationError("tcp keepalive", api.EINVAL, nil)
	}
	v := 0
	if enable {
		v = 1
	}
	if err := unix.SetsockoptInt(t.fd, unix.SOL_SOCKET, unix.SO_KEEPALIVE, v); err != nil {
		return operationError("tcp keepalive", api.CodeFromErrno(err), err)
	}
	if enable && delay > 0 {
		secs := int(delay / time.Second)
		if secs < 1 {
			secs = 1
		}
		if err := unix.SetsockoptInt(t.fd, unix.IPPROTO_TCP, unix.TCP_KEEPIDLE, secs); err != nil {
			return operationError("tcp keepalive", api.CodeFromErrno(err), err)
		}
	}
	return nil
}
