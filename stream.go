//go:build linux

// File: stream.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Shared stream machinery for TCP, pipe and TTY handles: the read watch
// fed from the loop's scratch buffer, the ordered write queue, connect
// and shutdown requests, and listen/accept. Writes complete in
// submission order; shutdown completes after every preceding write.

package uv

import (
	"golang.org/x/sys/unix"

	"github.com/koehlma/uv/api"
	"github.com/koehlma/uv/reactor"
)

// ReadCallback receives stream data. data aliases the loop's scratch
// buffer and is only valid for the duration of the call; copy it to
// keep it. On end of stream err carries code EOF, on buffer contention
// NoBufferAvailableError; the read watch stops on EOF and errors.
type ReadCallback func(data []byte, err error)

// ConnectionCallback signals an incoming connection ready to Accept.
type ConnectionCallback func(err error)

// ConnectCallback completes a connect request.
type ConnectCallback func(req *ConnectRequest, err error)

// WriteCallback completes a write request.
type WriteCallback func(req *WriteRequest, err error)

// ShutdownCallback completes a shutdown request.
type ShutdownCallback func(req *ShutdownRequest, err error)

// ConnectRequest is a pending stream connect.
type ConnectRequest struct {
	request
	cb ConnectCallback
}

// WriteRequest is one queued stream write. The payload is copied at
// submission; the caller may reuse its slice immediately.
type WriteRequest struct {
	request
	cb   WriteCallback
	buf  []byte
	off  int
	size int
}

// Size returns the payload length of the write.
func (r *WriteRequest) Size() int { return r.size }

// ShutdownRequest is a pending outgoing-side shutdown.
type ShutdownRequest struct {
	request
	cb ShutdownCallback
}

// stream is embedded by the stream handle kinds.
type stream struct {
	Handle
	fd         int
	registered bool
	interest   reactor.EventType

	readCb  ReadCallback
	reading bool

	listening    bool
	connectionCb ConnectionCallback

	writable       bool
	connect        *ConnectRequest
	writes         []*WriteRequest
	shutdownReq    *ShutdownRequest
	shutdownIssued bool
}

// initStream binds the handle and, when fd is valid, attaches it to the
// reactor. Kinds with deferred socket creation pass fd < 0 and attach
// later through attachFD.
func (s *stream) initStream(loop *Loop, kind api.HandleKind, owner any, fd int) error {
	loop.initHandle(&s.Handle, kind, owner)
	s.fd = -1
	s.stopWatch = s.teardownStream
	s.finalize = s.closeFD
	if fd >= 0 {
		if err := s.attachFD(fd); err != nil {
			return err
		}
	}
	return nil
}

// Fileno returns the underlying descriptor, EBADF before one exists.
func (s *stream) Fileno() (int, error) {
	if err := s.ensureActive("fileno"); err != nil {
		return -1, err
	}
	if s.fd < 0 {
		return -1, operationError("fileno", api.EBADF, nil)
	}
	return s.fd, nil
}

// attachFD adopts fd: switches it to non-blocking mode and registers it
// with the reactor under the handle's token.
func (s *stream) attachFD(fd int) error {
	if err := unix.SetNonblock(fd, true); err != nil {
		return err
	}
	if err := s.loop.reactor.Register(fd, 0, uintptr(s.token)); err != nil {
		return err
	}
	s.fd = fd
	s.registered = true
	s.interest = 0
	return nil
}

func (s *stream) closeFD() {
	if s.fd >= 0 {
		unix.Close(s.fd)
		s.fd = -1
	}
}

// startRead arms the read watch. Only one watch may be armed at a time.
func (s *stream) startRead(cb ReadCallback) error {
	if err := s.ensureActive("read start"); err != nil {
		return err
	}
	if cb == nil {
		return &api.InvalidStateError{Op: "read start", Reason: "nil callback"}
	}
	if s.reading {
		return operationError("read start", api.EALREADY, nil)
	}
	if !s.writable || s.fd < 0 {
		return operationError("read start", api.ENOTCONN, nil)
	}
	s.readCb = cb
	s.reading = true
	s.started = true
	s.updateInterest()
	return nil
}

// stopRead disarms the read watch. Idempotent.
func (s *stream) stopRead() error {
	if err := s.ensureActive("read stop"); err != nil {
		return err
	}
	s.reading = false
	s.started = false
	s.updateInterest()
	return nil
}

// listen starts accepting connections; cb fires whenever a connection
// is ready to Accept.
func (s *stream) listen(backlog int, cb ConnectionCallback) error {
	if err := s.ensureActive("listen"); err != nil {
		return err
	}
	if cb == nil {
		return &api.InvalidStateError{Op: "listen", Reason: "nil callback"}
	}
	if s.fd < 0 {
		return operationError("listen", api.EINVAL, nil)
	}
	if backlog < 1 {
		backlog = unix.SOMAXCONN
	}
	if err := unix.Listen(s.fd, backlog); err != nil {
		return operationError("listen", api.CodeFromErrno(err), err)
	}
	s.listening = true
	s.connectionCb = cb
	s.started = true
	s.updateInterest()
	return nil
}

// acceptFD takes one pending connection off a listening stream.
func (s *stream) acceptFD() (int, unix.Sockaddr, error) {
	if err := s.ensureActive("accept"); err != nil {
		return -1, nil, err
	}
	if !s.listening {
		return -1, nil, &api.InvalidStateError{Op: "accept", Reason: "stream is not listening"}
	}
	nfd, sa, err := unix.Accept4(s.fd, unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC)
	if err != nil {
		return -1, nil, operationError("accept", api.CodeFromErrno(err), err)
	}
	return nfd, sa, nil
}

// connectSockaddr submits a connect request. Immediate failures are
// still delivered through the callback, never synchronously.
func (s *stream) connectSockaddr(op string, sa unix.Sockaddr, cb ConnectCallback) (*ConnectRequest, error) {
	if err := s.ensureActive(op); err != nil {
		return nil, err
	}
	if cb == nil {
		return nil, &api.InvalidStateError{Op: op, Reason: "nil callback"}
	}
	if s.connect != nil {
		return nil, operationError(op, api.EALREADY, nil)
	}
	if s.writable {
		return nil, operationError(op, api.EISCONN, nil)
	}

	req := &ConnectRequest{cb: cb}
	req.submit(s.loop, &s.Handle, api.RequestConnect, req)

	err := unix.Connect(s.fd, sa)
	switch {
	case err == nil:
		s.writable = true
		s.completeConnect(req, nil)
	case err == unix.EINPROGRESS:
		s.connect = req
		s.updateInterest()
	default:
		s.completeConnect(req, operationError(op, api.CodeFromErrno(err), err))
	}
	return req, nil
}

// write submits a write request. The fast path writes immediately; the
// remainder is queued and flushed on writability.
func (s *stream) write(data []byte, cb WriteCallback) (*WriteRequest, error) {
	if err := s.ensureActive("write"); err != nil {
		return nil, err
	}
	if !s.writable || s.fd < 0 {
		return nil, operationError("write", api.ENOTCONN, nil)
	}
	if s.shutdownIssued {
		return nil, operationError("write", api.ESHUTDOWN, nil)
	}

	req := &WriteRequest{cb: cb, size: len(data)}
	req.buf = s.loop.payloads.GetBuffer(len(data))
	copy(req.buf, data)
	req.submit(s.loop, &s.Handle, api.RequestWrite, req)
	s.writes = append(s.writes, req)
	s.flushWrites()
	s.updateInterest()
	return req, nil
}

// shutdown submits an outgoing-side shutdown, completing once every
// queued write has drained.
func (s *stream) shutdown(cb ShutdownCallback) (*ShutdownRequest, error) {
	if err := s.ensureActive("shutdown"); err != nil {
		return nil, err
	}
	if !s.writable || s.fd < 0 {
		return nil, operationError("shutdown", api.ENOTCONN, nil)
	}
	if s.shutdownIssued {
		return nil, operationError("shutdown", api.EALREADY, nil)
	}

	req := &ShutdownRequest{cb: cb}
	req.submit(s.loop, &s.Handle, api.RequestShutdown, req)
	s.shutdownReq = req
	s.shutdownIssued = true
	s.flushWrites()
	s.updateInterest()
	return req, nil
}

// flushWrites drains the write queue as far as the kernel accepts, then
// performs a pending shutdown once the queue is empty.
func (s *stream) flushWrites() {
	for len(s.writes) > 0 {
		req := s.writes[0]
		for req.off < len(req.buf) {
			n, err := unix.Write(s.fd, req.buf[req.off:])
			if n > 0 {
				req.off += n
			}
			if err == unix.EINTR {
				continue
			}
			if err == unix.EAGAIN {
				return
			}
			if err != nil {
				s.failWrites(operationError("write", api.CodeFromErrno(err), err))
				return
			}
		}
		s.writes = s.writes[1:]
		s.completeWrite(req, nil)
	}

	if s.shutdownReq != nil {
		req := s.shutdownReq
		s.shutdownReq = nil
		var err error
		if sderr := unix.Shutdown(s.fd, unix.SHUT_WR); sderr != nil {
			err = operationError("shutdown", api.CodeFromErrno(sderr), sderr)
		}
		if req.finish(func() { req.cb(req, err) }) {
			s.writable = false
		}
	}
}

// failWrites errors out every queued write and a pending shutdown.
func (s *stream) failWrites(err error) {
	writes := s.writes
	s.writes = nil
	for _, req := range writes {
		s.completeWrite(req, err)
	}
	if req := s.shutdownReq; req != nil {
		s.shutdownReq = nil
		req.finish(func() { req.cb(req, err) })
	}
}

func (s *stream) completeWrite(req *WriteRequest, err error) {
	if req.buf != nil {
		s.loop.payloads.PutBuffer(req.buf)
		req.buf = nil
	}
	req.finish(func() { req.cb(req, err) })
}

func (s *stream) completeConnect(req *ConnectRequest, err error) {
	req.finish(func() { req.cb(req, err) })
}

// onEvent dispatches reactor readiness for the stream.
func (s *stream) onEvent(mask reactor.EventType) {
	if s.state != StateActive {
		return
	}

	if mask&reactor.EventWrite != 0 {
		if req := s.connect; req != nil {
			s.connect = nil
			soErr, err := unix.GetsockoptInt(s.fd, unix.SOL_SOCKET, unix.SO_ERROR)
			switch {
			case err != nil:
				s.completeConnect(req, operationError("connect", api.CodeFromErrno(err), err))
			case soErr != 0:
				errno := unix.Errno(soErr)
				s.completeConnect(req, operationError("connect", api.CodeFromErrno(errno), errno))
			default:
				s.writable = true
				s.completeConnect(req, nil)
			}
		} else {
			s.flushWrites()
		}
		s.updateInterest()
	}

	if mask&reactor.EventRead != 0 {
		if s.listening {
			s.connectionCb(nil)
		} else if s.reading {
			s.readOnce()
		}
	}

	if mask&(reactor.EventError|reactor.EventHangup) != 0 && s.state == StateActive {
		if s.reading && mask&reactor.EventRead == 0 {
			// Error with no data pending: surface it to the reader.
			s.readOnce()
		}
	}
}

// readOnce performs a single read against the loop's scratch buffer.
// The buffer is released unconditionally once the completion has been
// processed, on success, failure and EOF alike.
func (s *stream) readOnce() {
	buf, ok := s.loop.buffers.Acquire(0)
	if !ok {
		s.readCb(nil, &api.NoBufferAvailableError{})
		return
	}

	n, err := unix.Read(s.fd, buf)
	if err == unix.EINTR || err == unix.EAGAIN {
		s.loop.buffers.Release()
		return
	}
	if err != nil {
		s.loop.buffers.Release()
		s.reading = false
		s.started = false
		s.updateInterest()
		s.readCb(nil, operationError("read", api.CodeFromErrno(err), err))
		return
	}
	if n == 0 {
		s.loop.buffers.Release()
		s.reading = false
		s.started = false
		s.updateInterest()
		s.readCb(nil, operationError("read", api.EOF, nil))
		return
	}

	s.readCb(buf[:n], nil)
	s.loop.buffers.Release()
}

// updateInterest reconciles the reactor event mask with the stream's
// armed watches and queued requests.
func (s *stream) updateInterest() {
	if !s.registered || s.state != StateActive {
		return
	}
	var mask reactor.EventType
	if s.reading || s.listening {
		mask |= reactor.EventRead
	}
	if s.connect != nil || len(s.writes) > 0 || s.shutdownReq != nil {
		mask |= reactor.EventWrite
	}
	if mask == s.interest {
		return
	}
	s.interest = mask
	if err := s.loop.reactor.Modify(s.fd, mask, uintptr(s.token)); err != nil {
		s.loop.log.WithError(err).Warn("stream: reactor modify failed")
	}
}

// teardownStream detaches from the reactor and cancels queued requests.
// Cancelled requests complete with ECANCELED strictly before the close
// callback fires.
func (s *stream) teardownStream() {
	if s.registered {
		if err := s.loop.reactor.Unregister(s.fd); err != nil {
			s.loop.log.WithError(err).Warn("stream: reactor unregister failed")
		}
		s.registered = false
	}
	s.reading = false
	s.listening = false

	if req := s.connect; req != nil {
		s.connect = nil
		s.completeConnect(req, cancelError("connect"))
	}
	writes := s.writes
	s.writes = nil
	for _, req := range writes {
		s.completeWrite(req, cancelError("write"))
	}
	if req := s.shutdownReq; req != nil {
		s.shutdownReq = nil
		req.finish(func() { req.cb(req, cancelError("shutdown")) })
	}
}
