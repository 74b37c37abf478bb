//go:build linux

// File: udp.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// UDP datagram handles: receive watch fed from the loop's scratch
// buffer, ordered send queue, multicast membership and socket options.
// Socket creation is deferred until the address family is known, like
// TCP.

package uv

import (
	"golang.org/x/sys/unix"

	"github.com/koehlma/uv/api"
	"github.com/koehlma/uv/internal/normalize"
	"github.com/koehlma/uv/reactor"
)

// RecvCallback receives one datagram. data aliases the loop's scratch
// buffer and is only valid for the duration of the call. addr is the
// sender address, nil on errors. On buffer contention err carries
// NoBufferAvailableError; the receive watch stays armed across errors.
type RecvCallback func(data []byte, addr *api.SockAddr, err error)

// SendCallback completes a send request.
type SendCallback func(req *SendRequest, err error)

// SendRequest is one queued datagram send. The payload is copied at
// submission; the caller may reuse its slice immediately.
type SendRequest struct {
	request
	cb   SendCallback
	buf  []byte
	sa   unix.Sockaddr
	size int
}

// Size returns the payload length of the send.
func (r *SendRequest) Size() int { return r.size }

// UDP is a UDP socket handle.
type UDP struct {
	Handle
	fd         int
	registered bool
	interest   reactor.EventType

	recvCb    RecvCallback
	receiving bool

	sends []*SendRequest
}

// BindFlag adjusts UDP bind behavior.
type BindFlag int

const (
	// BindReuseAddr sets SO_REUSEADDR before binding.
	BindReuseAddr BindFlag = 1 << iota
)

// NewUDP creates a UDP handle bound to loop. Without a family argument
// the socket is created lazily at bind or send time; with one, the
// socket is created immediately and an unsupported family fails with
// InitError carrying EAFNOSUPPORT.
func NewUDP(loop *Loop, family ...api.Family) (*UDP, error) {
	if err := loop.ensureOpen(); err != nil {
		return nil, err
	}

	fd := -1
	if len(family) > 0 && family[0] != api.FamilyUnspec {
		var err error
		fd, err = newSocket(family[0], unix.SOCK_DGRAM)
		if err != nil {
			return nil, &api.InitError{Kind: api.HandleUDP, Code: api.CodeFromErrno(err), Err: err}
		}
	}

	u := &UDP{fd: -1}
	loop.initHandle(&u.Handle, api.HandleUDP, u)
	u.stopWatch = u.teardown
	u.finalize = u.closeFD
	if fd >= 0 {
		if err := u.attachFD(fd); err != nil {
			loop.abortInit(&u.Handle)
			unix.Close(fd)
			return nil, &api.InitError{Kind: api.HandleUDP, Code: api.CodeFromErrno(err), Err: err}
		}
	}
	return u, nil
}

// Fileno returns the underlying descriptor, EBADF before one exists.
func (u *UDP) Fileno() (int, error) {
	if err := u.ensureActive("fileno"); err != nil {
		return -1, err
	}
	if u.fd < 0 {
		return -1, operationError("fileno", api.EBADF, nil)
	}
	return u.fd, nil
}

func (u *UDP) attachFD(fd int) error {
	if err := unix.SetNonblock(fd, true); err != nil {
		return err
	}
	if err := u.loop.reactor.Register(fd, 0, uintptr(u.token)); err != nil {
		return err
	}
	u.fd = fd
	u.registered = true
	u.interest = 0
	return nil
}

func (u *UDP) closeFD() {
	if u.fd >= 0 {
		unix.Close(u.fd)
		u.fd = -1
	}
}

func (u *UDP) ensureSocket(family api.Family) error {
	if u.fd >= 0 {
		return nil
	}
	fd, err := newSocket(family, unix.SOCK_DGRAM)
	if err != nil {
		return operationError("socket", api.CodeFromErrno(err), err)
	}
	if err := u.attachFD(fd); err != nil {
		unix.Close(fd)
		return operationError("socket attach", api.CodeFromErrno(err), err)
	}
	return nil
}

// Open adopts an existing datagram socket descriptor.
func (u *UDP) Open(fd int) error {
	if err := u.ensureActive("udp open"); err != nil {
		return err
	}
	if u.fd >= 0 {
		return operationError("udp open", api.EEXIST, nil)
	}
	if err := u.attachFD(fd); err != nil {
		return operationError("udp open", api.CodeFromErrno(err), err)
	}
	return nil
}

// Bind binds the socket to addr.
func (u *UDP) Bind(addr api.SockAddr, flags BindFlag) error {
	if err := u.ensureActive("udp bind"); err != nil {
		return err
	}
	if err := u.ensureSocket(addr.Family()); err != nil {
		return err
	}
	if flags&BindReuseAddr != 0 {
		if err := unix.SetsockoptInt(u.fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
			return operationError("udp bind", api.CodeFromErrno(err), err)
		}
	}
	sa, err := normalize.ToSockaddr(addr)
	if err != nil {
		return operationError("udp bind", api.CodeFromErrno(err), err)
	}
	if err := unix.Bind(u.fd, sa); err != nil {
		return operationError("udp bind", api.CodeFromErrno(err), err)
	}
	return nil
}

// StartRecv arms the receive watch. Only one watch may be armed at a
// time.
func (u *UDP) StartRecv(cb RecvCallback) error {
	if err := u.ensureActive("recv start"); err != nil {
		return err
	}
	if cb == nil {
		return &api.InvalidStateError{Op: "recv start", Reason: "nil callback"}
	}
	if u.receiving {
		return operationError("recv start", api.EALREADY, nil)
	}
	if u.fd < 0 {
		return operationError("recv start", api.EINVAL, nil)
	}
	u.recvCb = cb
	u.receiving = true
	u.started = true
	u.updateInterest()
	return nil
}

// StopRecv disarms the receive watch. Idempotent.
func (u *UDP) StopRecv() error {
	if err := u.ensureActive("recv stop"); err != nil {
		return err
	}
	u.receiving = false
	u.started = false
	u.updateInterest()
	return nil
}

// Send submits a datagram send towards addr. The fast path sends
// immediately; on EAGAIN the datagram is queued and flushed on
// writability. Immediate failures are still delivered through the
// callback, never synchronously.
func (u *UDP) Send(data []byte, addr api.SockAddr, cb SendCallback) (*SendRequest, error) {
	if err := u.ensureActive("udp send"); err != nil {
		return nil, err
	}
	if cb == nil {
		return nil, &api.InvalidStateError{Op: "udp send", Reason: "nil callback"}
	}
	if err := u.ensureSocket(addr.Family()); err != nil {
		return nil, err
	}
	sa, err := normalize.ToSockaddr(addr)
	if err != nil {
		return nil, operationError("udp send", api.CodeFromErrno(err), err)
	}

	req := &SendRequest{cb: cb, sa: sa, size: len(data)}
	req.buf = u.loop.payloads.GetBuffer(len(data))
	copy(req.buf, data)
	req.submit(u.loop, &u.Handle, api.RequestSend, req)
	u.sends = append(u.sends, req)
	u.flushSends()
	u.updateInterest()
	return req, nil
}

// flushSends drains the send queue as far as the kernel accepts.
// Datagrams go out whole and in submission order; a per-datagram error
// fails only that request.
func (u *UDP) flushSends() {
	for len(u.sends) > 0 {
		req := u.sends[0]
		err := unix.Sendto(u.fd, req.buf, 0, req.sa)
		if err == unix.EINTR {
			continue
		}
		if err == unix.EAGAIN {
			return
		}
		u.sends = u.sends[1:]
		if err != nil {
			u.completeSend(req, operationError("udp send", api.CodeFromErrno(err), err))
			continue
		}
		u.completeSend(req, nil)
	}
}

func (u *UDP) completeSend(req *SendRequest, err error) {
	if req.buf != nil {
		u.loop.payloads.PutBuffer(req.buf)
		req.buf = nil
	}
	req.finish(func() { req.cb(req, err) })
}

// onEvent dispatches reactor readiness for the socket.
func (u *UDP) onEvent(mask reactor.EventType) {
	if u.state != StateActive {
		return
	}
	if mask&reactor.EventWrite != 0 {
		u.flushSends()
		u.updateInterest()
	}
	if mask&reactor.EventRead != 0 && u.receiving {
		u.recvOnce()
	}
}

// recvOnce receives a single datagram into the loop's scratch buffer.
// The buffer is released unconditionally once the completion has been
// processed.
func (u *UDP) recvOnce() {
	buf, ok := u.loop.buffers.Acquire(0)
	if !ok {
		u.recvCb(nil, nil, &api.NoBufferAvailableError{})
		return
	}

	n, sa, err := unix.Recvfrom(u.fd, buf, 0)
	if err == unix.EINTR || err == unix.EAGAIN {
		u.loop.buffers.Release()
		return
	}
	if err != nil {
		u.loop.buffers.Release()
		u.recvCb(nil, nil, operationError("udp recv", api.CodeFromErrno(err), err))
		return
	}

	var addr *api.SockAddr
	if sa != nil {
		peer := normalize.FromSockaddr(sa)
		addr = &peer
	}
	u.recvCb(buf[:n], addr, nil)
	u.loop.buffers.Release()
}

func (u *UDP) updateInterest() {
	if !u.registered || u.state != StateActive {
		return
	}
	var mask reactor.EventType
	if u.receiving {
		mask |= reactor.EventRead
	}
	if len(u.sends) > 0 {
		mask |= reactor.EventWrite
	}
	if mask == u.interest {
		return
	}
	u.interest = mask
	if err := u.loop.reactor.Modify(u.fd, mask, uintptr(u.token)); err != nil {
		u.loop.log.WithError(err).Warn("udp: reactor modify failed")
	}
}

// teardown detaches from the reactor and cancels queued sends with
// ECANCELED strictly before the close callback fires.
func (u *UDP) teardown() {
	if u.registered {
		if err := u.loop.reactor.Unregister(u.fd); err != nil {
			u.loop.log.WithError(err).Warn("udp: reactor unregister failed")
		}
		u.registered = false
	}
	u.receiving = false

	sends := u.sends
	u.sends = nil
	for _, req := range sends {
		u.completeSend(req, cancelError("udp send"))
	}
}

// Sockname returns the locally bound address.
func (u *UDP) Sockname() (api.SockAddr, error) {
	if err := u.ensureActive("udp sockname"); err != nil {
		return api.SockAddr{}, err
	}
	sa, err := unix.Getsockname(u.fd)
	if err != nil {
		return api.SockAddr{}, operationError("udp sockname", api.CodeFromErrno(err), err)
	}
	return normalize.FromSockaddr(sa), nil
}

// SetBroadcast toggles SO_BROADCAST.
func (u *UDP) SetBroadcast(enable bool) error {
	if err := u.ensureActive("udp broadcast"); err != nil {
		return err
	}
	v := 0
	if enable {
		v = 1
	}
	if err := unix.SetsockoptInt(u.fd, unix.SOL_SOCKET, unix.SO_BROADCAST, v); err != nil {
		return operationError("udp broadcast", api.CodeFromErrno(err), err)
	}
	return nil
}

// SetTTL sets the unicast time-to-live.
func (u *UDP) SetTTL(ttl int) error {
	if err := u.ensureActive("udp ttl"); err != nil {
		return err
	}
	if ttl < 1 || ttl > 255 {
		return operationError("udp ttl", api.EINVAL, nil)
	}
	if err := unix.SetsockoptInt(u.fd, unix.IPPROTO_IP, unix.IP_TTL, ttl); err != nil {
		return operationError("udp ttl", api.CodeFromErrno(err), err)
	}
	return nil
}

// SetMulticastLoop toggles delivery of sent multicast back to the
// local socket.
func (u *UDP) SetMulticastLoop(enable bool) error {
	if err := u.ensureActive("udp multicast loop"); err != nil {
		return err
	}
	v := 0
	if enable {
		v = 1
	}
	if err := unix.SetsockoptInt(u.fd, unix.IPPROTO_IP, unix.IP_MULTICAST_LOOP, v); err != nil {
		return operationError("udp multicast loop", api.CodeFromErrno(err), err)
	}
	return nil
}

// JoinGroup joins the multicast group at group, optionally bound to
// the interface holding iface (empty string for any).
func (u *UDP) JoinGroup(group, iface api.SockAddr) error {
	return u.membership("udp join group", group, iface, true)
}

// LeaveGroup leaves the multicast group at group.
func (u *UDP) LeaveGroup(group, iface api.SockAddr) error {
	return u.membership("udp leave group", group, iface, false)
}

func (u *UDP) membership(op string, group, iface api.SockAddr, join bool) error {
	if err := u.ensureActive(op); err != nil {
		return err
	}
	if u.fd < 0 {
		return operationError(op, api.EINVAL, nil)
	}

	if ip4 := group.IP.To4(); ip4 != nil {
		mreq := &unix.IPMreq{}
		copy(mreq.Multiaddr[:], ip4)
		if if4 := iface.IP.To4(); if4 != nil {
			copy(mreq.Interface[:], if4)
		}
		opt := unix.IP_ADD_MEMBERSHIP
		if !join {
			opt = unix.IP_DROP_MEMBERSHIP
		}
		if err := unix.SetsockoptIPMreq(u.fd, unix.IPPROTO_IP, opt, mreq); err != nil {
			return operationError(op, api.CodeFromErrno(err), err)
		}
		return nil
	}

	ip6 := group.IP.To16()
	if ip6 == nil {
		return operationError(op, api.EINVAL, nil)
	}
	mreq := &unix.IPv6Mreq{Interface: iface.ScopeID}
	copy(mreq.Multiaddr[:], ip6)
	opt := unix.IPV6_JOIN_GROUP
	if !join {
		opt = unix.IPV6_LEAVE_GROUP
	}
	if err := unix.SetsockoptIPv6Mreq(u.fd, unix.IPPROTO_IPV6, opt, mreq); err != nil {
		return operationError(op, api.CodeFromErrno(err), err)
	}
	return nil
}
