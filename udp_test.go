//go:build linux

// File: udp_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package uv

import (
	"bytes"
	"errors"
	"net"
	"testing"

	"github.com/koehlma/uv/api"
)

// TestUDP_SendRecvRoundtrip binds a receiver on the loopback, sends a
// datagram to it and checks payload and sender address.
func TestUDP_SendRecvRoundtrip(t *testing.T) {
	l, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	recv, _ := NewUDP(l)
	if err := recv.Bind(api.SockAddr{IP: net.IPv4(127, 0, 0, 1)}, 0); err != nil {
		t.Fatalf("Bind: %v", err)
	}
	dst, err := recv.Sockname()
	if err != nil {
		t.Fatalf("Sockname: %v", err)
	}

	send, _ := NewUDP(l)
	payload := []byte("datagram")
	var got []byte
	var from *api.SockAddr

	if err := recv.StartRecv(func(data []byte, addr *api.SockAddr, err error) {
		if err != nil {
			t.Errorf("recv: %v", err)
			return
		}
		got = append([]byte(nil), data...)
		from = addr
		recv.Close(nil)
		send.Close(nil)
	}); err != nil {
		t.Fatalf("StartRecv: %v", err)
	}

	sent := false
	if _, err := send.Send(payload, dst, func(req *SendRequest, err error) {
		if err != nil {
			t.Errorf("send: %v", err)
		}
		if req.Size() != len(payload) {
			t.Errorf("send size %d, want %d", req.Size(), len(payload))
		}
		sent = true
	}); err != nil {
		t.Fatalf("Send: %v", err)
	}

	l.Run(RunDefault)
	if !sent {
		t.Error("send callback never ran")
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("received %q, want %q", got, payload)
	}
	if from == nil || !from.IP.Equal(net.IPv4(127, 0, 0, 1)) {
		t.Errorf("sender address %v", from)
	}
	l.Close()
}

// TestUDP_CloseCancelsQueuedSends closes a handle while a send is still
// queued and checks the completion carries ECANCELED before the close
// callback.
func TestUDP_CloseCancelsQueuedSends(t *testing.T) {
	l, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	u, _ := NewUDP(l, api.FamilyInet4)
	// Force the queue by never flushing: stash a request directly the
	// way an EAGAIN would leave it.
	req := &SendRequest{cb: nil, size: 4}
	req.buf = l.payloads.GetBuffer(4)
	req.submit(l, &u.Handle, api.RequestSend, req)
	u.sends = append(u.sends, req)

	var cancelled, closed bool
	req.cb = func(r *SendRequest, err error) {
		if closed {
			t.Error("send completion after close callback")
		}
		if api.CodeOf(err) != api.ECANCELED {
			t.Errorf("queued send: got %v, want ECANCELED", err)
		}
		cancelled = true
	}

	u.Close(func() { closed = true })
	l.Run(RunDefault)

	if !cancelled {
		t.Error("queued send never completed")
	}
	if !closed {
		t.Error("close callback never ran")
	}
	l.Close()
}

// TestUDP_OptionValidation checks option setters reject nonsense.
func TestUDP_OptionValidation(t *testing.T) {
	l, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	u, _ := NewUDP(l, api.FamilyInet4)
	if err := u.SetTTL(0); api.CodeOf(err) != api.EINVAL {
		t.Errorf("SetTTL(0): got %v, want EINVAL", err)
	}
	if err := u.SetTTL(64); err != nil {
		t.Errorf("SetTTL(64): %v", err)
	}
	if err := u.SetBroadcast(true); err != nil {
		t.Errorf("SetBroadcast: %v", err)
	}

	u.Close(nil)
	l.Run(RunDefault)
	l.Close()
}

// TestUDP_InitErrorLeavesNothingBehind checks a forced bad family fails
// construction and registers nothing with the loop.
func TestUDP_InitErrorLeavesNothingBehind(t *testing.T) {
	l, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer l.Close()

	if _, err := NewUDP(l, api.Family(99)); err == nil {
		t.Fatal("NewUDP accepted an invalid family")
	} else {
		var initErr *api.InitError
		if !errors.As(err, &initErr) {
			t.Fatalf("got %T, want InitError", err)
		}
		if initErr.Code != api.EAFNOSUPPORT {
			t.Errorf("code %v, want EAFNOSUPPORT", initErr.Code)
		}
	}
	if l.Alive() {
		t.Error("failed construction left the loop alive")
	}
}
