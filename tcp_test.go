//go:build linux

// File: tcp_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package uv

import (
	"bytes"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/koehlma/uv/api"
)

// TestTCP_ConnectEcho runs a full loopback exchange: listen, connect,
// accept, write from the client, read on the server.
func TestTCP_ConnectEcho(t *testing.T) {
	l, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	server, _ := NewTCP(l)
	if err := server.Bind(api.SockAddr{IP: net.IPv4(127, 0, 0, 1)}); err != nil {
		t.Fatalf("Bind: %v", err)
	}
	addr, err := server.Sockname()
	if err != nil {
		t.Fatalf("Sockname: %v", err)
	}

	payload := []byte("hello over loopback")
	var got []byte
	var conn *TCP

	if err := server.Listen(8, func(err error) {
		if err != nil {
			t.Errorf("connection: %v", err)
			return
		}
		c, err := server.Accept()
		if err != nil {
			t.Errorf("Accept: %v", err)
			return
		}
		conn = c
		c.StartRead(func(data []byte, err error) {
			if err != nil {
				if api.CodeOf(err) != api.EOF {
					t.Errorf("server read: %v", err)
				}
				c.Close(nil)
				server.Close(nil)
				return
			}
			got = append(got, data...)
		})
	}); err != nil {
		t.Fatalf("Listen: %v", err)
	}

	client, _ := NewTCP(l)
	if _, err := client.Connect(addr, func(req *ConnectRequest, err error) {
		if err != nil {
			t.Fatalf("connect: %v", err)
		}
		client.Write(payload, func(*WriteRequest, error) {
			client.Shutdown(func(*ShutdownRequest, error) {
				client.Close(nil)
			})
		})
	}); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	l.Run(RunDefault)
	if !bytes.Equal(got, payload) {
		t.Errorf("server read %q, want %q", got, payload)
	}
	if conn == nil {
		t.Error("no connection was accepted")
	}
	l.Close()
}

// TestTCP_SocknamePeernameAgree checks the two ends of a loopback
// connection see each other's addresses.
func TestTCP_SocknamePeernameAgree(t *testing.T) {
	l, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	server, _ := NewTCP(l)
	server.Bind(api.SockAddr{IP: net.IPv4(127, 0, 0, 1)})
	addr, _ := server.Sockname()
	server.Listen(1, func(err error) {
		if c, err := server.Accept(); err == nil {
			c.Close(nil)
		}
		server.Close(nil)
	})

	client, _ := NewTCP(l)
	client.Connect(addr, func(req *ConnectRequest, err error) {
		if err != nil {
			t.Fatalf("connect: %v", err)
		}
		peer, err := client.Peername()
		if err != nil {
			t.Errorf("Peername: %v", err)
		} else if peer.Port != addr.Port {
			t.Errorf("peer port %d, want %d", peer.Port, addr.Port)
		}
		local, err := client.Sockname()
		if err != nil {
			t.Errorf("Sockname: %v", err)
		} else if !local.IP.Equal(net.IPv4(127, 0, 0, 1)) {
			t.Errorf("local IP %v", local.IP)
		}
		client.Close(nil)
	})

	l.Run(RunDefault)
	l.Close()
}

// TestTCP_OperationsBeforeSocketFail checks operations needing a
// descriptor reject a lazily constructed handle that has none yet.
func TestTCP_OperationsBeforeSocketFail(t *testing.T) {
	l, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	tcp, _ := NewTCP(l)
	if err := tcp.StartRead(func([]byte, error) {}); api.CodeOf(err) != api.ENOTCONN {
		t.Errorf("StartRead without socket: got %v, want ENOTCONN", err)
	}
	if _, err := tcp.Write([]byte("x"), func(*WriteRequest, error) {}); api.CodeOf(err) != api.ENOTCONN {
		t.Errorf("Write without socket: got %v, want ENOTCONN", err)
	}

	tcp.Close(nil)
	l.Run(RunDefault)
	l.Close()
}

// TestTCP_ForcedFamilyFailureIsClean mirrors the lazy path: a bad
// forced family must fail construction without touching the loop.
func TestTCP_ForcedFamilyFailureIsClean(t *testing.T) {
	l, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer l.Close()

	_, err = NewTCP(l, api.Family(200))
	var initErr *api.InitError
	if !errors.As(err, &initErr) {
		t.Fatalf("got %v, want InitError", err)
	}
	if initErr.Code != api.EAFNOSUPPORT {
		t.Errorf("code %v, want EAFNOSUPPORT", initErr.Code)
	}
	if len(l.handles) != 0 {
		t.Error("failed construction left a handle registered")
	}
}

// TestTCP_KeepAliveAndNoDelay exercises the option setters on a live
// socket.
func TestTCP_KeepAliveAndNoDelay(t *testing.T) {
	l, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	tcp, _ := NewTCP(l, api.FamilyInet4)
	if err := tcp.SetNoDelay(true); err != nil {
		t.Errorf("SetNoDelay: %v", err)
	}
	if err := tcp.SetKeepAlive(true, 30*time.Second); err != nil {
		t.Errorf("SetKeepAlive: %v", err)
	}

	tcp.Close(nil)
	l.Run(RunDefault)
	l.Close()
}
