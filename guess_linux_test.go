//go:build linux

// File: guess_linux_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package uv

import (
	"os"
	"testing"

	"golang.org/x/sys/unix"

	"github.com/koehlma/uv/api"
)

// TestGuessHandleKind_Classifies probes a few descriptor kinds.
func TestGuessHandleKind_Classifies(t *testing.T) {
	fd0, fd1 := socketpair(t)
	defer unix.Close(fd0)
	defer unix.Close(fd1)
	if kind := GuessHandleKind(fd0); kind != api.HandlePipe {
		t.Errorf("unix stream socket: %v, want pipe", kind)
	}

	udp, err := unix.Socket(unix.AF_INET, unix.SOCK_DGRAM|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		t.Fatalf("udp socket: %v", err)
	}
	defer unix.Close(udp)
	if kind := GuessHandleKind(udp); kind != api.HandleUDP {
		t.Errorf("datagram socket: %v, want udp", kind)
	}

	f, err := os.CreateTemp(t.TempDir(), "guess")
	if err != nil {
		t.Fatalf("temp file: %v", err)
	}
	defer f.Close()
	if kind := GuessHandleKind(int(f.Fd())); kind != api.HandleFile {
		t.Errorf("regular file: %v, want file", kind)
	}

	if kind := GuessHandleKind(-1); kind != api.HandleUnknown {
		t.Errorf("bad descriptor: %v, want unknown", kind)
	}
}

// TestInterfaceAddresses_LoopbackPresent expects at least the loopback
// interface to surface with an internal flag.
func TestInterfaceAddresses_LoopbackPresent(t *testing.T) {
	views, err := InterfaceAddresses()
	if err != nil {
		t.Fatalf("InterfaceAddresses: %v", err)
	}
	for _, v := range views {
		if v.Addr.IP.IsLoopback() {
			if !v.IsInternal {
				t.Errorf("loopback %v not flagged internal", v.Addr.IP)
			}
			return
		}
	}
	t.Skip("no loopback interface visible")
}
