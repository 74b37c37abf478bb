//go:build linux

// File: internal/normalize/fd_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Reinterpretation of raw descriptors for handle adoption. Mirrors the
// classic guess-handle probe: stat the descriptor, then refine sockets
// by type and character devices by a termios round trip.

package normalize

import (
	"golang.org/x/sys/unix"

	"github.com/koehlma/uv/api"
)

// GuessKind classifies a raw descriptor as the handle kind that may adopt
// it. Stream sockets bound to the UNIX domain classify as pipes, datagram
// sockets as UDP, terminals as TTY. Descriptors that cannot be probed
// classify as unknown.
func GuessKind(fd int) api.HandleKind {
	if fd < 0 {
		return api.HandleUnknown
	}
	var st unix.Stat_t
	if err := unix.Fstat(fd, &st); err != nil {
		return api.HandleUnknown
	}
	switch st.Mode & unix.S_IFMT {
	case unix.S_IFSOCK:
		soType, err := unix.GetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_TYPE)
		if err != nil {
			return api.HandleUnknown
		}
		if soType == unix.SOCK_DGRAM {
			return api.HandleUDP
		}
		if sa, err := unix.Getsockname(fd); err == nil {
			if _, ok := sa.(*unix.SockaddrUnix); ok {
				return api.HandlePipe
			}
		}
		return api.HandleTCP
	case unix.S_IFIFO:
		return api.HandlePipe
	case unix.S_IFCHR:
		if IsTerminal(fd) {
			return api.HandleTTY
		}
		return api.HandleFile
	case unix.S_IFREG, unix.S_IFDIR:
		return api.HandleFile
	}
	return api.HandleUnknown
}

// IsTerminal reports whether fd refers to a terminal device.
func IsTerminal(fd int) bool {
	_, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	return err == nil
}
