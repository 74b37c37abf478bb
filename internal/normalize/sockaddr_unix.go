//go:build unix

// File: internal/normalize/sockaddr_unix.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Conversions between portable socket addresses and native sockaddr
// representations. The raw IPv6 forms carry flow information and scope
// identifiers, which the high-level unix.Sockaddr surface drops.

package normalize

import (
	"encoding/binary"
	"net"

	"golang.org/x/sys/unix"

	"github.com/koehlma/uv/api"
)

// PackInet6 builds a raw IPv6 sockaddr from the portable representation,
// preserving flow information and scope identifier. Panics when addr does
// not hold an IPv6 address.
func PackInet6(addr api.SockAddr) unix.RawSockaddrInet6 {
	ip := addr.IP.To16()
	if ip == nil {
		panic("normalize: PackInet6 on non-IP address")
	}
	raw := unix.RawSockaddrInet6{
		Family:   unix.AF_INET6,
		Port:     htons(uint16(addr.Port)),
		Flowinfo: addr.Flowinfo,
		Scope_id: addr.ScopeID,
	}
	copy(raw.Addr[:], ip)
	return raw
}

// htons converts a port to the network byte order stored in raw
// sockaddr structures; ntohs inverts it.
func htons(v uint16) uint16 {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	return binary.NativeEndian.Uint16(b[:])
}

func ntohs(v uint16) uint16 {
	var b [2]byte
	binary.NativeEndian.PutUint16(b[:], v)
	return binary.BigEndian.Uint16(b[:])
}

// UnpackInet6 extracts the portable representation from a raw IPv6
// sockaddr, including flow information and scope identifier.
func UnpackInet6(raw *unix.RawSockaddrInet6) api.SockAddr {
	ip := make(net.IP, net.IPv6len)
	copy(ip, raw.Addr[:])
	return api.SockAddr{
		IP:       ip,
		Port:     int(ntohs(raw.Port)),
		Flowinfo: raw.Flowinfo,
		ScopeID:  raw.Scope_id,
	}
}

// ToSockaddr converts a portable address into the form accepted by
// bind/connect/sendto. IPv4-mapped addresses collapse to AF_INET.
func ToSockaddr(addr api.SockAddr) (unix.Sockaddr, error) {
	if ip4 := addr.IP.To4(); ip4 != nil {
		sa := &unix.SockaddrInet4{Port: addr.Port}
		copy(sa.Addr[:], ip4)
		return sa, nil
	}
	ip6 := addr.IP.To16()
	if ip6 == nil {
		return nil, unix.EAFNOSUPPORT
	}
	sa := &unix.SockaddrInet6{Port: addr.Port, ZoneId: addr.ScopeID}
	copy(sa.Addr[:], ip6)
	return sa, nil
}

// FromSockaddr converts a native sockaddr returned by accept/recvfrom or
// getsockname into the portable representation. Unknown kinds yield the
// zero SockAddr.
func FromSockaddr(sa unix.Sockaddr) api.SockAddr {
	switch sa := sa.(type) {
	case *unix.SockaddrInet4:
		ip := make(net.IP, net.IPv4len)
		copy(ip, sa.Addr[:])
		return api.SockAddr{IP: ip, Port: sa.Port}
	case *unix.SockaddrInet6:
		ip := make(net.IP, net.IPv6len)
		copy(ip, sa.Addr[:])
		return api.SockAddr{IP: ip, Port: sa.Port, ScopeID: sa.ZoneId}
	default:
		return api.SockAddr{}
	}
}
