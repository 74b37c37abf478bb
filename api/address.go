// File: api/address.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Portable socket address and resolved address record representations.

package api

import (
	"fmt"
	"net"
)

// Family tags an address family.
type Family uint8

const (
	FamilyUnspec Family = iota
	FamilyInet4
	FamilyInet6
)

// String returns the family name.
func (f Family) String() string {
	switch f {
	case FamilyInet4:
		return "inet4"
	case FamilyInet6:
		return "inet6"
	default:
		return "unspec"
	}
}

// SockAddr is a portable socket address. Flowinfo and ScopeID are only
// meaningful for IPv6 addresses and are preserved across the native
// boundary untouched.
type SockAddr struct {
	IP       net.IP
	Port     int
	Flowinfo uint32
	ScopeID  uint32
}

// Family reports the address family derived from the IP.
func (a SockAddr) Family() Family {
	if a.IP == nil {
		return FamilyUnspec
	}
	if a.IP.To4() != nil {
		return FamilyInet4
	}
	return FamilyInet6
}

// String renders host:port, with IPv6 hosts bracketed.
func (a SockAddr) String() string {
	return net.JoinHostPort(a.IP.String(), fmt.Sprintf("%d", a.Port))
}

// AddrInfo is one resolved address record from a getaddrinfo request.
type AddrInfo struct {
	Family    Family
	SockType  int
	Protocol  int
	Canonical string
	Addr      SockAddr
}
