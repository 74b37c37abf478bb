//go:build unix

// File: dns.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Name resolution requests. Lookups run on a resolver goroutine and
// complete through the cross-thread intake; the callback always runs
// on the loop goroutine, exactly once, cancelled or not.

package uv

import (
	"context"
	"errors"
	"net"
	"strconv"

	"golang.org/x/sys/unix"

	"github.com/koehlma/uv/api"
)

// AddrInfoHints narrows a getaddrinfo request. The zero value accepts
// every family and socket type.
type AddrInfoHints struct {
	Family   api.Family
	SockType int
	Protocol int
}

// GetAddrInfoCallback receives the resolved records, ordered as the
// resolver returned them.
type GetAddrInfoCallback func(req *GetAddrInfoRequest, results []api.AddrInfo, err error)

// GetAddrInfoRequest is a pending name resolution.
type GetAddrInfoRequest struct {
	request
	cb     GetAddrInfoCallback
	cancel context.CancelFunc
}

// GetAddrInfo resolves node and service asynchronously. node may be
// empty to resolve the service only; service may be empty or a port
// number or name. Immediate failures are still delivered through the
// callback, never synchronously.
func GetAddrInfo(loop *Loop, node, service string, hints AddrInfoHints, cb GetAddrInfoCallback) (*GetAddrInfoRequest, error) {
	if err := loop.ensureOpen(); err != nil {
		return nil, err
	}
	if cb == nil {
		return nil, &api.InvalidStateError{Op: "getaddrinfo", Reason: "nil callback"}
	}
	if node == "" && service == "" {
		return nil, operationError("getaddrinfo", api.EINVAL, nil)
	}

	ctx, cancel := context.WithCancel(context.Background())
	req := &GetAddrInfoRequest{cb: cb, cancel: cancel}
	req.submit(loop, nil, api.RequestGetAddrInfo, req)

	go func() {
		results, err := resolve(ctx, node, service, hints)
		loop.post(func() {
			req.finish(func() { req.cb(req, results, err) })
		})
	}()
	return req, nil
}

// Cancel aborts a pending resolution. The completion fires with
// EAI_CANCELED; a request whose completion already fired is left
// untouched.
func (r *GetAddrInfoRequest) Cancel() {
	if r.done {
		return
	}
	r.cancel()
	r.finish(func() { r.cb(r, nil, operationError("getaddrinfo", api.EAICANCELED, nil)) })
}

// resolve performs the blocking lookups.
func resolve(ctx context.Context, node, service string, hints AddrInfoHints) ([]api.AddrInfo, error) {
	var resolver net.Resolver

	port := 0
	if service != "" {
		if p, err := strconv.Atoi(service); err == nil {
			port = p
		} else {
			proto := "tcp"
			if hints.SockType == unix.SOCK_DGRAM {
				proto = "udp"
			}
			p, err := resolver.LookupPort(ctx, proto, service)
			if err != nil {
				return nil, operationError("getaddrinfo", api.EAISERVICE, err)
			}
			port = p
		}
	}

	if node == "" {
		addr := api.SockAddr{IP: net.IPv4(127, 0, 0, 1), Port: port}
		if hints.Family == api.FamilyInet6 {
			addr = api.SockAddr{IP: net.IPv6loopback, Port: port}
		}
		return []api.AddrInfo{makeAddrInfo(addr, hints)}, nil
	}

	ips, err := resolver.LookupIPAddr(ctx, node)
	if err != nil {
		if ctx.Err() != nil {
			return nil, operationError("getaddrinfo", api.EAICANCELED, err)
		}
		var dnsErr *net.DNSError
		if errors.As(err, &dnsErr) && dnsErr.IsNotFound {
			return nil, operationError("getaddrinfo", api.EAINONAME, err)
		}
		return nil, operationError("getaddrinfo", api.EAIFAIL, err)
	}

	results := make([]api.AddrInfo, 0, len(ips))
	for _, ip := range ips {
		addr := api.SockAddr{IP: ip.IP, Port: port}
		if zone := ip.Zone; zone != "" {
			if iface, err := net.InterfaceByName(zone); err == nil {
				addr.ScopeID = uint32(iface.Index)
			}
		}
		if hints.Family != api.FamilyUnspec && addr.Family() != hints.Family {
			continue
		}
		results = append(results, makeAddrInfo(addr, hints))
	}
	if len(results) == 0 {
		return nil, operationError("getaddrinfo", api.EAINONAME, nil)
	}
	return results, nil
}

func makeAddrInfo(addr api.SockAddr, hints AddrInfoHints) api.AddrInfo {
	sockType := hints.SockType
	if sockType == 0 {
		sockType = unix.SOCK_STREAM
	}
	proto := hints.Protocol
	if proto == 0 {
		if sockType == unix.SOCK_DGRAM {
			proto = unix.IPPROTO_UDP
		} else {
			proto = unix.IPPROTO_TCP
		}
	}
	return api.AddrInfo{
		Family:   addr.Family(),
		SockType: sockType,
		Protocol: proto,
		Addr:     addr,
	}
}
