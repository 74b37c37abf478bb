// File: internal/normalize/interfaces.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Address and netmask views over network interface records.

package normalize

import (
	"net"

	"github.com/koehlma/uv/api"
)

// InterfaceAddress is one address/netmask view of an interface record.
type InterfaceAddress struct {
	Name       string
	IsInternal bool
	Addr       api.SockAddr
	Netmask    net.IPMask
}

// InterfaceViews flattens interface records into address/netmask views.
// Link-local IPv6 addresses carry the interface index as their scope.
func InterfaceViews(ifaces []net.Interface) []InterfaceAddress {
	var views []InterfaceAddress
	for _, iface := range ifaces {
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		internal := iface.Flags&net.FlagLoopback != 0
		for _, addr := range addrs {
			ipnet, ok := addr.(*net.IPNet)
			if !ok {
				continue
			}
			view := InterfaceAddress{
				Name:       iface.Name,
				IsInternal: internal,
				Addr:       api.SockAddr{IP: ipnet.IP},
				Netmask:    ipnet.Mask,
			}
			if ipnet.IP.To4() == nil && ipnet.IP.IsLinkLocalUnicast() {
				view.Addr.ScopeID = uint32(iface.Index)
			}
			views = append(views, view)
		}
	}
	return views
}
