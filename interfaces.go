// File: interfaces.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package uv

import (
	"net"

	"github.com/koehlma/uv/api"
	"github.com/koehlma/uv/internal/normalize"
)

// InterfaceAddress is one address of a network interface, with its
// netmask and internality flag. Link-local IPv6 addresses carry the
// interface index as their scope identifier.
type InterfaceAddress = normalize.InterfaceAddress

// InterfaceAddresses enumerates the system's network interfaces as
// flat address/netmask views.
func InterfaceAddresses() ([]InterfaceAddress, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, operationError("interface addresses", api.CodeFromErrno(err), err)
	}
	return normalize.InterfaceViews(ifaces), nil
}
