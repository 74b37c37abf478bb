// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

// Package normalize holds the cross-platform address and descriptor
// adapters: packing and unpacking of IPv6 flow information and scope
// identifiers, conversion between portable socket addresses and native
// sockaddr values, reinterpretation of raw descriptors as socket, pipe,
// tty or file handles, and address/netmask views over network interface
// records. All functions are pure data transforms; structurally invalid
// input is a programmer error and panics.
package normalize
