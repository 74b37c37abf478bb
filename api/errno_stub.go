//go:build !unix

// File: api/errno_stub.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Errno translation stub for platforms without a unix errno surface.

package api

// CodeFromErrno has no native errno table on this platform; every
// failure folds into EUNKNOWN.
func CodeFromErrno(err error) Code {
	if err == nil {
		return OK
	}
	return EUNKNOWN
}
