//go:build unix

// File: api/errno_unix.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Translation of raw unix errno values into the platform-independent code
// enumeration. Performed once at the native boundary; unknown values fold
// into EUNKNOWN with the original errno preserved by the caller.

package api

import (
	"errors"

	"golang.org/x/sys/unix"
)

var errnoCodes = map[unix.Errno]Code{
	unix.EACCES:          EACCES,
	unix.EADDRINUSE:      EADDRINUSE,
	unix.EADDRNOTAVAIL:   EADDRNOTAVAIL,
	unix.EAFNOSUPPORT:    EAFNOSUPPORT,
	unix.EAGAIN:          EAGAIN,
	unix.EALREADY:        EALREADY,
	unix.EBADF:           EBADF,
	unix.EBUSY:           EBUSY,
	unix.ECANCELED:       ECANCELED,
	unix.ECONNABORTED:    ECONNABORTED,
	unix.ECONNREFUSED:    ECONNREFUSED,
	unix.ECONNRESET:      ECONNRESET,
	unix.EEXIST:          EEXIST,
	unix.EFAULT:          EFAULT,
	unix.EHOSTUNREACH:    EHOSTUNREACH,
	unix.EINTR:           EINTR,
	unix.EINVAL:          EINVAL,
	unix.EIO:             EIO,
	unix.EISCONN:         EISCONN,
	unix.EISDIR:          EISDIR,
	unix.EMFILE:          EMFILE,
	unix.EMSGSIZE:        EMSGSIZE,
	unix.ENETDOWN:        ENETDOWN,
	unix.ENETUNREACH:     ENETUNREACH,
	unix.ENFILE:          ENFILE,
	unix.ENOBUFS:         ENOBUFS,
	unix.ENODEV:          ENODEV,
	unix.ENOENT:          ENOENT,
	unix.ENOMEM:          ENOMEM,
	unix.ENOSPC:          ENOSPC,
	unix.ENOSYS:          ENOSYS,
	unix.ENOTCONN:        ENOTCONN,
	unix.ENOTDIR:         ENOTDIR,
	unix.ENOTEMPTY:       ENOTEMPTY,
	unix.ENOTSOCK:        ENOTSOCK,
	unix.ENOTSUP:         ENOTSUP,
	unix.EPERM:           EPERM,
	unix.EPIPE:           EPIPE,
	unix.EPROTO:          EPROTO,
	unix.EPROTONOSUPPORT: EPROTONOSUPPORT,
	unix.EPROTOTYPE:      EPROTOTYPE,
	unix.ERANGE:          ERANGE,
	unix.EROFS:           EROFS,
	unix.ESHUTDOWN:       ESHUTDOWN,
	unix.ESPIPE:          ESPIPE,
	unix.ESRCH:           ESRCH,
	unix.ETIMEDOUT:       ETIMEDOUT,
	unix.EXDEV:           EXDEV,
}

// CodeFromErrno maps a unix errno onto the portable enumeration. The
// errno may be wrapped (os.SyscallError, exec.Error and friends); errors
// carrying no errno, and errno values without a portable equivalent, map
// to EUNKNOWN.
func CodeFromErrno(err error) Code {
	if err == nil {
		return OK
	}
	var errno unix.Errno
	if errors.As(err, &errno) {
		if code, found := errnoCodes[errno]; found {
			return code
		}
	}
	return EUNKNOWN
}
