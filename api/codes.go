// File: api/codes.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Platform-independent status code enumeration mirroring the POSIX error
// name set. Native status values are translated into these codes at the
// dispatch boundary; the original platform errno travels alongside the
// code for diagnostics and is never used for control flow.

package api

// Code is a platform-independent status code. Zero means success, every
// failure is negative. The numeric values are stable across platforms so
// callers may persist or compare them; only the names are meant to be
// shown to users.
type Code int32

const (
	OK Code = -iota
	EOF
	EUNKNOWN
	EACCES
	EADDRINUSE
	EADDRNOTAVAIL
	EAFNOSUPPORT
	EAGAIN
	EALREADY
	EBADF
	EBUSY
	ECANCELED
	ECONNABORTED
	ECONNREFUSED
	ECONNRESET
	EEXIST
	EFAULT
	EHOSTUNREACH
	EINTR
	EINVAL
	EIO
	EISCONN
	EISDIR
	EMFILE
	EMSGSIZE
	ENETDOWN
	ENETUNREACH
	ENFILE
	ENOBUFS
	ENODEV
	ENOENT
	ENOMEM
	ENOSPC
	ENOSYS
	ENOTCONN
	ENOTDIR
	ENOTEMPTY
	ENOTSOCK
	ENOTSUP
	EPERM
	EPIPE
	EPROTO
	EPROTONOSUPPORT
	EPROTOTYPE
	ERANGE
	EROFS
	ESHUTDOWN
	ESPIPE
	ESRCH
	ETIMEDOUT
	EXDEV
	EAIAGAIN
	EAIBADFLAGS
	EAIFAIL
	EAIFAMILY
	EAIMEMORY
	EAINODATA
	EAINONAME
	EAISERVICE
	EAISOCKTYPE
	EAICANCELED
)

var codeNames = map[Code]string{
	OK:              "OK",
	EOF:             "EOF",
	EUNKNOWN:        "EUNKNOWN",
	EACCES:          "EACCES",
	EADDRINUSE:      "EADDRINUSE",
	EADDRNOTAVAIL:   "EADDRNOTAVAIL",
	EAFNOSUPPORT:    "EAFNOSUPPORT",
	EAGAIN:          "EAGAIN",
	EALREADY:        "EALREADY",
	EBADF:           "EBADF",
	EBUSY:           "EBUSY",
	ECANCELED:       "ECANCELED",
	ECONNABORTED:    "ECONNABORTED",
	ECONNREFUSED:    "ECONNREFUSED",
	ECONNRESET:      "ECONNRESET",
	EEXIST:          "EEXIST",
	EFAULT:          "EFAULT",
	EHOSTUNREACH:    "EHOSTUNREACH",
	EINTR:           "EINTR",
	EINVAL:          "EINVAL",
	EIO:             "EIO",
	EISCONN:         "EISCONN",
	EISDIR:          "EISDIR",
	EMFILE:          "EMFILE",
	EMSGSIZE:        "EMSGSIZE",
	ENETDOWN:        "ENETDOWN",
	ENETUNREACH:     "ENETUNREACH",
	ENFILE:          "ENFILE",
	ENOBUFS:         "ENOBUFS",
	ENODEV:          "ENODEV",
	ENOENT:          "ENOENT",
	ENOMEM:          "ENOMEM",
	ENOSPC:          "ENOSPC",
	ENOSYS:          "ENOSYS",
	ENOTCONN:        "ENOTCONN",
	ENOTDIR:         "ENOTDIR",
	ENOTEMPTY:       "ENOTEMPTY",
	ENOTSOCK:        "ENOTSOCK",
	ENOTSUP:         "ENOTSUP",
	EPERM:           "EPERM",
	EPIPE:           "EPIPE",
	EPROTO:          "EPROTO",
	EPROTONOSUPPORT: "EPROTONOSUPPORT",
	EPROTOTYPE:      "EPROTOTYPE",
	ERANGE:          "ERANGE",
	EROFS:           "EROFS",
	ESHUTDOWN:       "ESHUTDOWN",
	ESPIPE:          "ESPIPE",
	ESRCH:           "ESRCH",
	ETIMEDOUT:       "ETIMEDOUT",
	EXDEV:           "EXDEV",
	EAIAGAIN:        "EAI_AGAIN",
	EAIBADFLAGS:     "EAI_BADFLAGS",
	EAIFAIL:         "EAI_FAIL",
	EAIFAMILY:       "EAI_FAMILY",
	EAIMEMORY:       "EAI_MEMORY",
	EAINODATA:       "EAI_NODATA",
	EAINONAME:       "EAI_NONAME",
	EAISERVICE:      "EAI_SERVICE",
	EAISOCKTYPE:     "EAI_SOCKTYPE",
	EAICANCELED:     "EAI_CANCELED",
}

var codeMessages = map[Code]string{
	OK:              "success",
	EOF:             "end of file",
	EUNKNOWN:        "unknown error",
	EACCES:          "permission denied",
	EADDRINUSE:      "address already in use",
	EADDRNOTAVAIL:   "address not available",
	EAFNOSUPPORT:    "address family not supported",
	EAGAIN:          "resource temporarily unavailable",
	EALREADY:        "connection already in progress",
	EBADF:           "bad file descriptor",
	EBUSY:           "resource busy or locked",
	ECANCELED:       "operation canceled",
	ECONNABORTED:    "software caused connection abort",
	ECONNREFUSED:    "connection refused",
	ECONNRESET:      "connection reset by peer",
	EEXIST:          "file already exists",
	EFAULT:          "bad address in system call argument",
	EHOSTUNREACH:    "host is unreachable",
	EINTR:           "interrupted system call",
	EINVAL:          "invalid argument",
	EIO:             "i/o error",
	EISCONN:         "socket is already connected",
	EISDIR:          "illegal operation on a directory",
	EMFILE:          "too many open files",
	EMSGSIZE:        "message too long",
	ENETDOWN:        "network is down",
	ENETUNREACH:     "network is unreachable",
	ENFILE:          "file table overflow",
	ENOBUFS:         "no buffer space available",
	ENODEV:          "no such device",
	ENOENT:          "no such file or directory",
	ENOMEM:          "not enough memory",
	ENOSPC:          "no space left on device",
	ENOSYS:          "function not implemented",
	ENOTCONN:        "socket is not connected",
	ENOTDIR:         "not a directory",
	ENOTEMPTY:       "directory not empty",
	ENOTSOCK:        "socket operation on non-socket",
	ENOTSUP:         "operation not supported on socket",
	EPERM:           "operation not permitted",
	EPIPE:           "broken pipe",
	EPROTO:          "protocol error",
	EPROTONOSUPPORT: "protocol not supported",
	EPROTOTYPE:      "protocol wrong type for socket",
	ERANGE:          "result too large",
	EROFS:           "read-only file system",
	ESHUTDOWN:       "cannot send after transport endpoint shutdown",
	ESPIPE:          "invalid seek",
	ESRCH:           "no such process",
	ETIMEDOUT:       "connection timed out",
	EXDEV:           "cross-device link not permitted",
	EAIAGAIN:        "temporary failure",
	EAIBADFLAGS:     "bad ai_flags value",
	EAIFAIL:         "permanent failure",
	EAIFAMILY:       "ai_family not supported",
	EAIMEMORY:       "out of memory",
	EAINODATA:       "no address",
	EAINONAME:       "unknown node or service",
	EAISERVICE:      "service not available for socket type",
	EAISOCKTYPE:     "socket type not supported",
	EAICANCELED:     "request canceled",
}

// Name returns the POSIX-style symbolic name, e.g. "ECONNRESET".
func (c Code) Name() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return "EUNKNOWN"
}

// Message returns the human readable description of the code.
func (c Code) Message() string {
	if msg, ok := codeMessages[c]; ok {
		return msg
	}
	return codeMessages[EUNKNOWN]
}

// String implements fmt.Stringer as "NAME: message".
func (c Code) String() string {
	return c.Name() + ": " + c.Message()
}
