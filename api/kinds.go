// File: api/kinds.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Kind tags for handles and requests. Every opaque token handed to the
// reactor carries one of these tags so completions can be dispatched
// through a checked type switch instead of an unchecked cast.

package api

// HandleKind identifies the concrete resource behind a handle.
type HandleKind uint8

const (
	HandleUnknown HandleKind = iota
	HandleAsync
	HandleCheck
	HandleFSEvent
	HandleFSPoll
	HandleIdle
	HandlePipe
	HandlePoll
	HandlePrepare
	HandleProcess
	HandleSignal
	HandleTCP
	HandleTimer
	HandleTTY
	HandleUDP
	HandleFile
)

var handleKindNames = [...]string{
	HandleUnknown: "unknown",
	HandleAsync:   "async",
	HandleCheck:   "check",
	HandleFSEvent: "fs_event",
	HandleFSPoll:  "fs_poll",
	HandleIdle:    "idle",
	HandlePipe:    "pipe",
	HandlePoll:    "poll",
	HandlePrepare: "prepare",
	HandleProcess: "process",
	HandleSignal:  "signal",
	HandleTCP:     "tcp",
	HandleTimer:   "timer",
	HandleTTY:     "tty",
	HandleUDP:     "udp",
	HandleFile:    "file",
}

// String returns the lowercase kind name.
func (k HandleKind) String() string {
	if int(k) < len(handleKindNames) {
		return handleKindNames[k]
	}
	return "unknown"
}

// RequestKind identifies a one-shot asynchronous operation.
type RequestKind uint8

const (
	RequestUnknown RequestKind = iota
	RequestConnect
	RequestWrite
	RequestShutdown
	RequestSend
	RequestGetAddrInfo
)

var requestKindNames = [...]string{
	RequestUnknown:     "unknown",
	RequestConnect:     "connect",
	RequestWrite:       "write",
	RequestShutdown:    "shutdown",
	RequestSend:        "udp_send",
	RequestGetAddrInfo: "getaddrinfo",
}

// String returns the lowercase request kind name.
func (k RequestKind) String() string {
	if int(k) < len(requestKindNames) {
		return requestKindNames[k]
	}
	return "unknown"
}
