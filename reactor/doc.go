// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

// Package reactor provides the OS event notification mechanism consumed by
// the event loop as a black box. It exposes readiness events for registered
// descriptors together with the opaque token supplied at registration, a
// bounded wait with millisecond timeout, and a cross-thread wakeup. The
// Linux implementation is built on epoll(7) plus an eventfd(2) wakeup;
// other platforms fall back to a stub.
package reactor
