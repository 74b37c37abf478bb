// Package pool
// Author: momentics <momentics@gmail.com>
//
// Read buffer arbitration and write payload recycling for the event loop.
// Every loop owns a single scratch buffer handed out for at most one read
// completion at a time; a second allocation request while the buffer is
// held is refused rather than served from the heap, which keeps the hot
// read path allocation-free and makes buffer aliasing across concurrent
// reads structurally impossible. See arbiter.go and bytepool.go.
package pool
