// File: pool/arbiter.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Single-buffer arbiter for read completions. The loop dispatches one
// callback at a time, so a plain in-use flag is sufficient protection;
// the arbiter still refuses a second acquisition instead of assuming the
// dispatch discipline holds.

package pool

// DefaultBufferSize is the scratch buffer size used when a loop is
// constructed without an explicit size.
const DefaultBufferSize = 64 * 1024

// Arbiter owns one loop's scratch read buffer.
type Arbiter struct {
	buf   []byte
	inUse bool
}

// NewArbiter allocates an arbiter with a scratch buffer of size bytes.
// Sizes below one byte fall back to DefaultBufferSize.
func NewArbiter(size int) *Arbiter {
	if size < 1 {
		size = DefaultBufferSize
	}
	return &Arbiter{buf: make([]byte, size)}
}

// Acquire hands out the scratch buffer for one read. While the buffer is
// held, further acquisitions report (nil, false) and the affected read
// must fail with a no-buffer condition. suggested caps the returned
// length when smaller than the scratch buffer; it never grows it.
func (a *Arbiter) Acquire(suggested int) ([]byte, bool) {
	if a.inUse {
		return nil, false
	}
	a.inUse = true
	if suggested > 0 && suggested < len(a.buf) {
		return a.buf[:suggested], true
	}
	return a.buf, true
}

// Release restores availability. Invoked unconditionally after the read
// completion is processed, on success, failure and EOF alike. Releasing
// an idle arbiter is a no-op.
func (a *Arbiter) Release() {
	a.inUse = false
}

// Held reports whether the scratch buffer is currently handed out.
func (a *Arbiter) Held() bool { return a.inUse }

// Size returns the scratch buffer capacity.
func (a *Arbiter) Size() int { return len(a.buf) }
