// File: pool/bytepool.go
// Author: momentics <momentics@gmail.com>

package pool

import "sync"

// BytePool recycles byte slices for queued write payloads. Write requests
// copy caller data so the caller may reuse its slice immediately; the
// copies come from here instead of the heap.
type BytePool struct {
	pool sync.Pool
	size int
}

// NewBytePool creates a pool handing out slices of at least size bytes.
func NewBytePool(size int) *BytePool {
	return &BytePool{size: size}
}

// GetBuffer returns a buffer with length n from the pool.
func (b *BytePool) GetBuffer(n int) []byte {
	if v := b.pool.Get(); v != nil {
		buf := v.([]byte)
		if cap(buf) >= n {
			return buf[:n]
		}
	}
	if n < b.size {
		return make([]byte, n, b.size)
	}
	return make([]byte, n)
}

// PutBuffer returns a buffer to the pool.
func (b *BytePool) PutBuffer(buf []byte) {
	if cap(buf) == 0 {
		return
	}
	b.pool.Put(buf[:0])
}
