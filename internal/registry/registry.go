// File: internal/registry/registry.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Opaque association between reactor tokens and their owning handle or
// request objects. The reactor reports completions with nothing but the
// token registered for a descriptor; this registry recovers the owner.
// Tokens embed a per-registry marker so lookups reject foreign or stale
// values instead of resolving to an arbitrary owner.

package registry

import (
	"math/bits"
	"math/rand/v2"
	"sync"
)

// Token is an opaque tag suitable for storage in a reactor registration.
// The zero Token is never issued.
type Token uintptr

const (
	markerShift = bits.UintSize - 8
	idMask      = 1<<markerShift - 1
)

// Registry issues tokens and resolves them back to owners. Safe for use
// from dispatch context: Lookup takes a single short critical section and
// never allocates.
type Registry struct {
	mu      sync.Mutex
	marker  uintptr
	nextID  uintptr
	entries map[uintptr]any
}

// New creates an empty registry with a fresh random marker.
func New() *Registry {
	return &Registry{
		marker:  uintptr(rand.IntN(254) + 1), // nonzero 8-bit marker
		entries: make(map[uintptr]any),
	}
}

// Attach associates owner with a new token and returns the token.
func (r *Registry) Attach(owner any) Token {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	if r.nextID > idMask {
		r.nextID = 1
	}
	id := r.nextID
	for {
		if _, taken := r.entries[id]; !taken {
			break
		}
		id++
		if id > idMask {
			id = 1
		}
	}
	r.entries[id] = owner
	r.nextID = id
	return Token(r.marker<<markerShift | id)
}

// Lookup resolves a token to its owner. Tokens carrying a foreign marker,
// and tokens that were already detached, report not found.
func (r *Registry) Lookup(t Token) (any, bool) {
	id, ok := r.unpack(t)
	if !ok {
		return nil, false
	}
	r.mu.Lock()
	owner, ok := r.entries[id]
	r.mu.Unlock()
	return owner, ok
}

// Detach removes the association and returns the owner it held. A second
// detach of the same token reports not found.
func (r *Registry) Detach(t Token) (any, bool) {
	id, ok := r.unpack(t)
	if !ok {
		return nil, false
	}
	r.mu.Lock()
	owner, ok := r.entries[id]
	if ok {
		delete(r.entries, id)
	}
	r.mu.Unlock()
	return owner, ok
}

// Len reports the number of live associations.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

func (r *Registry) unpack(t Token) (uintptr, bool) {
	if uintptr(t)>>markerShift != r.marker {
		return 0, false
	}
	id := uintptr(t) & idMask
	return id, id != 0
}
