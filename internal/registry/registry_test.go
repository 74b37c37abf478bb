// Copyright 2025 momentics@gmail.com
// Licensed under the Apache License, Version 2.0.

// registry_test.go — Unit tests for the opaque token registry.
package registry

import "testing"

// TestRegistry_AttachLookup verifies a token resolves to its owner.
func TestRegistry_AttachLookup(t *testing.T) {
	r := New()
	owner := &struct{ name string }{"tcp"}

	token := r.Attach(owner)
	if token == 0 {
		t.Fatal("zero token issued")
	}

	got, ok := r.Lookup(token)
	if !ok {
		t.Fatal("lookup failed for live token")
	}
	if got != owner {
		t.Errorf("lookup returned wrong owner: %v", got)
	}
}

// TestRegistry_DetachIsFinal verifies a detached token cannot resolve again.
func TestRegistry_DetachIsFinal(t *testing.T) {
	r := New()
	token := r.Attach("owner")

	if got, ok := r.Detach(token); !ok || got != "owner" {
		t.Fatalf("first detach: got %v, ok=%v", got, ok)
	}
	if _, ok := r.Detach(token); ok {
		t.Error("second detach resolved a stale owner")
	}
	if _, ok := r.Lookup(token); ok {
		t.Error("lookup resolved a detached token")
	}
}

// TestRegistry_RejectsForeignTokens verifies marker checking: tokens from
// one registry must not resolve in another.
func TestRegistry_RejectsForeignTokens(t *testing.T) {
	a := New()
	b := New()
	// Markers are random; retry until the two registries differ.
	for i := 0; a.marker == b.marker && i < 64; i++ {
		b = New()
	}
	if a.marker == b.marker {
		t.Skip("could not obtain distinct markers")
	}

	token := a.Attach("owner")
	if _, ok := b.Lookup(token); ok {
		t.Error("foreign token resolved")
	}
	if _, ok := b.Detach(token); ok {
		t.Error("foreign token detached")
	}
}

// TestRegistry_ZeroToken verifies the zero token never resolves.
func TestRegistry_ZeroToken(t *testing.T) {
	r := New()
	r.Attach("owner")
	if _, ok := r.Lookup(0); ok {
		t.Error("zero token resolved")
	}
}

// TestRegistry_Len tracks live association count across attach/detach.
func TestRegistry_Len(t *testing.T) {
	r := New()
	t1 := r.Attach(1)
	t2 := r.Attach(2)
	if r.Len() != 2 {
		t.Fatalf("expected 2 associations, got %d", r.Len())
	}
	r.Detach(t1)
	r.Detach(t2)
	if r.Len() != 0 {
		t.Errorf("expected 0 associations, got %d", r.Len())
	}
}
