// Copyright 2025 momentics@gmail.com
// Licensed under the Apache License, Version 2.0.

// arbiter_test.go — Unit tests for the read buffer arbiter.
package pool

import "testing"

// TestArbiter_SingleHolder verifies the second concurrent acquisition is
// refused while the buffer is held.
func TestArbiter_SingleHolder(t *testing.T) {
	a := NewArbiter(4096)

	buf, ok := a.Acquire(0)
	if !ok || buf == nil {
		t.Fatal("first acquire refused")
	}
	if len(buf) != 4096 {
		t.Errorf("buffer length = %d, want 4096", len(buf))
	}

	if second, ok := a.Acquire(0); ok || second != nil {
		t.Error("second acquire succeeded while buffer held")
	}

	a.Release()
	if _, ok := a.Acquire(0); !ok {
		t.Error("acquire refused after release")
	}
}

// TestArbiter_SuggestedSize verifies the suggested size caps but never
// grows the handed out buffer.
func TestArbiter_SuggestedSize(t *testing.T) {
	a := NewArbiter(4096)

	buf, ok := a.Acquire(128)
	if !ok {
		t.Fatal("acquire refused")
	}
	if len(buf) != 128 {
		t.Errorf("capped length = %d, want 128", len(buf))
	}
	a.Release()

	buf, ok = a.Acquire(1 << 20)
	if !ok {
		t.Fatal("acquire refused")
	}
	if len(buf) != 4096 {
		t.Errorf("length = %d, want scratch size 4096", len(buf))
	}
	a.Release()
}

// TestArbiter_ReleaseIdempotent verifies releasing an idle arbiter is
// harmless and availability is restored exactly once.
func TestArbiter_ReleaseIdempotent(t *testing.T) {
	a := NewArbiter(64)
	a.Release()
	a.Release()
	if a.Held() {
		t.Fatal("idle arbiter reports held")
	}
	if _, ok := a.Acquire(0); !ok {
		t.Error("acquire refused on idle arbiter")
	}
	if !a.Held() {
		t.Error("held flag not set after acquire")
	}
}

// TestArbiter_DefaultSize verifies the fallback size for bad input.
func TestArbiter_DefaultSize(t *testing.T) {
	a := NewArbiter(0)
	if a.Size() != DefaultBufferSize {
		t.Errorf("size = %d, want %d", a.Size(), DefaultBufferSize)
	}
}

// TestBytePool_Reuse verifies buffers round-trip through the pool.
func TestBytePool_Reuse(t *testing.T) {
	p := NewBytePool(1024)

	buf := p.GetBuffer(100)
	if len(buf) != 100 {
		t.Fatalf("length = %d, want 100", len(buf))
	}
	copy(buf, "payload")
	p.PutBuffer(buf)

	again := p.GetBuffer(50)
	if len(again) != 50 {
		t.Errorf("length = %d, want 50", len(again))
	}

	big := p.GetBuffer(4096)
	if len(big) != 4096 {
		t.Errorf("oversized request length = %d, want 4096", len(big))
	}
}
