//go:build linux

// File: fsevent_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package uv

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/koehlma/uv/api"
)

// TestFSEvent_ReportsCreate watches a directory and checks creating a
// file surfaces a rename-class event carrying the entry name.
func TestFSEvent_ReportsCreate(t *testing.T) {
	l, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	dir := t.TempDir()

	w, err := NewFSEvent(l)
	if err != nil {
		t.Fatalf("NewFSEvent: %v", err)
	}

	var name string
	var events FSEventType
	if err := w.Start(dir, func(n string, ev FSEventType, err error) {
		if err != nil {
			t.Errorf("watch: %v", err)
			return
		}
		name = n
		events = ev
		w.Close(nil)
	}); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "created.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	l.Run(RunDefault)
	if name != "created.txt" {
		t.Errorf("event name %q, want created.txt", name)
	}
	if events&FSEventRename == 0 {
		t.Errorf("events %v, want rename class", events)
	}
	l.Close()
}

// TestFSEvent_ReportsModify checks content changes surface as a change
// event.
func TestFSEvent_ReportsModify(t *testing.T) {
	l, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "tracked.txt")
	if err := os.WriteFile(path, []byte("before"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	w, _ := NewFSEvent(l)
	var events FSEventType
	w.Start(path, func(n string, ev FSEventType, err error) {
		if err != nil {
			t.Errorf("watch: %v", err)
			return
		}
		events |= ev
		if ev&FSEventChange != 0 {
			w.Close(nil)
		}
	})

	if err := os.WriteFile(path, []byte("after"), 0o644); err != nil {
		t.Fatalf("rewrite: %v", err)
	}

	l.Run(RunDefault)
	if events&FSEventChange == 0 {
		t.Errorf("events %v, want change class", events)
	}
	l.Close()
}

// TestFSEvent_SecondStartRejected enforces one watch per handle.
func TestFSEvent_SecondStartRejected(t *testing.T) {
	l, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	dir := t.TempDir()

	w, _ := NewFSEvent(l)
	if err := w.Start(dir, func(string, FSEventType, error) {}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := w.Start(dir, func(string, FSEventType, error) {}); api.CodeOf(err) != api.EALREADY {
		t.Errorf("second Start: got %v, want EALREADY", err)
	}

	w.Close(nil)
	l.Run(RunDefault)
	l.Close()
}
