// File: phase_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package uv

import (
	"testing"
)

// TestPhases_OrderWithinIteration runs one iteration with all three
// phase handles armed and checks prepare runs before check.
func TestPhases_OrderWithinIteration(t *testing.T) {
	l := newTestLoop(t)

	var order []string
	idle, _ := NewIdle(l)
	idle.Start(func(*Idle) { order = append(order, "idle") })
	prep, _ := NewPrepare(l)
	prep.Start(func(*Prepare) { order = append(order, "prepare") })
	check, _ := NewCheck(l)
	check.Start(func(*Check) { order = append(order, "check") })

	l.Run(RunOnce)

	want := []string{"idle", "prepare", "check"}
	if len(order) != len(want) {
		t.Fatalf("phase callbacks: got %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("phase order: got %v, want %v", order, want)
		}
	}

	idle.Close(nil)
	prep.Close(nil)
	check.Close(nil)
	l.Run(RunDefault)
	l.Close()
}

// TestIdle_RunsEveryIteration checks a started idle fires each pass and
// keeps the poll from blocking.
func TestIdle_RunsEveryIteration(t *testing.T) {
	l := newTestLoop(t)

	fires := 0
	idle, _ := NewIdle(l)
	idle.Start(func(i *Idle) {
		fires++
		if fires == 5 {
			i.Close(nil)
		}
	})

	l.Run(RunDefault)
	if fires != 5 {
		t.Errorf("idle fired %d times, want 5", fires)
	}
	l.Close()
}

// TestIdle_StopIsIdempotent stops an idle twice and restarts it.
func TestIdle_StopIsIdempotent(t *testing.T) {
	l := newTestLoop(t)

	idle, _ := NewIdle(l)
	idle.Start(func(*Idle) {})
	if err := idle.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if err := idle.Stop(); err != nil {
		t.Fatalf("second Stop: %v", err)
	}
	if err := idle.Start(func(i *Idle) { i.Close(nil) }); err != nil {
		t.Fatalf("restart: %v", err)
	}

	l.Run(RunDefault)
	l.Close()
}
