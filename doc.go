// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

// Package uv is an object-oriented abstraction over an asynchronous I/O
// event loop. It exposes long-lived handles (TCP and UDP sockets, pipes,
// TTYs, timers, signal and file-system watchers, child processes) and
// one-shot requests (connect, write, shutdown, UDP send, address
// resolution) on top of a readiness reactor consumed as a black box.
//
// A Loop and its handles form a single-threaded cooperative system:
// exactly one reactor iteration executes at a time and callbacks never
// run concurrently with each other or with the code driving the loop.
// Completions arriving from helper goroutines (resolver lookups, child
// process exits, signals) are marshalled onto the loop before delivery.
//
//	loop, _ := uv.New()
//	timer, _ := uv.NewTimer(loop)
//	timer.Start(func(t *uv.Timer) {
//		t.Close(nil)
//	}, 100*time.Millisecond, 0)
//	loop.Run(uv.RunDefault)
//
// Every handle follows the same lifecycle: a constructor binds it to a
// loop, kind-specific start/stop methods arm and disarm its watcher, and
// Close tears it down. Close is idempotent, cancels queued requests with
// ECANCELED before the close callback fires, and is the only way a
// handle's native resources are released.
package uv
