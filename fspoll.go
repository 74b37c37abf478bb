//go:build linux

// File: fspoll.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Stat-polling path watchers. Unlike the inotify-backed watch these
// detect changes by comparing stat snapshots on an interval, so they
// work on filesystems that deliver no change notifications. The pacing
// timer is loop-internal scheduling state, not a handle: it never shows
// up in walks or liveness.

package uv

import (
	"time"

	"golang.org/x/sys/unix"

	"github.com/koehlma/uv/api"
)

// StatInfo is one stat snapshot of the polled path.
type StatInfo struct {
	Dev        uint64
	Ino        uint64
	Mode       uint32
	Nlink      uint64
	UID        uint32
	GID        uint32
	Size       int64
	ModTime    time.Time
	ChangeTime time.Time
}

func (s *StatInfo) equal(o *StatInfo) bool {
	return s.Dev == o.Dev && s.Ino == o.Ino && s.Mode == o.Mode &&
		s.Nlink == o.Nlink && s.UID == o.UID && s.GID == o.GID &&
		s.Size == o.Size && s.ModTime.Equal(o.ModTime) &&
		s.ChangeTime.Equal(o.ChangeTime)
}

// FSPollCallback receives a change report. previous and current are the
// snapshots around the change; either may be nil when the path was, or
// has become, unreachable. err carries the stat failure for unreachable
// paths and is nil otherwise.
type FSPollCallback func(poll *FSPoll, err error, previous, current *StatInfo)

// FSPoll watches one filesystem path by periodic stat comparison.
type FSPoll struct {
	Handle
	clock    Timer
	path     string
	interval time.Duration
	cb       FSPollCallback
	polling  bool

	// Snapshot the next poll is compared against. seen is false until
	// the first stat after a start; lastErr is OK when that stat
	// succeeded and prev holds its result.
	seen    bool
	lastErr api.Code
	prev    *StatInfo
}

// NewFSPoll creates a stat-polling watch handle bound to loop.
func NewFSPoll(loop *Loop) (*FSPoll, error) {
	if err := loop.ensureOpen(); err != nil {
		return nil, err
	}
	f := &FSPoll{}
	f.clock.loop = loop
	loop.initHandle(&f.Handle, api.HandleFSPoll, f)
	f.stopWatch = f.stopPolling
	return f, nil
}

// Path returns the polled path, empty before the first Start.
func (f *FSPoll) Path() string { return f.path }

// Start begins polling path every interval. The first stat runs from
// the next dispatch: it reports an error immediately when the path is
// unreachable and otherwise becomes the silent baseline. Afterwards the
// callback fires once per observed change, including the path appearing
// or disappearing; an unchanged error repeats nothing. One poll per
// handle; stop before re-arming with a different path or interval.
func (f *FSPoll) Start(cb FSPollCallback, path string, interval time.Duration) error {
	if err := f.ensureActive("fs poll start"); err != nil {
		return err
	}
	if cb == nil || path == "" || interval <= 0 {
		return operationError("fs poll start", api.EINVAL, nil)
	}
	if f.polling {
		return operationError("fs poll start", api.EALREADY, nil)
	}

	f.path = path
	f.interval = interval
	f.cb = cb
	f.polling = true
	f.seen = false
	f.lastErr = api.OK
	f.prev = nil

	f.clock.cb = func(*Timer) { f.tick() }
	f.clock.repeat = interval
	f.clock.rearm(f.loop.now.Add(interval))
	f.loop.schedule(f.tick)
	return nil
}

// Stop ends polling. Idempotent; a later Start re-baselines.
func (f *FSPoll) Stop() error {
	if err := f.ensureActive("fs poll stop"); err != nil {
		return err
	}
	f.stopPolling()
	return nil
}

func (f *FSPoll) stopPolling() {
	if !f.polling {
		return
	}
	f.polling = false
	f.cb = nil
	f.clock.disarm()
}

// tick runs one stat round on the loop. The firing rules mirror the
// snapshot state: a new error fires, a repeated error does not, a
// success fires when it follows an error or differs from the previous
// snapshot, and the very first success only records the baseline.
func (f *FSPoll) tick() {
	if !f.polling || f.state != StateActive {
		return
	}

	cur, err := statPath(f.path)
	if err != nil {
		code := api.CodeFromErrno(err)
		if !f.seen || f.lastErr != code {
			f.cb(f, operationError("fs poll", code, err), f.prev, nil)
		}
		f.seen, f.lastErr, f.prev = true, code, nil
		return
	}

	if f.seen && (f.lastErr != api.OK || !f.prev.equal(cur)) {
		f.cb(f, nil, f.prev, cur)
	}
	f.seen, f.lastErr, f.prev = true, api.OK, cur
}

func statPath(path string) (*StatInfo, error) {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return nil, err
	}
	return &StatInfo{
		Dev:        uint64(st.Dev),
		Ino:        st.Ino,
		Mode:       st.Mode,
		Nlink:      uint64(st.Nlink),
		UID:        st.Uid,
		GID:        st.Gid,
		Size:       st.Size,
		ModTime:    time.Unix(st.Mtim.Unix()),
		ChangeTime: time.Unix(st.Ctim.Unix()),
	}, nil
}
