// File: process.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Child process handles. Spawn happens at construction; the exit
// status is collected by a reaper goroutine and delivered through the
// cross-thread intake, so the exit callback runs on the loop
// goroutine.

package uv

import (
	"os"
	"os/exec"
	"syscall"

	"github.com/koehlma/uv/api"
)

// ProcessFlag adjusts spawn behavior.
type ProcessFlag int

const (
	// ProcessDetached starts the child in its own session, detached
	// from the controlling terminal.
	ProcessDetached ProcessFlag = 1 << iota
	// ProcessSetUID applies ProcessOptions.UID to the child.
	ProcessSetUID
	// ProcessSetGID applies ProcessOptions.GID to the child.
	ProcessSetGID
)

// StdioKind selects what backs one of the child's standard streams.
type StdioKind int

const (
	// StdioIgnore connects the stream to the null device.
	StdioIgnore StdioKind = iota
	// StdioInherit shares the parent's stream.
	StdioInherit
	// StdioFD connects the stream to an existing descriptor.
	StdioFD
)

// StdioOption configures one child stream slot.
type StdioOption struct {
	Kind StdioKind
	FD   int
}

// ProcessOptions describes the child to spawn. Stdio holds at most
// three entries for stdin, stdout and stderr; missing entries default
// to StdioIgnore.
type ProcessOptions struct {
	Command string
	Args    []string
	Cwd     string
	Env     []string
	UID     uint32
	GID     uint32
	Stdio   []StdioOption
	Flags   ProcessFlag
}

// ExitCallback receives the child's exit status. signum is the
// terminating signal, zero for a normal exit.
type ExitCallback func(status int64, signum syscall.Signal)

// Process is a spawned child process handle.
type Process struct {
	Handle
	cmd    *exec.Cmd
	exitCb ExitCallback
	exited bool
}

// NewProcess spawns opts.Command and returns a handle tracking it.
// Spawn failures surface as InitError; the handle is not created.
func NewProcess(loop *Loop, opts ProcessOptions, exitCb ExitCallback) (*Process, error) {
	if err := loop.ensureOpen(); err != nil {
		return nil, err
	}
	if opts.Command == "" {
		return nil, &api.InitError{Kind: api.HandleProcess, Code: api.EINVAL, Err: nil}
	}

	cmd := exec.Command(opts.Command, opts.Args...)
	cmd.Dir = opts.Cwd
	cmd.Env = opts.Env

	attr := &syscall.SysProcAttr{}
	if opts.Flags&ProcessDetached != 0 {
		attr.Setsid = true
	}
	if opts.Flags&(ProcessSetUID|ProcessSetGID) != 0 {
		cred := &syscall.Credential{Uid: uint32(os.Getuid()), Gid: uint32(os.Getgid())}
		if opts.Flags&ProcessSetUID != 0 {
			cred.Uid = opts.UID
		}
		if opts.Flags&ProcessSetGID != 0 {
			cred.Gid = opts.GID
		}
		attr.Credential = cred
	}
	cmd.SysProcAttr = attr

	// StdioFD slots are duplicated so the os.File wrapper owns its own
	// descriptor and the caller keeps theirs; the duplicates are closed
	// once the child holds its copies.
	stdio := make([]*os.File, 3)
	var owned []*os.File
	closeOwned := func() {
		for _, f := range owned {
			f.Close()
		}
	}
	parent := []*os.File{os.Stdin, os.Stdout, os.Stderr}
	for i := range stdio {
		opt := StdioOption{Kind: StdioIgnore}
		if i < len(opts.Stdio) {
			opt = opts.Stdio[i]
		}
		switch opt.Kind {
		case StdioInherit:
			stdio[i] = parent[i]
		case StdioFD:
			dup, err := syscall.Dup(opt.FD)
			if err != nil {
				closeOwned()
				return nil, &api.InitError{Kind: api.HandleProcess, Code: api.CodeFromErrno(err), Err: err}
			}
			syscall.CloseOnExec(dup)
			f := os.NewFile(uintptr(dup), "stdio")
			owned = append(owned, f)
			stdio[i] = f
		}
	}
	if stdio[0] != nil {
		cmd.Stdin = stdio[0]
	}
	if stdio[1] != nil {
		cmd.Stdout = stdio[1]
	}
	if stdio[2] != nil {
		cmd.Stderr = stdio[2]
	}

	err := cmd.Start()
	closeOwned()
	if err != nil {
		return nil, &api.InitError{Kind: api.HandleProcess, Code: api.CodeFromErrno(err), Err: err}
	}

	p := &Process{cmd: cmd, exitCb: exitCb}
	loop.initHandle(&p.Handle, api.HandleProcess, p)
	p.started = true
	p.stopWatch = func() { p.started = false }

	go func() {
		err := cmd.Wait()
		loop.post(func() { p.deliverExit(err) })
	}()
	return p, nil
}

// PID returns the child's process identifier.
func (p *Process) PID() int { return p.cmd.Process.Pid }

// Kill sends signum to the child.
func (p *Process) Kill(signum syscall.Signal) error {
	if p.state == StateClosed {
		return &api.ClosedHandleError{Kind: p.kind}
	}
	if p.exited {
		return operationError("process kill", api.ESRCH, nil)
	}
	if err := p.cmd.Process.Signal(signum); err != nil {
		return operationError("process kill", api.CodeFromErrno(err), err)
	}
	return nil
}

// deliverExit runs on the loop goroutine once the reaper has collected
// the child. The exit callback fires even when the handle was unref'd,
// but not after Close.
func (p *Process) deliverExit(waitErr error) {
	p.exited = true

	var status int64
	var signum syscall.Signal
	if ps := p.cmd.ProcessState; ps != nil {
		if ws, ok := ps.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
			signum = ws.Signal()
		} else {
			status = int64(ps.ExitCode())
		}
	} else if waitErr != nil {
		status = -1
	}

	if p.state == StateActive && p.started && p.exitCb != nil {
		p.exitCb(status, signum)
	}
}
