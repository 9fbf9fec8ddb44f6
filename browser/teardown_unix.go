//go:build !windows
// +build !windows

// File: browser/teardown_unix.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// POSIX teardown: SIGTERM, give the process grace to exit cleanly, then
// SIGKILL if it hasn't. The reference implementation's kill() only ever
// implements the Windows TerminateProcess path; this is this module's own
// POSIX equivalent, built on golang.org/x/sys/unix for the signal send
// (the teacher's direct dependency, previously used for epoll/IOCP
// transport setup and now re-homed onto process supervision).
package browser

import (
	"os/exec"
	"time"

	"golang.org/x/sys/unix"

	"github.com/corvidlabs/cdpgo/cdperr"
)

// terminateProcess never calls cmd.Wait() itself — exec.Cmd.Wait is unsafe
// to call more than once or concurrently, and Supervisor.waitExit already
// owns that call. done is closed by waitExit once cmd.Wait() returns.
func terminateProcess(cmd *exec.Cmd, done <-chan struct{}, grace time.Duration) error {
	if cmd == nil || cmd.Process == nil {
		return nil
	}
	pid := cmd.Process.Pid

	if err := unix.Kill(pid, unix.SIGTERM); err != nil && err != unix.ESRCH {
		return cdperr.Wrap(cdperr.KindLaunchFailed, "send SIGTERM", err)
	}

	select {
	case <-done:
		return nil
	case <-time.After(grace):
	}

	if err := unix.Kill(pid, unix.SIGKILL); err != nil && err != unix.ESRCH {
		return cdperr.Wrap(cdperr.KindLaunchFailed, "send SIGKILL", err)
	}
	<-done
	return nil
}
