//go:build windows
// +build windows

// File: browser/teardown_windows.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Windows teardown mirrors original_source's kill(): TerminateProcess then
// WaitForSingleObject, expressed here as exec.Cmd.Process.Kill() (which
// calls TerminateProcess under the hood on this platform).
package browser

import (
	"os/exec"
	"time"
)

// terminateProcess never calls cmd.Wait() itself — exec.Cmd.Wait is unsafe
// to call more than once or concurrently, and Supervisor.waitExit already
// owns that call. done is closed by waitExit once cmd.Wait() returns.
func terminateProcess(cmd *exec.Cmd, done <-chan struct{}, grace time.Duration) error {
	if cmd == nil || cmd.Process == nil {
		return nil
	}
	if err := cmd.Process.Kill(); err != nil {
		return err
	}
	select {
	case <-done:
	case <-time.After(grace):
	}
	return nil
}
