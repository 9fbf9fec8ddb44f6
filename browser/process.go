// File: browser/process.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Supervisor owns one Chromium child process end to end: resolving an
// installation, creating its profile, spawning it, polling readiness, and
// tearing it down. Adapted from original_source's ChromeLauncher::launch/
// waitForReady/checkEndpointReady/kill, restructured around os/exec instead
// of the reference's raw CreateProcess/TerminateProcess pair.
package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/corvidlabs/cdpgo/cdperr"
	"github.com/corvidlabs/cdpgo/control"
)

// versionInfo is the subset of /json/version this module cares about.
type versionInfo struct {
	Browser              string `json:"Browser"`
	ProtocolVersion      string `json:"Protocol-Version"`
	WebSocketDebuggerURL string `json:"webSocketDebuggerUrl"`
}

// Supervisor manages one launched browser process's lifecycle.
type Supervisor struct {
	opts         LaunchOptions
	installation Installation
	profileDir   string
	ownsProfile  bool

	cmd  *exec.Cmd
	log  zerolog.Logger
	done chan struct{} // closed once by waitExit after cmd.Wait() returns

	mu       sync.Mutex
	launched atomic.Bool
	exited   atomic.Bool
	exitErr  error
}

// Launch resolves an installation, prepares the profile directory,
// allocates a debugging port if none was set, spawns the process, and
// blocks until the CDP endpoint answers or maxStartupWaitMs elapses. logger
// may be the zero value (zerolog.Logger{}), which discards everything; it is
// always a constructor argument here, never a package-level singleton.
func Launch(opts LaunchOptions, logger zerolog.Logger) (*Supervisor, error) {
	if opts.DebuggingPort == 0 {
		port, err := FindFreePort()
		if err != nil {
			return nil, err
		}
		opts.DebuggingPort = port
	}

	installation, err := ResolveInstallation(opts)
	if err != nil {
		logger.Error().Err(err).Msg("resolve chromium installation")
		return nil, err
	}

	s := &Supervisor{opts: opts, installation: installation, log: logger, done: make(chan struct{})}

	if opts.UseTempProfile {
		dir, err := createTempProfile(opts.TempProfilePrefix)
		if err != nil {
			return nil, err
		}
		s.profileDir = dir
		s.ownsProfile = true
		s.opts.UserDataDir = dir
	} else if opts.UserDataDir != "" {
		s.profileDir = opts.UserDataDir
	}

	args := s.opts.BuildArgs()
	cmd := exec.Command(installation.Path, args...)
	if err := cmd.Start(); err != nil {
		if s.ownsProfile {
			removeTempProfile(s.profileDir)
		}
		s.log.Error().Err(err).Str("path", installation.Path).Msg("start chromium process")
		return nil, cdperr.Wrap(cdperr.KindLaunchFailed, "start chromium process", err)
	}
	s.cmd = cmd
	s.launched.Store(true)
	s.log.Info().Int("pid", s.PID()).Int("port", opts.DebuggingPort).Msg("chromium process started")

	go s.waitExit()

	if opts.StartupWait > 0 {
		time.Sleep(time.Duration(opts.StartupWait) * time.Millisecond)
	}
	if err := s.waitForReady(time.Duration(opts.MaxStartupWaitMs) * time.Millisecond); err != nil {
		s.log.Error().Err(err).Msg("chromium did not become ready")
		s.Kill()
		return nil, err
	}
	s.log.Info().Str("debug_url", s.DebugURL()).Msg("chromium ready")
	return s, nil
}

// waitExit is the sole goroutine that ever calls s.cmd.Wait(); exec.Cmd
// documents concurrent or repeated Wait calls as unsafe, so terminateProcess
// waits on s.done instead of calling Wait itself.
func (s *Supervisor) waitExit() {
	err := s.cmd.Wait()
	s.mu.Lock()
	s.exitErr = err
	s.mu.Unlock()
	s.exited.Store(true)
	close(s.done)
}

// IsRunning reports whether the process has not yet exited.
func (s *Supervisor) IsRunning() bool {
	return s.launched.Load() && !s.exited.Load()
}

func (s *Supervisor) waitForReady(timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		if !s.IsRunning() {
			return cdperr.New(cdperr.KindProcessDied, "chromium process exited before becoming ready")
		}
		if s.checkEndpointReady() {
			return nil
		}
		if time.Now().After(deadline) {
			return cdperr.New(cdperr.KindTimeout, fmt.Sprintf("cdp endpoint not ready after %s", timeout))
		}
		time.Sleep(100 * time.Millisecond)
	}
}

func (s *Supervisor) checkEndpointReady() bool {
	resp, err := http.Get(s.DebugURL() + "/json/version")
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// DebugURL returns the loopback HTTP control-plane base URL.
func (s *Supervisor) DebugURL() string {
	return fmt.Sprintf("http://%s:%d", s.opts.Host, s.opts.DebuggingPort)
}

// BrowserWebSocketURL fetches /json/version and returns its
// webSocketDebuggerUrl field, the entry point for a browser-level session.
func (s *Supervisor) BrowserWebSocketURL(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.DebugURL()+"/json/version", nil)
	if err != nil {
		return "", cdperr.Wrap(cdperr.KindConnection, "build version request", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", cdperr.Wrap(cdperr.KindConnection, "fetch /json/version", err)
	}
	defer resp.Body.Close()

	var info versionInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return "", cdperr.Wrap(cdperr.KindProtocolError, "decode /json/version", err)
	}
	if info.WebSocketDebuggerURL == "" {
		return "", cdperr.New(cdperr.KindConnection, "/json/version had no webSocketDebuggerUrl")
	}
	return info.WebSocketDebuggerURL, nil
}

// PID returns the child process's OS process ID.
func (s *Supervisor) PID() int {
	if s.cmd == nil || s.cmd.Process == nil {
		return 0
	}
	return s.cmd.Process.Pid
}

// Kill idempotently terminates the process (SIGTERM then SIGKILL on POSIX,
// TerminateProcess on Windows — see teardown_*.go), waits for exit, and
// removes the temp profile if this Supervisor owns one and
// CleanupTempProfile is set.
func (s *Supervisor) Kill() error {
	if !s.launched.CompareAndSwap(true, false) {
		return nil
	}
	err := terminateProcess(s.cmd, s.done, 5*time.Second)
	s.log.Info().Err(err).Int("pid", s.PID()).Msg("chromium process terminated")
	if s.ownsProfile && s.opts.CleanupTempProfile {
		removeTempProfile(s.profileDir)
	}
	return err
}

// RegisterProbes exposes this supervisor's PID, liveness, and debug URL
// under prefix in an existing debug probe registry, so a process hosting
// several supervisors can inspect all of them through one DumpState call.
func (s *Supervisor) RegisterProbes(dp *control.DebugProbes, prefix string) {
	if dp == nil {
		return
	}
	dp.RegisterProbe(prefix+".pid", func() any { return s.PID() })
	dp.RegisterProbe(prefix+".running", func() any { return s.IsRunning() })
	dp.RegisterProbe(prefix+".debug_url", func() any { return s.DebugURL() })
}

// WaitForExit blocks until the process has exited or ctx is done.
func (s *Supervisor) WaitForExit(ctx context.Context) error {
	for {
		if s.exited.Load() {
			s.mu.Lock()
			err := s.exitErr
			s.mu.Unlock()
			return err
		}
		select {
		case <-ctx.Done():
			return cdperr.Wrap(cdperr.KindTimeout, "wait for exit", ctx.Err())
		case <-time.After(50 * time.Millisecond):
		}
	}
}
