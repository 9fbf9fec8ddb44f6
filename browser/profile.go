// File: browser/profile.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Temp profile management and free-port allocation, adapted from
// original_source's createTempProfile/cleanupStaleTempProfiles/
// findFreePort. The reference implementation only actually wires up the
// Windows branch of temp-profile creation and leaves the POSIX branch
// returning "not supported on this platform"; this module provides a real
// cross-platform implementation using os.MkdirTemp since Go's standard
// library makes that trivial on every target.
package browser

import (
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/corvidlabs/cdpgo/cdperr"
)

// FindFreePort binds a loopback socket on port 0, reads back the assigned
// port, and closes the socket, mirroring the reference's bind-then-
// getsockname-then-close approach rather than guessing an unused port.
func FindFreePort() (int, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, cdperr.Wrap(cdperr.KindLaunchFailed, "find free port", err)
	}
	defer ln.Close()
	return ln.Addr().(*net.TCPAddr).Port, nil
}

// createTempProfile makes a fresh, uniquely named directory under the OS
// temp dir using prefix, first sweeping stale profiles left behind by
// crashed prior runs.
func createTempProfile(prefix string) (string, error) {
	cleanupStaleTempProfiles(prefix)

	dir, err := os.MkdirTemp("", prefix)
	if err != nil {
		return "", cdperr.Wrap(cdperr.KindLaunchFailed, "create temp profile directory", err)
	}
	return dir, nil
}

// cleanupStaleTempProfiles removes every sibling temp directory sharing
// prefix, best-effort: a directory that fails to remove (e.g. still locked
// by a lingering process) is skipped rather than aborting the sweep,
// matching the reference's hasLockedFiles/continue behavior.
func cleanupStaleTempProfiles(prefix string) int {
	entries, err := os.ReadDir(os.TempDir())
	if err != nil {
		return 0
	}
	cleaned := 0
	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), prefix) {
			continue
		}
		path := filepath.Join(os.TempDir(), entry.Name())
		if os.RemoveAll(path) == nil {
			cleaned++
		}
	}
	return cleaned
}

// removeTempProfile deletes dir after a short grace period, giving the
// just-terminated browser process time to release its file locks, the
// same rationale as the reference's 500ms sleep in cleanupTempProfile.
func removeTempProfile(dir string) {
	if dir == "" {
		return
	}
	time.Sleep(500 * time.Millisecond)
	_ = os.RemoveAll(dir)
}
