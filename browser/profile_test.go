// File: browser/profile_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package browser_test

import (
	"testing"

	"github.com/corvidlabs/cdpgo/browser"
)

func TestFindFreePort_ReturnsUsablePort(t *testing.T) {
	port, err := browser.FindFreePort()
	if err != nil {
		t.Fatalf("find free port: %v", err)
	}
	if port <= 0 || port > 65535 {
		t.Fatalf("got implausible port %d", port)
	}
}

func TestFindFreePort_RepeatedCallsReturnNonzeroPorts(t *testing.T) {
	a, err := browser.FindFreePort()
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	b, err := browser.FindFreePort()
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	// Distinct ports are not guaranteed under extreme reuse, so this only
	// checks that back-to-back calls each succeed with a nonzero port.
	if a == 0 || b == 0 {
		t.Fatal("ports must be nonzero")
	}
}
