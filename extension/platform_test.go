// File: extension/platform_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package extension_test

import (
	"path/filepath"
	"testing"

	"github.com/corvidlabs/cdpgo/extension"
)

func TestNormalizePath_ProducesAbsolutePath(t *testing.T) {
	got, err := extension.NormalizePath("relative/dir")
	if err != nil {
		t.Fatalf("normalize path: %v", err)
	}
	if !filepath.IsAbs(got) {
		t.Fatalf("want an absolute path, got %q", got)
	}
}

func TestChromeTimeNow_IsPositiveDecimal(t *testing.T) {
	got := extension.ChromeTimeNow()
	if got == "" {
		t.Fatal("want non-empty timestamp")
	}
	for _, c := range got {
		if c < '0' || c > '9' {
			t.Fatalf("timestamp %q contains non-digit %q", got, c)
		}
	}
}

func TestGetSID_ReturnsNonEmptyOnThisHost(t *testing.T) {
	sid, err := extension.GetSID()
	if err != nil {
		t.Skipf("SID unavailable in this environment: %v", err)
	}
	if sid == "" {
		t.Fatal("want non-empty SID/machine-id when no error is returned")
	}
}
