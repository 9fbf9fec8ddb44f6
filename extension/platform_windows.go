//go:build windows

// File: extension/platform_windows.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package extension

import (
	"strings"

	"golang.org/x/sys/windows"
)

// getSID returns the current process's account SID with its trailing
// relative identifier stripped, matching Chromium's own per-install
// identifier derivation on Windows.
func getSID() (string, error) {
	token, err := windows.OpenCurrentProcessToken()
	if err != nil {
		return "", err
	}
	defer token.Close()

	user, err := token.GetTokenUser()
	if err != nil {
		return "", err
	}

	sidStr, err := user.User.Sid.String()
	if err != nil {
		return "", err
	}

	if idx := strings.LastIndex(sidStr, "-"); idx >= 0 {
		sidStr = sidStr[:idx]
	}
	return sidStr, nil
}
