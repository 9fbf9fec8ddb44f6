//go:build !windows

// File: extension/platform_unix.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package extension

import (
	"bufio"
	"os"
)

// getSID returns the first line of /etc/machine-id, the stable per-host
// identifier POSIX systems substitute for a Windows account SID.
func getSID() (string, error) {
	f, err := os.Open("/etc/machine-id")
	if err != nil {
		return "", err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if scanner.Scan() {
		return scanner.Text(), nil
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", nil
}
