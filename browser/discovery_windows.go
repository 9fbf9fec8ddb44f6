//go:build windows
// +build windows

// File: browser/discovery_windows.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Candidate paths mirror original_source's pathsToCheck in
// findAllInstallations (src/browser/ChromeLauncher.cpp): Program Files,
// Program Files (x86), and the per-user LOCALAPPDATA install location.

package browser

import (
	"os"
	"path/filepath"
)

func candidatePaths() []Installation {
	var bases []string
	for _, env := range []string{"ProgramFiles", "ProgramFiles(x86)"} {
		if v := os.Getenv(env); v != "" {
			bases = append(bases, v)
		}
	}

	var found []Installation
	for _, base := range bases {
		found = append(found,
			Installation{Path: filepath.Join(base, `Google\Chrome\Application\chrome.exe`), Channel: ChannelStable},
			Installation{Path: filepath.Join(base, `Google\Chrome Beta\Application\chrome.exe`), Channel: ChannelBeta},
			Installation{Path: filepath.Join(base, `Google\Chrome Dev\Application\chrome.exe`), Channel: ChannelDev},
			Installation{Path: filepath.Join(base, `Google\Chrome SxS\Application\chrome.exe`), Channel: ChannelCanary},
			Installation{Path: filepath.Join(base, `Chromium\Application\chrome.exe`), Channel: ChannelChromium},
		)
	}
	if local := os.Getenv("LOCALAPPDATA"); local != "" {
		found = append(found,
			Installation{Path: filepath.Join(local, `Google\Chrome\Application\chrome.exe`), Channel: ChannelStable},
			Installation{Path: filepath.Join(local, `Chromium\Application\chrome.exe`), Channel: ChannelChromium},
		)
	}
	return found
}

func findAllInstallations() []Installation {
	var found []Installation
	for _, candidate := range candidatePaths() {
		if info, err := os.Stat(candidate.Path); err == nil && !info.IsDir() {
			found = append(found, candidate)
		}
	}
	return found
}
