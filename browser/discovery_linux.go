//go:build linux
// +build linux

// File: browser/discovery_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package browser

import "os"

// candidatePaths lists the well-known Linux install locations in
// preference order, mirroring the channel ordering original_source checks
// on Windows (Stable, Beta, Dev, Canary, Chromium equivalents).
func candidatePaths() []Installation {
	return []Installation{
		{Path: "/usr/bin/google-chrome-stable", Channel: ChannelStable},
		{Path: "/usr/bin/google-chrome", Channel: ChannelStable},
		{Path: "/usr/bin/google-chrome-beta", Channel: ChannelBeta},
		{Path: "/usr/bin/google-chrome-unstable", Channel: ChannelDev},
		{Path: "/usr/bin/chromium-browser", Channel: ChannelChromium},
		{Path: "/usr/bin/chromium", Channel: ChannelChromium},
		{Path: "/snap/bin/chromium", Channel: ChannelChromium},
	}
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
