//go:build darwin
// +build darwin

// File: browser/discovery_darwin.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package browser

import "os"

func candidatePaths() []Installation {
	return []Installation{
		{Path: "/Applications/Google Chrome.app/Contents/MacOS/Google Chrome", Channel: ChannelStable},
		{Path: "/Applications/Google Chrome Beta.app/Contents/MacOS/Google Chrome Beta", Channel: ChannelBeta},
		{Path: "/Applications/Google Chrome Dev.app/Contents/MacOS/Google Chrome Dev", Channel: ChannelDev},
		{Path: "/Applications/Google Chrome Canary.app/Contents/MacOS/Google Chrome Canary", Channel: ChannelCanary},
		{Path: "/Applications/Chromium.app/Contents/MacOS/Chromium", Channel: ChannelChromium},
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
