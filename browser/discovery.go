// File: browser/discovery.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package browser

import "github.com/corvidlabs/cdpgo/cdperr"

// FindAllInstallations returns every discovered installation on this
// platform, in the same preference order original_source's
// findAllInstallations walks its candidate path list.
func FindAllInstallations() []Installation {
	return findAllInstallations()
}

// FindInstallation returns the first discovered installation matching the
// given channel, if any.
func FindInstallation(channel Channel) (Installation, bool) {
	for _, inst := range findAllInstallations() {
		if inst.Channel == channel {
			return inst, true
		}
	}
	return Installation{}, false
}

// FindBestInstallation returns the first discovered installation of any
// channel, preferring the platform's candidate-list order (Stable first).
func FindBestInstallation() (Installation, bool) {
	all := findAllInstallations()
	if len(all) == 0 {
		return Installation{}, false
	}
	return all[0], true
}

// ResolveInstallation picks an installation per LaunchOptions: a custom
// path always wins, then the preferred channel, then the best available.
func ResolveInstallation(opts LaunchOptions) (Installation, error) {
	if opts.PreferredChannel == ChannelCustom {
		if opts.CustomChromePath == "" {
			return Installation{}, cdperr.New(cdperr.KindLaunchFailed, "custom channel requested but no custom path given")
		}
		return Installation{Path: opts.CustomChromePath, Channel: ChannelCustom}, nil
	}
	if inst, ok := FindInstallation(opts.PreferredChannel); ok {
		return inst, nil
	}
	if inst, ok := FindBestInstallation(); ok {
		return inst, nil
	}
	return Installation{}, cdperr.New(cdperr.KindLaunchFailed, "no chromium installation found on this system")
}
