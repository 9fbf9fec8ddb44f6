// File: browser/options.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// LaunchOptions and its argument synthesis are adapted from
// original_source's ChromeLaunchOptions/buildArgs
// (include/cdp/browser/ChromeLauncher.hpp,
// src/browser/ChromeLauncher.cpp lines 22-131), preserving the exact flag
// set and ordering so a captured command line from this module matches
// what the reference implementation would have produced.
package browser

import "fmt"

// LaunchOptions mirrors ChromeLaunchOptions field-for-field.
type LaunchOptions struct {
	DebuggingPort int
	Host          string

	UseTempProfile    bool
	UserDataDir       string
	TempProfilePrefix string

	Headless       bool
	StartMaximized bool
	WindowWidth    int
	WindowHeight   int
	WindowX        int
	WindowY        int

	DisableGPU                  bool
	DisableExtensions           bool
	DisablePopupBlocking        bool
	DisableDefaultApps          bool
	NoFirstRun                  bool
	NoDefaultBrowserCheck       bool
	DisableBackgroundNetworking bool
	DisableSync                 bool
	DisableTranslate            bool
	MuteAudio                   bool
	IgnoreSSLErrors             bool

	ProxyServer     string
	ProxyBypassList string

	AdditionalFlags []string

	PreferredChannel Channel
	CustomChromePath string

	StartURL         string
	StartupWait      int // milliseconds, pre-poll sleep
	MaxStartupWaitMs int

	CleanupTempProfile bool
	KillOnClose        bool

	Extensions                 []string
	ExtensionIncognitoEnabled  bool
	ExtensionFileAccessEnabled bool
	AllowExtensionsOnCustomDir bool
}

// DefaultLaunchOptions matches original_source's ChromeLaunchOptions
// default member initializers.
func DefaultLaunchOptions() LaunchOptions {
	return LaunchOptions{
		Host:                       "127.0.0.1",
		UseTempProfile:             true,
		TempProfilePrefix:          "cdp_chrome_",
		WindowWidth:                1280,
		WindowHeight:               720,
		WindowX:                    -1,
		WindowY:                    -1,
		DisableExtensions:          true,
		DisablePopupBlocking:       true,
		DisableDefaultApps:         true,
		NoFirstRun:                 true,
		NoDefaultBrowserCheck:      true,
		DisableSync:                true,
		DisableTranslate:           true,
		PreferredChannel:           ChannelStable,
		StartURL:                   "about:blank",
		StartupWait:                2000,
		MaxStartupWaitMs:           30000,
		CleanupTempProfile:         true,
		KillOnClose:                true,
		ExtensionIncognitoEnabled:  true,
		ExtensionFileAccessEnabled: true,
	}
}

// HeadlessOptions matches ChromeLaunchOptions::headlessMode().
func HeadlessOptions() LaunchOptions {
	o := DefaultLaunchOptions()
	o.Headless = true
	o.DisableGPU = true
	return o
}

// AutomationOptions matches ChromeLaunchOptions::automation().
func AutomationOptions() LaunchOptions {
	o := DefaultLaunchOptions()
	o.DisableExtensions = true
	o.DisablePopupBlocking = true
	o.NoFirstRun = true
	o.DisableSync = true
	return o
}

// WithExtensionsOptions matches ChromeLaunchOptions::withExtensions().
func WithExtensionsOptions(paths []string) LaunchOptions {
	o := DefaultLaunchOptions()
	o.Extensions = paths
	o.DisableExtensions = false
	o.DisablePopupBlocking = true
	o.NoFirstRun = true
	o.DisableSync = true
	return o
}

// BuildArgs synthesizes the Chromium command line in the exact order
// original_source's buildArgs does.
func (o LaunchOptions) BuildArgs() []string {
	var args []string

	args = append(args, fmt.Sprintf("--remote-debugging-port=%d", o.DebuggingPort))
	args = append(args, "--remote-debugging-address="+o.Host)

	if o.UserDataDir != "" {
		args = append(args, "--user-data-dir="+o.UserDataDir)
	}

	if o.Headless {
		args = append(args, "--headless=new")
	}
	if o.StartMaximized {
		args = append(args, "--start-maximized")
	} else {
		args = append(args, fmt.Sprintf("--window-size=%d,%d", o.WindowWidth, o.WindowHeight))
	}
	if o.WindowX >= 0 && o.WindowY >= 0 {
		args = append(args, fmt.Sprintf("--window-position=%d,%d", o.WindowX, o.WindowY))
	}

	if o.DisableGPU {
		args = append(args, "--disable-gpu", "--disable-software-rasterizer")
	}
	if o.DisableExtensions {
		args = append(args, "--disable-extensions")
	}
	if o.DisablePopupBlocking {
		args = append(args, "--disable-popup-blocking")
	}
	if o.DisableDefaultApps {
		args = append(args, "--disable-default-apps")
	}
	if o.NoFirstRun {
		args = append(args, "--no-first-run", "--no-default-browser-check")
	}
	if o.NoDefaultBrowserCheck {
		args = append(args, "--no-default-browser-check")
	}
	if o.DisableBackgroundNetworking {
		args = append(args, "--disable-background-networking")
	}
	if o.DisableSync {
		args = append(args, "--disable-sync")
	}
	if o.DisableTranslate {
		args = append(args, "--disable-translate")
	}
	if o.MuteAudio {
		args = append(args, "--mute-audio")
	}
	if o.IgnoreSSLErrors {
		args = append(args, "--ignore-certificate-errors", "--ignore-ssl-errors")
	}

	if o.ProxyServer != "" {
		args = append(args, "--proxy-server="+o.ProxyServer)
	}
	if o.ProxyBypassList != "" {
		args = append(args, "--proxy-bypass-list="+o.ProxyBypassList)
	}

	args = append(args,
		"--disable-hang-monitor",
		"--disable-ipc-flooding-protection",
		"--disable-prompt-on-repost",
		"--disable-renderer-backgrounding",
		"--disable-backgrounding-occluded-windows",
		"--disable-component-update",
		"--disable-breakpad",
		"--metrics-recording-only",
		"--safebrowsing-disable-auto-update",
		"--password-store=basic",
		"--use-mock-keychain",
		"--enable-features=NetworkService,NetworkServiceInProcess",
	)

	args = append(args, o.AdditionalFlags...)

	if o.StartURL != "" {
		args = append(args, o.StartURL)
	}
	return args
}
