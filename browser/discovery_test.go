// File: browser/discovery_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package browser_test

import (
	"testing"

	"github.com/corvidlabs/cdpgo/browser"
	"github.com/corvidlabs/cdpgo/cdperr"
)

func TestResolveInstallation_CustomChannelRequiresPath(t *testing.T) {
	opts := browser.DefaultLaunchOptions()
	opts.PreferredChannel = browser.ChannelCustom
	opts.CustomChromePath = ""

	_, err := browser.ResolveInstallation(opts)
	if !cdperr.Is(err, cdperr.KindLaunchFailed) {
		t.Fatalf("want KindLaunchFailed, got %v", err)
	}
}

func TestResolveInstallation_CustomChannelUsesGivenPath(t *testing.T) {
	opts := browser.DefaultLaunchOptions()
	opts.PreferredChannel = browser.ChannelCustom
	opts.CustomChromePath = "/opt/my-chromium/chrome"

	inst, err := browser.ResolveInstallation(opts)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if inst.Path != opts.CustomChromePath {
		t.Fatalf("got path %q, want %q", inst.Path, opts.CustomChromePath)
	}
	if inst.Channel != browser.ChannelCustom {
		t.Fatalf("got channel %v, want custom", inst.Channel)
	}
}

func TestChannel_String(t *testing.T) {
	cases := map[browser.Channel]string{
		browser.ChannelStable:   "stable",
		browser.ChannelBeta:     "beta",
		browser.ChannelDev:      "dev",
		browser.ChannelCanary:   "canary",
		browser.ChannelChromium: "chromium",
		browser.ChannelCustom:   "custom",
	}
	for ch, want := range cases {
		if got := ch.String(); got != want {
			t.Fatalf("Channel(%d).String() = %q, want %q", ch, got, want)
		}
	}
}
