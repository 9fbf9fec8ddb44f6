// File: browser/options_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package browser_test

import (
	"strings"
	"testing"

	"github.com/corvidlabs/cdpgo/browser"
)

func TestBuildArgs_PortAndHostAlwaysFirst(t *testing.T) {
	o := browser.DefaultLaunchOptions()
	o.DebuggingPort = 9333
	args := o.BuildArgs()

	if args[0] != "--remote-debugging-port=9333" {
		t.Fatalf("args[0] = %q, want remote-debugging-port first", args[0])
	}
	if args[1] != "--remote-debugging-address=127.0.0.1" {
		t.Fatalf("args[1] = %q, want remote-debugging-address second", args[1])
	}
}

func TestBuildArgs_HeadlessUsesNewHeadlessFlag(t *testing.T) {
	o := browser.HeadlessOptions()
	o.DebuggingPort = 9222
	args := o.BuildArgs()

	if !containsArg(args, "--headless=new") {
		t.Fatal("want --headless=new in args")
	}
	if !containsArg(args, "--disable-gpu") {
		t.Fatal("want --disable-gpu alongside headless")
	}
}

func TestBuildArgs_StartURLIsLast(t *testing.T) {
	o := browser.DefaultLaunchOptions()
	o.DebuggingPort = 9222
	args := o.BuildArgs()

	if args[len(args)-1] != "about:blank" {
		t.Fatalf("last arg = %q, want about:blank", args[len(args)-1])
	}
}

func TestBuildArgs_AdditionalFlagsPassThrough(t *testing.T) {
	o := browser.DefaultLaunchOptions()
	o.DebuggingPort = 9222
	o.AdditionalFlags = []string{"--custom-flag=1"}
	args := o.BuildArgs()

	if !containsArg(args, "--custom-flag=1") {
		t.Fatal("want additional flag present")
	}
	joined := strings.Join(args, " ")
	if strings.Index(joined, "--custom-flag=1") > strings.Index(joined, "about:blank") {
		t.Fatal("additional flags must precede the start URL")
	}
}

func containsArg(args []string, want string) bool {
	for _, a := range args {
		if a == want {
			return true
		}
	}
	return false
}
