// Package browser discovers installed Chromium-family browsers, launches
// one with a synthesized command line and an ephemeral profile, polls its
// loopback CDP endpoint for readiness, and tears the process down.
//
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package browser
