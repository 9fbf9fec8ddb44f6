// Package extension pre-provisions unpacked Chromium extensions into a
// profile directory without going through the interactive install flow:
// it derives the extension ID the same way Chromium does, builds the
// "Secure Preferences" entry Chromium expects to find already installed,
// and signs it with the same HMAC scheme Chromium uses to detect tampering.
//
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package extension
