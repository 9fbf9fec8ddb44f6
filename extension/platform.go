package extension

import (
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"
	"unicode/utf16"
)

// chromeEpochDiffMicros is the number of microseconds between the Windows
// FILETIME epoch (1601-01-01) and the Unix epoch (1970-01-01), the same
// constant Chromium's own time utilities use to rebase a Unix timestamp onto
// its preference-file epoch.
const chromeEpochDiffMicros = 11644473600000000

// NormalizePath resolves path to its absolute form and, on Windows,
// canonicalizes it the way Chromium does: uppercase drive letter, backslash
// separators.
func NormalizePath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	if runtime.GOOS == "windows" {
		if len(abs) >= 2 && abs[1] == ':' {
			abs = strings.ToUpper(abs[:1]) + abs[1:]
		}
		abs = strings.ReplaceAll(abs, "/", "\\")
	}
	return abs, nil
}

// PathToBytes encodes a normalized path the same way Chromium hashes it when
// deriving an extension ID: UTF-16LE bytes (no null terminator) on Windows,
// raw UTF-8 bytes everywhere else.
func PathToBytes(path string) []byte {
	if runtime.GOOS != "windows" {
		return []byte(path)
	}
	units := utf16.Encode([]rune(path))
	out := make([]byte, len(units)*2)
	for i, u := range units {
		out[i*2] = byte(u)
		out[i*2+1] = byte(u >> 8)
	}
	return out
}

// ChromeTimeNow returns the current time in Chromium's preference-file time
// format: a decimal count of microseconds since the Windows FILETIME epoch
// (1601-01-01), computed from the Unix clock. The microsecond form is used
// on every platform, Windows included; no 100ns tick count is produced.
func ChromeTimeNow() string {
	micros := time.Now().UnixMicro()
	return strconv.FormatUint(uint64(micros)+chromeEpochDiffMicros, 10)
}

// GetSID returns the stable per-user identifier Chromium's MAC computation
// binds preference entries to: the Windows account SID with its trailing
// relative identifier stripped, or the contents of /etc/machine-id on
// POSIX systems. Implemented per-platform in platform_windows.go /
// platform_unix.go.
func GetSID() (string, error) {
	return getSID()
}
