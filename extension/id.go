package extension

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"

	"github.com/corvidlabs/cdpgo/cdperr"
)

// GenerateID derives the 32-character [a-p] extension ID Chromium assigns to
// an unpacked extension loaded from a directory, matching the scheme
// Chromium itself uses: SHA-256 of the platform-encoded absolute path, then
// remap the first 32 hex nibbles of the digest onto 'a'-'p'.
func GenerateID(extensionPath string) (string, error) {
	normalized, err := NormalizePath(extensionPath)
	if err != nil {
		return "", cdperr.Wrap(cdperr.KindExtension, "normalize extension path", err)
	}
	return hashToID(PathToBytes(normalized)), nil
}

// GenerateIDFromKey derives the extension ID from a manifest "key" field
// (the extension's base64-encoded public key), the scheme Chromium uses for
// extensions that declare a fixed key rather than relying on path-derived
// identity.
func GenerateIDFromKey(key string) (string, error) {
	keyBytes, err := base64.StdEncoding.DecodeString(key)
	if err != nil {
		return "", cdperr.Wrap(cdperr.KindExtension, "decode manifest key", err)
	}
	return hashToID(keyBytes), nil
}

func hashToID(data []byte) string {
	sum := sha256.Sum256(data)
	hexDigest := hex.EncodeToString(sum[:])

	id := make([]byte, 32)
	for i := 0; i < 32; i++ {
		c := hexDigest[i]
		var val byte
		if c >= '0' && c <= '9' {
			val = c - '0'
		} else {
			val = c - 'a' + 10
		}
		id[i] = 'a' + val
	}
	return string(id)
}
