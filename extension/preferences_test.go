// File: extension/preferences_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package extension_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/corvidlabs/cdpgo/extension"
)

const sampleManifest = `{
	"manifest_version": 3,
	"name": "sample",
	"version": "1.2.3",
	"permissions": ["storage", "tabs"],
	"host_permissions": ["https://example.com/*"],
	"content_scripts": [
		{"matches": ["https://example.com/*", "https://example.org/*"]}
	]
}`

func TestCreateSecurePreferences_WritesSignedProfileFiles(t *testing.T) {
	userDataDir := t.TempDir()
	extDir := t.TempDir()

	if err := os.WriteFile(filepath.Join(extDir, "manifest.json"), []byte(sampleManifest), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}

	results, err := extension.CreateSecurePreferences(userDataDir, []string{extDir}, true, true, zerolog.Nop())
	if err != nil {
		t.Fatalf("create secure preferences: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if len(results[0].ExtensionID) != 32 {
		t.Fatalf("extension ID %q not 32 chars", results[0].ExtensionID)
	}

	securePrefs, err := os.ReadFile(filepath.Join(userDataDir, "Default", "Secure Preferences"))
	if err != nil {
		t.Fatalf("read Secure Preferences: %v", err)
	}
	content := string(securePrefs)
	if !strings.Contains(content, results[0].ExtensionID) {
		t.Fatal("Secure Preferences does not mention the derived extension ID")
	}
	if !strings.Contains(content, `"super_mac"`) {
		t.Fatal("Secure Preferences is missing the super_mac field")
	}

	prefs, err := os.ReadFile(filepath.Join(userDataDir, "Default", "Preferences"))
	if err != nil {
		t.Fatalf("read Preferences: %v", err)
	}
	if string(prefs) != "{}" {
		t.Fatalf("got Preferences = %q, want {}", prefs)
	}

	localState, err := os.ReadFile(filepath.Join(userDataDir, "Local State"))
	if err != nil {
		t.Fatalf("read Local State: %v", err)
	}
	if !strings.Contains(string(localState), `"Default"`) {
		t.Fatal("Local State does not mention the Default profile")
	}
}

func TestCreateSecurePreferences_MissingManifestFails(t *testing.T) {
	userDataDir := t.TempDir()
	extDir := t.TempDir()

	if _, err := extension.CreateSecurePreferences(userDataDir, []string{extDir}, true, true, zerolog.Nop()); err == nil {
		t.Fatal("want error when manifest.json is missing")
	}
}
