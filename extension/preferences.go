package extension

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/corvidlabs/cdpgo/cdperr"
)

// chromeSeed is the fixed HMAC key Chromium embeds in its binary to sign the
// "Secure Preferences" MAC table. It is not a secret in any meaningful
// sense — it ships in every Chromium build — but reproducing it exactly is
// what lets a pre-written preferences file pass Chromium's own tamper check
// on first launch.
var chromeSeed = []byte{
	0xe7, 0x48, 0xf3, 0x36, 0xd8, 0x5e, 0xa5, 0xf9, 0xdc, 0xdf, 0x25, 0xd8, 0xf3, 0x47, 0xa6, 0x5b,
	0x4c, 0xdf, 0x66, 0x76, 0x00, 0xf0, 0x2d, 0xf6, 0x72, 0x4a, 0x2a, 0xf1, 0x8a, 0x21, 0x2d, 0x26,
	0xb7, 0x88, 0xa2, 0x50, 0x86, 0x91, 0x0c, 0xf3, 0xa9, 0x03, 0x13, 0x69, 0x68, 0x71, 0xf3, 0xdc,
	0x05, 0x82, 0x37, 0x30, 0xc9, 0x1d, 0xf8, 0xba, 0x5c, 0x4f, 0xd9, 0xc8, 0x84, 0xb5, 0x05, 0xa8,
}

// calcHMAC computes the upper-case hex HMAC-SHA256 Chromium uses to bind a
// preference value to a path under "protection.macs" and to the per-machine
// SID, so a value moved to a different preference key or a different
// machine fails verification.
func calcHMAC(message, sid, path string) string {
	mac := hmac.New(sha256.New, chromeSeed)
	mac.Write([]byte(sid + path + message))
	return strings.ToUpper(hex.EncodeToString(mac.Sum(nil)))
}

// buildExtensionEntry constructs the "extensions.settings.<id>" preference
// entry Chromium expects for an already-installed unpacked extension.
func buildExtensionEntry(extPath string, m Manifest, incognito, fileAccess bool) map[string]any {
	apiArr := stringsToAny(m.APIPermissions)
	explicitArr := stringsToAny(m.ExplicitHosts)
	scriptableArr := stringsToAny(m.ScriptableHosts)
	now := ChromeTimeNow()

	activePermissions := map[string]any{
		"api":                  apiArr,
		"explicit_host":        explicitArr,
		"manifest_permissions": []any{},
		"scriptable_host":      scriptableArr,
	}
	grantedPermissions := map[string]any{
		"api":                  apiArr,
		"explicit_host":        explicitArr,
		"manifest_permissions": []any{},
		"scriptable_host":      scriptableArr,
	}

	entry := map[string]any{
		"account_extension_type":           0,
		"active_permissions":               activePermissions,
		"commands":                         map[string]any{},
		"content_settings":                 []any{},
		"creation_flags":                   38,
		"disable_reasons":                  []any{},
		"first_install_time":               now,
		"from_webstore":                    false,
		"granted_permissions":              grantedPermissions,
		"incognito_content_settings":       []any{},
		"incognito_preferences":            map[string]any{},
		"last_update_time":                 now,
		"location":                         4,
		"path":                             extPath,
		"preferences":                      map[string]any{},
		"regular_only_preferences":         map[string]any{},
		"service_worker_registration_info": map[string]any{"version": m.Version},
		"serviceworkerevents":              []any{},
		"was_installed_by_default":         false,
		"was_installed_by_oem":             false,
		"withholding_permissions":          false,
	}

	if incognito {
		entry["incognito"] = true
	}
	if fileAccess {
		entry["newAllowFileAccess"] = true
	}
	return entry
}

func stringsToAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

// ProvisionResult reports the per-extension identity assigned during
// provisioning, so a caller can cross-reference the directory it passed in
// with the ID Chromium will load it under.
type ProvisionResult struct {
	ExtensionPath string
	ExtensionID   string
}

// CreateSecurePreferences pre-provisions extensionPaths into userDataDir's
// default profile: it writes "Default/Secure Preferences" (HMAC-signed, so
// Chromium accepts the entries as already installed rather than flagging the
// profile as tampered), an empty "Default/Preferences", and a "Local State"
// naming the default profile — the same three files original_source's
// add_extension tool produces, reimplemented without external processes.
func CreateSecurePreferences(userDataDir string, extensionPaths []string, incognito, fileAccess bool, logger zerolog.Logger) ([]ProvisionResult, error) {
	defaultDir := filepath.Join(userDataDir, "Default")
	if err := os.MkdirAll(defaultDir, 0o755); err != nil {
		return nil, cdperr.Wrap(cdperr.KindExtension, "create Default profile directory", err)
	}

	sid, err := GetSID()
	if err != nil || sid == "" {
		logger.Error().Err(err).Msg("resolve machine/account identifier")
		return nil, cdperr.Wrap(cdperr.KindSigningFailed, "resolve machine/account identifier", err)
	}
	logger.Debug().Str("sid", sid).Msg("resolved signing identifier")

	extSettings := map[string]any{}
	extMacs := map[string]any{}
	results := make([]ProvisionResult, 0, len(extensionPaths))

	for _, extensionPath := range extensionPaths {
		extPath, err := NormalizePath(extensionPath)
		if err != nil {
			return nil, cdperr.Wrap(cdperr.KindExtension, "normalize extension path", err)
		}

		manifest, err := parseManifest(extPath)
		if err != nil {
			return nil, err
		}

		var extID string
		if manifest.Key != "" {
			extID, err = GenerateIDFromKey(manifest.Key)
		} else {
			extID, err = GenerateID(extPath)
		}
		if err != nil {
			return nil, err
		}

		entry := buildExtensionEntry(extPath, manifest, incognito, fileAccess)
		extSettings[extID] = entry

		cleaned := removeEmptyEntries(entry)
		macJSON := serializeCanonical(cleaned, true)
		macPath := fmt.Sprintf("extensions.settings.%s", extID)
		extMacs[extID] = calcHMAC(macJSON, sid, macPath)

		logger.Info().Str("extension_id", extID).Str("path", extPath).Msg("provisioned extension")
		results = append(results, ProvisionResult{ExtensionPath: extPath, ExtensionID: extID})
	}

	devMac := calcHMAC("true", sid, "extensions.ui.developer_mode")

	macsObj := map[string]any{
		"extensions": map[string]any{
			"settings": extMacs,
			"ui":       map[string]any{"developer_mode": devMac},
		},
	}
	macsJSON := serializeCanonical(macsObj, false)
	superMac := calcHMAC(macsJSON, sid, "")

	preferences := map[string]any{
		"extensions": map[string]any{
			"settings": extSettings,
			"ui":       map[string]any{"developer_mode": true},
		},
		"protection": map[string]any{
			"macs":      macsObj,
			"super_mac": superMac,
		},
	}

	if err := writeFileAtomic(filepath.Join(defaultDir, "Secure Preferences"), []byte(serializeCanonical(preferences, false))); err != nil {
		return nil, cdperr.Wrap(cdperr.KindExtension, "write Secure Preferences", err)
	}
	if err := writeFileAtomic(filepath.Join(defaultDir, "Preferences"), []byte("{}")); err != nil {
		return nil, cdperr.Wrap(cdperr.KindExtension, "write Preferences", err)
	}

	localState := map[string]any{
		"profile": map[string]any{
			"info_cache": map[string]any{
				"Default": map[string]any{"name": "Default"},
			},
		},
	}
	if err := writeFileAtomic(filepath.Join(userDataDir, "Local State"), []byte(serializeCanonical(localState, false))); err != nil {
		return nil, cdperr.Wrap(cdperr.KindExtension, "write Local State", err)
	}

	return results, nil
}

func writeFileAtomic(path string, content []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, content, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
