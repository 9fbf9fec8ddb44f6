package extension

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"

	"github.com/corvidlabs/cdpgo/cdperr"
)

// Manifest is the subset of an extension's manifest.json this package reads
// to build its preference entry and derive its ID.
type Manifest struct {
	Key     string
	Version string

	ScriptableHosts []string
	APIPermissions  []string
	ExplicitHosts   []string
}

func parseManifest(extensionDir string) (Manifest, error) {
	raw, err := os.ReadFile(filepath.Join(extensionDir, "manifest.json"))
	if err != nil {
		return Manifest{}, cdperr.Wrap(cdperr.KindExtension, "read manifest.json", err)
	}

	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Manifest{}, cdperr.Wrap(cdperr.KindExtension, "parse manifest.json", err)
	}

	m := Manifest{Version: "1.0"}
	if key, ok := doc["key"].(string); ok {
		m.Key = key
	}
	if version, ok := doc["version"].(string); ok && version != "" {
		m.Version = version
	}

	m.ScriptableHosts = extractScriptableHosts(doc)
	m.APIPermissions = extractStringSet(doc, "permissions")
	m.ExplicitHosts = extractStringSet(doc, "host_permissions")

	return m, nil
}

func extractScriptableHosts(doc map[string]any) []string {
	set := map[string]struct{}{}
	scripts, _ := doc["content_scripts"].([]any)
	for _, entry := range scripts {
		obj, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		matches, _ := obj["matches"].([]any)
		for _, match := range matches {
			if s, ok := match.(string); ok {
				set[s] = struct{}{}
			}
		}
	}
	return sortedKeys(set)
}

func extractStringSet(doc map[string]any, field string) []string {
	set := map[string]struct{}{}
	items, _ := doc[field].([]any)
	for _, item := range items {
		if s, ok := item.(string); ok {
			set[s] = struct{}{}
		}
	}
	return sortedKeys(set)
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
