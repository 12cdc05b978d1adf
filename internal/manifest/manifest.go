// Package manifest reads and validates plugin manifest files.
//
// Every plugin ships a MANIFEST.toml at its repository root describing its
// identity, version and the host API versions it supports. Parsing and
// validation are pure; this package knows nothing about git, trust or
// lifecycle.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml"
)

// FileName is the fixed manifest path inside a plugin's root directory.
const FileName = "MANIFEST.toml"

// Manifest is the immutable descriptor read from a plugin's repository.
type Manifest struct {
	UUID            string   `toml:"uuid"`
	ID              string   `toml:"id"`
	Name            string   `toml:"name"`
	Version         string   `toml:"version"`
	Description     string   `toml:"description"`
	LongDescription string   `toml:"long_description,omitempty"`
	API             []string `toml:"api"`
	Authors         []string `toml:"authors"`
	License         string   `toml:"license"`
	LicenseURL      string   `toml:"license_url,omitempty"`
	Categories      []string `toml:"categories,omitempty"`
	Homepage        string   `toml:"homepage,omitempty"`
	MinHostVersion  string   `toml:"min_host_version,omitempty"`
	I18n            I18n     `toml:"i18n,omitempty"`
}

// I18n holds per-locale translation tables for name and description.
type I18n struct {
	Name        map[string]string `toml:"name,omitempty"`
	Description map[string]string `toml:"description,omitempty"`
}

// Load reads and parses the manifest from a plugin root directory.
// The returned manifest is parsed but not validated; call Validate.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &Error{Issues: []Issue{{Field: FileName, Message: "no " + FileName + " found in " + dir}}}
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return Parse(data)
}

// Parse parses manifest TOML data.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, &Error{Issues: []Issue{{Field: FileName, Message: "invalid TOML: " + err.Error()}}}
	}
	return &m, nil
}

// LocalizedName returns the name for the given locale, falling back to the
// base language ("pt_BR" falls back to "pt") and then to the untranslated name.
func (m *Manifest) LocalizedName(locale string) string {
	if v, ok := lookupLocale(m.I18n.Name, locale); ok {
		return v
	}
	return m.Name
}

// LocalizedDescription returns the description for the given locale with the
// same fallback rules as LocalizedName.
func (m *Manifest) LocalizedDescription(locale string) string {
	if v, ok := lookupLocale(m.I18n.Description, locale); ok {
		return v
	}
	return m.Description
}

func lookupLocale(table map[string]string, locale string) (string, bool) {
	if len(table) == 0 || locale == "" {
		return "", false
	}
	if v, ok := table[locale]; ok {
		return v, true
	}
	// pt_BR -> pt
	for i, r := range locale {
		if r == '_' || r == '-' {
			if v, ok := table[locale[:i]]; ok {
				return v, true
			}
			break
		}
	}
	return "", false
}
