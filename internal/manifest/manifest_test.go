package manifest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validManifest() *Manifest {
	return &Manifest{
		UUID:        "550e8400-e29b-41d4-a716-446655440000",
		ID:          "test-plugin",
		Name:        "Test Plugin",
		Version:     "1.0.0",
		Description: "A test plugin",
		API:         []string{"3.0"},
		Authors:     []string{"Test Author"},
		License:     "GPL-2.0-or-later",
		LicenseURL:  "https://www.gnu.org/licenses/gpl-2.0.html",
	}
}

const validTOML = `
uuid = "550e8400-e29b-41d4-a716-446655440000"
id = "coverart-plus"
name = "Cover Art Plus"
version = "1.2.0"
description = "Extra cover art sources"
api = ["3.0", "3.1"]
authors = ["Alice Example"]
license = "GPL-2.0-or-later"
categories = ["coverart"]
homepage = "https://example.com/coverart-plus"

[i18n.name]
de = "Cover Art Plus (DE)"
pt = "Capas Extra"

[i18n.description]
de = "Zusätzliche Cover-Art-Quellen"
`

func TestParse(t *testing.T) {
	m, err := Parse([]byte(validTOML))
	require.NoError(t, err)
	assert.Equal(t, "coverart-plus", m.ID)
	assert.Equal(t, "Cover Art Plus", m.Name)
	assert.Equal(t, []string{"3.0", "3.1"}, m.API)
	assert.Equal(t, []string{"coverart"}, m.Categories)
	assert.Equal(t, "Capas Extra", m.I18n.Name["pt"])
	require.NoError(t, Validate(m))
}

func TestParseInvalidTOML(t *testing.T) {
	_, err := Parse([]byte("uuid = [unterminated"))
	require.Error(t, err)
	var me *Error
	assert.ErrorAs(t, err, &me)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(validTOML), 0o600))

	m, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "coverart-plus", m.ID)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(t.TempDir())
	require.Error(t, err)
	var me *Error
	require.ErrorAs(t, err, &me)
	assert.Contains(t, me.Issues[0].Message, "no MANIFEST.toml found")
}

func TestValidateValid(t *testing.T) {
	assert.NoError(t, Validate(validManifest()))
}

func TestValidateMissingRequiredFields(t *testing.T) {
	err := Validate(&Manifest{Name: "Test Plugin"})
	require.Error(t, err)

	var me *Error
	require.ErrorAs(t, err, &me)

	fields := make(map[string]bool)
	for _, iss := range me.Issues {
		fields[iss.Field] = true
	}
	for _, want := range []string{"uuid", "id", "version", "description", "api", "authors", "license"} {
		assert.True(t, fields[want], "expected issue for field %q", want)
	}
}

func TestValidateReportsAllViolations(t *testing.T) {
	m := validManifest()
	m.UUID = "not-a-uuid"
	m.Description = strings.Repeat("x", 201)
	m.LongDescription = strings.Repeat("x", 2001)

	err := Validate(m)
	require.Error(t, err)
	var me *Error
	require.ErrorAs(t, err, &me)
	assert.Len(t, me.Issues, 3)
}

func TestValidateInvalidUUID(t *testing.T) {
	m := validManifest()
	m.UUID = "not-a-uuid"
	err := Validate(m)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be a valid UUID v4")

	// v1 UUIDs are rejected too
	m.UUID = "f47ac10b-58cc-1372-8567-0e02b2c3d479"
	assert.Error(t, Validate(m))
}

func TestValidateIdentifier(t *testing.T) {
	for _, bad := range []string{"Has Spaces", "UPPER", "-leading", "über"} {
		m := validManifest()
		m.ID = bad
		assert.Error(t, Validate(m), "id %q should be invalid", bad)
	}
	for _, good := range []string{"a", "coverart-plus", "x_1"} {
		m := validManifest()
		m.ID = good
		assert.NoError(t, Validate(m), "id %q should be valid", good)
	}
}

func TestValidateLengthLimits(t *testing.T) {
	m := validManifest()
	m.Name = strings.Repeat("x", 101)
	err := Validate(m)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name: must be 1-100 characters")

	m = validManifest()
	m.Description = strings.Repeat("x", 201)
	err = Validate(m)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "description: must be 1-200 characters")
}

func TestValidateCategories(t *testing.T) {
	// Unknown categories are accepted for forward compatibility.
	m := validManifest()
	m.Categories = []string{"future_category"}
	assert.NoError(t, Validate(m))

	// Present but empty is an error.
	m.Categories = []string{}
	err := Validate(m)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one category")
}

func TestValidateEmptyAPIEntries(t *testing.T) {
	m := validManifest()
	m.API = []string{"3.0", " "}
	assert.Error(t, Validate(m))
}

func TestLocalizedLookups(t *testing.T) {
	m := validManifest()
	m.I18n = I18n{
		Name:        map[string]string{"de": "Testerweiterung", "pt": "Plugin de Teste"},
		Description: map[string]string{"de": "Ein Test"},
	}

	assert.Equal(t, "Testerweiterung", m.LocalizedName("de"))
	assert.Equal(t, "Plugin de Teste", m.LocalizedName("pt_BR"), "pt_BR falls back to pt")
	assert.Equal(t, "Test Plugin", m.LocalizedName("fr"), "unknown locale falls back to base name")
	assert.Equal(t, "Test Plugin", m.LocalizedName(""))

	assert.Equal(t, "Ein Test", m.LocalizedDescription("de"))
	assert.Equal(t, "A test plugin", m.LocalizedDescription("ja"))
}

func TestLoadAndValidate(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(validTOML), 0o600))

	m, err := LoadAndValidate(dir)
	require.NoError(t, err)
	assert.Equal(t, "coverart-plus", m.ID)

	bad := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(bad, FileName), []byte("id = \"x\"\n"), 0o600))
	_, err = LoadAndValidate(bad)
	assert.Error(t, err)
}
