// internal/services/admin_registry_test.go
package services

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	adminA = "0x00000000000000000000000000000000000000aA"
	adminB = "0x00000000000000000000000000000000000000Bb"
)

func writeAdminFile(t *testing.T, path string, admins ...string) {
	t.Helper()
	content := "admins:\n"
	for _, a := range admins {
		content += "  - \"" + a + "\"\n"
	}
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestAdminRegistryStatic(t *testing.T) {
	registry, err := NewAdminRegistry([]string{adminA, " "}, "", testLogger())
	require.NoError(t, err)

	assert.True(t, registry.IsAdmin(adminA))
	assert.True(t, registry.IsAdmin(strings.ToLower(adminA)))
	assert.True(t, registry.IsAdmin("0x00000000000000000000000000000000000000AA"))
	assert.False(t, registry.IsAdmin(adminB))
	assert.False(t, registry.IsAdmin(""))
	assert.Len(t, registry.Addresses(), 1)
}

func TestAdminRegistryRejectsInvalidAddress(t *testing.T) {
	_, err := NewAdminRegistry([]string{"0x1234"}, "", testLogger())
	assert.Error(t, err)
}

func TestAdminRegistryFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "admins.yaml")
	writeAdminFile(t, path, adminB)

	registry, err := NewAdminRegistry([]string{adminA}, path, testLogger())
	require.NoError(t, err)
	assert.True(t, registry.IsAdmin(adminA))
	assert.True(t, registry.IsAdmin(adminB))

	writeAdminFile(t, path)
	require.NoError(t, registry.Reload())
	assert.True(t, registry.IsAdmin(adminA))
	assert.False(t, registry.IsAdmin(adminB))
}

func TestAdminRegistryKeepsPreviousSetOnBadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "admins.yaml")
	writeAdminFile(t, path, adminB)

	registry, err := NewAdminRegistry(nil, path, testLogger())
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("admins: [unterminated"), 0o644))
	assert.Error(t, registry.Reload())
	assert.True(t, registry.IsAdmin(adminB))
}

func TestAdminRegistryMissingFile(t *testing.T) {
	_, err := NewAdminRegistry(nil, filepath.Join(t.TempDir(), "missing.yaml"), testLogger())
	assert.Error(t, err)
}

func TestAdminRegistryReloadIfChanged(t *testing.T) {
	path := filepath.Join(t.TempDir(), "admins.yaml")
	writeAdminFile(t, path, adminA)

	registry, err := NewAdminRegistry(nil, path, testLogger())
	require.NoError(t, err)

	writeAdminFile(t, path, adminB)
	later := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(path, later, later))

	registry.reloadIfChanged()
	assert.False(t, registry.IsAdmin(adminA))
	assert.True(t, registry.IsAdmin(adminB))
}
