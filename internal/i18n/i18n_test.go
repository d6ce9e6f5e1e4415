// internal/i18n/i18n_test.go
package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedCatalogs(t *testing.T) {
	require.NoError(t, Initialize("en"))

	assert.Equal(t, []string{"en", "zh_TW"}, GetSupportedLanguages())
	assert.Equal(t, "License not found", T("en", KeyLicenseNotFound))
	assert.Equal(t, "找不到執照", T("zh_TW", KeyLicenseNotFound))
	assert.Equal(t, "License 4 expires in 12 days", T("en", KeyLicenseRenewalDue, 4, 12))
}

func TestFallbackToDefaultLanguage(t *testing.T) {
	catalog := New("en")
	require.NoError(t, catalog.LoadTranslations(localesFS, "locales"))

	assert.Equal(t, "Admin access required", catalog.T("fr", KeyAdminAccessDenied))
	assert.Equal(t, "missing.key", catalog.T("zh_TW", "missing.key"))
	assert.True(t, catalog.Supports("zh_TW"))
	assert.False(t, catalog.Supports("fr"))
}

func TestEveryKeyIsTranslated(t *testing.T) {
	catalog := New("en")
	require.NoError(t, catalog.LoadTranslations(localesFS, "locales"))

	for key := range catalog.translations["en"] {
		_, ok := catalog.translations["zh_TW"][key]
		assert.True(t, ok, "zh_TW is missing %s", key)
	}
}
