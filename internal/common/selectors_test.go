package common

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSelectorProfile(t *testing.T) {
	profile := DefaultSelectorProfile()

	require.NotEmpty(t, profile.LoginTriggers)
	require.NotEmpty(t, profile.CloseButtons)
	require.NotEmpty(t, profile.QRMarkers)

	assert.Contains(t, profile.LoginTriggers[0], "登录")
	assert.Contains(t, profile.QRMarkers, "二维码")
}

func TestLoadSelectorProfile_EmptyPath(t *testing.T) {
	profile, err := LoadSelectorProfile("")
	require.NoError(t, err)
	assert.Equal(t, DefaultSelectorProfile(), profile)
}

func TestLoadSelectorProfile_PartialOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "selectors.yaml")
	content := []byte("login_triggers:\n  - '//button[@id=\"signin\"]'\n")
	require.NoError(t, os.WriteFile(path, content, 0644))

	profile, err := LoadSelectorProfile(path)
	require.NoError(t, err)

	// Overridden section replaced, others keep defaults
	assert.Equal(t, []string{`//button[@id="signin"]`}, profile.LoginTriggers)
	assert.Equal(t, DefaultSelectorProfile().CloseButtons, profile.CloseButtons)
	assert.Equal(t, DefaultSelectorProfile().QRMarkers, profile.QRMarkers)
}

func TestLoadSelectorProfile_MissingFile(t *testing.T) {
	_, err := LoadSelectorProfile("/nonexistent/selectors.yaml")
	require.Error(t, err)
}

func TestLoadSelectorProfile_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "selectors.yaml")
	require.NoError(t, os.WriteFile(path, []byte("login_triggers: [unclosed"), 0644))

	_, err := LoadSelectorProfile(path)
	require.Error(t, err)
}
