package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultConfig(t *testing.T) {
	config := NewDefaultConfig()

	assert.Equal(t, "development", config.Environment)
	assert.Equal(t, 8080, config.Server.Port)
	assert.True(t, config.Browser.Headless)
	assert.Equal(t, "zh-CN", config.Browser.Lang)
	assert.Equal(t, 8*time.Second, config.Extractor.RuntimeBudget)
	assert.Equal(t, 500*time.Millisecond, config.Extractor.RuntimeStep)
	assert.Equal(t, 8, config.Login.CookieThreshold)
	assert.Equal(t, "https://www.xiaohongshu.com/explore", config.Login.DefaultURL)
	assert.Equal(t, 30*time.Minute, config.Login.MaxSessionAge)

	require.NoError(t, config.Validate())
}

func TestLoadFromFile_MergesOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rednote.toml")
	content := []byte(`
environment = "production"

[server]
port = 9090

[login]
cookie_threshold = 12
`)
	require.NoError(t, os.WriteFile(path, content, 0644))

	config, err := LoadFromFile(path)
	require.NoError(t, err)

	// Overridden values
	assert.Equal(t, "production", config.Environment)
	assert.Equal(t, 9090, config.Server.Port)
	assert.Equal(t, 12, config.Login.CookieThreshold)

	// Untouched defaults survive the merge
	assert.Equal(t, "localhost", config.Server.Host)
	assert.Equal(t, 8*time.Second, config.Extractor.RuntimeBudget)
}

func TestLoadFromFile_MissingFile(t *testing.T) {
	_, err := LoadFromFile("/nonexistent/rednote.toml")
	require.Error(t, err)
}

func TestLoadFromFile_EmptyPathUsesDefaults(t *testing.T) {
	config, err := LoadFromFile("")
	require.NoError(t, err)
	assert.Equal(t, 8080, config.Server.Port)
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("REDNOTE_SERVER_PORT", "7070")
	t.Setenv("REDNOTE_BROWSER_HEADLESS", "false")
	t.Setenv("REDNOTE_LOGIN_COOKIE_THRESHOLD", "5")
	t.Setenv("REDNOTE_CACHE_TTL", "30m")
	t.Setenv("REDNOTE_LOG_OUTPUT", "stdout, file")

	config := NewDefaultConfig()
	applyEnvOverrides(config)

	assert.Equal(t, 7070, config.Server.Port)
	assert.False(t, config.Browser.Headless)
	assert.Equal(t, 5, config.Login.CookieThreshold)
	assert.Equal(t, 30*time.Minute, config.Cache.TTL)
	assert.Equal(t, []string{"stdout", "file"}, config.Logging.Output)
}

func TestApplyEnvOverrides_InvalidValuesIgnored(t *testing.T) {
	t.Setenv("REDNOTE_SERVER_PORT", "not-a-number")
	t.Setenv("REDNOTE_CACHE_TTL", "not-a-duration")

	config := NewDefaultConfig()
	applyEnvOverrides(config)

	assert.Equal(t, 8080, config.Server.Port)
	assert.Equal(t, 1*time.Hour, config.Cache.TTL)
}

func TestApplyFlagOverrides(t *testing.T) {
	config := NewDefaultConfig()

	ApplyFlagOverrides(config, 9999, "0.0.0.0")
	assert.Equal(t, 9999, config.Server.Port)
	assert.Equal(t, "0.0.0.0", config.Server.Host)

	// Zero values leave the loaded config untouched
	ApplyFlagOverrides(config, 0, "")
	assert.Equal(t, 9999, config.Server.Port)
	assert.Equal(t, "0.0.0.0", config.Server.Host)
}

func TestIsProduction(t *testing.T) {
	config := NewDefaultConfig()
	assert.False(t, config.IsProduction())

	config.Environment = "production"
	assert.True(t, config.IsProduction())

	config.Environment = " PROD "
	assert.True(t, config.IsProduction())
}

func TestValidate_RejectsBadValues(t *testing.T) {
	config := NewDefaultConfig()
	config.Server.Port = 0
	require.Error(t, config.Validate())

	config = NewDefaultConfig()
	config.Logging.Level = "loud"
	require.Error(t, config.Validate())

	config = NewDefaultConfig()
	config.Storage.Badger.Path = ""
	require.Error(t, config.Validate())
}
