package common

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SelectorProfile holds the element candidates the login flow probes. The
// target site ships frequent front-end changes, so the candidates can be
// overridden from a YAML file without a rebuild.
type SelectorProfile struct {
	// LoginTriggers are XPath candidates clicked to open the login modal,
	// tried in order until one succeeds.
	LoginTriggers []string `yaml:"login_triggers"`
	// CloseButtons are XPath candidates clicked to dismiss overlay dialogs.
	CloseButtons []string `yaml:"close_buttons"`
	// QRMarkers are substrings whose presence in the page HTML indicates
	// the QR prompt has rendered.
	QRMarkers []string `yaml:"qr_markers"`
}

// DefaultSelectorProfile returns the built-in candidates known to work
// against the current site layout.
func DefaultSelectorProfile() *SelectorProfile {
	return &SelectorProfile{
		LoginTriggers: []string{
			`//button[contains(normalize-space(.), "登录")]`,
			`//a[contains(normalize-space(.), "登录")]`,
			`//div[contains(normalize-space(.), "登录")]`,
		},
		CloseButtons: []string{
			`//button[normalize-space(.)="×"]`,
			`//div[normalize-space(.)="×"]`,
			`//span[normalize-space(.)="×"]`,
			`//button[contains(@aria-label, "关闭")]`,
			`//button[contains(@aria-label, "close")]`,
			`//button[contains(@aria-label, "Close")]`,
			`//div[contains(@aria-label, "关闭")]`,
			`//div[contains(@aria-label, "close")]`,
			`//div[contains(@aria-label, "Close")]`,
			`//button[contains(@class, "close")]`,
			`//button[contains(@class, "Close")]`,
			`//div[contains(@class, "close")]`,
			`//div[contains(@class, "Close")]`,
		},
		QRMarkers: []string{
			"扫码",
			"二维码",
			"qrcode",
			"QR",
		},
	}
}

// LoadSelectorProfile loads a selector profile from a YAML file. Fields left
// empty in the file keep their built-in defaults. An empty path returns the
// defaults unchanged.
func LoadSelectorProfile(path string) (*SelectorProfile, error) {
	profile := DefaultSelectorProfile()
	if path == "" {
		return profile, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read selector profile %s: %w", path, err)
	}

	var overrides SelectorProfile
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("failed to parse selector profile %s: %w", path, err)
	}

	if len(overrides.LoginTriggers) > 0 {
		profile.LoginTriggers = overrides.LoginTriggers
	}
	if len(overrides.CloseButtons) > 0 {
		profile.CloseButtons = overrides.CloseButtons
	}
	if len(overrides.QRMarkers) > 0 {
		profile.QRMarkers = overrides.QRMarkers
	}

	return profile, nil
}
