package cookies

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/rednote/internal/common"
	"github.com/ternarybob/rednote/pkg/models"
)

const (
	// EnvCookiesJSON carries cookies as JSON, either a name->value object or a
	// browser-export array. Takes priority over every other source.
	EnvCookiesJSON = "REDNOTE_COOKIES_JSON"
	// EnvCookies carries cookies as a "name=value; name2=value2" header string.
	EnvCookies = "REDNOTE_COOKIES"

	// defaultDomain is applied to cookies from sources that carry no domain
	// (name->value objects and header strings).
	defaultDomain = ".xiaohongshu.com"
)

// Service loads and persists session cookies. Environment variables override
// the file so containerized deployments can inject credentials without a
// writable volume.
type Service struct {
	filePath string
	logger   arbor.ILogger
}

// NewService creates a cookie store. The file path comes from config; when the
// configured path is empty and a browser profile directory is set, cookies
// live alongside the profile.
func NewService(cfg *common.Config, logger arbor.ILogger) *Service {
	filePath := cfg.Cookies.File
	if filePath == "" && cfg.Browser.UserDataDir != "" {
		filePath = filepath.Join(cfg.Browser.UserDataDir, "cookies.json")
	}

	return &Service{
		filePath: filePath,
		logger:   logger,
	}
}

// FilePath returns the resolved cookie file path.
func (s *Service) FilePath() string {
	return s.filePath
}

// Load returns cookies from the highest-priority available source:
// REDNOTE_COOKIES_JSON, then REDNOTE_COOKIES, then the cookie file. Invalid
// env JSON is an error; an unreadable or corrupt file degrades to absent.
// No source at all yields an empty set without error.
func (s *Service) Load() (models.CookieSet, error) {
	if raw := os.Getenv(EnvCookiesJSON); strings.TrimSpace(raw) != "" {
		cookies, err := ParseJSON([]byte(raw))
		if err != nil {
			// Explicitly injected credentials that do not parse are an
			// operator error; falling through would scrape logged out
			return nil, fmt.Errorf("%s is not valid JSON: %w", EnvCookiesJSON, err)
		}
		s.logger.Debug().Int("count", len(cookies)).Msg("Loaded cookies from environment JSON")
		return cookies, nil
	}

	if raw := os.Getenv(EnvCookies); strings.TrimSpace(raw) != "" {
		cookies := ParseHeaderString(raw)
		if len(cookies) > 0 {
			s.logger.Debug().Int("count", len(cookies)).Msg("Loaded cookies from environment string")
			return cookies, nil
		}
	}

	if s.filePath == "" {
		return models.CookieSet{}, nil
	}

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn().Err(err).Str("file", s.filePath).Msg("Cookie file unreadable, treating as absent")
		}
		return models.CookieSet{}, nil
	}

	cookies, err := ParseJSON(data)
	if err != nil {
		s.logger.Warn().Err(err).Str("file", s.filePath).Msg("Cookie file corrupt, treating as absent")
		return models.CookieSet{}, nil
	}

	s.logger.Debug().Int("count", len(cookies)).Str("file", s.filePath).Msg("Loaded cookies from file")
	return cookies, nil
}

// Save persists cookies to the cookie file. Failures are logged and swallowed:
// a read-only filesystem must not fail the login flow that produced the
// cookies.
func (s *Service) Save(cookies models.CookieSet) {
	if s.filePath == "" {
		s.logger.Debug().Msg("No cookie file configured, skipping persist")
		return
	}

	data, err := json.MarshalIndent(cookies, "", "  ")
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to marshal cookies for persistence")
		return
	}

	if err := os.MkdirAll(filepath.Dir(s.filePath), 0755); err != nil {
		s.logger.Warn().Err(err).Str("file", s.filePath).Msg("Failed to create cookie directory")
		return
	}

	if err := os.WriteFile(s.filePath, data, 0600); err != nil {
		s.logger.Warn().Err(err).Str("file", s.filePath).Msg("Failed to write cookie file")
		return
	}

	s.logger.Info().Int("count", len(cookies)).Str("file", s.filePath).Msg("Persisted cookies")
}

// ParseJSON decodes cookies from either a browser-export array
// ([{"name":...,"value":...}, ...]) or a simple name->value object.
func ParseJSON(data []byte) (models.CookieSet, error) {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return models.CookieSet{}, nil
	}

	if strings.HasPrefix(trimmed, "[") {
		var cookies models.CookieSet
		if err := json.Unmarshal([]byte(trimmed), &cookies); err != nil {
			return nil, fmt.Errorf("invalid cookie array: %w", err)
		}
		return withDefaults(cookies), nil
	}

	var pairs map[string]string
	if err := json.Unmarshal([]byte(trimmed), &pairs); err != nil {
		return nil, fmt.Errorf("invalid cookie object: %w", err)
	}

	// Name-sorted so the same env value always yields the same set order
	names := make([]string, 0, len(pairs))
	for name := range pairs {
		names = append(names, name)
	}
	sort.Strings(names)

	cookies := make(models.CookieSet, 0, len(names))
	for _, name := range names {
		cookies = append(cookies, models.Cookie{
			Name:   name,
			Value:  pairs[name],
			Domain: defaultDomain,
			Path:   "/",
		})
	}
	return cookies, nil
}

// ParseHeaderString decodes a "name=value; name2=value2" cookie header string.
// Malformed fragments are skipped.
func ParseHeaderString(raw string) models.CookieSet {
	cookies := models.CookieSet{}
	for _, part := range strings.Split(raw, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, value, found := strings.Cut(part, "=")
		name = strings.TrimSpace(name)
		if !found || name == "" {
			continue
		}
		cookies = append(cookies, models.Cookie{
			Name:   name,
			Value:  strings.TrimSpace(value),
			Domain: defaultDomain,
			Path:   "/",
		})
	}
	return cookies
}

// withDefaults fills in domain and path on cookies that lack them.
func withDefaults(cookies models.CookieSet) models.CookieSet {
	for i := range cookies {
		if cookies[i].Domain == "" {
			cookies[i].Domain = defaultDomain
		}
		if cookies[i].Path == "" {
			cookies[i].Path = "/"
		}
	}
	return cookies
}
