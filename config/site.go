package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// SiteProfile describes the target site and the browser-like fingerprint the
// HTTP client presents to it. The cookie blob is opaque to the crawler; it is
// captured from a real browser session and supplied through this file.
type SiteProfile struct {
	BaseURL    string            `yaml:"base_url"`
	SuggestURL string            `yaml:"suggest_url"`
	UserAgent  string            `yaml:"user_agent"`
	Cookie     string            `yaml:"cookie"`
	Headers    map[string]string `yaml:"headers"`
}

// DefaultSiteProfile returns the built-in idealista.com profile.
func DefaultSiteProfile() *SiteProfile {
	return &SiteProfile{
		BaseURL:    "https://www.idealista.com",
		SuggestURL: "https://www.idealista.com/ajax/suggest/?prefix=",
		UserAgent: "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 " +
			"(KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
		Headers: map[string]string{
			"DNT":                       "1",
			"Upgrade-Insecure-Requests": "1",
			"sec-ch-ua":                 `"Chromium";v="131", "Not_A Brand";v="24"`,
			"sec-ch-ua-mobile":          "?0",
			"sec-ch-ua-platform":        `"macOS"`,
		},
	}
}

// LoadSiteProfile reads a YAML site profile from path. An empty path yields
// the default profile; fields missing from the file keep their defaults.
func LoadSiteProfile(path string) (*SiteProfile, error) {
	profile := DefaultSiteProfile()
	if path == "" {
		return profile, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read site profile %q: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, profile); err != nil {
		return nil, fmt.Errorf("config: parse site profile %q: %w", path, err)
	}
	return profile, nil
}
