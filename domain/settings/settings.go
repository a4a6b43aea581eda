// Package settings provides value types for site-wide settings.
// Settings are stored in the database as key/value pairs and loaded at runtime.
package settings

import (
	"strings"
	"time"
)

// Setting represents a single stored setting (immutable value type).
type Setting struct {
	Key       string
	Value     string
	UpdatedAt time.Time
}

// Settings is a collection of settings with helper methods.
type Settings map[string]string

// Get returns a setting value or empty string if not found.
func (s Settings) Get(key string) string {
	return s[key]
}

// GetOrDefault returns a setting value or the default if not found.
func (s Settings) GetOrDefault(key, defaultValue string) string {
	if v, ok := s[key]; ok && v != "" {
		return v
	}
	return defaultValue
}

// GetBool returns a setting as bool (true if "true", "1", "yes", "on").
func (s Settings) GetBool(key string) bool {
	v := strings.ToLower(s[key])
	return v == "true" || v == "1" || v == "yes" || v == "on"
}

// Known setting keys (namespaced by category).
const (
	KeySiteURL      = "site.url"
	KeySiteName     = "site.name"
	KeySiteLanguage = "site.language"
	KeyHomeRecordID = "site.home_record_id"

	KeyDefaultMetaDescription = "seo.default_meta_description"
)

// Defaults returns default values for settings.
func Defaults() Settings {
	return Settings{
		KeySiteURL:      "http://localhost:8080",
		KeySiteName:     "contentgate",
		KeySiteLanguage: "en",
	}
}

// Merge merges defaults with loaded settings, preferring loaded values.
func Merge(loaded Settings) Settings {
	result := Defaults()
	for k, v := range loaded {
		result[k] = v
	}
	return result
}

// Site is the resolved view of site-wide settings handed to templates.
type Site struct {
	URL                    string
	Name                   string
	Language               string
	HomeRecordID           string
	DefaultMetaDescription string
	Values                 map[string]string // every setting, including the ones above
}

// Site projects the settings onto the Site view.
func (s Settings) Site() Site {
	values := make(map[string]string, len(s))
	for k, v := range s {
		values[k] = v
	}
	return Site{
		URL:                    strings.TrimSuffix(s.Get(KeySiteURL), "/"),
		Name:                   s.Get(KeySiteName),
		Language:               s.Get(KeySiteLanguage),
		HomeRecordID:           strings.TrimSpace(s.Get(KeyHomeRecordID)),
		DefaultMetaDescription: s.Get(KeyDefaultMetaDescription),
		Values:                 values,
	}
}
