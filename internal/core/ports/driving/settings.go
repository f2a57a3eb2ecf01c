package driving

import "github.com/vippawar1104/RAG-agent/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current application settings, applying defaults and
	// environment overrides.
	Get() (*domain.AppSettings, error)

	// Set stores a single dot-notation key after validating the result.
	Set(key, value string) error

	// Keys lists every recognised configuration key.
	Keys() []string

	// Validate checks the current settings.
	Validate() error

	// GetDefaults returns default settings.
	GetDefaults() domain.AppSettings
}
