package driving

import (
	"context"

	"github.com/custodia-labs/notebook-cli/internal/core/domain"
)

// SettingsService resolves and persists application settings.
// Resolution order is defaults, then the config file, then the environment.
type SettingsService interface {
	// Get returns the resolved settings.
	Get() (*domain.Settings, error)

	// Set validates and persists a single setting in the config file.
	Set(key, value string) error

	// Keys describes every supported setting.
	Keys() []SettingKey

	// GetDefaults returns default settings.
	GetDefaults() domain.Settings

	// ValidateEmbeddingConfig pings the configured embedding provider.
	ValidateEmbeddingConfig(ctx context.Context) error

	// ValidateLLMConfig pings the configured LLM provider.
	ValidateLLMConfig(ctx context.Context) error
}

// SettingKey describes one configurable setting.
type SettingKey struct {
	// Key is the dotted config file key.
	Key string

	// Env lists environment variables that override the key, highest priority first.
	Env []string

	// Description is a short human-readable explanation.
	Description string

	// Secret marks values that must be masked when displayed.
	Secret bool
}
