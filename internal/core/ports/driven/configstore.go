package driven

// ConfigStore provides access to persisted configuration.
// Keys are flattened with dots, e.g. "retrieval.top_k".
type ConfigStore interface {
	// Get retrieves a configuration value by key.
	// Returns the value and a boolean indicating if the key exists.
	Get(key string) (any, bool)

	// GetString returns the value as a string, or "" if absent.
	GetString(key string) string

	// GetInt returns the value as an int, or 0 if absent.
	GetInt(key string) int

	// GetFloat returns the value as a float64, or 0 if absent.
	GetFloat(key string) float64

	// GetBool returns the value as a bool, or false if absent.
	GetBool(key string) bool

	// GetStringSlice returns the value as a string slice, or nil if absent.
	GetStringSlice(key string) []string

	// Set stores a value and persists it immediately.
	Set(key string, value any) error

	// Keys returns every stored key in sorted order.
	Keys() []string

	// Save persists the current configuration to storage.
	Save() error

	// Load reads configuration from storage.
	Load() error

	// Path returns the configuration file path.
	Path() string
}
