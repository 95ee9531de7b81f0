package driven

// ConfigStore is a flat key/value view of the settings file. Keys are
// dotted paths such as "embedding.provider" or "queue.batch_size".
//
// The typed getters return the zero value when a key is missing or holds
// something that cannot be converted.
type ConfigStore interface {
	Get(key string) (any, bool)
	GetString(key string) string
	GetInt(key string) int
	GetFloat(key string) float64
	GetBool(key string) bool
	GetStringSlice(key string) []string

	// Set stores value. File-backed stores persist it before returning.
	Set(key string, value any) error

	Load() error
	Save() error

	// Path locates the backing file, or ":memory:".
	Path() string
}
