package memory

import (
	"maps"
	"slices"
	"sync"

	"github.com/custodia-labs/vectorlite-cli/internal/adapters/driven/config/coerce"
	"github.com/custodia-labs/vectorlite-cli/internal/core/ports/driven"
)

var _ driven.ConfigStore = (*ConfigStore)(nil)

// ConfigStore keeps settings in a map. Save and Load do nothing, so it
// suits tests and the memory storage driver.
type ConfigStore struct {
	mu     sync.RWMutex
	values map[string]any
}

// NewConfigStore returns a store holding the merged seeds; later seeds win.
func NewConfigStore(seeds ...map[string]any) *ConfigStore {
	values := make(map[string]any)
	for _, seed := range seeds {
		maps.Copy(values, seed)
	}
	return &ConfigStore{values: values}
}

func (s *ConfigStore) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

func (s *ConfigStore) GetString(key string) string        { return coerce.String(s.Get(key)) }
func (s *ConfigStore) GetInt(key string) int              { return coerce.Int(s.Get(key)) }
func (s *ConfigStore) GetFloat(key string) float64        { return coerce.Float(s.Get(key)) }
func (s *ConfigStore) GetBool(key string) bool            { return coerce.Bool(s.Get(key)) }
func (s *ConfigStore) GetStringSlice(key string) []string { return coerce.StringSlice(s.Get(key)) }

func (s *ConfigStore) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

// Keys returns the stored keys, sorted.
func (s *ConfigStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Sorted(maps.Keys(s.values))
}

func (s *ConfigStore) Save() error  { return nil }
func (s *ConfigStore) Load() error  { return nil }
func (s *ConfigStore) Path() string { return ":memory:" }
