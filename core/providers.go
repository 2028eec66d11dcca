package core

import "fmt"

// NewMemory constructs the Memory provider selected by cfg.
// Unknown providers are a configuration error, not a silent fallback.
func NewMemory(cfg MemoryConfig, logger Logger) (Memory, error) {
	if logger == nil {
		logger = &NoOpLogger{}
	}

	switch cfg.Provider {
	case "", "inmemory":
		store := NewMemoryStore()
		store.SetLogger(logger)
		return store, nil
	case "pebble":
		return NewPebbleStore(cfg.PebblePath, logger)
	case "redis":
		return NewRedisStore(RedisStoreOptions{
			RedisURL: cfg.RedisURL,
			Logger:   logger,
		})
	default:
		return nil, fmt.Errorf("unknown memory provider %q: %w", cfg.Provider, ErrInvalidConfiguration)
	}
}
