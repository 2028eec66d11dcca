package core

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/cockroachdb/pebble"
)

// PebbleStore is a durable local-disk implementation of the Memory
// interface, backed by PebbleDB. It is the single-device persistence slot:
// one snapshot per namespace key, surviving restarts. TTLs are not
// enforced (snapshots have no natural expiry on a personal device).
type PebbleStore struct {
	db     *pebble.DB
	logger Logger
}

// NewPebbleStore opens (or creates) a pebble database under dir.
func NewPebbleStore(dir string, logger Logger) (*PebbleStore, error) {
	if logger == nil {
		logger = &NoOpLogger{}
	}
	if dir == "" {
		return nil, fmt.Errorf("pebble path is required: %w", ErrInvalidConfiguration)
	}

	db, err := pebble.Open(filepath.Clean(dir), &pebble.Options{})
	if err != nil {
		logger.Error("Failed to open pebble store", map[string]interface{}{
			"error": err,
			"path":  dir,
		})
		return nil, fmt.Errorf("pebble open: %w", err)
	}

	logger.Info("Pebble store opened", map[string]interface{}{
		"path": dir,
	})

	return &PebbleStore{db: db, logger: logger}, nil
}

// Get retrieves a value. An absent key yields "" with no error.
func (p *PebbleStore) Get(ctx context.Context, key string) (string, error) {
	value, closer, err := p.db.Get([]byte(key))
	if err == pebble.ErrNotFound {
		p.logger.Debug("Memory lookup", map[string]interface{}{
			"operation": "memory_get",
			"key":       key,
			"result":    "miss",
		})
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("pebble get %s: %w", key, err)
	}
	out := string(value)
	if err := closer.Close(); err != nil {
		return "", fmt.Errorf("pebble get %s: %w", key, err)
	}
	return out, nil
}

// Set stores a value. The ttl parameter is accepted for interface
// compatibility and ignored; local snapshots do not expire.
func (p *PebbleStore) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	if err := p.db.Set([]byte(key), []byte(value), pebble.Sync); err != nil {
		return fmt.Errorf("pebble set %s: %w", key, err)
	}
	return nil
}

// Delete removes a value
func (p *PebbleStore) Delete(ctx context.Context, key string) error {
	if err := p.db.Delete([]byte(key), pebble.Sync); err != nil {
		return fmt.Errorf("pebble delete %s: %w", key, err)
	}
	return nil
}

// Exists checks whether a value is stored under key
func (p *PebbleStore) Exists(ctx context.Context, key string) (bool, error) {
	_, closer, err := p.db.Get([]byte(key))
	if err == pebble.ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("pebble exists %s: %w", key, err)
	}
	if err := closer.Close(); err != nil {
		return false, fmt.Errorf("pebble exists %s: %w", key, err)
	}
	return true, nil
}

// Close closes the underlying database
func (p *PebbleStore) Close() error {
	return p.db.Close()
}
