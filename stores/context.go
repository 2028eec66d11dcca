// Package stores resolves which retail store is active for the session.
//
// Store-owner principals are bound to the store on their profile; the
// binding is read-only here. Customers choose a store and the choice
// persists per principal, in its own namespace slot. When no selection
// exists the consumer (UI) must present a store-selection gate - there is
// no default store.
package stores

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/itsneelabh/spendwise/core"
)

type snapshot struct {
	StoreID string `json:"store_id"`
}

// Context is the active-store resolver. Safe for concurrent use.
type Context struct {
	mu     sync.Mutex
	memory core.Memory
	logger core.Logger
	ttl    time.Duration

	namespace string
	ready     bool

	role    core.Role
	owned   bool // store-owner: storeID fixed by profile, never persisted
	storeID string
}

// New creates a store context persisting customer selections through memory.
func New(memory core.Memory) *Context {
	return &Context{
		memory: memory,
		logger: &core.NoOpLogger{},
	}
}

// SetLogger configures the logger
func (c *Context) SetLogger(logger core.Logger) {
	if logger != nil {
		c.logger = logger
	}
}

// SetSnapshotTTL sets the TTL applied to persisted selections.
func (c *Context) SetSnapshotTTL(ttl time.Duration) {
	c.ttl = ttl
}

// Initialize re-resolves the active store for the given identity. For a
// store-owner the store comes straight off the profile; for everyone else
// the persisted per-principal selection is reloaded. Consumers must treat
// the store as unknown until Ready reports true, so a stale selection from
// a previous principal can never leak through.
func (c *Context) Initialize(ctx context.Context, id core.Identity) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.ready = false
	c.role = id.Role
	c.owned = id.IsStoreOwner()
	c.storeID = ""
	c.namespace = core.Namespace(core.SubsystemStore, id)

	if c.owned {
		c.storeID = id.StoreID
		c.ready = true
		c.logger.Debug("Store context bound to owner profile", map[string]interface{}{
			"store_id": c.storeID,
		})
		return nil
	}

	raw, err := c.memory.Get(ctx, c.namespace)
	if err != nil {
		c.logger.Warn("Failed to read store selection", map[string]interface{}{
			"namespace": c.namespace,
			"error":     err,
		})
	} else if raw != "" {
		var snap snapshot
		if err := json.Unmarshal([]byte(raw), &snap); err != nil {
			c.logger.Warn("Discarding corrupt store selection", map[string]interface{}{
				"namespace": c.namespace,
				"error":     err,
			})
		} else {
			c.storeID = snap.StoreID
		}
	}

	c.ready = true

	c.logger.Debug("Store context rehydrated", map[string]interface{}{
		"namespace": c.namespace,
		"store_id":  c.storeID,
	})

	return nil
}

// Ready reports whether the context has been initialized for a principal.
func (c *Context) Ready() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ready
}

// StoreID returns the active store id. ok is false until the context is
// initialized or while no store is selected; a ready context with ok false
// means the selection gate must be shown.
func (c *Context) StoreID() (id string, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.ready || c.storeID == "" {
		return "", false
	}
	return c.storeID, true
}

// SetStoreID persists a customer's store selection. Store-owners cannot
// change their store through this component.
func (c *Context) SetStoreID(ctx context.Context, storeID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.ready {
		return core.NewStateError("stores.SetStoreID", "stores", core.ErrNotInitialized)
	}
	if c.owned {
		return core.NewStateError("stores.SetStoreID", "stores", core.ErrStoreFixedByRole)
	}

	c.storeID = storeID
	c.persistLocked(ctx)

	c.logger.Debug("Store selection updated", map[string]interface{}{
		"namespace": c.namespace,
		"store_id":  storeID,
	})
	return nil
}

// persistLocked writes the selection to the namespace slot, fire-and-forget.
func (c *Context) persistLocked(ctx context.Context) {
	data, err := json.Marshal(snapshot{StoreID: c.storeID})
	if err != nil {
		c.logger.Error("Failed to encode store selection", map[string]interface{}{
			"namespace": c.namespace,
			"error":     err,
		})
		return
	}

	if err := c.memory.Set(ctx, c.namespace, string(data), c.ttl); err != nil {
		c.logger.Warn("Failed to persist store selection", map[string]interface{}{
			"namespace": c.namespace,
			"error":     err,
		})
	}
}
