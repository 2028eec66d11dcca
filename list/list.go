// Package list implements the shopping list state machine: today's working
// list plus read access to the archived lists of past shopping sessions.
//
// The working list is ordered (items are displayed numbered) and persists
// per principal through the same namespaced Memory slots as the cart.
// Past lists live in the remote archive and are immutable; fetching them
// only caches the result locally and never mutates the working list.
package list

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/itsneelabh/spendwise/archive"
	"github.com/itsneelabh/spendwise/core"
)

// Item is one entry of today's list. IDs are derived from the name, the
// creation timestamp and the position, which keeps them unique within a
// list without a central id allocator.
type Item struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Checked bool   `json:"checked"`
}

type snapshot struct {
	Items []Item `json:"items"`
}

// List is the state machine. Safe for concurrent use.
type List struct {
	mu        sync.Mutex
	memory    core.Memory
	archive   archive.Archive
	logger    core.Logger
	telemetry core.Telemetry
	ttl       time.Duration

	namespace   string
	principalID string
	ready       bool

	items     []Item
	pastLists []archive.PastList
}

// New creates a list persisting through memory, with past lists served
// from store. A nil store disables FetchPastLists.
func New(memory core.Memory, store archive.Archive) *List {
	return &List{
		memory:    memory,
		archive:   store,
		logger:    &core.NoOpLogger{},
		telemetry: &core.NoOpTelemetry{},
	}
}

// SetLogger configures the logger
func (l *List) SetLogger(logger core.Logger) {
	if logger != nil {
		l.logger = logger
	}
}

// SetTelemetry configures the telemetry provider
func (l *List) SetTelemetry(telemetry core.Telemetry) {
	if telemetry != nil {
		l.telemetry = telemetry
	}
}

// SetSnapshotTTL sets the TTL applied to persisted snapshots.
func (l *List) SetSnapshotTTL(ttl time.Duration) {
	l.ttl = ttl
}

// Initialize rehydrates the working list for the given identity. See the
// cart's Initialize for the namespace-switch contract; the list follows it
// exactly. The past-list cache is dropped too: it belongs to the previous
// principal.
func (l *List) Initialize(ctx context.Context, id core.Identity) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.ready = false
	l.namespace = core.Namespace(core.SubsystemList, id)
	l.principalID = id.PrincipalID()
	l.items = nil
	l.pastLists = nil

	raw, err := l.memory.Get(ctx, l.namespace)
	if err != nil {
		l.logger.Warn("Failed to read list snapshot", map[string]interface{}{
			"namespace": l.namespace,
			"error":     err,
		})
	} else if raw != "" {
		var snap snapshot
		if err := json.Unmarshal([]byte(raw), &snap); err != nil {
			l.logger.Warn("Discarding corrupt list snapshot", map[string]interface{}{
				"namespace": l.namespace,
				"error":     err,
			})
		} else {
			l.items = snap.Items
		}
	}

	l.ready = true

	l.logger.Debug("List rehydrated", map[string]interface{}{
		"namespace": l.namespace,
		"items":     len(l.items),
	})

	return nil
}

// Ready reports whether the list has been initialized for a principal.
func (l *List) Ready() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ready
}

// ReplaceAll replaces the whole list with fresh unchecked items, one per
// name. Used after bulk import (OCR extraction or reusing a past list).
func (l *List) ReplaceAll(ctx context.Context, names []string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.ready {
		return core.NewStateError("list.ReplaceAll", "list", core.ErrNotInitialized)
	}

	now := time.Now().UnixMilli()
	items := make([]Item, 0, len(names))
	for i, name := range names {
		items = append(items, Item{
			ID:   itemID(name, now, i),
			Name: name,
		})
	}
	l.items = items

	l.persistLocked(ctx)
	l.telemetry.RecordMetric("list.replaced", 1, nil)
	return nil
}

// AddItem appends a fresh unchecked item.
func (l *List) AddItem(ctx context.Context, name string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.ready {
		return core.NewStateError("list.AddItem", "list", core.ErrNotInitialized)
	}

	l.items = append(l.items, Item{
		ID:   itemID(name, time.Now().UnixMilli(), len(l.items)),
		Name: name,
	})

	l.persistLocked(ctx)
	l.telemetry.RecordMetric("list.add", 1, nil)
	return nil
}

// ToggleChecked flips the checked state of the item with the given id.
func (l *List) ToggleChecked(ctx context.Context, itemID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.ready {
		return core.NewStateError("list.ToggleChecked", "list", core.ErrNotInitialized)
	}

	for i := range l.items {
		if l.items[i].ID == itemID {
			l.items[i].Checked = !l.items[i].Checked
			break
		}
	}

	l.persistLocked(ctx)
	return nil
}

// DeleteItem removes the item with the given id.
func (l *List) DeleteItem(ctx context.Context, itemID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.ready {
		return core.NewStateError("list.DeleteItem", "list", core.ErrNotInitialized)
	}

	for i := range l.items {
		if l.items[i].ID == itemID {
			l.items = append(l.items[:i], l.items[i+1:]...)
			break
		}
	}

	l.persistLocked(ctx)
	return nil
}

// RenameItem updates the item's name, keeping its id and checked state.
func (l *List) RenameItem(ctx context.Context, itemID, newName string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.ready {
		return core.NewStateError("list.RenameItem", "list", core.ErrNotInitialized)
	}

	for i := range l.items {
		if l.items[i].ID == itemID {
			l.items[i].Name = newName
			break
		}
	}

	l.persistLocked(ctx)
	return nil
}

// SyncWithCart marks unchecked items whose names case-insensitively match
// a name in the cart as checked. The sync is one-directional and monotone:
// it never un-checks, adds, or removes items.
func (l *List) SyncWithCart(ctx context.Context, cartItemNames []string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.ready {
		return core.NewStateError("list.SyncWithCart", "list", core.ErrNotInitialized)
	}

	changed := false
	for i := range l.items {
		if l.items[i].Checked {
			continue
		}
		for _, name := range cartItemNames {
			if strings.EqualFold(l.items[i].Name, name) {
				l.items[i].Checked = true
				changed = true
				break
			}
		}
	}

	if changed {
		l.persistLocked(ctx)
		l.telemetry.RecordMetric("list.synced_with_cart", 1, nil)
	}
	return nil
}

// ClearAll empties the working list. The external checkout flow calls this
// as its last step after archiving the list.
func (l *List) ClearAll(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.ready {
		return core.NewStateError("list.ClearAll", "list", core.ErrNotInitialized)
	}

	l.items = nil
	l.persistLocked(ctx)
	l.telemetry.RecordMetric("list.cleared", 1, nil)
	return nil
}

// Items returns a copy of today's list in insertion order.
func (l *List) Items() []Item {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Item, len(l.items))
	copy(out, l.items)
	return out
}

// FetchPastLists retrieves the principal's archived lists from the remote
// store, newest first, and caches the result. On failure the cache and the
// working list are left unchanged and the error is returned for the caller
// to present.
func (l *List) FetchPastLists(ctx context.Context) ([]archive.PastList, error) {
	l.mu.Lock()
	if !l.ready {
		l.mu.Unlock()
		return nil, core.NewStateError("list.FetchPastLists", "list", core.ErrNotInitialized)
	}
	store := l.archive
	principalID := l.principalID
	l.mu.Unlock()

	if store == nil {
		return nil, core.NewStateError("list.FetchPastLists", "list", core.ErrArchiveUnavailable)
	}

	lists, err := store.FetchPastLists(ctx, principalID)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	l.pastLists = lists
	l.mu.Unlock()

	return lists, nil
}

// CachedPastLists returns the most recently fetched past lists without
// touching the remote store.
func (l *List) CachedPastLists() []archive.PastList {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]archive.PastList, len(l.pastLists))
	copy(out, l.pastLists)
	return out
}

// itemID derives a unique id from the name, creation time, and position.
func itemID(name string, unixMilli int64, index int) string {
	slug := strings.Join(strings.Fields(name), "-")
	return fmt.Sprintf("%s-%d-%d", slug, unixMilli, index)
}

// persistLocked writes the snapshot to the namespace slot, fire-and-forget.
func (l *List) persistLocked(ctx context.Context) {
	data, err := json.Marshal(snapshot{Items: l.items})
	if err != nil {
		l.logger.Error("Failed to encode list snapshot", map[string]interface{}{
			"namespace": l.namespace,
			"error":     err,
		})
		return
	}

	if err := l.memory.Set(ctx, l.namespace, string(data), l.ttl); err != nil {
		l.logger.Warn("Failed to persist list snapshot", map[string]interface{}{
			"namespace": l.namespace,
			"error":     err,
		})
	}
}
