package archive

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryArchive is a volatile Archive implementation for tests and
// development. Records are copied on write and on read.
type InMemoryArchive struct {
	mu        sync.RWMutex
	lists     map[string][]PastList // keyed by user id
	purchases map[string][]Purchase
}

// NewInMemoryArchive creates an empty in-memory archive
func NewInMemoryArchive() *InMemoryArchive {
	return &InMemoryArchive{
		lists:     make(map[string][]PastList),
		purchases: make(map[string][]Purchase),
	}
}

// SaveList archives a list. Empty lists are skipped.
func (a *InMemoryArchive) SaveList(ctx context.Context, userID, storeID string, items []ListEntry) (string, error) {
	if len(items) == 0 {
		return "", nil
	}

	record := PastList{
		ID:      uuid.New().String(),
		UserID:  userID,
		StoreID: storeID,
		Items:   append([]ListEntry(nil), items...),
		SavedAt: time.Now(),
	}

	a.mu.Lock()
	a.lists[userID] = append(a.lists[userID], record)
	a.mu.Unlock()

	return record.ID, nil
}

// FetchPastLists returns the archived lists newest first
func (a *InMemoryArchive) FetchPastLists(ctx context.Context, userID string) ([]PastList, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	out := append([]PastList(nil), a.lists[userID]...)
	for i := range out {
		out[i].Items = append([]ListEntry(nil), out[i].Items...)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SavedAt.After(out[j].SavedAt)
	})
	return out, nil
}

// SavePurchase records a purchase
func (a *InMemoryArchive) SavePurchase(ctx context.Context, p Purchase) (string, error) {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.PurchasedAt.IsZero() {
		p.PurchasedAt = time.Now()
	}
	p.Items = append([]PurchaseItem(nil), p.Items...)

	a.mu.Lock()
	a.purchases[p.UserID] = append(a.purchases[p.UserID], p)
	a.mu.Unlock()

	return p.ID, nil
}

// FetchPurchases returns the purchase history newest first
func (a *InMemoryArchive) FetchPurchases(ctx context.Context, userID string) ([]Purchase, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	out := append([]Purchase(nil), a.purchases[userID]...)
	for i := range out {
		out[i].Items = append([]PurchaseItem(nil), out[i].Items...)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PurchasedAt.After(out[j].PurchasedAt)
	})
	return out, nil
}
