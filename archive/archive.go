// Package archive holds the adapters for the remote archive store: the
// immutable records written at checkout (past shopping lists and purchase
// history) and the read paths the history views consume.
//
// The archive is an external collaborator from the state machines' point of
// view: calls are plain request/response with no retry policy here, and a
// failed fetch leaves local state untouched. Records are immutable once
// written and are always returned newest-first.
package archive

import (
	"context"
	"time"

	"github.com/itsneelabh/spendwise/core"
)

// ListEntry is one item of an archived shopping list.
type ListEntry struct {
	Name    string `json:"name"`
	Checked bool   `json:"checked"`
}

// PastList is an archival copy of a shopping list, written at checkout.
type PastList struct {
	ID      string      `json:"id"`
	UserID  string      `json:"user_id"`
	StoreID string      `json:"store_id"`
	Items   []ListEntry `json:"items"`
	SavedAt time.Time   `json:"saved_at"`
}

// PurchaseItem is one line of a recorded purchase.
type PurchaseItem struct {
	ProductID string     `json:"product_id"`
	Name      string     `json:"name"`
	Price     core.Cents `json:"price"`
	Quantity  int        `json:"quantity"`
	Brand     string     `json:"brand"`
	Category  string     `json:"category"`
}

// Purchase is an immutable purchase-history record written at checkout.
type Purchase struct {
	ID          string         `json:"id"`
	UserID      string         `json:"user_id"`
	StoreID     string         `json:"store_id"`
	Items       []PurchaseItem `json:"items"`
	Total       core.Cents     `json:"total"`
	PurchasedAt time.Time      `json:"purchased_at"`
}

// Archive is the boundary to the remote document store.
type Archive interface {
	// SaveList archives a shopping list for the principal and returns the
	// record id. Empty lists are skipped and return "" with no error.
	SaveList(ctx context.Context, userID, storeID string, items []ListEntry) (string, error)

	// FetchPastLists returns the principal's archived lists, newest first.
	FetchPastLists(ctx context.Context, userID string) ([]PastList, error)

	// SavePurchase records a completed purchase and returns the record id.
	SavePurchase(ctx context.Context, p Purchase) (string, error)

	// FetchPurchases returns the principal's purchase history, newest first.
	FetchPurchases(ctx context.Context, userID string) ([]Purchase, error)
}

// New constructs the Archive provider selected by cfg.
func New(cfg core.ArchiveConfig, logger core.Logger) (Archive, error) {
	if logger == nil {
		logger = &core.NoOpLogger{}
	}

	switch cfg.Provider {
	case "", "inmemory":
		return NewInMemoryArchive(), nil
	case "redis":
		return NewRedisArchive(RedisArchiveOptions{
			RedisURL: cfg.RedisURL,
			Logger:   logger,
		})
	default:
		return nil, core.NewStateError("archive.New", "config", core.ErrInvalidConfiguration)
	}
}
