package archive

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryArchive_SaveListSkipsEmpty(t *testing.T) {
	a := NewInMemoryArchive()
	ctx := context.Background()

	id, err := a.SaveList(ctx, "u1", "store-1", nil)
	require.NoError(t, err)
	assert.Empty(t, id)

	lists, err := a.FetchPastLists(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, lists)
}

func TestInMemoryArchive_ListsNewestFirst(t *testing.T) {
	a := NewInMemoryArchive()
	ctx := context.Background()

	first, err := a.SaveList(ctx, "u1", "store-1", []ListEntry{{Name: "Milk"}})
	require.NoError(t, err)
	require.NotEmpty(t, first)
	time.Sleep(2 * time.Millisecond)
	second, err := a.SaveList(ctx, "u1", "store-1", []ListEntry{{Name: "Bread", Checked: true}})
	require.NoError(t, err)

	lists, err := a.FetchPastLists(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, lists, 2)
	assert.Equal(t, second, lists[0].ID)
	assert.Equal(t, first, lists[1].ID)
	assert.True(t, lists[0].Items[0].Checked)
}

func TestInMemoryArchive_RecordsAreIsolated(t *testing.T) {
	a := NewInMemoryArchive()
	ctx := context.Background()

	_, err := a.SaveList(ctx, "alice", "store-1", []ListEntry{{Name: "Milk"}})
	require.NoError(t, err)

	lists, err := a.FetchPastLists(ctx, "bob")
	require.NoError(t, err)
	assert.Empty(t, lists)
}

func TestInMemoryArchive_RecordsAreCopied(t *testing.T) {
	a := NewInMemoryArchive()
	ctx := context.Background()

	entries := []ListEntry{{Name: "Milk"}}
	_, err := a.SaveList(ctx, "u1", "store-1", entries)
	require.NoError(t, err)
	entries[0].Name = "mutated"

	lists, err := a.FetchPastLists(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Milk", lists[0].Items[0].Name)

	// Mutating the fetched copy does not touch the archived record.
	lists[0].Items[0].Name = "mutated again"
	again, err := a.FetchPastLists(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Milk", again[0].Items[0].Name)
}

func TestInMemoryArchive_Purchases(t *testing.T) {
	a := NewInMemoryArchive()
	ctx := context.Background()

	id, err := a.SavePurchase(ctx, Purchase{
		UserID:  "u1",
		StoreID: "store-1",
		Items: []PurchaseItem{
			{ProductID: "p1", Name: "Milk", Price: 349, Quantity: 2},
		},
		Total: 698,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	time.Sleep(2 * time.Millisecond)
	newer, err := a.SavePurchase(ctx, Purchase{UserID: "u1", Total: 100})
	require.NoError(t, err)

	purchases, err := a.FetchPurchases(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, purchases, 2)
	assert.Equal(t, newer, purchases[0].ID)
	assert.Equal(t, id, purchases[1].ID)
	assert.False(t, purchases[0].PurchasedAt.IsZero())
}
