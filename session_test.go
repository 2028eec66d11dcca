package spendwise

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itsneelabh/spendwise/archive"
	"github.com/itsneelabh/spendwise/core"
)

func customer(uid string) core.Identity {
	return core.Identity{Authenticated: true, UID: uid, Role: core.RoleCustomer}
}

func startedSession(t *testing.T, resolver core.IdentityResolver, opts ...SessionOption) *Session {
	t.Helper()
	s, err := NewSession(resolver, opts...)
	require.NoError(t, err)
	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNewSession_RequiresResolver(t *testing.T) {
	_, err := NewSession(nil)
	require.Error(t, err)
	assert.True(t, core.IsConfigurationError(err))
}

func TestSession_MutationsBeforeStartAreRejected(t *testing.T) {
	s, err := NewSession(core.NewStaticResolver(core.Guest()))
	require.NoError(t, err)

	_, err = s.Cart().AddItem(context.Background(), core.Product{ID: "p1", Name: "Milk", Price: 100})
	assert.True(t, core.IsNotInitialized(err))
}

func TestSession_StartTwiceFails(t *testing.T) {
	s := startedSession(t, core.NewStaticResolver(core.Guest()))

	err := s.Start(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrAlreadyStarted))
}

func TestSession_IdentityChangeRehydrates(t *testing.T) {
	resolver := core.NewStaticResolver(core.Guest())
	mem := core.NewMemoryStore()
	ctx := context.Background()

	s := startedSession(t, resolver, WithMemory(mem))

	// Guest carts an item.
	_, err := s.Cart().AddItem(ctx, core.Product{ID: "p1", Name: "Milk", Price: 349})
	require.NoError(t, err)

	// Signing in swaps to the user's empty namespace before Set returns.
	resolver.Set(customer("alice"))
	assert.Empty(t, s.Cart().Lines())
	assert.Equal(t, customer("alice"), s.Identity())

	_, err = s.Cart().AddItem(ctx, core.Product{ID: "p2", Name: "Bread", Price: 250})
	require.NoError(t, err)

	// Signing out restores the guest's own cart.
	resolver.Set(core.Guest())
	require.Len(t, s.Cart().Lines(), 1)
	assert.Equal(t, "p1", s.Cart().Lines()[0].ID)

	// And back again: the user's state is intact.
	resolver.Set(customer("alice"))
	require.Len(t, s.Cart().Lines(), 1)
	assert.Equal(t, "p2", s.Cart().Lines()[0].ID)
}

func TestSession_SelectStoreClearsCartAndList(t *testing.T) {
	resolver := core.NewStaticResolver(customer("u1"))
	ctx := context.Background()

	s := startedSession(t, resolver)

	require.NoError(t, s.SelectStore(ctx, "store-1"))
	_, err := s.Cart().AddItem(ctx, core.Product{ID: "p1", Name: "Milk", Price: 100})
	require.NoError(t, err)
	require.NoError(t, s.List().AddItem(ctx, "Milk"))

	// Re-selecting the same store keeps everything.
	require.NoError(t, s.SelectStore(ctx, "store-1"))
	assert.Len(t, s.Cart().Lines(), 1)
	assert.Len(t, s.List().Items(), 1)

	// Switching stores clears both.
	require.NoError(t, s.SelectStore(ctx, "store-2"))
	assert.Empty(t, s.Cart().Lines())
	assert.Empty(t, s.List().Items())

	id, ok := s.Stores().StoreID()
	assert.True(t, ok)
	assert.Equal(t, "store-2", id)
}

func TestSession_CheckoutArchivesAndClears(t *testing.T) {
	resolver := core.NewStaticResolver(customer("u1"))
	arc := archive.NewInMemoryArchive()
	ctx := context.Background()

	s := startedSession(t, resolver, WithArchive(arc))

	require.NoError(t, s.SelectStore(ctx, "store-1"))
	_, err := s.Cart().AddItem(ctx, core.Product{ID: "p1", Name: "Milk", Price: 349, Brand: "Acme", Category: "Dairy"})
	require.NoError(t, err)
	_, err = s.Cart().AddItem(ctx, core.Product{ID: "p1", Name: "Milk", Price: 349, Brand: "Acme", Category: "Dairy"})
	require.NoError(t, err)
	require.NoError(t, s.List().ReplaceAll(ctx, []string{"Milk", "Charcoal"}))
	require.NoError(t, s.List().SyncWithCart(ctx, s.Cart().ItemNames()))

	purchase, err := s.Checkout(ctx)
	require.NoError(t, err)
	require.NotNil(t, purchase)
	assert.NotEmpty(t, purchase.ID)
	assert.Equal(t, core.Cents(698), purchase.Total)
	require.Len(t, purchase.Items, 1)
	assert.Equal(t, 2, purchase.Items[0].Quantity)
	assert.Equal(t, "store-1", purchase.StoreID)

	// Both working states are cleared.
	assert.Empty(t, s.Cart().Lines())
	assert.Empty(t, s.List().Items())

	// The purchase and the list snapshot are in the archive.
	purchases, err := arc.FetchPurchases(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, purchases, 1)

	lists, err := arc.FetchPastLists(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, lists, 1)
	require.Len(t, lists[0].Items, 2)
	assert.True(t, lists[0].Items[0].Checked)
	assert.False(t, lists[0].Items[1].Checked)
}

func TestSession_CheckoutEmptyCart(t *testing.T) {
	s := startedSession(t, core.NewStaticResolver(customer("u1")))

	_, err := s.Checkout(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrEmptyCart))
}

func TestSession_CheckoutSkipsEmptyListSnapshot(t *testing.T) {
	resolver := core.NewStaticResolver(customer("u1"))
	arc := archive.NewInMemoryArchive()
	ctx := context.Background()

	s := startedSession(t, resolver, WithArchive(arc))

	_, err := s.Cart().AddItem(ctx, core.Product{ID: "p1", Name: "Milk", Price: 100})
	require.NoError(t, err)

	_, err = s.Checkout(ctx)
	require.NoError(t, err)

	lists, err := arc.FetchPastLists(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, lists)
}

func TestSession_CloseStopsRehydration(t *testing.T) {
	resolver := core.NewStaticResolver(customer("u1"))
	ctx := context.Background()

	s := startedSession(t, resolver)
	_, err := s.Cart().AddItem(ctx, core.Product{ID: "p1", Name: "Milk", Price: 100})
	require.NoError(t, err)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close()) // idempotent

	// Identity changes after Close no longer drive the state machines.
	resolver.Set(core.Guest())
	assert.Len(t, s.Cart().Lines(), 1)

	err = s.Start(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrClosed))
}

func TestNewSessionFromConfig(t *testing.T) {
	cfg, err := NewConfig(WithName("session-test"))
	require.NoError(t, err)

	resolver := core.NewStaticResolver(core.Guest())
	s, err := NewSessionFromConfig(cfg, resolver)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.Cart().Ready())
	assert.True(t, s.List().Ready())
	assert.True(t, s.Stores().Ready())
}
