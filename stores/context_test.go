package stores

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itsneelabh/spendwise/core"
)

func customer(uid string) core.Identity {
	return core.Identity{Authenticated: true, UID: uid, Role: core.RoleCustomer}
}

func owner(uid, storeID string) core.Identity {
	return core.Identity{Authenticated: true, UID: uid, Role: core.RoleStoreOwner, StoreID: storeID}
}

func TestContext_UnknownUntilInitialized(t *testing.T) {
	c := New(core.NewMemoryStore())

	_, ok := c.StoreID()
	assert.False(t, ok)
	assert.False(t, c.Ready())

	err := c.SetStoreID(context.Background(), "store-1")
	assert.True(t, core.IsNotInitialized(err))
}

func TestContext_NoDefaultStore(t *testing.T) {
	c := New(core.NewMemoryStore())
	require.NoError(t, c.Initialize(context.Background(), customer("u1")))

	assert.True(t, c.Ready())
	_, ok := c.StoreID()
	assert.False(t, ok)
}

func TestContext_CustomerSelectionPersists(t *testing.T) {
	mem := core.NewMemoryStore()
	ctx := context.Background()

	c := New(mem)
	require.NoError(t, c.Initialize(ctx, customer("u1")))
	require.NoError(t, c.SetStoreID(ctx, "store-7"))

	id, ok := c.StoreID()
	assert.True(t, ok)
	assert.Equal(t, "store-7", id)

	fresh := New(mem)
	require.NoError(t, fresh.Initialize(ctx, customer("u1")))
	id, ok = fresh.StoreID()
	assert.True(t, ok)
	assert.Equal(t, "store-7", id)
}

func TestContext_OwnerBoundToProfile(t *testing.T) {
	mem := core.NewMemoryStore()
	ctx := context.Background()

	c := New(mem)
	require.NoError(t, c.Initialize(ctx, owner("o1", "store-own")))

	id, ok := c.StoreID()
	assert.True(t, ok)
	assert.Equal(t, "store-own", id)

	err := c.SetStoreID(ctx, "store-other")
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrStoreFixedByRole))

	// The profile binding is never written to the persistence slot.
	raw, err := mem.Get(ctx, core.Namespace(core.SubsystemStore, owner("o1", "store-own")))
	require.NoError(t, err)
	assert.Empty(t, raw)
}

func TestContext_SelectionIsPerPrincipal(t *testing.T) {
	mem := core.NewMemoryStore()
	ctx := context.Background()

	c := New(mem)
	require.NoError(t, c.Initialize(ctx, customer("alice")))
	require.NoError(t, c.SetStoreID(ctx, "store-a"))

	require.NoError(t, c.Initialize(ctx, customer("bob")))
	_, ok := c.StoreID()
	assert.False(t, ok)

	require.NoError(t, c.Initialize(ctx, customer("alice")))
	id, ok := c.StoreID()
	assert.True(t, ok)
	assert.Equal(t, "store-a", id)
}

func TestContext_OwnerToCustomerDoesNotLeak(t *testing.T) {
	mem := core.NewMemoryStore()
	ctx := context.Background()

	c := New(mem)
	require.NoError(t, c.Initialize(ctx, owner("o1", "store-own")))
	require.NoError(t, c.Initialize(ctx, customer("u1")))

	_, ok := c.StoreID()
	assert.False(t, ok)
}

func TestContext_CorruptSelectionFallsBack(t *testing.T) {
	mem := core.NewMemoryStore()
	ctx := context.Background()
	id := customer("u1")

	require.NoError(t, mem.Set(ctx, core.Namespace(core.SubsystemStore, id), "{broken", 0))

	c := New(mem)
	require.NoError(t, c.Initialize(ctx, id))
	assert.True(t, c.Ready())
	_, ok := c.StoreID()
	assert.False(t, ok)
}
