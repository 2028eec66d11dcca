package core

import "sync"

// Role distinguishes the two kinds of authenticated principals.
type Role string

const (
	RoleCustomer   Role = "customer"
	RoleStoreOwner Role = "store-owner"
)

// GuestPrincipal is the sentinel principal identifier used when no one is
// authenticated. Guest state lives in its own namespace like any other
// principal's.
const GuestPrincipal = "guest"

// Identity is the resolved authentication tuple the state machines consume.
// StoreID is only meaningful when Role is RoleStoreOwner; for customers the
// active retail store comes from the stores package instead.
type Identity struct {
	Authenticated bool   `json:"authenticated"`
	UID           string `json:"uid,omitempty"`
	Role          Role   `json:"role,omitempty"`
	StoreID       string `json:"store_id,omitempty"`
}

// Guest returns the unauthenticated identity.
func Guest() Identity {
	return Identity{}
}

// PrincipalID returns the namespace-safe identifier owning this identity's
// persisted state.
func (i Identity) PrincipalID() string {
	if !i.Authenticated || i.UID == "" {
		return GuestPrincipal
	}
	return i.UID
}

// IsStoreOwner reports whether the identity is a store-owner principal.
func (i Identity) IsStoreOwner() bool {
	return i.Authenticated && i.Role == RoleStoreOwner
}

// IdentityResolver is the boundary to the external auth provider. The
// session layer subscribes once and drives rehydration from the emitted
// changes; state machines never read auth state on their own.
type IdentityResolver interface {
	Current() Identity
	Subscribe(fn func(Identity)) (cancel func())
}

// StaticResolver is an IdentityResolver backed by an explicit Set call.
// It stands in for a real auth provider in tests and in embedding hosts
// that resolve identity themselves.
type StaticResolver struct {
	mu          sync.RWMutex
	current     Identity
	subscribers map[int]func(Identity)
	nextID      int
}

// NewStaticResolver creates a resolver starting at the given identity.
func NewStaticResolver(id Identity) *StaticResolver {
	return &StaticResolver{
		current:     id,
		subscribers: make(map[int]func(Identity)),
	}
}

// Current returns the most recently set identity.
func (r *StaticResolver) Current() Identity {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

// Subscribe registers fn for future identity changes. The returned cancel
// function removes the subscription; calling it more than once is safe.
func (r *StaticResolver) Subscribe(fn func(Identity)) func() {
	r.mu.Lock()
	id := r.nextID
	r.nextID++
	r.subscribers[id] = fn
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		delete(r.subscribers, id)
		r.mu.Unlock()
	}
}

// Set replaces the current identity and notifies subscribers synchronously,
// in registration order being unspecified. Notification completes before Set
// returns, which is what lets callers rely on rehydrate-before-mutate.
func (r *StaticResolver) Set(id Identity) {
	r.mu.Lock()
	r.current = id
	fns := make([]func(Identity), 0, len(r.subscribers))
	for _, fn := range r.subscribers {
		fns = append(fns, fn)
	}
	r.mu.Unlock()

	for _, fn := range fns {
		fn(id)
	}
}
