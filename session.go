package spendwise

import (
	"context"
	"sync"
	"time"

	"github.com/itsneelabh/spendwise/archive"
	"github.com/itsneelabh/spendwise/cart"
	"github.com/itsneelabh/spendwise/core"
	"github.com/itsneelabh/spendwise/list"
	"github.com/itsneelabh/spendwise/logger"
	"github.com/itsneelabh/spendwise/stores"
	"github.com/itsneelabh/spendwise/telemetry"
)

// Session binds an identity resolver to the per-principal state machines
// (store selection, cart, shopping list) and serializes identity-change
// rehydration strictly before any subsequent mutation. One Session serves
// one logical device; concurrent devices converge through the shared
// Memory backend on their next rehydration.
type Session struct {
	mu sync.Mutex

	resolver  core.IdentityResolver
	memory    core.Memory
	archive   archive.Archive
	logger    core.Logger
	telemetry core.Telemetry

	cart   *cart.Cart
	list   *list.List
	stores *stores.Context

	unsubscribe func()
	started     bool
	closed      bool
}

// Every registered state machine follows the rehydration contract.
var (
	_ core.Rehydrator = (*cart.Cart)(nil)
	_ core.Rehydrator = (*list.List)(nil)
	_ core.Rehydrator = (*stores.Context)(nil)
)

// SessionOption configures a Session during construction.
type SessionOption func(*Session)

// WithMemory sets the persistence backend shared by all state machines.
func WithMemory(m core.Memory) SessionOption {
	return func(s *Session) { s.memory = m }
}

// WithArchive sets the backend for past lists and purchase history.
func WithArchive(a archive.Archive) SessionOption {
	return func(s *Session) { s.archive = a }
}

// WithLogger sets the logger propagated to all state machines.
func WithLogger(l core.Logger) SessionOption {
	return func(s *Session) { s.logger = l }
}

// WithSessionTelemetry sets the telemetry provider propagated to all
// state machines.
func WithSessionTelemetry(t core.Telemetry) SessionOption {
	return func(s *Session) { s.telemetry = t }
}

// NewSession creates a session for the given resolver. Unconfigured
// dependencies fall back to in-process defaults, so a bare
// NewSession(resolver) is fully functional for a single device.
func NewSession(resolver core.IdentityResolver, opts ...SessionOption) (*Session, error) {
	if resolver == nil {
		return nil, core.NewStateError("session.new", "configuration",
			core.ErrMissingConfiguration)
	}

	s := &Session{
		resolver:  resolver,
		logger:    &core.NoOpLogger{},
		telemetry: &core.NoOpTelemetry{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.memory == nil {
		s.memory = core.NewMemoryStore()
	}
	if s.archive == nil {
		s.archive = archive.NewInMemoryArchive()
	}

	s.stores = stores.New(s.memory)
	s.stores.SetLogger(s.logger)

	s.cart = cart.New(s.memory)
	s.cart.SetLogger(s.logger)
	s.cart.SetTelemetry(s.telemetry)

	s.list = list.New(s.memory, s.archive)
	s.list.SetLogger(s.logger)
	s.list.SetTelemetry(s.telemetry)

	return s, nil
}

// NewSessionFromConfig builds a session with backends chosen by the
// resolved configuration: memory provider, archive provider, telemetry
// and logging are all wired from cfg.
func NewSessionFromConfig(cfg *core.Config, resolver core.IdentityResolver) (*Session, error) {
	if cfg == nil {
		return nil, core.NewStateError("session.new", "configuration",
			core.ErrMissingConfiguration)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	lg := logger.New(logger.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})

	mem, err := core.NewMemory(cfg.Memory, lg)
	if err != nil {
		return nil, err
	}

	arc, err := archive.New(cfg.Archive, lg)
	if err != nil {
		return nil, err
	}

	opts := []SessionOption{
		WithMemory(mem),
		WithArchive(arc),
		WithLogger(lg),
	}
	if cfg.Telemetry.Enabled {
		tel, err := telemetry.NewOTelProvider(cfg.Telemetry)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithSessionTelemetry(tel))
	}

	s, err := NewSession(resolver, opts...)
	if err != nil {
		return nil, err
	}
	if cfg.Memory.DefaultTTL > 0 {
		s.SetSnapshotTTL(cfg.Memory.DefaultTTL)
	}
	return s, nil
}

// SetSnapshotTTL sets the expiry applied to persisted snapshots across
// all state machines. Zero means no expiry.
func (s *Session) SetSnapshotTTL(ttl time.Duration) {
	s.stores.SetSnapshotTTL(ttl)
	s.cart.SetSnapshotTTL(ttl)
	s.list.SetSnapshotTTL(ttl)
}

// Start performs the initial rehydration for the resolver's current
// identity and subscribes to identity changes. Every change rehydrates
// store selection first, then cart, then list, so that reads issued
// after the change observe the new principal's state only.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return core.NewStateError("session.start", "lifecycle", core.ErrClosed)
	}
	if s.started {
		s.mu.Unlock()
		return core.NewStateError("session.start", "lifecycle", core.ErrAlreadyStarted)
	}
	s.started = true
	s.mu.Unlock()

	if err := s.rehydrate(ctx, s.resolver.Current()); err != nil {
		return err
	}

	s.unsubscribe = s.resolver.Subscribe(func(id core.Identity) {
		if err := s.rehydrate(context.Background(), id); err != nil {
			s.logger.Error("Identity rehydration failed", map[string]interface{}{
				"principal": id.PrincipalID(),
				"error":     err.Error(),
			})
		}
	})
	return nil
}

func (s *Session) rehydrate(ctx context.Context, id core.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, span := s.telemetry.StartSpan(ctx, "session.rehydrate")
	defer span.End()
	span.SetAttribute("principal", id.PrincipalID())

	if err := s.stores.Initialize(ctx, id); err != nil {
		span.RecordError(err)
		return err
	}
	if err := s.cart.Initialize(ctx, id); err != nil {
		span.RecordError(err)
		return err
	}
	if err := s.list.Initialize(ctx, id); err != nil {
		span.RecordError(err)
		return err
	}

	s.logger.Info("Session rehydrated", map[string]interface{}{
		"principal": id.PrincipalID(),
	})
	return nil
}

// Cart returns the budget-constrained cart state machine.
func (s *Session) Cart() *cart.Cart { return s.cart }

// List returns the shopping list state machine.
func (s *Session) List() *list.List { return s.list }

// Stores returns the store-selection context.
func (s *Session) Stores() *stores.Context { return s.stores }

// Identity returns the resolver's current identity.
func (s *Session) Identity() core.Identity { return s.resolver.Current() }

// SelectStore changes the active store for the current principal. Items
// carted under the previous store are not transferable, so a change of
// store clears both the cart and the shopping list.
func (s *Session) SelectStore(ctx context.Context, storeID string) error {
	prev, had := s.stores.StoreID()
	if err := s.stores.SetStoreID(ctx, storeID); err != nil {
		return err
	}
	if had && prev == storeID {
		return nil
	}
	if err := s.cart.ClearAll(ctx); err != nil {
		return err
	}
	if err := s.list.ClearAll(ctx); err != nil {
		return err
	}
	s.logger.Info("Store selected", map[string]interface{}{
		"store_id": storeID,
	})
	return nil
}

// Checkout archives the current cart as a purchase, snapshots the
// shopping list into the past-lists archive, then clears both. The
// purchase write is authoritative: if it fails nothing is cleared. The
// list snapshot is best-effort and a failure there is logged only.
func (s *Session) Checkout(ctx context.Context) (*archive.Purchase, error) {
	id := s.resolver.Current()
	principal := id.PrincipalID()
	storeID, _ := s.stores.StoreID()

	lines := s.cart.Lines()
	if len(lines) == 0 {
		return nil, core.NewStateError("session.checkout", "validation",
			core.ErrEmptyCart)
	}

	ctx, span := s.telemetry.StartSpan(ctx, "session.checkout")
	defer span.End()
	span.SetAttribute("principal", principal)
	span.SetAttribute("items", len(lines))

	items := make([]archive.PurchaseItem, 0, len(lines))
	var total core.Cents
	for _, ln := range lines {
		items = append(items, archive.PurchaseItem{
			ProductID: ln.ID,
			Name:      ln.Name,
			Price:     ln.Price,
			Quantity:  ln.Quantity,
			Brand:     ln.Brand,
			Category:  ln.Category,
		})
		total += ln.Subtotal()
	}

	purchase := archive.Purchase{
		UserID:  principal,
		StoreID: storeID,
		Items:   items,
		Total:   total,
	}
	purchaseID, err := s.archive.SavePurchase(ctx, purchase)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	purchase.ID = purchaseID

	entries := make([]archive.ListEntry, 0)
	for _, it := range s.list.Items() {
		entries = append(entries, archive.ListEntry{Name: it.Name, Checked: it.Checked})
	}
	if _, err := s.archive.SaveList(ctx, principal, storeID, entries); err != nil {
		s.logger.Warn("List archival failed during checkout", map[string]interface{}{
			"principal": principal,
			"error":     err.Error(),
		})
	}

	if err := s.list.ClearAll(ctx); err != nil {
		return &purchase, err
	}
	if err := s.cart.ClearAll(ctx); err != nil {
		return &purchase, err
	}

	s.telemetry.RecordMetric("session.checkout", 1, map[string]string{
		"store_id": storeID,
	})
	s.logger.Info("Checkout completed", map[string]interface{}{
		"principal":   principal,
		"purchase_id": purchase.ID,
		"total":       purchase.Total.String(),
	})
	return &purchase, nil
}

// Close cancels the identity subscription. The session cannot be
// restarted after Close; backend shutdown stays with the caller that
// owns the backends.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
	return nil
}
