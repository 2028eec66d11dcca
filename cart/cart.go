// Package cart implements the budget-constrained shopping cart state machine.
//
// The cart holds an ordered set of lines, an optional spending budget, and
// enforces one invariant on every mutation: while a confirmed budget is in
// place, the resting-state total never exceeds it. A mutation that would
// cross the budget is not an error - it is parked as a Suspension and the
// caller decides whether to raise the budget (SetBudget, which retries the
// parked mutation exactly once) or discard it (CancelPending).
//
// State persists per principal: Initialize derives the namespace for the
// given identity, discards in-memory state, and reloads the snapshot from
// the Memory provider. Mutations arriving before Initialize completes are
// rejected with core.ErrNotInitialized. Snapshot writes are fire-and-forget;
// a failed write is logged and otherwise indistinguishable from success.
package cart

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/itsneelabh/spendwise/core"
)

// Line is one cart entry: a product plus a positive quantity. There is at
// most one line per product id; repeated adds increment the quantity.
type Line struct {
	core.Product
	Quantity int `json:"quantity"`
}

// Subtotal returns price times quantity for this line.
func (l Line) Subtotal() core.Cents {
	return l.Product.Price * core.Cents(l.Quantity)
}

// snapshot is the persisted shape of the cart. The pending suspension is
// deliberately excluded: a parked mutation requires a live user decision
// and must not survive a reload or a principal switch.
type snapshot struct {
	Lines           []Line     `json:"lines"`
	Budget          core.Cents `json:"budget"`
	BudgetConfirmed bool       `json:"budget_confirmed"`
}

// Cart is the state machine. All methods are safe for concurrent use,
// and every mutation is atomic: it fully applies, or it is fully rejected
// or suspended with the observable state unchanged.
type Cart struct {
	mu        sync.Mutex
	memory    core.Memory
	logger    core.Logger
	telemetry core.Telemetry
	ttl       time.Duration

	namespace string
	ready     bool

	lines           []Line
	budget          core.Cents
	budgetConfirmed bool
	pending         *Suspension
}

// New creates a cart persisting through the given Memory provider.
func New(memory core.Memory) *Cart {
	return &Cart{
		memory:    memory,
		logger:    &core.NoOpLogger{},
		telemetry: &core.NoOpTelemetry{},
	}
}

// SetLogger configures the logger
func (c *Cart) SetLogger(logger core.Logger) {
	if logger != nil {
		c.logger = logger
	}
}

// SetTelemetry configures the telemetry provider
func (c *Cart) SetTelemetry(telemetry core.Telemetry) {
	if telemetry != nil {
		c.telemetry = telemetry
	}
}

// SetSnapshotTTL sets the TTL applied to persisted snapshots. Zero (the
// default) means snapshots never expire.
func (c *Cart) SetSnapshotTTL(ttl time.Duration) {
	c.ttl = ttl
}

// Initialize recomputes the namespace for the given identity, discards
// in-memory state, and reloads the snapshot persisted under the new
// namespace (or starts empty on first use). It must complete before any
// mutation issued against the new principal; until then mutation entry
// points fail with core.ErrNotInitialized.
func (c *Cart) Initialize(ctx context.Context, id core.Identity) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.ready = false
	c.namespace = core.Namespace(core.SubsystemCart, id)
	c.lines = nil
	c.budget = 0
	c.budgetConfirmed = false
	c.pending = nil

	raw, err := c.memory.Get(ctx, c.namespace)
	if err != nil {
		// Treated as absent: the principal starts from defaults rather
		// than being locked out of the cart.
		c.logger.Warn("Failed to read cart snapshot", map[string]interface{}{
			"namespace": c.namespace,
			"error":     err,
		})
	} else if raw != "" {
		var snap snapshot
		if err := json.Unmarshal([]byte(raw), &snap); err != nil {
			c.logger.Warn("Discarding corrupt cart snapshot", map[string]interface{}{
				"namespace": c.namespace,
				"error":     err,
			})
		} else {
			c.lines = snap.Lines
			c.budget = snap.Budget
			c.budgetConfirmed = snap.BudgetConfirmed
		}
	}

	c.ready = true

	c.logger.Debug("Cart rehydrated", map[string]interface{}{
		"namespace": c.namespace,
		"lines":     len(c.lines),
		"budget":    c.budget,
	})

	return nil
}

// Ready reports whether the cart has been initialized for a principal.
func (c *Cart) Ready() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ready
}

// AddItem adds one unit of the product. The product is sanitized first, so
// malformed catalog data cannot corrupt the cart. Returns true when the
// line was applied; false with a nil error when the mutation was suspended
// by the budget invariant (inspect Pending for the parked product).
func (c *Cart) AddItem(ctx context.Context, p core.Product) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.ready {
		return false, core.NewStateError("cart.AddItem", "cart", core.ErrNotInitialized)
	}

	sanitized := core.SanitizeProduct(p)

	projected := c.totalLocked() + sanitized.Price
	if c.budgetActive() && projected > c.budget {
		c.suspendLocked(sanitized, projected)
		return false, nil
	}

	c.applyAddLocked(ctx, sanitized)
	c.telemetry.RecordMetric("cart.add", 1, map[string]string{"result": "applied"})
	return true, nil
}

// RemoveItem deletes the line unconditionally. Removal only decreases the
// total, so it can never violate the budget and never suspends.
func (c *Cart) RemoveItem(ctx context.Context, productID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.ready {
		return core.NewStateError("cart.RemoveItem", "cart", core.ErrNotInitialized)
	}

	c.removeLocked(productID)
	c.persistLocked(ctx)
	c.telemetry.RecordMetric("cart.remove", 1, nil)
	return nil
}

// UpdateQuantity changes a line's quantity by the signed delta. A positive
// delta runs the same budget projection as AddItem and suspends on
// violation, leaving the quantity unchanged. A resulting quantity of zero
// or below removes the line entirely; the cart never holds a line with a
// non-positive quantity. Updating an absent line is a no-op success.
func (c *Cart) UpdateQuantity(ctx context.Context, productID string, delta int) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.ready {
		return false, core.NewStateError("cart.UpdateQuantity", "cart", core.ErrNotInitialized)
	}

	idx := c.findLocked(productID)
	if idx < 0 {
		return true, nil
	}
	line := c.lines[idx]

	if delta > 0 {
		projected := c.totalLocked() + line.Product.Price*core.Cents(delta)
		if c.budgetActive() && projected > c.budget {
			c.suspendLocked(line.Product, projected)
			return false, nil
		}
	}

	newQuantity := line.Quantity + delta
	if newQuantity <= 0 {
		c.removeLocked(productID)
	} else {
		c.lines[idx].Quantity = newQuantity
	}

	c.persistLocked(ctx)
	c.telemetry.RecordMetric("cart.update_quantity", 1, nil)
	return true, nil
}

// SetBudget sets the budget and whether enforcement is active (confirm).
// With retainLines false all lines are cleared, starting a fresh spending
// session under the new budget. SetBudget is also the designated resume
// point for a suspended mutation: the parked product is retried exactly
// once against the new budget and the suspension is cleared regardless of
// the outcome. The returned RetryOutcome reports what happened.
func (c *Cart) SetBudget(ctx context.Context, budget core.Cents, retainLines bool, confirm bool) (RetryOutcome, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.ready {
		return RetryNone, core.NewStateError("cart.SetBudget", "cart", core.ErrNotInitialized)
	}

	if budget < 0 {
		budget = 0
	}

	c.budget = budget
	c.budgetConfirmed = confirm
	if !retainLines {
		c.lines = nil
	}

	pending := c.pending
	c.pending = nil

	outcome := RetryNone
	if pending != nil {
		// At most one retry: on a second violation the product is dropped,
		// never re-suspended.
		projected := c.totalLocked() + pending.Product.Price
		if c.budgetActive() && projected > c.budget {
			outcome = RetryRejected
		} else {
			c.applyAddLocked(ctx, pending.Product)
			outcome = RetryApplied
		}
	}

	c.persistLocked(ctx)

	c.telemetry.RecordMetric("cart.budget_set", 1, map[string]string{
		"retry": outcome.String(),
	})
	c.logger.Debug("Budget updated", map[string]interface{}{
		"namespace": c.namespace,
		"budget":    c.budget,
		"confirmed": c.budgetConfirmed,
		"retry":     outcome.String(),
	})

	return outcome, nil
}

// CancelPending discards a suspended mutation without retrying it.
func (c *Cart) CancelPending() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pending != nil {
		c.telemetry.RecordMetric("cart.suspension_cancelled", 1, nil)
	}
	c.pending = nil
}

// Pending returns the suspended mutation, or nil when none is parked.
func (c *Cart) Pending() *Suspension {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pending == nil {
		return nil
	}
	s := *c.pending
	return &s
}

// ClearAll resets the cart: budget to zero, enforcement off, no lines, no
// pending suspension. Used when switching the active retail store or
// explicitly starting a new shopping session.
func (c *Cart) ClearAll(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.ready {
		return core.NewStateError("cart.ClearAll", "cart", core.ErrNotInitialized)
	}

	c.lines = nil
	c.budget = 0
	c.budgetConfirmed = false
	c.pending = nil

	c.persistLocked(ctx)
	c.telemetry.RecordMetric("cart.cleared", 1, nil)
	return nil
}

// Lines returns a copy of the cart lines in insertion order.
func (c *Cart) Lines() []Line {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

// Budget returns the current budget and whether enforcement is confirmed.
func (c *Cart) Budget() (core.Cents, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.budget, c.budgetConfirmed
}

// Total returns the resting-state total over all lines.
func (c *Cart) Total() core.Cents {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.totalLocked()
}

// TotalItems returns the summed quantity over all lines.
func (c *Cart) TotalItems() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for _, line := range c.lines {
		n += line.Quantity
	}
	return n
}

// ItemNames returns the product names currently in the cart, for list
// synchronization.
func (c *Cart) ItemNames() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	names := make([]string, 0, len(c.lines))
	for _, line := range c.lines {
		names = append(names, line.Product.Name)
	}
	return names
}

// budgetActive reports whether the budget invariant is being enforced.
// An unconfirmed budget means unlimited spending until the user sets one.
func (c *Cart) budgetActive() bool {
	return c.budgetConfirmed && c.budget > 0
}

func (c *Cart) totalLocked() core.Cents {
	var total core.Cents
	for _, line := range c.lines {
		total += line.Subtotal()
	}
	return total
}

func (c *Cart) findLocked(productID string) int {
	for i, line := range c.lines {
		if line.Product.ID == productID {
			return i
		}
	}
	return -1
}

func (c *Cart) removeLocked(productID string) {
	idx := c.findLocked(productID)
	if idx < 0 {
		return
	}
	c.lines = append(c.lines[:idx], c.lines[idx+1:]...)
}

// applyAddLocked merges one unit of an already sanitized product into the
// lines and persists the snapshot.
func (c *Cart) applyAddLocked(ctx context.Context, p core.Product) {
	if idx := c.findLocked(p.ID); idx >= 0 {
		c.lines[idx].Quantity++
	} else {
		c.lines = append(c.lines, Line{Product: p, Quantity: 1})
	}
	c.persistLocked(ctx)
}

func (c *Cart) suspendLocked(p core.Product, projected core.Cents) {
	c.pending = &Suspension{
		Reason:    ReasonBudgetExceeded,
		Product:   p,
		Projected: projected,
		Budget:    c.budget,
	}
	c.telemetry.RecordMetric("cart.budget_suspended", 1, nil)
	c.logger.Debug("Mutation suspended by budget", map[string]interface{}{
		"namespace": c.namespace,
		"product":   p.ID,
		"projected": projected,
		"budget":    c.budget,
	})
}

// persistLocked writes the snapshot to the namespace slot. Write failures
// are logged and swallowed: local persistence is fire-and-forget and a
// failed write is an accepted data-loss risk, not an operation failure.
func (c *Cart) persistLocked(ctx context.Context) {
	data, err := json.Marshal(snapshot{
		Lines:           c.lines,
		Budget:          c.budget,
		BudgetConfirmed: c.budgetConfirmed,
	})
	if err != nil {
		c.logger.Error("Failed to encode cart snapshot", map[string]interface{}{
			"namespace": c.namespace,
			"error":     err,
		})
		return
	}

	if err := c.memory.Set(ctx, c.namespace, string(data), c.ttl); err != nil {
		c.logger.Warn("Failed to persist cart snapshot", map[string]interface{}{
			"namespace": c.namespace,
			"error":     err,
		})
	}
}
