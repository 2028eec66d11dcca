package cart

import "github.com/itsneelabh/spendwise/core"

// SuspendReason identifies why a mutation was parked.
type SuspendReason string

// ReasonBudgetExceeded is currently the only suspension reason: applying
// the mutation would push the resting-state total past the confirmed budget.
const ReasonBudgetExceeded SuspendReason = "budget_exceeded"

// Suspension is a cart mutation blocked by the budget invariant, held until
// the user either raises the budget (SetBudget retries it once) or cancels.
// It is a first-class state, not an error, and it is never persisted.
type Suspension struct {
	Reason    SuspendReason `json:"reason"`
	Product   core.Product  `json:"product"`
	Projected core.Cents    `json:"projected"` // total the mutation would have reached
	Budget    core.Cents    `json:"budget"`    // budget in force when suspended
}

// RetryOutcome reports what SetBudget did with a suspended mutation.
type RetryOutcome int

const (
	// RetryNone - no mutation was pending.
	RetryNone RetryOutcome = iota
	// RetryApplied - the pending product fit under the new budget and was added.
	RetryApplied
	// RetryRejected - the pending product still exceeded the new budget and
	// was discarded. It is not re-suspended; there is exactly one retry.
	RetryRejected
)

func (r RetryOutcome) String() string {
	switch r {
	case RetryApplied:
		return "applied"
	case RetryRejected:
		return "rejected"
	default:
		return "none"
	}
}
