package pool

import (
	"github.com/holiman/uint256"
)

// Slot selects one of the two pooled assets.
type Slot int

const (
	Slot1 Slot = iota + 1
	Slot2
)

func (s Slot) other() Slot {
	if s == Slot1 {
		return Slot2
	}
	return Slot1
}

// reserves is the single source of truth for pooled quantities and the
// outstanding share supply. It is a plain value so that a copy can be staged
// and committed atomically.
type reserves struct {
	reserve1    uint256.Int
	reserve2    uint256.Int
	totalShares uint256.Int
}

func (r *reserves) get(slot Slot) *uint256.Int {
	if slot == Slot1 {
		return &r.reserve1
	}
	return &r.reserve2
}

func (r *reserves) credit(slot Slot, amount *uint256.Int) error {
	target := r.get(slot)
	if _, overflow := target.AddOverflow(target, amount); overflow {
		return ErrOverflow
	}
	return nil
}

func (r *reserves) debit(slot Slot, amount *uint256.Int) error {
	target := r.get(slot)
	if target.Lt(amount) {
		return ErrInsufficientReserve
	}
	target.Sub(target, amount)
	return nil
}

func (r *reserves) isActive() bool {
	return !r.totalShares.IsZero()
}
