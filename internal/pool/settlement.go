package pool

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"swapPool/internal/fixedpoint"
)

// Ledger moves assets between holders and the pool account. Amounts are in
// internal precision; the ledger scales them to each asset's native units.
type Ledger interface {
	Pull(ctx context.Context, asset, from common.Address, amount *uint256.Int) error
	Push(ctx context.Context, asset, to common.Address, amount *uint256.Int) error
}

type direction int

const (
	pullFrom direction = iota
	pushTo
)

func (d direction) String() string {
	if d == pullFrom {
		return "pull"
	}
	return "push"
}

type transfer struct {
	dir    direction
	asset  common.Address
	holder common.Address
	amount *uint256.Int
}

// settlement is an ordered transfer plan. It either completes every transfer
// or reverses the completed ones and reports the failure.
type settlement struct {
	ledger Ledger
	steps  []transfer
}

func newSettlement(ledger Ledger) *settlement {
	return &settlement{ledger: ledger}
}

func (s *settlement) pull(asset, from common.Address, amount *uint256.Int) {
	s.steps = append(s.steps, transfer{dir: pullFrom, asset: asset, holder: from, amount: amount})
}

func (s *settlement) push(asset, to common.Address, amount *uint256.Int) {
	s.steps = append(s.steps, transfer{dir: pushTo, asset: asset, holder: to, amount: amount})
}

func (s *settlement) execute(ctx context.Context) error {
	done := make([]transfer, 0, len(s.steps))
	for _, step := range s.steps {
		if step.amount == nil || step.amount.IsZero() {
			continue
		}
		if err := s.apply(ctx, step); err != nil {
			err = fmt.Errorf("%s %s %s %s: %w", step.dir, fixedpoint.Format(step.amount), step.asset.Hex(), step.holder.Hex(), err)
			if rbErr := s.rollback(context.WithoutCancel(ctx), done); rbErr != nil {
				return errors.Join(err, rbErr)
			}
			return err
		}
		done = append(done, step)
	}
	return nil
}

func (s *settlement) apply(ctx context.Context, step transfer) error {
	if step.dir == pullFrom {
		return s.ledger.Pull(ctx, step.asset, step.holder, step.amount)
	}
	return s.ledger.Push(ctx, step.asset, step.holder, step.amount)
}

func (s *settlement) rollback(ctx context.Context, done []transfer) error {
	var errs []error
	for i := len(done) - 1; i >= 0; i-- {
		step := done[i]
		reverse := step
		if step.dir == pullFrom {
			reverse.dir = pushTo
		} else {
			reverse.dir = pullFrom
		}
		if err := s.apply(ctx, reverse); err != nil {
			errs = append(errs, fmt.Errorf("rollback %s %s: %w", step.dir, step.asset.Hex(), err))
		}
	}
	return errors.Join(errs...)
}
