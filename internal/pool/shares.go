package pool

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"swapPool/internal/fixedpoint"
)

// shareBook tracks per-holder share balances. A zero balance is never stored.
type shareBook struct {
	balances map[common.Address]*uint256.Int
}

func newShareBook() *shareBook {
	return &shareBook{balances: make(map[common.Address]*uint256.Int)}
}

func (b *shareBook) balanceOf(holder common.Address) *uint256.Int {
	if bal, ok := b.balances[holder]; ok {
		return bal.Clone()
	}
	return new(uint256.Int)
}

func (b *shareBook) set(holder common.Address, balance *uint256.Int) {
	if balance.IsZero() {
		delete(b.balances, holder)
		return
	}
	b.balances[holder] = balance.Clone()
}

// mint returns the holder balance and total supply after issuing shares.
// Nothing is written until the caller commits with set.
func (b *shareBook) mint(holder common.Address, shares, totalShares *uint256.Int) (*uint256.Int, *uint256.Int, error) {
	balance, err := fixedpoint.Add(b.balanceOf(holder), shares)
	if err != nil {
		return nil, nil, err
	}
	total, err := fixedpoint.Add(totalShares, shares)
	if err != nil {
		return nil, nil, err
	}
	return balance, total, nil
}

// burn returns the holder balance and total supply after destroying shares.
func (b *shareBook) burn(holder common.Address, shares, totalShares *uint256.Int) (*uint256.Int, *uint256.Int, error) {
	balance := b.balanceOf(holder)
	if balance.Lt(shares) || totalShares.Lt(shares) {
		return nil, nil, ErrInsufficientShares
	}
	balance.Sub(balance, shares)
	return balance, new(uint256.Int).Sub(totalShares, shares), nil
}

func (b *shareBook) sum() *big.Int {
	total := new(big.Int)
	for _, bal := range b.balances {
		total.Add(total, bal.ToBig())
	}
	return total
}

// estimateGenesisShares issues one share per unit of either asset at the
// founding 1:1 ratio.
func estimateGenesisShares(amount1, amount2 *uint256.Int) (*uint256.Int, error) {
	if !amount1.Eq(amount2) {
		return nil, ErrGenesisMismatch
	}
	if amount1.IsZero() {
		return nil, ErrZeroShares
	}
	return amount1.Clone(), nil
}

// estimateProportionalShares requires amount1/amount2 to match the reserve
// ratio exactly and issues shares pro rata to amount1.
func estimateProportionalShares(amount1, amount2, reserve1, reserve2, totalShares *uint256.Int) (*uint256.Int, error) {
	if reserve1.IsZero() || reserve2.IsZero() {
		return nil, ErrPoolInactive
	}
	// cross products can exceed 256 bits
	lhs := new(big.Int).Mul(amount1.ToBig(), reserve2.ToBig())
	rhs := new(big.Int).Mul(amount2.ToBig(), reserve1.ToBig())
	if lhs.Cmp(rhs) != 0 {
		return nil, ErrEquivalentValueRequired
	}
	shares, err := fixedpoint.MulDiv(amount1, totalShares, reserve1)
	if err != nil {
		return nil, err
	}
	if shares.IsZero() {
		return nil, ErrZeroShares
	}
	return shares, nil
}

// estimateWithdrawal returns the pro-rata slice of both reserves owed for
// shares, trade fees included.
func estimateWithdrawal(shares, reserve1, reserve2, totalShares *uint256.Int) (*uint256.Int, *uint256.Int, error) {
	if totalShares.IsZero() {
		return nil, nil, ErrPoolInactive
	}
	if shares.Gt(totalShares) {
		return nil, nil, ErrInsufficientShares
	}
	amount1, err := fixedpoint.MulDiv(reserve1, shares, totalShares)
	if err != nil {
		return nil, nil, err
	}
	amount2, err := fixedpoint.MulDiv(reserve2, shares, totalShares)
	if err != nil {
		return nil, nil, err
	}
	return amount1, amount2, nil
}
