package pool

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

func u(v uint64) *uint256.Int { return uint256.NewInt(v) }

func TestEstimateSwapFormula(t *testing.T) {
	quote, err := EstimateSwap(u(10_000_000), u(1_000_000_000), u(1_000_000_000), 30, 20)
	require.NoError(t, err)
	require.Equal(t, uint64(20_000), quote.ProtocolFee.Uint64())
	require.Equal(t, uint64(9_980_000), quote.EffectiveIn.Uint64())
	require.Equal(t, uint64(9_851_972), quote.AmountOut.Uint64())
}

func TestEstimateSwapRejectsZeroInputs(t *testing.T) {
	cases := []struct {
		name                        string
		amountIn, totalIn, totalOut uint64
	}{
		{"amount", 0, 100, 100},
		{"total in", 10, 0, 100},
		{"total out", 10, 100, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := EstimateSwap(u(tc.amountIn), u(tc.totalIn), u(tc.totalOut), 30, 20)
			require.ErrorIs(t, err, ErrZeroAmount)
		})
	}
}

func TestEstimateSwapRejectsFeesAboveWhole(t *testing.T) {
	_, err := EstimateSwap(u(10), u(100), u(100), 9_000, 1_001)
	require.ErrorIs(t, err, ErrInvalidFee)

	quote, err := EstimateSwap(u(10), u(100), u(100), 9_000, 1_000)
	require.NoError(t, err)
	require.True(t, quote.AmountOut.IsZero())
}

func TestEstimateSwapMonotonic(t *testing.T) {
	totalIn, totalOut := u(5_000_000_000), u(7_000_000_000)
	prev := new(uint256.Int)
	for amount := uint64(1_000_000); amount <= 200_000_000; amount += 1_000_000 {
		quote, err := EstimateSwap(u(amount), totalIn, totalOut, 30, 20)
		require.NoError(t, err)
		require.True(t, quote.AmountOut.Gt(prev), "output must grow with input at %d", amount)
		prev = quote.AmountOut
	}
}

func TestEstimateSwapNeverFreeAtParity(t *testing.T) {
	reserve := u(1_000_000_000)
	for _, amount := range []uint64{1, 999, 1_000_000, 50_000_000, 900_000_000} {
		quote, err := EstimateSwap(u(amount), reserve, reserve, 30, 20)
		require.NoError(t, err)
		require.True(t, quote.AmountOut.Lt(u(amount)), "amount %d", amount)
	}
}

func TestEstimateSwapIsPure(t *testing.T) {
	amountIn, totalIn, totalOut := u(123_456_789), u(9_876_543_210), u(1_234_567_890)
	first, err := EstimateSwap(amountIn, totalIn, totalOut, 30, 20)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := EstimateSwap(amountIn, totalIn, totalOut, 30, 20)
		require.NoError(t, err)
		require.Equal(t, first, again)
	}
	require.Equal(t, uint64(123_456_789), amountIn.Uint64())
	require.Equal(t, uint64(9_876_543_210), totalIn.Uint64())
}

func TestMaxTradeAndPriceImpactLimit(t *testing.T) {
	limit, err := MaxTrade(u(1_000_000_000), 1000)
	require.NoError(t, err)
	require.Equal(t, uint64(100_000_000), limit.Uint64())

	require.NoError(t, CheckPriceImpactLimit(u(100_000_000), u(1_000_000_000), 1000))
	require.ErrorIs(t, CheckPriceImpactLimit(u(100_000_001), u(1_000_000_000), 1000), ErrTradeLimitExceeded)

	_, err = MaxTrade(u(1), 0)
	require.ErrorIs(t, err, ErrInvalidTradeLimit)
	_, err = MaxTrade(u(1), 10_001)
	require.ErrorIs(t, err, ErrInvalidTradeLimit)
}

func TestShareEstimates(t *testing.T) {
	shares, err := estimateGenesisShares(u(1000), u(1000))
	require.NoError(t, err)
	require.Equal(t, uint64(1000), shares.Uint64())

	_, err = estimateGenesisShares(u(1000), u(1001))
	require.ErrorIs(t, err, ErrGenesisMismatch)
	_, err = estimateGenesisShares(u(0), u(0))
	require.ErrorIs(t, err, ErrZeroShares)

	_, err = estimateProportionalShares(u(120), u(123), u(1_000_000), u(1_000_000), u(1_000_000))
	require.ErrorIs(t, err, ErrEquivalentValueRequired)

	shares, err = estimateProportionalShares(u(100), u(300), u(1_000), u(3_000), u(500))
	require.NoError(t, err)
	require.Equal(t, uint64(50), shares.Uint64())

	_, err = estimateProportionalShares(u(1), u(3), u(1_000), u(3_000), u(500))
	require.ErrorIs(t, err, ErrZeroShares)

	a1, a2, err := estimateWithdrawal(u(250), u(1_000), u(3_001), u(1_000))
	require.NoError(t, err)
	require.Equal(t, uint64(250), a1.Uint64())
	require.Equal(t, uint64(750), a2.Uint64())

	_, _, err = estimateWithdrawal(u(1), u(0), u(0), u(0))
	require.ErrorIs(t, err, ErrPoolInactive)
	_, _, err = estimateWithdrawal(u(1_001), u(1_000), u(1_000), u(1_000))
	require.ErrorIs(t, err, ErrInsufficientShares)
}

func TestKind(t *testing.T) {
	require.Equal(t, "trade_limit_exceeded", Kind(ErrTradeLimitExceeded))
	require.Equal(t, "overflow", Kind(ErrOverflow))
	require.Equal(t, "internal", Kind(nil))
}
