package main

import (
	"encoding/json"
	"errors"

	"github.com/spf13/cobra"

	"swapPool/internal/fixedpoint"
	"swapPool/internal/pool"
)

type quoteOutput struct {
	AmountIn       string `json:"amount_in"`
	ProtocolFee    string `json:"protocol_fee"`
	EffectiveIn    string `json:"effective_in"`
	AmountOut      string `json:"amount_out"`
	MaxAmountOut   string `json:"max_amount_out"`
	WithinLimit    bool   `json:"within_limit"`
	TradeFeeBps    uint64 `json:"trade_fee_bps"`
	ProtocolFeeBps uint64 `json:"protocol_fee_bps"`
}

func runQuote(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()
	amounts := make([]string, 0, 3)
	for _, name := range []string{"amount-in", "total-in", "total-out"} {
		value, _ := flags.GetString(name)
		amounts = append(amounts, value)
	}
	tradeFee, _ := flags.GetUint64("trade-fee-bps")
	protocolFee, _ := flags.GetUint64("protocol-fee-bps")
	maxTrade, _ := flags.GetUint64("max-trade-bps")

	amountIn, err := fixedpoint.Parse(amounts[0])
	if err != nil {
		return err
	}
	totalIn, err := fixedpoint.Parse(amounts[1])
	if err != nil {
		return err
	}
	totalOut, err := fixedpoint.Parse(amounts[2])
	if err != nil {
		return err
	}

	quote, err := pool.EstimateSwap(amountIn, totalIn, totalOut, tradeFee, protocolFee)
	if err != nil {
		return err
	}
	limit, err := pool.MaxTrade(totalOut, maxTrade)
	if err != nil {
		return err
	}
	limitErr := pool.CheckPriceImpactLimit(quote.AmountOut, totalOut, maxTrade)
	if limitErr != nil && !errors.Is(limitErr, pool.ErrTradeLimitExceeded) {
		return limitErr
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(quoteOutput{
		AmountIn:       fixedpoint.Format(amountIn),
		ProtocolFee:    fixedpoint.Format(quote.ProtocolFee),
		EffectiveIn:    fixedpoint.Format(quote.EffectiveIn),
		AmountOut:      fixedpoint.Format(quote.AmountOut),
		MaxAmountOut:   fixedpoint.Format(limit),
		WithinLimit:    limitErr == nil,
		TradeFeeBps:    tradeFee,
		ProtocolFeeBps: protocolFee,
	})
}
