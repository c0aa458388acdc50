package api

import (
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/mux"
	"github.com/holiman/uint256"

	"swapPool/internal/fixedpoint"
	"swapPool/internal/model"
	"swapPool/internal/pool"
)

type infoResponse struct {
	Address        string `json:"address"`
	Asset1         string `json:"asset1"`
	Asset2         string `json:"asset2"`
	Owner          string `json:"owner"`
	FeeRecipient   string `json:"fee_recipient"`
	Reserve1       string `json:"reserve1"`
	Reserve2       string `json:"reserve2"`
	TotalShares    string `json:"total_shares"`
	TradeFeeBps    uint64 `json:"trade_fee_bps"`
	ProtocolFeeBps uint64 `json:"protocol_fee_bps"`
	MaxTradeBps    uint64 `json:"max_trade_bps"`
}

type swapQuoteResponse struct {
	ProtocolFee string `json:"protocol_fee"`
	EffectiveIn string `json:"effective_in"`
	AmountOut   string `json:"amount_out"`
}

type depositRequest struct {
	Amount1 string `json:"amount1"`
	Amount2 string `json:"amount2"`
}

type withdrawRequest struct {
	Shares string `json:"shares"`
}

type swapRequest struct {
	AssetIn      string `json:"asset_in"`
	AmountIn     string `json:"amount_in"`
	MinAmountOut string `json:"min_amount_out"`
}

type transferRequest struct {
	To     string `json:"to"`
	Shares string `json:"shares"`
}

type bpsRequest struct {
	Bps uint64 `json:"bps"`
}

type recipientRequest struct {
	Recipient string `json:"recipient"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	info := s.pool.Info()
	writeJSON(w, http.StatusOK, infoResponse{
		Address:        info.Address.Hex(),
		Asset1:         info.Asset1.Hex(),
		Asset2:         info.Asset2.Hex(),
		Owner:          info.Owner.Hex(),
		FeeRecipient:   info.FeeRecipient.Hex(),
		Reserve1:       fixedpoint.Format(info.Reserve1),
		Reserve2:       fixedpoint.Format(info.Reserve2),
		TotalShares:    fixedpoint.Format(info.TotalShares),
		TradeFeeBps:    info.TradeFeeBps,
		ProtocolFeeBps: info.ProtocolFeeBps,
		MaxTradeBps:    info.MaxTradeBps,
	})
}

func (s *Server) handleSharesOf(w http.ResponseWriter, r *http.Request) {
	holder, err := parseAddress("holder", mux.Vars(r)["holder"])
	if err != nil {
		s.fail(w, "shares", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"holder": holder.Hex(),
		"shares": fixedpoint.Format(s.pool.SharesOf(holder)),
	})
}

func (s *Server) handleQuoteSwap(w http.ResponseWriter, r *http.Request) {
	amounts, err := queryAmounts(r, "amount_in", "total_in", "total_out")
	if err != nil {
		s.fail(w, "quote swap", err)
		return
	}
	quote, err := s.pool.EstimateSwap(amounts[0], amounts[1], amounts[2])
	if err != nil {
		s.fail(w, "quote swap", err)
		return
	}
	writeJSON(w, http.StatusOK, swapQuoteView(quote))
}

func (s *Server) handleQuoteSwapFor(w http.ResponseWriter, r *http.Request) {
	asset, err := parseAddress("asset", mux.Vars(r)["asset"])
	if err != nil {
		s.fail(w, "quote swap", err)
		return
	}
	amounts, err := queryAmounts(r, "amount_in")
	if err != nil {
		s.fail(w, "quote swap", err)
		return
	}
	quote, err := s.pool.EstimateSwapFor(asset, amounts[0])
	if err != nil {
		s.fail(w, "quote swap", err)
		return
	}
	writeJSON(w, http.StatusOK, swapQuoteView(quote))
}

func (s *Server) handleQuoteShares(w http.ResponseWriter, r *http.Request) {
	amounts, err := queryAmounts(r, "amount1", "amount2")
	if err != nil {
		s.fail(w, "quote shares", err)
		return
	}
	shares, err := s.pool.EstimateShares(amounts[0], amounts[1])
	if err != nil {
		s.fail(w, "quote shares", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"shares": fixedpoint.Format(shares)})
}

func (s *Server) handleQuoteWithdraw(w http.ResponseWriter, r *http.Request) {
	amounts, err := queryAmounts(r, "shares")
	if err != nil {
		s.fail(w, "quote withdraw", err)
		return
	}
	amount1, amount2, err := s.pool.EstimateWithdrawalAmounts(amounts[0])
	if err != nil {
		s.fail(w, "quote withdraw", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"amount1": fixedpoint.Format(amount1),
		"amount2": fixedpoint.Format(amount2),
	})
}

func (s *Server) handleQuoteMaxTrade(w http.ResponseWriter, r *http.Request) {
	amounts, err := queryAmounts(r, "total_out")
	if err != nil {
		s.fail(w, "quote max trade", err)
		return
	}
	limit, err := s.pool.MaxTrade(amounts[0])
	if err != nil {
		s.fail(w, "quote max trade", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"max_amount_out": fixedpoint.Format(limit)})
}

func (s *Server) handleDeposit(w http.ResponseWriter, r *http.Request) {
	caller, err := holderFrom(r)
	if err != nil {
		s.fail(w, "deposit", err)
		return
	}
	var req depositRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.fail(w, "deposit", err)
		return
	}
	amounts, err := parseAmounts(req.Amount1, req.Amount2)
	if err != nil {
		s.fail(w, "deposit", err)
		return
	}
	event, err := s.pool.Deposit(r.Context(), caller, amounts[0], amounts[1])
	if err != nil {
		s.fail(w, "deposit", err)
		return
	}
	s.committed(w, eventView(event))
}

func (s *Server) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	caller, err := holderFrom(r)
	if err != nil {
		s.fail(w, "withdraw", err)
		return
	}
	var req withdrawRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.fail(w, "withdraw", err)
		return
	}
	amounts, err := parseAmounts(req.Shares)
	if err != nil {
		s.fail(w, "withdraw", err)
		return
	}
	event, err := s.pool.Withdraw(r.Context(), caller, amounts[0])
	if err != nil {
		s.fail(w, "withdraw", err)
		return
	}
	s.committed(w, eventView(event))
}

func (s *Server) handleSwap(w http.ResponseWriter, r *http.Request) {
	caller, err := holderFrom(r)
	if err != nil {
		s.fail(w, "swap", err)
		return
	}
	var req swapRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.fail(w, "swap", err)
		return
	}
	assetIn, err := parseAddress("asset_in", req.AssetIn)
	if err != nil {
		s.fail(w, "swap", err)
		return
	}
	if req.MinAmountOut == "" {
		req.MinAmountOut = "0"
	}
	amounts, err := parseAmounts(req.AmountIn, req.MinAmountOut)
	if err != nil {
		s.fail(w, "swap", err)
		return
	}
	event, err := s.pool.Swap(r.Context(), caller, assetIn, amounts[0], amounts[1])
	if err != nil {
		s.fail(w, "swap", err)
		return
	}
	s.committed(w, eventView(event))
}

func (s *Server) handleTransferShares(w http.ResponseWriter, r *http.Request) {
	caller, err := holderFrom(r)
	if err != nil {
		s.fail(w, "transfer shares", err)
		return
	}
	var req transferRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.fail(w, "transfer shares", err)
		return
	}
	to, err := parseAddress("to", req.To)
	if err != nil {
		s.fail(w, "transfer shares", err)
		return
	}
	amounts, err := parseAmounts(req.Shares)
	if err != nil {
		s.fail(w, "transfer shares", err)
		return
	}
	event, err := s.pool.TransferShares(caller, to, amounts[0])
	if err != nil {
		s.fail(w, "transfer shares", err)
		return
	}
	s.committed(w, eventView(event))
}

func (s *Server) handleSetTradeFee(w http.ResponseWriter, r *http.Request) {
	s.setBps(w, r, "set trade fee", s.pool.SetTradeFee)
}

func (s *Server) handleSetProtocolFee(w http.ResponseWriter, r *http.Request) {
	s.setBps(w, r, "set protocol fee", s.pool.SetProtocolFee)
}

func (s *Server) handleSetMaxTrade(w http.ResponseWriter, r *http.Request) {
	s.setBps(w, r, "set max trade", s.pool.SetMaxTradePercentage)
}

func (s *Server) setBps(w http.ResponseWriter, r *http.Request, operation string, set func(common.Address, uint64) error) {
	caller, err := holderFrom(r)
	if err != nil {
		s.fail(w, operation, err)
		return
	}
	var req bpsRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.fail(w, operation, err)
		return
	}
	if err := set(caller, req.Bps); err != nil {
		s.fail(w, operation, err)
		return
	}
	s.committed(w, map[string]uint64{"bps": req.Bps})
}

func (s *Server) handleSetFeeRecipient(w http.ResponseWriter, r *http.Request) {
	caller, err := holderFrom(r)
	if err != nil {
		s.fail(w, "set fee recipient", err)
		return
	}
	var req recipientRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.fail(w, "set fee recipient", err)
		return
	}
	recipient, err := parseAddress("recipient", req.Recipient)
	if err != nil {
		s.fail(w, "set fee recipient", err)
		return
	}
	if err := s.pool.SetFeeRecipient(caller, recipient); err != nil {
		s.fail(w, "set fee recipient", err)
		return
	}
	s.committed(w, map[string]string{"recipient": recipient.Hex()})
}

func swapQuoteView(q pool.SwapQuote) swapQuoteResponse {
	return swapQuoteResponse{
		ProtocolFee: fixedpoint.Format(q.ProtocolFee),
		EffectiveIn: fixedpoint.Format(q.EffectiveIn),
		AmountOut:   fixedpoint.Format(q.AmountOut),
	}
}

// eventView renders a committed event with the journal's payload shapes.
func eventView(ev pool.Event) interface{} {
	switch v := ev.(type) {
	case pool.LiquidityAdded:
		return model.LiquidityAddedData{
			Holder:       v.Holder.Hex(),
			Amount1:      fixedpoint.Format(v.Amount1),
			Amount2:      fixedpoint.Format(v.Amount2),
			SharesMinted: fixedpoint.Format(v.SharesMinted),
			TotalShares:  fixedpoint.Format(v.TotalShares),
		}
	case pool.LiquidityWithdrawal:
		return model.LiquidityWithdrawalData{
			Holder:       v.Holder.Hex(),
			Amount1:      fixedpoint.Format(v.Amount1),
			Amount2:      fixedpoint.Format(v.Amount2),
			SharesBurned: fixedpoint.Format(v.SharesBurned),
			TotalShares:  fixedpoint.Format(v.TotalShares),
		}
	case pool.Swap:
		return model.SwapEventData{
			Holder:      v.Holder.Hex(),
			AssetIn:     v.AssetIn.Hex(),
			ProtocolFee: fixedpoint.Format(v.ProtocolFee),
			NetAmountIn: fixedpoint.Format(v.NetAmountIn),
			AmountOut:   fixedpoint.Format(v.AmountOut),
		}
	case pool.SharesTransferred:
		return model.SharesTransferredData{
			From:   v.From.Hex(),
			To:     v.To.Hex(),
			Shares: fixedpoint.Format(v.Shares),
		}
	default:
		return ev
	}
}

func parseAddress(name, raw string) (common.Address, error) {
	if !common.IsHexAddress(raw) {
		return common.Address{}, requestError{msg: name + ": invalid address"}
	}
	return common.HexToAddress(raw), nil
}

func parseAmounts(values ...string) ([]*uint256.Int, error) {
	out := make([]*uint256.Int, 0, len(values))
	for _, value := range values {
		amount, err := fixedpoint.Parse(value)
		if err != nil {
			return nil, requestError{msg: "invalid amount " + value + ": " + err.Error()}
		}
		out = append(out, amount)
	}
	return out, nil
}

func queryAmounts(r *http.Request, names ...string) ([]*uint256.Int, error) {
	query := r.URL.Query()
	values := make([]string, 0, len(names))
	for _, name := range names {
		value := query.Get(name)
		if value == "" {
			return nil, requestError{msg: "missing query parameter " + name}
		}
		values = append(values, value)
	}
	return parseAmounts(values...)
}
