// Package api serves the pool over HTTP. Amounts travel as base-10 strings in
// internal precision; the caller is named by the X-Holder header.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"swapPool/internal/pool"
)

// HolderHeader carries the caller identity.
const HolderHeader = "X-Holder"

// Observer receives rejections the HTTP layer sees and serves metrics.
type Observer interface {
	ObserveRejection(operation string, err error)
	Handler() http.Handler
}

type Server struct {
	pool     *pool.Pool
	observer Observer
	logger   *zap.Logger
	router   *mux.Router
}

// NewServer wires the routes. observer may be nil.
func NewServer(p *pool.Pool, observer Observer, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		pool:     p,
		observer: observer,
		logger:   logger,
		router:   mux.NewRouter(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router
	r.Use(s.logRequests)

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	if s.observer != nil {
		r.Handle("/metrics", s.observer.Handler()).Methods(http.MethodGet)
	}

	r.HandleFunc("/pool", s.handleInfo).Methods(http.MethodGet)
	r.HandleFunc("/pool/shares/{holder}", s.handleSharesOf).Methods(http.MethodGet)

	q := r.PathPrefix("/quote").Methods(http.MethodGet).Subrouter()
	q.HandleFunc("/swap", s.handleQuoteSwap)
	q.HandleFunc("/swap/{asset}", s.handleQuoteSwapFor)
	q.HandleFunc("/shares", s.handleQuoteShares)
	q.HandleFunc("/withdraw", s.handleQuoteWithdraw)
	q.HandleFunc("/max-trade", s.handleQuoteMaxTrade)

	r.HandleFunc("/deposit", s.handleDeposit).Methods(http.MethodPost)
	r.HandleFunc("/withdraw", s.handleWithdraw).Methods(http.MethodPost)
	r.HandleFunc("/swap", s.handleSwap).Methods(http.MethodPost)
	r.HandleFunc("/shares/transfer", s.handleTransferShares).Methods(http.MethodPost)

	admin := r.PathPrefix("/admin").Methods(http.MethodPost).Subrouter()
	admin.HandleFunc("/trade-fee", s.handleSetTradeFee)
	admin.HandleFunc("/protocol-fee", s.handleSetProtocolFee)
	admin.HandleFunc("/fee-recipient", s.handleSetFeeRecipient)
	admin.HandleFunc("/max-trade", s.handleSetMaxTrade)
}

// ServeHTTP makes Server an http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("took", time.Since(start)),
		)
	})
}

func holderFrom(r *http.Request) (common.Address, error) {
	raw := r.Header.Get(HolderHeader)
	if !common.IsHexAddress(raw) {
		return common.Address{}, errInvalidHolder
	}
	return common.HexToAddress(raw), nil
}

func (s *Server) committed(w http.ResponseWriter, body interface{}) {
	writeJSON(w, http.StatusOK, body)
}

// fail writes an error response. Pool errors are counted and logged by kind.
func (s *Server) fail(w http.ResponseWriter, operation string, err error) {
	var reqErr requestError
	if errors.As(err, &reqErr) {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error(), Kind: "bad_request"})
		return
	}

	status := statusOf(err)
	kind := pool.Kind(err)
	if s.observer != nil {
		s.observer.ObserveRejection(operation, err)
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("operation failed", zap.String("operation", operation), zap.Error(err))
	} else {
		s.logger.Info("operation rejected", zap.String("operation", operation), zap.String("kind", kind), zap.Error(err))
	}
	writeJSON(w, status, errorBody{Error: err.Error(), Kind: kind})
}

type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return requestError{msg: "invalid body: " + err.Error()}
	}
	return nil
}
