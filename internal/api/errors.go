package api

import (
	"errors"
	"net/http"

	"swapPool/internal/pool"
	"swapPool/internal/token"
)

var errInvalidHolder = requestError{msg: "missing or invalid " + HolderHeader + " header"}

var (
	badRequest = []error{
		pool.ErrGenesisMismatch,
		pool.ErrEquivalentValueRequired,
		pool.ErrZeroShares,
		pool.ErrInvalidAmount,
		pool.ErrInvalidToken,
		pool.ErrZeroAmount,
		pool.ErrSameRecipient,
		pool.ErrInvalidFee,
		pool.ErrInvalidTradeLimit,
		pool.ErrInvalidRecipient,
		pool.ErrOverflow,
		pool.ErrPoolAccount,
		token.ErrPoolAccount,
	}
	conflict = []error{
		pool.ErrPoolInactive,
		pool.ErrInsufficientShares,
		pool.ErrTradeLimitExceeded,
		pool.ErrSlippageExceeded,
		pool.ErrInsufficientReserve,
		token.ErrInsufficientBalance,
		token.ErrInsufficientPoolBalance,
	}
)

// statusOf maps an operation error to an HTTP status.
func statusOf(err error) int {
	if errors.Is(err, pool.ErrUnauthorized) {
		return http.StatusForbidden
	}
	for _, target := range badRequest {
		if errors.Is(err, target) {
			return http.StatusBadRequest
		}
	}
	for _, target := range conflict {
		if errors.Is(err, target) {
			return http.StatusConflict
		}
	}
	return http.StatusInternalServerError
}

// requestError is a malformed request that never reached the pool.
type requestError struct {
	msg string
}

func (e requestError) Error() string { return e.msg }
