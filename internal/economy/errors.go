package economy

import (
	"errors"

	"starledger/internal/idempotency"
	"starledger/internal/wallet"
)

var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrInvalidAmount  = errors.New("amount must be greater than zero")
	ErrInvalidRule    = errors.New("invalid earning rule")
)

// Error kinds reported to callers.
const (
	KindInvalidRequest      = "invalid_request"
	KindInvalidAmount       = "invalid_amount"
	KindInvalidRule         = "invalid_rule"
	KindInsufficientBalance = "insufficient_balance"
	KindDailyLimitReached   = "daily_limit_reached"
	KindNotFound            = "not_found"
	KindConflict            = "conflict"
	KindInternal            = "internal"
)

// Kind classifies err. Anything unrecognised is internal.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrInvalidRequest), errors.Is(err, wallet.ErrInvalidEntry):
		return KindInvalidRequest
	case errors.Is(err, ErrInvalidAmount), errors.Is(err, wallet.ErrOverflow):
		return KindInvalidAmount
	case errors.Is(err, ErrInvalidRule):
		return KindInvalidRule
	case errors.Is(err, wallet.ErrInsufficientBalance):
		return KindInsufficientBalance
	case errors.Is(err, wallet.ErrDailyLimitReached):
		return KindDailyLimitReached
	case errors.Is(err, wallet.ErrAccountNotFound):
		return KindNotFound
	case errors.Is(err, idempotency.ErrInFlight), errors.Is(err, wallet.ErrDuplicateEntry):
		return KindConflict
	default:
		return KindInternal
	}
}
