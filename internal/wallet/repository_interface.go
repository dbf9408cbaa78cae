package wallet

import (
	"context"
	"errors"
	"math"
)

var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrAccountNotFound     = errors.New("account not found")
	ErrDailyLimitReached   = errors.New("daily limit reached")
	ErrDuplicateEntry      = errors.New("entry with this idempotency key already applied")
	ErrInvalidEntry        = errors.New("invalid ledger entry")
	ErrOverflow            = errors.New("amount overflows balance")
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Repository stores accounts and their transaction logs. Apply is the only
// mutation: it runs in an exclusive scope for the entry's account, re-reads
// the balance there, and makes the new transaction and the balance change
// visible together.
type Repository interface {
	GetOrCreate(ctx context.Context, accountID string) (*Account, error)
	GetAccount(ctx context.Context, accountID string) (*Account, error)
	Apply(ctx context.Context, e Entry) (*Account, *Transaction, error)
	ListTransactions(ctx context.Context, accountID string, limit, offset int) (*Page, error)
	Reconcile(ctx context.Context) ([]Mismatch, error)
}

func normalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// settle computes the post-entry account state. amount may have been clamped
// by the caller. It never mutates acc.
func settle(acc Account, kind Kind, amount int64) (Account, error) {
	switch kind {
	case KindEarn:
		if acc.Balance > math.MaxInt64-amount || acc.TotalEarned > math.MaxInt64-amount {
			return acc, ErrOverflow
		}
		acc.Balance += amount
		acc.TotalEarned += amount
	case KindSpend:
		if acc.Balance < amount {
			return acc, ErrInsufficientBalance
		}
		if acc.TotalSpent > math.MaxInt64-amount {
			return acc, ErrOverflow
		}
		acc.Balance -= amount
		acc.TotalSpent += amount
	default:
		return acc, ErrInvalidEntry
	}
	acc.TxCount++
	return acc, nil
}

// clampToAllowance applies the cumulative daily cap.
func clampToAllowance(amount, dailyCap, earnedToday int64) (int64, error) {
	remaining := dailyCap - earnedToday
	if remaining <= 0 {
		return 0, ErrDailyLimitReached
	}
	if amount > remaining {
		return remaining, nil
	}
	return amount, nil
}
