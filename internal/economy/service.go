package economy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"starledger/internal/config"
	"starledger/internal/idempotency"
	"starledger/internal/logger"
	"starledger/internal/metrics"
	"starledger/internal/rules"
	"starledger/internal/wallet"
)

type Service interface {
	Balance(ctx context.Context, accountID string) (*Balance, error)
	Account(ctx context.Context, accountID string) (*wallet.Account, error)
	Earn(ctx context.Context, req EarnRequest) (*EarnResult, error)
	Spend(ctx context.Context, req SpendRequest) (*SpendResult, error)
	Transactions(ctx context.Context, accountID string, limit, offset int) (*TransactionPage, error)
	Rules(includeInactive bool) []rules.Rule
	SetRuleActive(action string, active bool) (rules.Rule, error)
}

type Options struct {
	// DailyCapMode is config.DailyCapClamp or config.DailyCapCumulative.
	DailyCapMode string
}

type service struct {
	repo     wallet.Repository
	registry *rules.Registry
	idem     idempotency.Store
	opts     Options
}

// NewService wires the earning and spending engines. idem may be nil, in
// which case idempotency keys are only enforced by the repository.
func NewService(repo wallet.Repository, registry *rules.Registry, idem idempotency.Store, opts Options) Service {
	if opts.DailyCapMode == "" {
		opts.DailyCapMode = config.DailyCapClamp
	}
	return &service{
		repo:     repo,
		registry: registry,
		idem:     idem,
		opts:     opts,
	}
}

func (s *service) Balance(ctx context.Context, accountID string) (*Balance, error) {
	if accountID == "" {
		return nil, fmt.Errorf("%w: account id is required", ErrInvalidRequest)
	}
	acc, err := s.repo.GetOrCreate(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return &Balance{
		Balance:     acc.Balance,
		TotalEarned: acc.TotalEarned,
		TotalSpent:  acc.TotalSpent,
		LastUpdated: acc.LastUpdated,
	}, nil
}

func (s *service) Account(ctx context.Context, accountID string) (*wallet.Account, error) {
	return s.repo.GetAccount(ctx, accountID)
}

func (s *service) Earn(ctx context.Context, req EarnRequest) (*EarnResult, error) {
	res, err := s.earn(ctx, req)
	s.record(wallet.KindEarn, err)
	return res, err
}

func (s *service) earn(ctx context.Context, req EarnRequest) (*EarnResult, error) {
	if req.AccountID == "" {
		return nil, fmt.Errorf("%w: account id is required", ErrInvalidRequest)
	}
	if strings.TrimSpace(req.Action) == "" {
		return nil, fmt.Errorf("%w: action is required", ErrInvalidRequest)
	}

	rule, err := s.registry.Resolve(req.Action)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidRule, req.Action, err)
	}

	base := rule.BaseAmount
	if req.Amount != nil {
		if *req.Amount < 0 {
			return nil, ErrInvalidAmount
		}
		base = *req.Amount
	}
	reward, err := rule.Reward(base)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidAmount, err)
	}

	entry := wallet.Entry{
		AccountID:      req.AccountID,
		Kind:           wallet.KindEarn,
		Amount:         rule.Clamp(reward),
		Source:         rule.Action,
		Description:    rule.Description,
		Metadata:       req.Metadata,
		IdempotencyKey: req.IdempotencyKey,
	}
	if s.opts.DailyCapMode == config.DailyCapCumulative && rule.DailyLimit != nil {
		entry.DailyCap = *rule.DailyLimit
	}

	return runIdempotent(ctx, s.idem, req.AccountID, wallet.KindEarn, req.IdempotencyKey, func() (*EarnResult, error) {
		acc, tx, err := s.repo.Apply(ctx, entry)
		if err != nil {
			return nil, err
		}
		metrics.RecordStars(string(tx.Kind), tx.Source, tx.Amount)
		logger.Info("stars earned",
			"account_id", acc.AccountID,
			"action", rule.Action,
			"amount", tx.Amount,
			"balance", acc.Balance,
		)
		return &EarnResult{AppliedAmount: tx.Amount, NewBalance: acc.Balance, Transaction: *tx}, nil
	})
}

func (s *service) Spend(ctx context.Context, req SpendRequest) (*SpendResult, error) {
	res, err := s.spend(ctx, req)
	s.record(wallet.KindSpend, err)
	return res, err
}

func (s *service) spend(ctx context.Context, req SpendRequest) (*SpendResult, error) {
	switch {
	case req.AccountID == "":
		return nil, fmt.Errorf("%w: account id is required", ErrInvalidRequest)
	case strings.TrimSpace(req.Purpose) == "":
		return nil, fmt.Errorf("%w: purpose is required", ErrInvalidRequest)
	case strings.TrimSpace(req.Description) == "":
		return nil, fmt.Errorf("%w: description is required", ErrInvalidRequest)
	case req.Amount <= 0:
		return nil, ErrInvalidAmount
	}

	entry := wallet.Entry{
		AccountID:      req.AccountID,
		Kind:           wallet.KindSpend,
		Amount:         req.Amount,
		Source:         req.Purpose,
		Description:    req.Description,
		Metadata:       req.Metadata,
		IdempotencyKey: req.IdempotencyKey,
	}

	return runIdempotent(ctx, s.idem, req.AccountID, wallet.KindSpend, req.IdempotencyKey, func() (*SpendResult, error) {
		acc, tx, err := s.repo.Apply(ctx, entry)
		if err != nil {
			return nil, err
		}
		// Purposes are client supplied, so they stay out of metric labels.
		metrics.RecordStars(string(tx.Kind), "any", tx.Amount)
		logger.Info("stars spent",
			"account_id", acc.AccountID,
			"purpose", req.Purpose,
			"amount", tx.Amount,
			"balance", acc.Balance,
		)
		return &SpendResult{NewBalance: acc.Balance, Transaction: *tx}, nil
	})
}

func (s *service) Transactions(ctx context.Context, accountID string, limit, offset int) (*TransactionPage, error) {
	if accountID == "" {
		return nil, fmt.Errorf("%w: account id is required", ErrInvalidRequest)
	}
	page, err := s.repo.ListTransactions(ctx, accountID, limit, offset)
	if err != nil {
		return nil, err
	}
	return &TransactionPage{
		Transactions: page.Transactions,
		Total:        page.Total,
		HasMore:      page.HasMore,
	}, nil
}

func (s *service) Rules(includeInactive bool) []rules.Rule {
	return s.registry.List(includeInactive)
}

func (s *service) SetRuleActive(action string, active bool) (rules.Rule, error) {
	rule, err := s.registry.SetActive(action, active)
	if err != nil {
		return rules.Rule{}, fmt.Errorf("%w: %q: %v", ErrInvalidRule, action, err)
	}
	logger.Info("earning rule toggled", "action", action, "active", active)
	return rule, nil
}

func (s *service) record(kind wallet.Kind, err error) {
	outcome := "ok"
	if err != nil {
		outcome = Kind(err)
		if outcome == KindInternal {
			logger.WithError(err).Error("ledger operation failed")
		}
	}
	metrics.RecordOperation(string(kind), outcome)
}

// runIdempotent runs apply at most once per (account, kind, key). A finished
// key replays its stored result; a failed attempt releases the key.
func runIdempotent[T any](ctx context.Context, store idempotency.Store, accountID string, kind wallet.Kind, key string, apply func() (*T, error)) (*T, error) {
	if key == "" || store == nil {
		return apply()
	}

	scoped := idempotency.Key(accountID, string(kind), key)
	cached, err := store.Reserve(ctx, scoped)
	if err != nil {
		return nil, err
	}
	if cached != nil {
		var res T
		if err := json.Unmarshal(cached, &res); err != nil {
			return nil, fmt.Errorf("failed to decode stored result: %w", err)
		}
		metrics.RecordReplay(string(kind))
		return &res, nil
	}

	res, err := apply()
	if err != nil {
		if relErr := store.Release(ctx, scoped); relErr != nil {
			logger.WithError(relErr).Warn("failed to release idempotency key")
		}
		return nil, err
	}

	payload, err := json.Marshal(res)
	if err == nil {
		err = store.Commit(ctx, scoped, payload)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		// The entry is applied; the repository rejects a second apply of the same key.
		logger.WithError(err).Warn("failed to store idempotent result")
	}
	return res, nil
}
