package economy

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"starledger/internal/logger"
	"starledger/internal/metrics"
	"starledger/internal/wallet"
)

const reconcileTimeout = 5 * time.Minute

// Reconciler periodically folds every account's log and reports accounts
// whose cached balance no longer matches it.
type Reconciler struct {
	repo wallet.Repository
	cron *cron.Cron
}

func NewReconciler(repo wallet.Repository) *Reconciler {
	return &Reconciler{
		repo: repo,
		cron: cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
	}
}

func (r *Reconciler) RunOnce(ctx context.Context) ([]wallet.Mismatch, error) {
	mismatches, err := r.repo.Reconcile(ctx)
	if err != nil {
		metrics.RecordReconcile("error", 0)
		return nil, fmt.Errorf("reconcile failed: %w", err)
	}

	metrics.RecordReconcile("ok", len(mismatches))
	for _, m := range mismatches {
		logger.Error("ledger mismatch",
			"account_id", m.AccountID,
			"cached_balance", m.CachedBalance,
			"ledger_balance", m.LedgerBalance,
		)
	}
	if len(mismatches) == 0 {
		logger.Debug("ledger reconciled")
	}
	return mismatches, nil
}

// Start schedules RunOnce with a standard cron spec such as "@every 10m".
func (r *Reconciler) Start(schedule string) error {
	_, err := r.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), reconcileTimeout)
		defer cancel()
		if _, err := r.RunOnce(ctx); err != nil {
			logger.WithError(err).Error("scheduled reconciliation failed")
		}
	})
	if err != nil {
		return fmt.Errorf("invalid reconcile schedule %q: %w", schedule, err)
	}
	r.cron.Start()
	return nil
}

// Stop halts scheduling and waits for a running job to finish.
func (r *Reconciler) Stop() {
	<-r.cron.Stop().Done()
}
