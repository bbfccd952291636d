package reconcile

import (
	"context"
	"time"

	"github.com/orbitfall/tradewind/internal/clock"
	contractdomain "github.com/orbitfall/tradewind/internal/contract/domain"
	"github.com/orbitfall/tradewind/internal/observability/metrics"
	snapshotdomain "github.com/orbitfall/tradewind/internal/snapshot/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log         *zap.Logger
	ContractSvc contractdomain.Service
	Clock       clock.Clock
	Config      Config `optional:"true"`
}

// Worker periodically recomputes canonical contract states, publishes health
// gauges and flags contracts whose effective deadline has passed. The engine
// itself stays pure; the worker is just an outer consumer of it.
type Worker struct {
	log         *zap.Logger
	contractSvc contractdomain.Service
	clock       clock.Clock
	cfg         Config
}

func NewWorker(p Params) *Worker {
	return &Worker{
		log:         p.Log.Named("reconcile.worker"),
		contractSvc: p.ContractSvc,
		clock:       p.Clock,
		cfg:         p.Config.withDefaults(),
	}
}

func (w *Worker) RunForever(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		if err := w.RunOnce(ctx); err != nil {
			w.log.Warn("reconcile run failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (w *Worker) RunOnce(parentCtx context.Context) error {
	ctx, cancel := context.WithTimeout(parentCtx, w.cfg.RunTimeout)
	defer cancel()

	started := time.Now()
	overdue, err := w.reconcile(ctx)
	elapsed := time.Since(started)

	outcome := metrics.ReconcileOutcomeOK
	if err != nil {
		outcome = metrics.ReconcileOutcomeError
	}
	metrics.Reconcile().ObserveRun(outcome, elapsed)
	if err != nil {
		return err
	}

	metrics.Reconcile().SetOverdueContracts(overdue)
	return nil
}

func (w *Worker) reconcile(ctx context.Context) (int, error) {
	states, err := w.contractSvc.ResolveAll(ctx)
	if err != nil {
		return 0, err
	}

	metrics.Reconcile().SetTrackedContracts(len(states))

	now := w.clock.Now()
	overdue := 0
	examined := 0
	for _, state := range states {
		examined += len(state.Record.Conditions)
		if !isOpen(state.Record.Status) {
			continue
		}
		if state.EffectiveDeadline == nil || !state.EffectiveDeadline.Before(now) {
			continue
		}
		overdue++
		w.log.Warn("contract past deadline",
			zap.String("contract_id", state.ContractID()),
			zap.Time("effective_deadline", *state.EffectiveDeadline),
			zap.Duration("overdue_by", now.Sub(*state.EffectiveDeadline)),
		)
	}
	metrics.Reconcile().AddSnapshotsExamined(examined)

	w.log.Debug("reconcile pass complete",
		zap.Int("contracts", len(states)),
		zap.Int("overdue", overdue),
	)
	return overdue, nil
}

func isOpen(status snapshotdomain.ContractStatus) bool {
	switch status {
	case snapshotdomain.ContractStatusOpen, snapshotdomain.ContractStatusPartiallyFulfilled:
		return true
	default:
		return false
	}
}
