package reconcile

import (
	"context"
	"testing"
	"time"

	"github.com/orbitfall/tradewind/internal/clock"
	contractdomain "github.com/orbitfall/tradewind/internal/contract/domain"
	snapshotdomain "github.com/orbitfall/tradewind/internal/snapshot/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type contractStub struct {
	states []contractdomain.CanonicalState
	err    error
}

func (s *contractStub) ResolveAll(context.Context) ([]contractdomain.CanonicalState, error) {
	return s.states, s.err
}

func (s *contractStub) Resolve(context.Context, string) (contractdomain.CanonicalState, error) {
	return contractdomain.CanonicalState{}, contractdomain.ErrContractNotFound
}

func (s *contractStub) Stats(context.Context) (contractdomain.Stats, error) {
	return contractdomain.Stats{}, nil
}

func TestWorkerCountsOverdueOpenContracts(t *testing.T) {
	now := time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)
	fakeClock := clock.NewFakeClock(now)

	past := now.Add(-2 * time.Hour)
	future := now.Add(2 * time.Hour)

	stub := &contractStub{states: []contractdomain.CanonicalState{
		{
			Record:            snapshotdomain.SnapshotRecord{ContractID: "overdue-open", Status: snapshotdomain.ContractStatusOpen, ObservedAt: past},
			EffectiveDeadline: &past,
		},
		{
			Record:            snapshotdomain.SnapshotRecord{ContractID: "on-time-open", Status: snapshotdomain.ContractStatusOpen, ObservedAt: past},
			EffectiveDeadline: &future,
		},
		{
			Record:            snapshotdomain.SnapshotRecord{ContractID: "overdue-fulfilled", Status: snapshotdomain.ContractStatusFulfilled, ObservedAt: past},
			EffectiveDeadline: &past,
		},
		{
			Record: snapshotdomain.SnapshotRecord{ContractID: "no-deadline", Status: snapshotdomain.ContractStatusPartiallyFulfilled, ObservedAt: past},
		},
	}}

	worker := NewWorker(Params{Log: zap.NewNop(), ContractSvc: stub, Clock: fakeClock})

	overdue, err := worker.reconcile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, overdue)

	fakeClock.Advance(3 * time.Hour)
	overdue, err = worker.reconcile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, overdue)
}

func TestWorkerRunOncePropagatesResolveError(t *testing.T) {
	stub := &contractStub{err: assert.AnError}
	worker := NewWorker(Params{
		Log:         zap.NewNop(),
		ContractSvc: stub,
		Clock:       clock.NewFakeClock(time.Now()),
	})

	assert.Error(t, worker.RunOnce(context.Background()))
}
