package service

import (
	"context"
	"testing"

	contractdomain "github.com/orbitfall/tradewind/internal/contract/domain"
	snapshotdomain "github.com/orbitfall/tradewind/internal/snapshot/domain"
	timelinedomain "github.com/orbitfall/tradewind/internal/timeline/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type contractStub struct {
	states []contractdomain.CanonicalState
}

func (s *contractStub) ResolveAll(context.Context) ([]contractdomain.CanonicalState, error) {
	return s.states, nil
}

func (s *contractStub) Resolve(context.Context, string) (contractdomain.CanonicalState, error) {
	return contractdomain.CanonicalState{}, contractdomain.ErrContractNotFound
}

func (s *contractStub) Stats(context.Context) (contractdomain.Stats, error) {
	return contractdomain.Stats{}, nil
}

func TestLayoutRejectsInvertedWindow(t *testing.T) {
	svc := NewService(ServiceParam{Log: zap.NewNop(), ContractSvc: &contractStub{}})

	_, err := svc.Layout(context.Background(), timelinedomain.Window{Start: at(9), End: at(1)})
	assert.ErrorIs(t, err, timelinedomain.ErrInvalidWindow)
}

func TestLayoutSkipsContractsWithoutDeadline(t *testing.T) {
	withDeadline := at(8)
	stub := &contractStub{states: []contractdomain.CanonicalState{
		{
			Record: snapshotdomain.SnapshotRecord{
				ContractID: "has-deadline",
				Status:     snapshotdomain.ContractStatusOpen,
				ObservedAt: at(2),
			},
			EffectiveDeadline: &withDeadline,
		},
		{
			Record: snapshotdomain.SnapshotRecord{
				ContractID: "no-deadline",
				Status:     snapshotdomain.ContractStatusOpen,
				ObservedAt: at(3),
			},
		},
	}}

	svc := NewService(ServiceParam{Log: zap.NewNop(), ContractSvc: stub})
	placements, err := svc.Layout(context.Background(), hourWindow(0, 23))
	require.NoError(t, err)
	require.Len(t, placements, 1)
	assert.Equal(t, "has-deadline", placements[0].ContractID)
	assert.Equal(t, at(2), placements[0].ClampedStart)
	assert.Equal(t, at(8), placements[0].ClampedEnd)
}
