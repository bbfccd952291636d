package service

import (
	"context"

	contractdomain "github.com/orbitfall/tradewind/internal/contract/domain"
	obsmetrics "github.com/orbitfall/tradewind/internal/observability/metrics"
	timelinedomain "github.com/orbitfall/tradewind/internal/timeline/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type ServiceParam struct {
	fx.In

	Log         *zap.Logger
	ContractSvc contractdomain.Service
	ObsMetrics  *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	log         *zap.Logger
	contractSvc contractdomain.Service
	obsMetrics  *obsmetrics.Metrics
}

func NewService(p ServiceParam) timelinedomain.Service {
	return &Service{
		log:         p.Log.Named("timeline.service"),
		contractSvc: p.ContractSvc,
		obsMetrics:  p.ObsMetrics,
	}
}

// Layout derives one interval per canonical contract (observation time to
// effective deadline) and assigns display lanes within the window. Contracts
// without an end time cannot be placed and are left out.
func (s *Service) Layout(ctx context.Context, window timelinedomain.Window) ([]timelinedomain.Placement, error) {
	if err := window.Validate(); err != nil {
		return nil, err
	}

	states, err := s.contractSvc.ResolveAll(ctx)
	if err != nil {
		return nil, err
	}

	intervals := make([]timelinedomain.Interval, 0, len(states))
	for _, state := range states {
		if state.EffectiveDeadline == nil {
			continue
		}
		intervals = append(intervals, timelinedomain.Interval{
			ContractID: state.ContractID(),
			Start:      state.Record.ObservedAt,
			End:        *state.EffectiveDeadline,
		})
	}

	placements := AssignLanes(intervals, window)
	s.obsMetrics.RecordLaneAssignments(ctx, len(placements))
	s.log.Debug("timeline laid out",
		zap.Int("intervals", len(intervals)),
		zap.Int("placed", len(placements)),
	)
	return placements, nil
}
