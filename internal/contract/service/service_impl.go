package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/orbitfall/tradewind/internal/cache"
	"github.com/orbitfall/tradewind/internal/clock"
	contractdomain "github.com/orbitfall/tradewind/internal/contract/domain"
	snapshotdomain "github.com/orbitfall/tradewind/internal/snapshot/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// resolveMemoTTL bounds staleness if the version probe itself races an
// insert. Correctness never depends on a hit.
const resolveMemoTTL = 30 * time.Second

type ServiceParam struct {
	fx.In

	Log   *zap.Logger
	Repo  snapshotdomain.Repository
	Clock clock.Clock
}

type Service struct {
	log   *zap.Logger
	repo  snapshotdomain.Repository
	clock clock.Clock
	memo  cache.Cache[string, []contractdomain.CanonicalState]
}

func NewService(p ServiceParam) contractdomain.Service {
	return &Service{
		log:   p.Log.Named("contract.service"),
		repo:  p.Repo,
		clock: p.Clock,
		memo:  cache.NewTTLCache[string, []contractdomain.CanonicalState](),
	}
}

// ResolveAll recomputes every contract's canonical state from the full log.
// Results are memoized per log version; the append-only log makes
// (count, max id) a sound version key.
func (s *Service) ResolveAll(ctx context.Context) ([]contractdomain.CanonicalState, error) {
	version, err := s.repo.Version(ctx)
	if err != nil {
		return nil, err
	}
	key := fmt.Sprintf("%d:%d", version.Count, version.MaxID)
	if states, ok := s.memo.Get(key); ok {
		return states, nil
	}

	records, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	grouped := make(map[string][]snapshotdomain.SnapshotRecord)
	order := make([]string, 0)
	for _, record := range records {
		if _, seen := grouped[record.ContractID]; !seen {
			order = append(order, record.ContractID)
		}
		grouped[record.ContractID] = append(grouped[record.ContractID], record)
	}

	states := make([]contractdomain.CanonicalState, 0, len(order))
	for _, contractID := range order {
		canonical, ok := SelectCanonical(grouped[contractID])
		if !ok {
			continue
		}
		states = append(states, contractdomain.CanonicalState{
			Record:            canonical,
			FulfillmentRatio:  canonical.FulfillmentRatio(),
			EffectiveDeadline: EffectiveDeadline(canonical),
		})
	}

	sort.SliceStable(states, func(i, j int) bool {
		pi := snapshotdomain.StatusPriority(states[i].Record.Status)
		pj := snapshotdomain.StatusPriority(states[j].Record.Status)
		if pi != pj {
			return pi < pj
		}
		return states[i].Record.ObservedAt.After(states[j].Record.ObservedAt)
	})

	s.memo.Set(key, states, resolveMemoTTL)
	return states, nil
}

func (s *Service) Resolve(ctx context.Context, contractID string) (contractdomain.CanonicalState, error) {
	contractID = strings.TrimSpace(contractID)
	if contractID == "" {
		return contractdomain.CanonicalState{}, contractdomain.ErrInvalidContractID
	}

	records, err := s.repo.ListByContract(ctx, contractID)
	if err != nil {
		return contractdomain.CanonicalState{}, err
	}

	canonical, ok := SelectCanonical(records)
	if !ok {
		return contractdomain.CanonicalState{}, contractdomain.ErrContractNotFound
	}

	return contractdomain.CanonicalState{
		Record:            canonical,
		FulfillmentRatio:  canonical.FulfillmentRatio(),
		EffectiveDeadline: EffectiveDeadline(canonical),
	}, nil
}

func (s *Service) Stats(ctx context.Context) (contractdomain.Stats, error) {
	states, err := s.ResolveAll(ctx)
	if err != nil {
		return contractdomain.Stats{}, err
	}

	now := s.clock.Now()
	weekAgo := now.Add(-7 * 24 * time.Hour)
	twoWeeksAgo := now.Add(-14 * 24 * time.Hour)

	stats := contractdomain.Stats{Total: len(states)}
	for _, state := range states {
		switch state.Record.Status {
		case snapshotdomain.ContractStatusFulfilled:
			stats.Fulfilled++
		case snapshotdomain.ContractStatusOpen, snapshotdomain.ContractStatusClosed:
			stats.OpenOrClosed++
		case snapshotdomain.ContractStatusPartiallyFulfilled:
			stats.PartiallyFulfilled++
		}

		observedAt := state.Record.ObservedAt
		if !observedAt.Before(weekAgo) {
			stats.RecentCount++
		} else if !observedAt.Before(twoWeeksAgo) {
			stats.PreviousCount++
		}

		if stats.EarliestObservedAt == nil || observedAt.Before(*stats.EarliestObservedAt) {
			earliest := observedAt
			stats.EarliestObservedAt = &earliest
		}
		if stats.LatestObservedAt == nil || observedAt.After(*stats.LatestObservedAt) {
			latest := observedAt
			stats.LatestObservedAt = &latest
		}
	}

	stats.RecentDelta = stats.RecentCount - stats.PreviousCount
	return stats, nil
}
