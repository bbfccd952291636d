package service

import (
	"context"
	"sort"

	"github.com/orbitfall/tradewind/internal/config"
	contractdomain "github.com/orbitfall/tradewind/internal/contract/domain"
	obsmetrics "github.com/orbitfall/tradewind/internal/observability/metrics"
	snapshotdomain "github.com/orbitfall/tradewind/internal/snapshot/domain"
	ledgerdomain "github.com/orbitfall/tradewind/internal/tradeledger/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type ServiceParam struct {
	fx.In

	Log         *zap.Logger
	ContractSvc contractdomain.Service
	LedgerCfg   *config.LedgerConfigHolder
	ObsMetrics  *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	log         *zap.Logger
	contractSvc contractdomain.Service
	ledgerCfg   *config.LedgerConfigHolder
	obsMetrics  *obsmetrics.Metrics
}

func NewService(p ServiceParam) ledgerdomain.Service {
	return &Service{
		log:         p.Log.Named("tradeledger.service"),
		contractSvc: p.ContractSvc,
		ledgerCfg:   p.LedgerCfg,
		obsMetrics:  p.ObsMetrics,
	}
}

// Summarize aggregates financial and material flow over every fulfilled
// contract observed inside the window. Malformed log content degrades
// per-condition, never fails the call; only an inverted window is fatal.
func (s *Service) Summarize(ctx context.Context, window ledgerdomain.Window) (ledgerdomain.Summary, error) {
	if err := window.Validate(); err != nil {
		return ledgerdomain.Summary{}, err
	}

	states, err := s.contractSvc.ResolveAll(ctx)
	if err != nil {
		return ledgerdomain.Summary{}, err
	}

	currency := s.ledgerCfg.Current().Currency
	summary := ledgerdomain.Summary{
		Currency:         currency,
		PerMaterialTotal: make(map[string]float64),
	}
	dayBuckets := make(map[string]map[string]*ledgerdomain.MaterialFlow)

	for _, state := range states {
		record := state.Record
		if record.Status != snapshotdomain.ContractStatusFulfilled {
			continue
		}
		if !window.Contains(record.ObservedAt) {
			continue
		}
		summary.ContractsConsidered++

		contractType := Classify(record)
		s.accumulateFinancial(&summary, record, currency)
		s.accumulateMaterial(&summary, dayBuckets, record, contractType)
	}

	summary.Profit = summary.Revenue - summary.Expenses
	summary.PerDayPerMaterial = flattenDayBuckets(dayBuckets)

	s.obsMetrics.RecordLedgerQuery(ctx, observerRole(states))
	return summary, nil
}

// Classify infers what kind of trade a contract represents from the set of
// condition types it carries and the observer's side of it.
func Classify(record snapshotdomain.SnapshotRecord) ledgerdomain.ContractType {
	types := make(map[string]bool, len(record.Conditions))
	for _, c := range record.Conditions {
		if c.Type != "" {
			types[c.Type] = true
		}
	}

	if types[snapshotdomain.ConditionTypePickupShipment] && types[snapshotdomain.ConditionTypeDeliveryShipment] {
		return ledgerdomain.ContractTypeShip
	}
	switch record.Party {
	case snapshotdomain.PartyCustomer:
		if types[snapshotdomain.ConditionTypeComexPurchasePickup] {
			return ledgerdomain.ContractTypeBuy
		}
		return ledgerdomain.ContractTypeSell
	case snapshotdomain.PartyProvider:
		if types[snapshotdomain.ConditionTypeProvision] {
			return ledgerdomain.ContractTypeSell
		}
		return ledgerdomain.ContractTypeBuy
	default:
		return ledgerdomain.ContractTypeUnknown
	}
}

func isFinancialCondition(c snapshotdomain.Condition) bool {
	return c.Type == snapshotdomain.ConditionTypePayment || c.Type == snapshotdomain.ConditionTypeFinancial
}

func isMaterialCondition(c snapshotdomain.Condition) bool {
	switch c.Type {
	case snapshotdomain.ConditionTypeProvisionShipment,
		snapshotdomain.ConditionTypePickupShipment,
		snapshotdomain.ConditionTypeDeliveryShipment,
		snapshotdomain.ConditionTypeDelivery,
		snapshotdomain.ConditionTypeProvision,
		snapshotdomain.ConditionTypeComexPurchasePickup:
		return true
	default:
		return false
	}
}

func (s *Service) accumulateFinancial(summary *ledgerdomain.Summary, record snapshotdomain.SnapshotRecord, currency string) {
	for _, c := range record.Conditions {
		if !isFinancialCondition(c) {
			continue
		}
		if c.Financial == nil || c.Financial.Amount == 0 {
			continue
		}
		// Other currencies are out of scope for the totals.
		if c.Financial.Currency != currency {
			continue
		}

		amount := c.Financial.Amount
		switch record.Party {
		case snapshotdomain.PartyProvider:
			switch c.Party {
			case snapshotdomain.PartyCustomer:
				summary.Revenue += amount
			case snapshotdomain.PartyProvider:
				summary.Expenses += amount
			}
		case snapshotdomain.PartyCustomer:
			switch c.Party {
			case snapshotdomain.PartyCustomer:
				summary.Expenses += amount
			case snapshotdomain.PartyProvider:
				summary.Revenue += amount
			}
		}
	}
}

func (s *Service) accumulateMaterial(
	summary *ledgerdomain.Summary,
	dayBuckets map[string]map[string]*ledgerdomain.MaterialFlow,
	record snapshotdomain.SnapshotRecord,
	contractType ledgerdomain.ContractType,
) {
	if contractType == ledgerdomain.ContractTypeShip || contractType == ledgerdomain.ContractTypeUnknown {
		return
	}
	if record.Status == snapshotdomain.ContractStatusCancelled {
		return
	}

	dateKey := record.ObservedAt.UTC().Format("2006-01-02")

	for _, c := range record.Conditions {
		if !isMaterialCondition(c) {
			continue
		}

		payload := c.Material
		if c.Type == snapshotdomain.ConditionTypeDeliveryShipment {
			// Delivery completion legs are paired with the preceding pickup
			// leg, which carries the authoritative quantity.
			prev := c.Index - 1
			if prev < 0 || prev >= len(record.Conditions) {
				summary.SkippedConditions++
				s.logAnomaly(record, c, "delivery leg has no preceding condition")
				continue
			}
			payload = record.Conditions[prev].Material
		}

		if payload == nil || payload.Ticker == "" {
			summary.SkippedConditions++
			s.logAnomaly(record, c, "material payload missing")
			continue
		}

		bucket := dayBuckets[dateKey]
		if bucket == nil {
			bucket = make(map[string]*ledgerdomain.MaterialFlow)
			dayBuckets[dateKey] = bucket
		}
		flow := bucket[payload.Ticker]
		if flow == nil {
			flow = &ledgerdomain.MaterialFlow{Date: dateKey, Ticker: payload.Ticker}
			bucket[payload.Ticker] = flow
		}

		switch contractType {
		case ledgerdomain.ContractTypeBuy:
			flow.Gains += payload.Amount
			summary.PerMaterialTotal[payload.Ticker] += payload.Amount
		case ledgerdomain.ContractTypeSell:
			// The counterparty's comex pickup is not this account's flow.
			if c.Type == snapshotdomain.ConditionTypeComexPurchasePickup {
				continue
			}
			flow.Losses -= payload.Amount
			summary.PerMaterialTotal[payload.Ticker] -= payload.Amount
		}
	}
}

func (s *Service) logAnomaly(record snapshotdomain.SnapshotRecord, c snapshotdomain.Condition, reason string) {
	s.log.Warn("condition skipped",
		zap.String("contract_id", record.ContractID),
		zap.Int("condition_index", c.Index),
		zap.String("condition_type", c.Type),
		zap.String("reason", reason),
	)
}

func flattenDayBuckets(dayBuckets map[string]map[string]*ledgerdomain.MaterialFlow) []ledgerdomain.MaterialFlow {
	flows := make([]ledgerdomain.MaterialFlow, 0, len(dayBuckets))
	for _, bucket := range dayBuckets {
		for _, flow := range bucket {
			flows = append(flows, *flow)
		}
	}
	sort.Slice(flows, func(i, j int) bool {
		if flows[i].Date != flows[j].Date {
			return flows[i].Date < flows[j].Date
		}
		return flows[i].Ticker < flows[j].Ticker
	})
	return flows
}

func observerRole(states []contractdomain.CanonicalState) string {
	for _, state := range states {
		if state.Record.Party != "" {
			return string(state.Record.Party)
		}
	}
	return ""
}
