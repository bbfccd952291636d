package service

import (
	"context"
	"testing"
	"time"

	contractdomain "github.com/orbitfall/tradewind/internal/contract/domain"
	snapshotdomain "github.com/orbitfall/tradewind/internal/snapshot/domain"
	ledgerdomain "github.com/orbitfall/tradewind/internal/tradeledger/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"
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

func day(n int) time.Time {
	return time.Date(2026, time.March, n, 12, 0, 0, 0, time.UTC)
}

func window(fromDay, toDay int) ledgerdomain.Window {
	return ledgerdomain.Window{
		From: time.Date(2026, time.March, fromDay, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2026, time.March, toDay, 23, 59, 59, 0, time.UTC),
	}
}

func fulfilledContract(id string, party snapshotdomain.Party, observedAt time.Time, conditions []snapshotdomain.Condition) contractdomain.CanonicalState {
	return contractdomain.CanonicalState{
		Record: snapshotdomain.SnapshotRecord{
			ContractID: id,
			Status:     snapshotdomain.ContractStatusFulfilled,
			Party:      party,
			ObservedAt: observedAt,
			Conditions: datatypes.NewJSONSlice(conditions),
		},
	}
}

func newLedgerService(states ...contractdomain.CanonicalState) ledgerdomain.Service {
	return NewService(ServiceParam{
		Log:         zap.NewNop(),
		ContractSvc: &contractStub{states: states},
	})
}

func TestSummarizeRejectsInvertedWindow(t *testing.T) {
	svc := newLedgerService()

	_, err := svc.Summarize(context.Background(), ledgerdomain.Window{From: day(5), To: day(1)})
	assert.ErrorIs(t, err, ledgerdomain.ErrInvalidWindow)
}

func TestSummarizeProviderRevenueSign(t *testing.T) {
	svc := newLedgerService(fulfilledContract("C-fin", snapshotdomain.PartyProvider, day(3), []snapshotdomain.Condition{
		{
			Index:     0,
			Type:      snapshotdomain.ConditionTypePayment,
			Status:    snapshotdomain.ConditionStatusFulfilled,
			Party:     snapshotdomain.PartyCustomer,
			Financial: &snapshotdomain.FinancialPayload{Amount: 1000, Currency: "ICA"},
		},
	}))

	summary, err := svc.Summarize(context.Background(), window(1, 31))
	require.NoError(t, err)
	assert.Equal(t, 1000.0, summary.Revenue)
	assert.Zero(t, summary.Expenses)
	assert.Equal(t, 1000.0, summary.Profit)
}

func TestSummarizeCustomerMirrorsAttribution(t *testing.T) {
	svc := newLedgerService(fulfilledContract("C-fin", snapshotdomain.PartyCustomer, day(3), []snapshotdomain.Condition{
		{
			Index:     0,
			Type:      snapshotdomain.ConditionTypePayment,
			Status:    snapshotdomain.ConditionStatusFulfilled,
			Party:     snapshotdomain.PartyCustomer,
			Financial: &snapshotdomain.FinancialPayload{Amount: 400, Currency: "ICA"},
		},
		{
			Index:     1,
			Type:      snapshotdomain.ConditionTypeFinancial,
			Status:    snapshotdomain.ConditionStatusFulfilled,
			Party:     snapshotdomain.PartyProvider,
			Financial: &snapshotdomain.FinancialPayload{Amount: 150, Currency: "ICA"},
		},
	}))

	summary, err := svc.Summarize(context.Background(), window(1, 31))
	require.NoError(t, err)
	assert.Equal(t, 150.0, summary.Revenue)
	assert.Equal(t, 400.0, summary.Expenses)
	assert.Equal(t, -250.0, summary.Profit)
}

func TestSummarizeIgnoresOtherCurrencies(t *testing.T) {
	svc := newLedgerService(fulfilledContract("C-fx", snapshotdomain.PartyProvider, day(3), []snapshotdomain.Condition{
		{
			Index:     0,
			Type:      snapshotdomain.ConditionTypePayment,
			Status:    snapshotdomain.ConditionStatusFulfilled,
			Party:     snapshotdomain.PartyCustomer,
			Financial: &snapshotdomain.FinancialPayload{Amount: 999, Currency: "NCC"},
		},
	}))

	summary, err := svc.Summarize(context.Background(), window(1, 31))
	require.NoError(t, err)
	assert.Zero(t, summary.Revenue)
	assert.Zero(t, summary.Expenses)
}

func TestSummarizeShipContractsExcludedFromMaterials(t *testing.T) {
	svc := newLedgerService(fulfilledContract("C-ship", snapshotdomain.PartyProvider, day(3), []snapshotdomain.Condition{
		{
			Index:    0,
			Type:     snapshotdomain.ConditionTypePickupShipment,
			Status:   snapshotdomain.ConditionStatusFulfilled,
			Material: &snapshotdomain.MaterialPayload{Ticker: "DW", Amount: 100},
		},
		{
			Index:  1,
			Type:   snapshotdomain.ConditionTypeDeliveryShipment,
			Status: snapshotdomain.ConditionStatusFulfilled,
		},
	}))

	summary, err := svc.Summarize(context.Background(), window(1, 31))
	require.NoError(t, err)
	assert.Empty(t, summary.PerMaterialTotal)
	assert.Empty(t, summary.PerDayPerMaterial)
}

func TestSummarizeDeliveryLegPairsWithPrecedingCondition(t *testing.T) {
	// PROVIDER without PROVISION classifies as BUY; flip to SELL via party
	// CUSTOMER without comex pickup to exercise the negative sign.
	svc := newLedgerService(fulfilledContract("C-pair", snapshotdomain.PartyCustomer, day(4), []snapshotdomain.Condition{
		{
			Index:  0,
			Type:   snapshotdomain.ConditionTypePayment,
			Status: snapshotdomain.ConditionStatusFulfilled,
		},
		{
			Index:    1,
			Type:     snapshotdomain.ConditionTypeProvision,
			Status:   snapshotdomain.ConditionStatusFulfilled,
			Material: &snapshotdomain.MaterialPayload{Ticker: "RAT", Amount: 50},
		},
		{
			Index:  2,
			Type:   snapshotdomain.ConditionTypeDeliveryShipment,
			Status: snapshotdomain.ConditionStatusFulfilled,
		},
	}))

	summary, err := svc.Summarize(context.Background(), window(1, 31))
	require.NoError(t, err)

	// Both the provision leg and the paired delivery leg contribute -50.
	assert.Equal(t, -100.0, summary.PerMaterialTotal["RAT"])
	require.Len(t, summary.PerDayPerMaterial, 1)
	flow := summary.PerDayPerMaterial[0]
	assert.Equal(t, "2026-03-04", flow.Date)
	assert.Equal(t, "RAT", flow.Ticker)
	assert.Zero(t, flow.Gains)
	assert.Equal(t, -100.0, flow.Losses)
}

func TestSummarizeDeliveryLegOnlyUsesPairedQuantity(t *testing.T) {
	// The preceding condition carries the quantity but is not itself a
	// material leg, so only the delivery leg contributes.
	svc := newLedgerService(fulfilledContract("C-pair2", snapshotdomain.PartyCustomer, day(4), []snapshotdomain.Condition{
		{
			Index:  0,
			Type:   snapshotdomain.ConditionTypeReputation,
			Status: snapshotdomain.ConditionStatusFulfilled,
		},
		{
			Index:    1,
			Type:     snapshotdomain.ConditionTypePayment,
			Status:   snapshotdomain.ConditionStatusFulfilled,
			Material: &snapshotdomain.MaterialPayload{Ticker: "RAT", Amount: 50},
		},
		{
			Index:  2,
			Type:   snapshotdomain.ConditionTypeDeliveryShipment,
			Status: snapshotdomain.ConditionStatusFulfilled,
		},
	}))

	summary, err := svc.Summarize(context.Background(), window(1, 31))
	require.NoError(t, err)
	assert.Equal(t, -50.0, summary.PerMaterialTotal["RAT"])
	require.Len(t, summary.PerDayPerMaterial, 1)
	assert.Equal(t, -50.0, summary.PerDayPerMaterial[0].Losses)
}

func TestSummarizeComexPickupExcludedOnSell(t *testing.T) {
	svc := newLedgerService(fulfilledContract("C-comex", snapshotdomain.PartyProvider, day(5), []snapshotdomain.Condition{
		{
			Index:    0,
			Type:     snapshotdomain.ConditionTypeProvision,
			Status:   snapshotdomain.ConditionStatusFulfilled,
			Material: &snapshotdomain.MaterialPayload{Ticker: "FE", Amount: 20},
		},
		{
			Index:    1,
			Type:     snapshotdomain.ConditionTypeComexPurchasePickup,
			Status:   snapshotdomain.ConditionStatusFulfilled,
			Material: &snapshotdomain.MaterialPayload{Ticker: "FE", Amount: 20},
		},
	}))

	summary, err := svc.Summarize(context.Background(), window(1, 31))
	require.NoError(t, err)
	assert.Equal(t, -20.0, summary.PerMaterialTotal["FE"])
}

func TestSummarizeComexPickupCountsOnBuy(t *testing.T) {
	svc := newLedgerService(fulfilledContract("C-buy", snapshotdomain.PartyCustomer, day(6), []snapshotdomain.Condition{
		{
			Index:    0,
			Type:     snapshotdomain.ConditionTypeComexPurchasePickup,
			Status:   snapshotdomain.ConditionStatusFulfilled,
			Material: &snapshotdomain.MaterialPayload{Ticker: "H2O", Amount: 300},
		},
	}))

	summary, err := svc.Summarize(context.Background(), window(1, 31))
	require.NoError(t, err)
	assert.Equal(t, 300.0, summary.PerMaterialTotal["H2O"])
	require.Len(t, summary.PerDayPerMaterial, 1)
	assert.Equal(t, 300.0, summary.PerDayPerMaterial[0].Gains)
}

func TestSummarizeMissingMaterialPayloadSkipped(t *testing.T) {
	svc := newLedgerService(fulfilledContract("C-miss", snapshotdomain.PartyCustomer, day(7), []snapshotdomain.Condition{
		{
			Index:  0,
			Type:   snapshotdomain.ConditionTypeProvision,
			Status: snapshotdomain.ConditionStatusFulfilled,
		},
	}))

	summary, err := svc.Summarize(context.Background(), window(1, 31))
	require.NoError(t, err)
	assert.Empty(t, summary.PerMaterialTotal)
	assert.Equal(t, 1, summary.SkippedConditions)
}

func TestSummarizeWindowFiltersByObservedAt(t *testing.T) {
	inside := fulfilledContract("C-in", snapshotdomain.PartyCustomer, day(10), []snapshotdomain.Condition{
		{
			Index:    0,
			Type:     snapshotdomain.ConditionTypeComexPurchasePickup,
			Status:   snapshotdomain.ConditionStatusFulfilled,
			Material: &snapshotdomain.MaterialPayload{Ticker: "COF", Amount: 5},
		},
	})
	outside := fulfilledContract("C-out", snapshotdomain.PartyCustomer, day(25), []snapshotdomain.Condition{
		{
			Index:    0,
			Type:     snapshotdomain.ConditionTypeComexPurchasePickup,
			Status:   snapshotdomain.ConditionStatusFulfilled,
			Material: &snapshotdomain.MaterialPayload{Ticker: "COF", Amount: 7},
		},
	})
	notFulfilled := fulfilledContract("C-open", snapshotdomain.PartyCustomer, day(10), nil)
	notFulfilled.Record.Status = snapshotdomain.ContractStatusOpen

	svc := newLedgerService(inside, outside, notFulfilled)

	summary, err := svc.Summarize(context.Background(), window(1, 15))
	require.NoError(t, err)
	assert.Equal(t, 1, summary.ContractsConsidered)
	assert.Equal(t, 5.0, summary.PerMaterialTotal["COF"])
}

func TestSummarizeDayBucketsOrderedByDateThenTicker(t *testing.T) {
	svc := newLedgerService(
		fulfilledContract("C-1", snapshotdomain.PartyCustomer, day(9), []snapshotdomain.Condition{
			{Index: 0, Type: snapshotdomain.ConditionTypeComexPurchasePickup, Status: snapshotdomain.ConditionStatusFulfilled, Material: &snapshotdomain.MaterialPayload{Ticker: "ZZZ", Amount: 1}},
		}),
		fulfilledContract("C-2", snapshotdomain.PartyCustomer, day(9), []snapshotdomain.Condition{
			{Index: 0, Type: snapshotdomain.ConditionTypeComexPurchasePickup, Status: snapshotdomain.ConditionStatusFulfilled, Material: &snapshotdomain.MaterialPayload{Ticker: "AAA", Amount: 2}},
		}),
		fulfilledContract("C-3", snapshotdomain.PartyCustomer, day(2), []snapshotdomain.Condition{
			{Index: 0, Type: snapshotdomain.ConditionTypeComexPurchasePickup, Status: snapshotdomain.ConditionStatusFulfilled, Material: &snapshotdomain.MaterialPayload{Ticker: "MMM", Amount: 3}},
		}),
	)

	summary, err := svc.Summarize(context.Background(), window(1, 31))
	require.NoError(t, err)
	require.Len(t, summary.PerDayPerMaterial, 3)
	assert.Equal(t, "2026-03-02", summary.PerDayPerMaterial[0].Date)
	assert.Equal(t, "AAA", summary.PerDayPerMaterial[1].Ticker)
	assert.Equal(t, "ZZZ", summary.PerDayPerMaterial[2].Ticker)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		party    snapshotdomain.Party
		types    []string
		expected ledgerdomain.ContractType
	}{
		{"ship beats role", snapshotdomain.PartyCustomer, []string{snapshotdomain.ConditionTypePickupShipment, snapshotdomain.ConditionTypeDeliveryShipment}, ledgerdomain.ContractTypeShip},
		{"customer with comex pickup buys", snapshotdomain.PartyCustomer, []string{snapshotdomain.ConditionTypeComexPurchasePickup}, ledgerdomain.ContractTypeBuy},
		{"customer without comex pickup sells", snapshotdomain.PartyCustomer, []string{snapshotdomain.ConditionTypePayment}, ledgerdomain.ContractTypeSell},
		{"provider with provision sells", snapshotdomain.PartyProvider, []string{snapshotdomain.ConditionTypeProvision}, ledgerdomain.ContractTypeSell},
		{"provider without provision buys", snapshotdomain.PartyProvider, []string{snapshotdomain.ConditionTypePayment}, ledgerdomain.ContractTypeBuy},
		{"unknown party", "", []string{snapshotdomain.ConditionTypePayment}, ledgerdomain.ContractTypeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conditions := make([]snapshotdomain.Condition, 0, len(tt.types))
			for i, typ := range tt.types {
				conditions = append(conditions, snapshotdomain.Condition{Index: i, Type: typ, Status: snapshotdomain.ConditionStatusFulfilled})
			}
			record := snapshotdomain.SnapshotRecord{
				Party:      tt.party,
				Conditions: datatypes.NewJSONSlice(conditions),
			}
			assert.Equal(t, tt.expected, Classify(record))
		})
	}
}
