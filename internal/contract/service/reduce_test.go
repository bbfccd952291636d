package service

import (
	"testing"
	"time"

	snapshotdomain "github.com/orbitfall/tradewind/internal/snapshot/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func day(n int) time.Time {
	return time.Date(2026, time.March, n, 12, 0, 0, 0, time.UTC)
}

func conditionsWithFulfilled(fulfilled, total int) datatypes.JSONSlice[snapshotdomain.Condition] {
	out := make([]snapshotdomain.Condition, 0, total)
	for i := 0; i < total; i++ {
		status := snapshotdomain.ConditionStatusOpen
		if i < fulfilled {
			status = snapshotdomain.ConditionStatusFulfilled
		}
		out = append(out, snapshotdomain.Condition{
			Index:  i,
			Type:   snapshotdomain.ConditionTypePayment,
			Status: status,
		})
	}
	return datatypes.NewJSONSlice(out)
}

func TestSelectCanonicalEmptyInput(t *testing.T) {
	_, ok := SelectCanonical(nil)
	assert.False(t, ok)
}

func TestSelectCanonicalPrefersHigherRatioOverRecency(t *testing.T) {
	a := snapshotdomain.SnapshotRecord{
		ContractID: "C-A",
		Status:     snapshotdomain.ContractStatusPartiallyFulfilled,
		ObservedAt: day(3),
		Conditions: conditionsWithFulfilled(2, 4),
	}
	b := snapshotdomain.SnapshotRecord{
		ContractID: "C-A",
		Status:     snapshotdomain.ContractStatusPartiallyFulfilled,
		ObservedAt: day(1),
		Conditions: conditionsWithFulfilled(3, 4),
	}

	canonical, ok := SelectCanonical([]snapshotdomain.SnapshotRecord{a, b})
	require.True(t, ok)
	assert.Equal(t, b.ObservedAt, canonical.ObservedAt)
	assert.InDelta(t, 0.75, canonical.FulfillmentRatio(), 1e-9)
}

func TestSelectCanonicalRecencyBreaksRatioTies(t *testing.T) {
	older := snapshotdomain.SnapshotRecord{
		ContractID: "C-B",
		Status:     snapshotdomain.ContractStatusOpen,
		ObservedAt: day(1),
		Conditions: conditionsWithFulfilled(1, 2),
	}
	newer := snapshotdomain.SnapshotRecord{
		ContractID: "C-B",
		Status:     snapshotdomain.ContractStatusPartiallyFulfilled,
		ObservedAt: day(5),
		Conditions: conditionsWithFulfilled(1, 2),
	}

	canonical, ok := SelectCanonical([]snapshotdomain.SnapshotRecord{older, newer})
	require.True(t, ok)
	assert.Equal(t, newer.ObservedAt, canonical.ObservedAt)
}

func TestSelectCanonicalStatusPriorityBreaksExactTies(t *testing.T) {
	closed := snapshotdomain.SnapshotRecord{
		ContractID: "C-C",
		Status:     snapshotdomain.ContractStatusClosed,
		ObservedAt: day(2),
		Conditions: conditionsWithFulfilled(1, 2),
	}
	open := snapshotdomain.SnapshotRecord{
		ContractID: "C-C",
		Status:     snapshotdomain.ContractStatusOpen,
		ObservedAt: day(2),
		Conditions: conditionsWithFulfilled(1, 2),
	}

	canonical, ok := SelectCanonical([]snapshotdomain.SnapshotRecord{closed, open})
	require.True(t, ok)
	assert.Equal(t, snapshotdomain.ContractStatusOpen, canonical.Status)
}

func TestSelectCanonicalFullTieKeepsFirstEncountered(t *testing.T) {
	first := snapshotdomain.SnapshotRecord{
		ContractID: "C-D",
		Name:       "first",
		Status:     snapshotdomain.ContractStatusOpen,
		ObservedAt: day(2),
		Conditions: conditionsWithFulfilled(0, 2),
	}
	second := first
	second.Name = "second"

	canonical, ok := SelectCanonical([]snapshotdomain.SnapshotRecord{first, second})
	require.True(t, ok)
	assert.Equal(t, "first", canonical.Name)
}

func TestSelectCanonicalDeterministic(t *testing.T) {
	records := []snapshotdomain.SnapshotRecord{
		{ContractID: "C-E", Status: snapshotdomain.ContractStatusOpen, ObservedAt: day(1), Conditions: conditionsWithFulfilled(0, 2)},
		{ContractID: "C-E", Status: snapshotdomain.ContractStatusPartiallyFulfilled, ObservedAt: day(3), Conditions: conditionsWithFulfilled(1, 2)},
		{ContractID: "C-E", Status: snapshotdomain.ContractStatusFulfilled, ObservedAt: day(2), Conditions: conditionsWithFulfilled(2, 2)},
	}

	baseline, ok := SelectCanonical(records)
	require.True(t, ok)
	for i := 0; i < 20; i++ {
		again, ok := SelectCanonical(records)
		require.True(t, ok)
		assert.Equal(t, baseline, again)
	}
}

// Three snapshots out of observation order: a fulfilled Day2 view must beat
// both the older and the newer partial views.
func TestSelectCanonicalFulfilledBeatsNewerPartial(t *testing.T) {
	records := []snapshotdomain.SnapshotRecord{
		{ContractID: "C1", Status: snapshotdomain.ContractStatusOpen, ObservedAt: day(1), Conditions: conditionsWithFulfilled(0, 2)},
		{ContractID: "C1", Status: snapshotdomain.ContractStatusPartiallyFulfilled, ObservedAt: day(3), Conditions: conditionsWithFulfilled(1, 2)},
		{ContractID: "C1", Status: snapshotdomain.ContractStatusFulfilled, ObservedAt: day(2), Conditions: conditionsWithFulfilled(2, 2)},
	}

	canonical, ok := SelectCanonical(records)
	require.True(t, ok)
	assert.Equal(t, snapshotdomain.ContractStatusFulfilled, canonical.Status)
	assert.Equal(t, day(2), canonical.ObservedAt)
	assert.InDelta(t, 1.0, canonical.FulfillmentRatio(), 1e-9)
}

func TestFulfillmentRatioEmptyConditions(t *testing.T) {
	record := snapshotdomain.SnapshotRecord{
		ContractID: "C-F",
		Status:     snapshotdomain.ContractStatusOpen,
		ObservedAt: day(1),
	}
	assert.Zero(t, record.FulfillmentRatio())

	canonical, ok := SelectCanonical([]snapshotdomain.SnapshotRecord{record})
	require.True(t, ok)
	assert.Equal(t, "C-F", canonical.ContractID)
}
