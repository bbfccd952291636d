package service

import (
	"testing"
	"time"

	snapshotdomain "github.com/orbitfall/tradewind/internal/snapshot/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

const hourMillis = int64(3600000)

func TestEffectiveDeadlineBlockedByUnmetDependency(t *testing.T) {
	record := snapshotdomain.SnapshotRecord{
		ContractID: "C-P1",
		Status:     snapshotdomain.ContractStatusOpen,
		ObservedAt: day(1),
		Conditions: datatypes.NewJSONSlice([]snapshotdomain.Condition{
			{Index: 0, ID: "pay", Status: snapshotdomain.ConditionStatusOpen, Type: snapshotdomain.ConditionTypePayment},
			{
				Index:                  1,
				ID:                     "deliver",
				Status:                 snapshotdomain.ConditionStatusOpen,
				Type:                   snapshotdomain.ConditionTypeDelivery,
				Dependencies:           []string{"pay"},
				DeadlineDurationMillis: hourMillis,
			},
		}),
	}

	assert.Nil(t, EffectiveDeadline(record))
}

func TestEffectiveDeadlineUnblocksWhenDependencyFulfilled(t *testing.T) {
	record := snapshotdomain.SnapshotRecord{
		ContractID: "C-P2",
		Status:     snapshotdomain.ContractStatusPartiallyFulfilled,
		ObservedAt: day(1),
		Conditions: datatypes.NewJSONSlice([]snapshotdomain.Condition{
			{Index: 0, ID: "pay", Status: snapshotdomain.ConditionStatusFulfilled, Type: snapshotdomain.ConditionTypePayment},
			{
				Index:                  1,
				ID:                     "deliver",
				Status:                 snapshotdomain.ConditionStatusOpen,
				Type:                   snapshotdomain.ConditionTypeDelivery,
				Dependencies:           []string{"pay"},
				DeadlineDurationMillis: hourMillis,
			},
		}),
	}

	deadline := EffectiveDeadline(record)
	require.NotNil(t, deadline)
	assert.Equal(t, day(1).Add(time.Hour), *deadline)
}

func TestEffectiveDeadlineDanglingDependencyStaysBlocked(t *testing.T) {
	due := day(9)
	record := snapshotdomain.SnapshotRecord{
		ContractID:    "C-P3",
		Status:        snapshotdomain.ContractStatusOpen,
		ObservedAt:    day(1),
		DeclaredDueAt: &due,
		Conditions: datatypes.NewJSONSlice([]snapshotdomain.Condition{
			{
				Index:                  0,
				ID:                     "deliver",
				Status:                 snapshotdomain.ConditionStatusPending,
				Type:                   snapshotdomain.ConditionTypeDelivery,
				Dependencies:           []string{"no-such-sibling"},
				DeadlineDurationMillis: hourMillis,
			},
		}),
	}

	deadline := EffectiveDeadline(record)
	require.NotNil(t, deadline)
	assert.Equal(t, due, *deadline)
}

func TestEffectiveDeadlinePicksEarliestCandidate(t *testing.T) {
	record := snapshotdomain.SnapshotRecord{
		ContractID: "C-P4",
		Status:     snapshotdomain.ContractStatusOpen,
		ObservedAt: day(1),
		Conditions: datatypes.NewJSONSlice([]snapshotdomain.Condition{
			{Index: 0, ID: "a", Status: snapshotdomain.ConditionStatusOpen, Type: snapshotdomain.ConditionTypePayment, DeadlineDurationMillis: 3 * hourMillis},
			{Index: 1, ID: "b", Status: snapshotdomain.ConditionStatusPending, Type: snapshotdomain.ConditionTypeDelivery, DeadlineDurationMillis: hourMillis},
			{Index: 2, ID: "c", Status: snapshotdomain.ConditionStatusOpen, Type: snapshotdomain.ConditionTypeProvision, DeadlineDurationMillis: 2 * hourMillis},
		}),
	}

	deadline := EffectiveDeadline(record)
	require.NotNil(t, deadline)
	assert.Equal(t, day(1).Add(time.Hour), *deadline)
}

func TestEffectiveDeadlineIgnoresFulfilledAndZeroDuration(t *testing.T) {
	record := snapshotdomain.SnapshotRecord{
		ContractID: "C-P5",
		Status:     snapshotdomain.ContractStatusPartiallyFulfilled,
		ObservedAt: day(1),
		Conditions: datatypes.NewJSONSlice([]snapshotdomain.Condition{
			{Index: 0, ID: "done", Status: snapshotdomain.ConditionStatusFulfilled, Type: snapshotdomain.ConditionTypePayment, DeadlineDurationMillis: hourMillis},
			{Index: 1, ID: "no-timer", Status: snapshotdomain.ConditionStatusOpen, Type: snapshotdomain.ConditionTypeDelivery},
			{Index: 2, ID: "negative", Status: snapshotdomain.ConditionStatusOpen, Type: snapshotdomain.ConditionTypeProvision, DeadlineDurationMillis: -1},
		}),
	}

	assert.Nil(t, EffectiveDeadline(record))
}

func TestEffectiveDeadlineAbsentWithoutCandidatesOrDueDate(t *testing.T) {
	record := snapshotdomain.SnapshotRecord{
		ContractID: "C-P6",
		Status:     snapshotdomain.ContractStatusOpen,
		ObservedAt: day(1),
	}
	assert.Nil(t, EffectiveDeadline(record))
}
