// Package seed populates a small demo contract log for local runs.
package seed

import (
	"math/rand"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/oklog/ulid/v2"
	snapshotdomain "github.com/orbitfall/tradewind/internal/snapshot/domain"
	pkgdb "github.com/orbitfall/tradewind/pkg/db"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// EnsureDemoData inserts a handful of contracts when the log is empty. It is
// a no-op on a populated database so restarts stay idempotent.
func EnsureDemoData(db *gorm.DB, node *snowflake.Node) error {
	var count int64
	if err := db.Model(&snapshotdomain.SnapshotRecord{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	now := time.Now().UTC().Truncate(time.Hour)
	entropy := rand.New(rand.NewSource(now.UnixNano()))

	newContractID := func(at time.Time) string {
		return ulid.MustNew(ulid.Timestamp(at), entropy).String()
	}

	sellID := newContractID(now.Add(-72 * time.Hour))
	buyID := newContractID(now.Add(-48 * time.Hour))
	openID := newContractID(now.Add(-24 * time.Hour))
	due := now.Add(48 * time.Hour)

	records := []*snapshotdomain.SnapshotRecord{
		{
			ID:          node.Generate(),
			ContractID:  sellID,
			ObservedAt:  now.Add(-72 * time.Hour),
			Status:      snapshotdomain.ContractStatusFulfilled,
			Party:       snapshotdomain.PartyProvider,
			PartnerName: "Hortus Logistics",
			Conditions: datatypes.NewJSONSlice([]snapshotdomain.Condition{
				{
					Index:     0,
					ID:        "pay-1",
					Type:      snapshotdomain.ConditionTypePayment,
					Status:    snapshotdomain.ConditionStatusFulfilled,
					Party:     snapshotdomain.PartyCustomer,
					Financial: &snapshotdomain.FinancialPayload{Amount: 12500, Currency: "ICA"},
				},
				{
					Index:    1,
					ID:       "prov-1",
					Type:     snapshotdomain.ConditionTypeProvision,
					Status:   snapshotdomain.ConditionStatusFulfilled,
					Party:    snapshotdomain.PartyProvider,
					Material: &snapshotdomain.MaterialPayload{Ticker: "RAT", Amount: 500},
				},
			}),
			Source: "seed",
		},
		{
			ID:          node.Generate(),
			ContractID:  buyID,
			ObservedAt:  now.Add(-48 * time.Hour),
			Status:      snapshotdomain.ContractStatusFulfilled,
			Party:       snapshotdomain.PartyCustomer,
			PartnerName: "Vulcan Freight",
			Conditions: datatypes.NewJSONSlice([]snapshotdomain.Condition{
				{
					Index:     0,
					ID:        "pay-2",
					Type:      snapshotdomain.ConditionTypePayment,
					Status:    snapshotdomain.ConditionStatusFulfilled,
					Party:     snapshotdomain.PartyCustomer,
					Financial: &snapshotdomain.FinancialPayload{Amount: 3200, Currency: "ICA"},
				},
				{
					Index:    1,
					ID:       "pickup-2",
					Type:     snapshotdomain.ConditionTypeComexPurchasePickup,
					Status:   snapshotdomain.ConditionStatusFulfilled,
					Material: &snapshotdomain.MaterialPayload{Ticker: "DW", Amount: 200},
				},
			}),
			Source: "seed",
		},
		{
			ID:            node.Generate(),
			ContractID:    openID,
			ObservedAt:    now.Add(-24 * time.Hour),
			Status:        snapshotdomain.ContractStatusOpen,
			Party:         snapshotdomain.PartyProvider,
			PartnerName:   "Moria Mining",
			DeclaredDueAt: &due,
			Conditions: datatypes.NewJSONSlice([]snapshotdomain.Condition{
				{
					Index:  0,
					ID:     "pay-3",
					Type:   snapshotdomain.ConditionTypePayment,
					Status: snapshotdomain.ConditionStatusOpen,
					Party:  snapshotdomain.PartyCustomer,
				},
				{
					Index:                  1,
					ID:                     "prov-3",
					Type:                   snapshotdomain.ConditionTypeProvision,
					Status:                 snapshotdomain.ConditionStatusOpen,
					Party:                  snapshotdomain.PartyProvider,
					Dependencies:           []string{"pay-3"},
					DeadlineDurationMillis: 36 * 3600 * 1000,
					Material:               &snapshotdomain.MaterialPayload{Ticker: "FEO", Amount: 1000},
				},
			}),
			Source: "seed",
		},
	}

	err := db.CreateInBatches(records, len(records)).Error
	if err != nil && pkgdb.IsDuplicateKeyErr(err) {
		// Concurrent replica won the race; the log is seeded either way.
		return nil
	}
	return err
}
