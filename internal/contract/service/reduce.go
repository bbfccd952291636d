package service

import (
	"sort"

	snapshotdomain "github.com/orbitfall/tradewind/internal/snapshot/domain"
)

// SelectCanonical collapses one contract's snapshots into the record that
// best represents its current truth. A contract can be observed after it
// regresses (one side's view lags), so recency alone is unsafe: the most
// fulfilled snapshot wins, recency breaks ties, status priority breaks exact
// ties on both. The sort is stable, so a full tie keeps the first-encountered
// record. An empty input means the contract does not exist.
func SelectCanonical(records []snapshotdomain.SnapshotRecord) (snapshotdomain.SnapshotRecord, bool) {
	if len(records) == 0 {
		return snapshotdomain.SnapshotRecord{}, false
	}

	candidates := make([]snapshotdomain.SnapshotRecord, len(records))
	copy(candidates, records)

	ratios := make(map[int]float64, len(candidates))
	for i, record := range candidates {
		ratios[i] = record.FulfillmentRatio()
	}

	indexes := make([]int, len(candidates))
	for i := range indexes {
		indexes[i] = i
	}

	sort.SliceStable(indexes, func(a, b int) bool {
		i, j := indexes[a], indexes[b]
		if ratios[i] != ratios[j] {
			return ratios[i] > ratios[j]
		}
		if !candidates[i].ObservedAt.Equal(candidates[j].ObservedAt) {
			return candidates[i].ObservedAt.After(candidates[j].ObservedAt)
		}
		return snapshotdomain.StatusPriority(candidates[i].Status) < snapshotdomain.StatusPriority(candidates[j].Status)
	})

	return candidates[indexes[0]], true
}
