package service

import (
	"time"

	snapshotdomain "github.com/orbitfall/tradewind/internal/snapshot/domain"
)

// EffectiveDeadline computes the nearest upcoming breach time for a canonical
// snapshot. A condition's countdown is only live once every dependency it
// names resolves to a FULFILLED sibling; a dependency id with no matching
// sibling keeps the condition blocked. With no live countdowns the declared
// due date applies, and with neither there is no deadline.
func EffectiveDeadline(record snapshotdomain.SnapshotRecord) *time.Time {
	base := record.ObservedAt

	fulfilledByID := make(map[string]bool, len(record.Conditions))
	for _, c := range record.Conditions {
		if c.ID != "" {
			fulfilledByID[c.ID] = c.Status == snapshotdomain.ConditionStatusFulfilled
		}
	}

	var earliest *time.Time
	for _, c := range record.Conditions {
		if c.Status != snapshotdomain.ConditionStatusOpen && c.Status != snapshotdomain.ConditionStatusPending {
			continue
		}
		if c.DeadlineDurationMillis <= 0 {
			continue
		}
		if blocked(c, fulfilledByID) {
			continue
		}

		candidate := base.Add(time.Duration(c.DeadlineDurationMillis) * time.Millisecond)
		if earliest == nil || candidate.Before(*earliest) {
			earliest = &candidate
		}
	}

	if earliest != nil {
		return earliest
	}
	if record.DeclaredDueAt != nil {
		due := *record.DeclaredDueAt
		return &due
	}
	return nil
}

func blocked(c snapshotdomain.Condition, fulfilledByID map[string]bool) bool {
	for _, dep := range c.Dependencies {
		if !fulfilledByID[dep] {
			return true
		}
	}
	return false
}
