package service

import (
	"sort"
	"time"

	timelinedomain "github.com/orbitfall/tradewind/internal/timeline/domain"
)

// AssignLanes lays intervals out greedily: clamp to the window, drop
// degenerate intervals, sort by clamped start, then place each interval in
// the first lane whose last end is strictly before its start. Intervals that
// touch are treated as conflicting. The greedy first-fit over sorted starts
// yields exactly as many lanes as the maximum number of intervals open at
// any instant.
func AssignLanes(intervals []timelinedomain.Interval, window timelinedomain.Window) []timelinedomain.Placement {
	clamped := make([]timelinedomain.Placement, 0, len(intervals))
	for _, interval := range intervals {
		start := maxTime(interval.Start, window.Start)
		end := minTime(interval.End, window.End)
		if !end.After(start) {
			continue
		}
		clamped = append(clamped, timelinedomain.Placement{
			ContractID:   interval.ContractID,
			ClampedStart: start,
			ClampedEnd:   end,
		})
	}

	sort.SliceStable(clamped, func(i, j int) bool {
		if !clamped[i].ClampedStart.Equal(clamped[j].ClampedStart) {
			return clamped[i].ClampedStart.Before(clamped[j].ClampedStart)
		}
		return clamped[i].ContractID < clamped[j].ContractID
	})

	var laneEnds []time.Time
	for i := range clamped {
		assigned := -1
		for lane, laneEnd := range laneEnds {
			if laneEnd.Before(clamped[i].ClampedStart) {
				assigned = lane
				break
			}
		}
		if assigned == -1 {
			assigned = len(laneEnds)
			laneEnds = append(laneEnds, time.Time{})
		}
		clamped[i].Lane = assigned
		laneEnds[assigned] = clamped[i].ClampedEnd
	}

	return clamped
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
