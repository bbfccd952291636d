package service

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	timelinedomain "github.com/orbitfall/tradewind/internal/timeline/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(hour int) time.Time {
	return time.Date(2026, time.March, 1, hour, 0, 0, 0, time.UTC)
}

func hourWindow(startHour, endHour int) timelinedomain.Window {
	return timelinedomain.Window{Start: at(startHour), End: at(endHour)}
}

func TestAssignLanesOverlappingPair(t *testing.T) {
	intervals := []timelinedomain.Interval{
		{ContractID: "a", Start: at(1), End: at(5)},
		{ContractID: "b", Start: at(2), End: at(6)},
		{ContractID: "c", Start: at(7), End: at(9)},
	}

	placements := AssignLanes(intervals, hourWindow(1, 9))
	require.Len(t, placements, 3)

	byID := make(map[string]timelinedomain.Placement)
	maxLane := 0
	for _, p := range placements {
		byID[p.ContractID] = p
		if p.Lane > maxLane {
			maxLane = p.Lane
		}
	}

	assert.NotEqual(t, byID["a"].Lane, byID["b"].Lane)
	assert.Equal(t, byID["a"].Lane, byID["c"].Lane)
	assert.Equal(t, 1, maxLane)
}

func TestAssignLanesClampsToWindow(t *testing.T) {
	intervals := []timelinedomain.Interval{
		{ContractID: "spans", Start: at(0), End: at(23)},
	}

	placements := AssignLanes(intervals, hourWindow(5, 10))
	require.Len(t, placements, 1)
	assert.Equal(t, at(5), placements[0].ClampedStart)
	assert.Equal(t, at(10), placements[0].ClampedEnd)
}

func TestAssignLanesDropsDegenerateIntervals(t *testing.T) {
	intervals := []timelinedomain.Interval{
		{ContractID: "inverted", Start: at(8), End: at(3)},
		{ContractID: "outside", Start: at(12), End: at(15)},
		{ContractID: "kept", Start: at(2), End: at(4)},
	}

	placements := AssignLanes(intervals, hourWindow(1, 10))
	require.Len(t, placements, 1)
	assert.Equal(t, "kept", placements[0].ContractID)
}

func TestAssignLanesTouchingIntervalsConflict(t *testing.T) {
	intervals := []timelinedomain.Interval{
		{ContractID: "first", Start: at(1), End: at(5)},
		{ContractID: "second", Start: at(5), End: at(9)},
	}

	placements := AssignLanes(intervals, hourWindow(1, 9))
	require.Len(t, placements, 2)
	assert.NotEqual(t, placements[0].Lane, placements[1].Lane)
}

func TestAssignLanesNoPlacementsSameLaneOverlap(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	intervals := make([]timelinedomain.Interval, 0, 60)
	for i := 0; i < 60; i++ {
		start := rng.Intn(20)
		length := 1 + rng.Intn(6)
		intervals = append(intervals, timelinedomain.Interval{
			ContractID: fmt.Sprintf("c-%d", i),
			Start:      at(start),
			End:        at(start + length),
		})
	}

	window := hourWindow(0, 23)
	placements := AssignLanes(intervals, window)

	for i := range placements {
		for j := i + 1; j < len(placements); j++ {
			if placements[i].Lane != placements[j].Lane {
				continue
			}
			disjoint := placements[i].ClampedEnd.Before(placements[j].ClampedStart) ||
				placements[j].ClampedEnd.Before(placements[i].ClampedStart)
			assert.True(t, disjoint, "lane %d holds overlapping %s and %s",
				placements[i].Lane, placements[i].ContractID, placements[j].ContractID)
		}
	}
}

// Lane count must equal the maximum number of intervals simultaneously open,
// the optimal coloring for interval graphs.
func TestAssignLanesLaneCountIsOptimal(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for trial := 0; trial < 25; trial++ {
		intervals := make([]timelinedomain.Interval, 0, 40)
		for i := 0; i < 40; i++ {
			start := rng.Intn(18)
			length := 1 + rng.Intn(5)
			intervals = append(intervals, timelinedomain.Interval{
				ContractID: fmt.Sprintf("t%d-c%d", trial, i),
				Start:      at(start),
				End:        at(start + length),
			})
		}

		window := hourWindow(0, 23)
		placements := AssignLanes(intervals, window)
		require.NotEmpty(t, placements)

		laneCount := 0
		for _, p := range placements {
			if p.Lane+1 > laneCount {
				laneCount = p.Lane + 1
			}
		}

		assert.Equal(t, maxConcurrent(placements), laneCount, "trial %d", trial)
	}
}

// maxConcurrent counts, at every placement start, how many placements are
// open under the touching-conflicts convention (end == start still counts).
func maxConcurrent(placements []timelinedomain.Placement) int {
	peak := 0
	for _, p := range placements {
		open := 0
		for _, q := range placements {
			if !q.ClampedStart.After(p.ClampedStart) && !q.ClampedEnd.Before(p.ClampedStart) {
				open++
			}
		}
		if open > peak {
			peak = open
		}
	}
	return peak
}
