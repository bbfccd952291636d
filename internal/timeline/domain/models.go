// Package domain defines the timeline layout derived from canonical
// contract intervals.
package domain

import (
	"context"
	"errors"
	"time"
)

// Window is the display range intervals are clamped to.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Validate rejects inverted windows before any processing starts.
func (w Window) Validate() error {
	if w.Start.IsZero() || w.End.IsZero() {
		return ErrInvalidWindow
	}
	if w.Start.After(w.End) {
		return ErrInvalidWindow
	}
	return nil
}

// Interval is one contract's lifespan before clamping.
type Interval struct {
	ContractID string    `json:"contract_id"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
}

// Placement is one contract's position on the laid-out timeline. Lanes are
// display rows: no two placements in a lane overlap.
type Placement struct {
	ContractID   string    `json:"contract_id"`
	Lane         int       `json:"lane"`
	ClampedStart time.Time `json:"clamped_start"`
	ClampedEnd   time.Time `json:"clamped_end"`
}

type Service interface {
	Layout(ctx context.Context, window Window) ([]Placement, error)
}

var ErrInvalidWindow = errors.New("invalid_window")
