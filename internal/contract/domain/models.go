// Package domain defines the canonical contract views derived from the
// observation log.
package domain

import (
	"context"
	"errors"
	"time"

	snapshotdomain "github.com/orbitfall/tradewind/internal/snapshot/domain"
)

// CanonicalState is the single snapshot chosen to represent a contract's
// current truth, plus the values derived from it. It is recomputed from the
// full log on demand and never persisted.
type CanonicalState struct {
	Record            snapshotdomain.SnapshotRecord `json:"record"`
	FulfillmentRatio  float64                       `json:"fulfillment_ratio"`
	EffectiveDeadline *time.Time                    `json:"effective_deadline,omitempty"`
}

// ContractID returns the identity of the underlying contract.
func (c CanonicalState) ContractID() string { return c.Record.ContractID }

// Stats summarizes the tracked contract population.
type Stats struct {
	Total              int `json:"total"`
	Fulfilled          int `json:"fulfilled"`
	OpenOrClosed       int `json:"open_or_closed"`
	PartiallyFulfilled int `json:"partially_fulfilled"`

	RecentCount   int `json:"recent_count"`
	PreviousCount int `json:"previous_count"`
	RecentDelta   int `json:"recent_delta"`

	EarliestObservedAt *time.Time `json:"earliest_observed_at,omitempty"`
	LatestObservedAt   *time.Time `json:"latest_observed_at,omitempty"`
}

type Service interface {
	ResolveAll(ctx context.Context) ([]CanonicalState, error)
	Resolve(ctx context.Context, contractID string) (CanonicalState, error)
	Stats(ctx context.Context) (Stats, error)
}

var (
	ErrContractNotFound  = errors.New("contract_not_found")
	ErrInvalidContractID = errors.New("invalid_contract_id")
)
