// Package domain defines the role-aware ledger derived from fulfilled
// contracts.
package domain

import (
	"context"
	"errors"
	"time"
)

// ContractType classifies a contract by the condition types it carries.
type ContractType string

const (
	ContractTypeBuy     ContractType = "BUY"
	ContractTypeSell    ContractType = "SELL"
	ContractTypeShip    ContractType = "SHIP"
	ContractTypeUnknown ContractType = "UNKNOWN"
)

// Window is an inclusive date range over canonical observation times.
type Window struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// Validate rejects inverted windows before any processing starts.
func (w Window) Validate() error {
	if w.From.IsZero() || w.To.IsZero() {
		return ErrInvalidWindow
	}
	if w.From.After(w.To) {
		return ErrInvalidWindow
	}
	return nil
}

// Contains reports whether t falls inside the inclusive window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.From) && !t.After(w.To)
}

// MaterialFlow is one day's gains and losses for one ticker.
type MaterialFlow struct {
	Date   string  `json:"date"`
	Ticker string  `json:"ticker"`
	Gains  float64 `json:"gains"`
	Losses float64 `json:"losses"`
}

// Summary is the aggregated financial and material flow over a window.
type Summary struct {
	Revenue  float64 `json:"revenue"`
	Expenses float64 `json:"expenses"`
	Profit   float64 `json:"profit"`

	Currency string `json:"currency"`

	PerMaterialTotal  map[string]float64 `json:"per_material_total"`
	PerDayPerMaterial []MaterialFlow     `json:"per_day_per_material"`

	ContractsConsidered int `json:"contracts_considered"`
	SkippedConditions   int `json:"skipped_conditions"`
}

type Service interface {
	Summarize(ctx context.Context, window Window) (Summary, error)
}

var ErrInvalidWindow = errors.New("invalid_window")
