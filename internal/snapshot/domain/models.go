// Package domain contains persistence models for the append-only contract
// observation log.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// ContractStatus is the overall status a snapshot reports for its contract.
type ContractStatus string

const (
	ContractStatusOpen               ContractStatus = "OPEN"
	ContractStatusPartiallyFulfilled ContractStatus = "PARTIALLY_FULFILLED"
	ContractStatusFulfilled          ContractStatus = "FULFILLED"
	ContractStatusClosed             ContractStatus = "CLOSED"
	ContractStatusCancelled          ContractStatus = "CANCELLED"
	ContractStatusTerminated         ContractStatus = "TERMINATED"
)

// StatusPriority orders statuses for canonical selection and history views.
// Unrecognized statuses sort last.
func StatusPriority(status ContractStatus) int {
	switch status {
	case ContractStatusOpen:
		return 1
	case ContractStatusClosed:
		return 2
	case ContractStatusPartiallyFulfilled:
		return 3
	case ContractStatusFulfilled:
		return 4
	default:
		return 99
	}
}

// Party identifies which side of the contract the observing account occupies.
type Party string

const (
	PartyCustomer Party = "CUSTOMER"
	PartyProvider Party = "PROVIDER"
)

// ConditionStatus is the status of one sub-obligation.
type ConditionStatus string

const (
	ConditionStatusOpen      ConditionStatus = "OPEN"
	ConditionStatusPending   ConditionStatus = "PENDING"
	ConditionStatusFulfilled ConditionStatus = "FULFILLED"
	ConditionStatusCancelled ConditionStatus = "CANCELLED"
)

// Condition types seen in upstream logs.
const (
	ConditionTypePayment             = "PAYMENT"
	ConditionTypeFinancial           = "FINANCIAL"
	ConditionTypeProvision           = "PROVISION"
	ConditionTypeProvisionShipment   = "PROVISION_SHIPMENT"
	ConditionTypePickupShipment      = "PICKUP_SHIPMENT"
	ConditionTypeDeliveryShipment    = "DELIVERY_SHIPMENT"
	ConditionTypeDelivery            = "DELIVERY"
	ConditionTypeComexPurchasePickup = "COMEX_PURCHASE_PICKUP"
	ConditionTypeReputation          = "REPUTATION"
)

// FinancialPayload is a monetary leg carried by a condition.
type FinancialPayload struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

// MaterialPayload is a quantity of a traded good carried by a condition.
type MaterialPayload struct {
	Ticker string  `json:"ticker"`
	Amount float64 `json:"amount"`
}

// Condition is one sub-obligation inside a snapshot. Index is its position
// within the owning snapshot's condition sequence and is stable identity
// there.
type Condition struct {
	Index                  int               `json:"index"`
	ID                     string            `json:"id,omitempty"`
	Status                 ConditionStatus   `json:"status"`
	Type                   string            `json:"type"`
	Dependencies           []string          `json:"dependencies,omitempty"`
	DeadlineDurationMillis int64             `json:"deadline_duration_millis,omitempty"`
	Party                  Party             `json:"party,omitempty"`
	Financial              *FinancialPayload `json:"financial,omitempty"`
	Material               *MaterialPayload  `json:"material,omitempty"`
}

// SnapshotRecord is one timestamped observation of a contract's full state.
// Records are append-only and never updated once written.
type SnapshotRecord struct {
	ID            snowflake.ID                    `gorm:"primaryKey" json:"id"`
	ContractID    string                          `gorm:"type:text;not null;index" json:"contract_id"`
	ObservedAt    time.Time                       `gorm:"not null;index" json:"observed_at"`
	Status        ContractStatus                  `gorm:"type:text;not null" json:"status"`
	Party         Party                           `gorm:"type:text" json:"party"`
	PartnerName   string                          `gorm:"type:text" json:"partner_name,omitempty"`
	PartnerCode   string                          `gorm:"type:text" json:"partner_code,omitempty"`
	Name          string                          `gorm:"type:text" json:"name,omitempty"`
	Preamble      string                          `gorm:"type:text" json:"preamble,omitempty"`
	DeclaredDueAt *time.Time                      `json:"declared_due_at,omitempty"`
	Conditions    datatypes.JSONSlice[Condition]  `json:"conditions"`
	Source        string                          `gorm:"type:text" json:"source,omitempty"`
	CreatedAt     time.Time                       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (SnapshotRecord) TableName() string { return "snapshot_records" }

// FulfillmentRatio returns the fraction of conditions marked FULFILLED,
// or 0 when the snapshot carries no conditions.
func (s SnapshotRecord) FulfillmentRatio() float64 {
	total := len(s.Conditions)
	if total == 0 {
		return 0
	}
	fulfilled := 0
	for _, c := range s.Conditions {
		if c.Status == ConditionStatusFulfilled {
			fulfilled++
		}
	}
	return float64(fulfilled) / float64(total)
}
