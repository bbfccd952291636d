package domain

import (
	"context"
	"errors"
	"time"

	"github.com/orbitfall/tradewind/pkg/db/pagination"
)

type CreateSnapshotRequest struct {
	ContractID    string         `json:"contract_id"`
	ObservedAt    time.Time      `json:"observed_at"`
	Status        ContractStatus `json:"status"`
	Party         Party          `json:"party"`
	PartnerName   string         `json:"partner_name"`
	PartnerCode   string         `json:"partner_code"`
	Name          string         `json:"name"`
	Preamble      string         `json:"preamble"`
	DeclaredDueAt *time.Time     `json:"declared_due_at"`
	Conditions    []Condition    `json:"conditions"`
	Source        string         `json:"source"`
}

type BatchCreateRequest struct {
	Snapshots []CreateSnapshotRequest `json:"snapshots"`
}

type ListSnapshotsRequest struct {
	ContractID string `json:"contract_id"`
	PageToken  string `json:"page_token"`
	PageSize   int    `json:"page_size"`
}

type ListSnapshotsResponse struct {
	pagination.PageInfo
	Snapshots []*SnapshotRecord `json:"snapshots"`
}

type Service interface {
	Ingest(context.Context, CreateSnapshotRequest) (*SnapshotRecord, error)
	IngestBatch(context.Context, BatchCreateRequest) ([]*SnapshotRecord, error)
	List(context.Context, ListSnapshotsRequest) (ListSnapshotsResponse, error)
	History(ctx context.Context, contractID string) ([]SnapshotRecord, error)
}

var (
	ErrInvalidContractID     = errors.New("invalid_contract_id")
	ErrInvalidObservedAt     = errors.New("invalid_observed_at")
	ErrInvalidStatus         = errors.New("invalid_status")
	ErrInvalidConditionIndex = errors.New("invalid_condition_index")
	ErrEmptyBatch            = errors.New("empty_batch")
	ErrInvalidPageToken      = errors.New("invalid_page_token")
)
