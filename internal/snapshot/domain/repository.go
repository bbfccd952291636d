package domain

import "context"

// ListFilter narrows paginated log listings.
type ListFilter struct {
	ContractID string
	AfterID    int64
	Limit      int
}

// LogVersion identifies the current content of the append-only log. Because
// records are never updated or deleted, (count, max id) changes iff the log
// changes.
type LogVersion struct {
	Count int64
	MaxID int64
}

type Repository interface {
	Insert(ctx context.Context, record *SnapshotRecord) error
	InsertBatch(ctx context.Context, records []*SnapshotRecord) error
	List(ctx context.Context, filter ListFilter) ([]*SnapshotRecord, error)
	ListByContract(ctx context.Context, contractID string) ([]SnapshotRecord, error)
	ListAll(ctx context.Context) ([]SnapshotRecord, error)
	Version(ctx context.Context) (LogVersion, error)
}
