package repository

import (
	"context"

	snapshotdomain "github.com/orbitfall/tradewind/internal/snapshot/domain"
	"gorm.io/gorm"
)

type snapshotRepo struct {
	db *gorm.DB
}

func Provide(db *gorm.DB) snapshotdomain.Repository {
	return &snapshotRepo{db: db}
}

func (r *snapshotRepo) Insert(ctx context.Context, record *snapshotdomain.SnapshotRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *snapshotRepo) InsertBatch(ctx context.Context, records []*snapshotdomain.SnapshotRecord) error {
	if len(records) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(records, 100).Error
}

func (r *snapshotRepo) List(ctx context.Context, filter snapshotdomain.ListFilter) ([]*snapshotdomain.SnapshotRecord, error) {
	query := r.db.WithContext(ctx).Model(&snapshotdomain.SnapshotRecord{})
	if filter.ContractID != "" {
		query = query.Where("contract_id = ?", filter.ContractID)
	}
	if filter.AfterID > 0 {
		query = query.Where("id > ?", filter.AfterID)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var rows []*snapshotdomain.SnapshotRecord
	if err := query.Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *snapshotRepo) ListByContract(ctx context.Context, contractID string) ([]snapshotdomain.SnapshotRecord, error) {
	var rows []snapshotdomain.SnapshotRecord
	err := r.db.WithContext(ctx).
		Where("contract_id = ?", contractID).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *snapshotRepo) ListAll(ctx context.Context) ([]snapshotdomain.SnapshotRecord, error) {
	var rows []snapshotdomain.SnapshotRecord
	err := r.db.WithContext(ctx).
		Order("contract_id ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *snapshotRepo) Version(ctx context.Context) (snapshotdomain.LogVersion, error) {
	var version snapshotdomain.LogVersion
	err := r.db.WithContext(ctx).
		Model(&snapshotdomain.SnapshotRecord{}).
		Select("COUNT(*) AS count, COALESCE(MAX(id), 0) AS max_id").
		Scan(&version).Error
	if err != nil {
		return snapshotdomain.LogVersion{}, err
	}
	return version, nil
}
