package service

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	obsmetrics "github.com/orbitfall/tradewind/internal/observability/metrics"
	snapshotdomain "github.com/orbitfall/tradewind/internal/snapshot/domain"
	"github.com/orbitfall/tradewind/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	defaultPageSize = 50
	maxPageSize     = 250
	maxBatchSize    = 500
)

type ServiceParam struct {
	fx.In

	Log        *zap.Logger
	GenID      *snowflake.Node
	Repo       snapshotdomain.Repository
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	log        *zap.Logger
	genID      *snowflake.Node
	repo       snapshotdomain.Repository
	obsMetrics *obsmetrics.Metrics
}

func NewService(p ServiceParam) snapshotdomain.Service {
	return &Service{
		log:        p.Log.Named("snapshot.service"),
		genID:      p.GenID,
		repo:       p.Repo,
		obsMetrics: p.ObsMetrics,
	}
}

func (s *Service) Ingest(ctx context.Context, req snapshotdomain.CreateSnapshotRequest) (*snapshotdomain.SnapshotRecord, error) {
	record, err := s.buildRecord(req)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Insert(ctx, record); err != nil {
		return nil, err
	}

	s.obsMetrics.RecordSnapshotIngest(ctx, record.Source, string(record.Status))
	s.log.Debug("snapshot ingested",
		zap.String("contract_id", record.ContractID),
		zap.String("status", string(record.Status)),
		zap.Int("conditions", len(record.Conditions)),
	)
	return record, nil
}

func (s *Service) IngestBatch(ctx context.Context, req snapshotdomain.BatchCreateRequest) ([]*snapshotdomain.SnapshotRecord, error) {
	if len(req.Snapshots) == 0 || len(req.Snapshots) > maxBatchSize {
		return nil, snapshotdomain.ErrEmptyBatch
	}

	records := make([]*snapshotdomain.SnapshotRecord, 0, len(req.Snapshots))
	for _, item := range req.Snapshots {
		record, err := s.buildRecord(item)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	if err := s.repo.InsertBatch(ctx, records); err != nil {
		return nil, err
	}

	for _, record := range records {
		s.obsMetrics.RecordSnapshotIngest(ctx, record.Source, string(record.Status))
	}
	s.log.Info("snapshot batch ingested", zap.Int("count", len(records)))
	return records, nil
}

func (s *Service) List(ctx context.Context, req snapshotdomain.ListSnapshotsRequest) (snapshotdomain.ListSnapshotsResponse, error) {
	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	filter := snapshotdomain.ListFilter{
		ContractID: strings.TrimSpace(req.ContractID),
		Limit:      pageSize + 1,
	}
	if req.PageToken != "" {
		cursor, err := pagination.DecodeCursor(req.PageToken)
		if err != nil {
			return snapshotdomain.ListSnapshotsResponse{}, snapshotdomain.ErrInvalidPageToken
		}
		afterID, err := strconv.ParseInt(cursor.ID, 10, 64)
		if err != nil {
			return snapshotdomain.ListSnapshotsResponse{}, snapshotdomain.ErrInvalidPageToken
		}
		filter.AfterID = afterID
	}

	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		return snapshotdomain.ListSnapshotsResponse{}, err
	}

	pageInfo, rows := pagination.BuildCursorPageInfo(rows, pageSize, func(record *snapshotdomain.SnapshotRecord) string {
		token, encodeErr := pagination.EncodeCursor(pagination.Cursor{
			ID:         record.ID.String(),
			ObservedAt: record.ObservedAt.UTC().Format(time.RFC3339Nano),
		})
		if encodeErr != nil {
			return ""
		}
		return token
	})

	return snapshotdomain.ListSnapshotsResponse{
		PageInfo:  *pageInfo,
		Snapshots: rows,
	}, nil
}

// History returns the full observation log for one contract, ordered the way
// operators review it: by status priority, then oldest observation first.
func (s *Service) History(ctx context.Context, contractID string) ([]snapshotdomain.SnapshotRecord, error) {
	contractID = strings.TrimSpace(contractID)
	if contractID == "" {
		return nil, snapshotdomain.ErrInvalidContractID
	}

	rows, err := s.repo.ListByContract(ctx, contractID)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(rows, func(i, j int) bool {
		pi := snapshotdomain.StatusPriority(rows[i].Status)
		pj := snapshotdomain.StatusPriority(rows[j].Status)
		if pi != pj {
			return pi < pj
		}
		return rows[i].ObservedAt.Before(rows[j].ObservedAt)
	})
	return rows, nil
}

func (s *Service) buildRecord(req snapshotdomain.CreateSnapshotRequest) (*snapshotdomain.SnapshotRecord, error) {
	contractID := strings.TrimSpace(req.ContractID)
	if contractID == "" {
		return nil, snapshotdomain.ErrInvalidContractID
	}
	if req.ObservedAt.IsZero() {
		return nil, snapshotdomain.ErrInvalidObservedAt
	}
	if strings.TrimSpace(string(req.Status)) == "" {
		return nil, snapshotdomain.ErrInvalidStatus
	}

	conditions, err := normalizeConditions(req.Conditions)
	if err != nil {
		return nil, err
	}

	var declaredDueAt *time.Time
	if req.DeclaredDueAt != nil {
		due := req.DeclaredDueAt.UTC()
		declaredDueAt = &due
	}

	return &snapshotdomain.SnapshotRecord{
		ID:            s.genID.Generate(),
		ContractID:    contractID,
		ObservedAt:    req.ObservedAt.UTC(),
		Status:        req.Status,
		Party:         req.Party,
		PartnerName:   strings.TrimSpace(req.PartnerName),
		PartnerCode:   strings.TrimSpace(req.PartnerCode),
		Name:          strings.TrimSpace(req.Name),
		Preamble:      req.Preamble,
		DeclaredDueAt: declaredDueAt,
		Conditions:    conditions,
		Source:        strings.TrimSpace(req.Source),
	}, nil
}

// normalizeConditions pins each condition's index to its position in the
// sequence. A caller-supplied index that disagrees with the position is
// rejected rather than silently reordered.
func normalizeConditions(conditions []snapshotdomain.Condition) ([]snapshotdomain.Condition, error) {
	if len(conditions) == 0 {
		return nil, nil
	}

	explicit := false
	for _, c := range conditions {
		if c.Index != 0 {
			explicit = true
			break
		}
	}

	out := make([]snapshotdomain.Condition, len(conditions))
	for i, c := range conditions {
		if explicit && c.Index != i {
			return nil, snapshotdomain.ErrInvalidConditionIndex
		}
		c.Index = i
		out[i] = c
	}
	return out, nil
}
