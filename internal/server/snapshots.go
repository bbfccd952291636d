package server

import (
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	snapshotdomain "github.com/orbitfall/tradewind/internal/snapshot/domain"
	"go.uber.org/zap"
)

const snapshotSourceHeader = "X-Snapshot-Source"

// IngestSnapshot appends one observation to the contract log.
func (s *Server) IngestSnapshot(c *gin.Context) {
	var req snapshotdomain.CreateSnapshotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ValidationError{Message: "invalid request body"})
		return
	}
	if req.Source == "" {
		req.Source = strings.TrimSpace(c.GetHeader(snapshotSourceHeader))
	}

	if !s.allowIngest(c, req.Source) {
		return
	}

	if s.ingestLimiter.Enabled() && req.ContractID != "" {
		token, ok, err := s.ingestLimiter.TryLockContract(c.Request.Context(), req.ContractID)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		if !ok {
			AbortWithError(c, ErrContractBusy)
			return
		}
		defer func() {
			if err := s.ingestLimiter.ReleaseContract(c.Request.Context(), req.ContractID, token); err != nil {
				s.log.Warn("release contract ingest lock", zap.String("contract_id", req.ContractID), zap.Error(err))
			}
		}()
	}

	record, err := s.snapshotSvc.Ingest(c.Request.Context(), req)
	if err != nil {
		s.obsMetrics.RecordSnapshotIngest(c.Request.Context(), req.Source, "error")
		AbortWithError(c, err)
		return
	}

	s.obsMetrics.RecordSnapshotIngest(c.Request.Context(), req.Source, "ok")
	c.JSON(http.StatusCreated, record)
}

// IngestSnapshotBatch appends several observations in one call.
func (s *Server) IngestSnapshotBatch(c *gin.Context) {
	var req snapshotdomain.BatchCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ValidationError{Message: "invalid request body"})
		return
	}

	source := strings.TrimSpace(c.GetHeader(snapshotSourceHeader))
	for i := range req.Snapshots {
		if req.Snapshots[i].Source == "" {
			req.Snapshots[i].Source = source
		}
	}

	if !s.allowIngest(c, source) {
		return
	}

	records, err := s.snapshotSvc.IngestBatch(c.Request.Context(), req)
	if err != nil {
		s.obsMetrics.RecordSnapshotIngest(c.Request.Context(), source, "error")
		AbortWithError(c, err)
		return
	}

	s.obsMetrics.RecordSnapshotIngest(c.Request.Context(), source, "ok")
	c.JSON(http.StatusCreated, gin.H{"snapshots": records})
}

// ListSnapshots pages through the raw log, optionally scoped to one contract.
func (s *Server) ListSnapshots(c *gin.Context) {
	var req snapshotdomain.ListSnapshotsRequest
	req.ContractID = strings.TrimSpace(c.Query("contract_id"))
	req.PageToken = c.Query("page_token")
	if raw := c.Query("page_size"); raw != "" {
		size, ok := parsePositiveInt(raw)
		if !ok {
			AbortWithError(c, ValidationError{Message: "invalid page_size"})
			return
		}
		req.PageSize = size
	}

	resp, err := s.snapshotSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) allowIngest(c *gin.Context, source string) bool {
	if !s.ingestLimiter.Enabled() {
		return true
	}
	result, err := s.ingestLimiter.AllowSource(c.Request.Context(), source)
	if err != nil {
		AbortWithError(c, err)
		return false
	}
	if !result.Allowed {
		s.obsMetrics.RecordRateLimitDenied(c.Request.Context(), source, c.FullPath(), "source_rate")
		if result.RetryAfter > 0 {
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(result.RetryAfter.Seconds()))))
		}
		AbortWithError(c, ErrRateLimited)
		return false
	}
	s.obsMetrics.RecordRateLimitAllowed(c.Request.Context(), source, c.FullPath())
	return true
}
