package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/orbitfall/tradewind/internal/clock"
	"github.com/orbitfall/tradewind/internal/config"
	"github.com/orbitfall/tradewind/internal/contract"
	contractdomain "github.com/orbitfall/tradewind/internal/contract/domain"
	"github.com/orbitfall/tradewind/internal/migration"
	"github.com/orbitfall/tradewind/internal/observability/logger"
	"github.com/orbitfall/tradewind/internal/observability/metrics"
	"github.com/orbitfall/tradewind/internal/observability/tracing"
	"github.com/orbitfall/tradewind/internal/ratelimit"
	"github.com/orbitfall/tradewind/internal/reconcile"
	"github.com/orbitfall/tradewind/internal/snapshot"
	snapshotdomain "github.com/orbitfall/tradewind/internal/snapshot/domain"
	"github.com/orbitfall/tradewind/internal/timeline"
	timelinedomain "github.com/orbitfall/tradewind/internal/timeline/domain"
	"github.com/orbitfall/tradewind/internal/tradeledger"
	tradeledgerdomain "github.com/orbitfall/tradewind/internal/tradeledger/domain"
	"github.com/orbitfall/tradewind/pkg/db"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Module assembles the HTTP surface and every feature it depends on.
var Module = fx.Module("http.server",
	config.Module,
	clock.Module,
	db.Module,
	migration.Module,
	snapshot.Module,
	contract.Module,
	tradeledger.Module,
	timeline.Module,
	ratelimit.Module,
	reconcile.Module,
	fx.Provide(NewEngine),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

// NewEngine builds the gin engine with the shared middleware chain and the
// operational endpoints.
func NewEngine(log *zap.Logger, httpMetrics *metrics.HTTPMetrics) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.GinMiddleware(log))
	r.Use(tracing.GinMiddleware())
	r.Use(httpMetrics.GinMiddleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

// ServerParams collects the handler dependencies.
type ServerParams struct {
	fx.In

	Gin *gin.Engine
	Cfg config.Config
	Log *zap.Logger

	SnapshotSvc snapshotdomain.Service
	ContractSvc contractdomain.Service
	LedgerSvc   tradeledgerdomain.Service
	TimelineSvc timelinedomain.Service

	ObsMetrics    *metrics.Metrics                 `optional:"true"`
	IngestLimiter *ratelimit.SnapshotIngestLimiter `optional:"true"`
}

// Server holds the route handlers.
type Server struct {
	cfg config.Config
	log *zap.Logger

	snapshotSvc snapshotdomain.Service
	contractSvc contractdomain.Service
	ledgerSvc   tradeledgerdomain.Service
	timelineSvc timelinedomain.Service

	obsMetrics    *metrics.Metrics
	ingestLimiter *ratelimit.SnapshotIngestLimiter
}

// NewServer registers the v1 API on the shared engine.
func NewServer(p ServerParams) *Server {
	s := &Server{
		cfg:           p.Cfg,
		log:           p.Log.Named("server"),
		snapshotSvc:   p.SnapshotSvc,
		contractSvc:   p.ContractSvc,
		ledgerSvc:     p.LedgerSvc,
		timelineSvc:   p.TimelineSvc,
		obsMetrics:    p.ObsMetrics,
		ingestLimiter: p.IngestLimiter,
	}
	s.registerRoutes(p.Gin)
	return s
}

func (s *Server) registerRoutes(r *gin.Engine) {
	v1 := r.Group("/v1")
	{
		v1.POST("/snapshots", s.IngestSnapshot)
		v1.POST("/snapshots/batch", s.IngestSnapshotBatch)
		v1.GET("/snapshots", s.ListSnapshots)

		v1.GET("/contracts", s.ListContracts)
		v1.GET("/contracts/stats", s.ContractStats)
		v1.GET("/contracts/:id", s.GetContract)
		v1.GET("/contracts/:id/history", s.ContractHistory)

		v1.GET("/ledger/summary", s.LedgerSummary)

		v1.GET("/timeline", s.Timeline)
	}
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Error("http server exited", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}
