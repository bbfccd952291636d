package migration

import (
	"github.com/bwmarrin/snowflake"
	"github.com/orbitfall/tradewind/internal/config"
	"github.com/orbitfall/tradewind/internal/seed"
	snapshotdomain "github.com/orbitfall/tradewind/internal/snapshot/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config, node *snowflake.Node) error {
		if cfg.DBType == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB); err != nil {
				return err
			}
		} else {
			if err := conn.AutoMigrate(&snapshotdomain.SnapshotRecord{}); err != nil {
				return err
			}
		}

		if cfg.SeedDemo {
			return seed.EnsureDemoData(conn, node)
		}
		return nil
	}),
)
