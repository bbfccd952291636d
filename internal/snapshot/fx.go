package snapshot

import (
	"github.com/orbitfall/tradewind/internal/snapshot/repository"
	"github.com/orbitfall/tradewind/internal/snapshot/service"
	"go.uber.org/fx"
)

var Module = fx.Module("snapshot.service",
	fx.Provide(
		repository.Provide,
		service.NewService,
	),
)
