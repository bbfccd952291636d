package timeline

import (
	"github.com/orbitfall/tradewind/internal/timeline/service"
	"go.uber.org/fx"
)

var Module = fx.Module("timeline.service",
	fx.Provide(service.NewService),
)
