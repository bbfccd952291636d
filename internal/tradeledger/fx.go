package tradeledger

import (
	"github.com/orbitfall/tradewind/internal/tradeledger/service"
	"go.uber.org/fx"
)

var Module = fx.Module("tradeledger.service",
	fx.Provide(service.NewService),
)
