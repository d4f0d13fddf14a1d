package purchase

import (
	"github.com/musichub/musichub/internal/clock"
	"github.com/musichub/musichub/internal/config"
	"github.com/musichub/musichub/internal/purchase/gateway"
	"github.com/musichub/musichub/internal/purchase/repository"
	"github.com/musichub/musichub/internal/purchase/service"
	"go.uber.org/fx"
)

var Module = fx.Module("purchase.service",
	fx.Provide(provideGateways),
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)

func provideGateways(holder *config.SettlementConfigHolder, clk clock.Clock) *gateway.Registry {
	return gateway.NewRegistry(
		gateway.NewSimulatedMobileMoney(holder, clk),
		gateway.NewSimulatedCard(holder, clk),
	)
}
