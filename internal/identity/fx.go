package identity

import (
	"github.com/musichub/musichub/internal/clock"
	"github.com/musichub/musichub/internal/config"
	"github.com/musichub/musichub/internal/identity/repository"
	"github.com/musichub/musichub/internal/identity/service"
	"github.com/musichub/musichub/internal/identity/token"
	"go.uber.org/fx"
)

var Module = fx.Module("identity.service",
	fx.Provide(provideIssuer),
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)

func provideIssuer(cfg config.Config, clk clock.Clock) (*token.Issuer, error) {
	return token.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, clk)
}
