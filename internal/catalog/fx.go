package catalog

import (
	"github.com/musichub/musichub/internal/catalog/repository"
	"github.com/musichub/musichub/internal/catalog/service"
	"go.uber.org/fx"
)

var Module = fx.Module("catalog.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
