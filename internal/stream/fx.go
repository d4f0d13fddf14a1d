package stream

import (
	"github.com/musichub/musichub/internal/stream/repository"
	"github.com/musichub/musichub/internal/stream/service"
	"go.uber.org/fx"
)

var Module = fx.Module("stream.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
