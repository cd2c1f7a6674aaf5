package channel

import (
	"github.com/samuel161415/BryteSpring/internal/channel/repository"
	"github.com/samuel161415/BryteSpring/internal/channel/service"
	"go.uber.org/fx"
)

var Module = fx.Module("channel.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)
