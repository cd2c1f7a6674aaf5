package verse

import (
	"github.com/samuel161415/BryteSpring/internal/verse/repository"
	"github.com/samuel161415/BryteSpring/internal/verse/service"
	"go.uber.org/fx"
)

var Module = fx.Module("verse.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)
