package role

import (
	"github.com/samuel161415/BryteSpring/internal/role/repository"
	"github.com/samuel161415/BryteSpring/internal/role/service"
	"go.uber.org/fx"
)

var Module = fx.Module("role.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)
