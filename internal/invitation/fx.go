package invitation

import (
	"github.com/samuel161415/BryteSpring/internal/invitation/repository"
	"github.com/samuel161415/BryteSpring/internal/invitation/service"
	"go.uber.org/fx"
)

var Module = fx.Module("invitation.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)
