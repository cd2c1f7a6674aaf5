package auth

import (
	"github.com/samuel161415/BryteSpring/internal/auth/repository"
	"github.com/samuel161415/BryteSpring/internal/auth/service"
	"go.uber.org/fx"
)

var Module = fx.Module("auth.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)
