package audit

import (
	"github.com/samuel161415/BryteSpring/internal/audit/repository"
	"github.com/samuel161415/BryteSpring/internal/audit/service"
	"go.uber.org/fx"
)

var Module = fx.Module("audit.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
