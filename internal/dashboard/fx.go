package dashboard

import (
	"github.com/samuel161415/BryteSpring/internal/dashboard/service"
	"go.uber.org/fx"
)

var Module = fx.Module("dashboard.service",
	fx.Provide(service.NewService),
)
