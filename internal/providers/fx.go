package providers

import (
	"github.com/samuel161415/BryteSpring/internal/providers/email"
	"github.com/samuel161415/BryteSpring/internal/providers/storage"
	"go.uber.org/fx"
)

var Module = fx.Module("providers",
	email.Module,
	storage.Module,
)
